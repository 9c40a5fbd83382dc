package recording

import (
	"fmt"
	"os"
	"strconv"

	"github.com/openexg/eegmon/acquisition"
)

// Load reads a raw recording back into samples plus its metadata sidecar.
// sampleRate comes from the sidecar when present, otherwise fallbackRate.
func Load(path string, fallbackRate int) (samples []int16, sampleRate int, meta Metadata, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("recording: read %s: %w", path, err)
	}
	if len(data)%2 != 0 {
		// A truncated final sample means the recording was cut mid-write;
		// drop the dangling byte and keep the rest.
		data = data[:len(data)-1]
	}

	var dec acquisition.Decoder
	samples = dec.Decode(make([]int16, 0, len(data)/2), data)

	meta, err = ReadMetadata(path)
	if err != nil {
		return nil, 0, nil, err
	}

	sampleRate = fallbackRate
	if v, ok := meta["sample_rate"]; ok {
		if parsed, perr := strconv.Atoi(v); perr == nil && parsed > 0 {
			sampleRate = parsed
		}
	}

	return samples, sampleRate, meta, nil
}
