package buffer_test

import (
	"fmt"

	"github.com/openexg/eegmon/dsp/buffer"
)

func ExampleRing() {
	r := buffer.NewRing(3)
	r.Append([]float64{1, 2, 3, 4, 5})

	fmt.Println(r.Snapshot(nil))
	fmt.Println(r.Total())
	// Output:
	// [3 4 5]
	// 5
}
