// Package render rasterizes spectrogram data to PNG images with the
// viridis colormap.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Options controls the spectrogram rasterization. Zero values select the
// monitor defaults.
type Options struct {
	MinDB float64 // value mapped to the bottom of the colormap
	MaxDB float64 // value mapped to the top of the colormap

	// Pixels per spectrogram cell. Columns are time, rows are frequency.
	CellWidth  int
	CellHeight int
}

func (o Options) withDefaults() Options {
	if o.MinDB == 0 && o.MaxDB == 0 {
		o.MinDB, o.MaxDB = -40, 40
	}
	if o.CellWidth <= 0 {
		o.CellWidth = 4
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 2
	}
	return o
}

// Spectrogram renders dB columns as an image: time runs left to right,
// frequency bottom to top. Columns must all have the same bin count.
func Spectrogram(columns [][]float64, opts Options) (*image.RGBA, error) {
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil, fmt.Errorf("render: empty spectrogram")
	}
	opts = opts.withDefaults()
	if opts.MaxDB <= opts.MinDB {
		return nil, fmt.Errorf("render: dB range [%g, %g] is empty", opts.MinDB, opts.MaxDB)
	}

	bins := len(columns[0])
	for i, col := range columns {
		if len(col) != bins {
			return nil, fmt.Errorf("render: column %d has %d bins, want %d", i, len(col), bins)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, len(columns)*opts.CellWidth, bins*opts.CellHeight))
	span := opts.MaxDB - opts.MinDB

	for x, col := range columns {
		for bin, v := range col {
			c := viridis((v - opts.MinDB) / span)
			// Bin 0 (DC) sits at the bottom of the image.
			y0 := (bins - 1 - bin) * opts.CellHeight
			for dy := 0; dy < opts.CellHeight; dy++ {
				for dx := 0; dx < opts.CellWidth; dx++ {
					img.SetRGBA(x*opts.CellWidth+dx, y0+dy, c)
				}
			}
		}
	}

	return img, nil
}

// WritePNG renders the spectrogram and writes it to path.
func WritePNG(path string, columns [][]float64, opts Options) error {
	img, err := Spectrogram(columns, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	return nil
}

// viridis anchor colors at equal spacing from 0 to 1.
var viridisStops = [][3]uint8{
	{68, 1, 84},
	{71, 44, 122},
	{59, 81, 139},
	{44, 113, 142},
	{33, 144, 141},
	{39, 173, 129},
	{92, 200, 99},
	{170, 220, 50},
	{253, 231, 37},
}

// viridis maps t in [0, 1] to a colormap sample, clamping out-of-range input.
func viridis(t float64) color.RGBA {
	if t <= 0 {
		s := viridisStops[0]
		return color.RGBA{s[0], s[1], s[2], 255}
	}
	if t >= 1 {
		s := viridisStops[len(viridisStops)-1]
		return color.RGBA{s[0], s[1], s[2], 255}
	}

	pos := t * float64(len(viridisStops)-1)
	i := int(pos)
	frac := pos - float64(i)

	a, b := viridisStops[i], viridisStops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + frac*(float64(y)-float64(x)))
	}
	return color.RGBA{lerp(a[0], b[0]), lerp(a[1], b[1]), lerp(a[2], b[2]), 255}
}
