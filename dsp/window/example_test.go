package window_test

import (
	"fmt"

	"github.com/openexg/eegmon/dsp/window"
)

func ExampleGenerate() {
	w := window.Generate(window.TypeHann, 5)
	for _, v := range w {
		fmt.Printf("%.2f ", v)
	}
	fmt.Println()
	// Output: 0.00 0.50 1.00 0.50 0.00
}
