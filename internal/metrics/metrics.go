// Quality metrics between raster buffers
package metrics

import (
	"fmt"
	"math"

	"raster-editor/internal/raster"
)

// Evaluator computes quality metrics between an input buffer and a
// processed result.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// MSE returns the mean squared error over all pixel bytes. Buffers must
// share the same layout.
func (e *Evaluator) MSE(a, b *raster.Buffer) (float64, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() ||
		a.Channels() != b.Channels() || a.Depth() != b.Depth() {
		return 0, fmt.Errorf("buffer layouts differ: %dx%dx%d/%d vs %dx%dx%d/%d",
			a.Width(), a.Height(), a.Channels(), a.Depth(),
			b.Width(), b.Height(), b.Channels(), b.Depth())
	}

	pa, pb := a.Pix(), b.Pix()
	var sum float64
	for i := range pa {
		d := float64(pa[i]) - float64(pb[i])
		sum += d * d
	}
	return sum / float64(len(pa)), nil
}

// PSNR returns the peak signal-to-noise ratio in decibels. Identical
// buffers yield +Inf.
func (e *Evaluator) PSNR(a, b *raster.Buffer) (float64, error) {
	mse, err := e.MSE(a, b)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(255*255/mse), nil
}
