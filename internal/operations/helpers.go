package operations

import (
	"image"

	"github.com/disintegration/imaging"

	"raster-editor/internal/raster"
)

// toNRGBA renders a buffer as a non-premultiplied RGBA image, the working
// representation for all 8-bit kernels.
func toNRGBA(buf *raster.Buffer) *image.NRGBA {
	return imaging.Clone(buf.ToImage())
}

// captureLike snapshots a kernel result preserving the input buffer's
// channel layout. Operations that change the layout (grayscale, transparent
// rotation fill) capture explicitly instead.
func captureLike(img image.Image, input *raster.Buffer) (*raster.Buffer, error) {
	return raster.FromImageLayout(img, input.Channels())
}

func floatOf(params map[string]interface{}, name string) float64 {
	f, _ := toFloat(params[name])
	return f
}

func intOf(params map[string]interface{}, name string) int {
	f, _ := toFloat(params[name])
	return int(f)
}

func strOf(params map[string]interface{}, name string) string {
	s, _ := params[name].(string)
	return s
}

func boolOf(params map[string]interface{}, name string) bool {
	b, _ := params[name].(bool)
	return b
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
