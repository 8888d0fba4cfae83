// Tonal operations: brightness and contrast
package operations

import (
	"raster-editor/internal/raster"
)

// BrightnessOp adds a signed delta to every color channel, clamped to the
// valid channel range. Alpha is untouched.
type BrightnessOp struct{}

func (o *BrightnessOp) Name() string        { return "brightness" }
func (o *BrightnessOp) Description() string { return "Adjust brightness by an additive delta" }

func (o *BrightnessOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "delta",
			Type:        "float",
			Min:         -255.0,
			Max:         255.0,
			Default:     0.0,
			Description: "Value added to each channel, clamped to [0,255]",
		},
	}
}

func (o *BrightnessOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	delta := floatOf(params, "delta")
	return mapChannels(input, func(v float64) float64 {
		return v + delta
	})
}

// ContrastOp scales channel values around mid-gray by a positive factor.
type ContrastOp struct{}

func (o *ContrastOp) Name() string        { return "contrast" }
func (o *ContrastOp) Description() string { return "Adjust contrast by a factor around mid-gray" }

func (o *ContrastOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "factor",
			Type:        "float",
			Min:         0.01,
			Max:         10.0,
			Default:     1.0,
			Description: "Contrast factor, 1.0 leaves the image unchanged",
		},
	}
}

func (o *ContrastOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	factor := floatOf(params, "factor")
	return mapChannels(input, func(v float64) float64 {
		return (v-128)*factor + 128
	})
}

// mapChannels applies a per-channel tone function over the 8-bit rendering
// of the buffer, skipping alpha, and preserves the channel layout.
func mapChannels(input *raster.Buffer, fn func(float64) float64) (*raster.Buffer, error) {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(fn(float64(i)))
	}

	img := toNRGBA(input)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = lut[img.Pix[i+0]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
	return captureLike(img, input)
}
