// Color operations: grayscale, sepia, invert, emboss, edge detection and
// color-space adjustments
package operations

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"

	"raster-editor/internal/raster"
)

// GrayscaleOp converts to luminance. The result is a 1-channel buffer.
type GrayscaleOp struct{}

func (o *GrayscaleOp) Name() string        { return "grayscale" }
func (o *GrayscaleOp) Description() string { return "Convert the image to grayscale" }
func (o *GrayscaleOp) Schema() []ParameterInfo {
	return nil
}

func (o *GrayscaleOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return raster.FromImageLayout(effect.Grayscale(input.ToImage()), 1)
}

// SepiaOp applies a sepia tone.
type SepiaOp struct{}

func (o *SepiaOp) Name() string        { return "sepia" }
func (o *SepiaOp) Description() string { return "Apply a sepia tone" }
func (o *SepiaOp) Schema() []ParameterInfo {
	return nil
}

func (o *SepiaOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return captureLike(effect.Sepia(input.ToImage()), input)
}

// InvertOp inverts every color channel.
type InvertOp struct{}

func (o *InvertOp) Name() string        { return "invert" }
func (o *InvertOp) Description() string { return "Invert the image colors" }
func (o *InvertOp) Schema() []ParameterInfo {
	return nil
}

func (o *InvertOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return captureLike(effect.Invert(input.ToImage()), input)
}

// EmbossOp applies an emboss kernel.
type EmbossOp struct{}

func (o *EmbossOp) Name() string        { return "emboss" }
func (o *EmbossOp) Description() string { return "Emboss the image" }
func (o *EmbossOp) Schema() []ParameterInfo {
	return nil
}

func (o *EmbossOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return captureLike(effect.Emboss(input.ToImage()), input)
}

// EdgeDetectOp extracts edges with Sobel gradients or the Canny detector.
// The result is a 1-channel buffer with edges in white.
type EdgeDetectOp struct{}

func (o *EdgeDetectOp) Name() string        { return "edge-detect" }
func (o *EdgeDetectOp) Description() string { return "Detect edges in the image" }

func (o *EdgeDetectOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "method",
			Type:        "enum",
			Default:     "sobel",
			Options:     []string{"sobel", "canny"},
			Description: "Edge detection method",
		},
		{Name: "threshold-low", Type: "int", Min: 0.0, Max: 255.0, Default: 100.0, Description: "Canny low threshold"},
		{Name: "threshold-high", Type: "int", Min: 0.0, Max: 255.0, Default: 200.0, Description: "Canny high threshold"},
	}
}

func (o *EdgeDetectOp) CheckParams(params map[string]interface{}) error {
	if intOf(params, "threshold-low") >= intOf(params, "threshold-high") {
		return &InvalidParameterError{
			Op:         o.Name(),
			Param:      "threshold-low",
			Constraint: "must be below threshold-high",
		}
	}
	return nil
}

func (o *EdgeDetectOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	var result image.Image
	if strOf(params, "method") == "canny" {
		result = cannyEdges(input.ToImage(), intOf(params, "threshold-low"), intOf(params, "threshold-high"))
	} else {
		result = effect.Sobel(effect.Grayscale(input.ToImage()))
	}
	return raster.FromImageLayout(result, 1)
}

// SaturationOp adjusts color saturation.
type SaturationOp struct{}

func (o *SaturationOp) Name() string        { return "saturation" }
func (o *SaturationOp) Description() string { return "Adjust color saturation" }

func (o *SaturationOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "amount",
			Type:        "float",
			Min:         -1.0,
			Max:         1.0,
			Default:     0.0,
			Description: "Saturation change, -1 fully desaturates",
		},
	}
}

func (o *SaturationOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return captureLike(adjust.Saturation(input.ToImage(), floatOf(params, "amount")), input)
}

// HueRotateOp shifts the hue of every pixel.
type HueRotateOp struct{}

func (o *HueRotateOp) Name() string        { return "hue-rotate" }
func (o *HueRotateOp) Description() string { return "Rotate the hue of the image" }

func (o *HueRotateOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "degrees",
			Type:        "int",
			Min:         -360.0,
			Max:         360.0,
			Default:     0.0,
			Description: "Hue shift in degrees",
		},
	}
}

func (o *HueRotateOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	return captureLike(adjust.Hue(input.ToImage(), intOf(params, "degrees")), input)
}
