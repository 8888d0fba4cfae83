// Noise generation
package operations

import (
	"math/rand"

	"raster-editor/internal/raster"
)

// NoiseOp adds gaussian or salt-and-pepper noise. The generator is seeded
// from the seed parameter so the operation stays deterministic: the same
// buffer and parameters always produce the same output.
type NoiseOp struct{}

func (o *NoiseOp) Name() string        { return "add-noise" }
func (o *NoiseOp) Description() string { return "Add noise to the image" }

func (o *NoiseOp) Schema() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "kind",
			Type:        "enum",
			Default:     "gaussian",
			Options:     []string{"gaussian", "salt-pepper"},
			Description: "Noise distribution",
		},
		{
			Name:        "intensity",
			Type:        "float",
			Min:         0.0,
			Max:         1.0,
			Default:     0.1,
			Description: "Noise intensity",
		},
		{
			Name:        "seed",
			Type:        "int",
			Min:         0.0,
			Max:         float64(1 << 31),
			Default:     1.0,
			Description: "Random seed, fixed for reproducible output",
		},
	}
}

func (o *NoiseOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	intensity := floatOf(params, "intensity")
	rng := rand.New(rand.NewSource(int64(intOf(params, "seed"))))

	img := toNRGBA(input)
	if strOf(params, "kind") == "salt-pepper" {
		for i := 0; i < len(img.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				switch r := rng.Float64(); {
				case r < intensity/2:
					img.Pix[i+c] = 0
				case r > 1-intensity/2:
					img.Pix[i+c] = 255
				}
			}
		}
	} else {
		for i := 0; i < len(img.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c]) + rng.NormFloat64()*intensity*255
				img.Pix[i+c] = clampByte(v)
			}
		}
	}
	return captureLike(img, input)
}
