package operations

import "testing"

func TestNoise_SameSeedSameOutput(t *testing.T) {
	src := grayRamp(t, 20, 20, 3)
	params := map[string]interface{}{"kind": "gaussian", "intensity": 0.2, "seed": 7.0}

	first := apply(t, "add-noise", params, src)
	second := apply(t, "add-noise", params, src)
	if !first.Equal(second) {
		t.Error("same seed produced different noise")
	}
}

func TestNoise_DifferentSeedsDiffer(t *testing.T) {
	src := grayRamp(t, 20, 20, 3)

	a := apply(t, "add-noise", map[string]interface{}{"intensity": 0.2, "seed": 1.0}, src)
	b := apply(t, "add-noise", map[string]interface{}{"intensity": 0.2, "seed": 2.0}, src)
	if a.Equal(b) {
		t.Error("different seeds produced identical noise")
	}
}

func TestNoise_ZeroIntensityIsIdentity(t *testing.T) {
	src := grayRamp(t, 10, 10, 3)

	for _, kind := range []string{"gaussian", "salt-pepper"} {
		out := apply(t, "add-noise", map[string]interface{}{"kind": kind, "intensity": 0.0}, src)
		if !src.Equal(out) {
			t.Errorf("%s noise with zero intensity changed the image", kind)
		}
	}
}

func TestNoise_SaltPepperExtremes(t *testing.T) {
	src := solidBuffer(t, 10, 10, 90, 90, 90)
	out := apply(t, "add-noise", map[string]interface{}{"kind": "salt-pepper", "intensity": 1.0}, src)

	for i, v := range out.Pix() {
		if v != 0 && v != 255 {
			t.Fatalf("byte %d is %d, want 0 or 255 at full intensity", i, v)
		}
	}
}
