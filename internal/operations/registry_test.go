package operations

import (
	"errors"
	"testing"

	"raster-editor/internal/raster"
)

func grayRamp(t *testing.T, w, h, channels int) *raster.Buffer {
	t.Helper()
	pix := make([]byte, w*h*channels)
	for i := range pix {
		pix[i] = byte(i * 5)
	}
	buf, err := raster.New(w, h, channels, 8, pix)
	if err != nil {
		t.Fatalf("building test buffer: %v", err)
	}
	return buf
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("rotate", &RotateOp{}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	err := r.Register("rotate", &RotateOp{})
	var dup *DuplicateOperationError
	if !errors.As(err, &dup) {
		t.Errorf("got %v, want DuplicateOperationError", err)
	}
}

func TestResolve_UnknownOperation(t *testing.T) {
	r := Default()

	_, err := r.Resolve("does-not-exist", nil)
	var unknown *UnknownOperationError
	if !errors.As(err, &unknown) {
		t.Errorf("got %v, want UnknownOperationError", err)
	}
}

func TestResolve_FillsDefaults(t *testing.T) {
	r := Default()

	bound, err := r.Resolve("blur", nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := intOf(bound.Params, "kernel-size"); got != 5 {
		t.Errorf("default kernel-size: got %d, want 5", got)
	}
	if got := strOf(bound.Params, "method"); got != "gaussian" {
		t.Errorf("default method: got %q, want gaussian", got)
	}
}

func TestResolve_InvalidParameters(t *testing.T) {
	r := Default()

	tests := []struct {
		name   string
		op     string
		params map[string]interface{}
	}{
		{"unknown parameter", "rotate", map[string]interface{}{"spin": 90.0}},
		{"out of range", "brightness", map[string]interface{}{"delta": 400.0}},
		{"wrong type", "rotate", map[string]interface{}{"angle": "ninety"}},
		{"non-integer int", "crop", map[string]interface{}{"x": 1.5}},
		{"bad enum", "flip", map[string]interface{}{"axis": "diagonal"}},
		{"even kernel", "blur", map[string]interface{}{"kernel-size": 4.0}},
		{"even morphology kernel", "morphology", map[string]interface{}{"kernel-size": 4.0}},
		{"bad fill color", "rotate", map[string]interface{}{"angle": 45.0, "fill": "solid-color", "fill-color": "red"}},
		{"canny thresholds inverted", "edge-detect", map[string]interface{}{"method": "canny", "threshold-low": 200.0, "threshold-high": 100.0}},
		{"resize without target", "resize", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.op, tt.params)
			var invalid *InvalidParameterError
			if !errors.As(err, &invalid) {
				t.Errorf("got %v, want InvalidParameterError", err)
			}
		})
	}
}

func TestDefault_RegistersAllCategories(t *testing.T) {
	r := Default()
	for _, name := range []string{
		"rotate", "flip", "crop", "resize",
		"brightness", "contrast",
		"sharpen", "blur",
		"add-noise",
		"grayscale", "sepia", "invert", "emboss", "edge-detect",
		"saturation", "hue-rotate",
		"threshold", "morphology",
	} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("built-in operation %q missing", name)
		}
	}
}

func TestOperations_DoNotMutateInput(t *testing.T) {
	r := Default()
	input := grayRamp(t, 24, 24, 3)
	before := input.Pix()

	cases := []struct {
		op     string
		params map[string]interface{}
	}{
		{"rotate", map[string]interface{}{"angle": 90.0}},
		{"rotate", map[string]interface{}{"angle": 33.0}},
		{"flip", nil},
		{"crop", map[string]interface{}{"w": 10.0, "h": 10.0}},
		{"resize", map[string]interface{}{"width": 12.0, "height": 12.0}},
		{"brightness", map[string]interface{}{"delta": 40.0}},
		{"contrast", map[string]interface{}{"factor": 2.0}},
		{"sharpen", nil},
		{"blur", nil},
		{"blur", map[string]interface{}{"method": "median"}},
		{"blur", map[string]interface{}{"method": "bilateral"}},
		{"add-noise", nil},
		{"grayscale", nil},
		{"sepia", nil},
		{"invert", nil},
		{"emboss", nil},
		{"edge-detect", nil},
		{"edge-detect", map[string]interface{}{"method": "canny"}},
		{"saturation", map[string]interface{}{"amount": 0.5}},
		{"hue-rotate", map[string]interface{}{"degrees": 90.0}},
		{"threshold", nil},
		{"morphology", map[string]interface{}{"mode": "close"}},
	}

	for _, tc := range cases {
		bound, err := r.Resolve(tc.op, tc.params)
		if err != nil {
			t.Fatalf("%s: Resolve failed: %v", tc.op, err)
		}
		if _, err := bound.Apply(input); err != nil {
			t.Fatalf("%s: Apply failed: %v", tc.op, err)
		}

		after := input.Pix()
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("%s mutated its input at byte %d", tc.op, i)
			}
		}
	}
}

func TestOperations_Deterministic(t *testing.T) {
	r := Default()
	input := grayRamp(t, 16, 16, 3)

	for _, tc := range []struct {
		op     string
		params map[string]interface{}
	}{
		{"add-noise", map[string]interface{}{"kind": "gaussian", "seed": 42.0}},
		{"add-noise", map[string]interface{}{"kind": "salt-pepper", "seed": 42.0}},
		{"blur", nil},
		{"rotate", map[string]interface{}{"angle": 45.0}},
	} {
		bound, err := r.Resolve(tc.op, tc.params)
		if err != nil {
			t.Fatalf("%s: Resolve failed: %v", tc.op, err)
		}
		first, err := bound.Apply(input)
		if err != nil {
			t.Fatalf("%s: Apply failed: %v", tc.op, err)
		}
		second, err := bound.Apply(input)
		if err != nil {
			t.Fatalf("%s: second Apply failed: %v", tc.op, err)
		}
		if !first.Equal(second) {
			t.Errorf("%s is not deterministic", tc.op)
		}
	}
}
