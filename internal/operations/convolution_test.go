package operations

import (
	"errors"
	"testing"
)

func TestBlur_PreservesDimensions(t *testing.T) {
	src := grayRamp(t, 32, 24, 3)

	for _, method := range []string{"gaussian", "median", "bilateral"} {
		t.Run(method, func(t *testing.T) {
			out := apply(t, "blur", map[string]interface{}{"method": method, "kernel-size": 3.0}, src)
			if out.Width() != 32 || out.Height() != 24 || out.Channels() != 3 {
				t.Errorf("layout changed: %dx%d ch=%d", out.Width(), out.Height(), out.Channels())
			}
		})
	}
}

func TestBlur_KernelLargerThanImage(t *testing.T) {
	src := grayRamp(t, 5, 5, 3)
	bound, err := Default().Resolve("blur", map[string]interface{}{"kernel-size": 7.0})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	err = bound.ValidateFor(src)
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("got %v, want UnsupportedError", err)
	}

	// Apply repeats the check rather than clamping silently.
	if _, err := bound.Apply(src); !errors.As(err, &unsupported) {
		t.Errorf("Apply: got %v, want UnsupportedError", err)
	}
}

func TestBilateral_SmoothsUniformRegion(t *testing.T) {
	src := solidBuffer(t, 9, 9, 90, 90, 90)
	out := apply(t, "blur", map[string]interface{}{"method": "bilateral", "kernel-size": 3.0}, src)

	// a constant image is a fixed point of the bilateral filter
	if !src.Equal(out) {
		t.Error("bilateral filter altered a constant image")
	}
}

func TestSharpen_PreservesDimensions(t *testing.T) {
	src := grayRamp(t, 16, 16, 3)

	for _, tc := range []map[string]interface{}{
		{"method": "laplacian", "strength": 1.0},
		{"method": "laplacian", "strength": 0.5},
		{"method": "unsharp-mask", "strength": 1.5, "radius": 2.0},
	} {
		out := apply(t, "sharpen", tc, src)
		if out.Width() != 16 || out.Height() != 16 {
			t.Errorf("%v: dimensions changed to %dx%d", tc, out.Width(), out.Height())
		}
	}
}
