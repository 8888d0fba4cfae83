package operations

import (
	"image"
	"math"
)

// cannyEdges runs the classic Canny pipeline: grayscale, gaussian smoothing,
// Sobel gradients, non-maximum suppression and hysteresis thresholding.
// Thresholds are in the 0-255 gradient magnitude range.
func cannyEdges(img image.Image, low, high int) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Luminance grid, ITU-R BT.601 weights.
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}

	blurred := gaussian5x5(gray, w, h)

	// Sobel gradients.
	magnitude := make([]float64, w*h)
	direction := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -blurred[(y-1)*w+x-1] + blurred[(y-1)*w+x+1] +
				-2*blurred[y*w+x-1] + 2*blurred[y*w+x+1] +
				-blurred[(y+1)*w+x-1] + blurred[(y+1)*w+x+1]
			gy := -blurred[(y-1)*w+x-1] - 2*blurred[(y-1)*w+x] - blurred[(y-1)*w+x+1] +
				blurred[(y+1)*w+x-1] + 2*blurred[(y+1)*w+x] + blurred[(y+1)*w+x+1]
			magnitude[y*w+x] = math.Hypot(gx, gy)
			direction[y*w+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression: keep only local maxima along the gradient.
	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			angle := direction[y*w+x] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var n1, n2 float64
			switch {
			case angle < 22.5 || angle >= 157.5: // horizontal
				n1, n2 = magnitude[y*w+x-1], magnitude[y*w+x+1]
			case angle < 67.5: // diagonal /
				n1, n2 = magnitude[(y-1)*w+x+1], magnitude[(y+1)*w+x-1]
			case angle < 112.5: // vertical
				n1, n2 = magnitude[(y-1)*w+x], magnitude[(y+1)*w+x]
			default: // diagonal \
				n1, n2 = magnitude[(y-1)*w+x-1], magnitude[(y+1)*w+x+1]
			}

			m := magnitude[y*w+x]
			if m >= n1 && m >= n2 {
				suppressed[y*w+x] = m
			}
		}
	}

	// Hysteresis: strong edges seed, weak edges survive only when connected
	// to a strong edge.
	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	labels := make([]byte, w*h)
	var stack []int
	for i, m := range suppressed {
		switch {
		case m >= float64(high):
			labels[i] = strong
			stack = append(stack, i)
		case m >= float64(low):
			labels[i] = weak
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if labels[ni] == weak {
					labels[ni] = strong
					stack = append(stack, ni)
				}
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i, label := range labels {
		if label == strong {
			out.Pix[i] = 255
		}
	}
	return out
}

// gaussian5x5 smooths a luminance grid with a normalized 5x5 gaussian
// kernel, replicating edges at the border.
func gaussian5x5(src []float64, w, h int) []float64 {
	kernel := [5]float64{1, 4, 6, 4, 1}
	const norm = 16.0

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * src[y*w+clampInt(x+k, 0, w-1)]
			}
			tmp[y*w+x] = sum / norm
		}
	}
	dst := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * tmp[clampInt(y+k, 0, h-1)*w+x]
			}
			dst[y*w+x] = sum / norm
		}
	}
	return dst
}
