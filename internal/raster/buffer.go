// Immutable raster buffer with explicit layout metadata
package raster

import (
	"fmt"
	"image"
	"image/draw"
)

// MaxDimension bounds buffer sides to prevent runaway allocations.
const MaxDimension = 16384

// Buffer is an immutable snapshot of pixel data. Pixel bytes are row-major,
// channels interleaved, 16-bit samples stored big-endian. A Buffer is never
// mutated after creation; every operation produces a new one.
type Buffer struct {
	width    int
	height   int
	channels int // 1 (gray), 3 (RGB), 4 (RGBA, non-premultiplied)
	depth    int // bits per channel: 8 or 16
	pix      []byte
}

// New validates the layout and copies pix into a fresh buffer.
func New(width, height, channels, depth int, pix []byte) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer dimensions: %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("buffer too large: %dx%d (max: %d)", width, height, MaxDimension)
	}
	if channels != 1 && channels != 3 && channels != 4 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if depth != 8 && depth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d", depth)
	}
	want := width * height * channels * (depth / 8)
	if len(pix) != want {
		return nil, fmt.Errorf("pixel data length %d does not match layout (want %d)", len(pix), want)
	}
	p := make([]byte, want)
	copy(p, pix)
	return &Buffer{width: width, height: height, channels: channels, depth: depth, pix: p}, nil
}

func (b *Buffer) Width() int    { return b.width }
func (b *Buffer) Height() int   { return b.height }
func (b *Buffer) Channels() int { return b.channels }
func (b *Buffer) Depth() int    { return b.depth }

// Pix returns a copy of the pixel data so callers cannot reach into the
// buffer and break immutability.
func (b *Buffer) Pix() []byte {
	p := make([]byte, len(b.pix))
	copy(p, b.pix)
	return p
}

// Equal reports whether two buffers have identical layout and pixel bytes.
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil {
		return false
	}
	if b.width != other.width || b.height != other.height ||
		b.channels != other.channels || b.depth != other.depth {
		return false
	}
	for i := range b.pix {
		if b.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// ToImage materializes the buffer as the matching stdlib image type.
func (b *Buffer) ToImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)
	switch {
	case b.channels == 1 && b.depth == 8:
		img := image.NewGray(rect)
		copy(img.Pix, b.pix)
		return img
	case b.channels == 1 && b.depth == 16:
		img := image.NewGray16(rect)
		copy(img.Pix, b.pix)
		return img
	case b.channels == 3 && b.depth == 8:
		img := image.NewNRGBA(rect)
		si := 0
		for di := 0; di < len(img.Pix); di += 4 {
			img.Pix[di+0] = b.pix[si+0]
			img.Pix[di+1] = b.pix[si+1]
			img.Pix[di+2] = b.pix[si+2]
			img.Pix[di+3] = 0xff
			si += 3
		}
		return img
	case b.channels == 4 && b.depth == 8:
		img := image.NewNRGBA(rect)
		copy(img.Pix, b.pix)
		return img
	case b.channels == 3 && b.depth == 16:
		img := image.NewNRGBA64(rect)
		si := 0
		for di := 0; di < len(img.Pix); di += 8 {
			copy(img.Pix[di:di+6], b.pix[si:si+6])
			img.Pix[di+6] = 0xff
			img.Pix[di+7] = 0xff
			si += 6
		}
		return img
	default: // 4 channels, 16 bit
		img := image.NewNRGBA64(rect)
		copy(img.Pix, b.pix)
		return img
	}
}

// FromImage captures an image into a buffer, choosing the tightest layout:
// gray images keep one channel, 16-bit sources keep 16 bits, and fully
// opaque color images normalize to 3 channels. The normalization keeps
// lossless round trips channel-stable (PNG drops the alpha plane for opaque
// images on encode).
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		return New(w, h, 1, 8, packedPix(src.Pix, src.Stride, w*1, h))
	case *image.Gray16:
		return New(w, h, 1, 16, packedPix(src.Pix, src.Stride, w*2, h))
	case *image.NRGBA:
		return fromNRGBAPix(packedPix(src.Pix, src.Stride, w*4, h), w, h)
	case *image.NRGBA64:
		return fromNRGBA64Pix(packedPix(src.Pix, src.Stride, w*8, h), w, h)
	case *image.RGBA64:
		nrgba64 := image.NewNRGBA64(image.Rect(0, 0, w, h))
		draw.Draw(nrgba64, nrgba64.Bounds(), src, bounds.Min, draw.Src)
		return fromNRGBA64Pix(nrgba64.Pix, w, h)
	}

	return fromNRGBAPix(nrgbaPix(img), w, h)
}

// FromImageLayout captures an image forcing a specific channel layout at
// 8 bits per channel. Operations use it to preserve their input's layout.
func FromImageLayout(img image.Image, channels int) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
		return New(w, h, 1, 8, gray.Pix)
	}

	src := nrgbaPix(img)

	switch channels {
	case 3:
		pix := make([]byte, w*h*3)
		di := 0
		for si := 0; si < len(src); si += 4 {
			pix[di+0] = src[si+0]
			pix[di+1] = src[si+1]
			pix[di+2] = src[si+2]
			di += 3
		}
		return New(w, h, 3, 8, pix)
	case 4:
		return New(w, h, 4, 8, src)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

// nrgbaPix returns tightly packed non-premultiplied RGBA bytes for img,
// avoiding the premultiply round trip for sources that are already NRGBA.
func nrgbaPix(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if src, ok := img.(*image.NRGBA); ok {
		return packedPix(src.Pix, src.Stride, w*4, h)
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba.Pix
}

func fromNRGBAPix(pix []byte, w, h int) (*Buffer, error) {
	opaque := true
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xff {
			opaque = false
			break
		}
	}
	if !opaque {
		return New(w, h, 4, 8, pix)
	}
	rgb := make([]byte, w*h*3)
	di := 0
	for si := 0; si < len(pix); si += 4 {
		rgb[di+0] = pix[si+0]
		rgb[di+1] = pix[si+1]
		rgb[di+2] = pix[si+2]
		di += 3
	}
	return New(w, h, 3, 8, rgb)
}

func fromNRGBA64Pix(pix []byte, w, h int) (*Buffer, error) {
	opaque := true
	for i := 6; i < len(pix); i += 8 {
		if pix[i] != 0xff || pix[i+1] != 0xff {
			opaque = false
			break
		}
	}
	if !opaque {
		return New(w, h, 4, 16, pix)
	}
	rgb := make([]byte, w*h*6)
	di := 0
	for si := 0; si < len(pix); si += 8 {
		copy(rgb[di:di+6], pix[si:si+6])
		di += 6
	}
	return New(w, h, 3, 16, rgb)
}

// packedPix flattens a possibly strided pixel slice into tightly packed rows.
func packedPix(pix []byte, stride, rowBytes, rows int) []byte {
	if stride == rowBytes {
		return pix[:rowBytes*rows]
	}
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[y*stride:y*stride+rowBytes])
	}
	return out
}
