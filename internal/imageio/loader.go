// Image loading and saving built on the stdlib codecs plus golang.org/x/image
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"raster-editor/internal/raster"
)

// Format identifies an on-disk image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// DefaultJPEGQuality is used when the caller passes a quality of 0.
const DefaultJPEGQuality = 95

// DecodeError reports an unreadable or corrupt source.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a target encoding that cannot be produced.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image format: %s", e.Format)
}

// Loader handles image file operations.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Decode reads and decodes an image file into a raster buffer.
// Supported input formats: PNG, JPEG, GIF, BMP, TIFF, WebP.
func (l *Loader) Decode(path string) (*raster.Buffer, error) {
	l.logger.Debug("Loading image", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	buf, format, err := l.decodeBytes(data, path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Image loaded successfully",
		"path", path,
		"format", format,
		"width", buf.Width(),
		"height", buf.Height(),
		"channels", buf.Channels(),
		"depth", buf.Depth())
	return buf, nil
}

// DecodeBytes decodes raw image bytes into a raster buffer.
func (l *Loader) DecodeBytes(data []byte) (*raster.Buffer, error) {
	buf, _, err := l.decodeBytes(data, "<memory>")
	return buf, err
}

func (l *Loader) decodeBytes(data []byte, source string) (*raster.Buffer, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Source: source, Err: err}
	}
	buf, err := raster.FromImage(img)
	if err != nil {
		return nil, "", &DecodeError{Source: source, Err: err}
	}
	return buf, format, nil
}

// Encode writes a buffer to path in the given format. A zero quality selects
// DefaultJPEGQuality for JPEG output.
//
// Alpha policy: JPEG and BMP cannot represent an alpha channel, so 4-channel
// buffers are flattened against a white background before encoding. PNG and
// TIFF keep the alpha plane.
func (l *Loader) Encode(buf *raster.Buffer, path string, format Format, quality int) error {
	data, err := l.EncodeBytes(buf, format, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	l.logger.Info("Image saved successfully",
		"path", path,
		"format", string(format),
		"width", buf.Width(),
		"height", buf.Height())
	return nil
}

// EncodeBytes encodes a buffer into raw bytes in the given format.
func (l *Loader) EncodeBytes(buf *raster.Buffer, format Format, quality int) ([]byte, error) {
	img := buf.ToImage()

	var out bytes.Buffer
	switch format {
	case FormatPNG:
		if err := png.Encode(&out, img); err != nil {
			return nil, fmt.Errorf("png encoding failed: %w", err)
		}
	case FormatJPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&out, flattenAlpha(img, buf), &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encoding failed: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(&out, flattenAlpha(img, buf)); err != nil {
			return nil, fmt.Errorf("bmp encoding failed: %w", err)
		}
	case FormatTIFF:
		if err := tiff.Encode(&out, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, fmt.Errorf("tiff encoding failed: %w", err)
		}
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
	return out.Bytes(), nil
}

// FormatFromPath derives the target format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", &UnsupportedFormatError{Format: filepath.Ext(path)}
	}
}

// SupportedInputFormats lists the decodable format families.
func SupportedInputFormats() []string {
	return []string{"PNG", "JPEG", "GIF", "BMP", "TIFF", "WebP"}
}

// SupportedOutputFormats lists the encodable format families.
func SupportedOutputFormats() []string {
	return []string{"PNG", "JPEG", "BMP", "TIFF"}
}

// flattenAlpha composites a 4-channel buffer over white for encoders that
// cannot represent alpha. Buffers without alpha pass through untouched.
func flattenAlpha(img image.Image, buf *raster.Buffer) image.Image {
	if buf.Channels() != 4 {
		return img
	}
	bounds := img.Bounds()
	flat := image.NewNRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}
