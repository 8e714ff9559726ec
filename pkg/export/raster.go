package export

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"dicomstack/internal/models"
)

// Format is the raster file format written by the exporter
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
)

// Formats lists the supported raster formats
func Formats() []Format {
	return []Format{PNG, JPEG, TIFF}
}

// ParseFormat accepts a format name or common extension
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "tiff", "tif":
		return TIFF, nil
	}
	return "", fmt.Errorf("unsupported raster format %q", name)
}

// Ext is the file extension written for the format, without the dot
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return "jpg"
	case TIFF:
		return "tiff"
	default:
		return "png"
	}
}

// Encode writes img to w as a single-channel raster
func (f Format) Encode(w io.Writer, img image.Image) error {
	switch f {
	case JPEG:
		return jpeg.Encode(w, toGray8(img), &jpeg.Options{Quality: 90})
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// WriteFile encodes img to a new file at path
func (f Format) WriteFile(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FrameImage renders a frame as grayscale. 8-bit frames are written as is;
// deeper types are min-max scaled onto 16 bits, and a constant frame maps to 0.
func FrameImage(frame *models.DecodedFrame) image.Image {
	rect := image.Rect(0, 0, frame.Columns, frame.Rows)
	if frame.DType == models.Uint8 {
		img := image.NewGray(rect)
		for i, v := range frame.Data {
			img.Pix[i] = uint8(v)
		}
		return img
	}

	img := image.NewGray16(rect)
	if len(frame.Data) == 0 {
		return img
	}
	data := make([]float64, len(frame.Data))
	for i, v := range frame.Data {
		data[i] = float64(v)
	}
	lo, hi := floats.Min(data), floats.Max(data)
	if hi == lo {
		return img
	}
	for y := 0; y < frame.Rows; y++ {
		for x := 0; x < frame.Columns; x++ {
			value := uint16((data[y*frame.Columns+x] - lo) * 65535 / (hi - lo))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

func toGray8(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
