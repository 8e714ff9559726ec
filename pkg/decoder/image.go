package decoder

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"dicomstack/internal/models"
)

// ImageDecoder decodes single-frame raster slices such as PNG, JPEG and TIFF
type ImageDecoder struct{}

// NewImageDecoder creates a raster slice decoder
func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

// Decode loads the image at path as a single grayscale frame
func (d *ImageDecoder) Decode(path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	frame := FrameFromImage(img)
	frame.Source = path
	return newResult([]models.DecodedFrame{frame}), nil
}

// FrameFromImage converts an image to a grayscale frame.
// 16-bit gray images keep their depth; everything else becomes 8-bit luma.
func FrameFromImage(img image.Image) models.DecodedFrame {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	frame := models.DecodedFrame{
		Data:    make([]int, width*height),
		Rows:    height,
		Columns: width,
		DType:   models.Uint8,
	}

	switch src := img.(type) {
	case *image.Gray16:
		frame.DType = models.Uint16
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				frame.Data[y*width+x] = int(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				frame.Data[y*width+x] = int(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
				frame.Data[y*width+x] = int(g.Y)
			}
		}
	}

	return frame
}
