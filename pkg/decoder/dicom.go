package decoder

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomstack/internal/models"
	"dicomstack/pkg/metadata"
)

// DICOMDecoder decodes DICOM Part 10 files, single- or multi-frame
type DICOMDecoder struct{}

// NewDICOMDecoder creates a DICOM decoder
func NewDICOMDecoder() *DICOMDecoder {
	return &DICOMDecoder{}
}

// Decode parses the file at path and extracts every frame of its pixel data.
// The file is closed before Decode returns, whatever the outcome.
func (d *DICOMDecoder) Decode(path string) (res *Result, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	// the parser can panic on corrupt headers
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = decodeErr(path, "corrupt dataset: %v", r)
		}
	}()

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	return decodeDataset(path, &ds)
}

func decodeDataset(path string, ds *dicom.Dataset) (*Result, error) {
	if spp, ok := metadata.Int(ds, tag.SamplesPerPixel); ok && spp != 1 {
		return nil, decodeErr(path, "unsupported samples per pixel %d", spp)
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, decodeErr(path, "no pixel data: %v", err)
	}
	pdi, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, decodeErr(path, "unexpected pixel data value %T", el.Value.GetValue())
	}
	if len(pdi.Frames) == 0 {
		return nil, decodeErr(path, "pixel data holds no frames")
	}

	signed := false
	if rep, ok := metadata.Int(ds, tag.PixelRepresentation); ok {
		signed = rep == 1
	}
	stored, _ := metadata.Int(ds, tag.BitsStored)

	frames := make([]models.DecodedFrame, 0, len(pdi.Frames))
	for i, fr := range pdi.Frames {
		var frame models.DecodedFrame
		if fr.IsEncapsulated() {
			img, err := fr.GetImage()
			if err != nil {
				return nil, decodeErr(path, "frame %d: %v", i, err)
			}
			frame = FrameFromImage(img)
		} else {
			native, err := fr.GetNativeFrame()
			if err != nil {
				return nil, decodeErr(path, "frame %d: %v", i, err)
			}
			frame, err = nativeFrame(native.Data, native.Rows, native.Cols, native.BitsPerSample, stored, signed)
			if err != nil {
				return nil, decodeErr(path, "frame %d: %v", i, err)
			}
		}
		frame.Source = path
		frame.Index = i
		if i > 0 && (frame.Rows != frames[0].Rows || frame.Columns != frames[0].Columns) {
			return nil, decodeErr(path, "frame %d is %dx%d, frame 0 is %dx%d",
				i, frame.Rows, frame.Columns, frames[0].Rows, frames[0].Columns)
		}
		frames = append(frames, frame)
	}

	return newResult(frames), nil
}

// nativeFrame copies uncompressed samples into a DecodedFrame.
// data is indexed [pixel][sample]; only the first sample is used.
// Bits above the stored width are masked off and signed samples are
// extended from the stored width. A stored width of 0 or one wider than
// allocated falls back to the allocated width.
func nativeFrame(data [][]int, rows, cols, allocated, stored int, signed bool) (models.DecodedFrame, error) {
	dtype, err := dtypeFor(allocated, signed)
	if err != nil {
		return models.DecodedFrame{}, err
	}
	if len(data) != rows*cols {
		return models.DecodedFrame{}, fmt.Errorf("truncated pixel data: %d samples for %dx%d", len(data), rows, cols)
	}

	if stored <= 0 || stored > allocated {
		stored = allocated
	}
	mask := 1<<stored - 1

	frame := models.DecodedFrame{
		Data:    make([]int, rows*cols),
		Rows:    rows,
		Columns: cols,
		DType:   dtype,
	}
	for i, px := range data {
		if len(px) == 0 {
			return models.DecodedFrame{}, fmt.Errorf("empty sample at pixel %d", i)
		}
		v := px[0] & mask
		if signed && v >= 1<<(stored-1) {
			v -= 1 << stored
		}
		frame.Data[i] = v
	}
	return frame, nil
}

func dtypeFor(bits int, signed bool) (models.DType, error) {
	switch {
	case bits == 8 && !signed:
		return models.Uint8, nil
	case bits == 16 && !signed:
		return models.Uint16, nil
	case bits == 16 && signed:
		return models.Int16, nil
	case bits == 32 && !signed:
		return models.Uint32, nil
	case bits == 32 && signed:
		return models.Int32, nil
	}
	return models.DTypeUnknown, fmt.Errorf("unsupported bits allocated %d (signed=%t)", bits, signed)
}
