package decoder

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomstack/internal/dicomtest"
	"dicomstack/internal/models"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func TestImageDecoder_Gray8(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}
	path := filepath.Join(t.TempDir(), "slice.png")
	writePNG(t, path, img)

	res, err := NewImageDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FrameCount)
	assert.Equal(t, models.SingleFrame, res.Format())
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 3, res.Columns)

	frame := res.Frames[0]
	assert.Equal(t, models.Uint8, frame.DType)
	assert.Equal(t, path, frame.Source)
	assert.Equal(t, 0, frame.Index)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50}, frame.Data)
	assert.Equal(t, 50, frame.At(2, 1))
}

func TestImageDecoder_Gray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(1, 1, color.Gray16{Y: 40000})
	path := filepath.Join(t.TempDir(), "slice.png")
	writePNG(t, path, img)

	res, err := NewImageDecoder().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, models.Uint16, res.Frames[0].DType)
	assert.Equal(t, []int{0, 0, 0, 40000}, res.Frames[0].Data)
}

func TestImageDecoder_ColourBecomesLuma(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	frame := FrameFromImage(img)
	assert.Equal(t, models.Uint8, frame.DType)
	assert.Equal(t, []int{255}, frame.Data)
}

func TestImageDecoder_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))

	for _, path := range []string{garbage, filepath.Join(dir, "missing.png")} {
		_, err := NewImageDecoder().Decode(path)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr), "expected DecodeError for %s, got %v", path, err)
		assert.Equal(t, path, decodeErr.Source)
	}
}

func TestDICOMDecoder_RejectsNonDICOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.dcm")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a dicom file"), 0644))

	res, err := NewDICOMDecoder().Decode(path)
	assert.Nil(t, res)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "got %v", err)
	assert.Equal(t, path, decodeErr.Source)
}

func TestDICOMDecoder_MissingFile(t *testing.T) {
	_, err := NewDICOMDecoder().Decode(filepath.Join(t.TempDir(), "missing.dcm"))
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDICOMDecoder_MultiFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.dcm")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 2, Columns: 3, BitsAllocated: 16,
		Frames: [][]int{
			{1, 2, 3, 4, 5, 6},
			{10, 20, 30, 40, 50, 60},
			{100, 200, 300, 400, 500, 600},
		},
	})

	res, err := NewDICOMDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 3, res.FrameCount)
	assert.Equal(t, models.MultiFrame, res.Format())
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 3, res.Columns)
	require.Len(t, res.Frames, 3)
	for i, frame := range res.Frames {
		assert.Equal(t, i, frame.Index)
		assert.Equal(t, path, frame.Source)
		assert.Equal(t, models.Uint16, frame.DType)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Frames[0].Data)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, res.Frames[1].Data)
	assert.Equal(t, 600, res.Frames[2].At(2, 1))
}

func TestDICOMDecoder_SingleFrame8Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 2, Columns: 2, BitsAllocated: 8,
		Frames: [][]int{{0, 64, 128, 255}},
	})

	res, err := NewDICOMDecoder().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, models.SingleFrame, res.Format())
	assert.Equal(t, models.Uint8, res.Frames[0].DType)
	assert.Equal(t, []int{0, 64, 128, 255}, res.Frames[0].Data)
}

func TestDICOMDecoder_SignedSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ct.dcm")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 2, Columns: 2, BitsAllocated: 16, Signed: true,
		Frames: [][]int{{-1, -1024, 0, 3071}},
	})

	res, err := NewDICOMDecoder().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, models.Int16, res.Frames[0].DType)
	assert.Equal(t, []int{-1, -1024, 0, 3071}, res.Frames[0].Data)
}

func TestDICOMDecoder_SignedStoredBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ct12.dcm")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 1, Columns: 3, BitsAllocated: 16, BitsStored: 12, Signed: true,
		Frames: [][]int{{0xFFFF, 0xF800, 0x07FF}},
	})

	res, err := NewDICOMDecoder().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, -2048, 2047}, res.Frames[0].Data)
}

func TestDICOMDecoder_RejectsMultiSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgb.dcm")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 1, Columns: 2, BitsAllocated: 8, SamplesPerPixel: 3,
		Frames: [][]int{{255, 0, 0, 0, 255, 0}},
	})

	res, err := NewDICOMDecoder().Decode(path)
	assert.Nil(t, res)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "got %v", err)
	assert.Equal(t, path, decodeErr.Source)
	assert.ErrorContains(t, err, "samples per pixel 3")
}

func TestDefaultRegistry_DecodesDICOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SCAN.DCM")
	dicomtest.Write(t, path, dicomtest.Series{
		Rows: 2, Columns: 2, BitsAllocated: 16, Frames: dicomtest.Constant(2, 2, 7, 8),
	})

	res, err := DefaultRegistry().Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FrameCount)
	assert.Equal(t, []int{8, 8, 8, 8}, res.Frames[1].Data)
}

func TestNativeFrame(t *testing.T) {
	data := [][]int{{1}, {2}, {3}, {4}, {5}, {6}}
	frame, err := nativeFrame(data, 2, 3, 16, 16, false)
	require.NoError(t, err)
	assert.Equal(t, models.Uint16, frame.DType)
	assert.Equal(t, 2, frame.Rows)
	assert.Equal(t, 3, frame.Columns)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, frame.Data)
}

func TestNativeFrame_SignExtends(t *testing.T) {
	frame, err := nativeFrame([][]int{{0xFFFF}, {0x8000}, {-3}, {7}}, 2, 2, 16, 0, true)
	require.NoError(t, err)
	assert.Equal(t, models.Int16, frame.DType)
	assert.Equal(t, []int{-1, -32768, -3, 7}, frame.Data)
}

func TestNativeFrame_StoredBits(t *testing.T) {
	// 12 of 16 bits; the top nibble carries junk
	data := [][]int{{0xF7FF}, {0x0800}, {0xAFFF}, {0x0005}}

	frame, err := nativeFrame(data, 2, 2, 16, 12, true)
	require.NoError(t, err)
	assert.Equal(t, models.Int16, frame.DType)
	assert.Equal(t, []int{2047, -2048, -1, 5}, frame.Data)

	frame, err = nativeFrame(data, 2, 2, 16, 12, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0x7FF, 0x800, 0xFFF, 5}, frame.Data)
}

func TestNativeFrame_Truncated(t *testing.T) {
	_, err := nativeFrame([][]int{{1}, {2}, {3}}, 2, 2, 8, 8, false)
	assert.ErrorContains(t, err, "truncated")
}

func TestDTypeFor(t *testing.T) {
	tests := []struct {
		bits   int
		signed bool
		want   models.DType
	}{
		{8, false, models.Uint8},
		{16, false, models.Uint16},
		{16, true, models.Int16},
		{32, false, models.Uint32},
		{32, true, models.Int32},
	}
	for _, tt := range tests {
		got, err := dtypeFor(tt.bits, tt.signed)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := dtypeFor(12, false)
	assert.Error(t, err)
	_, err = dtypeFor(8, true)
	assert.Error(t, err)
}

type countingDecoder struct{ calls int }

func (c *countingDecoder) Decode(path string) (*Result, error) {
	c.calls++
	return newResult(nil), nil
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	dcm := &countingDecoder{}
	r := NewRegistry()
	r.Register(dcm, "dcm", ".DICOM")

	_, err := r.Decode("/x/scan.DCM")
	require.NoError(t, err)
	_, err = r.Decode("/x/scan.dicom")
	require.NoError(t, err)
	assert.Equal(t, 2, dcm.calls)
	assert.ElementsMatch(t, []string{".dcm", ".dicom"}, r.Extensions())

	_, err = r.Decode("/x/scan.raw")
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDefaultRegistry(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{".dcm", ".dicom", ".png", ".jpg", ".jpeg", ".tif", ".tiff"},
		DefaultRegistry().Extensions())
}
