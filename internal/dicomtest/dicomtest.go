// Package dicomtest writes small native-pixel DICOM files for tests.
package dicomtest

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"
)

// Series describes the pixel module of a file to write
type Series struct {
	Rows    int
	Columns int

	// BitsAllocated is 8, 16 or 32
	BitsAllocated int

	// BitsStored defaults to BitsAllocated
	BitsStored int

	// Signed sets PixelRepresentation to 1
	Signed bool

	// SamplesPerPixel defaults to 1
	SamplesPerPixel int

	// Frames holds Rows*Columns*SamplesPerPixel raw samples per frame,
	// pixel by pixel. Negative values are written in two's complement.
	Frames [][]int
}

// Constant returns n frames of rows x cols samples, frame i filled with values[i]
func Constant(rows, cols int, values ...int) [][]int {
	frames := make([][]int, len(values))
	for i, v := range values {
		frames[i] = make([]int, rows*cols)
		for j := range frames[i] {
			frames[i][j] = v
		}
	}
	return frames
}

// Write encodes s as an explicit VR little endian file at path
func Write(t testing.TB, path string, s Series) {
	t.Helper()

	spp := s.SamplesPerPixel
	if spp == 0 {
		spp = 1
	}
	stored := s.BitsStored
	if stored == 0 {
		stored = s.BitsAllocated
	}
	rep := 0
	if s.Signed {
		rep = 1
	}
	photometric := "MONOCHROME2"
	if spp == 3 {
		photometric = "RGB"
	}

	pdi := dicom.PixelDataInfo{IsEncapsulated: false}
	for _, samples := range s.Frames {
		require.Len(t, samples, s.Rows*s.Columns*spp, "samples per frame")
		pixels := make([][]int, s.Rows*s.Columns)
		for p := range pixels {
			pixels[p] = samples[p*spp : (p+1)*spp]
		}
		pdi.Frames = append(pdi.Frames, &frame.Frame{
			Encapsulated: false,
			NativeData: frame.NativeFrame{
				BitsPerSample: s.BitsAllocated,
				Rows:          s.Rows,
				Cols:          s.Columns,
				Data:          pixels,
			},
		})
	}

	values := []struct {
		tag   tag.Tag
		value any
	}{
		{tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}},
		{tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5.6.7"}},
		{tag.TransferSyntaxUID, []string{uid.ExplicitVRLittleEndian}},
		{tag.Modality, []string{"MR"}},
		{tag.SamplesPerPixel, []int{spp}},
		{tag.PhotometricInterpretation, []string{photometric}},
		{tag.NumberOfFrames, []string{strconv.Itoa(len(s.Frames))}},
		{tag.Rows, []int{s.Rows}},
		{tag.Columns, []int{s.Columns}},
		{tag.BitsAllocated, []int{s.BitsAllocated}},
		{tag.BitsStored, []int{stored}},
		{tag.HighBit, []int{stored - 1}},
		{tag.PixelRepresentation, []int{rep}},
		{tag.PixelData, pdi},
	}

	ds := dicom.Dataset{}
	for _, v := range values {
		el, err := dicom.NewElement(v.tag, v.value)
		require.NoError(t, err, "element %v", v.tag)
		ds.Elements = append(ds.Elements, el)
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, dicom.Write(file, ds))
}
