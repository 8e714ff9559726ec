// Package metadata reads descriptive header tags from a single DICOM file.
// Pixel data is skipped, so reading a header is cheap even for large
// multi-frame files.
package metadata

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const notAvailable = "N/A"

// Header holds the tags shown to a user inspecting a source
type Header struct {
	Source string

	PatientName string
	PatientID   string
	Modality    string
	StudyDate   string

	Rows           int
	Columns        int
	NumberOfFrames int

	// PixelSpacing is row spacing then column spacing in mm
	PixelSpacing   []float64
	SliceThickness float64

	SliceLocation        *float64
	ImagePositionPatient []float64
	InstanceNumber       *int
}

// Read parses the header of the DICOM file at path
func Read(path string) (h *Header, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = fmt.Errorf("corrupt dataset %s: %v", path, r)
		}
	}()

	ds, err := dicom.Parse(file, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return FromDataset(path, &ds), nil
}

// FromDataset extracts a Header from an already parsed dataset
func FromDataset(source string, ds *dicom.Dataset) *Header {
	h := &Header{Source: source, NumberOfFrames: 1}

	h.PatientName, _ = String(ds, tag.PatientName)
	h.PatientID, _ = String(ds, tag.PatientID)
	h.Modality, _ = String(ds, tag.Modality)
	h.StudyDate, _ = String(ds, tag.StudyDate)

	h.Rows, _ = Int(ds, tag.Rows)
	h.Columns, _ = Int(ds, tag.Columns)
	if n, ok := Int(ds, tag.NumberOfFrames); ok && n > 0 {
		h.NumberOfFrames = n
	}

	h.PixelSpacing = Floats(ds, tag.PixelSpacing)
	if vals := Floats(ds, tag.SliceThickness); len(vals) > 0 {
		h.SliceThickness = vals[0]
	}
	if vals := Floats(ds, tag.SliceLocation); len(vals) > 0 {
		loc := vals[0]
		h.SliceLocation = &loc
	}
	if vals := Floats(ds, tag.ImagePositionPatient); len(vals) == 3 {
		h.ImagePositionPatient = vals
	}
	if n, ok := Int(ds, tag.InstanceNumber); ok {
		h.InstanceNumber = &n
	}

	return h
}

// Render writes the header as human-readable text
func (h *Header) Render(w io.Writer) error {
	lines := [][2]string{
		{"Source", h.Source},
		{"Patient Name", orNA(h.PatientName)},
		{"Patient ID", orNA(h.PatientID)},
		{"Modality", orNA(h.Modality)},
		{"Study Date", orNA(h.StudyDate)},
		{"Image Size", fmt.Sprintf("%d x %d", h.Rows, h.Columns)},
		{"Frames", strconv.Itoa(h.NumberOfFrames)},
		{"Pixel Spacing", floatsOrNA(h.PixelSpacing)},
		{"Slice Thickness", floatOrNA(h.SliceThickness, h.SliceThickness != 0)},
		{"Slice Location", ptrOrNA(h.SliceLocation)},
		{"Image Position", floatsOrNA(h.ImagePositionPatient)},
	}
	if h.InstanceNumber != nil {
		lines = append(lines, [2]string{"Instance Number", strconv.Itoa(*h.InstanceNumber)})
	} else {
		lines = append(lines, [2]string{"Instance Number", notAvailable})
	}

	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-16s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func floatOrNA(f float64, ok bool) string {
	if !ok {
		return notAvailable
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func ptrOrNA(f *float64) string {
	if f == nil {
		return notAvailable
	}
	return floatOrNA(*f, true)
}

func floatsOrNA(vals []float64) string {
	if len(vals) == 0 {
		return notAvailable
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
