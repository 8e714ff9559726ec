package models

import (
	"fmt"
)

// DType is the sample type of a decoded frame
type DType int

const (
	DTypeUnknown DType = iota
	Uint8
	Uint16
	Int16
	Uint32
	Int32
)

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// Format tags a source as holding one frame or several
type Format int

const (
	SingleFrame Format = iota
	MultiFrame
)

func (f Format) String() string {
	if f == MultiFrame {
		return "multi-frame"
	}
	return "single-frame"
}

// FormatFor maps a frame count onto the two export branches.
func FormatFor(frameCount int) Format {
	if frameCount > 1 {
		return MultiFrame
	}
	return SingleFrame
}

// SourceFile is one input file discovered by a directory scan
type SourceFile struct {
	// Path identifies the source; it is unique within a run
	Path string

	// Ext is the lowercased file extension, including the dot
	Ext string
}

// Shape is the in-plane geometry shared by every frame of a volume
type Shape struct {
	Rows    int
	Columns int
	DType   DType
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d %s", s.Rows, s.Columns, s.DType)
}

// DecodedFrame is a single 2D pixel array extracted from a source
type DecodedFrame struct {
	// Data holds Rows*Columns samples in row-major order
	Data []int

	Rows    int
	Columns int
	DType   DType

	// Source is the identifier of the file the frame was decoded from
	Source string

	// Index is the 0-based position of the frame within its source
	Index int
}

// Shape returns the frame's geometry
func (f *DecodedFrame) Shape() Shape {
	return Shape{Rows: f.Rows, Columns: f.Columns, DType: f.DType}
}

// At returns the sample at column x, row y
func (f *DecodedFrame) At(x, y int) int {
	return f.Data[y*f.Columns+x]
}

// FrameRef points back at the frame that produced one z position of a volume
type FrameRef struct {
	Source string
	Index  int
}

// Volume is a 3D array stacked from validated frames.
// It must not be modified after assembly.
type Volume struct {
	// Data is the 3D volume data as a 1D array in (z, y, x) row-major order
	Data []int

	// Width is the number of columns per slice
	Width int

	// Height is the number of rows per slice
	Height int

	// Depth is the number of slices
	Depth int

	// DType is the sample type shared by every slice
	DType DType

	// Frames records where each z position came from
	Frames []FrameRef
}

// Index returns the offset of voxel (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the voxel at (x, y, z)
func (v *Volume) At(x, y, z int) int {
	return v.Data[v.Index(x, y, z)]
}

// Slice returns the samples of slice z. The result aliases Data.
func (v *Volume) Slice(z int) []int {
	size := v.Width * v.Height
	return v.Data[z*size : (z+1)*size : (z+1)*size]
}

// Shape returns the in-plane geometry of the volume
func (v *Volume) Shape() Shape {
	return Shape{Rows: v.Height, Columns: v.Width, DType: v.DType}
}

// ExportEntry is one written raster file
type ExportEntry struct {
	Source string
	Frame  int
	Path   string
}

// ExportManifest lists the raster files written for exported frames,
// in the order they were written
type ExportManifest struct {
	Entries []ExportEntry
}

// Add records a written frame
func (m *ExportManifest) Add(source string, frame int, path string) {
	m.Entries = append(m.Entries, ExportEntry{Source: source, Frame: frame, Path: path})
}

// Lookup returns the output path for a source frame
func (m *ExportManifest) Lookup(source string, frame int) (string, bool) {
	for _, e := range m.Entries {
		if e.Source == source && e.Frame == frame {
			return e.Path, true
		}
	}
	return "", false
}

// Paths returns the output paths in write order
func (m *ExportManifest) Paths() []string {
	paths := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Merge appends the entries of another manifest
func (m *ExportManifest) Merge(other ExportManifest) {
	m.Entries = append(m.Entries, other.Entries...)
}
