// Package decoder turns a single source file into one or more 2D frames.
// DICOM files are decoded with github.com/suyashkumar/dicom; plain raster
// slices (PNG, JPEG, TIFF) are decoded with the image packages.
package decoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"dicomstack/internal/models"
)

// Result is the output of decoding one source
type Result struct {
	// Frames are in on-disk order, indexed 0..FrameCount-1
	Frames []models.DecodedFrame

	Rows       int
	Columns    int
	FrameCount int
}

// Format reports whether the source held one frame or several
func (r *Result) Format() models.Format {
	return models.FormatFor(r.FrameCount)
}

// Decoder decodes a source identified by path
type Decoder interface {
	Decode(path string) (*Result, error)
}

// DecodeError reports a source that could not be read or understood
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(source string, format string, args ...any) *DecodeError {
	return &DecodeError{Source: source, Err: fmt.Errorf(format, args...)}
}

// Registry picks a decoder by file extension
type Registry struct {
	byExt map[string]Decoder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Decoder)}
}

// DefaultRegistry handles DICOM and the common raster slice formats
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewDICOMDecoder(), ".dcm", ".dicom")
	r.Register(NewImageDecoder(), ".png", ".jpg", ".jpeg", ".tif", ".tiff")
	return r
}

// Register binds d to each extension. Extensions are matched case-insensitively.
func (r *Registry) Register(d Decoder, exts ...string) {
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = d
	}
}

// Extensions lists the registered extensions
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// Decode dispatches on the extension of path
func (r *Registry) Decode(path string) (*Result, error) {
	ext := normalizeExt(filepath.Ext(path))
	d, ok := r.byExt[ext]
	if !ok {
		return nil, decodeErr(path, "unsupported file extension %q", ext)
	}
	return d.Decode(path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// newResult builds a Result from frames that already share a geometry
func newResult(frames []models.DecodedFrame) *Result {
	res := &Result{Frames: frames, FrameCount: len(frames)}
	if len(frames) > 0 {
		res.Rows = frames[0].Rows
		res.Columns = frames[0].Columns
	}
	return res
}
