// Package export writes every frame of a source as a grayscale raster file.
//
// Unlike volume assembly, export is best-effort per frame: each raster is an
// independent artifact, so a failed write is reported and the remaining
// frames are still attempted.
package export

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dicomstack/internal/models"
	"dicomstack/pkg/decoder"
)

// WriteError reports a raster that could not be persisted
type WriteError struct {
	Path   string
	Source string
	Frame  int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (source %s frame %d): %v", e.Path, e.Source, e.Frame, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Exporter writes frames in a single fixed format
type Exporter struct {
	decoder decoder.Decoder
	format  Format
	logger  *log.Logger
}

// NewExporter creates an Exporter. A nil decoder uses decoder.DefaultRegistry
// and a nil logger keeps warnings quiet.
func NewExporter(dec decoder.Decoder, format Format, logger *log.Logger) *Exporter {
	if dec == nil {
		dec = decoder.DefaultRegistry()
	}
	if format == "" {
		format = PNG
	}
	return &Exporter{decoder: dec, format: format, logger: logger}
}

// Format returns the raster format the exporter writes
func (e *Exporter) Format() Format {
	return e.format
}

// FrameFileName names the raster for a frame. Multi-frame sources get a
// 1-based _frame_N suffix; single-frame sources keep the bare base name.
func FrameFileName(baseName string, frameIndex, frameCount int, ext string) string {
	if models.FormatFor(frameCount) == models.MultiFrame {
		return fmt.Sprintf("%s_frame_%d.%s", baseName, frameIndex+1, ext)
	}
	return fmt.Sprintf("%s.%s", baseName, ext)
}

// Export decodes path and writes its frames to outDir, creating it if needed.
// The manifest lists the frames that were written; write failures are joined
// into the returned error.
func (e *Exporter) Export(path, outDir string) (models.ExportManifest, error) {
	var manifest models.ExportManifest

	res, err := e.decoder.Decode(path)
	if err != nil {
		return manifest, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return manifest, &WriteError{Path: outDir, Source: path, Frame: -1, Err: err}
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var errs []error
	for i := range res.Frames {
		frame := &res.Frames[i]
		outPath := filepath.Join(outDir, FrameFileName(base, i, res.FrameCount, e.format.Ext()))
		if err := e.format.WriteFile(outPath, FrameImage(frame)); err != nil {
			werr := &WriteError{Path: outPath, Source: path, Frame: i, Err: err}
			e.logf("Warning: %v", werr)
			errs = append(errs, werr)
			continue
		}
		manifest.Add(path, i, outPath)
		e.logf("Saved: %s", outPath)
	}

	return manifest, errors.Join(errs...)
}

// ExportAll exports each source in turn. A failing source is logged and
// does not stop the batch; all failures are joined into the returned error.
func (e *Exporter) ExportAll(paths []string, outDir string) (models.ExportManifest, error) {
	var (
		manifest models.ExportManifest
		errs     []error
	)
	for _, path := range paths {
		e.logf("Processing: %s", path)
		m, err := e.Export(path, outDir)
		manifest.Merge(m)
		if err != nil {
			e.logf("Warning: failed to export %s: %v", path, err)
			errs = append(errs, err)
		}
	}
	return manifest, errors.Join(errs...)
}

func (e *Exporter) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
