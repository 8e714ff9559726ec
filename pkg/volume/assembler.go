// Package volume stacks decoded frames into a single 3D volume.
package volume

import (
	"fmt"
	"log"

	"dicomstack/internal/models"
	"dicomstack/pkg/decoder"
	"dicomstack/pkg/ordering"
	"dicomstack/pkg/source"
	"dicomstack/pkg/validation"
)

// EmptyVolumeError is returned when the ordered sources decode to no frames
type EmptyVolumeError struct {
	Sources int
}

func (e *EmptyVolumeError) Error() string {
	return fmt.Sprintf("%d sources produced no frames", e.Sources)
}

// Params holds the collaborators of an Assembler
type Params struct {
	// Decoder turns each source into frames. Defaults to decoder.DefaultRegistry.
	Decoder decoder.Decoder

	// Policy fixes the z order of sources. Defaults to ordering.Lexicographic.
	Policy ordering.Policy

	// Logger receives progress messages. Nil means silent.
	Logger *log.Logger
}

// Assembler builds volumes from sets of sources.
//
// Assembly is all-or-nothing: any ordering, decode or validation failure
// aborts the run and no Volume is returned.
type Assembler struct {
	decoder decoder.Decoder
	policy  ordering.Policy
	logger  *log.Logger
}

// NewAssembler creates an Assembler, filling unset params with defaults
func NewAssembler(params *Params) *Assembler {
	a := &Assembler{
		decoder: decoder.DefaultRegistry(),
		policy:  ordering.Lexicographic{},
	}
	if params == nil {
		return a
	}
	if params.Decoder != nil {
		a.decoder = params.Decoder
	}
	if params.Policy != nil {
		a.policy = params.Policy
	}
	a.logger = params.Logger
	return a
}

// Assemble orders ids, decodes each source, validates every frame against
// the first and stacks them along z
func (a *Assembler) Assemble(ids []string) (*models.Volume, error) {
	ordered, err := a.policy.Order(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to order sources: %w", err)
	}

	var (
		ref    *validation.Reference
		frames []models.DecodedFrame
	)
	for _, id := range ordered {
		res, err := a.decoder.Decode(id)
		if err != nil {
			return nil, fmt.Errorf("failed to decode source: %w", err)
		}

		for i := range res.Frames {
			admitted, err := validation.Admit(&res.Frames[i], ref)
			if err != nil {
				return nil, fmt.Errorf("failed to admit frame: %w", err)
			}
			ref = &admitted
			frames = append(frames, res.Frames[i])
		}
		a.logf("Loaded %s (%d frames)", id, res.FrameCount)
	}

	if len(frames) == 0 {
		return nil, &EmptyVolumeError{Sources: len(ordered)}
	}

	vol := stack(frames, *ref)
	a.logf("Assembled volume %dx%dx%d (%s) from %d sources",
		vol.Depth, vol.Height, vol.Width, vol.DType, len(ordered))
	return vol, nil
}

// AssembleDir discovers the sources at path and assembles them
func (a *Assembler) AssembleDir(path string, exts []string) (*models.Volume, error) {
	sources, err := source.Discover(path, exts)
	if err != nil {
		return nil, err
	}
	return a.Assemble(source.Paths(sources))
}

// stack copies admitted frames into one contiguous (z, y, x) array
func stack(frames []models.DecodedFrame, ref validation.Reference) *models.Volume {
	size := ref.Rows * ref.Columns
	vol := &models.Volume{
		Data:   make([]int, size*len(frames)),
		Width:  ref.Columns,
		Height: ref.Rows,
		Depth:  len(frames),
		DType:  ref.DType,
		Frames: make([]models.FrameRef, len(frames)),
	}
	for z, f := range frames {
		copy(vol.Data[z*size:(z+1)*size], f.Data)
		vol.Frames[z] = models.FrameRef{Source: f.Source, Index: f.Index}
	}
	return vol
}

func (a *Assembler) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
