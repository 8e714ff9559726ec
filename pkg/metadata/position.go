package metadata

import (
	"fmt"
	"math"
)

// HeaderFunc reads a header; Read is the default
type HeaderFunc func(path string) (*Header, error)

// Reader derives slice positions from headers.
// It satisfies ordering.PositionReader.
type Reader struct {
	read HeaderFunc
}

// NewReader creates a Reader backed by Read
func NewReader() *Reader {
	return &Reader{read: Read}
}

// NewReaderFunc creates a Reader backed by fn
func NewReaderFunc(fn HeaderFunc) *Reader {
	return &Reader{read: fn}
}

// SlicePosition returns the position of a slice along the acquisition axis.
// ImagePositionPatient z wins, then SliceLocation, then InstanceNumber.
func (r *Reader) SlicePosition(path string) (float64, error) {
	h, err := r.read(path)
	if err != nil {
		return 0, err
	}
	return h.SlicePosition()
}

// SlicePosition picks the best available position tag.
// NaN or infinite values are rejected rather than skipped.
func (h *Header) SlicePosition() (float64, error) {
	var pos float64
	switch {
	case len(h.ImagePositionPatient) == 3:
		pos = h.ImagePositionPatient[2]
	case h.SliceLocation != nil:
		pos = *h.SliceLocation
	case h.InstanceNumber != nil:
		return float64(*h.InstanceNumber), nil
	default:
		return 0, fmt.Errorf("%s: no slice position tags", h.Source)
	}
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0, fmt.Errorf("%s: non-finite slice position %v", h.Source, pos)
	}
	return pos, nil
}
