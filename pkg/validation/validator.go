// Package validation admits frames into a volume only when they share the
// geometry and sample type of the first admitted frame.
package validation

import (
	"fmt"

	"dicomstack/internal/models"
)

// Reference is the shape every frame of a volume must match
type Reference = models.Shape

// ShapeMismatchError identifies a frame that disagrees with the reference
type ShapeMismatchError struct {
	Source   string
	Frame    int
	Expected Reference
	Actual   Reference
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s frame %d: shape mismatch: expected %s, got %s",
		e.Source, e.Frame, e.Expected, e.Actual)
}

// Admit checks frame against ref. A nil ref is established from the frame.
// The returned reference is the one to pass for the next frame.
func Admit(frame *models.DecodedFrame, ref *Reference) (Reference, error) {
	actual := frame.Shape()
	if ref == nil {
		return actual, nil
	}
	// exact match only: no widening between dtypes
	if actual.Rows != ref.Rows || actual.Columns != ref.Columns || actual.DType != ref.DType {
		return *ref, &ShapeMismatchError{
			Source:   frame.Source,
			Frame:    frame.Index,
			Expected: *ref,
			Actual:   actual,
		}
	}
	return *ref, nil
}
