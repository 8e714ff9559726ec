// Package ordering decides the z order of slices before any decoding happens.
//
// Every policy returns a total order: identifiers are unique paths, so ties
// on the primary key always fall back to the identifier itself.
package ordering

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
)

// Policy orders a set of source identifiers
type Policy interface {
	Order(ids []string) ([]string, error)
}

// PositionReader yields a slice position for a source, e.g. from its header
type PositionReader interface {
	SlicePosition(path string) (float64, error)
}

// EmptyInputError is returned when there is nothing to order
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no sources to order"
}

// Policy names accepted by ByName
const (
	LexicographicName = "lexicographic"
	NaturalName       = "natural"
	PositionName      = "position"
)

// Names lists the known policy names
func Names() []string {
	return []string{LexicographicName, NaturalName, PositionName}
}

// IsKnown reports whether ByName accepts name. The empty name selects the default.
func IsKnown(name string) bool {
	if name == "" {
		return true
	}
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// ByName returns the policy with the given name. reader is only used by the
// position policy and may be nil otherwise.
func ByName(name string, reader PositionReader) (Policy, error) {
	switch name {
	case "", LexicographicName:
		return Lexicographic{}, nil
	case NaturalName:
		return Natural{}, nil
	case PositionName:
		if reader == nil {
			return nil, fmt.Errorf("position ordering needs a position reader")
		}
		return Position{Reader: reader}, nil
	}
	return nil, fmt.Errorf("unknown ordering policy %q", name)
}

// dedupe copies ids into a fresh slice without duplicates
func dedupe(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, &EmptyInputError{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Lexicographic sorts identifiers as plain strings. It is the default.
type Lexicographic struct{}

func (Lexicographic) Order(ids []string) ([]string, error) {
	out, err := dedupe(ids)
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Natural sorts by the number formed from the digits of the base name,
// so "slice2" comes before "slice10"
type Natural struct{}

func (Natural) Order(ids []string) ([]string, error) {
	out, err := dedupe(ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		numI := extractNumber(out[i])
		numJ := extractNumber(out[j])
		if numI != numJ {
			return numI < numJ
		}
		return out[i] < out[j]
	})
	return out, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// Position sorts by acquisition position read from each source.
// A source without a usable position fails the whole ordering.
type Position struct {
	Reader PositionReader
}

func (p Position) Order(ids []string) ([]string, error) {
	out, err := dedupe(ids)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]float64, len(out))
	for _, id := range out {
		pos, err := p.Reader.SlicePosition(id)
		if err != nil {
			return nil, fmt.Errorf("failed to read slice position of %s: %w", id, err)
		}
		// NaN is unordered
		if math.IsNaN(pos) {
			return nil, fmt.Errorf("slice position of %s is NaN", id)
		}
		positions[id] = pos
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := positions[out[i]], positions[out[j]]
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out, nil
}
