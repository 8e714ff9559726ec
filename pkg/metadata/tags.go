package metadata

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Strings returns the string values of tag t, or nil if absent
func Strings(ds *dicom.Dataset, t tag.Tag) []string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil
	}
	switch v := el.Value.GetValue().(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			out = append(out, strings.TrimSpace(strings.TrimRight(s, "\x00")))
		}
		return out
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []float64:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return out
	}
	return nil
}

// String returns the first string value of tag t
func String(ds *dicom.Dataset, t tag.Tag) (string, bool) {
	vals := Strings(ds, t)
	if len(vals) == 0 || vals[0] == "" {
		return "", false
	}
	return vals[0], true
}

// Floats returns tag t as numbers. Decimal strings (DS) and integer
// strings (IS) are parsed; unparseable entries make the result nil.
func Floats(ds *dicom.Dataset, t tag.Tag) []float64 {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		return v
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out
	}

	strs := Strings(ds, t)
	out := make([]float64, 0, len(strs))
	for _, s := range strs {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// Int returns the first value of tag t as an integer
func Int(ds *dicom.Dataset, t tag.Tag) (int, bool) {
	vals := Floats(ds, t)
	if len(vals) == 0 {
		return 0, false
	}
	return int(vals[0]), true
}
