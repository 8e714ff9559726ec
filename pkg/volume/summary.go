package volume

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dicomstack/internal/models"
)

// Summary describes the intensity distribution of a volume
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes intensity statistics over every voxel
func Summarize(v *models.Volume) Summary {
	return SummarizeSamples(v.Data)
}

// SummarizeSamples computes intensity statistics over raw samples,
// e.g. a region cut out of a volume
func SummarizeSamples(samples []int) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = float64(s)
	}
	mean, std := stat.MeanStdDev(data, nil)
	return Summary{
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   mean,
		StdDev: std,
	}
}
