package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Final   float64
	// Slope is the least-squares trend per sample.
	Slope float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		Samples: len(data),
		Min:     floats.Min(data),
		Max:     floats.Max(data),
		Final:   data[len(data)-1],
	}
	if len(data) == 1 {
		s.Mean = data[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(data, nil)

	xs := make([]float64, len(data))
	floats.Span(xs, 0, float64(len(data)-1))
	_, s.Slope = stat.LinearRegression(xs, data, nil, false)
	return s
}
