package ppc

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Statistic is a named scalar summary over an outcome vector. The function
// must be pure: the same input always produces the same value.
type Statistic struct {
	Name string
	Fn   func([]float64) (float64, error)
}

// Mean summarizes by the sample mean
func Mean() Statistic {
	return Statistic{Name: "mean", Fn: func(v []float64) (float64, error) {
		return stats.Mean(v)
	}}
}

// StdDev summarizes by the sample standard deviation
func StdDev() Statistic {
	return Statistic{Name: "sd", Fn: func(v []float64) (float64, error) {
		return stats.StandardDeviationSample(v)
	}}
}

// Median summarizes by the sample median
func Median() Statistic {
	return Statistic{Name: "median", Fn: func(v []float64) (float64, error) {
		return stats.Median(v)
	}}
}

// Quantile summarizes by the q-th percentile (q in (0, 100))
func Quantile(q float64) Statistic {
	return Statistic{
		Name: fmt.Sprintf("q%g", q),
		Fn: func(v []float64) (float64, error) {
			return stats.Percentile(v, q)
		},
	}
}

// CountAbove summarizes by the number of observations strictly exceeding the
// threshold (e.g. districts where the incumbent took more than half the vote).
func CountAbove(threshold float64) Statistic {
	return Statistic{
		Name: fmt.Sprintf("count>%g", threshold),
		Fn: func(v []float64) (float64, error) {
			count := 0.0
			for _, x := range v {
				if x > threshold {
					count++
				}
			}
			return count, nil
		},
	}
}

// ProportionBelow summarizes by the share of observations under the
// threshold (e.g. proportion of low-weight births).
func ProportionBelow(threshold float64) Statistic {
	return Statistic{
		Name: fmt.Sprintf("prop<%g", threshold),
		Fn: func(v []float64) (float64, error) {
			if len(v) == 0 {
				return 0, fmt.Errorf("empty vector")
			}
			count := 0.0
			for _, x := range v {
				if x < threshold {
					count++
				}
			}
			return count / float64(len(v)), nil
		},
	}
}
