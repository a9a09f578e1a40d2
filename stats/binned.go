// Package stats provides the numeric reductions behind run reports: binned
// Monte Carlo histories and their summary statistics. Plotting is out of
// scope; callers feed these values into whatever frontend they use.
package stats

import (
	"fmt"
	"math"
)

// Binned averages a history over consecutive bins of binsize samples.
// A trailing partial bin is dropped, matching the usual treatment of
// thermalization tails. binsize must be positive.
func Binned(values []float64, binsize int) ([]float64, error) {
	if binsize <= 0 {
		return nil, fmt.Errorf("stats: binsize must be positive, got %d", binsize)
	}
	n := len(values) / binsize
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for _, v := range values[i*binsize : (i+1)*binsize] {
			s += v
		}
		out[i] = s / float64(binsize)
	}
	return out, nil
}

// Summary holds the mean and standard deviation of a (typically binned)
// history.
type Summary struct {
	Mean float64
	Std  float64
	N    int
}

// Summarize computes mean and population standard deviation.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var varsum float64
	for _, v := range values {
		d := v - mean
		varsum += d * d
	}
	return Summary{Mean: mean, Std: math.Sqrt(varsum / float64(n)), N: n}
}

// BoolsToFloats converts a 0/1 flag history into floats for binning,
// e.g. acceptance flags into an acceptance-rate history.
func BoolsToFloats(flags []bool) []float64 {
	out := make([]float64, len(flags))
	for i, v := range flags {
		if v {
			out[i] = 1
		}
	}
	return out
}
