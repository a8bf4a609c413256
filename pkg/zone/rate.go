package zone

import (
	"time"

	"github.com/geNAZt/zoneheat/pkg/gateway"
)

// SampledRate computes the average rate of change in value units per minute
// across the samples inside the trailing window. With fewer than two samples
// in the window, or no elapsed time between them, there is no signal and the
// rate is 0.
func SampledRate(samples []gateway.Sample, now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)

	var first, last *gateway.Sample
	for i := range samples {
		s := &samples[i]
		if s.Time.Before(cutoff) || s.Time.After(now) {
			continue
		}
		if first == nil {
			first = s
		}
		last = s
	}

	if first == nil || last == nil || first == last {
		return 0
	}
	elapsed := last.Time.Sub(first.Time).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return (last.Value - first.Value) / elapsed
}
