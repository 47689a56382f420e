package weather

import "math/rand"

// UVEstimator produces a UV index for a local hour of day. The external
// service does not supply UV data on the endpoints this app uses, so the
// dashboard synthesizes one; keeping the strategy behind an interface lets
// a real data source be swapped in later.
type UVEstimator interface {
	UVIndex(hour int) int
}

// ClockEstimator is the default estimator: zero outside 06:00-18:00, a
// randomized low-to-moderate band in the shoulder hours, and a randomized
// moderate-to-high band between 10:00 and 16:00. Deliberately
// non-deterministic, mirroring that it is an estimate and not a reading.
type ClockEstimator struct {
	rng *rand.Rand
}

// NewClockEstimator creates an estimator drawing from rng. A nil rng uses
// the shared global source.
func NewClockEstimator(rng *rand.Rand) *ClockEstimator {
	return &ClockEstimator{rng: rng}
}

func (e *ClockEstimator) intn(n int) int {
	if e.rng != nil {
		return e.rng.Intn(n)
	}
	return rand.Intn(n)
}

// UVIndex implements UVEstimator.
func (e *ClockEstimator) UVIndex(hour int) int {
	switch {
	case hour < 6 || hour > 18:
		return 0
	case hour < 10 || hour > 16:
		return e.intn(4) + 2 // 2..5
	default:
		return e.intn(6) + 5 // 5..10
	}
}
