// Package sensor is the state engine for one proximity/ambient-light channel.
// It keeps rolling windows over raw samples and derives smoothed statistics,
// an estimated distance, and the in-proximity and blocked flags.
// This package has NO external dependencies and performs no I/O.
//
// A State is not safe for concurrent use. Update must be called once per
// sample tick, in arrival order, by a single caller.
package sensor

import "math"

const (
	// HistLen is the capacity of each history buffer.
	HistLen = 50
	// PSWindow is the number of proximity samples averaged.
	PSWindow = 25
	// ALSWindow is the number of ambient-light samples averaged.
	ALSWindow = 25
)

// State holds history, window sums and derived values for one channel.
type State struct {
	index     uint8
	low, high uint16
	proxTable []uint16
	distTable []uint16

	sampleCount uint64
	psHist      [HistLen]uint16
	alsHist     [HistLen]uint16
	psSum       uint32
	alsSum      uint32

	psMean   uint16
	psStd    float64
	alsMean  uint16
	alsStd   float64
	distance float64

	inProximity bool
	isBlocked   bool
}

// New creates a zeroed state for the given channel.
//
// low must not exceed high; inverted thresholds leave hysteresis undefined.
// proxTable must be strictly decreasing and paired index-for-index with
// DistanceTable. Neither is checked here, see ValidateTable.
// Both tables are copied; later changes to the caller's slice or to
// DistanceTable do not affect the state.
func New(index uint8, low, high uint16, proxTable []uint16) *State {
	s := &State{
		index:     index,
		low:       low,
		high:      high,
		proxTable: append([]uint16(nil), proxTable...),
		distTable: append([]uint16(nil), DistanceTable[:]...),
	}
	s.Reset()
	return s
}

// Reset returns the state to its startup condition. Index, thresholds and
// the lookup table are kept.
func (s *State) Reset() {
	s.sampleCount = 0
	s.psHist = [HistLen]uint16{}
	s.alsHist = [HistLen]uint16{}
	s.psSum = 0
	s.alsSum = 0
	s.psMean = 0
	s.psStd = 0
	s.alsMean = 0
	s.alsStd = 0
	s.distance = 0
	s.inProximity = false
	s.isBlocked = false
}

// Update applies one (proximity, light) sample pair.
func (s *State) Update(ps, als uint16) {
	n := s.sampleCount

	s.psSum = slide(s.psSum, &s.psHist, n, PSWindow, ps)
	s.alsSum = slide(s.alsSum, &s.alsHist, n, ALSWindow, als)

	ind := n % HistLen
	s.psHist[ind] = ps
	s.alsHist[ind] = als

	var psMean float64
	s.psMean, psMean = windowMean(s.psSum, n, PSWindow)
	s.distance = DistanceLookup(s.psMean, s.proxTable, s.distTable)
	s.psStd = windowStd(&s.psHist, n, PSWindow, psMean)

	var alsMean float64
	s.alsMean, alsMean = windowMean(s.alsSum, n, ALSWindow)
	s.alsStd = windowStd(&s.alsHist, n, ALSWindow, alsMean)

	// Hysteresis runs on the raw sample, not the mean.
	if s.inProximity && ps <= s.low {
		s.inProximity = false
	} else if !s.inProximity && ps >= s.high {
		s.inProximity = true
	}

	// Blocked only clears by leaving proximity, even if light recovers.
	if !s.isBlocked && s.inProximity && s.alsMean == 0 && s.alsStd == 0 {
		s.isBlocked = true
	} else if s.isBlocked && !s.inProximity {
		s.isBlocked = false
	}

	s.sampleCount++
}

// slide adds v to sum and, once the window is full, drops the sample that
// leaves it. It must run before v is written to hist.
func slide(sum uint32, hist *[HistLen]uint16, n uint64, window int, v uint16) uint32 {
	if n >= uint64(window) {
		sum -= uint32(hist[(n-uint64(window))%HistLen])
	}
	return sum + uint32(v)
}

// windowMean returns the truncated and the exact mean of the samples in the
// window after the n-th sample (zero based) has been added.
func windowMean(sum uint32, n uint64, window int) (uint16, float64) {
	div := n + 1
	if div > uint64(window) {
		div = uint64(window)
	}
	mean := float64(sum) / float64(div)
	return uint16(math.Floor(mean)), mean
}

// windowStd walks back from the n-th sample over at most window entries.
func windowStd(hist *[HistLen]uint16, n uint64, window int, mean float64) float64 {
	var errSum float64
	count := 0
	for i := 0; i < window && uint64(i) <= n; i++ {
		d := float64(hist[(n-uint64(i))%HistLen]) - mean
		errSum += d * d
		count++
	}
	return math.Sqrt(errSum / float64(count))
}

// Index returns the channel identifier.
func (s *State) Index() uint8 { return s.index }

// Thresholds returns the hysteresis exit and enter thresholds.
func (s *State) Thresholds() (low, high uint16) { return s.low, s.high }

// SampleCount returns the number of samples applied since the last reset.
func (s *State) SampleCount() uint64 { return s.sampleCount }

// ProximityMean returns the truncated mean of the proximity window.
func (s *State) ProximityMean() uint16 { return s.psMean }

// ProximityStd returns the population standard deviation of the proximity window.
func (s *State) ProximityStd() float64 { return s.psStd }

// LightMean returns the truncated mean of the ambient-light window.
func (s *State) LightMean() uint16 { return s.alsMean }

// LightStd returns the population standard deviation of the ambient-light window.
func (s *State) LightStd() float64 { return s.alsStd }

// EstimatedDistance returns the distance in cm looked up from ProximityMean.
func (s *State) EstimatedDistance() float64 { return s.distance }

// InProximity reports whether an object is judged present.
func (s *State) InProximity() bool { return s.inProximity }

// IsBlocked reports whether the sensor is judged physically obstructed.
func (s *State) IsBlocked() bool { return s.isBlocked }

// Warm reports whether both windows hold a full set of samples.
func (s *State) Warm() bool {
	return s.sampleCount >= PSWindow && s.sampleCount >= ALSWindow
}

// Reading is a value copy of everything consumers may observe.
type Reading struct {
	Channel       uint8
	Samples       uint64
	ProximityMean uint16
	ProximityStd  float64
	LightMean     uint16
	LightStd      float64
	Distance      float64
	InProximity   bool
	Blocked       bool
}

// Reading returns a snapshot of the derived values.
func (s *State) Reading() Reading {
	return Reading{
		Channel:       s.index,
		Samples:       s.sampleCount,
		ProximityMean: s.psMean,
		ProximityStd:  s.psStd,
		LightMean:     s.alsMean,
		LightStd:      s.alsStd,
		Distance:      s.distance,
		InProximity:   s.inProximity,
		Blocked:       s.isBlocked,
	}
}
