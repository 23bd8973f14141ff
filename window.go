package tracestat

// window.go picks the sim-time window the timeline plot zooms in on.
// The exploration scripts drew the window position from an ad hoc
// uniform draw; here the draw comes from an rng stream seeded from the
// package's fixed master seed, so a rerun reproduces the same window

import (
	"math"

	"github.com/iti/rngstream"
)

// A WindowSampler draws plot windows over a sim-time extent
type WindowSampler struct {
	spanUS  float64
	rngstrm *rngstream.RngStream
}

// CreateWindowSampler is a constructor.  The stream name labels the
// sampler; determinism comes from the rng package's master seed and
// the order streams are created in
func CreateWindowSampler(streamName string, spanUS float64) *WindowSampler {
	ws := new(WindowSampler)
	ws.spanUS = spanUS
	ws.rngstrm = rngstream.New(streamName)
	return ws
}

// Sample draws one window of the sampler's span inside [minUS, maxUS].
// The window start is rounded to a whole microsecond, matching the way
// the timeline plot labels its axis.  An extent smaller than the span
// is returned whole
func (ws *WindowSampler) Sample(minUS, maxUS float64) (float64, float64) {
	if maxUS-minUS <= ws.spanUS {
		return minUS, maxUS
	}
	u01 := ws.rngstrm.RandU01()
	lo := math.Round(minUS + u01*(maxUS-minUS-ws.spanUS))
	return lo, lo + ws.spanUS
}
