// Package progress persists job progress snapshots and estimates
// remaining transfer time.
package progress

import (
	"fmt"
	"time"

	"vcptools/internal/domain/consts"
)

// Sample is one observation of a job's transfer state.
type Sample struct {
	T               time.Time
	DownloadedBytes int64
	TotalBytes      int64
	Percent         float64
}

// ETAEstimator derives a smoothed time-remaining estimate from a
// rolling history of samples. It is owned by a single job and is not
// safe for concurrent use.
type ETAEstimator struct {
	history []Sample
	lastETA float64 // seconds; 0 means no previous estimate
}

// NewETAEstimator returns an estimator with empty history.
func NewETAEstimator() *ETAEstimator {
	return &ETAEstimator{
		history: make([]Sample, 0, consts.ETAHistorySize),
	}
}

// Reset clears the sample history and the smoothing state. Called at
// job start.
func (e *ETAEstimator) Reset() {
	e.history = e.history[:0]
	e.lastETA = 0
}

// AddSample records one observation, keeping only the most recent
// entries. Every sample is recorded regardless of snapshot throttling.
func (e *ETAEstimator) AddSample(s Sample) {
	e.history = append(e.history, s)
	if len(e.history) > consts.ETAHistorySize {
		e.history = e.history[len(e.history)-consts.ETAHistorySize:]
	}
}

// Estimate returns a formatted remaining-time string, or the unknown
// sentinel when the history cannot support an estimate.
func (e *ETAEstimator) Estimate() string {
	if len(e.history) < 2 {
		return consts.ETAUnknown
	}

	latest := e.history[len(e.history)-1]
	if latest.Percent <= 0 || latest.Percent >= 100 {
		return consts.ETAUnknown
	}

	window := e.history
	if len(window) > consts.ETAWindowSize {
		window = window[len(window)-consts.ETAWindowSize:]
	}

	oldest := window[0]
	span := latest.T.Sub(oldest.T).Seconds()
	if span < consts.ETAMinSpan.Seconds() {
		return consts.ETAUnknown
	}

	etaSecs, ok := e.byteRateETA(oldest, latest, span)
	if !ok {
		etaSecs, ok = e.percentRateETA(oldest, latest, span)
		if !ok {
			return consts.ETAUnknown
		}
	}
	if etaSecs <= 0 {
		e.lastETA = 0
		return "00:00"
	}

	etaSecs = e.smooth(etaSecs)
	e.lastETA = etaSecs

	return FormatETA(int64(etaSecs))
}

// byteRateETA is the preferred estimator: bytes per second over the
// recent window.
func (e *ETAEstimator) byteRateETA(oldest, latest Sample, span float64) (float64, bool) {
	if latest.TotalBytes <= 0 || latest.DownloadedBytes <= 0 {
		return 0, false
	}

	diff := latest.DownloadedBytes - oldest.DownloadedBytes
	if diff <= 0 {
		return 0, false
	}

	rate := float64(diff) / span
	remaining := latest.TotalBytes - latest.DownloadedBytes
	if remaining <= 0 {
		return 0, true
	}
	return float64(remaining) / rate, true
}

// percentRateETA is the fallback when byte totals are unavailable.
func (e *ETAEstimator) percentRateETA(oldest, latest Sample, span float64) (float64, bool) {
	diff := latest.Percent - oldest.Percent
	if diff <= 0 {
		return 0, false
	}

	rate := diff / span
	return (100 - latest.Percent) / rate, true
}

// smooth blends a new raw estimate against the previous one when it
// deviates by more than 40%, to avoid visible jitter.
func (e *ETAEstimator) smooth(etaSecs float64) float64 {
	if e.lastETA <= 0 {
		return etaSecs
	}
	if diff := etaSecs - e.lastETA; diff > e.lastETA*0.4 || diff < -e.lastETA*0.4 {
		return 0.7*e.lastETA + 0.3*etaSecs
	}
	return etaSecs
}

// FormatETA clamps and formats a second count for display.
func FormatETA(secs int64) string {
	switch {
	case secs > 7200:
		return ">2h"
	case secs > 3600:
		return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
	default:
		return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
	}
}
