// Package timecode defines the two time coordinate systems the refinement
// pipeline operates in: absolute seconds in the source video, and seconds
// relative to an extracted analysis window. They are distinct types so a
// window-relative value can never be handed to a caller that expects an
// absolute one without an explicit transform through the window's actual
// start time.
package timecode

// Absolute is a timestamp in seconds measured from the start of the source
// video. This is the only coordinate system that may leave the pipeline.
type Absolute float64

// WindowRelative is a timestamp in seconds measured from the start of an
// extracted window clip (the window clip always starts at 0).
type WindowRelative float64

// Seconds returns the timestamp as a plain float64.
func (a Absolute) Seconds() float64 { return float64(a) }

// Seconds returns the timestamp as a plain float64.
func (w WindowRelative) Seconds() float64 { return float64(w) }

// Absolute converts a window-relative timestamp into source-video time.
// windowStart must be the ACTUAL start of the extracted window as reported
// by the extractor, not the requested start; the two differ when the
// requested window was clamped at 0.
func (w WindowRelative) Absolute(windowStart Absolute) Absolute {
	return windowStart + Absolute(w)
}

// InWindow converts an absolute timestamp into the coordinate system of a
// window that starts at windowStart. It is the inverse of
// WindowRelative.Absolute.
func (a Absolute) InWindow(windowStart Absolute) WindowRelative {
	return WindowRelative(a - windowStart)
}

// Span is a start/end pair in source-video time.
type Span struct {
	Start Absolute `json:"start"`
	End   Absolute `json:"end"`
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 { return float64(s.End - s.Start) }

// Center returns the midpoint of the span.
func (s Span) Center() Absolute { return (s.Start + s.End) / 2 }

// WindowSpan is a start/end pair relative to an extracted window.
type WindowSpan struct {
	Start WindowRelative `json:"start_seconds"`
	End   WindowRelative `json:"end_seconds"`
}

// Duration returns the span length in seconds.
func (s WindowSpan) Duration() float64 { return float64(s.End - s.Start) }

// Absolute transforms both endpoints into source-video time using the
// window's actual start.
func (s WindowSpan) Absolute(windowStart Absolute) Span {
	return Span{
		Start: s.Start.Absolute(windowStart),
		End:   s.End.Absolute(windowStart),
	}
}

// InWindow transforms an absolute span into window coordinates.
func (s Span) InWindow(windowStart Absolute) WindowSpan {
	return WindowSpan{
		Start: s.Start.InWindow(windowStart),
		End:   s.End.InWindow(windowStart),
	}
}
