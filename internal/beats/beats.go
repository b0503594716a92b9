// Package beats detects musical beats in an audio track and maps them
// to frame numbers, so cuts can land on the music.
//
// The detector works on a short-time energy envelope: onsets are
// positive energy flux peaks, tempo comes from autocorrelating the
// envelope, and the beat grid is the phase of that tempo which best
// lines up with the envelope.
package beats

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Analysis frame layout at 16 kHz: ~32 ms windows with 50% overlap.
const (
	frameSize = 512
	hopSize   = 256

	minBPM = 60.0
	maxBPM = 200.0

	// StrongThreshold marks beats whose normalized strength makes them
	// preferred cut points.
	StrongThreshold = 0.7

	beatsPerMeasure = 4
)

// Beat is one detected beat.
type Beat struct {
	Index    int     `json:"index"`
	Time     float64 `json:"time"`
	Frame    int     `json:"frame"`
	Strength float64 `json:"strength"`
	IsStrong bool    `json:"is_strong"`
}

// Onset is a transient moment, finer grained than the beat grid.
type Onset struct {
	Time  float64 `json:"time"`
	Frame int     `json:"frame"`
}

// Measure groups consecutive beats assuming 4/4 time.
type Measure struct {
	Measure    int     `json:"measure"`
	StartTime  float64 `json:"start_time"`
	StartFrame int     `json:"start_frame"`
	Beats      []Beat  `json:"beats"`
}

// Cut is one suggested scene boundary.
type Cut struct {
	Scene          int     `json:"scene"`
	Label          string  `json:"label"`
	StartTime      float64 `json:"start_time"`
	StartFrame     int     `json:"start_frame"`
	EndTime        float64 `json:"end_time"`
	EndFrame       int     `json:"end_frame"`
	DurationSecs   float64 `json:"duration_seconds"`
	DurationFrames int     `json:"duration_frames"`
}

// Report is the full beat analysis for one audio file.
type Report struct {
	AudioFile          string    `json:"audio_file"`
	DurationSeconds    float64   `json:"duration_seconds"`
	DurationFrames     int       `json:"duration_frames"`
	FPS                int       `json:"fps"`
	TempoBPM           float64   `json:"tempo_bpm"`
	BeatIntervalSecs   float64   `json:"beat_interval_seconds"`
	BeatIntervalFrames int       `json:"beat_interval_frames"`
	TotalBeats         int       `json:"total_beats"`
	TotalStrongBeats   int       `json:"total_strong_beats"`
	Beats              []Beat    `json:"beats"`
	StrongBeats        []Beat    `json:"strong_beats"`
	Measures           []Measure `json:"measures"`
	Onsets             []Onset   `json:"onsets"`
	SuggestedCuts      []Cut     `json:"suggested_cuts,omitempty"`
}

// DetectFile analyzes a 16-bit PCM WAV file at the given video frame
// rate.
func DetectFile(path string, fps int) (*Report, error) {
	audio, err := readWAV(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	report, err := Detect(audio.samples, audio.sampleRate, fps)
	if err != nil {
		return nil, err
	}
	report.AudioFile = path
	return report, nil
}

// Detect analyzes mono samples at the given sample rate. fps maps times
// to video frame numbers.
func Detect(samples []float64, sampleRate, fps int) (*Report, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if fps <= 0 {
		fps = 30
	}
	duration := float64(len(samples)) / float64(sampleRate)

	envelope := energyFlux(samples)
	if len(envelope) == 0 {
		return nil, fmt.Errorf("audio too short for analysis (%.3fs)", duration)
	}

	hopDur := float64(hopSize) / float64(sampleRate)

	tempo := estimateTempo(envelope, hopDur)
	beatTimes := placeBeats(envelope, hopDur, tempo, duration)
	onsetIdx := pickPeaks(envelope)

	log.Debug().
		Float64("tempo_bpm", tempo).
		Int("beats", len(beatTimes)).
		Int("onsets", len(onsetIdx)).
		Msg("Beat detection complete")

	// Strength is the envelope value at each beat, normalized to the
	// loudest beat.
	strengths := make([]float64, len(beatTimes))
	var maxStrength float64
	for i, t := range beatTimes {
		frame := int(t / hopDur)
		if frame < len(envelope) {
			strengths[i] = envelope[frame]
		}
		if strengths[i] > maxStrength {
			maxStrength = strengths[i]
		}
	}
	if maxStrength > 0 {
		for i := range strengths {
			strengths[i] /= maxStrength
		}
	}

	beats := make([]Beat, len(beatTimes))
	var strong []Beat
	for i, t := range beatTimes {
		b := Beat{
			Index:    i,
			Time:     round3(t),
			Frame:    int(math.Round(t * float64(fps))),
			Strength: round3(strengths[i]),
			IsStrong: strengths[i] > StrongThreshold,
		}
		beats[i] = b
		if b.IsStrong {
			strong = append(strong, b)
		}
	}

	var measures []Measure
	for i := 0; i < len(beats); i += beatsPerMeasure {
		end := i + beatsPerMeasure
		if end > len(beats) {
			end = len(beats)
		}
		group := beats[i:end]
		measures = append(measures, Measure{
			Measure:    i/beatsPerMeasure + 1,
			StartTime:  group[0].Time,
			StartFrame: group[0].Frame,
			Beats:      group,
		})
	}

	// Cap the onset list the way the report consumer expects.
	onsets := make([]Onset, 0, 50)
	for _, idx := range onsetIdx {
		if len(onsets) == 50 {
			break
		}
		t := float64(idx) * hopDur
		onsets = append(onsets, Onset{Time: round3(t), Frame: int(math.Round(t * float64(fps)))})
	}

	interval := 60.0 / tempo
	return &Report{
		DurationSeconds:    round3(duration),
		DurationFrames:     int(math.Round(duration * float64(fps))),
		FPS:                fps,
		TempoBPM:           math.Round(tempo*10) / 10,
		BeatIntervalSecs:   round3(interval),
		BeatIntervalFrames: int(math.Round(interval * float64(fps))),
		TotalBeats:         len(beats),
		TotalStrongBeats:   len(strong),
		Beats:              beats,
		StrongBeats:        strong,
		Measures:           measures,
		Onsets:             onsets,
	}, nil
}

// energyFlux computes the half-wave rectified energy difference between
// consecutive analysis frames, lightly smoothed.
func energyFlux(samples []float64) []float64 {
	if len(samples) < frameSize {
		return nil
	}
	frames := 1 + (len(samples)-frameSize)/hopSize
	energy := make([]float64, frames)
	for i := 0; i < frames; i++ {
		start := i * hopSize
		var sum float64
		for _, s := range samples[start : start+frameSize] {
			sum += s * s
		}
		energy[i] = sum / frameSize
	}

	flux := make([]float64, frames)
	for i := 1; i < frames; i++ {
		d := energy[i] - energy[i-1]
		if d > 0 {
			flux[i] = d
		}
	}

	// 3-point moving average keeps single-frame spikes from splitting
	// into double onsets.
	smoothed := make([]float64, frames)
	for i := range flux {
		sum, n := flux[i], 1.0
		if i > 0 {
			sum += flux[i-1]
			n++
		}
		if i < frames-1 {
			sum += flux[i+1]
			n++
		}
		smoothed[i] = sum / n
	}
	return smoothed
}

// pickPeaks returns envelope indices that are local maxima above an
// adaptive threshold.
func pickPeaks(envelope []float64) []int {
	mean, std := meanStd(envelope)
	threshold := mean + std

	var peaks []int
	lastPeak := -math.MaxInt32
	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] < threshold {
			continue
		}
		if envelope[i] < envelope[i-1] || envelope[i] <= envelope[i+1] {
			continue
		}
		// Debounce: onsets closer than ~50 ms are one transient.
		if i-lastPeak < 4 {
			continue
		}
		peaks = append(peaks, i)
		lastPeak = i
	}
	return peaks
}

// estimateTempo autocorrelates the envelope over lags in the musical
// tempo range and returns the best lag as BPM.
func estimateTempo(envelope []float64, hopDur float64) float64 {
	minLag := int(60.0 / (maxBPM * hopDur))
	maxLag := int(60.0 / (minBPM * hopDur))
	if maxLag >= len(envelope) {
		maxLag = len(envelope) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag >= maxLag {
		return 120.0
	}

	bestLag, bestScore := 0, -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		var score float64
		for i := lag; i < len(envelope); i++ {
			score += envelope[i] * envelope[i-lag]
		}
		score /= float64(len(envelope) - lag)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	if bestLag == 0 || bestScore <= 0 {
		return 120.0
	}
	return 60.0 / (float64(bestLag) * hopDur)
}

// placeBeats lays a fixed grid at the estimated tempo, choosing the
// phase that collects the most envelope energy.
func placeBeats(envelope []float64, hopDur, tempo, duration float64) []float64 {
	interval := 60.0 / tempo
	intervalFrames := interval / hopDur
	if intervalFrames < 1 {
		return nil
	}

	steps := int(intervalFrames)
	if steps < 1 {
		steps = 1
	}
	bestPhase, bestScore := 0, -1.0
	for phase := 0; phase < steps; phase++ {
		var score float64
		for pos := float64(phase); pos < float64(len(envelope)); pos += intervalFrames {
			score += envelope[int(pos)]
		}
		if score > bestScore {
			bestScore = score
			bestPhase = phase
		}
	}

	var times []float64
	for pos := float64(bestPhase); pos < float64(len(envelope)); pos += intervalFrames {
		t := pos * hopDur
		if t > duration {
			break
		}
		times = append(times, t)
	}
	return times
}

func meanStd(v []float64) (mean, std float64) {
	if len(v) == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	for _, x := range v {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(v)))
	return mean, std
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
