package beats

import (
	"math"
	"testing"
)

// clickTrack synthesizes decaying noise bursts at a fixed interval, the
// simplest signal with an unambiguous tempo.
func clickTrack(sampleRate int, intervalSec, durationSec float64) []float64 {
	samples := make([]float64, int(durationSec*float64(sampleRate)))
	interval := int(intervalSec * float64(sampleRate))
	burst := sampleRate / 50 // 20 ms
	for start := 0; start < len(samples); start += interval {
		for i := 0; i < burst && start+i < len(samples); i++ {
			decay := 1.0 - float64(i)/float64(burst)
			// Deterministic pseudo-noise keeps the test reproducible.
			noise := math.Sin(float64(i) * 12.9898)
			samples[start+i] = 0.8 * decay * noise
		}
	}
	return samples
}

func TestDetectClickTrackTempo(t *testing.T) {
	// 120 BPM: a click every 0.5 s for 8 s.
	samples := clickTrack(16000, 0.5, 8.0)

	report, err := Detect(samples, 16000, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TempoBPM < 110 || report.TempoBPM > 130 {
		t.Errorf("tempo = %v BPM, want about 120", report.TempoBPM)
	}
	if report.TotalBeats < 10 || report.TotalBeats > 20 {
		t.Errorf("beat count = %d, want about 16", report.TotalBeats)
	}
	if report.DurationSeconds != 8.0 {
		t.Errorf("duration = %v, want 8", report.DurationSeconds)
	}
	if report.DurationFrames != 240 {
		t.Errorf("duration frames = %d, want 240 at 30 fps", report.DurationFrames)
	}
}

func TestDetectStrengthsNormalized(t *testing.T) {
	samples := clickTrack(16000, 0.5, 8.0)

	report, err := Detect(samples, 16000, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var maxStrength float64
	for _, b := range report.Beats {
		if b.Strength < 0 || b.Strength > 1 {
			t.Fatalf("strength %v out of range", b.Strength)
		}
		if b.Strength > maxStrength {
			maxStrength = b.Strength
		}
		if b.IsStrong != (b.Strength > StrongThreshold) {
			t.Errorf("is_strong inconsistent with strength %v", b.Strength)
		}
	}
	if maxStrength < 0.99 {
		t.Errorf("strongest beat should normalize to 1.0, got %v", maxStrength)
	}
	if report.TotalStrongBeats != len(report.StrongBeats) {
		t.Error("strong beat count out of sync")
	}
}

func TestDetectBeatFrameMapping(t *testing.T) {
	samples := clickTrack(16000, 0.5, 8.0)

	report, err := Detect(samples, 16000, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range report.Beats {
		want := int(math.Round(b.Time * 30))
		if b.Frame != want {
			t.Errorf("beat at %vs maps to frame %d, want %d", b.Time, b.Frame, want)
		}
	}
}

func TestDetectMeasuresGroupByFour(t *testing.T) {
	samples := clickTrack(16000, 0.5, 8.0)

	report, err := Detect(samples, 16000, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Measures) == 0 {
		t.Fatal("expected measures")
	}
	for i, m := range report.Measures {
		if m.Measure != i+1 {
			t.Errorf("measure numbering: got %d at position %d", m.Measure, i)
		}
		if i < len(report.Measures)-1 && len(m.Beats) != 4 {
			t.Errorf("measure %d has %d beats, want 4", m.Measure, len(m.Beats))
		}
		if m.StartTime != m.Beats[0].Time {
			t.Errorf("measure %d start time mismatch", m.Measure)
		}
	}
}

func TestDetectTooShort(t *testing.T) {
	if _, err := Detect(make([]float64, 100), 16000, 30); err == nil {
		t.Fatal("expected error for audio shorter than one analysis frame")
	}
}

func TestDetectSilence(t *testing.T) {
	// Silence has no onsets; the detector still returns a report rather
	// than failing.
	report, err := Detect(make([]float64, 16000*4), 16000, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TempoBPM <= 0 {
		t.Errorf("tempo fallback missing, got %v", report.TempoBPM)
	}
}
