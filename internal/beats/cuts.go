package beats

import "fmt"

// SuggestCuts splits the track into numScenes beat-aligned scenes. The
// first scene runs until the first beat at or after introDuration, and
// later scene boundaries prefer strong beats. The last scene always runs
// to the end of the audio.
func (r *Report) SuggestCuts(numScenes int, introDuration float64) []Cut {
	if len(r.Beats) == 0 || numScenes < 1 {
		return nil
	}

	introIdx := 0
	for i, b := range r.Beats {
		if b.Time >= introDuration {
			introIdx = i
			break
		}
	}

	remainingScenes := numScenes - 1
	remaining := len(r.Beats) - introIdx
	if remainingScenes <= 0 || remaining <= 0 {
		return []Cut{{
			Scene:          1,
			Label:          "intro",
			EndTime:        r.DurationSeconds,
			EndFrame:       r.DurationFrames,
			DurationSecs:   r.DurationSeconds,
			DurationFrames: r.DurationFrames,
		}}
	}

	beatsPerScene := remaining / remainingScenes
	if beatsPerScene < 1 {
		beatsPerScene = 1
	}

	intro := r.Beats[introIdx]
	cuts := []Cut{{
		Scene:          1,
		Label:          "intro",
		EndTime:        intro.Time,
		EndFrame:       intro.Frame,
		DurationSecs:   intro.Time,
		DurationFrames: intro.Frame,
	}}

	current := introIdx
	for scene := 2; scene <= numScenes; scene++ {
		start := r.Beats[current]

		next := current + beatsPerScene
		if next > len(r.Beats)-1 {
			next = len(r.Beats) - 1
		}
		// A strong beat just past the nominal boundary makes a better
		// cut than a weak one on it.
		for i := current + 1; i < current+beatsPerScene+2 && i < len(r.Beats); i++ {
			if r.Beats[i].IsStrong {
				next = i
				break
			}
		}

		endTime := r.Beats[next].Time
		endFrame := r.Beats[next].Frame
		if scene == numScenes {
			endTime = r.DurationSeconds
			endFrame = r.DurationFrames
		}

		cuts = append(cuts, Cut{
			Scene:          scene,
			Label:          fmt.Sprintf("scene_%d", scene),
			StartTime:      start.Time,
			StartFrame:     start.Frame,
			EndTime:        endTime,
			EndFrame:       endFrame,
			DurationSecs:   round3(endTime - start.Time),
			DurationFrames: endFrame - start.Frame,
		})
		current = next
	}

	return cuts
}
