package clip

import (
	"testing"

	"github.com/fpang/broll-media-cli/internal/timecode"
)

func TestStatusUsable(t *testing.T) {
	usable := []Status{StatusAcceptedAsIs, StatusRefinedByHuman, StatusRefinedAutomatically}
	for _, s := range usable {
		if !s.Usable() {
			t.Errorf("%s should be usable", s)
		}
	}
	unusable := []Status{StatusRejected, StatusSkipped, StatusCancelled, Status("")}
	for _, s := range unusable {
		if s.Usable() {
			t.Errorf("%q should not be usable", s)
		}
	}
}

func TestAutoAcceptable(t *testing.T) {
	tests := []struct {
		name string
		v    Validation
		want bool
	}{
		{"all pass at gate", Validation{AllChecksPass: true, Confidence: 0.70}, true},
		{"all pass high confidence", Validation{AllChecksPass: true, Confidence: 0.95}, true},
		{"all pass below gate", Validation{AllChecksPass: true, Confidence: 0.69}, false},
		{"failed check high confidence", Validation{AllChecksPass: false, Confidence: 0.99}, false},
	}
	for _, tt := range tests {
		if got := tt.v.AutoAcceptable(); got != tt.want {
			t.Errorf("%s: AutoAcceptable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChecklistAllPass(t *testing.T) {
	full := Checklist{CleanStart: true, CleanEnd: true, NoHumans: true, CompleteContent: true, MatchesDescription: true}
	if !full.AllPass() {
		t.Error("all checks set should pass")
	}
	oneOff := full
	oneOff.NoHumans = false
	if oneOff.AllPass() {
		t.Error("a single failed check should fail the checklist")
	}
}

func TestFinalize(t *testing.T) {
	r := &Result{
		SourceVideo:   "clip.mp4",
		Tier1Estimate: timecode.Span{Start: 60, End: 65},
	}
	d := &Disposition{FinalStatus: StatusRejected, Reason: "wrong subject"}
	r.Finalize(d)

	if r.FinalStatus != StatusRejected {
		t.Errorf("FinalStatus = %q, want rejected", r.FinalStatus)
	}
	if r.Usable {
		t.Error("rejected result must not be usable")
	}
	if r.Tier3 != d {
		t.Error("disposition not attached to result")
	}

	r.Finalize(&Disposition{FinalStatus: StatusAcceptedAsIs})
	if !r.Usable {
		t.Error("accepted result must be usable")
	}
}
