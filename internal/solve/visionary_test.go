package solve

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRunVisionaryReframeStep(t *testing.T) {
	profile := NewProfile(uuid.New(), uuid.New())
	profile.UserGoal = "get promoted this cycle"
	profile.CoreConcernSummary = "stalled career growth"
	profile.Constraints = []string{"limited time with my manager"}

	out := RunVisionary(profile, StepReframe)
	if out.ReframedProblem == "" {
		t.Fatal("reframe step must produce a reframed problem")
	}
	if !strings.Contains(out.ReframedProblem, profile.UserGoal) {
		t.Fatalf("reframe omits goal: %q", out.ReframedProblem)
	}
	if !strings.Contains(out.ReframedProblem, profile.Constraints[0]) {
		t.Fatalf("reframe omits first constraint: %q", out.ReframedProblem)
	}
	if len(out.Options) != 3 {
		t.Fatalf("want 3 options, got %d", len(out.Options))
	}
	if !strings.Contains(out.UserFacingMessage, "more solvable version") {
		t.Fatalf("message lacks reframe opener: %q", out.UserFacingMessage)
	}
}

func TestRunVisionaryOptionsStep(t *testing.T) {
	profile := NewProfile(uuid.New(), uuid.New())
	out := RunVisionary(profile, StepOptions)
	if out.ReframedProblem != "" {
		t.Fatalf("options step must not reframe, got %q", out.ReframedProblem)
	}
	if len(out.Options) != 3 {
		t.Fatalf("want 3 options, got %d", len(out.Options))
	}
	for i, opt := range out.Options {
		if opt.Title == "" || opt.Description == "" {
			t.Fatalf("option %d incomplete: %+v", i, opt)
		}
		if len(opt.Pros) == 0 || len(opt.Cons) == 0 {
			t.Fatalf("option %d missing pros or cons", i)
		}
	}
}

func TestRunVisionaryOtherStepsNoOptions(t *testing.T) {
	profile := NewProfile(uuid.New(), uuid.New())
	out := RunVisionary(profile, StepCommit)
	if out.ReframedProblem != "" || len(out.Options) != 0 {
		t.Fatalf("non-visionary step should be empty, got %+v", out)
	}
	if out.UserFacingMessage == "" {
		t.Fatal("message must still be present")
	}
}

func TestRunVisionaryEmptyProfileFallbacks(t *testing.T) {
	profile := NewProfile(uuid.New(), uuid.New())
	out := RunVisionary(profile, StepReframe)
	if out.ReframedProblem == "" {
		t.Fatal("empty profile must still reframe with fallbacks")
	}
}
