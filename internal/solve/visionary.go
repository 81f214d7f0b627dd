package solve

import (
	"fmt"
	"strings"
)

// RunVisionary produces the reframe and the fixed three-option set from
// whatever the profile holds; missing facts fall back to generic phrasing
// rather than blocking. The reframed statement is emitted only at the reframe
// step; the option set is emitted at both reframe and options. Deterministic
// templates, no model call.
func RunVisionary(profile *ProblemProfile, step SolveStep) VisionaryOutput {
	goal := profile.UserGoal
	if goal == "" {
		goal = "get the problem stated clearly and find a next step"
	}
	core := profile.CoreConcernSummary
	if core == "" {
		core = "the current situation"
	}

	var reframed string
	if step == StepReframe {
		reframed = fmt.Sprintf("How could you make steady progress toward %q without sacrificing %q (centered on: %s)?",
			goal, firstConstraint(profile), core)
	}

	var options []OptionItem
	if step == StepReframe || step == StepOptions {
		options = []OptionItem{
			{
				Title:       "Split the problem into its controllable part",
				Description: "List 3 things you can control and 3 you can't, then act only on the first group.",
				Pros:        []string{"Immediately lowers the sense of chaos", "Quick to start"},
				Cons:        []string{"Requires accepting some things are out of your hands"},
			},
			{
				Title:       "Run a minimal experiment on one key assumption",
				Description: "Pick the most likely cause and design a probe you can finish in 15 minutes to test it.",
				Pros:        []string{"High information gain", "Avoids wasted effort"},
				Cons:        []string{"Requires naming one concrete assumption"},
			},
			{
				Title:       "Rewrite the goal as a measurable 7-day version",
				Description: "Break the goal into something observable within 7 days, with one smallest action per day.",
				Pros:        []string{"Easier to stick with", "Easier to review"},
				Cons:        []string{"Needs a little planning up front"},
			},
		}
	}

	return VisionaryOutput{
		ReframedProblem:   reframed,
		Options:           options,
		UserFacingMessage: visionaryMessage(reframed),
	}
}

func firstConstraint(profile *ProblemProfile) string {
	if len(profile.Constraints) > 0 {
		return profile.Constraints[0]
	}
	return "what you can't change right now"
}

func visionaryMessage(reframed string) string {
	opener := "Here are a few directions you could take:"
	if reframed != "" {
		opener = "Let me try rewriting your problem into a more solvable version: " + reframed
	}
	return strings.Join([]string{
		opener,
		"1) Split out the controllable part: list what you can and can't control, one action for each",
		"2) Run a minimal experiment on one key assumption: finish it within 15 minutes",
		"3) Rewrite the goal as a measurable 7-day version: one smallest action per day",
	}, "\n")
}
