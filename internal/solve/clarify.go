package solve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Caps on the clarify sub-state machine. The forced-close rule fires at
// forceCloseTurn; the turn index itself never grows past maxClarifyTurns.
const (
	maxClarifyTurns = 10
	forceCloseTurn  = 5
)

// Per-pass extraction limits for list-valued profile facts.
const (
	maxListItems   = 5
	maxTokenLength = 60
	maxGoalLength  = 120
)

var listSplitRE = regexp.MustCompile(`[\n，,。；;]+`)
var sentenceSplitRE = regexp.MustCompile(`[\n。；;]+`)

// deadlineWords are substrings of the concern summary that suggest a hard
// time constraint (English plus common Chinese date/urgency words).
var deadlineWords = []string{"deadline", "交付", "下周", "明天", "月底"}

// RunClarify advances the clarify sub-state machine by one turn: it folds the
// user's answer into the profile, recomputes the info-gap and hypothesis
// tables wholesale, and selects the single best next question. The profile is
// mutated in place; the caller owns persistence.
func RunClarify(profile *ProblemProfile, userInput string) ClarifyOutput {
	applyUserInput(profile, userInput)
	gaps := computeInfoGaps(profile)
	hypotheses := computeHypotheses(profile)

	question := selectNextQuestion(profile, gaps, hypotheses)
	return ClarifyOutput{
		Hypotheses:        hypotheses,
		InfoGaps:          gaps,
		NextQuestion:      question,
		UserFacingMessage: clarifyMessage(profile, question),
	}
}

// applyUserInput interprets the answer according to the current sub-state:
// ALIGN/INIT answers feed the goal and success criteria, MAP answers feed
// constraints and attempts. The first accepted goal is never overwritten.
func applyUserInput(profile *ProblemProfile, userInput string) {
	if profile.CoreConcernSummary == "" {
		profile.CoreConcernSummary = summarizeCoreConcern(userInput)
	}

	state := profile.Meta.ClarifyState
	if (state == ClarifyAlign || state == ClarifyInit) && profile.UserGoal == "" {
		if goal := extractGoal(userInput); goal != "" {
			profile.UserGoal = goal
		}
		if criteria := extractList(userInput, sentenceSplitRE, 0); len(criteria) > 0 && len(profile.SuccessCriteria) == 0 {
			profile.SuccessCriteria = criteria
		}
	}

	if state == ClarifyMap {
		if constraints := extractList(userInput, listSplitRE, maxTokenLength); len(constraints) > 0 {
			profile.Constraints = append(profile.Constraints, constraints...)
		}
		if attempts := extractList(userInput, listSplitRE, maxTokenLength); len(attempts) > 0 {
			profile.Attempts = append(profile.Attempts, attempts...)
		}
	}

	if profile.Meta.ClarifyTurnIndex < maxClarifyTurns {
		profile.Meta.ClarifyTurnIndex++
	}
}

// computeInfoGaps rebuilds the gap table from scratch: one entry per missing
// field, each with fixed scoring weights.
func computeInfoGaps(profile *ProblemProfile) []InfoGap {
	var gaps []InfoGap
	if profile.UserGoal == "" {
		gaps = append(gaps, InfoGap{Key: "user_goal", Missing: true, Importance: 0.9, Urgency: 0.6, Answerability: 0.8, EstimatedCost: 0.2})
	}
	if len(profile.SuccessCriteria) == 0 {
		gaps = append(gaps, InfoGap{Key: "success_criteria", Missing: true, Importance: 0.8, Urgency: 0.6, Answerability: 0.7, EstimatedCost: 0.2})
	}
	if len(profile.Constraints) == 0 {
		gaps = append(gaps, InfoGap{Key: "constraints", Missing: true, Importance: 0.6, Urgency: 0.5, Answerability: 0.8, EstimatedCost: 0.2})
	}
	if len(profile.Attempts) == 0 {
		gaps = append(gaps, InfoGap{Key: "attempts", Missing: true, Importance: 0.5, Urgency: 0.4, Answerability: 0.8, EstimatedCost: 0.2})
	}
	return gaps
}

// computeHypotheses rebuilds the three fixed-type hypotheses each pass and
// re-biases their confidence from the current profile. Always exactly three
// entries; boosts are capped at 0.6.
func computeHypotheses(profile *ProblemProfile) []Hypothesis {
	base := []Hypothesis{
		{
			ID:          "H1",
			Statement:   "The goal or success criteria are still fuzzy, which makes action hard to land",
			Type:        HypothesisGoalMismatch,
			Confidence:  0.34,
			TestsNeeded: []string{"user_goal", "success_criteria"},
		},
		{
			ID:          "H2",
			Statement:   "A hard constraint (time, authority, resources) is dominating the situation",
			Type:        HypothesisConstraint,
			Confidence:  0.33,
			TestsNeeded: []string{"constraints"},
		},
		{
			ID:          "H3",
			Statement:   "A heavy emotional load is crowding out focus and decision-making",
			Type:        HypothesisEmotionalBlock,
			Confidence:  0.33,
			TestsNeeded: []string{"emotion"},
		},
	}

	if e := profile.Emotion; e != nil {
		switch e.Label {
		case EmotionAnxious, EmotionSad, EmotionConfused:
			base[2].Confidence = minFloat(0.6, base[2].Confidence+0.15)
		}
	}

	if core := profile.CoreConcernSummary; core != "" {
		for _, word := range deadlineWords {
			if strings.Contains(core, word) {
				base[1].Confidence = minFloat(0.6, base[1].Confidence+0.15)
				break
			}
		}
	}

	return base
}

// selectNextQuestion picks the single highest-value question and advances the
// clarify sub-state accordingly. Priority: forced close past the turn cap,
// then goal/criteria, then constraints, then attempts, then a forced-choice
// diagnosis between the two strongest hypotheses.
func selectNextQuestion(profile *ProblemProfile, gaps []InfoGap, hypotheses []Hypothesis) QuestionPlan {
	missing := make(map[string]bool, len(gaps))
	for _, gap := range gaps {
		if gap.Missing {
			missing[gap.Key] = true
		}
	}

	if profile.Meta.ClarifyState == ClarifyInit {
		profile.Meta.ClarifyState = ClarifyAlign
	}

	if profile.Meta.ClarifyTurnIndex >= forceCloseTurn {
		profile.Meta.ClarifyState = ClarifyDone
		return QuestionPlan{
			Prompt:       "If you could pick just one smallest action you could finish in 10 minutes today, which would you start with?",
			Rationale:    "Push toward one minimal executable action while information is still incomplete",
			AllowUnknown: true,
		}
	}

	if missing["user_goal"] || missing["success_criteria"] {
		profile.Meta.ClarifyState = ClarifyAlign
		return QuestionPlan{
			Prompt:         "What would this need to look like for you to call it solved? If you have one or two measurable criteria, share those too.",
			Rationale:      "Align on success criteria first so we don't solve the wrong problem",
			ExpectedFields: []string{"user_goal", "success_criteria"},
			AllowUnknown:   true,
		}
	}

	if missing["constraints"] {
		profile.Meta.ClarifyState = ClarifyMap
		return QuestionPlan{
			Prompt:         "What's the biggest hard constraint right now? For example a deadline, resources, permissions, or scope you must deliver. Pick the one or two that matter most.",
			Rationale:      "Constraints have to be explicit before feasible paths can be judged",
			ExpectedFields: []string{"constraints"},
			AllowUnknown:   true,
		}
	}

	if missing["attempts"] {
		profile.Meta.ClarifyState = ClarifyMap
		return QuestionPlan{
			Prompt:         "What have you already tried, and what came of each attempt (even small results count)?",
			Rationale:      "Avoid repeating ineffective attempts and find reusable bright spots",
			ExpectedFields: []string{"attempts"},
			AllowUnknown:   true,
		}
	}

	profile.Meta.ClarifyState = ClarifyDiagnose
	ranked := make([]Hypothesis, len(hypotheses))
	copy(ranked, hypotheses)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })
	top := ranked[:2]
	focus := top[0].Statement + " / " + top[1].Statement

	return QuestionPlan{
		Prompt:       fmt.Sprintf("Which of these sounds more like you? A) %s  B) %s (it's fine if neither fits)", top[0].Statement, top[1].Statement),
		Rationale:    fmt.Sprintf("Use one low-effort question to separate the two most likely paths (current focus: %s)", focus),
		AllowUnknown: true,
	}
}

func clarifyMessage(profile *ProblemProfile, question QuestionPlan) string {
	prefix := "Let's fill in the most important details first, so the suggestions that follow actually fit your situation."
	if e := profile.Emotion; e != nil && (e.Label == EmotionAnxious || e.Label == EmotionSad) {
		prefix = "I can tell how much pressure you're under right now. Let's fill in the most important details together, okay?"
	}
	return prefix + "\n\n" + question.Prompt
}

func extractGoal(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" || len([]rune(cleaned)) > maxGoalLength {
		return ""
	}
	return cleaned
}

// extractList splits an answer on sentence/line delimiters, drops blanks and
// over-long tokens, and caps the result at maxListItems.
func extractList(text string, splitter *regexp.Regexp, maxToken int) []string {
	var items []string
	for _, token := range splitter.Split(text, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if maxToken > 0 && len([]rune(token)) > maxToken {
			continue
		}
		items = append(items, token)
		if len(items) == maxListItems {
			break
		}
	}
	return items
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
