package solve

import (
	"fmt"
	"strings"
)

// empathTones maps an emotion label to the opener used in the acknowledgment.
// Labels without a bespoke opener fall back to the generic pressure line.
var empathTones = map[EmotionLabel]string{
	EmotionAnxious:  "It sounds like you're feeling tense and worried",
	EmotionSad:      "It sounds like this has been weighing on you",
	EmotionConfused: "I can sense some confusion in what you're facing",
}

const empathDefaultTone = "I hear you have some pressure right now"

// RunEmpath handles the first turn of a Solve session: it snapshots the
// user's emotional state, condenses the core concern, and composes a warm
// acknowledgment. Invoked only while the session is at the receive step.
func RunEmpath(sanitizedInput string) EmpathOutput {
	detected := DetectEmotion(sanitizedInput)
	snapshot := EmotionSnapshot{
		Label:       detected.Emotion,
		Confidence:  detected.Confidence,
		Intensity15: coarseIntensity(detected.Confidence),
	}

	core := summarizeCoreConcern(sanitizedInput)
	return EmpathOutput{
		Emotion:            snapshot,
		CoreConcernSummary: core,
		UserFacingMessage:  empathMessage(core, snapshot.Label),
	}
}

func empathMessage(core string, label EmotionLabel) string {
	tone, ok := empathTones[label]
	if !ok {
		tone = empathDefaultTone
	}
	return fmt.Sprintf("%s. I understand you're dealing with: %s. We can work through this one step at a time.", tone, core)
}

// summarizeCoreConcern collapses whitespace and truncates the message to at
// most 60 characters, appending an ellipsis when it was longer.
func summarizeCoreConcern(text string) string {
	cleaned := strings.TrimSpace(spaceRE.ReplaceAllString(text, " "))
	runes := []rune(cleaned)
	if len(runes) <= 60 {
		return cleaned
	}
	return string(runes[:57]) + "..."
}

// coarseIntensity maps detector confidence onto the 1-5 intensity scale.
func coarseIntensity(confidence float64) int {
	switch {
	case confidence >= 0.85:
		return 4
	case confidence >= 0.65:
		return 3
	default:
		return 2
	}
}
