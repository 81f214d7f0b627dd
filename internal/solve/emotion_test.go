package solve

import (
	"math"
	"testing"
)

func TestDetectEmotionNeutralSentinel(t *testing.T) {
	for _, input := range []string{"", "   \n\t  ", "the meeting is at three"} {
		got := DetectEmotion(input)
		if got.Emotion != EmotionNeutral || got.Confidence != 0.5 {
			t.Fatalf("DetectEmotion(%q) = %+v, want neutral/0.5", input, got)
		}
	}
}

func TestDetectEmotionAnxious(t *testing.T) {
	got := DetectEmotion("I'm so worried and stressed about the review")
	if got.Emotion != EmotionAnxious {
		t.Fatalf("emotion = %s, want anxious", got.Emotion)
	}
	if got.Confidence < minEmotionConfidence || got.Confidence > 1.0 {
		t.Fatalf("confidence out of range: %v", got.Confidence)
	}
}

func TestDetectEmotionSad(t *testing.T) {
	got := DetectEmotion("I feel sad and hopeless, I keep crying")
	if got.Emotion != EmotionSad {
		t.Fatalf("emotion = %s, want sad", got.Emotion)
	}
}

func TestDetectEmotionConfidenceGrowsWithMatches(t *testing.T) {
	one := DetectEmotion("I'm nervous")
	many := DetectEmotion("I'm nervous, anxious, totally stressed and overwhelmed")
	if many.Confidence <= one.Confidence {
		t.Fatalf("more matches should score higher: %v <= %v", many.Confidence, one.Confidence)
	}
	if many.Confidence > 1.0 {
		t.Fatalf("confidence must cap at 1.0, got %v", many.Confidence)
	}
}

func TestDetectEmotionSpanish(t *testing.T) {
	got := DetectEmotion("Estoy muy nervioso por la ansiedad")
	if got.Emotion != EmotionAnxious {
		t.Fatalf("emotion = %s, want anxious", got.Emotion)
	}
}

func TestDetectEmotionChinese(t *testing.T) {
	got := DetectEmotion("最近很焦虑，特别担心项目")
	if got.Emotion != EmotionAnxious {
		t.Fatalf("emotion = %s, want anxious", got.Emotion)
	}
}

func TestDetectEmotionDeterministic(t *testing.T) {
	input := "I'm worried about everything and I don't know what to do"
	first := DetectEmotion(input)
	for i := 0; i < 20; i++ {
		if got := DetectEmotion(input); got != first {
			t.Fatalf("nondeterministic result: %+v vs %+v", got, first)
		}
	}
}

func TestDetectEmotionRounding(t *testing.T) {
	got := DetectEmotion("I'm stressed and worried")
	scaled := got.Confidence * 100
	if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		t.Fatalf("confidence not rounded to 2 decimals: %v", got.Confidence)
	}
}
