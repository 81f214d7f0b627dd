package solve

import (
	"math"
	"regexp"
	"strings"
)

// weightedPattern pairs a keyword regex with its evidence weight. The tables
// are static data consumed by a pure scoring function; language variants are
// extended append-only without touching the scoring logic.
type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

func wp(expr string, weight float64) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(`(?i)` + expr), weight: weight}
}

var emotionPatterns = map[EmotionLabel][]weightedPattern{
	EmotionAnxious: {
		wp(`\bworr(y|ied|ies|ying)\b`, 0.8),
		wp(`\bscar(ed|y)\b`, 0.9),
		wp(`\bnervous\b`, 0.8),
		wp(`\bpanic(k?ing|ked)?\b`, 0.95),
		wp(`\bstress(ed|ful)?\b`, 0.75),
		wp(`\banxi(ety|ous)\b`, 0.9),
		wp(`\boverwhelm(ed|ing)?\b`, 0.85),
		wp(`\bfreak(ing|ed)?\s*out\b`, 0.9),
		wp(`\bcan'?t\s+(breathe|calm\s+down)\b`, 0.95),
		wp(`\bpreocupad[oa]\b`, 0.8), // Spanish
		wp(`\bnervios[oa]\b`, 0.8),   // Spanish
		wp(`\bansiedad\b`, 0.9),      // Spanish
		wp(`焦虑`, 0.85),               // Chinese
		wp(`担心`, 0.8),                // Chinese
		wp(`紧张`, 0.8),                // Chinese
	},
	EmotionSad: {
		wp(`\bsad\b`, 0.85),
		wp(`\bdepress(ed|ing|ion)?\b`, 0.95),
		wp(`\bhopeless\b`, 0.9),
		wp(`\bcry(ing)?\b`, 0.8),
		wp(`\blonely\b`, 0.85),
		wp(`\bgrief\b`, 0.9),
		wp(`\bloss\b`, 0.7),
		wp(`\bhurt(ing)?\b`, 0.75),
		wp(`\bheartbr(oken|eak)\b`, 0.9),
		wp(`\bmiserable\b`, 0.9),
		wp(`\btriste\b`, 0.85),       // Spanish
		wp(`\bdeprimid[oa]\b`, 0.9),  // Spanish
		wp(`难过`, 0.85),               // Chinese
		wp(`伤心`, 0.85),               // Chinese
		wp(`沮丧`, 0.9),                // Chinese
	},
	EmotionCalm: {
		wp(`\bpeace(ful)?\b`, 0.85),
		wp(`\brelax(ed|ing)?\b`, 0.8),
		wp(`\bcontent(ed)?\b`, 0.8),
		wp(`\bgrateful\b`, 0.85),
		wp(`\bhappy\b`, 0.75),
		wp(`\boptimistic\b`, 0.85),
		wp(`\bserene\b`, 0.9),
		wp(`\bthankful\b`, 0.8),
		wp(`\btranquil[oa]?\b`, 0.85), // Spanish
		wp(`\bfeliz\b`, 0.75),         // Spanish
		wp(`平静`, 0.85),                // Chinese
		wp(`放松`, 0.8),                 // Chinese
		wp(`快乐`, 0.75),                // Chinese
	},
	EmotionConfused: {
		wp(`\bconfus(ed|ing)\b`, 0.9),
		wp(`\bunsure\b`, 0.75),
		wp(`\blost\b`, 0.7),
		wp(`\bdon'?t\s+understand\b`, 0.85),
		wp(`\bunclear\b`, 0.8),
		wp(`\bpuzzl(ed|ing)\b`, 0.8),
		wp(`\bwhat\s+should\s+i\s+do\b`, 0.75),
		wp(`\bi\s+don'?t\s+know\b`, 0.7),
		wp(`\bconfundid[oa]\b`, 0.9),  // Spanish
		wp(`\bno\s+entiendo\b`, 0.85), // Spanish
		wp(`困惑`, 0.9),                 // Chinese
		wp(`不知道`, 0.7),                // Chinese
		wp(`迷茫`, 0.85),                // Chinese
	},
}

// emotionOrder fixes evaluation order so ties resolve deterministically.
var emotionOrder = []EmotionLabel{EmotionAnxious, EmotionSad, EmotionCalm, EmotionConfused}

// minEmotionConfidence is the floor below which a best match is discarded in
// favor of the neutral sentinel.
const minEmotionConfidence = 0.3

// neutralResult is a fixed sentinel, not a computed value.
var neutralResult = EmotionResult{Emotion: EmotionNeutral, Confidence: 0.5}

// EmotionResult is the outcome of classifying one message.
type EmotionResult struct {
	Emotion    EmotionLabel `json:"emotion"`
	Confidence float64      `json:"confidence"`
}

// DetectEmotion classifies the emotional tone of a message. For each candidate
// emotion the confidence is the weighted average of matched patterns, boosted
// 10% per extra match and capped at 1.0. Deterministic and side-effect-free.
func DetectEmotion(text string) EmotionResult {
	if strings.TrimSpace(text) == "" {
		return neutralResult
	}

	lowered := strings.ToLower(text)
	best := neutralResult
	bestScore := 0.0

	for _, emotion := range emotionOrder {
		totalWeight := 0.0
		matchCount := 0
		for _, p := range emotionPatterns[emotion] {
			n := len(p.re.FindAllStringIndex(lowered, -1))
			if n > 0 {
				matchCount += n
				totalWeight += p.weight * float64(n)
			}
		}
		if matchCount == 0 {
			continue
		}
		avg := totalWeight / float64(matchCount)
		confidence := math.Min(avg*(1+0.1*float64(matchCount-1)), 1.0)
		if confidence > bestScore {
			bestScore = confidence
			best = EmotionResult{Emotion: emotion, Confidence: round2(confidence)}
		}
	}

	if bestScore < minEmotionConfidence {
		return neutralResult
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
