package solve

import (
	"regexp"
	"strings"
)

// Crisis keyword lists, per language. These are an append-only allowlist of
// known risk phrases: false negatives are safety-critical, so extension is
// always additive and never replaced by "smart" inference.
var crisisKeywords = map[string][]string{
	"en": {
		"suicide",
		"kill myself",
		"end my life",
		"want to die",
		"self-harm",
		"hurt myself",
		"cut myself",
		"cutting myself",
		"no reason to live",
		"better off dead",
		"can't go on",
	},
	"es": {
		"suicidio",
		"matarme",
		"quitarme la vida",
		"quiero morir",
		"autolesión",
		"hacerme daño",
		"cortarme",
		"no tengo razón para vivir",
		"mejor muerto",
		"no puedo seguir",
	},
}

// CrisisResources maps region codes to hotline strings. Clients hardcode
// display logic around these keys, so the mapping must stay bit-exact.
var CrisisResources = map[string]string{
	"US": "988",           // Suicide & Crisis Lifeline
	"ES": "717 003 717",   // Teléfono de la Esperanza (Spain)
}

// crisisMessage is the fixed resource text returned on every blocked turn.
const crisisMessage = "We noticed you might be going through a difficult time. " +
	"Please reach out to a crisis helpline for immediate support."

var crisisPatterns = buildCrisisPatterns()

func buildCrisisPatterns() []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, keywords := range crisisKeywords {
		for _, keyword := range keywords {
			// Word boundaries avoid matching inside longer words.
			patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
	}
	return patterns
}

// CrisisCheck is the result of screening one message for crisis signals.
type CrisisCheck struct {
	Blocked        bool              `json:"blocked"`
	Reason         string            `json:"reason,omitempty"`
	Resources      map[string]string `json:"resources,omitempty"`
	MatchedKeyword string            `json:"matched_keyword,omitempty"`
}

// CrisisPayload is the fixed response body surfaced to the caller whenever a
// turn is blocked by crisis detection.
type CrisisPayload struct {
	Blocked   bool              `json:"blocked"`
	Reason    string            `json:"reason"`
	Resources map[string]string `json:"resources"`
	Message   string            `json:"message"`
}

// DetectCrisis screens a raw user message against the keyword lists. Pure
// lexical matching, case-insensitive, no context and no learning.
func DetectCrisis(content string) CrisisCheck {
	lowered := strings.ToLower(content)
	for _, pattern := range crisisPatterns {
		if match := pattern.FindString(lowered); match != "" {
			return CrisisCheck{
				Blocked:        true,
				Reason:         "CRISIS",
				Resources:      CrisisResources,
				MatchedKeyword: match,
			}
		}
	}
	return CrisisCheck{}
}

// CrisisResponse returns the standard blocked-turn payload.
func CrisisResponse() CrisisPayload {
	return CrisisPayload{
		Blocked:   true,
		Reason:    "CRISIS",
		Resources: CrisisResources,
		Message:   crisisMessage,
	}
}
