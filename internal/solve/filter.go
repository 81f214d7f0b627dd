package solve

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// The content filter contract is load-bearing even though the rules are
// simple: SanitizeUserInput runs before anything is persisted, and StripPII
// runs before text reaches any model provider.

const (
	wordSep  = `[\W_]+`
	innerSep = `[\W_]*`
)

// leetVariants maps letters to common substitution characters so split and
// leet-speak evasions ("i g n o r e", "1gnore") still match.
var leetVariants = map[rune]string{
	'a': "a4@",
	'e': "e3",
	'i': "i1!",
	'o': "o0",
	's': "s5$",
	't': "t7",
}

func charPattern(ch rune) string {
	variants, ok := leetVariants[ch]
	if !ok {
		return regexp.QuoteMeta(string(ch))
	}
	var b strings.Builder
	b.WriteString("[")
	for _, v := range variants {
		b.WriteString(regexp.QuoteMeta(string(v)))
	}
	b.WriteString("]")
	return b.String()
}

// splitWord builds a pattern for one word that tolerates separators injected
// between its characters.
func splitWord(word string) string {
	parts := make([]string, 0, len(word))
	for _, ch := range word {
		parts = append(parts, charPattern(ch))
	}
	return strings.Join(parts, innerSep)
}

func splitPhrase(words ...string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, splitWord(w))
	}
	return strings.Join(parts, wordSep)
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b` + splitWord("ignore") + wordSep + `(?:` + splitWord("all") + wordSep + `)?` + splitWord("previous") + `(?:` + wordSep + splitWord("instructions") + `)?`),
	regexp.MustCompile(`(?i)\b` + splitWord("disregard") + wordSep + `(?:` + splitWord("all") + wordSep + `)?`),
	regexp.MustCompile(`(?i)\b` + splitWord("forget") + wordSep + `(?:` + splitWord("all") + wordSep + `)?`),
	regexp.MustCompile(`(?i)\b` + splitWord("please") + wordSep + splitWord("ignore") + `(?:` + wordSep + splitWord("previous") + `(?:` + wordSep + splitWord("instructions") + `)?)?`),
	regexp.MustCompile(`(?i)\b` + splitWord("override") + wordSep + `(?:` + splitWord("all") + wordSep + `)?(?:` + splitWord("previous") + wordSep + `)?` + splitWord("instructions")),
	regexp.MustCompile(`(?i)\b` + splitPhrase("now", "act", "as")),
	regexp.MustCompile(`(?im)^system:`),
	regexp.MustCompile(`(?im)^assistant:`),
	regexp.MustCompile(`\[INST\]`),
	regexp.MustCompile(`<\|im_start\|>`),
}

var (
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRE = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,4}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}`)
	// phoneFlagRE is looser than phoneRE: flagging tolerates more formats
	// than redaction does.
	phoneFlagRE = regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// strictHTMLPolicy strips every HTML element and attribute so user input is
// treated as plain text with script/style injections removed.
func strictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// normalizeContent applies NFKC normalization to defeat fullwidth and
// compatibility-character confusion before pattern matching.
func normalizeContent(content string) string {
	return norm.NFKC.String(content)
}

// SanitizeUserInput neutralizes unsafe constructs in a raw message: HTML is
// stripped, known injection phrasings are removed, whitespace is collapsed.
func SanitizeUserInput(content string) string {
	sanitized := normalizeContent(content)
	sanitized = strictHTMLPolicy().Sanitize(sanitized)
	for _, re := range injectionPatterns {
		sanitized = re.ReplaceAllString(sanitized, "")
	}
	return strings.TrimSpace(spaceRE.ReplaceAllString(sanitized, " "))
}

// StripPII redacts email addresses and phone-like digit runs.
func StripPII(content string) string {
	sanitized := emailRE.ReplaceAllString(content, "")
	sanitized = phoneRE.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(spaceRE.ReplaceAllString(sanitized, " "))
}

// LooksLikePromptInjection reports whether the raw input matches any known
// injection phrasing.
func LooksLikePromptInjection(content string) bool {
	normalized := normalizeContent(content)
	for _, re := range injectionPatterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

func looksLikeEmail(content string) bool { return emailRE.MatchString(content) }

func looksLikePhone(content string) bool { return phoneFlagRE.MatchString(content) }
