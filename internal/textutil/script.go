package textutil

import (
	"html"
	"strings"
	"unicode"
)

// ScriptMixed is returned when no single script dominates the sampled text.
const ScriptMixed = "MIXED"

const scriptSampleRunes = 10

// DetectScript classifies the writing system of a title by sampling its
// leading runes. HTML entities are unescaped first since video titles arrive
// entity-encoded from the API. A script must cover at least half the sample
// to win; otherwise the text is reported as mixed.
func DetectScript(text string) string {
	sample := []rune(html.UnescapeString(text))
	if len(sample) > scriptSampleRunes {
		sample = sample[:scriptSampleRunes]
	}
	if len(sample) == 0 {
		return ScriptMixed
	}

	counts := make(map[string]int)
	for _, r := range sample {
		if !unicode.IsLetter(r) {
			continue
		}
		if name := scriptName(r); name != "" {
			counts[name]++
		}
	}

	best, bestCount := "", 0
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	if bestCount*2 < len(sample) {
		return ScriptMixed
	}
	return best
}

func scriptName(r rune) string {
	for name, table := range unicode.Scripts {
		if !unicode.Is(table, r) {
			continue
		}
		if name == "Han" {
			return "CJK"
		}
		return strings.ToUpper(name)
	}
	return ""
}
