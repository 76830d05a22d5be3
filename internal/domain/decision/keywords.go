package decision

import "strings"

// crisisKeywords is the fixed override set. Matching is by substring on
// lower-cased text, so "die" also matches "died" and "cut" matches "cutlery".
var crisisKeywords = []string{ //nolint:gochecknoglobals
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"end it all",
	"want to die",
	"die",
	"self harm",
	"self-harm",
	"hurt myself",
	"cut",
	"no reason to live",
	"better off dead",
	"overdose",
}

// CrisisKeywords returns a copy of the override set.
func CrisisKeywords() []string {
	out := make([]string, len(crisisKeywords))
	copy(out, crisisKeywords)
	return out
}

// MatchCrisis returns the first keyword found in text, in set order.
func MatchCrisis(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
