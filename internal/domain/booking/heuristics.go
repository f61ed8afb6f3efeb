package booking

import (
	"strings"
	"unicode"
)

// SuspicionThreshold is the number of independent signals that gets a
// submission rejected and its session blocked.
const SuspicionThreshold = 2

var junkStems = []string{"test", "fake", "spam", "troll"}

var junkEmailStems = []string{"test", "fake", "spam", "troll", "noreply"}

// Score is the outcome of the contact-detail heuristics. Each of name, phone
// and email contributes at most one signal.
type Score struct {
	Count   int
	Reasons []string
}

func (s Score) Suspicious() bool { return s.Count >= SuspicionThreshold }

func (s *Score) add(reason string) {
	s.Count++
	s.Reasons = append(s.Reasons, reason)
}

// ScoreCandidate checks customer supplied fields for the patterns throwaway
// submissions tend to share.
func ScoreCandidate(c Candidate) Score {
	var s Score

	if reason := junkName(strings.TrimSpace(c.CustomerName)); reason != "" {
		s.add(reason)
	}
	if reason := junkPhone(c.CustomerPhone); reason != "" {
		s.add(reason)
	}
	if email := strings.TrimSpace(c.CustomerEmail); email != "" {
		if hasJunkLocalPart(email) {
			s.add("email uses a placeholder address")
		}
	}
	return s
}

func junkName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case name == "":
		return ""
	case singleRepeated(name, 3):
		return "name is one repeated character"
	case hasAnyPrefix(lower, junkStems):
		return "name starts with a placeholder word"
	case allRunes(name, unicode.IsDigit):
		return "name is only digits"
	case len([]rune(name)) >= 3 && allRunes(name, isSymbol):
		return "name is only punctuation"
	}
	return ""
}

func junkPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case len(digits) < 8:
		return "phone has too few digits"
	case singleRepeated(digits, 6):
		return "phone is one repeated digit"
	}
	return ""
}

func hasJunkLocalPart(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	return hasAnyPrefix(strings.ToLower(email[:at]), junkEmailStems)
}

// singleRepeated reports whether s is at least min copies of one rune.
func singleRepeated(s string, min int) bool {
	runes := []rune(s)
	if len(runes) < min {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

// isSymbol is true for anything that is neither a word character nor space.
func isSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && !unicode.IsSpace(r)
}
