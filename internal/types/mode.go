package types

import (
	"fmt"
	"strings"
)

// Mode is the analysis variant selected by the user
type Mode string

const (
	ModePlagiarism   Mode = "plagiarism"
	ModeDoppelganger Mode = "doppelganger"
)

// DefaultMode is used until the user picks one
const DefaultMode = ModePlagiarism

// Modes lists every mode in selector order
var Modes = []Mode{ModePlagiarism, ModeDoppelganger}

// ParseMode converts user input into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePlagiarism:
		return ModePlagiarism, nil
	case ModeDoppelganger:
		return ModeDoppelganger, nil
	default:
		return "", fmt.Errorf("unknown mode %q (use %q or %q)", s, ModePlagiarism, ModeDoppelganger)
	}
}

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	return m == ModePlagiarism || m == ModeDoppelganger
}

// Toggle returns the other mode
func (m Mode) Toggle() Mode {
	if m == ModeDoppelganger {
		return ModePlagiarism
	}
	return ModeDoppelganger
}

// Label is the selector title shown to the user
func (m Mode) Label() string {
	switch m {
	case ModePlagiarism:
		return "Near-duplicate texts"
	case ModeDoppelganger:
		return "Conceptual twins"
	default:
		return string(m)
	}
}

// Hint is the one-line selector description
func (m Mode) Hint() string {
	switch m {
	case ModePlagiarism:
		return "Check for highly similar wording and overlapping passages."
	case ModeDoppelganger:
		return "Find papers that share the same core idea, even if the wording is different."
	default:
		return ""
	}
}

// ActionLabel is the submit label, which changes while a request is running
func (m Mode) ActionLabel(loading bool) string {
	if m == ModePlagiarism {
		if loading {
			return "Scanning for near-duplicates…"
		}
		return "Scan for near-duplicates"
	}
	if loading {
		return "Searching for conceptual twins…"
	}
	return "Discover conceptual twins"
}
