// Package guardrail decides whether free-text task input may reach plan
// generation. The check is a denylist heuristic for casual task text, not a
// security boundary.
package guardrail

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// Rules is a versioned rule table. A zero MaxLength disables the length check.
type Rules struct {
	Version   string   `yaml:"version"`
	MaxLength int      `yaml:"max_length"`
	Denylist  []string `yaml:"denylist"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	return Rules{
		Version:   "builtin-1",
		MaxLength: 240,
		Denylist: []string{
			// instruction override
			"ignore previous",
			"system prompt",
			"prompt injection",
			"jailbreak",
			"bypass",
			// destructive / system commands
			"sudo",
			"rm -rf",
			"delete",
			"hack",
			// violence
			"violent",
			"weapon",
			// explicit content
			"sex",
			"nsfw",
		},
	}
}

// Reason names the rule that blocked an input. It is for logs only.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonEmpty     Reason = "empty"
	ReasonTooLong   Reason = "too_long"
	ReasonDenylist  Reason = "denylist"
	ReasonCodeShape Reason = "code_shape"
)

type Verdict struct {
	Blocked bool
	Reason  Reason
	// Match is the denylist entry that hit, if any.
	Match string
}

// Check classifies text against rules.
func (r Rules) Check(text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{Blocked: true, Reason: ReasonEmpty}
	}
	if r.MaxLength > 0 && utf8.RuneCountInString(text) > r.MaxLength {
		return Verdict{Blocked: true, Reason: ReasonTooLong}
	}
	lowered := strings.ToLower(text)
	for _, term := range r.Denylist {
		if term != "" && strings.Contains(lowered, term) {
			return Verdict{Blocked: true, Reason: ReasonDenylist, Match: term}
		}
	}
	if strings.Contains(text, ";") && strings.Contains(text, "{") {
		return Verdict{Blocked: true, Reason: ReasonCodeShape}
	}
	return Verdict{}
}

// Filter holds the active rule table. Rules can be swapped while requests
// are being checked.
type Filter struct {
	rules atomic.Pointer[Rules]
}

func NewFilter(rules Rules) *Filter {
	f := &Filter{}
	f.SetRules(rules)
	return f
}

// SetRules replaces the active table. Denylist entries are lower-cased.
func (f *Filter) SetRules(rules Rules) {
	normalized := rules
	normalized.Denylist = make([]string, 0, len(rules.Denylist))
	for _, term := range rules.Denylist {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			normalized.Denylist = append(normalized.Denylist, term)
		}
	}
	f.rules.Store(&normalized)
}

func (f *Filter) Rules() Rules {
	return *f.rules.Load()
}

func (f *Filter) Check(text string) Verdict {
	return f.rules.Load().Check(text)
}

func (f *Filter) IsBlocked(text string) bool {
	return f.Check(text).Blocked
}

var defaultFilter = NewFilter(DefaultRules())

// IsBlocked checks text against the built-in rules.
func IsBlocked(text string) bool {
	return defaultFilter.IsBlocked(text)
}
