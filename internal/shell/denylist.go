package shell

import "strings"

// DefaultDenyPatterns are substrings that block a command outright.
var DefaultDenyPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	"mkfs",
	"dd if=",
	"> /dev/sd",
	"> /dev/",
	":(){ :|:& };:",
}

// DenyList rejects commands containing any of a fixed set of substrings.
// Matching runs on the command with whitespace runs collapsed, so padding
// arguments with extra spaces does not slip past a pattern.
type DenyList struct {
	patterns []string
}

// NewDenyList returns the default patterns plus any extras.
func NewDenyList(extra ...string) *DenyList {
	patterns := make([]string, 0, len(DefaultDenyPatterns)+len(extra))
	patterns = append(patterns, DefaultDenyPatterns...)
	for _, p := range extra {
		if p = normalize(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return &DenyList{patterns: patterns}
}

// Match returns the first pattern found in command.
func (d *DenyList) Match(command string) (string, bool) {
	normalized := normalize(command)
	for _, p := range d.patterns {
		if strings.Contains(normalized, p) {
			return p, true
		}
	}
	return "", false
}

// Patterns returns a copy of the active patterns.
func (d *DenyList) Patterns() []string {
	out := make([]string, len(d.patterns))
	copy(out, d.patterns)
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
