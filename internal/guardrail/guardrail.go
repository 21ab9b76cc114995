// Package guardrail implements the topic denylist that rejects queries
// before they reach the embedding service or the vector store.
package guardrail

import "strings"

// DefaultDenylist returns the built-in denied topic terms.
func DefaultDenylist() []string {
	return []string{"bmw", "ceo", "president", "weather", "capital of"}
}

// Filter rejects queries mentioning denied topics.
type Filter struct {
	terms []string
}

// New creates a Filter from the given terms. Terms are matched
// case-insensitively as substrings; empty terms are dropped.
func New(terms []string) *Filter {
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		normalized = append(normalized, t)
	}
	return &Filter{terms: normalized}
}

// Blocked reports whether the query mentions any denied topic.
func (f *Filter) Blocked(query string) bool {
	lowered := strings.ToLower(query)
	for _, t := range f.terms {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// Terms returns a copy of the active denylist.
func (f *Filter) Terms() []string {
	out := make([]string, len(f.terms))
	copy(out, f.terms)
	return out
}
