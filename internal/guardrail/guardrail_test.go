package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocked(t *testing.T) {
	f := New(DefaultDenylist())

	tests := []struct {
		name    string
		query   string
		blocked bool
	}{
		{
			name:    "exact term",
			query:   "tell me about bmw",
			blocked: true,
		},
		{
			name:    "case insensitive",
			query:   "Who is the CEO of the company?",
			blocked: true,
		},
		{
			name:    "term inside a word",
			query:   "is the weathervane pointing north",
			blocked: true,
		},
		{
			name:    "multi-word term",
			query:   "what is the Capital Of France",
			blocked: true,
		},
		{
			name:    "unrelated query",
			query:   "what is the return policy",
			blocked: false,
		},
		{
			name:    "empty query",
			query:   "",
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, f.Blocked(tt.query))
		})
	}
}

func TestNew_NormalizesTerms(t *testing.T) {
	f := New([]string{"  BMW  ", "", "Weather"})

	assert.Equal(t, []string{"bmw", "weather"}, f.Terms())
	assert.True(t, f.Blocked("weather report"))
}

func TestBlocked_EmptyDenylist(t *testing.T) {
	f := New(nil)

	assert.False(t, f.Blocked("anything at all"))
}

func TestTerms_ReturnsCopy(t *testing.T) {
	f := New([]string{"bmw"})

	terms := f.Terms()
	terms[0] = "mutated"

	assert.Equal(t, []string{"bmw"}, f.Terms())
}
