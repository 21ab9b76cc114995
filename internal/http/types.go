package http

// AskRequest is the request body for POST /api/ask.
type AskRequest struct {
	// Query is the user's question. Required.
	Query string `json:"query"`

	// SystemMessage optionally overrides the default answer instruction.
	SystemMessage string `json:"systemMessage,omitempty"`
}

// AskResponse is the response body for POST /api/ask.
type AskResponse struct {
	// Answer is the generated answer, or a fixed message for the blocked
	// and not-found outcomes.
	Answer string `json:"answer"`

	// Chunks are the retrieved context chunks backing the answer, highest
	// relevance first. Empty for blocked and not-found outcomes.
	Chunks []string `json:"chunks"`

	// Blocked is true when the guardrail rejected the query.
	Blocked bool `json:"blocked"`
}

// ReviewRequest is the request body for POST /api/review.
type ReviewRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
