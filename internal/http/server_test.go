package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxsylabs/ragd/internal/llm"
	"github.com/doxsylabs/ragd/internal/retriever"
)

// stubRetriever returns a canned result or error.
type stubRetriever struct {
	result retriever.Result
	err    error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string) (retriever.Result, error) {
	return s.result, s.err
}

// stubCompleter records the inputs it was called with.
type stubCompleter struct {
	answer      string
	review      llm.Review
	err         error
	gotSystem   string
	gotChunks   []string
	gotQuestion string
	answerCalls int
	reviewCalls int
}

func (s *stubCompleter) Answer(_ context.Context, systemMessage string, contextChunks []string, question string) (string, error) {
	s.answerCalls++
	s.gotSystem = systemMessage
	s.gotChunks = contextChunks
	s.gotQuestion = question
	return s.answer, s.err
}

func (s *stubCompleter) Review(_ context.Context, _, _ string) (llm.Review, error) {
	s.reviewCalls++
	return s.review, s.err
}

func newTestServer(t *testing.T, ret ContextRetriever, completer Completer) *Server {
	t.Helper()
	srv, err := NewServer(ret, completer, Config{}, nil)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleAsk_Answered(t *testing.T) {
	ret := &stubRetriever{result: retriever.Result{Chunks: []string{"chunk a", "chunk b"}}}
	completer := &stubCompleter{answer: "The answer."}
	srv := newTestServer(t, ret, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "what is the policy?"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The answer.", resp.Answer)
	assert.Equal(t, []string{"chunk a", "chunk b"}, resp.Chunks)
	assert.False(t, resp.Blocked)

	assert.Equal(t, []string{"chunk a", "chunk b"}, completer.gotChunks)
	assert.Equal(t, "what is the policy?", completer.gotQuestion)
	assert.Empty(t, completer.gotSystem)
}

func TestHandleAsk_SystemMessagePassthrough(t *testing.T) {
	ret := &stubRetriever{result: retriever.Result{Chunks: []string{"chunk"}}}
	completer := &stubCompleter{answer: "ok"}
	srv := newTestServer(t, ret, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "q?", "systemMessage": "Answer in French."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Answer in French.", completer.gotSystem)
}

func TestHandleAsk_Blocked(t *testing.T) {
	ret := &stubRetriever{result: retriever.Result{Blocked: true}}
	completer := &stubCompleter{}
	srv := newTestServer(t, ret, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "tell me about bmw"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Blocked)
	assert.Equal(t, blockedAnswer, resp.Answer)
	assert.Empty(t, resp.Chunks)
	assert.Zero(t, completer.answerCalls)
}

func TestHandleAsk_NoMatch(t *testing.T) {
	ret := &stubRetriever{result: retriever.Result{NoMatch: true}}
	completer := &stubCompleter{}
	srv := newTestServer(t, ret, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "unknown topic"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, noMatchAnswer, resp.Answer)
	assert.Empty(t, resp.Chunks)
	assert.False(t, resp.Blocked)
	assert.Zero(t, completer.answerCalls)
}

func TestHandleAsk_MissingQuery(t *testing.T) {
	srv := newTestServer(t, &stubRetriever{}, &stubCompleter{})

	for _, body := range []string{`{}`, `{"query": ""}`} {
		rec := doJSON(t, srv, http.MethodPost, "/api/ask", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "query is required")
	}
}

func TestHandleAsk_MalformedBody(t *testing.T) {
	srv := newTestServer(t, &stubRetriever{}, &stubCompleter{})

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAsk_RetrievalFailure(t *testing.T) {
	ret := &stubRetriever{err: errors.New("mongo connection refused")}
	srv := newTestServer(t, ret, &stubCompleter{})

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "q?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Backend details never leak to the client.
	assert.NotContains(t, rec.Body.String(), "mongo")
}

func TestHandleAsk_CompletionFailure(t *testing.T) {
	ret := &stubRetriever{result: retriever.Result{Chunks: []string{"chunk"}}}
	completer := &stubCompleter{err: errors.New("model overloaded")}
	srv := newTestServer(t, ret, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "q?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "overloaded")
}

func TestHandleReview(t *testing.T) {
	completer := &stubCompleter{review: llm.Review{AIGenerated: "Yes", Works: "No", Explanation: "Looks off."}}
	srv := newTestServer(t, &stubRetriever{}, completer)

	rec := doJSON(t, srv, http.MethodPost, "/api/review", `{"language": "go", "code": "func main() {}"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp llm.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Yes", resp.AIGenerated)
	assert.Equal(t, 1, completer.reviewCalls)
}

func TestHandleReview_MissingCode(t *testing.T) {
	srv := newTestServer(t, &stubRetriever{}, &stubCompleter{})

	rec := doJSON(t, srv, http.MethodPost, "/api/review", `{"language": "go"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &stubRetriever{}, &stubCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(t, &stubRetriever{result: retriever.Result{Blocked: true}}, &stubCompleter{})

	doJSON(t, srv, http.MethodPost, "/api/ask", `{"query": "blocked topic"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ragd_ask_requests_total")
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, &stubCompleter{}, Config{}, nil)
	assert.Error(t, err)

	_, err = NewServer(&stubRetriever{}, nil, Config{}, nil)
	assert.Error(t, err)
}
