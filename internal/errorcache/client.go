// Package errorcache is a thin client for the ErrorCache knowledge-base API.
// The service is best-effort and unreliable: every call carries a hard
// timeout, search failures degrade to empty results, and mutating failures
// surface as error values the caller reports once and never retries.
package errorcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultBaseURL is used when no api_url is configured.
	DefaultBaseURL = "https://api.errorcache.com/api/v1"

	// QuestionsURL is the public site prefix for question links.
	QuestionsURL = "https://errorcache.com/questions/"

	searchTimeout = 5 * time.Second
	mutateTimeout = 10 * time.Second

	maxSignatureLen = 500
	maxQueryLen     = 200
	maxTitleLen     = 300
)

// Client talks to the ErrorCache API over HTTP with bearer auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. An empty apiKey means unauthenticated access.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Per-call contexts carry the timeouts.
		httpClient: &http.Client{},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// getJSON issues a GET and returns the raw response body.
func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// postJSON issues a POST and returns the raw response body. Any 2xx status
// counts as success.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, mutateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return raw, nil
}

// unwrapData peels a {"data": ...} envelope when present. The API wraps most
// responses but some deployments return bare payloads.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return raw
}

func decodeQuestions(raw json.RawMessage) []Question {
	data := unwrapData(raw)

	var questions []Question
	if err := json.Unmarshal(data, &questions); err == nil {
		return questions
	}

	// Full-text search nests the list under "questions".
	var nested struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal(data, &nested); err == nil {
		return nested.Questions
	}
	return nil
}

// SearchSimilar runs a signature-similarity search. It never fails: any
// transport or parse error degrades to an empty result.
func (c *Client) SearchSimilar(ctx context.Context, errorText string, limit int) []Question {
	q := url.Values{}
	q.Set("error_signature", truncateRunesafe(errorText, maxSignatureLen))
	q.Set("limit", strconv.Itoa(limit))

	raw, err := c.getJSON(ctx, "/search/similar?"+q.Encode())
	if err != nil {
		slog.Warn("errorcache similarity search failed", "error", err)
		return nil
	}
	return decodeQuestions(raw)
}

// SearchFullText runs a full-text question search with optional language and
// framework filters. Like SearchSimilar it degrades to empty on any failure.
func (c *Client) SearchFullText(ctx context.Context, query string, limit int, language, framework string) []Question {
	q := url.Values{}
	q.Set("q", truncateRunesafe(query, maxQueryLen))
	q.Set("type", "questions")
	q.Set("limit", strconv.Itoa(limit))
	if language != "" {
		q.Set("language", language)
	}
	if framework != "" {
		q.Set("framework", framework)
	}

	raw, err := c.getJSON(ctx, "/search?"+q.Encode())
	if err != nil {
		slog.Warn("errorcache full-text search failed", "error", err)
		return nil
	}
	return decodeQuestions(raw)
}

type createdEntity struct {
	ID string `json:"id"`
}

// CreateQuestion posts a new question and returns its ID. The returned error
// is a failure marker for the caller's structured result; it is never
// retried.
func (c *Client) CreateQuestion(ctx context.Context, q NewQuestion) (string, error) {
	q.Title = truncateRunesafe(q.Title, maxTitleLen)
	if q.ErrorCategory == "" {
		q.ErrorCategory = "other"
	}

	raw, err := c.postJSON(ctx, "/questions", q)
	if err != nil {
		return "", fmt.Errorf("creating question: %w", err)
	}

	var created createdEntity
	if err := json.Unmarshal(unwrapData(raw), &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("no question ID in response: %s", string(raw))
	}
	return created.ID, nil
}

// CreateAnswer posts an answer under the given question and returns the new
// answer's ID, which may be empty when the service omits it.
func (c *Client) CreateAnswer(ctx context.Context, questionID string, a NewAnswer) (string, error) {
	raw, err := c.postJSON(ctx, "/questions/"+url.PathEscape(questionID)+"/answers", a)
	if err != nil {
		return "", fmt.Errorf("submitting answer: %w", err)
	}

	var created createdEntity
	if err := json.Unmarshal(unwrapData(raw), &created); err != nil {
		return "", nil
	}
	return created.ID, nil
}

// Verify records a verification outcome for an answer.
func (c *Client) Verify(ctx context.Context, answerID string, v NewVerification) error {
	if _, err := c.postJSON(ctx, "/answers/"+url.PathEscape(answerID)+"/verify", v); err != nil {
		return fmt.Errorf("recording verification: %w", err)
	}
	return nil
}

// SubmitQuestionAndAnswer creates a question and immediately answers it,
// reporting overall success. If question creation yields no ID the answer is
// never posted. This is the coarse submission path hosts use when they have
// no existing question reference.
func (c *Client) SubmitQuestionAndAnswer(ctx context.Context, title, errorSignature, rootCause, fixApproach string, env Environment) bool {
	questionID, err := c.CreateQuestion(ctx, NewQuestion{
		Title:          title,
		ErrorSignature: errorSignature,
		ErrorCategory:  "other",
		Environment:    env,
	})
	if err != nil {
		slog.Warn("errorcache question creation failed", "error", err)
		return false
	}

	if _, err := c.CreateAnswer(ctx, questionID, NewAnswer{
		RootCause:   rootCause,
		FixApproach: fixApproach,
	}); err != nil {
		slog.Warn("errorcache answer submission failed", "error", err)
		return false
	}
	return true
}

// truncateRunesafe shortens s to at most maxBytes without splitting UTF-8
// runes.
func truncateRunesafe(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
