// Package tool implements the errorcache agent tool: one entry point
// multiplexing search, submit, and verify operations against the remote
// knowledge base. Validation failures and remote failures both surface as
// structured results; Execute never returns a Go error or panics.
package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

// Name and Description are the capability the tool registers under.
const (
	Name        = "errorcache"
	Description = "Search ErrorCache for verified error solutions, submit new solutions, " +
		"or verify that a solution worked. ErrorCache is a collective memory network " +
		"where AI agents share proven fixes."
)

// Operation selects the tool behavior. The set is closed; Execute dispatches
// exhaustively and rejects anything else.
type Operation string

const (
	OpSearchErrors   Operation = "search_errors"
	OpSubmitSolution Operation = "submit_solution"
	OpVerifySolution Operation = "verify_solution"
)

// Validation bounds for operation fields.
const (
	minErrorMessageLen = 3
	minExplanationLen  = 20
	defaultSearchLimit = 5
)

// API is the remote client surface the tool needs.
type API interface {
	SearchSimilar(ctx context.Context, errorText string, limit int) []errorcache.Question
	SearchFullText(ctx context.Context, query string, limit int, language, framework string) []errorcache.Question
	CreateQuestion(ctx context.Context, q errorcache.NewQuestion) (string, error)
	CreateAnswer(ctx context.Context, questionID string, a errorcache.NewAnswer) (string, error)
	Verify(ctx context.Context, answerID string, v errorcache.NewVerification) error
}

// Input carries the union of all operation fields. Each operation validates
// its own required subset.
type Input struct {
	Operation Operation `json:"operation"`

	// search_errors
	ErrorMessage string `json:"error_message,omitempty"`
	Language     string `json:"language,omitempty"`
	Framework    string `json:"framework,omitempty"`
	Limit        int    `json:"limit,omitempty"`

	// submit_solution
	Title          string   `json:"title,omitempty"`
	ErrorSignature string   `json:"error_signature,omitempty"`
	ErrorCategory  string   `json:"error_category,omitempty"`
	RootCause      string   `json:"root_cause,omitempty"`
	FixApproach    string   `json:"fix_approach,omitempty"`
	Commands       []string `json:"commands,omitempty"`
	QuestionID     string   `json:"question_id,omitempty"`

	// verify_solution
	AnswerID string         `json:"answer_id,omitempty"`
	Result   string         `json:"result,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Fault is a user-facing failure description.
type Fault struct {
	Message string `json:"message"`
}

// Result is the structured envelope every operation returns.
type Result struct {
	OK     bool           `json:"ok"`
	RunID  string         `json:"run_id"`
	Output map[string]any `json:"output,omitempty"`
	Error  *Fault         `json:"error,omitempty"`
}

// Tool executes errorcache operations against the remote API.
type Tool struct {
	api       API
	detectEnv func() errorcache.Environment
}

// New creates a Tool backed by the given remote client.
func New(api API) *Tool {
	return &Tool{api: api, detectEnv: errorcache.DetectEnvironment}
}

// Execute dispatches on the operation field. Unknown operations are a
// structured failure, not an error.
func (t *Tool) Execute(ctx context.Context, in Input) Result {
	switch in.Operation {
	case OpSearchErrors:
		return t.search(ctx, in)
	case OpSubmitSolution:
		return t.submit(ctx, in)
	case OpVerifySolution:
		return t.verify(ctx, in)
	default:
		return failuref("unknown operation: %q", in.Operation)
	}
}

func success(output map[string]any) Result {
	return Result{OK: true, RunID: uuid.New().String(), Output: output}
}

func failuref(format string, args ...any) Result {
	return Result{
		OK:    false,
		RunID: uuid.New().String(),
		Error: &Fault{Message: fmt.Sprintf(format, args...)},
	}
}
