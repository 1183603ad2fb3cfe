package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

// mockAPI records every call and serves canned responses.
type mockAPI struct {
	similar  []errorcache.Question
	fulltext []errorcache.Question

	similarCalls  []searchCall
	fulltextCalls []searchCall

	createdQuestions []errorcache.NewQuestion
	createdAnswers   []answerCall
	verifications    []verifyCall

	questionID  string
	questionErr error
	answerID    string
	answerErr   error
	verifyErr   error
}

type searchCall struct {
	query               string
	limit               int
	language, framework string
}

type answerCall struct {
	questionID string
	answer     errorcache.NewAnswer
}

type verifyCall struct {
	answerID     string
	verification errorcache.NewVerification
}

func (m *mockAPI) SearchSimilar(_ context.Context, errorText string, limit int) []errorcache.Question {
	m.similarCalls = append(m.similarCalls, searchCall{query: errorText, limit: limit})
	return m.similar
}

func (m *mockAPI) SearchFullText(_ context.Context, query string, limit int, language, framework string) []errorcache.Question {
	m.fulltextCalls = append(m.fulltextCalls, searchCall{query: query, limit: limit, language: language, framework: framework})
	return m.fulltext
}

func (m *mockAPI) CreateQuestion(_ context.Context, q errorcache.NewQuestion) (string, error) {
	m.createdQuestions = append(m.createdQuestions, q)
	return m.questionID, m.questionErr
}

func (m *mockAPI) CreateAnswer(_ context.Context, questionID string, a errorcache.NewAnswer) (string, error) {
	m.createdAnswers = append(m.createdAnswers, answerCall{questionID: questionID, answer: a})
	return m.answerID, m.answerErr
}

func (m *mockAPI) Verify(_ context.Context, answerID string, v errorcache.NewVerification) error {
	m.verifications = append(m.verifications, verifyCall{answerID: answerID, verification: v})
	return m.verifyErr
}

func question(id string) errorcache.Question {
	return errorcache.Question{ID: id, Title: "Question " + id, Status: "solved"}
}

func questions(ids ...string) []errorcache.Question {
	qs := make([]errorcache.Question, 0, len(ids))
	for _, id := range ids {
		qs = append(qs, question(id))
	}
	return qs
}

func resultIDs(t *testing.T, res Result) []string {
	t.Helper()
	raw, ok := res.Output["results"].([]map[string]any)
	require.True(t, ok, "results missing or mis-typed: %#v", res.Output)
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		ids = append(ids, entry["id"].(string))
	}
	return ids
}

func TestExecute_UnknownOperation(t *testing.T) {
	tl := New(&mockAPI{})

	res := tl.Execute(context.Background(), Input{Operation: "drop_table"})

	require.False(t, res.OK)
	assert.Equal(t, `unknown operation: "drop_table"`, res.Error.Message)
	assert.NotEmpty(t, res.RunID)
}

func TestSearch_ValidatesErrorMessage(t *testing.T) {
	tl := New(&mockAPI{})

	for _, msg := range []string{"", "ab"} {
		res := tl.Execute(context.Background(), Input{Operation: OpSearchErrors, ErrorMessage: msg})
		require.False(t, res.OK, "message %q should fail validation", msg)
		assert.Contains(t, res.Error.Message, "error_message is required")
	}
}

func TestSearch_SignatureFillsLimit(t *testing.T) {
	api := &mockAPI{similar: questions("a", "b", "c")}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:    OpSearchErrors,
		ErrorMessage: "TypeError: cannot read properties of undefined",
		Limit:        3,
	})

	require.True(t, res.OK)
	assert.Equal(t, "signature", res.Output["search_method"])
	assert.Equal(t, 3, res.Output["count"])
	assert.Equal(t, []string{"a", "b", "c"}, resultIDs(t, res))
	assert.Empty(t, api.fulltextCalls, "full limit reached, no fallback expected")
}

func TestSearch_FullTextFallbackMergesAndDedups(t *testing.T) {
	api := &mockAPI{
		similar:  questions("a", "b"),
		fulltext: questions("b", "c", "d"),
	}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:    OpSearchErrors,
		ErrorMessage: "ECONNREFUSED connecting to localhost:5432",
		Language:     "go",
		Framework:    "chi",
		Limit:        4,
	})

	require.True(t, res.OK)
	assert.Equal(t, "signature+fulltext", res.Output["search_method"])
	assert.Equal(t, []string{"a", "b", "c", "d"}, resultIDs(t, res),
		"phase-1 order first, duplicate b dropped")

	require.Len(t, api.fulltextCalls, 1)
	call := api.fulltextCalls[0]
	assert.Equal(t, 2, call.limit, "fallback asks only for remaining capacity")
	assert.Equal(t, "go", call.language)
	assert.Equal(t, "chi", call.framework)
}

func TestSearch_DefaultLimit(t *testing.T) {
	api := &mockAPI{}
	tl := New(api)

	tl.Execute(context.Background(), Input{Operation: OpSearchErrors, ErrorMessage: "segfault"})

	require.Len(t, api.similarCalls, 1)
	assert.Equal(t, 5, api.similarCalls[0].limit)
}

func TestSearch_NoResults(t *testing.T) {
	tl := New(&mockAPI{})

	res := tl.Execute(context.Background(), Input{
		Operation:    OpSearchErrors,
		ErrorMessage: "never-seen-anywhere error",
	})

	require.True(t, res.OK, "an empty knowledge base is not a failure")
	assert.Equal(t, "No solutions found", res.Output["message"])
	assert.Contains(t, res.Output["suggestion"], "submit_solution")
}

func TestSearch_TruncatesOverfullMerge(t *testing.T) {
	api := &mockAPI{
		similar:  questions("a"),
		fulltext: questions("b", "c", "d"),
	}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:    OpSearchErrors,
		ErrorMessage: "panic: runtime error",
		Limit:        2,
	})

	require.True(t, res.OK)
	assert.Equal(t, []string{"a", "b"}, resultIDs(t, res))
}

func TestSearch_FormatsBestAnswer(t *testing.T) {
	q := question("q9")
	q.BestAnswer = &errorcache.Answer{
		ID:              "ans1",
		RootCause:       "stale lockfile",
		FixApproach:     "regenerate and reinstall",
		PatchOrCommands: []string{"rm package-lock.json", "npm install"},
		SuccessRate:     0.92,
	}
	tl := New(&mockAPI{similar: []errorcache.Question{q}})

	res := tl.Execute(context.Background(), Input{
		Operation:    OpSearchErrors,
		ErrorMessage: "npm ERR! code ERESOLVE",
	})

	require.True(t, res.OK)
	entry := res.Output["results"].([]map[string]any)[0]
	assert.Equal(t, errorcache.QuestionsURL+"q9", entry["link"])
	best := entry["best_answer"].(map[string]any)
	assert.Equal(t, "stale lockfile", best["root_cause"])
	assert.Equal(t, 0.92, best["success_rate"])
}

func TestSubmit_ValidatesExplanations(t *testing.T) {
	tl := New(&mockAPI{})

	res := tl.Execute(context.Background(), Input{Operation: OpSubmitSolution, RootCause: "short"})
	require.False(t, res.OK)
	assert.Contains(t, res.Error.Message, "root_cause required")

	res = tl.Execute(context.Background(), Input{
		Operation:   OpSubmitSolution,
		RootCause:   "a root cause explanation long enough",
		FixApproach: "brief",
	})
	require.False(t, res.OK)
	assert.Contains(t, res.Error.Message, "fix_approach required")
}

func TestSubmit_RequiresTitleAndSignature(t *testing.T) {
	tl := New(&mockAPI{})

	res := tl.Execute(context.Background(), Input{
		Operation:   OpSubmitSolution,
		RootCause:   "a root cause explanation long enough",
		FixApproach: "a fix approach explanation long enough",
	})

	require.False(t, res.OK)
	assert.Contains(t, res.Error.Message, "title and error_signature required")
}

func TestSubmit_CreatesQuestionThenAnswer(t *testing.T) {
	api := &mockAPI{questionID: "q42", answerID: "a7"}
	tl := New(api)
	tl.detectEnv = func() errorcache.Environment {
		return errorcache.Environment{OS: "linux", Runtime: "go"}
	}

	res := tl.Execute(context.Background(), Input{
		Operation:      OpSubmitSolution,
		Title:          "ImportError on fresh checkout",
		ErrorSignature: "ImportError: cannot import name 'settings'",
		ErrorCategory:  "dependency",
		RootCause:      "the package layout changed between releases",
		FixApproach:    "import from the new module path instead",
		Commands:       []string{"pip install -U mypkg"},
	})

	require.True(t, res.OK)
	assert.Equal(t, "Solution submitted to ErrorCache", res.Output["message"])
	assert.Equal(t, "q42", res.Output["question_id"])
	assert.Equal(t, "a7", res.Output["answer_id"])
	assert.Equal(t, errorcache.QuestionsURL+"q42", res.Output["link"])

	require.Len(t, api.createdQuestions, 1)
	q := api.createdQuestions[0]
	assert.Equal(t, "dependency", q.ErrorCategory)
	assert.Equal(t, "linux", q.Environment.OS)

	require.Len(t, api.createdAnswers, 1)
	assert.Equal(t, "q42", api.createdAnswers[0].questionID)
	assert.Equal(t, []string{"pip install -U mypkg"}, api.createdAnswers[0].answer.PatchOrCommands)
}

func TestSubmit_ExistingQuestionSkipsCreation(t *testing.T) {
	api := &mockAPI{answerID: "a1"}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:   OpSubmitSolution,
		QuestionID:  "q-existing",
		RootCause:   "a root cause explanation long enough",
		FixApproach: "a fix approach explanation long enough",
	})

	require.True(t, res.OK)
	assert.Empty(t, api.createdQuestions)
	require.Len(t, api.createdAnswers, 1)
	assert.Equal(t, "q-existing", api.createdAnswers[0].questionID)
}

func TestSubmit_CreateQuestionFailure(t *testing.T) {
	api := &mockAPI{questionErr: errors.New("status 503")}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:      OpSubmitSolution,
		Title:          "a title",
		ErrorSignature: "a signature",
		RootCause:      "a root cause explanation long enough",
		FixApproach:    "a fix approach explanation long enough",
	})

	require.False(t, res.OK)
	assert.Equal(t, "failed to create question: status 503", res.Error.Message)
	assert.Empty(t, api.createdAnswers, "answer must not be posted without a question")
}

func TestSubmit_CreateAnswerFailure(t *testing.T) {
	api := &mockAPI{answerErr: fmt.Errorf("status 400")}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:   OpSubmitSolution,
		QuestionID:  "q1",
		RootCause:   "a root cause explanation long enough",
		FixApproach: "a fix approach explanation long enough",
	})

	require.False(t, res.OK)
	assert.Equal(t, "failed to submit answer: status 400", res.Error.Message)
}

func TestSubmit_UnknownAnswerIDFallback(t *testing.T) {
	api := &mockAPI{answerID: ""}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation:   OpSubmitSolution,
		QuestionID:  "q1",
		RootCause:   "a root cause explanation long enough",
		FixApproach: "a fix approach explanation long enough",
	})

	require.True(t, res.OK)
	assert.Equal(t, "unknown", res.Output["answer_id"])
}

func TestVerify_Validation(t *testing.T) {
	tl := New(&mockAPI{})

	res := tl.Execute(context.Background(), Input{Operation: OpVerifySolution, Result: "pass"})
	require.False(t, res.OK)
	assert.Equal(t, "answer_id is required", res.Error.Message)

	res = tl.Execute(context.Background(), Input{Operation: OpVerifySolution, AnswerID: "a1", Result: "maybe"})
	require.False(t, res.OK)
	assert.Equal(t, "result must be pass, fail, or partial", res.Error.Message)
}

func TestVerify_RecordsOutcome(t *testing.T) {
	api := &mockAPI{}
	tl := New(api)
	tl.detectEnv = func() errorcache.Environment {
		return errorcache.Environment{OS: "darwin"}
	}

	res := tl.Execute(context.Background(), Input{
		Operation: OpVerifySolution,
		AnswerID:  "a3",
		Result:    errorcache.VerifyPartial,
		Evidence:  map[string]any{"exit_code": 0},
	})

	require.True(t, res.OK)
	assert.Equal(t, "Verification recorded: partial", res.Output["message"])
	assert.Equal(t, "a3", res.Output["answer_id"])

	require.Len(t, api.verifications, 1)
	v := api.verifications[0]
	assert.Equal(t, "a3", v.answerID)
	assert.Equal(t, "partial", v.verification.Result)
	assert.Equal(t, "darwin", v.verification.Environment.OS)
	assert.Equal(t, map[string]any{"exit_code": 0}, v.verification.Evidence)
}

func TestVerify_RemoteFailure(t *testing.T) {
	api := &mockAPI{verifyErr: errors.New("status 404")}
	tl := New(api)

	res := tl.Execute(context.Background(), Input{
		Operation: OpVerifySolution,
		AnswerID:  "a404",
		Result:    errorcache.VerifyFail,
	})

	require.False(t, res.OK)
	assert.Equal(t, "verification failed: status 404", res.Error.Message)
}
