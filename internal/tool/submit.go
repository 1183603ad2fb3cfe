package tool

import (
	"context"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

// submit posts a solution. Without a question_id it first creates the
// question; a creation response that yields no ID aborts before the answer
// is posted.
func (t *Tool) submit(ctx context.Context, in Input) Result {
	if len(in.RootCause) < minExplanationLen {
		return failuref("root_cause required (min %d chars)", minExplanationLen)
	}
	if len(in.FixApproach) < minExplanationLen {
		return failuref("fix_approach required (min %d chars)", minExplanationLen)
	}

	questionID := in.QuestionID
	if questionID == "" {
		if in.Title == "" || in.ErrorSignature == "" {
			return failuref("title and error_signature required when not providing question_id")
		}
		id, err := t.api.CreateQuestion(ctx, errorcache.NewQuestion{
			Title:          in.Title,
			ErrorSignature: in.ErrorSignature,
			ErrorCategory:  in.ErrorCategory,
			Environment:    t.detectEnv(),
		})
		if err != nil {
			return failuref("failed to create question: %v", err)
		}
		questionID = id
	}

	answerID, err := t.api.CreateAnswer(ctx, questionID, errorcache.NewAnswer{
		RootCause:       in.RootCause,
		FixApproach:     in.FixApproach,
		PatchOrCommands: in.Commands,
	})
	if err != nil {
		return failuref("failed to submit answer: %v", err)
	}
	if answerID == "" {
		answerID = "unknown"
	}

	return success(map[string]any{
		"message":     "Solution submitted to ErrorCache",
		"question_id": questionID,
		"answer_id":   answerID,
		"link":        errorcache.QuestionsURL + questionID,
	})
}

// verify records a pass/fail/partial outcome for an answer.
func (t *Tool) verify(ctx context.Context, in Input) Result {
	if in.AnswerID == "" {
		return failuref("answer_id is required")
	}
	switch in.Result {
	case errorcache.VerifyPass, errorcache.VerifyFail, errorcache.VerifyPartial:
	default:
		return failuref("result must be pass, fail, or partial")
	}

	err := t.api.Verify(ctx, in.AnswerID, errorcache.NewVerification{
		Result:      in.Result,
		Environment: t.detectEnv(),
		Evidence:    in.Evidence,
	})
	if err != nil {
		return failuref("verification failed: %v", err)
	}

	return success(map[string]any{
		"message":   "Verification recorded: " + in.Result,
		"answer_id": in.AnswerID,
	})
}
