package tool

import (
	"context"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

// Search method labels reported in search output.
const (
	methodSignature = "signature"
	methodCombined  = "signature+fulltext"
)

// search runs the two-phase lookup: signature similarity first, then a
// full-text fallback for the remaining capacity. Phase-2 results that share
// an ID with a phase-1 result are dropped; phase-1 ordering is preserved.
func (t *Tool) search(ctx context.Context, in Input) Result {
	if len(in.ErrorMessage) < minErrorMessageLen {
		return failuref("error_message is required (min %d chars)", minErrorMessageLen)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	questions := t.api.SearchSimilar(ctx, in.ErrorMessage, limit)
	method := methodSignature

	if len(questions) < limit {
		method = methodCombined
		remaining := limit - len(questions)

		seen := make(map[string]bool, len(questions))
		for _, q := range questions {
			seen[q.ID] = true
		}

		for _, q := range t.api.SearchFullText(ctx, in.ErrorMessage, remaining, in.Language, in.Framework) {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			questions = append(questions, q)
		}
	}

	if len(questions) == 0 {
		return success(map[string]any{
			"message":       "No solutions found",
			"search_method": method,
			"suggestion":    "Use submit_solution to share if you solve this error",
		})
	}

	if len(questions) > limit {
		questions = questions[:limit]
	}

	formatted := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		formatted = append(formatted, formatQuestion(q))
	}

	return success(map[string]any{
		"results":       formatted,
		"count":         len(formatted),
		"search_method": method,
	})
}

func formatQuestion(q errorcache.Question) map[string]any {
	entry := map[string]any{
		"id":                 q.ID,
		"title":              q.Title,
		"status":             q.Status,
		"answer_count":       q.AnswerCount,
		"verification_count": q.VerificationCount,
		"link":               errorcache.QuestionsURL + q.ID,
	}
	if ba := q.BestAnswer; ba != nil {
		entry["best_answer"] = map[string]any{
			"id":                 ba.ID,
			"root_cause":         ba.RootCause,
			"fix_approach":       ba.FixApproach,
			"commands":           ba.PatchOrCommands,
			"verification_count": ba.VerificationCount,
			"success_rate":       ba.SuccessRate,
		}
	}
	return entry
}
