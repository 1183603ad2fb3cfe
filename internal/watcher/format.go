package watcher

import (
	"fmt"
	"strings"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

// formatSolutions renders up to searchLimit questions as a context block the
// host injects ahead of the agent's next turn.
func formatSolutions(solutions []errorcache.Question) string {
	lines := []string{
		"## ErrorCache: Verified Solutions Found",
		"",
		fmt.Sprintf("Found %d solution(s) for this error.", len(solutions)),
		"Review these before debugging independently:",
		"",
	}

	if len(solutions) > searchLimit {
		solutions = solutions[:searchLimit]
	}

	for i, q := range solutions {
		title := q.Title
		if title == "" {
			title = "Untitled"
		}
		status := q.Status
		if status == "" {
			status = "open"
		}

		lines = append(lines, fmt.Sprintf("### [%d] %s", i+1, title))
		lines = append(lines, fmt.Sprintf("Status: %s | Answers: %d | Verifications: %d",
			status, q.AnswerCount, q.VerificationCount))

		if ba := q.BestAnswer; ba != nil {
			if ba.RootCause != "" {
				lines = append(lines, "Root cause: "+ba.RootCause)
			}
			if ba.FixApproach != "" {
				lines = append(lines, "Fix: "+ba.FixApproach)
			}
			if len(ba.PatchOrCommands) > 0 {
				lines = append(lines, "Commands: "+strings.Join(ba.PatchOrCommands, " && "))
			}
		}

		if q.ID != "" {
			lines = append(lines, "Link: "+errorcache.QuestionsURL+q.ID)
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"If you apply one of these fixes, use `errorcache verify_solution` to confirm it worked.")

	return strings.Join(lines, "\n")
}
