// Package watcher implements the passive ErrorCache hook: it observes tool
// lifecycle events, extracts error text from output, deduplicates errors
// within the session, and injects verified solutions into the agent context
// when the remote service knows the error.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/errorcache/errorcache-go/internal/errorcache"
	"github.com/errorcache/errorcache-go/internal/extract"
	"github.com/errorcache/errorcache-go/internal/hook"
)

const (
	// minOutputLen filters trivially short output before extraction runs.
	minOutputLen = 20
	// searchLimit caps how many solutions one error pulls into context.
	searchLimit = 3
)

// Searcher abstracts the remote similarity search for the watcher.
type Searcher interface {
	SearchSimilar(ctx context.Context, errorText string, limit int) []errorcache.Question
}

// shellTools are the command-execution tools whose output gets scanned even
// when the tool reports success.
var shellTools = map[string]bool{
	"bash":        true,
	"Bash":        true,
	"shell":       true,
	"run_command": true,
}

type trackedError struct {
	errorText string
	toolName  string
}

// Watcher holds the per-session error registry. State lives for one hosting
// session and is discarded with it; nothing is persisted. Handlers may be
// invoked concurrently by the host, so the registry sits behind a mutex.
type Watcher struct {
	client     Searcher
	extractor  *extract.Extractor
	autoSearch bool
	autoSubmit bool
	sessionID  string

	mu      sync.Mutex
	tracked map[string]trackedError
}

// Options configures a Watcher.
type Options struct {
	AutoSearch bool
	AutoSubmit bool
}

// New creates a Watcher for one session.
func New(client Searcher, extractor *extract.Extractor, opts Options) *Watcher {
	if extractor == nil {
		extractor = extract.New(nil)
	}
	w := &Watcher{
		client:     client,
		extractor:  extractor,
		autoSearch: opts.AutoSearch,
		autoSubmit: opts.AutoSubmit,
		sessionID:  uuid.New().String(),
		tracked:    make(map[string]trackedError),
	}
	slog.Debug("errorcache watcher session started", "session_id", w.sessionID)
	return w
}

// Mount registers the watcher's handlers on the host registry and returns a
// cleanup func that unregisters them.
func (w *Watcher) Mount(reg *hook.Registry) func() {
	unregError := reg.Register(hook.EventToolError, "errorcache-tool-error", 10, w.HandleToolError)
	unregPost := reg.Register(hook.EventToolPost, "errorcache-tool-post", 50, w.HandleToolPost)
	return func() {
		unregError()
		unregPost()
	}
}

// HandleToolError reacts to a tool raising an error.
func (w *Watcher) HandleToolError(ctx context.Context, ev hook.Event) hook.Result {
	if !w.autoSearch || ev.Err == nil {
		return hook.Continue()
	}

	errType := ev.Err.Type
	if errType == "" {
		errType = "Error"
	}
	errorText := fmt.Sprintf("%s: %s", errType, ev.Err.Message)

	return w.searchAndInject(ctx, errorText, ev.Tool)
}

// HandleToolPost reacts to a tool completing, possibly successfully. A
// success from a tool with tracked errors is taken as a resolution signal
// for those errors; output of shell tools is additionally scanned for errors
// that hide inside "successful" runs.
func (w *Watcher) HandleToolPost(ctx context.Context, ev hook.Event) hook.Result {
	var output string
	succeeded := true
	if ev.Result != nil {
		output = ev.Result.Text()
		succeeded = ev.Result.Succeeded()
	}

	if w.autoSubmit && succeeded {
		// Same tool now succeeds — the tracked error is likely resolved.
		// No auto-submission happens here: tool output alone carries no
		// root cause, so submission stays with the active tool.
		w.mu.Lock()
		for key, te := range w.tracked {
			if te.toolName == ev.Tool {
				delete(w.tracked, key)
			}
		}
		w.mu.Unlock()
	}

	if !w.autoSearch {
		return hook.Continue()
	}
	if !shellTools[ev.Tool] {
		return hook.Continue()
	}
	if len(output) < minOutputLen {
		return hook.Continue()
	}

	errorText, ok := w.extractor.Extract(output)
	if !ok {
		return hook.Continue()
	}

	return w.searchAndInject(ctx, errorText, ev.Tool)
}

// searchAndInject runs the shared dedup-then-search procedure. A remote
// failure or empty result is indistinguishable here: both continue silently.
func (w *Watcher) searchAndInject(ctx context.Context, errorText, toolName string) hook.Result {
	key := extract.Key(errorText)

	w.mu.Lock()
	if _, seen := w.tracked[key]; seen {
		w.mu.Unlock()
		return hook.Continue()
	}
	w.tracked[key] = trackedError{errorText: errorText, toolName: toolName}
	w.mu.Unlock()

	solutions := w.client.SearchSimilar(ctx, errorText, searchLimit)
	if len(solutions) == 0 {
		return hook.Continue()
	}

	return hook.Result{
		Action:           hook.ActionInjectContext,
		Injection:        formatSolutions(solutions),
		InjectionRole:    "system",
		Ephemeral:        true,
		UserMessage:      fmt.Sprintf("ErrorCache: Found %d verified solution(s)", len(solutions)),
		UserMessageLevel: "info",
	}
}

// TrackedCount returns how many unresolved errors the session is tracking.
func (w *Watcher) TrackedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tracked)
}
