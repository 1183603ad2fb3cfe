package hook

// Action tells the host what to do with a handler's result.
type Action string

const (
	// ActionContinue means the handler has nothing to add.
	ActionContinue Action = "continue"
	// ActionInjectContext asks the host to place Injection into the agent's
	// context.
	ActionInjectContext Action = "inject_context"
)

// Result is the structured action a hook handler returns. No handler outcome
// is fatal to the host; a failed handler degrades to Continue().
type Result struct {
	Action Action
	// Injection is the context text to inject when Action is
	// ActionInjectContext.
	Injection string
	// InjectionRole is the role the injected text is attributed to.
	InjectionRole string
	// Ephemeral marks the injection as valid for the current turn only.
	Ephemeral bool
	// UserMessage is a short operator-visible line accompanying the injection.
	UserMessage string
	// UserMessageLevel is the display level for UserMessage (e.g. "info").
	UserMessageLevel string
}

// Continue returns the no-op result.
func Continue() Result {
	return Result{Action: ActionContinue}
}
