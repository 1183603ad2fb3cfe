package hook

import (
	"context"
	"sort"
	"sync"
)

// Handler processes one event and returns a structured action.
type Handler func(ctx context.Context, ev Event) Result

type registration struct {
	name     string
	priority int
	seq      int
	handler  Handler
}

// Registry holds prioritized handlers per event name. Hosts dispatch events
// through it; plugins register handlers on mount and unregister on unmount.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	nextSeq  int
	handlers map[string][]registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]registration)}
}

// Register adds a handler for the named event. Lower priority runs first;
// equal priorities run in registration order. The returned func unregisters
// the handler.
func (r *Registry) Register(event, name string, priority int, h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := r.nextSeq
	r.nextSeq++
	r.handlers[event] = append(r.handlers[event], registration{
		name:     name,
		priority: priority,
		seq:      seq,
		handler:  h,
	})
	sort.SliceStable(r.handlers[event], func(i, j int) bool {
		a, b := r.handlers[event][i], r.handlers[event][j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		regs := r.handlers[event]
		for i, reg := range regs {
			if reg.seq == seq {
				r.handlers[event] = append(regs[:i:i], regs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch invokes all handlers registered for ev.Name in priority order and
// returns their results in invocation order.
func (r *Registry) Dispatch(ctx context.Context, ev Event) []Result {
	r.mu.Lock()
	regs := make([]registration, len(r.handlers[ev.Name]))
	copy(regs, r.handlers[ev.Name])
	r.mu.Unlock()

	results := make([]Result, 0, len(regs))
	for _, reg := range regs {
		results = append(results, reg.handler(ctx, ev))
	}
	return results
}
