package domain

import (
	"slices"
	"time"
)

const (
	// DefaultDebounce is the debounce window applied when a register command omits it.
	DefaultDebounce = 400 * time.Millisecond
	// DefaultCwd is the working directory applied when a register command omits it.
	DefaultCwd = "."
)

// RegisterOptions describes a watch session requested by a caller.
type RegisterOptions struct {
	// UID identifies the session. It must be unique among active sessions.
	UID uint64
	// Cwd is the directory relative patterns are resolved against.
	Cwd string
	// Debounce is the trailing-edge window used to coalesce raw notifications.
	Debounce time.Duration
	// WatchFor is the interest filter. An empty filter never matches.
	WatchFor []EventType
	// Patterns are glob patterns selecting the paths to watch.
	Patterns []string
	// Ignores are glob patterns excluded from the watched set.
	Ignores []string
}

// NewRegisterOptions returns options for uid with every other field defaulted.
func NewRegisterOptions(uid uint64) RegisterOptions {
	return RegisterOptions{
		UID:      uid,
		Cwd:      DefaultCwd,
		Debounce: DefaultDebounce,
		WatchFor: AllEventTypes(),
		Patterns: []string{DefaultCwd},
		Ignores:  []string{},
	}
}

// Wants reports whether the interest filter includes t.
func (o RegisterOptions) Wants(t EventType) bool {
	return slices.Contains(o.WatchFor, t)
}

// Resolution is the outcome of turning patterns into concrete paths.
type Resolution struct {
	// Paths are normalized, de-duplicated paths that survived the ignore list.
	Paths []string
	// PatternErrors are advisory diagnostics for the watch patterns.
	PatternErrors []error
	// IgnoreErrors are advisory diagnostics for the ignore patterns.
	IgnoreErrors []error
}
