package fsmtemplate

import "github.com/hashicorp/go-hclog"

// Settings holds the options a Template or Table was constructed with:
// a small functional-options struct populated once at construction, not
// a free-floating config object threaded through every call.
type Settings struct {
	Logger hclog.Logger
	Debug  bool
}

// Option configures a Template or Table at construction time.
type Option func(*Settings)

// WithLogger attaches a logger used for compile diagnostics and, when
// WithDebug is also set, a per-line FSM trace.
func WithLogger(l hclog.Logger) Option {
	return func(s *Settings) { s.Logger = l }
}

// WithDebug turns on per-line rule-match and state-transition tracing.
// When off, the engine swaps in no-op trace hooks so tracing costs
// nothing on the hot path.
func WithDebug(on bool) Option {
	return func(s *Settings) { s.Debug = on }
}

func newSettings(opts ...Option) Settings {
	s := Settings{Logger: hclog.L()}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// ResolveSettings applies a list of Options and returns the resulting
// Settings. It exists so sibling packages (such as table) that accept
// the same Option values can read out the logger/debug flag without
// duplicating the functional-options boilerplate.
func ResolveSettings(opts ...Option) Settings {
	return newSettings(opts...)
}
