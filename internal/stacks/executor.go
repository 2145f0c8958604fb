package stacks

import "context"

// EvalOptions carries the arguments and source dependencies of a remote call.
// Args must be plain JSON-serializable data. Deps are source bundles that the
// executor evaluates in the remote global scope before the function runs.
type EvalOptions struct {
	Args []any
	Deps []string
}

// Executor runs a JavaScript function inside a remote execution context.
//
// fn is the source of a (possibly async) function expression. It is invoked
// with opts.Args spread as its parameters; the settled, structurally cloned
// return value is JSON-decoded into out. A JavaScript exception must be
// reported as an error wrapping ErrProbeException, any other failure as an
// error wrapping ErrRemoteEvaluation.
type Executor interface {
	Evaluate(ctx context.Context, fn string, opts EvalOptions, out any) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, fn string, opts EvalOptions, out any) error

// Evaluate calls f.
func (f ExecutorFunc) Evaluate(ctx context.Context, fn string, opts EvalOptions, out any) error {
	return f(ctx, fn, opts, out)
}
