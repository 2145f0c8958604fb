package stacks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// fakeProbe scripts how one catalog entry behaves when probed.
type fakeProbe struct {
	name    string
	id      string
	npmName string

	result  any           // JSON-able value returned as the probe result
	throws  bool          // exception surfaced by the executor, as Session reports ExceptionDetails
	hang    bool          // never settles until ctx is cancelled
	fail    error         // returned verbatim (transport failure)
	panics  bool          // the executor itself panics
	release chan struct{} // when set, the probe waits on it before answering
}

// fakeExecutor emulates a page that has the catalog bound.
type fakeExecutor struct {
	probes  []fakeProbe
	listErr error

	mu        sync.Mutex
	deps      [][]string
	probed    []string
	cancelled atomic.Int32
}

func (f *fakeExecutor) Evaluate(ctx context.Context, fn string, opts EvalOptions, out any) error {
	f.mu.Lock()
	f.deps = append(f.deps, opts.Deps)
	f.mu.Unlock()

	if len(opts.Args) == 0 || opts.Args[0] != CatalogBindingKey {
		return fmt.Errorf("%w: catalog key not passed", ErrRemoteEvaluation)
	}

	switch fn {
	case listCatalogFn:
		if f.listErr != nil {
			return f.listErr
		}
		entries := make([]catalogEntry, 0, len(f.probes))
		for _, p := range f.probes {
			entries = append(entries, catalogEntry{Name: p.name, ID: p.id, NPMName: p.npmName})
		}
		return roundTrip(entries, out)
	case runProbeFn:
		name, _ := opts.Args[1].(string)
		f.mu.Lock()
		f.probed = append(f.probed, name)
		f.mu.Unlock()
		return f.runProbe(ctx, name, out)
	}
	return fmt.Errorf("%w: unexpected function", ErrRemoteEvaluation)
}

func (f *fakeExecutor) runProbe(ctx context.Context, name string, out any) error {
	for _, p := range f.probes {
		if p.name != name {
			continue
		}
		switch {
		case p.panics:
			panic("executor exploded")
		case p.fail != nil:
			return p.fail
		case p.throws:
			return fmt.Errorf("%w: TypeError: x is undefined", ErrProbeException)
		case p.hang:
			<-ctx.Done()
			f.cancelled.Add(1)
			return ctx.Err()
		}
		if p.release != nil {
			select {
			case <-p.release:
			case <-ctx.Done():
				f.cancelled.Add(1)
				return ctx.Err()
			}
		}
		if p.result == nil || p.result == false {
			return roundTrip(map[string]any{"matched": false, "version": nil}, out)
		}
		version := any(nil)
		if m, ok := p.result.(map[string]any); ok {
			version = m["version"]
		}
		return roundTrip(map[string]any{"matched": true, "version": version}, out)
	}
	return roundTrip(map[string]any{"matched": false, "version": nil}, out)
}

func (f *fakeExecutor) probedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probed...)
}

// roundTrip mimics structured cloning across the remote boundary.
func roundTrip(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
