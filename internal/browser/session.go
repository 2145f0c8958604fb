package browser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"
	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

// Session is one browser tab. It satisfies stacks.Executor.
type Session struct {
	tabCtx     context.Context
	cancel     context.CancelFunc
	settleTime time.Duration
	logger     *zap.Logger

	injectMu sync.Mutex
	injected map[string]struct{}
}

var _ stacks.Executor = (*Session)(nil)

func newSession(tabCtx context.Context, cancel context.CancelFunc, settle time.Duration, logger *zap.Logger) *Session {
	return &Session{
		tabCtx:     tabCtx,
		cancel:     cancel,
		settleTime: settle,
		logger:     logger,
		injected:   make(map[string]struct{}),
	}
}

// run executes actions in the tab, aborting when ctx is done. Cancelling
// ctx does not close the tab.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads target and returns every Network.responseReceived event
// observed while loading, in arrival order.
func (s *Session) Navigate(ctx context.Context, target string) ([]stacks.NetworkLogEntry, error) {
	rec := &recorder{}

	listenCtx, stopListening := context.WithCancel(s.tabCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, rec.handle)

	s.resetInjected()

	actions := []chromedp.Action{
		network.Enable(),
		chromedp.Navigate(target),
	}
	if s.settleTime > 0 {
		actions = append(actions, chromedp.Sleep(s.settleTime))
	}
	if err := s.run(ctx, actions...); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sharederrors.ErrNavigationFailed, target, err)
	}

	log := rec.entries()
	s.logger.Debug("navigation complete", zap.String("target", target), zap.Int("responses", len(log)))
	return log, nil
}

// Evaluate implements stacks.Executor.
func (s *Session) Evaluate(ctx context.Context, fn string, opts stacks.EvalOptions, out any) error {
	if err := s.injectDeps(ctx, opts.Deps); err != nil {
		return err
	}

	expr, err := callExpression(fn, opts.Args)
	if err != nil {
		return fmt.Errorf("%w: %v", sharederrors.ErrRemoteEvaluation, err)
	}

	var raw []byte
	if err := s.run(ctx, chromedp.Evaluate(expr, &raw, awaitPromise)); err != nil {
		return classifyEvalError(err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", sharederrors.ErrRemoteEvaluation, err)
	}
	return nil
}

// Close closes the tab.
func (s *Session) Close() {
	s.cancel()
}

// injectDeps evaluates each dependency bundle once per loaded document.
func (s *Session) injectDeps(ctx context.Context, deps []string) error {
	if len(deps) == 0 {
		return nil
	}

	s.injectMu.Lock()
	defer s.injectMu.Unlock()

	for _, src := range deps {
		key := depKey(src)
		if _, ok := s.injected[key]; ok {
			continue
		}
		if err := s.run(ctx, chromedp.Evaluate(src, nil)); err != nil {
			return fmt.Errorf("inject dependency %s: %w", key[:12], classifyEvalError(err))
		}
		s.injected[key] = struct{}{}
	}
	return nil
}

func (s *Session) resetInjected() {
	s.injectMu.Lock()
	s.injected = make(map[string]struct{})
	s.injectMu.Unlock()
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true).WithReturnByValue(true)
}

func depKey(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// callExpression builds "(fn)(arg0, arg1, ...)" with JSON-encoded arguments.
func callExpression(fn string, args []any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encode argument %d: %w", i, err)
		}
		encoded[i] = string(data)
	}
	return "(" + strings.TrimSpace(fn) + ")(" + strings.Join(encoded, ", ") + ")", nil
}

func classifyEvalError(err error) error {
	var exception *runtime.ExceptionDetails
	if errors.As(err, &exception) {
		return fmt.Errorf("%w: %s", sharederrors.ErrProbeException, exception.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", sharederrors.ErrRemoteEvaluation, err)
}

// recorder collects responseReceived events as network log entries.
type recorder struct {
	mu  sync.Mutex
	log []stacks.NetworkLogEntry
}

func (r *recorder) handle(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Response == nil {
		return
	}

	params, err := json.Marshal(map[string]any{
		"requestId": e.RequestID.String(),
		"type":      e.Type.String(),
		"response": map[string]any{
			"url":     e.Response.URL,
			"status":  e.Response.Status,
			"headers": e.Response.Headers,
		},
	})
	if err != nil {
		return
	}

	r.mu.Lock()
	r.log = append(r.log, stacks.NetworkLogEntry{Method: constants.NetworkResponseReceived, Params: params})
	r.mu.Unlock()
}

func (r *recorder) entries() []stacks.NetworkLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stacks.NetworkLogEntry(nil), r.log...)
}
