package stacks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
)

// listCatalogFn enumerates the injected catalog in iteration order.
const listCatalogFn = `function (key) {
  const catalog = globalThis[key];
  if (!catalog || typeof catalog !== 'object') {
    throw new Error('signature catalog is not bound to ' + key);
  }
  return Object.keys(catalog).map(function (name) {
    const test = catalog[name] || {};
    return {
      name: name,
      id: typeof test.id === 'string' ? test.id : '',
      npmName: typeof test.npmName === 'string' ? test.npmName : (typeof test.npm === 'string' ? test.npm : ''),
    };
  });
}`

// runProbeFn runs a single signature test. Exceptions stay inside the page.
const runProbeFn = `async function (key, name) {
  const catalog = globalThis[key];
  const entry = catalog && catalog[name];
  if (!entry || typeof entry.test !== 'function') {
    return { matched: false, version: null };
  }
  try {
    const result = await entry.test(globalThis);
    if (!result) {
      return { matched: false, version: null };
    }
    let version = null;
    if (typeof result === 'object' && (typeof result.version === 'string' || typeof result.version === 'number')) {
      version = result.version;
    }
    return { matched: true, version: version };
  } catch (e) {
    return { matched: false, version: null };
  }
}`

// catalogEntry is the serializable metadata of one SignatureTest.
type catalogEntry struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	NPMName string `json:"npmName"`
}

type probeResult struct {
	Matched bool            `json:"matched"`
	Version json.RawMessage `json:"version"`
}

type probeOutcome struct {
	result probeResult
	err    error
}

// LibraryDetector runs the signature catalog inside an execution context.
type LibraryDetector struct {
	Catalog Catalog
	// Concurrency is the number of probes in flight at once. Values below
	// one run probes sequentially.
	Concurrency int
	Logger      *zap.Logger

	probeTimeout time.Duration
}

// NewLibraryDetector returns a sequential detector for catalog.
func NewLibraryDetector(catalog Catalog, logger *zap.Logger) *LibraryDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibraryDetector{
		Catalog:      catalog,
		Concurrency:  1,
		Logger:       logger,
		probeTimeout: constants.ProbeTimeout,
	}
}

// Detect probes every catalog entry and returns the matches in catalog order.
// Only a failure of the execution context itself is returned as an error.
func (d *LibraryDetector) Detect(ctx context.Context, exec Executor) ([]DetectedLibrary, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	if err := d.Catalog.Validate(); err != nil {
		return nil, err
	}

	deps := []string{d.Catalog.Source}

	var entries []catalogEntry
	if err := exec.Evaluate(ctx, listCatalogFn, EvalOptions{Args: []any{CatalogBindingKey}, Deps: deps}, &entries); err != nil {
		return nil, fmt.Errorf("list signature catalog: %w", err)
	}

	slots := make([]*DetectedLibrary, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Concurrency, 1))

	for i, entry := range entries {
		if entry.ID == "" {
			d.logger().Debug("skipping signature without id", zap.String("library", entry.Name))
			continue
		}
		g.Go(func() error {
			lib, err := d.probe(gctx, exec, entry, deps)
			if err != nil {
				return err
			}
			slots[i] = lib
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	libraries := make([]DetectedLibrary, 0, len(slots))
	for _, lib := range slots {
		if lib != nil {
			libraries = append(libraries, *lib)
		}
	}
	return libraries, nil
}

// probe races one signature test against the probe timeout. A nil library
// with a nil error means no match.
func (d *LibraryDetector) probe(ctx context.Context, exec Executor, entry catalogEntry, deps []string) (*DetectedLibrary, error) {
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a probe that loses the race can still deliver and exit.
	done := make(chan probeOutcome, 1)
	go func() {
		var out probeOutcome
		defer func() {
			if r := recover(); r != nil {
				out.err = fmt.Errorf("%w: panic: %v", ErrRemoteEvaluation, r)
			}
			done <- out
		}()
		out.err = exec.Evaluate(probeCtx, runProbeFn, EvalOptions{
			Args: []any{CatalogBindingKey, entry.Name},
			Deps: deps,
		}, &out.result)
	}()

	timeout := d.probeTimeout
	if timeout <= 0 {
		timeout = constants.ProbeTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	log := d.logger().With(zap.String("library", entry.Name))

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, ErrProbeException) {
				log.Debug("probe threw", zap.Error(out.err))
				return nil, nil
			}
			return nil, fmt.Errorf("probe %q: %w", entry.Name, out.err)
		}
		if !out.result.Matched {
			return nil, nil
		}
		return &DetectedLibrary{
			ID:      entry.ID,
			Name:    entry.Name,
			Version: normalizeVersion(out.result.Version),
			NPMName: entry.NPMName,
		}, nil
	case <-timer.C:
		log.Debug("probe timed out", zap.Duration("timeout", timeout))
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *LibraryDetector) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// normalizeVersion turns a probe's version into a string. Numbers use their
// shortest decimal form, null and anything else become empty.
func normalizeVersion(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
