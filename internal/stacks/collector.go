package stacks

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Collector runs the library and server detectors and merges their output.
type Collector struct {
	libraries *LibraryDetector
	servers   *ServerDetector
	logger    *zap.Logger
}

// NewCollector wires the two detectors. A nil server detector uses the
// built-in signature table.
func NewCollector(libraries *LibraryDetector, servers *ServerDetector, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if servers == nil {
		servers = NewServerDetector(nil)
	}
	return &Collector{
		libraries: libraries,
		servers:   servers,
		logger:    logger,
	}
}

// Collect returns library entries in catalog order followed by at most one
// server entry. Errors from the execution context or a malformed log are
// returned as-is.
func (c *Collector) Collect(ctx context.Context, exec Executor, log []NetworkLogEntry) ([]StackEntry, error) {
	if c.libraries == nil {
		return nil, fmt.Errorf("collector has no library detector")
	}

	libraries, err := c.libraries.Detect(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("detect libraries: %w", err)
	}

	entries := make([]StackEntry, 0, len(libraries)+1)
	for _, lib := range libraries {
		entries = append(entries, lib.Entry())
	}

	headers, err := DocumentHeaders(log)
	if err != nil {
		return nil, fmt.Errorf("extract document headers: %w", err)
	}
	servers := c.servers
	if servers == nil {
		servers = NewServerDetector(nil)
	}
	if match, ok := servers.Detect(headers); ok {
		entries = append(entries, match.Entry())
	}

	return entries, nil
}

// Detect is the best-effort boundary used by the audit pipeline. It never
// fails: any error or panic below it yields an empty result.
func (c *Collector) Detect(ctx context.Context, exec Executor, log []NetworkLogEntry) (entries []StackEntry) {
	defer func() {
		if r := recover(); r != nil {
			c.log().Warn("stack detection panicked", zap.Any("panic", r))
			entries = []StackEntry{}
		}
	}()

	entries, err := c.Collect(ctx, exec, log)
	if err != nil {
		c.log().Warn("stack detection unavailable", zap.Error(err))
		return []StackEntry{}
	}
	return entries
}

func (c *Collector) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}
