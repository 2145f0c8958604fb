package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-stacks/internal/browser"
	"github.com/khanhnv2901/seca-stacks/internal/runner"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

// pageSession is a loaded tab: something to navigate and to probe.
type pageSession interface {
	stacks.Executor
	Navigate(ctx context.Context, url string) ([]stacks.NetworkLogEntry, error)
	Close()
}

type sessionFactory func() (pageSession, error)

var detectCmd = &cobra.Command{
	Use:   "detect <url>...",
	Short: "Load pages in headless Chrome and report their library and server stacks",
	Long: `Load each URL in a fresh headless Chrome tab, run every probe of the
signature catalog inside the page, and match the document response headers
against the server signature table.

Detection is best effort: a page whose probes cannot run still yields a
(possibly empty) result. Only pages that fail to load are reported as errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	flags := detectCmd.Flags()
	flags.IntVar(&cliConfig.Detect.Concurrency, "concurrency", cliConfig.Detect.Concurrency, "pages loaded in parallel")
	flags.IntVar(&cliConfig.Detect.RateLimit, "rate-limit", cliConfig.Detect.RateLimit, "page loads per second (0 = unlimited)")
	flags.IntVar(&cliConfig.Detect.TimeoutSecs, "timeout", cliConfig.Detect.TimeoutSecs, "per-page timeout in seconds")
	flags.IntVar(&cliConfig.Detect.ProbeConcurrency, "probe-concurrency", cliConfig.Detect.ProbeConcurrency, "signature probes in flight per page")
	flags.IntVar(&cliConfig.Detect.SettleMillis, "settle-ms", cliConfig.Detect.SettleMillis, "wait after load before probing, in milliseconds")
	flags.BoolVar(&cliConfig.Detect.Progress, "progress", false, "print a progress line to stderr")
	flags.BoolVar(&cliConfig.Browser.Headless, "headless", cliConfig.Browser.Headless, "run Chrome headless")
	flags.StringVar(&cliConfig.Browser.ExecPath, "chrome", "", "path to the Chrome/Chromium binary")
	flags.StringVar(&cliConfig.Browser.UserAgent, "user-agent", "", "override the browser user agent")
	flags.StringVar(&cliConfig.Data.CatalogPath, "catalog", "", "signature catalog bundle (default: bundled catalog)")
	flags.StringVar(&cliConfig.Data.ServersPath, "servers", "", "server signature table in YAML (default: built-in table)")
	flags.StringVarP(&cliConfig.Output.Format, "format", "f", cliConfig.Output.Format, "output format: json or text")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := cliConfig
	if err := validateOutputFormat(cfg.Output.Format); err != nil {
		return err
	}

	collector, err := buildCollector(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := browser.Launch(ctx, browser.Options{
		Headless:   cfg.Browser.Headless,
		ExecPath:   cfg.Browser.ExecPath,
		UserAgent:  cfg.Browser.UserAgent,
		SettleTime: time.Duration(cfg.Detect.SettleMillis) * time.Millisecond,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	open := func() (pageSession, error) {
		return b.NewSession()
	}

	start := time.Now()
	results := detectPages(ctx, cmd, cfg, args, open, collector)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	logger.Info("detection finished",
		zap.Int("targets", len(results)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)

	if failed == len(results) {
		return fmt.Errorf("no page could be loaded (%d targets)", failed)
	}
	return nil
}

func buildCollector(cfg *CLIConfig) (*stacks.Collector, error) {
	catalog, err := loadCatalog(cfg.Data)
	if err != nil {
		return nil, err
	}
	sigs, err := loadServerSignatures(cfg.Data)
	if err != nil {
		return nil, err
	}

	libraries := stacks.NewLibraryDetector(catalog, logger)
	libraries.Concurrency = cfg.Detect.ProbeConcurrency
	return stacks.NewCollector(libraries, stacks.NewServerDetector(sigs), logger), nil
}

// detectPages runs every target through the runner and streams results to
// the command's output as they finish.
func detectPages(ctx context.Context, cmd *cobra.Command, cfg *CLIConfig, targets []string, open sessionFactory, collector *stacks.Collector) []runner.PageResult {
	r := &runner.Runner{
		Concurrency: cfg.Detect.Concurrency,
		RateLimit:   cfg.Detect.RateLimit,
		Timeout:     time.Duration(cfg.Detect.TimeoutSecs) * time.Second,
	}

	var progress *progressPrinter
	if cfg.Detect.Progress {
		progress = newProgressPrinter(cmd.ErrOrStderr(), len(targets))
		progress.Start()
		defer progress.Stop()
	}

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	return r.Run(ctx, targets, newPageFunc(open, collector), func(result runner.PageResult) {
		if progress != nil {
			progress.Increment(result.Error == "", len(result.Stacks), result.DurationMs)
		}

		mu.Lock()
		defer mu.Unlock()
		if err := writePageResult(out, cfg.Output.Format, result); err != nil {
			logger.Warn("failed to write result", zap.String("target", result.Target), zap.Error(err))
		}
	})
}

func newPageFunc(open sessionFactory, collector *stacks.Collector) runner.PageFunc {
	return func(ctx context.Context, url string) ([]stacks.StackEntry, error) {
		session, err := open()
		if err != nil {
			return nil, err
		}
		defer session.Close()

		log, err := session.Navigate(ctx, url)
		if err != nil {
			return nil, err
		}
		return collector.Detect(ctx, session, log), nil
	}
}
