package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"
	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
)

// Options configures the Chrome process.
type Options struct {
	Headless   bool
	ExecPath   string
	UserAgent  string
	SettleTime time.Duration // wait after load before the page is probed
	Logger     *zap.Logger
}

// DefaultOptions returns headless options with the default settle time.
func DefaultOptions() Options {
	return Options{
		Headless:   true,
		SettleTime: constants.DefaultSettleTime,
	}
}

// Browser owns one Chrome process. Tabs are opened with NewSession.
type Browser struct {
	opts          Options
	logger        *zap.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-software-rasterizer", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	return allocOpts
}

// Launch starts Chrome. The process lives until Close is called or ctx ends.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	// The first Run starts the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", sharederrors.ErrBrowserUnavailable, err)
	}

	logger.Debug("browser started", zap.Bool("headless", opts.Headless))

	return &Browser{
		opts:          opts,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewSession opens a new tab.
func (b *Browser) NewSession() (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: open tab: %v", sharederrors.ErrBrowserUnavailable, err)
	}
	return newSession(tabCtx, cancel, b.opts.SettleTime, b.logger), nil
}

// Close stops Chrome and releases every tab.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}
