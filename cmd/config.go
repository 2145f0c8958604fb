package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

const (
	defaultPageTimeoutSecs  = int(constants.DefaultPageTimeout / time.Second)
	defaultSettleMillis     = int(constants.DefaultSettleTime / time.Millisecond)
	defaultPageConcurrency  = 1
	defaultProbeConcurrency = 1
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Detect  DetectRuntimeConfig
	Browser BrowserConfig
	Data    SignatureDataConfig
	Output  OutputConfig
}

// DetectRuntimeConfig consolidates flag-driven settings for detect runs.
type DetectRuntimeConfig struct {
	Concurrency      int
	RateLimit        int
	TimeoutSecs      int
	ProbeConcurrency int
	SettleMillis     int
	Progress         bool
}

// BrowserConfig groups Chrome launch options.
type BrowserConfig struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

// SignatureDataConfig points at operator-supplied signature data.
type SignatureDataConfig struct {
	CatalogPath string
	ServersPath string
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Detect: DetectRuntimeConfig{
			Concurrency:      defaultPageConcurrency,
			RateLimit:        0,
			TimeoutSecs:      defaultPageTimeoutSecs,
			ProbeConcurrency: defaultProbeConcurrency,
			SettleMillis:     defaultSettleMillis,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Output: OutputConfig{
			Format: outputFormatJSON,
		},
	}
}

// applyConfigDefaults merges config file values into the runtime config when
// the user did not explicitly set the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()

	if viper.IsSet("detect.concurrency") {
		applyIntDefault(flags, "concurrency", viper.GetInt("detect.concurrency"), func(v int) {
			cliConfig.Detect.Concurrency = v
		})
	}
	if viper.IsSet("detect.rate_limit") {
		applyIntDefault(flags, "rate-limit", viper.GetInt("detect.rate_limit"), func(v int) {
			cliConfig.Detect.RateLimit = v
		})
	}
	if viper.IsSet("detect.timeout_secs") {
		applyIntDefault(flags, "timeout", viper.GetInt("detect.timeout_secs"), func(v int) {
			cliConfig.Detect.TimeoutSecs = v
		})
	}
	if viper.IsSet("detect.probe_concurrency") {
		applyIntDefault(flags, "probe-concurrency", viper.GetInt("detect.probe_concurrency"), func(v int) {
			cliConfig.Detect.ProbeConcurrency = v
		})
	}
	if viper.IsSet("detect.settle_ms") {
		applyIntDefault(flags, "settle-ms", viper.GetInt("detect.settle_ms"), func(v int) {
			cliConfig.Detect.SettleMillis = v
		})
	}
	if viper.IsSet("detect.progress") {
		applyBoolDefault(flags, "progress", viper.GetBool("detect.progress"), func(v bool) {
			cliConfig.Detect.Progress = v
		})
	}
	if viper.IsSet("browser.headless") {
		applyBoolDefault(flags, "headless", viper.GetBool("browser.headless"), func(v bool) {
			cliConfig.Browser.Headless = v
		})
	}
	if viper.IsSet("browser.exec_path") {
		applyStringDefault(flags, "chrome", viper.GetString("browser.exec_path"), func(v string) {
			cliConfig.Browser.ExecPath = v
		})
	}
	if viper.IsSet("browser.user_agent") {
		applyStringDefault(flags, "user-agent", viper.GetString("browser.user_agent"), func(v string) {
			cliConfig.Browser.UserAgent = v
		})
	}
	if viper.IsSet("catalog.path") {
		applyStringDefault(flags, "catalog", viper.GetString("catalog.path"), func(v string) {
			cliConfig.Data.CatalogPath = v
		})
	}
	if viper.IsSet("servers.path") {
		applyStringDefault(flags, "servers", viper.GetString("servers.path"), func(v string) {
			cliConfig.Data.ServersPath = v
		})
	}
	if viper.IsSet("output.format") {
		applyStringDefault(flags, "format", viper.GetString("output.format"), func(v string) {
			cliConfig.Output.Format = v
		})
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

// loadCatalog returns the configured catalog, or the bundled one.
func loadCatalog(cfg SignatureDataConfig) (stacks.Catalog, error) {
	if cfg.CatalogPath == "" {
		return stacks.DefaultCatalog(), nil
	}
	return stacks.LoadCatalog(cfg.CatalogPath)
}

// loadServerSignatures returns the configured table, or the built-in one.
func loadServerSignatures(cfg SignatureDataConfig) ([]stacks.ServerSignature, error) {
	if cfg.ServersPath == "" {
		return stacks.DefaultServerSignatures(), nil
	}
	f, err := os.Open(cfg.ServersPath)
	if err != nil {
		return nil, fmt.Errorf("open server signatures: %w", err)
	}
	defer f.Close()

	sigs, err := stacks.LoadServerSignatures(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ServersPath, err)
	}
	return sigs, nil
}
