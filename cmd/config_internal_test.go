package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

func TestApplyIntDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("timeout", 0, "")

	var applied int
	applyIntDefault(flags, "timeout", 15, func(v int) {
		applied = v
	})
	if applied != 15 {
		t.Fatalf("expected setter to receive 15, got %d", applied)
	}

	// When flag already set, setter should not run.
	if err := flags.Set("timeout", "7"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	applied = 0
	applyIntDefault(flags, "timeout", 20, func(v int) {
		applied = v
	})
	if applied != 0 {
		t.Fatalf("setter should not run when flag overridden, got %d", applied)
	}
}

func TestApplyBoolDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("headless", true, "")

	applied := true
	applyBoolDefault(flags, "headless", false, func(v bool) {
		applied = v
	})
	if applied {
		t.Fatal("expected setter to run with false")
	}

	if err := flags.Set("headless", "true"); err != nil {
		t.Fatalf("failed to set bool flag: %v", err)
	}
	applied = true
	applyBoolDefault(flags, "headless", false, func(v bool) {
		applied = v
	})
	if !applied {
		t.Fatalf("setter should not change value when flag already set")
	}
}

func TestApplyStringDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("catalog", "", "")

	var applied string
	applyStringDefault(flags, "catalog", "/etc/catalog.js", func(v string) {
		applied = v
	})
	if applied != "/etc/catalog.js" {
		t.Fatalf("expected setter to receive config value, got %q", applied)
	}

	if err := flags.Set("catalog", "./mine.js"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	applied = ""
	applyStringDefault(flags, "catalog", "/etc/catalog.js", func(v string) {
		applied = v
	})
	if applied != "" {
		t.Fatalf("setter should not run when flag overridden, got %q", applied)
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	original := cliConfig
	cliConfig = newCLIConfig()
	viper.Reset()
	t.Cleanup(func() {
		cliConfig = original
		viper.Reset()
	})

	viper.Set("detect.concurrency", 4)
	viper.Set("detect.probe_concurrency", 8)
	viper.Set("browser.headless", false)
	viper.Set("catalog.path", "/opt/catalog.js")
	viper.Set("output.format", "text")

	cmd := &cobra.Command{Use: "detect"}
	cmd.Flags().Int("concurrency", 1, "")
	if err := cmd.Flags().Set("concurrency", "2"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	applyConfigDefaults(cmd)

	if cliConfig.Detect.Concurrency != defaultPageConcurrency {
		t.Errorf("explicit flag should win, got concurrency %d", cliConfig.Detect.Concurrency)
	}
	if cliConfig.Detect.ProbeConcurrency != 8 {
		t.Errorf("expected probe concurrency 8, got %d", cliConfig.Detect.ProbeConcurrency)
	}
	if cliConfig.Browser.Headless {
		t.Error("expected headless to be disabled by config")
	}
	if cliConfig.Data.CatalogPath != "/opt/catalog.js" {
		t.Errorf("unexpected catalog path %q", cliConfig.Data.CatalogPath)
	}
	if cliConfig.Output.Format != outputFormatText {
		t.Errorf("unexpected output format %q", cliConfig.Output.Format)
	}
}

func TestNewCLIConfigDefaults(t *testing.T) {
	cfg := newCLIConfig()
	if cfg.Detect.TimeoutSecs != 45 {
		t.Errorf("expected 45s page timeout, got %d", cfg.Detect.TimeoutSecs)
	}
	if cfg.Detect.SettleMillis != 500 {
		t.Errorf("expected 500ms settle time, got %d", cfg.Detect.SettleMillis)
	}
	if !cfg.Browser.Headless {
		t.Error("expected headless by default")
	}
	if cfg.Output.Format != outputFormatJSON {
		t.Errorf("expected json output by default, got %q", cfg.Output.Format)
	}
}

func TestLoadCatalogAndSignatures(t *testing.T) {
	catalog, err := loadCatalog(SignatureDataConfig{})
	if err != nil {
		t.Fatalf("loadCatalog returned error: %v", err)
	}
	if catalog.Source != stacks.DefaultCatalog().Source {
		t.Fatal("expected bundled catalog when no path configured")
	}

	sigs, err := loadServerSignatures(SignatureDataConfig{})
	if err != nil {
		t.Fatalf("loadServerSignatures returned error: %v", err)
	}
	if len(sigs) != len(stacks.DefaultServerSignatures()) {
		t.Fatal("expected built-in table when no path configured")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	if err := os.WriteFile(path, []byte("- id: custom\n  name: Custom\n  headers:\n    server: custom\n"), 0o644); err != nil {
		t.Fatalf("write servers: %v", err)
	}
	sigs, err = loadServerSignatures(SignatureDataConfig{ServersPath: path})
	if err != nil {
		t.Fatalf("loadServerSignatures returned error: %v", err)
	}
	if len(sigs) != 1 || sigs[0].ID != "custom" {
		t.Fatalf("unexpected signatures %+v", sigs)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("- id: broken\n"), 0o644); err != nil {
		t.Fatalf("write servers: %v", err)
	}
	if _, err := loadServerSignatures(SignatureDataConfig{ServersPath: bad}); !errors.Is(err, stacks.ErrInvalidServerSignature) {
		t.Fatalf("expected ErrInvalidServerSignature, got %v", err)
	}

	if _, err := loadCatalog(SignatureDataConfig{CatalogPath: filepath.Join(dir, "missing.js")}); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}
