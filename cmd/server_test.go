package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

const sampleLog = `[
  {"method": "Network.responseReceived", "params": {"type": "Script", "response": {"headers": {"server": "nginx"}}}},
  {"method": "Network.responseReceived", "params": {"type": "Document", "response": {"headers": {"Server": "cloudflare"}}}}
]`

func withServerState(t *testing.T) {
	t.Helper()
	origCfg, origLog, origHeaders := cliConfig, serverLogPath, serverHeaders
	cliConfig = newCLIConfig()
	serverLogPath, serverHeaders = "", nil
	t.Cleanup(func() {
		cliConfig, serverLogPath, serverHeaders = origCfg, origLog, origHeaders
	})
}

func TestServerInputHeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.json")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	headers, err := serverInputHeaders(path, []string{"X-Extra: yes"})
	if err != nil {
		t.Fatalf("serverInputHeaders returned error: %v", err)
	}
	if headers["Server"] != "cloudflare" || headers["X-Extra"] != "yes" {
		t.Fatalf("unexpected headers %v", headers)
	}

	for _, raw := range []string{"no-colon", ": empty-name"} {
		if _, err := serverInputHeaders("", []string{raw}); !errors.Is(err, sharederrors.ErrInvalidInput) {
			t.Fatalf("serverInputHeaders(%q) expected ErrInvalidInput, got %v", raw, err)
		}
	}
	if _, err := serverInputHeaders(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestRunServer_JSON(t *testing.T) {
	withServerState(t)
	serverHeaders = []string{"Server: nginx/1.2"}

	var out bytes.Buffer
	cmd := &cobra.Command{Use: "server"}
	cmd.SetOut(&out)

	if err := runServer(cmd, nil); err != nil {
		t.Fatalf("runServer returned error: %v", err)
	}

	var entries []stacks.StackEntry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out.String(), err)
	}
	if len(entries) != 1 || entries[0] != (stacks.StackEntry{Detector: stacks.DetectorServer, ID: "nginx", Name: "nginx"}) {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestRunServer_NoMatchIsEmptyList(t *testing.T) {
	withServerState(t)
	serverHeaders = []string{"Server: gws"}

	var out bytes.Buffer
	cmd := &cobra.Command{Use: "server"}
	cmd.SetOut(&out)

	if err := runServer(cmd, nil); err != nil {
		t.Fatalf("runServer returned error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[]" {
		t.Fatalf("expected empty JSON list, got %q", got)
	}
}

func TestRunServer_Text(t *testing.T) {
	withServerState(t)
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })

	serverHeaders = []string{"X-Amz-Cf-Id: abc"}
	cliConfig.Output.Format = outputFormatText

	var out bytes.Buffer
	cmd := &cobra.Command{Use: "server"}
	cmd.SetOut(&out)

	if err := runServer(cmd, nil); err != nil {
		t.Fatalf("runServer returned error: %v", err)
	}
	if !strings.Contains(out.String(), "cloudfront") || !strings.Contains(out.String(), "Amazon CloudFront") {
		t.Fatalf("expected cloudfront row, got %q", out.String())
	}
}

func TestRunServer_RequiresInput(t *testing.T) {
	withServerState(t)
	if err := runServer(&cobra.Command{Use: "server"}, nil); err == nil {
		t.Fatal("expected error without --log or --header")
	}

	cliConfig.Output.Format = "xml"
	serverHeaders = []string{"Server: nginx"}
	if err := runServer(&cobra.Command{Use: "server"}, nil); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
