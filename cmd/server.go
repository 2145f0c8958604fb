package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

var (
	serverLogPath string
	serverHeaders []string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Identify server software from a captured network log or raw headers",
	Long: `Match the primary document's response headers against the server
signature table without launching a browser.

Headers come either from a captured devtools network log (--log), where the
first Network.responseReceived event of type Document is used, or from
repeated --header "Name: value" flags.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	flags := serverCmd.Flags()
	flags.StringVar(&serverLogPath, "log", "", "captured network log (JSON array of {method, params} or performance-log records)")
	flags.StringArrayVarP(&serverHeaders, "header", "H", nil, `response header "Name: value" (repeatable)`)
	flags.StringVar(&cliConfig.Data.ServersPath, "servers", "", "server signature table in YAML (default: built-in table)")
	flags.StringVarP(&cliConfig.Output.Format, "format", "f", cliConfig.Output.Format, "output format: json or text")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(cliConfig.Output.Format); err != nil {
		return err
	}
	if serverLogPath == "" && len(serverHeaders) == 0 {
		return fmt.Errorf("either --log or --header is required")
	}

	headers, err := serverInputHeaders(serverLogPath, serverHeaders)
	if err != nil {
		return err
	}

	sigs, err := loadServerSignatures(cliConfig.Data)
	if err != nil {
		return err
	}

	entries := []stacks.StackEntry{}
	if match, ok := stacks.NewServerDetector(sigs).Detect(headers); ok {
		entries = append(entries, match.Entry())
	}

	out := cmd.OutOrStdout()
	if cliConfig.Output.Format == outputFormatJSON {
		return json.NewEncoder(out).Encode(entries)
	}
	return writeStackTable(out, entries)
}

// serverInputHeaders reads headers from the log file, then overlays any
// explicit --header values.
func serverInputHeaders(logPath string, raw []string) (map[string]string, error) {
	headers := map[string]string{}

	if logPath != "" {
		f, err := os.Open(logPath)
		if err != nil {
			return nil, fmt.Errorf("open network log: %w", err)
		}
		defer f.Close()

		log, err := stacks.ReadNetworkLog(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", logPath, err)
		}
		headers, err = stacks.DocumentHeaders(log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", logPath, err)
		}
	}

	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: header %q (want \"Name: value\")", sharederrors.ErrInvalidInput, h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
