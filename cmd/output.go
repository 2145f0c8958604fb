package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/khanhnv2901/seca-stacks/internal/runner"
	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

func validateOutputFormat(format string) error {
	switch format {
	case outputFormatJSON, outputFormatText:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (want %s or %s)", format, outputFormatJSON, outputFormatText)
}

// writePageResult renders one page. JSON output is one object per line.
func writePageResult(w io.Writer, format string, result runner.PageResult) error {
	if format == outputFormatJSON {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "%s %s\n", colorInfo("Target:"), result.Target)
	if result.Error != "" {
		fmt.Fprintf(w, "  %s %s\n\n", colorError("error:"), result.Error)
		return nil
	}
	if err := writeStackTable(w, result.Stacks); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %s %.0fms\n\n", colorInfo("took"), result.DurationMs)
	return nil
}

func writeStackTable(w io.Writer, entries []stacks.StackEntry) error {
	if len(entries) == 0 {
		fmt.Fprintf(w, "  %s\n", colorWarn("nothing detected"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DETECTOR\tID\tNAME\tVERSION\tNPM")
	for _, e := range entries {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			formatDetectorWithColor(e.Detector), e.ID, e.Name, orDash(e.Version), orDash(e.NPMName))
	}
	return tw.Flush()
}

func writeSignatureTable(w io.Writer, sigs []stacks.ServerSignature) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tMATCHERS")
	for i, sig := range sigs {
		matchers := make([]string, 0, len(sig.HeaderMatchers))
		for header, prefix := range sig.HeaderMatchers {
			if prefix == "" {
				matchers = append(matchers, header+" (present)")
				continue
			}
			matchers = append(matchers, fmt.Sprintf("%s^=%q", header, prefix))
		}
		slices.Sort(matchers)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, sig.ID, sig.Name, strings.Join(matchers, ", "))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
