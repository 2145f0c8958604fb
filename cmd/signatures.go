package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures",
	Short: "Print the effective server signature table in precedence order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(cliConfig.Output.Format); err != nil {
			return err
		}
		sigs, err := loadServerSignatures(cliConfig.Data)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cliConfig.Output.Format == outputFormatJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sigs)
		}
		return writeSignatureTable(out, sigs)
	},
}

func init() {
	signaturesCmd.Flags().StringVar(&cliConfig.Data.ServersPath, "servers", "", "server signature table in YAML (default: built-in table)")
	signaturesCmd.Flags().StringVarP(&cliConfig.Output.Format, "format", "f", cliConfig.Output.Format, "output format: json or text")
}
