// Command rowcheck checks spreadsheet files against templates without a
// server or database.
//
//	rowcheck validate orders.csv -t orders --templates-dir ./templates
//	rowcheck convert orders.xlsx -s orders.yaml > rows.jsonl
//	rowcheck infer export.csv --format yaml
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rowcheck",
		Short:         "Check spreadsheet files against row templates",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newValidateCmd(),
		newConvertCmd(),
		newInferCmd(),
		newTemplatesCmd(),
		newSchemaCmd(),
	)
	return root
}
