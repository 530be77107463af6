package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pricebook/internal/export"
	"github.com/sells-group/pricebook/internal/ledger"
)

var (
	exportProject string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project's prices and summaries to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportProject == "" {
			return eris.New("--project is required")
		}
		if exportOut == "" {
			return eris.New("--out is required")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		exp := export.New(st, ledger.NewService(st))
		return exp.WriteWorkbook(cmd.Context(), exportProject, exportOut)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportProject, "project", "", "project id to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output .xlsx path")
	rootCmd.AddCommand(exportCmd)
}
