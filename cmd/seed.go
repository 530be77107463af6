package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pricebook/internal/ledger"
	"github.com/sells-group/pricebook/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog and price fixtures from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return eris.New("--file is required")
		}

		f, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}

		return seed.Run(cmd.Context(), st, ledger.NewService(st), f)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to fixtures YAML")
	rootCmd.AddCommand(seedCmd)
}
