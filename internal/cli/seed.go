package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"facturas_api/internal/repository"
	"facturas_api/internal/seed"
)

// NewSeedCommand 建立插入範例發票的子命令
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Inserta facturas de ejemplo",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lggr, db, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer lggr.Sync() //nolint:errcheck
			defer db.Close()

			if err := migrate(db, lggr); err != nil {
				return err
			}

			n, err := seed.Run(cmd.Context(), repository.NewFacturaRepository(db), lggr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total de facturas insertadas: %d\n", n)
			return nil
		},
	}
}
