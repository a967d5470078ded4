package cli

import (
	"github.com/spf13/cobra"
)

// NewMigrateCommand 建立只執行資料表遷移的子命令
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Crea o actualiza la tabla facturas",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lggr, db, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer lggr.Sync() //nolint:errcheck
			defer db.Close()

			return migrate(db, lggr)
		},
	}
}
