package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"facturas_api/internal/models"
	"facturas_api/internal/storage"
	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

// RootOptions 保存所有子命令共用的旗標
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand 建立 facturas 命令列，未指定子命令時啟動伺服器
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	serve := NewServeCommand(opts)
	cmd := &cobra.Command{
		Use:           "facturas",
		Short:         "Facturas API",
		Long:          "API REST de facturas con extracción de datos desde páginas HTML.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "ruta del archivo de configuración (yaml)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand())

	return cmd
}

// bootstrap 載入配置、建立 logger 並連線資料庫
func bootstrap(ctx context.Context, opts *RootOptions) (*config.Config, logger.Logger, *storage.Database, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	lggr, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := storage.NewDatabase(ctx, cfg.DB, lggr)
	if err != nil {
		_ = lggr.Sync()
		return nil, nil, nil, err
	}

	return cfg, lggr, db, nil
}

// migrate 根據模型自動創建或更新資料表
func migrate(db *storage.Database, lggr logger.Logger) error {
	if err := db.AutoMigrate(&models.Factura{}); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	lggr.Info("database schema up to date")
	return nil
}
