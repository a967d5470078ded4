package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"facturas_api/internal/api"
	"facturas_api/internal/middleware"
	"facturas_api/internal/repository"
	"facturas_api/internal/scraper"
	"facturas_api/internal/service"
)

// NewServeCommand 建立啟動 HTTP 伺服器的子命令
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, lggr, db, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer lggr.Sync() //nolint:errcheck
			// 確保在程序結束時關閉數據庫連接
			defer func() {
				if err := db.Close(); err != nil {
					lggr.Errorw("failed to close database", "error", err)
					return
				}
				lggr.Info("database connection closed")
			}()

			if cfg.DB.AutoMigrate {
				if err := migrate(db, lggr); err != nil {
					return err
				}
			}

			repos := repository.NewRepositories(db)
			services := service.NewServices(repos, scraper.NewClient(cfg.Scraper, lggr), cfg, lggr)

			gin.SetMode(cfg.Server.Mode)
			r := api.NewRouter(services, db, middleware.Logger(lggr))

			srv := &http.Server{
				Addr:    cfg.Server.Address,
				Handler: r,
			}

			errCh := make(chan error, 1)
			go func() {
				lggr.Infow("server running", "address", cfg.Server.Address, "auth", cfg.Auth.Enabled)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			lggr.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
