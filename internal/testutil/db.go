// Package testutil 提供測試共用的資料庫輔助函式。
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"facturas_api/internal/models"
	"facturas_api/internal/storage"
	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

// OpenTestDB 在 t.TempDir() 建立已遷移的 SQLite 資料庫，測試結束時自動關閉
func OpenTestDB(t *testing.T) *storage.Database {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "facturas_test.db"),
	}
	db, err := storage.NewDatabase(context.Background(), cfg, logger.Test(t))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Factura{}))

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

// StrPtr 回傳字串指標
func StrPtr(s string) *string {
	return &s
}
