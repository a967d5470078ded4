package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DBConfig
		wantUser string
		wantPass string
		wantAddr string
		wantDB   string
	}{
		{
			name:     "from parts",
			cfg:      config.DBConfig{Host: "localhost", Port: 3306, User: "root", Name: "facturas_db"},
			wantUser: "root",
			wantAddr: "localhost:3306",
			wantDB:   "facturas_db",
		},
		{
			name:     "from mysql url",
			cfg:      config.DBConfig{URL: "mysql://app:secreto@db:3307/facturas"},
			wantUser: "app",
			wantPass: "secreto",
			wantAddr: "db:3307",
			wantDB:   "facturas",
		},
		{
			name:     "url without port",
			cfg:      config.DBConfig{URL: "mysql://app:secreto@db/facturas"},
			wantUser: "app",
			wantPass: "secreto",
			wantAddr: "db:3306",
			wantDB:   "facturas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := MySQLDSN(tt.cfg)
			require.NoError(t, err)

			parsed, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, parsed.User)
			assert.Equal(t, tt.wantPass, parsed.Passwd)
			assert.Equal(t, "tcp", parsed.Net)
			assert.Equal(t, tt.wantAddr, parsed.Addr)
			assert.Equal(t, tt.wantDB, parsed.DBName)
			assert.True(t, parsed.ParseTime)
		})
	}
}

func TestMySQLDSN_Passthrough(t *testing.T) {
	dsn, err := MySQLDSN(config.DBConfig{URL: "app:pw@tcp(db:3306)/facturas"})
	require.NoError(t, err)
	assert.Equal(t, "app:pw@tcp(db:3306)/facturas", dsn)
}

func TestMySQLDSN_URLQuery(t *testing.T) {
	dsn, err := MySQLDSN(config.DBConfig{URL: "mysql://app:pw@db:3306/facturas?timeout=5s"})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.DBConfig{Host: "pg", Port: 5432, User: "u", Password: "p", Name: "facturas"}
	assert.Equal(t, "host=pg user=u password=p dbname=facturas port=5432 sslmode=disable", PostgresDSN(cfg))

	cfg.URL = "postgres://u:p@pg:5432/facturas"
	assert.Equal(t, cfg.URL, PostgresDSN(cfg))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "facturas_db.db", SQLiteDSN(config.DBConfig{Name: "facturas_db"}))
	assert.Equal(t, "data/app.db", SQLiteDSN(config.DBConfig{Name: "data/app.db"}))
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN(config.DBConfig{Name: ":memory:"}))
	assert.Equal(t, "/tmp/x.db", SQLiteDSN(config.DBConfig{URL: "sqlite:///tmp/x.db"}))
}

func TestDialector_UnsupportedDriver(t *testing.T) {
	_, err := Dialector(config.DBConfig{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported db driver")
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := NewDatabase(context.Background(), cfg, logger.Test(t))
	require.NoError(t, err)

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestNewDatabase_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DBConfig{
		Driver:         config.DriverSQLite,
		Name:           filepath.Join(t.TempDir(), "test.db"),
		ConnectRetries: 3,
	}
	_, err := NewDatabase(ctx, cfg, logger.Nop())
	require.Error(t, err)
}
