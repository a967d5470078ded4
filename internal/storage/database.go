package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

// Database 包裝 gorm.DB，整個服務共用同一個連線池
type Database struct {
	*gorm.DB
}

// NewDatabase 依照配置開啟資料庫連線，連線失敗時按 connect_retries 重試
func NewDatabase(ctx context.Context, cfg config.DBConfig, lggr logger.Logger) (*Database, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	err = retry.Do(
		func() error {
			conn, err := gorm.Open(dialector, &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormlogger.Silent),
			})
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				_ = sqlDB.Close()
				return err
			}
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectRetries+1),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(8*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			lggr.Warnw("database not ready, retrying", "driver", cfg.Driver, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	// SQLite 同一時間只允許一個寫入者
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	lggr.Infow("database connected", "driver", cfg.Driver)
	return &Database{DB: db}, nil
}

// Dialector 根據驅動名稱建立對應的 gorm Dialector
func Dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn, err := MySQLDSN(cfg)
		if err != nil {
			return nil, err
		}
		return gormmysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(PostgresDSN(cfg)), nil
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

// MySQLDSN 產生 go-sql-driver 格式的 DSN，支援 mysql:// 形式的 DATABASE_URL
func MySQLDSN(cfg config.DBConfig) (string, error) {
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "mysql://") {
		// 已經是 driver 格式
		return cfg.URL, nil
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.ParseTime = true

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
		mc.Addr = u.Host
		if u.Port() == "" {
			mc.Addr = u.Host + ":3306"
		}
		mc.DBName = strings.TrimPrefix(u.Path, "/")
		// 查詢參數交給 driver 自己解析
		dsn := mc.FormatDSN()
		if u.RawQuery != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + u.RawQuery
		}
		return dsn, nil
	}

	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	return mc.FormatDSN(), nil
}

// PostgresDSN 產生 PostgreSQL 連線字串，pgx 可直接接受 URL
func PostgresDSN(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

// SQLiteDSN 回傳 SQLite 文件路徑，預設在目前目錄以資料庫名稱建立文件
func SQLiteDSN(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return strings.TrimPrefix(cfg.URL, "sqlite://")
	}
	if cfg.Name == "" || cfg.Name == ":memory:" {
		return "file::memory:?cache=shared"
	}
	if strings.HasSuffix(cfg.Name, ".db") {
		return cfg.Name
	}
	return cfg.Name + ".db"
}

// Ping 檢查資料庫是否可用
func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 自動遷移資料庫結構
func (db *Database) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}
