package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 支援的資料庫驅動
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Scraper ScraperConfig
	Auth    AuthConfig
	Log     LogConfig
}

type ServerConfig struct {
	Address         string
	Mode            string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Driver          string
	URL             string
	Host            string
	User            string
	Password        string
	Name            string
	Port            int
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectRetries  uint          `mapstructure:"connect_retries"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type ScraperConfig struct {
	Timeout      time.Duration
	UserAgent    string `mapstructure:"user_agent"`
	Retries      int
	MaxBodyBytes int `mapstructure:"max_body_bytes"` // 0 表示不限制
}

type AuthConfig struct {
	Enabled      bool
	JWTSecret    string        `mapstructure:"jwt_secret"`
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string
	Format string
}

// 與原有部署相容的環境變數
var envBindings = map[string]string{
	"db.url":      "DATABASE_URL",
	"db.driver":   "DB_DRIVER",
	"db.host":     "DB_HOST",
	"db.port":     "DB_PORT",
	"db.user":     "DB_USER",
	"db.password": "DB_PASSWORD",
	"db.name":     "DB_NAME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.driver", DriverMySQL)
	v.SetDefault("db.url", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "facturas_db")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.connect_retries", 5)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("scraper.timeout", 15*time.Second)
	v.SetDefault("scraper.user_agent", "facturas-api/1.0 (+https://github.com/facturas_api)")
	v.SetDefault("scraper.retries", 0)
	v.SetDefault("scraper.max_body_bytes", 5<<20)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load 讀取配置：預設值 → YAML 文件 → .env → 環境變數
// path 為空時在 ./pkg/config 與目前目錄尋找 config.yaml，找不到文件不視為錯誤
func Load(path string) (*Config, error) {
	// .env 只是方便本地開發，不存在時忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./pkg/config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("FACTURAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env, "FACTURAS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// PORT 沿用原服務的習慣，只給埠號
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FACTURAS_SERVER_ADDRESS") == "" {
		config.Server.Address = ":" + port
	}

	config.DB.Driver = strings.ToLower(config.DB.Driver)
	if config.DB.Port == 0 {
		config.DB.Port = defaultPort(config.DB.Driver)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 檢查配置是否合理
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required when auth is enabled")
		}
		if c.Auth.PasswordHash == "" {
			return errors.New("auth.password_hash is required when auth is enabled")
		}
	}

	if c.Scraper.Retries < 0 {
		return errors.New("scraper.retries must not be negative")
	}
	if c.Scraper.MaxBodyBytes < 0 {
		return errors.New("scraper.max_body_bytes must not be negative")
	}

	return nil
}

func defaultPort(driver string) int {
	switch driver {
	case DriverPostgres:
		return 5432
	case DriverMySQL:
		return 3306
	default:
		return 0
	}
}
