package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type RateLimit struct {
	RPS   float64
	Burst int
}

type App struct {
	Name              string
	Env               string
	HTTP              HTTP
	CORSOrigins       []string  `mapstructure:"cors_origins"`
	RequestTimeoutSec int       `mapstructure:"request_timeout_sec"`
	MaxConcurrent     int64     `mapstructure:"max_concurrent"`
	MaxBodyMB         int64     `mapstructure:"max_body_mb"`
	RateLimit         RateLimit `mapstructure:"rate_limit"`
	AuthRateLimit     RateLimit `mapstructure:"auth_rate_limit"`
}

type FileRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate FileRotate
}

type JWT struct {
	Issuer          string
	AccessSecret    string `mapstructure:"access_secret"`
	AccessTTLMin    int    `mapstructure:"access_ttl_min"`
	RefreshSecret   string `mapstructure:"refresh_secret"`
	RefreshTTLHours int    `mapstructure:"refresh_ttl_hours"`
}

type Redis struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	SettingsTTL int    `mapstructure:"settings_ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	StatementTimeoutMs int    `mapstructure:"statement_timeout_ms"`
	LockTimeoutMs      int    `mapstructure:"lock_timeout_ms"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Upload struct {
	Dir          string
	PublicPrefix string `mapstructure:"public_prefix"`
	MaxFileMB    int64  `mapstructure:"max_file_mb"`
	MaxFiles     int    `mapstructure:"max_files"`
	LogoMaxMB    int64  `mapstructure:"logo_max_mb"`
}

type Jobs struct {
	TokenPurgeSpec     string `mapstructure:"token_purge_spec"`
	TokenRetentionDays int    `mapstructure:"token_retention_days"`
}

type Auth struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Upload Upload
	Jobs   Jobs
	Auth   Auth
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTTLMin) * time.Minute }
func (j JWT) RefreshTTL() time.Duration { return time.Duration(j.RefreshTTLHours) * time.Hour }

func (a App) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSec) * time.Second
}

func (r Redis) TTL() time.Duration { return time.Duration(r.SettingsTTL) * time.Second }

func (j Jobs) TokenRetention() time.Duration {
	return time.Duration(j.TokenRetentionDays) * 24 * time.Hour
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketplace-api")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 4000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("app.request_timeout_sec", 15)
	v.SetDefault("app.max_concurrent", 256)
	v.SetDefault("app.max_body_mb", 40)
	v.SetDefault("app.rate_limit.rps", 50)
	v.SetDefault("app.rate_limit.burst", 100)
	v.SetDefault("app.auth_rate_limit.rps", 1)
	v.SetDefault("app.auth_rate_limit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/api.log")
	v.SetDefault("log.rotate.max_size_mb", 100)
	v.SetDefault("log.rotate.max_backups", 7)
	v.SetDefault("log.rotate.max_age_days", 30)

	v.SetDefault("jwt.issuer", "marketplace-api")
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.access_ttl_min", 15)
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.refresh_ttl_hours", 24*7)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.statement_timeout_ms", 5000)
	v.SetDefault("db.lock_timeout_ms", 3000)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.settings_ttl_sec", 300)

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.public_prefix", "/uploads")
	v.SetDefault("upload.max_file_mb", 5)
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.logo_max_mb", 2)

	v.SetDefault("jobs.token_purge_spec", "@every 1h")
	v.SetDefault("jobs.token_retention_days", 7)

	v.SetDefault("auth.bcrypt_cost", 10)
}

// Load reads the YAML file at path (or CONFIG_PATH) and applies APP_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("config: jwt.access_secret and jwt.refresh_secret are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("config: jwt access and refresh secrets must differ")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("config: db.dsn is required")
	}
	return nil
}
