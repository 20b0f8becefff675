package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	SMTP     SMTPConfig
	Mail     MailConfig
	Printer  PrinterConfig
	Artifact ArtifactConfig
	Render   RenderConfig
	Ops      OpsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	MaxSizeMB  int    // rotate after this size when Output is a file
	MaxBackups int    // rotated files to keep
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings (shared printer cache backend)
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds the claim/poll loop settings
type QueueConfig struct {
	PollInterval  time.Duration
	Workers       int           // pool size; also the claim batch size
	StaleTimeout  time.Duration // Processing older than this is released
	SweepInterval time.Duration // how often the stale sweep runs
}

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// MailConfig holds delivery routing and retry settings
type MailConfig struct {
	DefaultTo   []string // used when the supplier has no contact record
	AlwaysCc    []string // merged into every delivery
	MaxAttempts int
	BaseDelay   time.Duration
}

// PrinterConfig holds network printer discovery and dispatch settings
type PrinterConfig struct {
	Port         int
	ProbeTimeout time.Duration
	ScanWorkers  int
	CacheTTL     time.Duration
	CacheBackend string // inmemory or redis
	Copies       int
}

// ArtifactConfig holds the encrypted verification artifact settings
type ArtifactConfig struct {
	Password string
	QRDir    string
}

// RenderConfig holds document rendering settings
type RenderConfig struct {
	WkhtmltopdfPath string
	TemplatePath    string
	OutputDir       string
	Timeout         time.Duration
}

// OpsConfig holds the operational HTTP endpoint settings
type OpsConfig struct {
	Enabled bool
	Addr    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with KTHIMI_ prefix (e.g., KTHIMI_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("KTHIMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			PollInterval:  v.GetDuration("queue.poll_interval"),
			Workers:       v.GetInt("queue.workers"),
			StaleTimeout:  v.GetDuration("queue.stale_timeout"),
			SweepInterval: v.GetDuration("queue.sweep_interval"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
			Timeout:  v.GetDuration("smtp.timeout"),
		},
		Mail: MailConfig{
			DefaultTo:   v.GetStringSlice("mail.default_to"),
			AlwaysCc:    v.GetStringSlice("mail.always_cc"),
			MaxAttempts: v.GetInt("mail.max_attempts"),
			BaseDelay:   v.GetDuration("mail.base_delay"),
		},
		Printer: PrinterConfig{
			Port:         v.GetInt("printer.port"),
			ProbeTimeout: v.GetDuration("printer.probe_timeout"),
			ScanWorkers:  v.GetInt("printer.scan_workers"),
			CacheTTL:     v.GetDuration("printer.cache_ttl"),
			CacheBackend: v.GetString("printer.cache_backend"),
			Copies:       v.GetInt("printer.copies"),
		},
		Artifact: ArtifactConfig{
			Password: v.GetString("artifact.password"),
			QRDir:    v.GetString("artifact.qr_dir"),
		},
		Render: RenderConfig{
			WkhtmltopdfPath: v.GetString("render.wkhtmltopdf_path"),
			TemplatePath:    v.GetString("render.template_path"),
			OutputDir:       v.GetString("render.output_dir"),
			Timeout:         v.GetDuration("render.timeout"),
		},
		Ops: OpsConfig{
			Enabled: v.GetBool("ops.enabled"),
			Addr:    v.GetString("ops.addr"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kthimi-invoicer"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 5
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "printimi"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = 10 * time.Second
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 5
	}
	if cfg.Queue.StaleTimeout == 0 {
		cfg.Queue.StaleTimeout = 30 * time.Minute
	}
	if cfg.Queue.SweepInterval == 0 {
		cfg.Queue.SweepInterval = 5 * time.Minute
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 2525
	}
	if cfg.SMTP.Timeout == 0 {
		cfg.SMTP.Timeout = 15 * time.Second
	}
	if cfg.Mail.MaxAttempts == 0 {
		cfg.Mail.MaxAttempts = 3
	}
	if cfg.Mail.BaseDelay == 0 {
		cfg.Mail.BaseDelay = time.Second
	}
	if cfg.Printer.Port == 0 {
		cfg.Printer.Port = 9100
	}
	if cfg.Printer.ProbeTimeout == 0 {
		cfg.Printer.ProbeTimeout = 2 * time.Second
	}
	if cfg.Printer.ScanWorkers == 0 {
		cfg.Printer.ScanWorkers = 50
	}
	if cfg.Printer.CacheTTL == 0 {
		cfg.Printer.CacheTTL = 30 * time.Minute
	}
	if cfg.Printer.CacheBackend == "" {
		cfg.Printer.CacheBackend = "inmemory"
	}
	if cfg.Printer.Copies == 0 {
		cfg.Printer.Copies = 2
	}
	if cfg.Artifact.QRDir == "" {
		cfg.Artifact.QRDir = "artifacts/qr"
	}
	if cfg.Render.WkhtmltopdfPath == "" {
		cfg.Render.WkhtmltopdfPath = "wkhtmltopdf"
	}
	if cfg.Render.TemplatePath == "" {
		cfg.Render.TemplatePath = "templates/invoice.html"
	}
	if cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = "artifacts/pdf"
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Ops.Addr == "" {
		cfg.Ops.Addr = ":8090"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}
	if c.Mail.MaxAttempts <= 0 {
		return fmt.Errorf("mail.max_attempts must be positive")
	}
	if c.Printer.CacheBackend != "inmemory" && c.Printer.CacheBackend != "redis" {
		return fmt.Errorf("printer.cache_backend must be inmemory or redis, got %q", c.Printer.CacheBackend)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Artifact.Password == "" {
			return fmt.Errorf("artifact.password is required in production")
		}
		if c.SMTP.Host == "" {
			return fmt.Errorf("smtp.host is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
