// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/chatseed/internal/mongodb"
	"github.com/dalemusser/chatseed/internal/password"
	"github.com/dalemusser/chatseed/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment variable except MONGODB_URI,
// which is also read unprefixed.
const EnvPrefix = "CHATSEED"

// DefaultDatabase is used when neither mongodb_database nor the URI path names one.
const DefaultDatabase = "chat_db"

// MongoConfig groups the connection string and connection policy.
type MongoConfig struct {
	URI      string `mapstructure:"mongodb_uri"`
	Database string `mapstructure:"mongodb_database"`

	// Durations are parsed separately so "5s", "5000ms" and plain seconds all work.
	ServerSelectionTimeout time.Duration `mapstructure:"-"`
	ConnectTimeout         time.Duration `mapstructure:"-"`
	SocketTimeout          time.Duration `mapstructure:"-"`

	PreferIPv4 bool `mapstructure:"prefer_ipv4"`
}

// Config holds everything the chatseed commands read at startup.
type Config struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	Mongo MongoConfig `mapstructure:",squash"`

	// seeding
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// DatabaseName resolves the database to use: mongodb_database, then the
// URI path, then DefaultDatabase.
func (c Config) DatabaseName() string {
	if db := strings.TrimSpace(c.Mongo.Database); db != "" {
		return db
	}
	if db := mongodb.DatabaseFromURI(c.Mongo.URI); db != "" {
		return db
	}
	return DefaultDatabase
}

// ConnectOptions converts the Mongo settings to a connection policy.
func (c Config) ConnectOptions() mongodb.ConnectOptions {
	opts := mongodb.DefaultConnectOptions(c.Mongo.URI)
	opts.ServerSelectionTimeout = c.Mongo.ServerSelectionTimeout
	opts.ConnectTimeout = c.Mongo.ConnectTimeout
	opts.SocketTimeout = c.Mongo.SocketTimeout
	opts.PreferIPv4 = c.Mongo.PreferIPv4
	opts.AppName = "chatseed"
	return opts
}

// Dump returns a pretty JSON string of the config with credentials redacted.
// Use at debug level only.
func (c Config) Dump() string {
	cp := c
	cp.Mongo.URI = mongodb.RedactURI(cp.Mongo.URI)
	b, _ := json.MarshalIndent(cp, "", "  ")
	return string(b)
}

// Load merges defaults → config.* file → .env → env vars → explicit flags.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
// args are the command-line arguments without the program name.
func Load(logger *zap.Logger, args []string) (*Config, error) {
	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Flags; only explicitly set flags override.
	fs := pflag.NewFlagSet("chatseed", pflag.ContinueOnError)
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "info", "Log level")
	fs.String("mongodb_uri", "", "MongoDB connection string (or MONGODB_URI)")
	fs.String("mongodb_database", "", "Database name (default: from URI path, else "+DefaultDatabase+")")
	fs.String("server_selection_timeout", "5s", "Give up selecting a server after this long (max 5s)")
	fs.String("connect_timeout", "5s", "TCP/TLS handshake timeout")
	fs.String("socket_timeout", "45s", "Close sockets idle on a read/write for this long")
	fs.Bool("prefer_ipv4", true, "Dial IPv4 only")
	fs.Int("bcrypt_cost", int(password.DefaultCost), "bcrypt cost for seeded passwords")
	fs.String("metrics_textfile", "", "Write Prometheus metrics to this file after seeding (empty disables)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}
	// The chat backend has always read MONGODB_URI unprefixed.
	_ = v.BindEnv("mongodb_uri", EnvPrefix+"_MONGODB_URI", "MONGODB_URI")

	// 3) Optional config.* file (yaml|yml|json|toml)
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	// 4) Defaults
	setDefaults(v)

	// 5) Explicit flags
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) Build struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	var invalid []string
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"server_selection_timeout", mongodb.DefaultServerSelectionTimeout, &cfg.Mongo.ServerSelectionTimeout},
		{"connect_timeout", mongodb.DefaultConnectTimeout, &cfg.Mongo.ConnectTimeout},
		{"socket_timeout", mongodb.DefaultSocketTimeout, &cfg.Mongo.SocketTimeout},
	}
	for _, d := range durations {
		dur, err := parseDuration(v.Get(d.key), d.def)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s: %v", d.key, err))
		}
		*d.dst = dur
	}

	// 7) Validate
	if err := validate(cfg, invalid); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"mongodb_uri", "mongodb_database",
		"server_selection_timeout", "connect_timeout", "socket_timeout",
		"prefer_ipv4",
		"bcrypt_cost", "metrics_textfile",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("mongodb_uri", "")
	v.SetDefault("mongodb_database", "")
	v.SetDefault("server_selection_timeout", "5s")
	v.SetDefault("connect_timeout", "5s")
	v.SetDefault("socket_timeout", "45s")
	v.SetDefault("prefer_ipv4", true)

	v.SetDefault("bcrypt_cost", int(password.DefaultCost))
	v.SetDefault("metrics_textfile", "")
}

func validate(cfg Config, invalid []string) error {
	var missing []string

	if strings.TrimSpace(cfg.Mongo.URI) == "" {
		missing = append(missing, "MONGODB_URI (or "+EnvPrefix+"_MONGODB_URI / --mongodb_uri)")
	} else if err := mongodb.ValidateURI(cfg.Mongo.URI); err != nil {
		invalid = append(invalid, "mongodb_uri: "+err.Error())
	}

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}
	if !logging.IsValidLogLevel(cfg.LogLevel) {
		invalid = append(invalid, "log_level must be one of "+strings.Join(logging.ValidLogLevels, ", "))
	}
	if cfg.Mongo.ServerSelectionTimeout > mongodb.DefaultServerSelectionTimeout {
		invalid = append(invalid, fmt.Sprintf("server_selection_timeout must be at most %s", mongodb.DefaultServerSelectionTimeout))
	}
	if !password.Cost(cfg.BcryptCost).Valid() {
		invalid = append(invalid, fmt.Sprintf("bcrypt_cost must be in %d..%d", password.MinCost, password.MaxCost))
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
