package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/pledgeforprogress/pledged/pkg/db"
	"github.com/pledgeforprogress/pledged/pkg/events"
	"github.com/pledgeforprogress/pledged/pkg/ledger"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

// EnvPrefix is prepended to environment overrides, e.g. PLEDGED_SERVER_PORT
const EnvPrefix = "PLEDGED"

type Server struct {
	// Port is a server port to listen to
	Port int `toml:"port"`
	// Bind a specific IP address, "*" or empty listens on all interfaces
	BindAddress string `toml:"bind_address"`
	// JWTSecret enables bearer token authentication (HS256, subject is the caller address).
	// When empty the X-Caller header is trusted, which is only suitable for development.
	JWTSecret string `toml:"jwt_secret"`
	// ShutdownTimeout is how long to wait for in-flight requests on exit
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type Redis struct {
	// URL of the redis server to publish events to, disabled if empty
	URL string `toml:"url"`
	// Prefix for channel and key names
	Prefix string `toml:"prefix"`
}

type Report struct {
	// Schedule is a cron expression for logging the campaign status, disabled if empty
	Schedule string `toml:"schedule"`
}

type Log struct {
	// Debug enables debug logging
	Debug bool `toml:"debug"`
	// Format is either "text" (default) or "json"
	Format string `toml:"format"`
}

type Config struct {
	// Server is the web server configuration
	Server Server `toml:"server"`
	// Campaign defines the goal and the beneficiary, both are fixed once the database is created
	Campaign ledger.Config `toml:"campaign"`
	// Database configuration
	Database db.Config `toml:"database"`
	// Redis event publisher configuration
	Redis Redis `toml:"redis"`
	// Hooks are commands to run for campaign events
	Hooks []*events.ExecHook `toml:"hooks"`
	// Report is the periodic status report configuration
	Report Report `toml:"report"`
	// Log is the optional logging configuration
	Log Log `toml:"log"`
}

// LoadConfig loads TOML configuration from a file path and applies environment overrides
func LoadConfig(path string) (*Config, error) {
	config := Config{}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file: %s", path)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	config.applyDefaults(path)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, out *string) {
		if v.IsSet(key) {
			*out = v.GetString(key)
		}
	}

	str("server.bind_address", &c.Server.BindAddress)
	str("server.jwt_secret", &c.Server.JWTSecret)
	str("database.dir", &c.Database.Dir)
	str("database.postgres_url", &c.Database.PostgresURL)
	str("redis.url", &c.Redis.URL)
	str("report.schedule", &c.Report.Schedule)

	if v.IsSet("server.port") {
		c.Server.Port = v.GetInt("server.port")
	}

	if v.IsSet("campaign.beneficiary") {
		c.Campaign.Beneficiary = model.Address(v.GetString("campaign.beneficiary"))
	}

	if v.IsSet("campaign.goal") {
		goal, err := strconv.ParseUint(v.GetString("campaign.goal"), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s_CAMPAIGN_GOAL", EnvPrefix)
		}
		c.Campaign.Goal = goal
	}

	if v.IsSet("log.debug") {
		c.Log.Debug = v.GetBool("log.debug")
	}

	return nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Campaign.Goal == 0 {
		result = multierror.Append(result, errors.New("campaign goal must be positive"))
	}

	if _, err := model.ParseAddress(string(c.Campaign.Beneficiary)); err != nil {
		result = multierror.Append(result, errors.Errorf("invalid beneficiary %q", c.Campaign.Beneficiary))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, errors.Errorf("invalid server port %d", c.Server.Port))
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		result = multierror.Append(result, errors.Errorf("unsupported log format %q", c.Log.Format))
	}

	if c.Report.Schedule != "" {
		if _, err := cron.ParseStandard(c.Report.Schedule); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid report schedule %q", c.Report.Schedule))
		}
	}

	for i, hook := range c.Hooks {
		if len(hook.Command) == 0 {
			result = multierror.Append(result, errors.Errorf("hook %d has no command", i))
		}
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Server.Port == 0 {
		c.Server.Port = model.DefaultPort
	}

	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	if c.Campaign.Goal == 0 {
		c.Campaign.Goal = model.DefaultGoal
	}

	if c.Campaign.Beneficiary == "" {
		c.Campaign.Beneficiary = model.DefaultBeneficiary
	}

	if c.Database.Dir == "" {
		c.Database.Dir = filepath.Join(filepath.Dir(configPath), "db")
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = model.DefaultRedisPrefix
	}

	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	for _, hook := range c.Hooks {
		if hook.Timeout == 0 {
			hook.Timeout = model.DefaultHookTimeout
		}
	}
}
