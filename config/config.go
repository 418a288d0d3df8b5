package config

import (
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/httpserver"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const maxRetriesLimit = 10

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type AdminConfig struct {
	Address string `mapstructure:"address"`
}

type PoolConfig struct {
	Policy           string `mapstructure:"policy"`
	FailureThreshold int    `mapstructure:"failure_threshold"`
}

type ProxyConfig struct {
	MaxRetries   int    `mapstructure:"max_retries"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type TargetConfig struct {
	Address string `mapstructure:"address"`
	Weight  int    `mapstructure:"weight"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Admin   AdminConfig    `mapstructure:"admin"`
	Pool    PoolConfig     `mapstructure:"pool"`
	Proxy   ProxyConfig    `mapstructure:"proxy"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Targets []TargetConfig `mapstructure:"targets"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// Load reads config.yaml from the given directories, or from ./config and
// the working directory when none are given. Environment variables override
// file values, with dots in keys replaced by underscores (POOL_POLICY).
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("admin.address", ":9090")
	v.SetDefault("pool.policy", string(pool.PolicyRoundRobin))
	v.SetDefault("pool.failure_threshold", 3)
	v.SetDefault("proxy.max_retries", 1)
	v.SetDefault("proxy.read_timeout", "15s")
	v.SetDefault("proxy.write_timeout", "15s")
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("logging.level", LogLevelInfo)

	if len(searchPaths) == 0 {
		searchPaths = []string{"./config", "."}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range searchPaths {
		v.AddConfigPath(path)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	for i := range cfg.Targets {
		if cfg.Targets[i].Weight == 0 {
			cfg.Targets[i].Weight = 1
		}
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(httpserver.ValidateListenAddress),
					),
				)
			}),
		),
		validation.Field(&c.Admin,
			validation.Required,
			validation.By(func(value interface{}) error {
				ac, ok := value.(AdminConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an AdminConfig")
				}
				return validation.ValidateStruct(&ac,
					validation.Field(&ac.Address,
						validation.Required,
						validation.By(httpserver.ValidateListenAddress),
					),
				)
			}),
		),
		validation.Field(&c.Pool,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(PoolConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a PoolConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Policy,
						validation.Required,
						validation.By(validatePolicy),
					),
					validation.Field(&pc.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Proxy,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProxyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProxyConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.MaxRetries,
						validation.Min(0),
						validation.Max(maxRetriesLimit),
					),
					validation.Field(&pc.ReadTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.WriteTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.Required,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Targets,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateTargetConfig)),
		),
	)
}

// Timeouts returns the parsed proxy read and write timeouts.
func (p ProxyConfig) Timeouts() (read, write time.Duration) {
	read, _ = time.ParseDuration(p.ReadTimeout)
	write, _ = time.ParseDuration(p.WriteTimeout)
	return read, write
}

// Addresses returns target addresses in configured order.
func (c *Config) Addresses() []string {
	addresses := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		addresses = append(addresses, t.Address)
	}
	return addresses
}

// Weights returns the configured weight for every target.
func (c *Config) Weights() map[string]int {
	weights := make(map[string]int, len(c.Targets))
	for _, t := range c.Targets {
		if _, seen := weights[t.Address]; !seen {
			weights[t.Address] = t.Weight
		}
	}
	return weights
}

func validatePolicy(value interface{}) error {
	policy, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := pool.ParsePolicy(policy); err != nil {
		return validation.NewError("validation_invalid_policy", "must be one of round-robin, least-connections, weighted-round-robin, random")
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}

	return nil
}

func validateTargetConfig(value interface{}) error {
	target, ok := value.(TargetConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a TargetConfig")
	}

	if target.Address == "" {
		return validation.NewError("validation_empty_address", "target address cannot be empty")
	}

	if !strings.Contains(target.Address, "://") {
		return validation.NewError("validation_missing_scheme", "URL must include an http or https scheme")
	}

	if _, err := backend.ParseAddress(target.Address); err != nil {
		return validation.NewError("validation_invalid_address", "must be an http or https URL with a host")
	}

	if target.Weight < 1 {
		return validation.NewError("validation_invalid_weight", "weight must be at least 1")
	}

	return nil
}
