package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string        `mapstructure:"app_env"`
	Port        string        `mapstructure:"port"`
	DatabaseURL string        `mapstructure:"database_url"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	CORSOrigins []string      `mapstructure:"cors_origins"`

	// ordering rules
	Timezone      string        `mapstructure:"app_timezone"`
	ClosingBuffer time.Duration `mapstructure:"order_closing_buffer"`
	HorizonDays   int           `mapstructure:"schedule_horizon_days"`

	R2              R2Config      `mapstructure:",squash"`
	ArchiveInterval time.Duration `mapstructure:"archive_interval"`
}

// R2Config points at the bucket receipts are archived to
type R2Config struct {
	AccessKey string `mapstructure:"r2_access_key"`
	SecretKey string `mapstructure:"r2_secret_key"`
	Bucket    string `mapstructure:"r2_bucket_name"`
	Endpoint  string `mapstructure:"r2_endpoint"`
}

func (r R2Config) Enabled() bool {
	return r.AccessKey != "" && r.SecretKey != "" && r.Bucket != "" && r.Endpoint != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8000")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("app_timezone", "Local")
	v.SetDefault("order_closing_buffer", "30m")
	v.SetDefault("schedule_horizon_days", 7)
	v.SetDefault("r2_access_key", "")
	v.SetDefault("r2_secret_key", "")
	v.SetDefault("r2_bucket_name", "")
	v.SetDefault("r2_endpoint", "")
	v.SetDefault("archive_interval", "1m")
}

// LoadDotEnv reads .env outside production
func LoadDotEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// Load reads cfgFile when given, then the environment, into a Config.
// Flags bound on v before the call take precedence.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			c.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.HorizonDays < 1 {
		errs = append(errs, fmt.Errorf("SCHEDULE_HORIZON_DAYS must be at least 1, got %d", c.HorizonDays))
	}
	if c.ClosingBuffer < 0 {
		errs = append(errs, errors.New("ORDER_CLOSING_BUFFER must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location is the timezone every schedule is read in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return loc, nil
}
