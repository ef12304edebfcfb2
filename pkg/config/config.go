package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/user/relay-service/internal/entity"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Empty disables the publish log.
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	FetchTimeoutSeconds    int `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	PublishTimeoutSeconds  int `mapstructure:"PUBLISH_TIMEOUT_SECONDS"`
	TransferTimeoutSeconds int `mapstructure:"TRANSFER_TIMEOUT_SECONDS"`
	SessionTTLHours        int `mapstructure:"SESSION_TTL_HOURS"`

	DefaultSelector       string `mapstructure:"DEFAULT_SELECTOR"`
	ReloginOnStaleSession bool   `mapstructure:"RELOGIN_ON_STALE_SESSION"`

	Editor135BaseURL  string `mapstructure:"EDITOR135_BASE_URL"`
	Editor135Account  string `mapstructure:"EDITOR135_ACCOUNT"`
	Editor135Password string `mapstructure:"EDITOR135_PASSWORD"`

	Weixin96BaseURL  string `mapstructure:"WEIXIN96_BASE_URL"`
	Weixin96Phone    string `mapstructure:"WEIXIN96_PHONE"`
	Weixin96Password string `mapstructure:"WEIXIN96_PASSWORD"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine; production configures purely through the environment.
	_ = v.ReadInConfig()

	setDefaults(v)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"REDIS_PASSWORD", "POSTGRES_URL",
		"EDITOR135_ACCOUNT", "EDITOR135_PASSWORD",
		"WEIXIN96_PHONE", "WEIXIN96_PASSWORD",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("PUBLISH_TIMEOUT_SECONDS", 10)
	v.SetDefault("TRANSFER_TIMEOUT_SECONDS", 30)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("DEFAULT_SELECTOR", entity.DefaultSelector)
	v.SetDefault("RELOGIN_ON_STALE_SESSION", false)
	v.SetDefault("EDITOR135_BASE_URL", "https://www.135editor.com")
	v.SetDefault("WEIXIN96_BASE_URL", "https://bj.96weixin.com")
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutSeconds) * time.Second
}

func (c *Config) TransferTimeout() time.Duration {
	return time.Duration(c.TransferTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Credentials implements repository.CredentialsProvider.
func (c *Config) Credentials(channel entity.Channel) (entity.Credentials, bool) {
	var creds entity.Credentials
	switch channel {
	case entity.ChannelEditor135:
		creds = entity.Credentials{Account: c.Editor135Account, Password: c.Editor135Password}
	case entity.ChannelWeixin96:
		creds = entity.Credentials{Account: c.Weixin96Phone, Password: c.Weixin96Password}
	default:
		return creds, false
	}
	return creds, creds.Account != "" && creds.Password != ""
}
