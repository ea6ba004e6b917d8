package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Version is the tool version reported by the serve API
const Version = "1.0.0"

// ServeConfig represents the HTTP serve-mode configuration
type ServeConfig struct {
	Address   string `json:"address" mapstructure:"address"`
	Port      int    `json:"port" mapstructure:"port"`
	EnableH2C bool   `json:"enable_h2c" mapstructure:"enable_h2c"`
	Username  string `json:"username" mapstructure:"username"`
	Password  string `json:"password" mapstructure:"password"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console, json
}

// Config represents the main configuration
type Config struct {
	Serve     ServeConfig `json:"serve" mapstructure:"serve"`
	Log       LogConfig   `json:"log" mapstructure:"log"`
	DataDir   string      `json:"data_dir" mapstructure:"data_dir"`
	JWTSecret string      `json:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpire int         `json:"jwt_expire" mapstructure:"jwt_expire"` // hours
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.terrible")

		// Serve defaults
		viper.SetDefault("serve.address", "127.0.0.1")
		viper.SetDefault("serve.port", 5326)
		viper.SetDefault("serve.enable_h2c", false)
		viper.SetDefault("serve.username", "admin")
		viper.SetDefault("serve.password", "admin")

		// Log defaults
		viper.SetDefault("log.level", "info")
		viper.SetDefault("log.format", "console")

		// Other defaults
		viper.SetDefault("data_dir", "./data")
		viper.SetDefault("jwt_secret", "terrible-secret-change-me")
		viper.SetDefault("jwt_expire", 24)

		// Environment variables
		viper.SetEnvPrefix("TERRIBLE")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				log.Error().Err(err).Msg("Error reading config file")
			}
		}

		cfg = &Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to unmarshal config")
		}
	})
	return cfg
}

func Get() *Config {
	if cfg == nil {
		return Load()
	}
	return cfg
}

// GetServeAddr returns the serve-mode listen address
func (c *Config) GetServeAddr() string {
	return fmt.Sprintf("%s:%d", c.Serve.Address, c.Serve.Port)
}

// IsH2CEnabled returns whether HTTP/2 cleartext is enabled
func (c *Config) IsH2CEnabled() bool {
	return c.Serve.EnableH2C
}
