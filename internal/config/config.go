package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/billingsim/billingsim/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `validate:"required"`
	Server       ServerConfig       `validate:"required"`
	Logging      LoggingConfig      `validate:"required"`
	Emulator     EmulatorConfig     `validate:"required"`
	Catalog      CatalogConfig      `validate:"required"`
	Notification Notification       `validate:"required"`
	Kafka        KafkaConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// EmulatorConfig controls the virtual-time and token behaviour of the emulator
type EmulatorConfig struct {
	// EpochMillis is the initial virtual time. Zero means "real now at startup",
	// which is the only wall-clock read the process ever performs.
	EpochMillis int64 `mapstructure:"epoch_millis"`

	// TokenPrefix is prepended to generated purchase and subscription tokens
	TokenPrefix string `mapstructure:"token_prefix" default:"emulator"`

	// DefaultPackageName is used by control-plane requests that omit a package
	DefaultPackageName string `mapstructure:"default_package_name" validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

func NewConfig() (*Configuration, error) {
	// Best effort .env for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billingsim")

	v.SetEnvPrefix("BILLINGSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, plan := range c.Catalog.Subscriptions {
		if err := plan.Validate(); err != nil {
			return err
		}
	}
	for _, product := range c.Catalog.Products {
		if err := product.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// and for tests that do not load a config file
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Emulator: EmulatorConfig{
			TokenPrefix:        "emulator",
			DefaultPackageName: "com.example.app",
		},
		Notification: Notification{
			Enabled: true,
			Topic:   "google-play-rtdn",
			PubSub:  types.MemoryPubSub,
		},
	}
}
