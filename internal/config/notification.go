package config

import (
	"time"

	"github.com/billingsim/billingsim/internal/types"
)

// Notification represents the configuration for the RTDN dispatch system
type Notification struct {
	Enabled bool             `mapstructure:"enabled"`
	Topic   string           `mapstructure:"topic" default:"google-play-rtdn"`
	PubSub  types.PubSubType `mapstructure:"pubsub" default:"memory"`

	// Endpoints receive each developer notification as an HTTP POST,
	// mirroring a push-style pubsub subscription
	Endpoints []EndpointConfig `mapstructure:"endpoints"`

	// Delivery retry knobs for the message router
	MaxRetries      int           `mapstructure:"max_retries" default:"5"`
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"100ms"`
	MaxInterval     time.Duration `mapstructure:"max_interval" default:"10s"`
	Multiplier      float64       `mapstructure:"multiplier" default:"2"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time" default:"1m"`
}

// EndpointConfig represents one push delivery target
type EndpointConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Enabled bool              `mapstructure:"enabled"`
}
