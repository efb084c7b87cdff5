package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds everything the API needs at startup. Values come from the
// environment (optionally seeded by an app.env file).
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// Shipping rule: orders at or above the threshold ship free, everything
	// below pays the flat rate. Expedited delivery always pays its own rate.
	FreeShippingThreshold int64 `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	ShippingFlatRate      int64 `mapstructure:"SHIPPING_FLAT_RATE"`
	ExpeditedShippingRate int64 `mapstructure:"EXPEDITED_SHIPPING_RATE"`

	// Optional collaborators; empty values disable them.
	AMQPURL   string `mapstructure:"AMQP_URL"`
	RedisAddr string `mapstructure:"REDIS_ADDR"`
}

func Load() Config {
	// every key needs a default (even an empty one) so AutomaticEnv can
	// surface the corresponding env var through Unmarshal
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("FREE_SHIPPING_THRESHOLD", 500000)
	viper.SetDefault("SHIPPING_FLAT_RATE", 30000)
	viper.SetDefault("EXPEDITED_SHIPPING_RATE", 60000)
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("REDIS_ADDR", "")

	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// the env file is optional; real deployments set plain env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("warning: could not read config file: %v", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal: %v", err)
	}
	return cfg
}
