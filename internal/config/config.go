package config

import (
	"os"
)

type Config struct {
	AppPort string

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string

	// ConnectIDEndpoint overrides the production UPS endpoint template.
	// Empty means production.
	ConnectIDEndpoint string
}

func Load() Config {

	cfg := Config{

		AppPort: os.Getenv("APP_PORT"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		ConnectIDEndpoint: os.Getenv("CONNECTID_ENDPOINT"),
	}

	return cfg

}
