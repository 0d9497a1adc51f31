//go:build integration

package infra

import "os"

// Env points the suite at running infrastructure:
//
//	IT_PG_DSN      reuse a database instead of starting postgres:17
//	IT_REDIS_ADDR  enables the Redis mail sink cases
//	IT_RABBIT_URL  enables the RabbitMQ publisher cases
type Env struct {
	PostgresDSN string
	RedisAddr   string
	RabbitURL   string
}

func LoadEnv() Env {
	return Env{
		PostgresDSN: os.Getenv("IT_PG_DSN"),
		RedisAddr:   os.Getenv("IT_REDIS_ADDR"),
		RabbitURL:   os.Getenv("IT_RABBIT_URL"),
	}
}
