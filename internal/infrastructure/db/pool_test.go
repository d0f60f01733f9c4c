package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithSSLMode(t *testing.T) {
	assert.Equal(t,
		"postgres://u:p@db.example.com:5432/app?sslmode=require",
		withSSLMode("postgres://u:p@db.example.com:5432/app"))
	assert.Equal(t,
		"postgres://u:p@db.example.com/app?sslmode=disable",
		withSSLMode("postgres://u:p@db.example.com/app?sslmode=disable"))
	assert.Equal(t,
		"postgres://u:p@localhost:5432/app",
		withSSLMode("postgres://u:p@localhost:5432/app"))
}

func TestPoolConfigFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "8")
	t.Setenv("DB_MIN_CONNS", "20")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "90s")
	t.Setenv("DB_HEALTHCHECK_PERIOD", "nonsense")

	cfg := PoolConfigFromEnv()
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns)
	assert.Equal(t, 90*time.Second, cfg.MaxConnIdleTime)
	assert.Equal(t, DefaultPoolConfig().HealthCheckPeriod, cfg.HealthCheckPeriod)
}
