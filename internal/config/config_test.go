package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "shop-orders", cfg.ServiceName)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.ReservationTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("RESERVATION_TTL", "90s")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.ReservationTTL)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("RESERVATION_TTL", "soon")
	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.ReservationTTL)
}
