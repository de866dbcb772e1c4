package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
)

func TestPoolConfig_Defaults(t *testing.T) {
	pc, err := poolConfig("postgres://cw:pw@db.internal:5432/crosswalk?sslmode=disable", &config.DatabaseConfig{})
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConnections, pc.MaxConns)
	assert.Equal(t, DefaultMaxConnLifetime, pc.MaxConnLifetime)
	assert.Equal(t, DefaultMaxConnIdleTime, pc.MaxConnIdleTime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, "crosswalk", pc.ConnConfig.Database)
}

func TestPoolConfig_UsesDatabaseSection(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:            "db.internal",
		Port:            5433,
		User:            "cw",
		Password:        "pw",
		Database:        "pi20",
		SSLMode:         "disable",
		MaxConnections:  4,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
	}

	pc, err := poolConfig(cfg.URL(), cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, 5*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "pi20", pc.ConnConfig.Database)
}

func TestPoolConfig_ParseErrorHidesPassword(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "cw", Password: "hunter2secret", Database: "pi20", SSLMode: "bogus",
	}

	_, err := poolConfig(cfg.URL(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
	assert.NotContains(t, err.Error(), "hunter2secret")
}
