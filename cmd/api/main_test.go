package main

import (
	"bytes"
	"testing"

	"rentalyard/internal/config"

	"github.com/stretchr/testify/assert"
)

func envLoader(env map[string]string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return config.FromEnv(func(key string) string { return env[key] })
	}
}

func TestStart_InvalidConfigurationIsReported(t *testing.T) {
	var stderr bytes.Buffer

	code := start(envLoader(map[string]string{
		"GIN_MODE":  "release",
		"DB_DRIVER": "memory",
	}), &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "invalid configuration")
	assert.Contains(t, stderr.String(), "JWT_SECRET is required in release mode")
}

func TestStart_LoggerFailureIsReported(t *testing.T) {
	var stderr bytes.Buffer

	code := start(envLoader(map[string]string{
		"DB_DRIVER": "memory",
		"LOG_LEVEL": "chatty",
	}), &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "logger setup failed")
	assert.Contains(t, stderr.String(), "chatty")
}
