package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"meetroom/backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	log := logger.New(logger.Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		InstanceID:       "host-1",
		SampleInitial:    1000,
		SampleThereafter: 1000,
		Output:           &buf,
	})

	// Act
	log.Info("booted", "k", "v")

	// Assert
	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m), "expected one JSON line, got %q", buf.String())
	assert.Equal(t, "booted", m["msg"])
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "demo", m["service"])
	assert.Equal(t, "prod", m["env"])
	assert.Equal(t, "1.2.3", m["version"])
	assert.Equal(t, "host-1", m["instance_id"])
	assert.Equal(t, "v", m["k"])
}

func TestNew_DevWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: logger.EnvDev, Output: &buf})

	log.Debug("hidden")
	log.Info("shown", "room", "abcde-fghij")

	out := buf.String()
	assert.NotContains(t, out, "hidden", "debug is off by default")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "room=abcde-fghij")
	assert.Contains(t, out, "service=meetroom")
	assert.True(t, strings.Contains(out, "instance_id="), "instance id is generated when empty")
}

func TestParseEnv(t *testing.T) {
	assert.Equal(t, logger.EnvProd, logger.ParseEnv(" Production "))
	assert.Equal(t, logger.EnvStage, logger.ParseEnv("staging"))
	assert.Equal(t, logger.EnvDev, logger.ParseEnv(""))
	assert.Equal(t, logger.EnvDev, logger.ParseEnv("whatever"))
}
