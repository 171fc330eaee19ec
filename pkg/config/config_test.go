package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesFieldDeployment(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 15, cfg.Radio.RetryLimit)
	assert.Equal(t, 500, cfg.Radio.RetryDelayMicro)
	assert.Equal(t, 30.0, cfg.Irrigation.LowThreshold)
	assert.Equal(t, 70.0, cfg.Irrigation.HighThreshold)
	assert.Equal(t, 32, cfg.Network.HiddenNeurons)
	assert.Equal(t, 300, cfg.Network.WarmupSeconds)
	assert.Equal(t, 3000, cfg.Transmitter.SampleIntervalMS)
	assert.Equal(t, 10, cfg.Transmitter.MaxConsecutiveFaults)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Radio, cfg.Radio)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agrisnn.yaml")
	data := []byte(`
serial:
  port: /dev/ttyACM1
  baud_rate: 57600
irrigation:
  low_threshold: 25
  high_threshold: 80
network:
  hidden_neurons: 64
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 25.0, cfg.Irrigation.LowThreshold)
	assert.Equal(t, 80.0, cfg.Irrigation.HighThreshold)
	assert.Equal(t, 64, cfg.Network.HiddenNeurons)

	// Untouched sections keep their defaults.
	assert.Equal(t, 15, cfg.Radio.RetryLimit)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial: [not: a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	t.Setenv("AGRISNN_SERIAL_PORT", "/dev/ttyS9")
	t.Setenv("AGRISNN_SERIAL_BAUD", "9600")
	t.Setenv("AGRISNN_MQTT_BROKER", "tcp://broker.lan:1883")
	t.Setenv("AGRISNN_CLICKHOUSE_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS9", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.True(t, cfg.ClickHouse.Enabled)
}

func TestEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("AGRISNN_SERIAL_BAUD", "fast")
	t.Setenv("AGRISNN_CLICKHOUSE_ENABLED", "sure")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Serial.BaudRate, cfg.Serial.BaudRate)
	assert.False(t, cfg.ClickHouse.Enabled)
}
