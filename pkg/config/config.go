// Package config loads the node configuration: built-in defaults, an
// optional YAML file, then environment overrides (a local .env file is
// honored). The resulting struct is immutable by convention and injected
// into component constructors.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full node configuration. Both binaries share one file;
// each reads only the sections it needs.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Radio       RadioConfig       `yaml:"radio"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	ClickHouse  ClickHouseConfig  `yaml:"clickhouse"`
	Network     NetworkConfig     `yaml:"network"`
	Decision    DecisionConfig    `yaml:"decision"`
	Irrigation  IrrigationConfig  `yaml:"irrigation"`
	Receiver    ReceiverConfig    `yaml:"receiver"`
	Transmitter TransmitterConfig `yaml:"transmitter"`
}

// SerialConfig selects the UART of the radio bridge.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// RadioConfig bounds the link retransmission discipline.
type RadioConfig struct {
	RetryLimit      int `yaml:"retry_limit"`
	RetryDelayMicro int `yaml:"retry_delay_us"`
}

// MQTTConfig configures the telemetry publisher. Telemetry is optional;
// an empty broker disables it.
type MQTTConfig struct {
	Broker        string `yaml:"broker"`
	ClientID      string `yaml:"client_id"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	DecisionTopic string `yaml:"decision_topic"`
	StatusTopic   string `yaml:"status_topic"`
	OverrideTopic string `yaml:"override_topic"`
}

// ClickHouseConfig configures the optional spike-event store.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NetworkConfig carries the spiking-network dynamics constants.
type NetworkConfig struct {
	HiddenNeurons      int     `yaml:"hidden_neurons"`
	Threshold          float32 `yaml:"threshold"`
	WarmupThreshold    float32 `yaml:"warmup_threshold"`
	Decay              float32 `yaml:"decay"`
	TraceDecay         float32 `yaml:"trace_decay"`
	RefractoryTicks    int     `yaml:"refractory_ticks"`
	LearningRate       float32 `yaml:"learning_rate"`
	LearningRateWarmup float32 `yaml:"learning_rate_warmup"`
	WarmupSeconds      int     `yaml:"warmup_seconds"`
}

// DecisionConfig carries the EMA smoothing schedule.
type DecisionConfig struct {
	WarmupAlpha   float64 `yaml:"warmup_alpha"`
	SteadyAlpha   float64 `yaml:"steady_alpha"`
	WarmupSeconds int     `yaml:"warmup_seconds"`
}

// IrrigationConfig carries the hysteresis thresholds in moisture percent.
type IrrigationConfig struct {
	LowThreshold  float64 `yaml:"low_threshold"`
	HighThreshold float64 `yaml:"high_threshold"`
}

// ReceiverConfig tunes the base-station processing loop.
type ReceiverConfig struct {
	QueueCapacity    int `yaml:"queue_capacity"`
	PollTimeoutMS    int `yaml:"poll_timeout_ms"`
	SnapshotEveryN   int `yaml:"snapshot_every_n"`
	MetricsWindowSec int `yaml:"metrics_window_sec"`
}

// TransmitterConfig tunes the field-node sampling loop.
type TransmitterConfig struct {
	SampleIntervalMS     int   `yaml:"sample_interval_ms"`
	MaxConsecutiveFaults int   `yaml:"max_consecutive_faults"`
	RandomSeed           int64 `yaml:"random_seed"` // 0 selects a time-based seed
}

// Default returns the production defaults matching the field deployment.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{Port: "/dev/ttyUSB0", BaudRate: 115200},
		Radio:  RadioConfig{RetryLimit: 15, RetryDelayMicro: 500},
		MQTT: MQTTConfig{
			ClientID:      "agrisnn-receiver",
			DecisionTopic: "agrisnn/decisions",
			StatusTopic:   "agrisnn/status",
			OverrideTopic: "agrisnn/irrigation/override",
		},
		ClickHouse: ClickHouseConfig{
			Addr:     "localhost:9000",
			Database: "agrisnn",
			Username: "default",
		},
		Network: NetworkConfig{
			HiddenNeurons:      32,
			Threshold:          1.0,
			WarmupThreshold:    0.1,
			Decay:              0.95,
			TraceDecay:         0.9,
			RefractoryTicks:    5,
			LearningRate:       0.05,
			LearningRateWarmup: 0.05,
			WarmupSeconds:      300,
		},
		Decision: DecisionConfig{
			WarmupAlpha:   0.3,
			SteadyAlpha:   0.1,
			WarmupSeconds: 300,
		},
		Irrigation: IrrigationConfig{LowThreshold: 30.0, HighThreshold: 70.0},
		Receiver: ReceiverConfig{
			QueueCapacity:    1024,
			PollTimeoutMS:    100,
			SnapshotEveryN:   10,
			MetricsWindowSec: 1,
		},
		Transmitter: TransmitterConfig{
			SampleIntervalMS:     3000,
			MaxConsecutiveFaults: 10,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), and environment overrides. A missing file is not an error;
// a malformed one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			log.Printf("Config: loaded %s", path)
		case os.IsNotExist(err):
			log.Printf("Config: %s not found, using defaults", path)
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays deployment-specific settings from the environment.
func (c *Config) applyEnv() {
	c.Serial.Port = getEnv("AGRISNN_SERIAL_PORT", c.Serial.Port)
	c.Serial.BaudRate = getEnvInt("AGRISNN_SERIAL_BAUD", c.Serial.BaudRate)

	c.MQTT.Broker = getEnv("AGRISNN_MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.ClientID = getEnv("AGRISNN_MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Username = getEnv("AGRISNN_MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getEnv("AGRISNN_MQTT_PASSWORD", c.MQTT.Password)

	c.ClickHouse.Enabled = getEnvBool("AGRISNN_CLICKHOUSE_ENABLED", c.ClickHouse.Enabled)
	c.ClickHouse.Addr = getEnv("AGRISNN_CLICKHOUSE_ADDR", c.ClickHouse.Addr)
	c.ClickHouse.Database = getEnv("AGRISNN_CLICKHOUSE_DB", c.ClickHouse.Database)
	c.ClickHouse.Username = getEnv("AGRISNN_CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = getEnv("AGRISNN_CLICKHOUSE_PASS", c.ClickHouse.Password)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Config: warning, %s is not an integer, using default: %v", key, err)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Config: warning, %s is not a bool, using default: %v", key, err)
		return defaultValue
	}
	return b
}
