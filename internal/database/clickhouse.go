// Package database persists the append-only spike record stream to
// ClickHouse. The store plugs into the receiver's per-event sink callback
// and is entirely optional; the processing path never depends on it.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// SpikeStore is a ClickHouse-backed sink for decoded spike events.
type SpikeStore struct {
	conn driver.Conn
}

// NewSpikeStore connects, pings and initializes the schema.
func NewSpikeStore(cfg config.ClickHouseConfig) (*SpikeStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	log.Printf("Database: connected to ClickHouse at %s", cfg.Addr)

	store := &SpikeStore{conn: conn}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SpikeStore) initSchema() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS spike_events (
			receive_timestamp DateTime64(3),
			session_id        String,
			sensor_kind       LowCardinality(String),
			device_timestamp  Int32,
			encoding_kind     LowCardinality(String),
			neuron_index      UInt8,
			polarity          Float32,
			latency_ms        Float64
		) ENGINE = MergeTree()
		ORDER BY (receive_timestamp, sensor_kind)
	`
	if err := s.conn.Exec(context.Background(), ddl); err != nil {
		return fmt.Errorf("failed to create spike_events table: %w", err)
	}
	log.Println("Database: schema initialized")
	return nil
}

// SaveSpike appends one decoded spike event row.
func (s *SpikeStore) SaveSpike(ev models.SpikeEvent, sessionID string, latencyMS float64) error {
	const query = `
		INSERT INTO spike_events
			(receive_timestamp, session_id, sensor_kind, device_timestamp,
			 encoding_kind, neuron_index, polarity, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := s.conn.Exec(context.Background(), query,
		ev.ReceivedAt,
		sessionID,
		ev.Sensor.String(),
		ev.Timestamp,
		ev.Encoding.String(),
		ev.NeuronIndex,
		ev.Polarity,
		latencyMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert spike event: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *SpikeStore) Close() error {
	return s.conn.Close()
}
