package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/encoder"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/internal/protocol"
	"github.com/MarvelMathesh/AgriSNN/internal/radio"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// ErrSensorWatchdog is returned when the consecutive sensor-fault ceiling
// is reached. Sensor hardware may be unrecoverable in software, so the
// caller reinitializes the whole chain rather than retrying in place.
var ErrSensorWatchdog = errors.New("services: consecutive sensor fault ceiling reached")

// SensorReader supplies calibrated readings on demand. A transient read
// failure returns an error; the sample is skipped and encoder state is
// retained.
type SensorReader interface {
	Read(kind models.SensorKind) (float64, error)
}

// Transmitter is the field-node service: a single sequential loop that
// samples all sensors, runs every encoding scheme, and transmits the
// resulting spike packets. No internal concurrency; the blocking radio
// send paces the loop.
type Transmitter struct {
	cfg    config.TransmitterConfig
	reader SensorReader
	enc    *encoder.Encoder
	link   *radio.Link
	stats  *models.LinkStats

	started           time.Time
	consecutiveFaults int
}

// NewTransmitter wires the sampling loop.
func NewTransmitter(cfg config.TransmitterConfig, reader SensorReader, enc *encoder.Encoder, link *radio.Link, stats *models.LinkStats) *Transmitter {
	return &Transmitter{
		cfg:     cfg,
		reader:  reader,
		enc:     enc,
		link:    link,
		stats:   stats,
		started: time.Now(),
	}
}

// Run samples on the configured interval until the context is cancelled or
// the sensor watchdog trips.
func (t *Transmitter) Run(ctx context.Context) error {
	interval := time.Duration(t.cfg.SampleIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Transmitter: sampling every %v", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Transmitter: stopped")
			return nil
		case <-ticker.C:
			if err := t.sampleAndTransmit(); err != nil {
				return err
			}
		}
	}
}

// sampleAndTransmit runs one full round: every sensor through every
// encoding scheme, each resulting packet over the link.
func (t *Transmitter) sampleAndTransmit() error {
	timestamp := int32(time.Since(t.started).Milliseconds())

	for kind := models.SensorKind(0); kind < models.NumSensors; kind++ {
		value, err := t.reader.Read(kind)
		if err != nil {
			// Transient fault: skip this sample, keep encoder history.
			t.stats.SensorFaults.Add(1)
			t.consecutiveFaults++
			log.Printf("Transmitter: %s read failed (%d/%d): %v",
				kind, t.consecutiveFaults, t.cfg.MaxConsecutiveFaults, err)
			if t.consecutiveFaults >= t.cfg.MaxConsecutiveFaults {
				return ErrSensorWatchdog
			}
			continue
		}
		t.consecutiveFaults = 0

		sample := models.SensorSample{Sensor: kind, Value: value, Timestamp: timestamp}
		for _, ev := range t.enc.Encode(sample) {
			packet := protocol.Encode(ev)
			// Loss after retry exhaustion is silent by contract; the
			// counters are the only trace.
			t.link.Send(packet[:])
		}
	}

	snap := t.stats.Snapshot()
	log.Printf("Transmitter: sent=%d failed=%d success=%.1f%%",
		snap.PacketsSent, snap.PacketsFailed, snap.SuccessRate())
	return nil
}
