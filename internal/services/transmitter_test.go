package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarvelMathesh/AgriSNN/internal/encoder"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/internal/protocol"
	"github.com/MarvelMathesh/AgriSNN/internal/radio"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// stubReader serves fixed values and can fail selected sensors.
type stubReader struct {
	values  [models.NumSensors]float64
	failAll bool
	reads   int
}

func (r *stubReader) Read(kind models.SensorKind) (float64, error) {
	r.reads++
	if r.failAll {
		return 0, errors.New("sensor timeout")
	}
	return r.values[kind], nil
}

func testTransmitterConfig() config.TransmitterConfig {
	return config.TransmitterConfig{
		SampleIntervalMS:     1,
		MaxConsecutiveFaults: 10,
	}
}

func newTestTransmitter(reader SensorReader, drv radio.Driver, stats *models.LinkStats) *Transmitter {
	enc := encoder.New(encoder.DefaultConfig(), rand.New(rand.NewSource(1)))
	link := radio.NewLink(drv, radio.LinkConfig{RetryLimit: 15, RetryDelay: 0}, stats)
	return NewTransmitter(testTransmitterConfig(), reader, enc, link, stats)
}

func TestTransmitterSendsEveryEncodingRound(t *testing.T) {
	a, b := radio.NewMockPair(nil)
	stats := &models.LinkStats{}
	reader := &stubReader{values: [models.NumSensors]float64{22.0, 55.0, 400.0, 48.0}}
	tx := newTestTransmitter(reader, a, stats)

	require.NoError(t, tx.sampleAndTransmit())
	assert.Equal(t, int(models.NumSensors), reader.reads)

	// At minimum the four raw events are on the wire; temporal and rate
	// may or may not fire, population depends on the tuning curves.
	assert.GreaterOrEqual(t, stats.PacketsSent.Load(), uint64(models.NumSensors))

	rxStats := &models.LinkStats{}
	rx := radio.NewLink(b, radio.LinkConfig{RetryLimit: 1}, rxStats)
	decoded := 0
	for {
		payload, ok := rx.ReceiveNonblocking()
		if !ok {
			break
		}
		ev, err := protocol.Decode(payload)
		require.NoError(t, err)
		assert.True(t, ev.Sensor.Valid())
		decoded++
	}
	assert.Equal(t, uint64(decoded), stats.PacketsSent.Load())
}

func TestTransmitterSkipsTransientFaults(t *testing.T) {
	a, _ := radio.NewMockPair(nil)
	stats := &models.LinkStats{}
	reader := &stubReader{failAll: true}
	tx := newTestTransmitter(reader, a, stats)

	// One failing round: four faults counted, nothing sent, no watchdog.
	require.NoError(t, tx.sampleAndTransmit())
	assert.Equal(t, uint64(models.NumSensors), stats.SensorFaults.Load())
	assert.Zero(t, stats.PacketsSent.Load())

	// Recovery resets the consecutive-fault counter.
	reader.failAll = false
	require.NoError(t, tx.sampleAndTransmit())
	assert.Zero(t, tx.consecutiveFaults)
}

func TestTransmitterWatchdogTripsAtCeiling(t *testing.T) {
	a, _ := radio.NewMockPair(nil)
	stats := &models.LinkStats{}
	reader := &stubReader{failAll: true}
	tx := newTestTransmitter(reader, a, stats)

	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = tx.sampleAndTransmit()
	}
	require.ErrorIs(t, err, ErrSensorWatchdog)
	assert.Equal(t, uint64(10), stats.SensorFaults.Load())
}

func TestTransmitterRunStopsOnCancel(t *testing.T) {
	a, _ := radio.NewMockPair(nil)
	stats := &models.LinkStats{}
	reader := &stubReader{values: [models.NumSensors]float64{20.0, 50.0, 300.0, 40.0}}
	tx := newTestTransmitter(reader, a, stats)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, tx.Run(ctx))
	assert.Greater(t, stats.PacketsSent.Load(), uint64(0))
}

func TestTransmitterRunSurfacesWatchdog(t *testing.T) {
	a, _ := radio.NewMockPair(nil)
	stats := &models.LinkStats{}
	reader := &stubReader{failAll: true}
	tx := newTestTransmitter(reader, a, stats)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := tx.Run(ctx)
	require.ErrorIs(t, err, ErrSensorWatchdog)
}
