// Package encoder converts calibrated sensor samples into spike events
// using four neuromorphic encoding schemes. All four schemes run on every
// sample, giving 16 logical input lines (4 sensors x 4 encodings) on the
// receiving network.
package encoder

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// SensorRange holds the normalization bounds and temporal-change threshold
// for one sensor. Values outside [Min,Max] are clamped before encoding;
// encoding never fails.
type SensorRange struct {
	Min               float64 `yaml:"min"`
	Max               float64 `yaml:"max"`
	TemporalThreshold float64 `yaml:"temporal_threshold"`
}

// Config carries per-sensor calibration plus the population-coding tuning
// curve parameters.
type Config struct {
	Ranges            [models.NumSensors]SensorRange
	PopulationCenters [4]float32
	PopulationSigma   float32
	PopulationFloor   float32 // minimum activation that emits a spike
	RateScale         float64 // spike probability = normalized * RateScale
}

// DefaultConfig matches the field hardware calibration.
func DefaultConfig() Config {
	return Config{
		Ranges: [models.NumSensors]SensorRange{
			models.SensorTemperature:  {Min: -10, Max: 50, TemporalThreshold: 1.0},
			models.SensorHumidity:     {Min: 0, Max: 100, TemporalThreshold: 1.0},
			models.SensorWaterQuality: {Min: 0, Max: 1000, TemporalThreshold: 5.0},
			models.SensorSoilMoisture: {Min: 0, Max: 100, TemporalThreshold: 2.0},
		},
		PopulationCenters: [4]float32{0.0, 0.33, 0.66, 1.0},
		PopulationSigma:   0.2,
		PopulationFloor:   0.3,
		RateScale:         0.5,
	}
}

// Encoder holds the per-sensor history required by the temporal scheme and
// the injected random source driving the stochastic rate scheme. It is not
// safe for concurrent use; the transmitter drives it from a single loop.
type Encoder struct {
	cfg Config
	rng *rand.Rand

	previous    [models.NumSensors]float64
	hasPrevious [models.NumSensors]bool
}

// New creates an encoder. rng must not be nil; tests inject a seeded source
// to make rate encoding deterministic.
func New(cfg Config, rng *rand.Rand) *Encoder {
	return &Encoder{cfg: cfg, rng: rng}
}

// Encode runs all four schemes over one sample and returns the spike events
// to transmit, in scheme order: raw, temporal, rate, population. The
// temporal history updates unconditionally, whether or not a spike fired.
func (e *Encoder) Encode(s models.SensorSample) []models.SpikeEvent {
	events := make([]models.SpikeEvent, 0, 7)

	events = append(events, e.encodeRaw(s))
	if ev, ok := e.encodeTemporal(s); ok {
		events = append(events, ev)
	}
	if ev, ok := e.encodeRate(s); ok {
		events = append(events, ev)
	}
	events = append(events, e.encodePopulation(s)...)

	e.previous[s.Sensor] = s.Value
	e.hasPrevious[s.Sensor] = true
	return events
}

// encodeRaw passes the calibrated value through unmodified on neuron 0.
func (e *Encoder) encodeRaw(s models.SensorSample) models.SpikeEvent {
	return models.SpikeEvent{
		Sensor:    s.Sensor,
		Timestamp: s.Timestamp,
		Encoding:  models.EncodingRaw,
		Polarity:  float32(s.Value),
	}
}

// encodeTemporal fires when the value moved more than the per-sensor
// threshold since the previous sample. Polarity carries the direction.
func (e *Encoder) encodeTemporal(s models.SensorSample) (models.SpikeEvent, bool) {
	if !e.hasPrevious[s.Sensor] {
		return models.SpikeEvent{}, false
	}
	prev := e.previous[s.Sensor]
	change := s.Value - prev
	if change < 0 {
		change = -change
	}
	if change <= e.cfg.Ranges[s.Sensor].TemporalThreshold {
		return models.SpikeEvent{}, false
	}
	polarity := float32(1.0)
	if s.Value < prev {
		polarity = -1.0
	}
	return models.SpikeEvent{
		Sensor:    s.Sensor,
		Timestamp: s.Timestamp,
		Encoding:  models.EncodingTemporal,
		Polarity:  polarity,
	}, true
}

// encodeRate fires a unit spike with probability proportional to the
// normalized intensity (at most RateScale).
func (e *Encoder) encodeRate(s models.SensorSample) (models.SpikeEvent, bool) {
	p := e.normalize(s.Sensor, s.Value) * e.cfg.RateScale
	if e.rng.Float64() >= p {
		return models.SpikeEvent{}, false
	}
	return models.SpikeEvent{
		Sensor:    s.Sensor,
		Timestamp: s.Timestamp,
		Encoding:  models.EncodingRate,
		Polarity:  1.0,
	}, true
}

// encodePopulation evaluates the Gaussian tuning curve of each of the four
// population neurons and emits a spike for every neuron whose activation
// clears the floor. Polarity carries activation x 100.
func (e *Encoder) encodePopulation(s models.SensorSample) []models.SpikeEvent {
	normalized := float32(e.normalize(s.Sensor, s.Value))

	var events []models.SpikeEvent
	for i, center := range e.cfg.PopulationCenters {
		activation := gaussian(normalized, center, e.cfg.PopulationSigma)
		if activation <= e.cfg.PopulationFloor {
			continue
		}
		events = append(events, models.SpikeEvent{
			Sensor:      s.Sensor,
			Timestamp:   s.Timestamp,
			Encoding:    models.EncodingPopulation,
			NeuronIndex: uint8(i),
			Polarity:    activation * 100.0,
		})
	}
	return events
}

// Activation evaluates the population tuning curve for a normalized value;
// exposed for the decision telemetry and tests.
func (e *Encoder) Activation(normalized float32, neuron int) float32 {
	return gaussian(normalized, e.cfg.PopulationCenters[neuron], e.cfg.PopulationSigma)
}

// normalize maps a value into [0,1] over the sensor's calibrated range,
// clamping out-of-range samples to the bounds.
func (e *Encoder) normalize(kind models.SensorKind, value float64) float64 {
	r := e.cfg.Ranges[kind]
	span := r.Max - r.Min
	if span <= 0 {
		return 0
	}
	n := (value - r.Min) / span
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func gaussian(x, center, sigma float32) float32 {
	d := (x - center) / sigma
	return math32.Exp(-0.5 * d * d)
}
