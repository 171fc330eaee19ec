package main

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// simulatedSensors stands in for the field sensor suite when running
// without hardware: each channel drifts around a plausible operating
// point with small per-read noise and a slow diurnal swing.
type simulatedSensors struct {
	mu      sync.Mutex
	rng     *rand.Rand
	started time.Time
	values  [models.NumSensors]float64
}

func newSimulatedSensors(rng *rand.Rand) *simulatedSensors {
	return &simulatedSensors{
		rng:     rng,
		started: time.Now(),
		values: [models.NumSensors]float64{
			models.SensorTemperature:  24.0,
			models.SensorHumidity:     55.0,
			models.SensorWaterQuality: 420.0,
			models.SensorSoilMoisture: 48.0,
		},
	}
}

// Read returns the next simulated reading for the channel.
func (s *simulatedSensors) Read(kind models.SensorKind) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Slow sinusoidal swing plus a random walk keeps the temporal and
	// rate encoders busy without saturating the population curves.
	elapsed := time.Since(s.started).Seconds()
	swing := math.Sin(2 * math.Pi * elapsed / 600.0)

	switch kind {
	case models.SensorTemperature:
		s.values[kind] += s.rng.Float64()*0.6 - 0.3 + swing*0.05
		s.values[kind] = clamp(s.values[kind], -10, 50)
	case models.SensorHumidity:
		s.values[kind] += s.rng.Float64()*2.0 - 1.0 - swing*0.1
		s.values[kind] = clamp(s.values[kind], 0, 100)
	case models.SensorWaterQuality:
		s.values[kind] += s.rng.Float64()*8.0 - 4.0
		s.values[kind] = clamp(s.values[kind], 0, 1000)
	case models.SensorSoilMoisture:
		// Moisture dries out slowly and jumps when "irrigated" so the
		// receiver's hysteresis band gets exercised end to end.
		s.values[kind] -= 0.05 + s.rng.Float64()*0.1
		if s.values[kind] < 25 {
			s.values[kind] = 75 + s.rng.Float64()*5
		}
		s.values[kind] = clamp(s.values[kind], 0, 100)
	}
	return s.values[kind], nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
