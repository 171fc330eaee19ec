package decision

import (
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// SpikeMetrics tracks per-(sensor, encoding) spike rates over a sliding
// window. Owned by the processing activity; snapshots are copied out for
// telemetry.
type SpikeMetrics struct {
	window time.Duration
	times  [models.NumSensors][models.NumEncodings][]time.Time
	totals [models.NumSensors][models.NumEncodings]uint64
	now    func() time.Time
}

// NewSpikeMetrics builds a rate tracker; a zero window defaults to 1s.
func NewSpikeMetrics(window time.Duration) *SpikeMetrics {
	if window <= 0 {
		window = time.Second
	}
	return &SpikeMetrics{window: window, now: time.Now}
}

// Add records one spike arrival and expires entries outside the window.
func (m *SpikeMetrics) Add(ev models.SpikeEvent) {
	if !ev.Sensor.Valid() || !ev.Encoding.Valid() {
		return
	}
	now := m.now()
	bucket := m.times[ev.Sensor][ev.Encoding]
	bucket = append(bucket, now)

	cutoff := now.Add(-m.window)
	i := 0
	for i < len(bucket) && bucket[i].Before(cutoff) {
		i++
	}
	m.times[ev.Sensor][ev.Encoding] = bucket[i:]
	m.totals[ev.Sensor][ev.Encoding]++
}

// Rate is the current spike count within the window for one line.
func (m *SpikeMetrics) Rate(sensor models.SensorKind, encoding models.EncodingKind) int {
	return len(m.times[sensor][encoding])
}

// TotalRate sums the window counts over all lines.
func (m *SpikeMetrics) TotalRate() int {
	total := 0
	for s := range m.times {
		for e := range m.times[s] {
			total += len(m.times[s][e])
		}
	}
	return total
}

// Rates copies the per-line window counts for telemetry.
func (m *SpikeMetrics) Rates() [models.NumSensors][models.NumEncodings]int {
	var out [models.NumSensors][models.NumEncodings]int
	for s := range m.times {
		for e := range m.times[s] {
			out[s][e] = len(m.times[s][e])
		}
	}
	return out
}
