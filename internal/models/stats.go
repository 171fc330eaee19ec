package models

import "sync/atomic"

// LinkStats counts radio link outcomes on either end. All counters are
// monotonically increasing and safe for concurrent reads while the link is
// running; they are observability-only and never gate processing.
type LinkStats struct {
	PacketsSent     atomic.Uint64
	PacketsFailed   atomic.Uint64 // retry budget exhausted
	PacketsReceived atomic.Uint64
	PacketsCorrupt  atomic.Uint64 // decode rejected the payload
	QueueDropped    atomic.Uint64 // spike queue overflow, oldest evicted
	SensorFaults    atomic.Uint64 // transient sensor read failures
}

// LinkStatsSnapshot is a plain copy of the counters for telemetry payloads.
type LinkStatsSnapshot struct {
	PacketsSent     uint64 `json:"packets_sent"`
	PacketsFailed   uint64 `json:"packets_failed"`
	PacketsReceived uint64 `json:"packets_received"`
	PacketsCorrupt  uint64 `json:"packets_corrupt"`
	QueueDropped    uint64 `json:"queue_dropped"`
	SensorFaults    uint64 `json:"sensor_faults"`
}

// Snapshot copies the live counters.
func (s *LinkStats) Snapshot() LinkStatsSnapshot {
	return LinkStatsSnapshot{
		PacketsSent:     s.PacketsSent.Load(),
		PacketsFailed:   s.PacketsFailed.Load(),
		PacketsReceived: s.PacketsReceived.Load(),
		PacketsCorrupt:  s.PacketsCorrupt.Load(),
		QueueDropped:    s.QueueDropped.Load(),
		SensorFaults:    s.SensorFaults.Load(),
	}
}

// SuccessRate is the percentage of sends that were acknowledged.
func (s LinkStatsSnapshot) SuccessRate() float64 {
	total := s.PacketsSent + s.PacketsFailed
	if total == 0 {
		return 0
	}
	return 100.0 * float64(s.PacketsSent) / float64(total)
}
