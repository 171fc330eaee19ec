package radio

import (
	"log"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// LinkConfig bounds the retransmission discipline.
type LinkConfig struct {
	RetryLimit int           // attempts per Send, hardware default 15
	RetryDelay time.Duration // inter-attempt delay, hardware default 500µs
}

// DefaultLinkConfig mirrors the NRF24 SETUP_RETR register programmed on
// both ends: 15 retries at 500µs.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		RetryLimit: 15,
		RetryDelay: 500 * time.Microsecond,
	}
}

// Link is the retrying datagram channel used identically by both ends.
// Delivery is at-most-once per Send; after the retry budget is exhausted
// the payload is silently lost and only the failure counter moves.
type Link struct {
	drv   Driver
	cfg   LinkConfig
	stats *models.LinkStats
}

// NewLink wraps a hardware driver. stats must not be nil.
func NewLink(drv Driver, cfg LinkConfig, stats *models.LinkStats) *Link {
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = DefaultLinkConfig().RetryLimit
	}
	return &Link{drv: drv, cfg: cfg, stats: stats}
}

// Send transmits one payload with bounded automatic retransmission and
// reports whether any attempt was acknowledged.
func (l *Link) Send(payload []byte) bool {
	var err error
	for attempt := 0; attempt < l.cfg.RetryLimit; attempt++ {
		if err = l.drv.Send(payload); err == nil {
			l.stats.PacketsSent.Add(1)
			return true
		}
		if l.cfg.RetryDelay > 0 {
			time.Sleep(l.cfg.RetryDelay)
		}
	}
	l.stats.PacketsFailed.Add(1)
	log.Printf("Radio: send failed after %d attempts: %v", l.cfg.RetryLimit, err)
	return false
}

// ReceiveNonblocking returns the next pending payload, if any. Driver
// errors are absorbed and surface only as a missing payload; the receiver
// degrades rather than terminating.
func (l *Link) ReceiveNonblocking() ([]byte, bool) {
	payload, ok, err := l.drv.Receive()
	if err != nil {
		log.Printf("Radio: receive error: %v", err)
		return nil, false
	}
	if ok {
		l.stats.PacketsReceived.Add(1)
	}
	return payload, ok
}

// Close releases the underlying driver.
func (l *Link) Close() error {
	return l.drv.Close()
}
