package radio

import (
	"math/rand"
	"sync"
)

// MockDriver is an in-memory driver for tests and hardware-free runs. A
// pair created by NewMockPair behaves like the two ends of the radio link,
// with optional per-attempt loss to exercise the retry discipline.
type MockDriver struct {
	mu       sync.Mutex
	inbox    [][]byte
	peer     *MockDriver
	closed   bool
	LossRate float64 // probability a send attempt is not acked
	rng      *rand.Rand
}

// NewMockPair returns two connected drivers: payloads sent on one arrive on
// the other. rng drives loss simulation and may be nil when LossRate is 0.
func NewMockPair(rng *rand.Rand) (*MockDriver, *MockDriver) {
	a := &MockDriver{rng: rng}
	b := &MockDriver{rng: rng}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers the payload to the peer inbox unless the simulated channel
// drops the attempt.
func (d *MockDriver) Send(payload []byte) error {
	d.mu.Lock()
	lost := d.LossRate > 0 && d.rng != nil && d.rng.Float64() < d.LossRate
	d.mu.Unlock()
	if lost {
		return ErrNoAck
	}

	cp := make([]byte, len(payload))
	copy(cp, payload)

	d.peer.mu.Lock()
	defer d.peer.mu.Unlock()
	if d.peer.closed {
		return ErrNoAck
	}
	d.peer.inbox = append(d.peer.inbox, cp)
	return nil
}

// Receive pops the oldest pending payload.
func (d *MockDriver) Receive() ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.inbox) == 0 {
		return nil, false, nil
	}
	payload := d.inbox[0]
	d.inbox = d.inbox[1:]
	return payload, true, nil
}

// Close stops accepting deliveries.
func (d *MockDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
