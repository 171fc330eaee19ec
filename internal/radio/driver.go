// Package radio provides the point-to-point datagram link carrying spike
// packets between the field node and the base station. The Link layers a
// bounded retransmission discipline over a raw hardware Driver; callers
// must treat the spike stream as inherently incomplete.
package radio

import "errors"

// ErrNoAck is returned by a Driver when a transmitted payload was not
// acknowledged within the per-attempt timeout. The Link retries on it.
var ErrNoAck = errors.New("radio: no acknowledgment")

// Driver is the raw radio hardware interface: one fixed-size payload in or
// out per call. Implementations wrap real transceivers (serial-bridged
// NRF24) or in-memory pairs for tests.
type Driver interface {
	// Send transmits one payload and waits for the hardware-level ack.
	Send(payload []byte) error

	// Receive returns the next pending payload without blocking;
	// ok is false when nothing is waiting.
	Receive() (payload []byte, ok bool, err error)

	Close() error
}
