package radio

import (
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"

	"github.com/MarvelMathesh/AgriSNN/internal/protocol"
)

// Serial frame layout: one sync byte, the 16-byte packet, one XOR checksum.
// The bridge MCU answers every accepted frame with a single ACK byte.
const (
	frameSync  = 0xAA
	frameAck   = 0x06
	frameSize  = 1 + protocol.PacketSize + 1
	ackTimeout = 50 * time.Millisecond
)

// SerialConfig selects the UART the radio bridge is attached to.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SerialDriver talks to a UART-bridged NRF24 module. The bridge exposes the
// configured channel/address pair; this driver only moves framed payloads
// and the ack discipline across the wire.
type SerialDriver struct {
	port  serial.Port
	rxBuf []byte
}

// OpenSerial opens the UART and prepares the driver.
func OpenSerial(cfg SerialConfig) (*SerialDriver, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(ackTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	log.Printf("Radio: serial bridge open on %s @ %d baud", cfg.Port, cfg.BaudRate)
	return &SerialDriver{port: port}, nil
}

// Send frames one payload and waits for the bridge ack.
func (d *SerialDriver) Send(payload []byte) error {
	frame := make([]byte, 0, frameSize)
	frame = append(frame, frameSync)
	frame = append(frame, payload...)
	frame = append(frame, checksum(payload))

	if _, err := d.port.Write(frame); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}

	ack := make([]byte, 1)
	n, err := d.port.Read(ack)
	if err != nil {
		return fmt.Errorf("serial ack read: %w", err)
	}
	if n == 0 || ack[0] != frameAck {
		return ErrNoAck
	}
	return nil
}

// Receive drains the UART into an internal buffer and returns the next
// complete, checksum-valid frame. Bytes before a sync marker are discarded
// so the stream resynchronizes after line noise.
func (d *SerialDriver) Receive() ([]byte, bool, error) {
	if payload, ok := d.extractFrame(); ok {
		return payload, true, nil
	}

	chunk := make([]byte, 64)
	n, err := d.port.Read(chunk)
	if err != nil {
		return nil, false, fmt.Errorf("serial read: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}
	d.rxBuf = append(d.rxBuf, chunk[:n]...)

	payload, ok := d.extractFrame()
	return payload, ok, nil
}

// extractFrame pulls one valid frame out of the receive buffer.
func (d *SerialDriver) extractFrame() ([]byte, bool) {
	for {
		// Resync: drop everything before the first sync byte.
		start := -1
		for i, b := range d.rxBuf {
			if b == frameSync {
				start = i
				break
			}
		}
		if start < 0 {
			d.rxBuf = d.rxBuf[:0]
			return nil, false
		}
		d.rxBuf = d.rxBuf[start:]
		if len(d.rxBuf) < frameSize {
			return nil, false
		}

		payload := d.rxBuf[1 : 1+protocol.PacketSize]
		sum := d.rxBuf[1+protocol.PacketSize]
		d.rxBuf = d.rxBuf[frameSize:]

		if checksum(payload) != sum {
			// Corrupt frame; skip and keep scanning.
			continue
		}
		out := make([]byte, protocol.PacketSize)
		copy(out, payload)
		return out, true
	}
}

// Close closes the UART.
func (d *SerialDriver) Close() error {
	return d.port.Close()
}

func checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}
