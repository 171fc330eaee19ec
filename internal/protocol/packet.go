// Package protocol defines the fixed 16-byte radio packet carrying one
// spike event. All higher layers depend on this file; both ends of the link
// must agree on every constant here.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

const (
	// PacketSize is the fixed on-air payload length in bytes.
	PacketSize = 16

	// packedSize is the number of meaningful bytes; the remainder is
	// reserved padding transmitted as zeros.
	packedSize = 11

	// Radio parameters shared by transmitter and receiver.
	Channel      = 76 // 2.476 GHz
	AddressWidth = 5
	RetryLimit   = 15
)

// Address is the 5-byte pipe address shared by both ends.
var Address = [AddressWidth]byte{'A', 'G', 'R', 'I', 'C'}

// ErrCorruptPacket is returned when a payload cannot be decoded into a
// well-formed spike event. Callers drop the packet and count it; the error
// never propagates as a link failure.
var ErrCorruptPacket = errors.New("protocol: corrupt packet")

// Encode serializes a spike event into a 16-byte little-endian payload:
//
//	[0]     sensor id (uint8)
//	[1:5]   device-relative timestamp, ms (int32)
//	[5]     encoding kind (uint8)
//	[6]     neuron index (uint8)
//	[7:11]  polarity (float32)
//	[11:16] reserved, zero
func Encode(e models.SpikeEvent) [PacketSize]byte {
	var buf [PacketSize]byte
	buf[0] = byte(e.Sensor)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(e.Timestamp))
	buf[5] = byte(e.Encoding)
	buf[6] = e.NeuronIndex
	binary.LittleEndian.PutUint32(buf[7:11], math.Float32bits(e.Polarity))
	return buf
}

// Decode parses a received payload. Payloads shorter than the packed record
// or carrying unknown sensor/encoding identifiers yield ErrCorruptPacket.
func Decode(payload []byte) (models.SpikeEvent, error) {
	if len(payload) < packedSize {
		return models.SpikeEvent{}, fmt.Errorf("%w: %d bytes", ErrCorruptPacket, len(payload))
	}

	e := models.SpikeEvent{
		Sensor:      models.SensorKind(payload[0]),
		Timestamp:   int32(binary.LittleEndian.Uint32(payload[1:5])),
		Encoding:    models.EncodingKind(payload[5]),
		NeuronIndex: payload[6],
		Polarity:    math.Float32frombits(binary.LittleEndian.Uint32(payload[7:11])),
	}

	if !e.Sensor.Valid() {
		return models.SpikeEvent{}, fmt.Errorf("%w: sensor id %d", ErrCorruptPacket, payload[0])
	}
	if !e.Encoding.Valid() {
		return models.SpikeEvent{}, fmt.Errorf("%w: encoding id %d", ErrCorruptPacket, payload[5])
	}
	return e, nil
}
