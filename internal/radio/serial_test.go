package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarvelMathesh/AgriSNN/internal/protocol"
)

func frameFor(payload []byte) []byte {
	frame := append([]byte{frameSync}, payload...)
	return append(frame, checksum(payload))
}

func testPayload(marker byte) []byte {
	payload := make([]byte, protocol.PacketSize)
	payload[0] = marker
	payload[7] = 0x42
	return payload
}

func TestExtractFrameResyncsOnNoise(t *testing.T) {
	payload := testPayload(1)
	d := &SerialDriver{}
	d.rxBuf = append([]byte{0x00, 0xFF, 0x13}, frameFor(payload)...)

	out, ok := d.extractFrame()
	require.True(t, ok)
	assert.Equal(t, payload, out)
	assert.Empty(t, d.rxBuf)
}

func TestExtractFrameWaitsForCompleteFrame(t *testing.T) {
	payload := testPayload(2)
	frame := frameFor(payload)
	d := &SerialDriver{rxBuf: frame[:frameSize-1]}

	_, ok := d.extractFrame()
	assert.False(t, ok)

	d.rxBuf = append(d.rxBuf, frame[frameSize-1])
	out, ok := d.extractFrame()
	require.True(t, ok)
	assert.Equal(t, payload, out)
}

func TestExtractFrameSkipsBadChecksum(t *testing.T) {
	good := testPayload(3)
	bad := frameFor(testPayload(4))
	bad[5] ^= 0xFF // corrupt one payload byte, checksum no longer matches

	d := &SerialDriver{rxBuf: append(bad, frameFor(good)...)}
	out, ok := d.extractFrame()
	require.True(t, ok)
	assert.Equal(t, good, out)
}

func TestExtractFrameBackToBack(t *testing.T) {
	first := testPayload(5)
	second := testPayload(6)
	d := &SerialDriver{rxBuf: append(frameFor(first), frameFor(second)...)}

	out, ok := d.extractFrame()
	require.True(t, ok)
	assert.Equal(t, first, out)

	out, ok = d.extractFrame()
	require.True(t, ok)
	assert.Equal(t, second, out)
}

func TestChecksumIsXOR(t *testing.T) {
	assert.Equal(t, byte(0), checksum(nil))
	assert.Equal(t, byte(0x01^0x02^0x04), checksum([]byte{0x01, 0x02, 0x04}))
}
