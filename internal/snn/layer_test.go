package snn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLayer(nIn, nOut int) *Layer {
	cfg := DefaultConfig()
	l := newLayer(nIn, nOut, cfg, rand.New(rand.NewSource(1)))
	for i := 0; i < nIn; i++ {
		for j := 0; j < nOut; j++ {
			l.SetWeight(i, j, 0)
		}
	}
	return l
}

func TestSubThresholdInputNeverFires(t *testing.T) {
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 0.04)

	// With decay 0.95 the potential converges to 0.04/(1-0.95) = 0.8,
	// below the 1.0 threshold, so the neuron can never fire.
	input := []float32{1.0}
	for tick := 0; tick < 500; tick++ {
		out := l.Forward(input, 1.0)
		require.Zerof(t, out[0], "tick %d", tick)
	}
	assert.Less(t, l.Potential(0), float32(1.0))
	assert.Greater(t, l.Potential(0), float32(0.79))
}

func TestFireResetsAndEntersRefractory(t *testing.T) {
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 1.0)
	input := []float32{1.0}

	out := l.Forward(input, 1.0)
	require.Equal(t, float32(1.0), out[0])
	assert.Zero(t, l.Potential(0))

	// Five refractory ticks: input keeps integrating but firing stays
	// suppressed.
	for tick := 0; tick < 5; tick++ {
		out = l.Forward(input, 1.0)
		assert.Zerof(t, out[0], "refractory tick %d", tick)
	}
	assert.Greater(t, l.Potential(0), float32(1.0))

	// First tick past the window fires from the accumulated potential.
	out = l.Forward(input, 1.0)
	assert.Equal(t, float32(1.0), out[0])
}

func TestWarmupThresholdFiresEasier(t *testing.T) {
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 0.2)

	out := l.Forward([]float32{1.0}, 0.1)
	assert.Equal(t, float32(1.0), out[0])
}

func TestLearnPotentiatesOnPostAfterPre(t *testing.T) {
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 0.5)

	// Pre-synaptic spike first, post-synaptic spike on the next tick:
	// the decayed pre trace potentiates the synapse.
	l.Learn([]float32{1.0}, []float32{0}, 0.05)
	l.Learn([]float32{0}, []float32{1.0}, 0.05)

	assert.InDelta(t, 0.5+0.05*0.9, float64(l.Weight(0, 0)), 1e-6)
}

func TestLearnDepressesOnPreAfterPost(t *testing.T) {
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 0.5)

	l.Learn([]float32{0}, []float32{1.0}, 0.05)
	l.Learn([]float32{1.0}, []float32{0}, 0.05)

	assert.InDelta(t, 0.5-0.05*0.9, float64(l.Weight(0, 0)), 1e-6)
}

func TestWeightsClippedToUnitRange(t *testing.T) {
	// An oversized learning rate would push the weight far past the
	// bounds; the update is silently clipped instead.
	l := newTestLayer(1, 1)
	l.SetWeight(0, 0, 0.5)
	l.Learn([]float32{1.0}, []float32{0}, 10.0)
	l.Learn([]float32{0}, []float32{1.0}, 10.0)
	assert.Equal(t, float32(1.0), l.Weight(0, 0))

	l2 := newTestLayer(1, 1)
	l2.SetWeight(0, 0, -0.5)
	l2.Learn([]float32{0}, []float32{1.0}, 10.0)
	l2.Learn([]float32{1.0}, []float32{0}, 10.0)
	assert.Equal(t, float32(-1.0), l2.Weight(0, 0))
}

func TestInitialWeightsWithinBounds(t *testing.T) {
	cfg := DefaultConfig()
	l := newLayer(cfg.InputNeurons, cfg.HiddenNeurons, cfg, rand.New(rand.NewSource(42)))

	min, max := l.WeightBounds()
	assert.GreaterOrEqual(t, min, float32(-1.0))
	assert.LessOrEqual(t, max, float32(1.0))
	assert.NotEqual(t, min, max)
}
