// Package snn implements the spiking decision network on the receiving
// node: leaky integrate-and-fire neuron layers with spike-timing dependent
// plasticity, ticked once per processed spike arrival.
package snn

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// Layer is a fully connected bank of LIF neurons with its own synaptic
// weight matrix and STDP traces. State is owned exclusively by the
// processing activity; no locking here.
type Layer struct {
	nIn  int
	nOut int

	// weights[i][j] connects input line i to neuron j, clipped to [-1,1].
	weights [][]float32

	potential  []float32
	refractory []int

	preTrace  []float32
	postTrace []float32

	refractoryTicks int
	decay           float32
	traceDecay      float32
}

func newLayer(nIn, nOut int, cfg Config, rng *rand.Rand) *Layer {
	l := &Layer{
		nIn:             nIn,
		nOut:            nOut,
		weights:         make([][]float32, nIn),
		potential:       make([]float32, nOut),
		refractory:      make([]int, nOut),
		preTrace:        make([]float32, nIn),
		postTrace:       make([]float32, nOut),
		refractoryTicks: cfg.RefractoryTicks,
		decay:           cfg.Decay,
		traceDecay:      cfg.TraceDecay,
	}
	for i := range l.weights {
		row := make([]float32, nOut)
		for j := range row {
			row[j] = clipWeight(float32(rng.NormFloat64()) * cfg.WeightInitScale)
		}
		l.weights[i] = row
	}
	return l
}

// Forward advances every neuron one tick: leak, integrate the weighted
// input spikes, and fire where the threshold is crossed. A firing neuron
// emits amplitude 1.0, resets its potential to zero and enters the
// refractory window, during which input still accumulates but firing stays
// suppressed. Returns the binary output spike vector.
func (l *Layer) Forward(input []float32, threshold float32) []float32 {
	out := make([]float32, l.nOut)
	for j := 0; j < l.nOut; j++ {
		var current float32
		for i := 0; i < l.nIn; i++ {
			if input[i] != 0 {
				current += input[i] * l.weights[i][j]
			}
		}
		l.potential[j] = l.decay*l.potential[j] + current

		if l.refractory[j] > 0 {
			l.refractory[j]--
			continue
		}
		if l.potential[j] >= threshold {
			out[j] = 1.0
			l.potential[j] = 0
			l.refractory[j] = l.refractoryTicks
		}
	}
	return out
}

// Learn applies one synchronous STDP step for the tick that produced the
// given pre/post spike vectors. Traces decay exponentially and accumulate
// the new spikes first; every touched weight is clipped back to [-1,1], so
// a diverging update is silently bounded rather than surfaced.
func (l *Layer) Learn(input, output []float32, eta float32) {
	for i := range l.preTrace {
		l.preTrace[i] = l.traceDecay*l.preTrace[i] + input[i]
	}
	for j := range l.postTrace {
		l.postTrace[j] = l.traceDecay*l.postTrace[j] + output[j]
	}

	for i := 0; i < l.nIn; i++ {
		row := l.weights[i]
		for j := 0; j < l.nOut; j++ {
			w := row[j]
			if output[j] > 0 {
				// Pre-synaptic activity preceded this firing: potentiate.
				w += eta * l.preTrace[i] * output[j]
			}
			if input[i] > 0 {
				// Post-synaptic trace preceded this input spike: depress.
				w -= eta * l.postTrace[j] * input[i]
			}
			row[j] = clipWeight(w)
		}
	}
}

// Potential exposes a neuron's membrane potential for tests and telemetry.
func (l *Layer) Potential(j int) float32 {
	return l.potential[j]
}

// Weight exposes one synapse for tests.
func (l *Layer) Weight(i, j int) float32 {
	return l.weights[i][j]
}

// SetWeight overrides one synapse; used to seed deterministic tests.
func (l *Layer) SetWeight(i, j int, w float32) {
	l.weights[i][j] = clipWeight(w)
}

// WeightBounds returns the min and max synaptic weight in the layer.
func (l *Layer) WeightBounds() (min, max float32) {
	min, max = l.weights[0][0], l.weights[0][0]
	for _, row := range l.weights {
		for _, w := range row {
			min = math32.Min(min, w)
			max = math32.Max(max, w)
		}
	}
	return min, max
}

func clipWeight(w float32) float32 {
	return math32.Max(-1.0, math32.Min(1.0, w))
}
