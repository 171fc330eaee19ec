package snn

import (
	"log"
	"math/rand"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// Config holds the network topology and dynamics constants. The warmup
// learning rate is a schedule hook; both phases currently run the same
// value.
type Config struct {
	InputNeurons  int `yaml:"input_neurons"`
	HiddenNeurons int `yaml:"hidden_neurons"`
	OutputNeurons int `yaml:"output_neurons"`

	Threshold       float32 `yaml:"threshold"`        // steady-state firing threshold
	WarmupThreshold float32 `yaml:"warmup_threshold"` // lowered threshold while warming up
	Decay           float32 `yaml:"decay"`            // membrane potential decay per tick
	TraceDecay      float32 `yaml:"trace_decay"`      // STDP trace decay per tick
	RefractoryTicks int     `yaml:"refractory_ticks"` // 1 tick = 1 ms of simulated time

	LearningRate       float32 `yaml:"learning_rate"`
	LearningRateWarmup float32 `yaml:"learning_rate_warmup"`
	WeightInitScale    float32 `yaml:"weight_init_scale"`

	WarmupDuration time.Duration `yaml:"warmup_duration"`
}

// DefaultConfig returns the production network parameters:
// 16 input lines, 32 hidden and 8 output LIF neurons.
func DefaultConfig() Config {
	return Config{
		InputNeurons:       models.NumSensors * models.NumEncodings,
		HiddenNeurons:      32,
		OutputNeurons:      models.NumDecisions,
		Threshold:          1.0,
		WarmupThreshold:    0.1,
		Decay:              0.95,
		TraceDecay:         0.9,
		RefractoryTicks:    5,
		LearningRate:       0.05,
		LearningRateWarmup: 0.05,
		WeightInitScale:    0.1,
		WarmupDuration:     300 * time.Second,
	}
}

// Network is the two-layer spiking decision engine. It is driven
// event-wise: each processed spike arrival advances the simulation by one
// tick and runs the STDP update synchronously with the forward pass.
type Network struct {
	cfg    Config
	hidden *Layer
	output *Layer

	started time.Time
	now     func() time.Time
	ticks   uint64
}

// New builds a network with randomly initialized clipped weights. rng must
// not be nil.
func New(cfg Config, rng *rand.Rand) *Network {
	n := &Network{
		cfg:     cfg,
		hidden:  newLayer(cfg.InputNeurons, cfg.HiddenNeurons, cfg, rng),
		output:  newLayer(cfg.HiddenNeurons, cfg.OutputNeurons, cfg, rng),
		now:     time.Now,
		started: time.Now(),
	}
	log.Printf("SNN: network %d -> %d -> %d, STDP online learning",
		cfg.InputNeurons, cfg.HiddenNeurons, cfg.OutputNeurons)
	return n
}

// Process drives one event tick: the spike is mapped onto its input line,
// propagated through both layers, and the weights learn from the resulting
// spike timing. Returns the binary output spike vector, one entry per
// decision label.
func (n *Network) Process(ev models.SpikeEvent) []float32 {
	input := make([]float32, n.cfg.InputNeurons)
	if line := ev.InputLine(); line >= 0 && line < n.cfg.InputNeurons && ev.Polarity > 0 {
		input[line] = 1.0
	}

	threshold := n.cfg.Threshold
	eta := n.cfg.LearningRate
	if n.Warmup() {
		threshold = n.cfg.WarmupThreshold
		eta = n.cfg.LearningRateWarmup
	}

	hiddenSpikes := n.hidden.Forward(input, threshold)
	outputSpikes := n.output.Forward(hiddenSpikes, threshold)

	n.hidden.Learn(input, hiddenSpikes, eta)
	n.output.Learn(hiddenSpikes, outputSpikes, eta)

	n.ticks++
	return outputSpikes
}

// Warmup reports whether the network is still inside the warmup window.
func (n *Network) Warmup() bool {
	return n.now().Sub(n.started) < n.cfg.WarmupDuration
}

// Ticks is the number of processed spike arrivals.
func (n *Network) Ticks() uint64 {
	return n.ticks
}

// Hidden and Output expose the layers for tests and weight telemetry.
func (n *Network) Hidden() *Layer { return n.hidden }
func (n *Network) Output() *Layer { return n.output }
