// Package decision turns output-layer spikes into named, smoothed decision
// activations and reports learning progress over the warmup window.
package decision

import (
	"sort"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// Config controls the EMA smoothing schedule.
type Config struct {
	WarmupAlpha    float64       `yaml:"warmup_alpha"`
	SteadyAlpha    float64       `yaml:"steady_alpha"`
	WarmupDuration time.Duration `yaml:"warmup_duration"`
}

// DefaultConfig: aggressive smoothing for the first five minutes, then
// steady state.
func DefaultConfig() Config {
	return Config{
		WarmupAlpha:    0.3,
		SteadyAlpha:    0.1,
		WarmupDuration: 300 * time.Second,
	}
}

// Tracker keeps one EMA activation per decision label, indexed by the
// closed label enumeration; no keyed lookups on the hot path. Owned
// exclusively by the processing activity.
type Tracker struct {
	cfg         Config
	activations [models.NumDecisions]float64
	started     time.Time
	now         func() time.Time
}

// NewTracker starts the warmup clock.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, started: time.Now(), now: time.Now}
}

// Update folds one output spike vector into the activations. The smoothing
// factor is 0.3 during warmup and 0.1 afterwards.
func (t *Tracker) Update(outputSpikes []float32) {
	alpha := t.cfg.SteadyAlpha
	if t.elapsed() < t.cfg.WarmupDuration {
		alpha = t.cfg.WarmupAlpha
	}
	for i := 0; i < models.NumDecisions && i < len(outputSpikes); i++ {
		t.activations[i] = (1-alpha)*t.activations[i] + alpha*float64(outputSpikes[i])
	}
}

// Decisions returns all eight activations in declaration order.
func (t *Tracker) Decisions() []models.Decision {
	out := make([]models.Decision, models.NumDecisions)
	for i := range out {
		out[i] = models.Decision{Label: models.DecisionLabel(i), Activation: t.activations[i]}
	}
	return out
}

// TopDecisions returns labels with activation above threshold, sorted by
// descending activation; ties keep declaration order.
func (t *Tracker) TopDecisions(threshold float64) []models.Decision {
	var active []models.Decision
	for i, a := range t.activations {
		if a > threshold {
			active = append(active, models.Decision{Label: models.DecisionLabel(i), Activation: a})
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Activation > active[j].Activation
	})
	return active
}

// LearningProgress maps elapsed uptime linearly onto [0,100]% of the warmup
// window, clamped at 100 afterwards.
func (t *Tracker) LearningProgress() float64 {
	if t.cfg.WarmupDuration <= 0 {
		return 100
	}
	p := 100 * float64(t.elapsed()) / float64(t.cfg.WarmupDuration)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// LearningStatus is the coarse banding of LearningProgress.
func (t *Tracker) LearningStatus() string {
	switch p := t.LearningProgress(); {
	case p >= 100:
		return "trained"
	case p >= 75:
		return "converging"
	case p >= 25:
		return "learning"
	default:
		return "initializing"
	}
}

func (t *Tracker) elapsed() time.Duration {
	return t.now().Sub(t.started)
}

var recommendations = [models.NumDecisions]string{
	models.DecisionIrrigationNeeded:   "Irrigation recommended",
	models.DecisionNutrientDeficiency: "Check nutrient levels",
	models.DecisionOptimalConditions:  "Optimal growing conditions",
	models.DecisionTemperatureAlert:   "Temperature out of range",
	models.DecisionHumidityAlert:      "Humidity adjustment needed",
	models.DecisionSoilDry:            "Soil moisture low",
	models.DecisionWaterQualityLow:    "Water quality check needed",
	models.DecisionSystemHealthy:      "System healthy",
}

// Recommendation is the operator-facing text for a decision label.
func Recommendation(label models.DecisionLabel) string {
	if label < 0 || label >= models.NumDecisions {
		return "Analyzing data..."
	}
	return recommendations[label]
}
