// Package irrigation drives the water pump relay from soil-moisture
// readings with dead-band hysteresis, preventing rapid cycling around a
// single threshold.
package irrigation

import (
	"log"
	"time"
)

// Relay is the GPIO actuator collaborator. Implementations must be safe to
// call repeatedly with the same state.
type Relay interface {
	Set(on bool) error
}

// NopRelay is used when no GPIO hardware is attached; state is tracked in
// the controller only.
type NopRelay struct{}

func (NopRelay) Set(bool) error { return nil }

// Config holds the two hysteresis thresholds in moisture percent.
type Config struct {
	LowThreshold  float64 `yaml:"low_threshold"`  // turn ON strictly below
	HighThreshold float64 `yaml:"high_threshold"` // turn OFF strictly above
}

// DefaultConfig: irrigate under 30% moisture, stop above 70%.
func DefaultConfig() Config {
	return Config{LowThreshold: 30.0, HighThreshold: 70.0}
}

// Controller is the two-state hysteresis machine. Owned exclusively by the
// processing activity; Status copies are handed to telemetry.
type Controller struct {
	cfg   Config
	relay Relay

	active     bool
	overridden bool

	lastMoisture   float64
	hasMoisture    bool
	transitions    uint64
	lastTransition time.Time
	activeSince    time.Time
	totalActive    time.Duration
}

// Status is a read-only snapshot for telemetry and the shutdown log.
type Status struct {
	Active       bool      `json:"active"`
	Overridden   bool      `json:"overridden"`
	SoilMoisture float64   `json:"soil_moisture"`
	Transitions  uint64    `json:"transitions"`
	LastChange   time.Time `json:"last_change,omitempty"`
	TotalActive  float64   `json:"total_active_seconds"`
}

// New starts with the relay forced to the safe OFF state.
func New(cfg Config, relay Relay) *Controller {
	if relay == nil {
		relay = NopRelay{}
	}
	c := &Controller{cfg: cfg, relay: relay}
	if err := relay.Set(false); err != nil {
		log.Printf("Irrigation: initial relay OFF failed: %v", err)
	}
	log.Printf("Irrigation: relay controller ready (ON < %.0f%%, OFF > %.0f%%)",
		cfg.LowThreshold, cfg.HighThreshold)
	return c
}

// Update applies the hysteresis rule to a fresh soil-moisture reading and
// reports whether the relay state changed. A fresh reading re-arms
// automatic control after a manual override. Strictly between the
// thresholds the current state holds.
func (c *Controller) Update(moisture float64) bool {
	c.overridden = false
	c.lastMoisture = moisture
	c.hasMoisture = true

	switch {
	case !c.active && moisture < c.cfg.LowThreshold:
		c.setState(true)
		log.Printf("Irrigation: STARTED (soil %.1f%%)", moisture)
		return true
	case c.active && moisture > c.cfg.HighThreshold:
		c.setState(false)
		log.Printf("Irrigation: STOPPED (soil %.1f%%)", moisture)
		return true
	}
	return false
}

// Override forces the relay state directly. Automatic control re-asserts
// only on the next Update call.
func (c *Controller) Override(on bool) {
	c.overridden = true
	if on != c.active {
		c.setState(on)
	}
	log.Printf("Irrigation: manual override, relay %s", stateName(on))
}

// ForceOff drives the relay to the safe OFF state; used during ordered
// shutdown regardless of moisture or override.
func (c *Controller) ForceOff() {
	if c.active {
		c.setState(false)
	} else if err := c.relay.Set(false); err != nil {
		log.Printf("Irrigation: relay OFF failed: %v", err)
	}
	log.Println("Irrigation: relay forced OFF")
}

// Active reports the current relay state.
func (c *Controller) Active() bool {
	return c.active
}

// Status snapshots the controller for external consumption.
func (c *Controller) Status() Status {
	total := c.totalActive
	if c.active {
		total += time.Since(c.activeSince)
	}
	return Status{
		Active:       c.active,
		Overridden:   c.overridden,
		SoilMoisture: c.lastMoisture,
		Transitions:  c.transitions,
		LastChange:   c.lastTransition,
		TotalActive:  total.Seconds(),
	}
}

func (c *Controller) setState(on bool) {
	if err := c.relay.Set(on); err != nil {
		// The pump may be unreachable; keep the logical state consistent
		// with what was commanded and keep processing.
		log.Printf("Irrigation: relay %s failed: %v", stateName(on), err)
	}
	now := time.Now()
	if c.active && !on {
		c.totalActive += now.Sub(c.activeSince)
	}
	if on {
		c.activeSince = now
	}
	c.active = on
	c.transitions++
	c.lastTransition = now
}

func stateName(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
