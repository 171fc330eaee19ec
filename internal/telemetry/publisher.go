// Package telemetry publishes receiver snapshots (decisions, irrigation
// state, link statistics) over MQTT for the external dashboard, and feeds
// manual irrigation overrides back to the processing loop. The core never
// blocks on telemetry: snapshots arrive over a buffered channel and are
// dropped when the publisher falls behind.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/MarvelMathesh/AgriSNN/internal/irrigation"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// DecisionEntry is one labeled activation in the published payload.
type DecisionEntry struct {
	Label          string  `json:"label"`
	Activation     float64 `json:"activation"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Snapshot is one read-only view of the receiver state, produced by the
// processing activity.
type Snapshot struct {
	SessionID        string                                            `json:"session_id"`
	Timestamp        time.Time                                         `json:"timestamp"`
	Decisions        []DecisionEntry                                   `json:"decisions"`
	LearningProgress float64                                           `json:"learning_progress"`
	LearningStatus   string                                            `json:"learning_status"`
	Irrigation       irrigation.Status                                 `json:"irrigation"`
	Stats            models.LinkStatsSnapshot                          `json:"stats"`
	SpikeRates       [models.NumSensors][models.NumEncodings]int       `json:"spike_rates"`
	QueueDepth       int                                               `json:"queue_depth"`
}

// Publisher owns the MQTT connection. Snapshots come in on SnapshotChan;
// manual override commands go out on the override channel handed to
// NewPublisher, to be consumed by the processing loop.
type Publisher struct {
	client    mqtt.Client
	cfg       config.MQTTConfig
	sessionID string

	SnapshotChan chan Snapshot
}

// NewPublisher connects to the broker and subscribes to the override
// topic. overrideCh receives the requested relay state for each override
// message; sends are non-blocking and drop when the loop is not keeping up.
func NewPublisher(cfg config.MQTTConfig, overrideCh chan<- bool) (*Publisher, error) {
	sessionID := uuid.NewString()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, sessionID[:8]))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("Telemetry: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Printf("Telemetry: connected to broker %s (session %s)", cfg.Broker, sessionID[:8])

	p := &Publisher{
		client:       client,
		cfg:          cfg,
		sessionID:    sessionID,
		SnapshotChan: make(chan Snapshot, 16),
	}

	if cfg.OverrideTopic != "" && overrideCh != nil {
		handler := func(_ mqtt.Client, msg mqtt.Message) {
			on, err := parseOverride(msg.Payload())
			if err != nil {
				log.Printf("Telemetry: ignoring override payload %q: %v", msg.Payload(), err)
				return
			}
			select {
			case overrideCh <- on:
			default:
				log.Println("Telemetry: override channel full, dropping command")
			}
		}
		if token := client.Subscribe(cfg.OverrideTopic, 1, handler); token.Wait() && token.Error() != nil {
			client.Disconnect(250)
			return nil, fmt.Errorf("failed to subscribe to override topic: %w", token.Error())
		}
		log.Printf("Telemetry: subscribed to override topic %s", cfg.OverrideTopic)
	}

	return p, nil
}

// SessionID identifies this receiver run; it is stamped on every snapshot
// and database row.
func (p *Publisher) SessionID() string {
	return p.sessionID
}

// Offer hands a snapshot to the publisher without blocking the processing
// loop.
func (p *Publisher) Offer(s Snapshot) {
	select {
	case p.SnapshotChan <- s:
	default:
	}
}

// Start publishes snapshots until the context is cancelled or the channel
// is closed.
func (p *Publisher) Start(ctx context.Context) {
	log.Println("Telemetry: publisher started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Telemetry: context cancelled, shutting down")
			return
		case s, ok := <-p.SnapshotChan:
			if !ok {
				log.Println("Telemetry: snapshot channel closed, shutting down")
				return
			}
			p.publish(s)
		}
	}
}

func (p *Publisher) publish(s Snapshot) {
	s.SessionID = p.sessionID
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("Telemetry: failed to marshal snapshot: %v", err)
		return
	}
	if token := p.client.Publish(p.cfg.DecisionTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("Telemetry: publish failed: %v", token.Error())
	}

	status, err := json.Marshal(s.Stats)
	if err != nil {
		return
	}
	if token := p.client.Publish(p.cfg.StatusTopic, 0, true, status); token.Wait() && token.Error() != nil {
		log.Printf("Telemetry: status publish failed: %v", token.Error())
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	log.Println("Telemetry: disconnected")
}

func parseOverride(payload []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized state")
}
