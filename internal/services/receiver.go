package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/decision"
	"github.com/MarvelMathesh/AgriSNN/internal/irrigation"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/internal/protocol"
	"github.com/MarvelMathesh/AgriSNN/internal/radio"
	"github.com/MarvelMathesh/AgriSNN/internal/snn"
	"github.com/MarvelMathesh/AgriSNN/internal/spikequeue"
	"github.com/MarvelMathesh/AgriSNN/internal/telemetry"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// EventSink receives every decoded spike event together with its estimated
// wire latency. Sinks are external logging collaborators (CSV, ClickHouse);
// they run on the processing activity and must return quickly.
type EventSink func(ev models.SpikeEvent, latencyMS float64)

// SnapshotFunc receives periodic read-only state snapshots for telemetry.
type SnapshotFunc func(telemetry.Snapshot)

// ReceiverParams wires the base-station service.
type ReceiverParams struct {
	Config     config.ReceiverConfig
	Link       *radio.Link
	Network    *snn.Network
	Tracker    *decision.Tracker
	Metrics    *decision.SpikeMetrics
	Irrigation *irrigation.Controller
	Stats      *models.LinkStats
	Sinks      []EventSink
	Snapshot   SnapshotFunc
	OverrideCh <-chan bool
}

// Receiver runs the two receiving-node activities: intake drains the radio
// into the bounded spike queue without ever blocking on processing;
// processing drains the queue, drives the network, learning, decisions and
// irrigation, and publishes snapshots. The queue is the only shared
// structure; all other state belongs to the processing activity.
type Receiver struct {
	cfg   config.ReceiverConfig
	link  *radio.Link
	queue *spikequeue.Queue

	network *snn.Network
	tracker *decision.Tracker
	metrics *decision.SpikeMetrics
	irr     *irrigation.Controller
	stats   *models.LinkStats

	sinks      []EventSink
	snapshot   SnapshotFunc
	overrideCh <-chan bool

	sessionStart time.Time
	rawValues    [models.NumSensors]float64
	processed    uint64
}

// NewReceiver builds the service around an already-open link.
func NewReceiver(p ReceiverParams) *Receiver {
	return &Receiver{
		cfg:          p.Config,
		link:         p.Link,
		queue:        spikequeue.New(p.Config.QueueCapacity),
		network:      p.Network,
		tracker:      p.Tracker,
		metrics:      p.Metrics,
		irr:          p.Irrigation,
		stats:        p.Stats,
		sinks:        p.Sinks,
		snapshot:     p.Snapshot,
		overrideCh:   p.OverrideCh,
		sessionStart: time.Now(),
	}
}

// Run executes both activities until the context is cancelled, then
// performs the ordered shutdown: stop intake, drain the queue, force the
// irrigation relay OFF.
func (r *Receiver) Run(ctx context.Context) error {
	log.Println("Receiver: starting intake and processing")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.intakeLoop(ctx)
	}()

	r.processingLoop(ctx)

	wg.Wait()

	// Intake has stopped; whatever is still queued gets processed so no
	// partial state is left behind.
	drained := 0
	for {
		ev, ok := r.queue.TryPop()
		if !ok {
			break
		}
		r.process(ev)
		drained++
	}
	if drained > 0 {
		log.Printf("Receiver: drained %d queued events on shutdown", drained)
	}

	r.irr.ForceOff()
	log.Println("Receiver: shutdown complete")
	return nil
}

// intakeLoop continuously drains the radio link, decodes payloads and
// pushes events into the queue. Corrupt packets are counted and dropped;
// queue overflow evicts oldest-first rather than stalling.
func (r *Receiver) intakeLoop(ctx context.Context) {
	log.Println("Receiver: listening for packets")
	for {
		select {
		case <-ctx.Done():
			log.Println("Receiver: intake stopped")
			return
		default:
		}

		payload, ok := r.link.ReceiveNonblocking()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		ev, err := protocol.Decode(payload)
		if err != nil {
			if errors.Is(err, protocol.ErrCorruptPacket) {
				r.stats.PacketsCorrupt.Add(1)
				continue
			}
			log.Printf("Receiver: decode error: %v", err)
			continue
		}
		ev.ReceivedAt = time.Now()

		if r.queue.Push(ev) {
			r.stats.QueueDropped.Add(1)
		}

		if n := r.stats.PacketsReceived.Load(); n%100 == 0 {
			log.Printf("Receiver: %d packets received", n)
		}
	}
}

// processingLoop owns all mutable decision state. It polls the queue with
// a bounded timeout so overrides and cancellation are observed even when
// the spike stream goes quiet.
func (r *Receiver) processingLoop(ctx context.Context) {
	pollTimeout := time.Duration(r.cfg.PollTimeoutMS) * time.Millisecond
	if pollTimeout <= 0 {
		pollTimeout = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Receiver: processing stopped")
			return
		case on := <-r.overrideCh:
			r.irr.Override(on)
			continue
		default:
		}

		ev, ok := r.queue.Pop(pollTimeout)
		if !ok {
			continue
		}
		r.process(ev)
	}
}

// process drives one event tick: sinks, raw-value bookkeeping, irrigation,
// network forward pass with synchronous learning, decision smoothing, and
// the periodic snapshot.
func (r *Receiver) process(ev models.SpikeEvent) {
	latency := ev.LatencyMS(r.sessionStart)
	for _, sink := range r.sinks {
		sink(ev, latency)
	}

	if ev.Encoding == models.EncodingRaw {
		r.rawValues[ev.Sensor] = float64(ev.Polarity)
		if ev.Sensor == models.SensorSoilMoisture {
			r.irr.Update(float64(ev.Polarity))
		}
	} else {
		r.metrics.Add(ev)
	}

	outputSpikes := r.network.Process(ev)
	r.tracker.Update(outputSpikes)

	r.processed++
	if r.snapshot != nil && r.cfg.SnapshotEveryN > 0 && r.processed%uint64(r.cfg.SnapshotEveryN) == 0 {
		r.snapshot(r.buildSnapshot())
	}
}

// buildSnapshot copies the current state for read-only external consumers.
func (r *Receiver) buildSnapshot() telemetry.Snapshot {
	decisions := r.tracker.Decisions()
	entries := make([]telemetry.DecisionEntry, len(decisions))
	for i, d := range decisions {
		entries[i] = telemetry.DecisionEntry{
			Label:          d.Label.String(),
			Activation:     d.Activation,
			Recommendation: decision.Recommendation(d.Label),
		}
	}
	return telemetry.Snapshot{
		Timestamp:        time.Now(),
		Decisions:        entries,
		LearningProgress: r.tracker.LearningProgress(),
		LearningStatus:   r.tracker.LearningStatus(),
		Irrigation:       r.irr.Status(),
		Stats:            r.stats.Snapshot(),
		SpikeRates:       r.metrics.Rates(),
		QueueDepth:       r.queue.Len(),
	}
}

// RawValue returns the latest raw reading seen for a sensor; used by the
// shutdown log and tests.
func (r *Receiver) RawValue(kind models.SensorKind) float64 {
	return r.rawValues[kind]
}

// Processed is the number of events the processing activity has consumed.
func (r *Receiver) Processed() uint64 {
	return r.processed
}
