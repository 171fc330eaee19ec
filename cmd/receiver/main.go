// The receiver binary runs the base station: it drains the radio link,
// feeds the spiking decision network, drives the irrigation relay, and
// exposes decisions over MQTT and an append-only spike log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/database"
	"github.com/MarvelMathesh/AgriSNN/internal/decision"
	"github.com/MarvelMathesh/AgriSNN/internal/irrigation"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/internal/radio"
	"github.com/MarvelMathesh/AgriSNN/internal/services"
	"github.com/MarvelMathesh/AgriSNN/internal/snn"
	"github.com/MarvelMathesh/AgriSNN/internal/telemetry"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

func main() {
	var (
		configFlag = flag.String("config", "agrisnn.yaml", "Configuration file path")
		logFlag    = flag.String("log", "", "CSV spike log path (default agrisnn_log_<timestamp>.csv)")
		portFlag   = flag.String("p", "", "Serial port override (e.g. /dev/ttyUSB0)")
		mockFlag   = flag.Bool("mock", false, "Use an in-memory radio instead of the serial bridge")
	)
	flag.Parse()

	log.Println("Starting AgriSNN receiver...")

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Radio link.
	stats := &models.LinkStats{}
	var driver radio.Driver
	if *mockFlag {
		drv, _ := radio.NewMockPair(nil)
		driver = drv
		log.Println("Using mocked radio driver")
	} else {
		drv, err := radio.OpenSerial(radio.SerialConfig{Port: cfg.Serial.Port, BaudRate: cfg.Serial.BaudRate})
		if err != nil {
			log.Fatalf("Failed to open radio: %v", err)
		}
		driver = drv
	}
	link := radio.NewLink(driver, radio.LinkConfig{
		RetryLimit: cfg.Radio.RetryLimit,
		RetryDelay: time.Duration(cfg.Radio.RetryDelayMicro) * time.Microsecond,
	}, stats)
	defer link.Close()

	// Decision engine.
	netCfg := networkConfig(cfg.Network)
	network := snn.New(netCfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	tracker := decision.NewTracker(decision.Config{
		WarmupAlpha:    cfg.Decision.WarmupAlpha,
		SteadyAlpha:    cfg.Decision.SteadyAlpha,
		WarmupDuration: time.Duration(cfg.Decision.WarmupSeconds) * time.Second,
	})
	metrics := decision.NewSpikeMetrics(time.Duration(cfg.Receiver.MetricsWindowSec) * time.Second)
	controller := irrigation.New(irrigation.Config{
		LowThreshold:  cfg.Irrigation.LowThreshold,
		HighThreshold: cfg.Irrigation.HighThreshold,
	}, irrigation.NopRelay{})

	// Spike log (CSV collaborator).
	logPath := *logFlag
	if logPath == "" {
		logPath = fmt.Sprintf("agrisnn_log_%s.csv", time.Now().Format("20060102_150405"))
	}
	spikeLog, err := newCSVLogger(logPath)
	if err != nil {
		log.Fatalf("Failed to open spike log: %v", err)
	}
	sinks := []services.EventSink{spikeLog.logSpike}

	// Optional ClickHouse store behind the same sink callback.
	var store *database.SpikeStore
	sessionID := "local"
	if cfg.ClickHouse.Enabled {
		store, err = database.NewSpikeStore(cfg.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to initialize spike store: %v", err)
		}
		defer store.Close()
	}

	// Optional MQTT telemetry with manual-override intake.
	overrideCh := make(chan bool, 4)
	var publisher *telemetry.Publisher
	snapshotFn := services.SnapshotFunc(nil)
	if cfg.MQTT.Broker != "" {
		publisher, err = telemetry.NewPublisher(cfg.MQTT, overrideCh)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
		defer publisher.Close()
		sessionID = publisher.SessionID()
		snapshotFn = publisher.Offer
	}
	if store != nil {
		sid := sessionID
		sinks = append(sinks, func(ev models.SpikeEvent, latencyMS float64) {
			if err := store.SaveSpike(ev, sid, latencyMS); err != nil {
				log.Printf("Database: %v", err)
			}
		})
	}

	receiver := services.NewReceiver(services.ReceiverParams{
		Config:     cfg.Receiver,
		Link:       link,
		Network:    network,
		Tracker:    tracker,
		Metrics:    metrics,
		Irrigation: controller,
		Stats:      stats,
		Sinks:      sinks,
		Snapshot:   snapshotFn,
		OverrideCh: overrideCh,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if publisher != nil {
		go publisher.Start(ctx)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutdown signal received")
		cancel()
	}()

	log.Printf("SNN brain: %d -> %d -> %d neurons, irrigation %.0f%%-%.0f%%",
		netCfg.InputNeurons, netCfg.HiddenNeurons, netCfg.OutputNeurons,
		cfg.Irrigation.LowThreshold, cfg.Irrigation.HighThreshold)

	// Run blocks until cancelled, then performs the ordered shutdown
	// (stop intake, drain queue, force relay OFF) before returning.
	if err := receiver.Run(ctx); err != nil {
		log.Printf("Receiver error: %v", err)
	}

	spikeLog.close()

	snap := stats.Snapshot()
	log.Printf("Final stats: received=%d corrupt=%d dropped=%d",
		snap.PacketsReceived, snap.PacketsCorrupt, snap.QueueDropped)
	log.Println("Shutdown complete")
}

// networkConfig maps the flat file configuration onto the network config.
func networkConfig(nc config.NetworkConfig) snn.Config {
	cfg := snn.DefaultConfig()
	if nc.HiddenNeurons > 0 {
		cfg.HiddenNeurons = nc.HiddenNeurons
	}
	if nc.Threshold > 0 {
		cfg.Threshold = nc.Threshold
	}
	if nc.WarmupThreshold > 0 {
		cfg.WarmupThreshold = nc.WarmupThreshold
	}
	if nc.Decay > 0 {
		cfg.Decay = nc.Decay
	}
	if nc.TraceDecay > 0 {
		cfg.TraceDecay = nc.TraceDecay
	}
	if nc.RefractoryTicks > 0 {
		cfg.RefractoryTicks = nc.RefractoryTicks
	}
	if nc.LearningRate > 0 {
		cfg.LearningRate = nc.LearningRate
	}
	if nc.LearningRateWarmup > 0 {
		cfg.LearningRateWarmup = nc.LearningRateWarmup
	}
	if nc.WarmupSeconds > 0 {
		cfg.WarmupDuration = time.Duration(nc.WarmupSeconds) * time.Second
	}
	return cfg
}
