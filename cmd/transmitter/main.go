// The transmitter binary runs the field node: it samples the sensor suite
// on a fixed interval, encodes every sample with all four spike schemes,
// and ships the resulting packets over the radio link.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarvelMathesh/AgriSNN/internal/encoder"
	"github.com/MarvelMathesh/AgriSNN/internal/models"
	"github.com/MarvelMathesh/AgriSNN/internal/radio"
	"github.com/MarvelMathesh/AgriSNN/internal/services"
	"github.com/MarvelMathesh/AgriSNN/pkg/config"
)

// watchdogBackoff is how long to wait before reinitializing the sensor
// chain after the consecutive-fault ceiling trips.
const watchdogBackoff = 5 * time.Second

func main() {
	var (
		configFlag = flag.String("config", "agrisnn.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Serial port override (e.g. /dev/ttyUSB0)")
		mockFlag   = flag.Bool("mock", false, "Use an in-memory radio instead of the serial bridge")
	)
	flag.Parse()

	log.Println("Starting AgriSNN transmitter...")

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

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

	seed := cfg.Transmitter.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutdown signal received")
		cancel()
	}()

	// The watchdog loop: a tripped sensor ceiling tears down and rebuilds
	// the whole sampling chain, matching a hardware power-cycle.
	for {
		rng := rand.New(rand.NewSource(seed))
		reader := newSimulatedSensors(rng)
		enc := encoder.New(encoder.DefaultConfig(), rng)
		tx := services.NewTransmitter(cfg.Transmitter, reader, enc, link, stats)

		err := tx.Run(ctx)
		if err == nil {
			break
		}
		if !errors.Is(err, services.ErrSensorWatchdog) {
			log.Printf("Transmitter error: %v", err)
			break
		}

		log.Printf("Sensor watchdog tripped, reinitializing in %v", watchdogBackoff)
		select {
		case <-ctx.Done():
		case <-time.After(watchdogBackoff):
			seed = time.Now().UnixNano()
			continue
		}
		break
	}

	snap := stats.Snapshot()
	log.Printf("Final stats: sent=%d failed=%d success=%.1f%% faults=%d",
		snap.PacketsSent, snap.PacketsFailed, snap.SuccessRate(), snap.SensorFaults)
	log.Println("Shutdown complete")
}
