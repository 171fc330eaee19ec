package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/MarvelMathesh/AgriSNN/internal/models"
)

// csvLogger is the external logging collaborator: it appends one row per
// decoded spike event and is fed through the receiver's sink callback.
type csvLogger struct {
	file   *os.File
	writer *csv.Writer
}

func newCSVLogger(path string) (*csvLogger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	writer := csv.NewWriter(file)
	header := []string{
		"receive_timestamp", "sensor_kind", "device_timestamp",
		"encoding_kind", "neuron_index", "polarity", "latency_ms",
	}
	if err := writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}
	log.Printf("Logger: writing to %s", path)
	return &csvLogger{file: file, writer: writer}, nil
}

// logSpike is the sink callback.
func (l *csvLogger) logSpike(ev models.SpikeEvent, latencyMS float64) {
	record := []string{
		strconv.FormatInt(ev.ReceivedAt.UnixMilli(), 10),
		ev.Sensor.String(),
		strconv.FormatInt(int64(ev.Timestamp), 10),
		ev.Encoding.String(),
		strconv.Itoa(int(ev.NeuronIndex)),
		strconv.FormatFloat(float64(ev.Polarity), 'f', 4, 32),
		strconv.FormatFloat(latencyMS, 'f', 1, 64),
	}
	if err := l.writer.Write(record); err != nil {
		log.Printf("Logger: write failed: %v", err)
	}
}

// close flushes buffered rows and closes the file.
func (l *csvLogger) close() {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		log.Printf("Logger: flush failed: %v", err)
	}
	if err := l.file.Close(); err != nil {
		log.Printf("Logger: close failed: %v", err)
	}
	log.Printf("Logger: closed %s", l.file.Name())
}
