package models

import "time"

// SensorKind identifies one of the four field sensors. The numeric values
// are part of the wire format and must match the transmitter firmware.
type SensorKind uint8

const (
	SensorTemperature SensorKind = iota // DHT22, Celsius
	SensorHumidity                      // DHT22, percentage 0-100
	SensorWaterQuality                  // TDS probe, ppm
	SensorSoilMoisture                  // capacitive probe, percentage 0-100
)

// NumSensors is the number of sensor kinds carried on the wire.
const NumSensors = 4

var sensorNames = [NumSensors]string{"temp", "humid", "tds", "soil"}

// String returns the short sensor name used in logs and record streams.
func (k SensorKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return sensorNames[k]
}

// Valid reports whether the kind is one of the four known sensors.
func (k SensorKind) Valid() bool {
	return k < NumSensors
}

// EncodingKind identifies the spike encoding algorithm that produced an
// event. The numeric values are part of the wire format.
type EncodingKind uint8

const (
	EncodingRaw EncodingKind = iota
	EncodingTemporal
	EncodingRate
	EncodingPopulation
)

// NumEncodings is the number of encoding algorithms run per sensor.
const NumEncodings = 4

var encodingNames = [NumEncodings]string{"raw_data", "temporal", "rate", "population"}

// String returns the encoding name used in logs and record streams.
func (k EncodingKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return encodingNames[k]
}

// Valid reports whether the kind is a known encoding.
func (k EncodingKind) Valid() bool {
	return k < NumEncodings
}

// SensorSample is a single calibrated sensor reading on the transmitting
// node. Timestamp is milliseconds since transmitter start (monotonic).
type SensorSample struct {
	Sensor    SensorKind `json:"sensor"`
	Value     float64    `json:"value"`
	Timestamp int32      `json:"timestamp"`
}

// SpikeEvent is one discrete spike produced by an encoder and carried over
// the radio link. Timestamp is the device-relative millisecond clock of the
// transmitter; ReceivedAt is stamped by the receiver when the packet is
// decoded and is zero on the transmitting side.
type SpikeEvent struct {
	Sensor      SensorKind   `json:"sensor"`
	Timestamp   int32        `json:"timestamp"`
	Encoding    EncodingKind `json:"encoding"`
	NeuronIndex uint8        `json:"neuron_index"`
	Polarity    float32      `json:"polarity"`
	ReceivedAt  time.Time    `json:"received_at,omitempty"`
}

// InputLine maps the event onto one of the 16 logical network input lines
// (4 sensors x 4 encodings).
func (e SpikeEvent) InputLine() int {
	return int(e.Sensor)*NumEncodings + int(e.Encoding)
}

// LatencyMS is the wire latency estimate: wall-clock receive time against
// the device-relative timestamp. Only meaningful relative to the receiver's
// own session start; negative values indicate clock skew and are reported
// as-is.
func (e SpikeEvent) LatencyMS(sessionStart time.Time) float64 {
	if e.ReceivedAt.IsZero() {
		return 0
	}
	elapsed := e.ReceivedAt.Sub(sessionStart).Milliseconds()
	return float64(elapsed - int64(e.Timestamp))
}

// DecisionLabel enumerates the eight output neurons of the decision network.
// Declaration order is the tie-break order for ranked decisions and the
// output neuron index.
type DecisionLabel int

const (
	DecisionIrrigationNeeded DecisionLabel = iota
	DecisionNutrientDeficiency
	DecisionOptimalConditions
	DecisionTemperatureAlert
	DecisionHumidityAlert
	DecisionSoilDry
	DecisionWaterQualityLow
	DecisionSystemHealthy
)

// NumDecisions is the number of output decision labels.
const NumDecisions = 8

var decisionNames = [NumDecisions]string{
	"irrigation_needed",
	"nutrient_deficiency",
	"optimal_conditions",
	"temperature_alert",
	"humidity_alert",
	"soil_dry",
	"water_quality_low",
	"system_healthy",
}

func (d DecisionLabel) String() string {
	if d < 0 || d >= NumDecisions {
		return "unknown"
	}
	return decisionNames[d]
}

// Decision pairs a label with its current EMA activation in [0,1].
type Decision struct {
	Label      DecisionLabel `json:"label"`
	Activation float64       `json:"activation"`
}
