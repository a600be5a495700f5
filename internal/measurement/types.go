// Package measurement holds the sensor data model together with the decoding,
// validation and enrichment steps of the ingestion pipeline.
package measurement

import (
	"time"

	"github.com/m4reQ/skyva/internal/aqi"
)

// Wire keys of a raw measurement. All of them are required.
const (
	FieldParticleConcentration = "particle_concentration"
	FieldTemperature           = "temperature"
	FieldHumidity              = "humidity"
	FieldCO2Concentration      = "co2_concentration"
	FieldTVOCConcentration     = "tvoc_concentration"
	FieldSensorStatus          = "sensor_status"
)

// RequiredFields lists the wire keys in the order they are validated.
var RequiredFields = []string{
	FieldParticleConcentration,
	FieldTemperature,
	FieldHumidity,
	FieldCO2Concentration,
	FieldTVOCConcentration,
	FieldSensorStatus,
}

// Raw is a structurally valid reading as sent by the device.
type Raw struct {
	ParticleConcentration float64 `json:"particle_concentration"` // ppm
	Temperature           float64 `json:"temperature"`            // °C
	Humidity              float64 `json:"humidity"`               // %
	CO2Concentration      float64 `json:"co2_concentration"`      // ppm
	TVOCConcentration     float64 `json:"tvoc_concentration"`     // ppb
	SensorStatus          int     `json:"sensor_status"`
}

// Enriched is a Raw reading plus its air-quality index and the server-side
// ingestion time. It is the unit that gets republished and persisted.
type Enriched struct {
	Raw
	AQI               float64            `json:"aqi"`
	AQIClassification aqi.Classification `json:"aqi_classification"`
	Timestamp         time.Time          `json:"timestamp"`
}

// LogEntry is a device log line received on the logs topic.
type LogEntry struct {
	DeviceTimestamp int64
	Message         string
}
