package api

import (
	"time"

	"github.com/m4reQ/skyva/internal/repository"
)

// Units reported next to every environmental value.
const (
	UnitPPM     = "ppm"
	UnitCelsius = "celsius"
	UnitPercent = "percent"
	UnitPPB     = "ppb"
)

// Quantity is a value with its unit. Value is null when the column is NULL.
type Quantity struct {
	Value any    `json:"value"`
	Unit  string `json:"unit"`
}

type AirQualityIndex struct {
	Score          float64 `json:"score"`
	Classification string  `json:"classification"`
}

// MeasurementDTO is the public shape of a stored measurement.
type MeasurementDTO struct {
	Timestamp             time.Time       `json:"timestamp"`
	SensorStatus          int             `json:"sensor_status"`
	AirQualityIndex       AirQualityIndex `json:"air_quality_index"`
	ParticleConcentration Quantity        `json:"particle_concentration"`
	Temperature           Quantity        `json:"temperature"`
	Humidity              Quantity        `json:"humidity"`
	CO2Concentration      Quantity        `json:"co2_concentration"`
	TVOCConcentration     Quantity        `json:"tvoc_concentration"`
}

// MeasurementPage is the /measurements response.
type MeasurementPage struct {
	First        int              `json:"first"`
	Count        int              `json:"count"`
	Measurements []MeasurementDTO `json:"measurements"`
}

// APIError is the body of every non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

// NewMeasurementDTO reshapes a row. The AQI is taken from the stored
// columns, never recomputed.
func NewMeasurementDTO(s repository.Stored) MeasurementDTO {
	return MeasurementDTO{
		Timestamp:    s.Timestamp.UTC(),
		SensorStatus: s.SensorStatus,
		AirQualityIndex: AirQualityIndex{
			Score:          s.AQI,
			Classification: s.AQIClassification,
		},
		ParticleConcentration: quantity(s.ParticleConcentration, UnitPPM),
		Temperature:           quantity(s.Temperature, UnitCelsius),
		Humidity:              quantity(s.Humidity, UnitPercent),
		CO2Concentration:      quantity(s.CO2Concentration, UnitPPM),
		TVOCConcentration:     quantity(s.TVOCConcentration, UnitPPB),
	}
}

func quantity[T float64 | int64](v *T, unit string) Quantity {
	q := Quantity{Unit: unit}
	if v != nil {
		q.Value = *v
	}
	return q
}
