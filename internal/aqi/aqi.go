// Package aqi computes the composite air-quality index of a measurement.
package aqi

// Classification is the human readable bucket of a composite score.
type Classification string

const (
	Good      Classification = "good"
	Moderate  Classification = "moderate"
	Poor      Classification = "poor"
	Hazardous Classification = "hazardous"
)

// Range is the reference interval a pollutant reading is mapped against.
type Range struct {
	Low  float64
	High float64
}

var (
	ParticleRange = Range{Low: 0, High: 150}    // ppm
	CO2Range      = Range{Low: 400, High: 2000} // ppm
	TVOCRange     = Range{Low: 0, High: 2000}   // ppb
)

const (
	ParticleWeight = 0.5
	CO2Weight      = 0.3
	TVOCWeight     = 0.2
)

// Index is the result of scoring one measurement.
// Score stays in [0, 100]; it is never normalized to [0, 1].
type Index struct {
	Score          float64
	Classification Classification
}

// Partial maps value linearly into [0, 100] against r and clamps the result.
func Partial(value float64, r Range) float64 {
	p := (value - r.Low) / (r.High - r.Low) * 100
	return min(100, max(0, p))
}

// Score computes the weighted composite index of the three pollutant readings.
func Score(particle, co2, tvoc float64) Index {
	composite := Partial(particle, ParticleRange)*ParticleWeight +
		Partial(co2, CO2Range)*CO2Weight +
		Partial(tvoc, TVOCRange)*TVOCWeight

	return Index{
		Score:          composite,
		Classification: Classify(composite),
	}
}

// Classify buckets a composite score. The intervals are open at both ends,
// so 0, 25, 50 and 75 themselves fall through to Hazardous.
func Classify(score float64) Classification {
	switch {
	case 0 < score && score < 25:
		return Good
	case 25 < score && score < 50:
		return Moderate
	case 50 < score && score < 75:
		return Poor
	}

	return Hazardous
}
