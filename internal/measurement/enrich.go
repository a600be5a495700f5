package measurement

import (
	"time"

	"github.com/m4reQ/skyva/internal/aqi"
)

// Enrich scores raw and stamps it with now, the server-side ingestion time.
// The device clock is never used.
func Enrich(raw Raw, now time.Time) Enriched {
	idx := aqi.Score(raw.ParticleConcentration, raw.CO2Concentration, raw.TVOCConcentration)

	return Enriched{
		Raw:               raw,
		AQI:               idx.Score,
		AQIClassification: idx.Classification,
		Timestamp:         now.UTC(),
	}
}
