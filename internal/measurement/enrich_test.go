package measurement

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4reQ/skyva/internal/aqi"
)

func TestEnrich_MatchesScorer(t *testing.T) {
	raw := Raw{
		ParticleConcentration: 12.5,
		Temperature:           21,
		Humidity:              35,
		CO2Concentration:      650,
		TVOCConcentration:     150,
		SensorStatus:          1,
	}

	enriched := Enrich(raw, time.Now())
	idx := aqi.Score(raw.ParticleConcentration, raw.CO2Concentration, raw.TVOCConcentration)

	assert.Equal(t, raw, enriched.Raw)
	assert.Equal(t, idx.Score, enriched.AQI)
	assert.Equal(t, idx.Classification, enriched.AQIClassification)
}

func TestEnrich_UsesServerClock(t *testing.T) {
	enriched := Enrich(Raw{}, time.Now())

	assert.WithinDuration(t, time.Now(), enriched.Timestamp, time.Second)
	assert.Equal(t, time.UTC, enriched.Timestamp.Location())
}

func TestEnriched_JSON(t *testing.T) {
	raw, err := Decode([]byte(validPayload))
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	data, err := json.Marshal(Enrich(raw, now))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "2024-06-01T10:30:00Z", out["timestamp"])
	assert.Equal(t, 50.0, out["aqi"])
	assert.Equal(t, "hazardous", out["aqi_classification"])
	assert.Equal(t, 75.0, out["particle_concentration"])
	assert.Equal(t, 0.0, out["sensor_status"])
	assert.Len(t, out, 9)
}
