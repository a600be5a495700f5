package aqi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartial_Bounds(t *testing.T) {
	for name, r := range map[string]Range{
		"particle": ParticleRange,
		"co2":      CO2Range,
		"tvoc":     TVOCRange,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0.0, Partial(r.Low, r))
			assert.Equal(t, 100.0, Partial(r.High, r))
			assert.Equal(t, 0.0, Partial(r.Low-1, r), "below range clamps to 0")
			assert.Equal(t, 100.0, Partial(r.High+1, r), "above range clamps to 100")
		})
	}
}

func TestScore_Midpoints(t *testing.T) {
	idx := Score(75, 1200, 1000)

	assert.Equal(t, 50.0, idx.Score)
	// 50 sits exactly on a boundary of the open intervals.
	assert.Equal(t, Hazardous, idx.Classification)
}

func TestScore_AllLowerBounds(t *testing.T) {
	idx := Score(0, 400, 0)

	assert.Equal(t, 0.0, idx.Score)
	assert.Equal(t, Hazardous, idx.Classification)
}

func TestScore_AllUpperBounds(t *testing.T) {
	idx := Score(150, 2000, 2000)

	assert.InDelta(t, 100.0, idx.Score, 1e-9)
	assert.Equal(t, Hazardous, idx.Classification)
}

func TestScore_Weights(t *testing.T) {
	assert.InDelta(t, 50.0, Score(150, 400, 0).Score, 1e-9)
	assert.InDelta(t, 30.0, Score(0, 2000, 0).Score, 1e-9)
	assert.InDelta(t, 20.0, Score(0, 400, 2000).Score, 1e-9)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Classification
	}{
		{10, Good},
		{30, Moderate},
		{60, Poor},
		{90, Hazardous},
		{0, Hazardous},
		{25, Hazardous},
		{50, Hazardous},
		{75, Hazardous},
		{100, Hazardous},
		{0.01, Good},
		{24.99, Good},
		{25.01, Moderate},
		{74.99, Poor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}
