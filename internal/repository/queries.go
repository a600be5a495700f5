package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Stored is a row of the measurements table. The environment columns are
// nullable in the schema, hence the pointers.
type Stored struct {
	ID                    int64     `json:"id"`
	Timestamp             time.Time `json:"timestamp"`
	ParticleConcentration *float64  `json:"particle_concentration"`
	Temperature           *float64  `json:"temperature"`
	Humidity              *float64  `json:"humidity"`
	CO2Concentration      *int64    `json:"co2_concentration"`
	TVOCConcentration     *int64    `json:"tvoc_concentration"`
	SensorStatus          int       `json:"sensor_status"`
	AQI                   float64   `json:"aqi"`
	AQIClassification     string    `json:"aqi_classification"`
}

const selectMeasurementsQuery = `
	SELECT
		id,
		timestamp,
		particle_concentration,
		temperature,
		humidity,
		co2_concentration,
		tvoc_concentration,
		sensor_status,
		aqi,
		aqi_classification
	FROM measurements
	ORDER BY timestamp DESC, id DESC`

const (
	latestMeasurementQuery = selectMeasurementsQuery + `
	LIMIT 1`
	listMeasurementsQuery = selectMeasurementsQuery + `
	LIMIT $1
	OFFSET $2`
)

func scanStored(row pgx.Row) (Stored, error) {
	var s Stored
	err := row.Scan(
		&s.ID,
		&s.Timestamp,
		&s.ParticleConcentration,
		&s.Temperature,
		&s.Humidity,
		&s.CO2Concentration,
		&s.TVOCConcentration,
		&s.SensorStatus,
		&s.AQI,
		&s.AQIClassification,
	)
	return s, err
}

// Latest returns the most recent measurement, from the cache when it has one.
func (r *Repository) Latest(ctx context.Context) (Stored, error) {
	if r.cache != nil {
		s, err := r.cache.Latest(ctx)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn("Latest measurement cache unavailable, reading database", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	s, err := scanStored(r.db.QueryRow(ctx, latestMeasurementQuery))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stored{}, ErrNotFound
	}
	if err != nil {
		return Stored{}, &StoreError{Op: "select latest measurement", Err: err}
	}
	return s, nil
}

// List returns a page of measurements, newest first.
func (r *Repository) List(ctx context.Context, skip, limit int) ([]Stored, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, listMeasurementsQuery, limit, skip)
	if err != nil {
		return nil, &StoreError{Op: "select measurements", Err: err}
	}
	defer rows.Close()

	measurements := make([]Stored, 0, limit)
	for rows.Next() {
		s, err := scanStored(rows)
		if err != nil {
			return nil, &StoreError{Op: "scan measurement", Err: err}
		}
		measurements = append(measurements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "select measurements", Err: err}
	}

	return measurements, nil
}
