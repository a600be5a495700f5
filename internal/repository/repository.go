// Package repository owns the measurements table: the ingestion insert, the
// schema migrations, the read queries of the API and the latest-value cache.
package repository

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/m4reQ/skyva/internal/measurement"
)

// DefaultTimeout bounds a single insert when no other timeout is configured.
const DefaultTimeout = 5 * time.Second

// ErrNotFound is returned by Latest when nothing has been stored yet.
var ErrNotFound = errors.New("no measurements recorded")

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LatestCache keeps the most recently stored measurement for fast reads.
type LatestCache interface {
	StoreLatest(ctx context.Context, m Stored) error
	Latest(ctx context.Context) (Stored, error)
}

// StoreError wraps any failure of the measurement store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Repository hides SQL from the rest of the application. Callers only see
// measurement types.
type Repository struct {
	db      DB
	cache   LatestCache
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Repository.
type Option func(*Repository)

// WithCache enables the latest-value cache.
func WithCache(c LatestCache) Option {
	return func(r *Repository) { r.cache = c }
}

// WithTimeout bounds every query. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(db DB, logger *slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		db:      db,
		logger:  logger,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const insertMeasurementQuery = `
	INSERT INTO measurements (
		timestamp,
		particle_concentration,
		temperature,
		humidity,
		co2_concentration,
		tvoc_concentration,
		sensor_status,
		aqi,
		aqi_classification)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

// SaveMeasurement appends one enriched record. A failure is logged and
// returned as *StoreError; the record is dropped, there is no retry.
func (r *Repository) SaveMeasurement(ctx context.Context, m measurement.Enriched) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stored := storedFromEnriched(m)

	err := r.db.QueryRow(ctx, insertMeasurementQuery,
		stored.Timestamp,
		stored.ParticleConcentration,
		stored.Temperature,
		stored.Humidity,
		stored.CO2Concentration,
		stored.TVOCConcentration,
		stored.SensorStatus,
		stored.AQI,
		stored.AQIClassification,
	).Scan(&stored.ID)
	if err != nil {
		storeErr := &StoreError{Op: "insert measurement", Err: err}
		r.logger.Error("Failed to insert measurement data", "error", storeErr)
		return storeErr
	}
	r.logger.Debug("Saved measurement data in database", "id", stored.ID)

	// The cache only speeds up reads; the row is already durable.
	if r.cache != nil {
		if err := r.cache.StoreLatest(ctx, stored); err != nil {
			r.logger.Warn("Failed to update latest measurement cache", "id", stored.ID, "error", err)
		}
	}

	return nil
}

func storedFromEnriched(m measurement.Enriched) Stored {
	co2 := int64(math.Round(m.CO2Concentration))
	tvoc := int64(math.Round(m.TVOCConcentration))

	return Stored{
		Timestamp:             m.Timestamp,
		ParticleConcentration: &m.ParticleConcentration,
		Temperature:           &m.Temperature,
		Humidity:              &m.Humidity,
		CO2Concentration:      &co2,
		TVOCConcentration:     &tvoc,
		SensorStatus:          m.SensorStatus,
		AQI:                   m.AQI,
		AQIClassification:     string(m.AQIClassification),
	}
}
