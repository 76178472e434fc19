package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"fieldmap/internal/draw"
	"fieldmap/internal/geom"
)

// geofenceRow is the gorm model. Coordinates are kept as JSON columns.
type geofenceRow struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"`
	FeatureID   string        `gorm:"uniqueIndex;size:64;not null"`
	WorksiteID  string        `gorm:"index;size:64;not null"`
	Shape       string        `gorm:"size:16;not null"`
	Name        string        `gorm:"size:200"`
	Description string
	Points      []geom.LatLng `gorm:"serializer:json"`
	Center      *geom.LatLng  `gorm:"serializer:json"`
	Radius      float64
	StrokeColor string `gorm:"size:16"`
	FillColor   string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (geofenceRow) TableName() string { return "geofences" }

func (r *geofenceRow) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func rowFromGeofence(g Geofence) geofenceRow {
	return geofenceRow{
		FeatureID:   g.ID,
		WorksiteID:  g.WorksiteID,
		Shape:       string(g.Shape),
		Name:        g.Name,
		Description: g.Description,
		Points:      g.Points,
		Center:      g.Center,
		Radius:      g.Radius,
		StrokeColor: g.StrokeColor,
		FillColor:   g.FillColor,
		CreatedAt:   g.CreatedAt,
	}
}

func (r geofenceRow) geofence() Geofence {
	return Geofence{
		ID:          r.FeatureID,
		WorksiteID:  r.WorksiteID,
		Shape:       draw.ShapeKind(r.Shape),
		Name:        r.Name,
		Description: r.Description,
		Points:      r.Points,
		Center:      r.Center,
		Radius:      r.Radius,
		StrokeColor: r.StrokeColor,
		FillColor:   r.FillColor,
		CreatedAt:   r.CreatedAt,
	}
}

// OpenPostgres connects with gorm's postgres driver. SQL logging goes
// through zerolog at warn level and above.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	gl := gormWriter{log: log.With().Str("component", "gorm").Logger()}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(gl, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// gormWriter hands gorm's log lines to zerolog. gorm only emits warnings,
// errors and slow queries at the configured level.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn().Msgf(format, args...)
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate() error {
	return errors.Wrap(s.db.AutoMigrate(&geofenceRow{}), "migrate geofences")
}

// upsert replaces every column but the primary key and creation time when
// the feature id already exists.
func upsert(tx *gorm.DB, row *geofenceRow) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "feature_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"worksite_id", "shape", "name", "description", "points", "center",
			"radius", "stroke_color", "fill_color", "updated_at",
		}),
	}).Create(row)
}

func listByWorksite(tx *gorm.DB, worksiteID string, rows *[]geofenceRow) *gorm.DB {
	return tx.Where("worksite_id = ?", worksiteID).Order("created_at").Find(rows)
}

func (s *PostgresStore) SaveGeofence(ctx context.Context, g Geofence) error {
	if err := g.Validate(); err != nil {
		return err
	}
	row := rowFromGeofence(g)
	if err := upsert(s.db.WithContext(ctx), &row).Error; err != nil {
		return errors.Wrapf(err, "save geofence %s", g.ID)
	}
	return nil
}

func (s *PostgresStore) ListGeofences(ctx context.Context, worksiteID string) ([]Geofence, error) {
	var rows []geofenceRow
	if err := listByWorksite(s.db.WithContext(ctx), worksiteID, &rows).Error; err != nil {
		return nil, errors.Wrapf(err, "list geofences for %s", worksiteID)
	}
	out := make([]Geofence, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.geofence())
	}
	return out, nil
}
