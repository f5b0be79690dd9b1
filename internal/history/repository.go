// Package history stores observed route prices and derives route trends
// from them.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const dateLayout = "2006-01-02"

// Observation is one price seen for a route and departure date.
type Observation struct {
	ID            string          `gorm:"primaryKey;size:36"`
	Origin        string          `gorm:"size:16;not null;index:idx_price_obs_route,priority:1"`
	Destination   string          `gorm:"size:16;not null;index:idx_price_obs_route,priority:2"`
	DepartureDate string          `gorm:"size:10;not null;index:idx_price_obs_route,priority:3"`
	Price         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_price_obs_created"`
}

func (Observation) TableName() string {
	return "price_observations"
}

func (o *Observation) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return nil
}

type Repository interface {
	Save(ctx context.Context, obs *Observation) error
	// FindRecentByRoute returns observations for the exact departure date
	// created at or after since, newest first.
	FindRecentByRoute(ctx context.Context, origin, destination string, departure, since time.Time) ([]Observation, error)
	// FindRecentByRouteAndDateRange widens the departure date to [from, to].
	FindRecentByRouteAndDateRange(ctx context.Context, origin, destination string, from, to, since time.Time) ([]Observation, error)
	CountByRouteSince(ctx context.Context, origin, destination string, since time.Time) (int64, error)
}

// Open connects to the SQLite database at path and migrates the schema.
// Use "file::memory:?cache=shared" for an in-process database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open price history db: %w", err)
	}
	if err := db.AutoMigrate(&Observation{}); err != nil {
		return nil, fmt.Errorf("migrate price history db: %w", err)
	}
	return db, nil
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Save(ctx context.Context, obs *Observation) error {
	if err := r.db.WithContext(ctx).Create(obs).Error; err != nil {
		return fmt.Errorf("save observation: %w", err)
	}
	return nil
}

func (r *GormRepository) FindRecentByRoute(ctx context.Context, origin, destination string, departure, since time.Time) ([]Observation, error) {
	var out []Observation
	err := r.db.WithContext(ctx).
		Where("origin = ? AND destination = ? AND departure_date = ? AND created_at >= ?",
			origin, destination, departure.Format(dateLayout), since.UTC()).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find observations for %s-%s: %w", origin, destination, err)
	}
	return out, nil
}

func (r *GormRepository) FindRecentByRouteAndDateRange(ctx context.Context, origin, destination string, from, to, since time.Time) ([]Observation, error) {
	var out []Observation
	err := r.db.WithContext(ctx).
		Where("origin = ? AND destination = ? AND departure_date BETWEEN ? AND ? AND created_at >= ?",
			origin, destination, from.Format(dateLayout), to.Format(dateLayout), since.UTC()).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find observations for %s-%s: %w", origin, destination, err)
	}
	return out, nil
}

func (r *GormRepository) CountByRouteSince(ctx context.Context, origin, destination string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Observation{}).
		Where("origin = ? AND destination = ? AND created_at >= ?", origin, destination, since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count observations for %s-%s: %w", origin, destination, err)
	}
	return n, nil
}
