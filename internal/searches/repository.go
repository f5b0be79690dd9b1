// Package searches keeps the ranked options of past searches so later pages
// can be re-evaluated without querying providers again.
package searches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

var ErrNotFound = errors.New("search not found")

// Search is the criteria of one stored search.
type Search struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Origin        string    `gorm:"size:16;not null"`
	Destination   string    `gorm:"size:16;not null"`
	DepartureDate string    `gorm:"size:10;not null"`
	ReturnDate    string    `gorm:"size:10"`
	Passengers    int       `gorm:"not null"`
	CabinClass    string    `gorm:"size:32"`
	SortBy        string    `gorm:"size:32"`
	SortOrder     string    `gorm:"size:8"`
	OptionCount   int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;index:idx_trip_searches_created"`
}

func (Search) TableName() string {
	return "trip_searches"
}

func (s *Search) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return nil
}

// Request rebuilds the search request the row was stored from.
func (s Search) Request() models.SearchRequest {
	req := models.SearchRequest{
		Origin:        s.Origin,
		Destination:   s.Destination,
		DepartureDate: s.DepartureDate,
		Passengers:    s.Passengers,
		CabinClass:    s.CabinClass,
		SortBy:        s.SortBy,
		SortOrder:     s.SortOrder,
	}
	if s.ReturnDate != "" {
		rd := s.ReturnDate
		req.ReturnDate = &rd
	}
	return req
}

// StoredOption is one option of a search at its ranked position.
type StoredOption struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	SearchID   string          `gorm:"size:36;not null;index:idx_trip_search_options_pos,priority:1"`
	Position   int             `gorm:"not null;index:idx_trip_search_options_pos,priority:2"`
	OptionID   string          `gorm:"size:128;not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Payload    string          `gorm:"type:text;not null"`
}

func (StoredOption) TableName() string {
	return "trip_search_options"
}

type Repository interface {
	// Create stores search and its options, in ranked order, atomically.
	Create(ctx context.Context, search *Search, options []models.TripOption) error
	Find(ctx context.Context, id string) (*Search, error)
	// Options returns up to limit options starting at offset, plus the total.
	Options(ctx context.Context, id string, offset, limit int) ([]models.TripOption, int64, error)
	// Recent returns the newest searches first.
	Recent(ctx context.Context, limit int) ([]Search, error)
}

// Migrate creates the stored search tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Search{}, &StoredOption{}); err != nil {
		return fmt.Errorf("migrate stored searches: %w", err)
	}
	return nil
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, search *Search, options []models.TripOption) error {
	search.OptionCount = len(options)

	rows := make([]StoredOption, len(options))
	for i, o := range options {
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode option %s: %w", o.ID, err)
		}
		rows[i] = StoredOption{Position: i, OptionID: o.ID, TotalPrice: o.TotalPrice, Payload: string(payload)}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(search).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].SearchID = search.ID
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("store search %s-%s: %w", search.Origin, search.Destination, err)
	}
	return nil
}

func (r *GormRepository) Find(ctx context.Context, id string) (*Search, error) {
	var s Search
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find search %s: %w", id, err)
	}
	return &s, nil
}

func (r *GormRepository) Options(ctx context.Context, id string, offset, limit int) ([]models.TripOption, int64, error) {
	byID := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&StoredOption{}).Where("search_id = ?", id)
	}

	var total int64
	if err := byID().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count options of %s: %w", id, err)
	}

	var rows []StoredOption
	if err := byID().Order("position ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("load options of %s: %w", id, err)
	}

	out := make([]models.TripOption, len(rows))
	for i, row := range rows {
		if err := json.Unmarshal([]byte(row.Payload), &out[i]); err != nil {
			return nil, 0, fmt.Errorf("decode option %s of %s: %w", row.OptionID, id, err)
		}
	}
	return out, total, nil
}

func (r *GormRepository) Recent(ctx context.Context, limit int) ([]Search, error) {
	var out []Search
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	return out, nil
}
