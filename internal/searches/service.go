package searches

import (
	"context"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

type Config struct {
	Enabled         bool `koanf:"enabled"`
	DefaultPageSize int  `koanf:"default_page_size"`
	MaxPageSize     int  `koanf:"max_page_size"`
	MaxRecent       int  `koanf:"max_recent"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		DefaultPageSize: 10,
		MaxPageSize:     50,
		MaxRecent:       50,
	}
}

// Page is one slice of a stored search's ranked options.
type Page struct {
	Search  Search
	Page    int
	Size    int
	Total   int64
	HasMore bool
	Options []models.TripOption
}

type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Save stores the ranked options of a validated request and returns the
// new search id.
func (s *Service) Save(ctx context.Context, req models.SearchRequest, ranked []models.TripOption) (string, error) {
	search := &Search{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		Passengers:    req.Passengers,
		CabinClass:    req.CabinClass,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
		CreatedAt:     s.now(),
	}
	if req.IsRoundTrip() {
		search.ReturnDate = *req.ReturnDate
	}

	if err := s.repo.Create(ctx, search, ranked); err != nil {
		return "", err
	}
	logging.Ctx(ctx).Debug().
		Str("search_id", search.ID).
		Int("options", search.OptionCount).
		Msg("stored search")
	return search.ID, nil
}

// Page loads page (zero based) of a stored search. Page numbers below zero
// are treated as zero and size is clamped to [1, MaxPageSize]; zero picks
// the default size.
func (s *Service) Page(ctx context.Context, id string, page, size int) (Page, error) {
	page = max(page, 0)
	switch {
	case size == 0:
		size = s.cfg.DefaultPageSize
	case size < 1:
		size = 1
	case size > s.cfg.MaxPageSize:
		size = s.cfg.MaxPageSize
	}

	search, err := s.repo.Find(ctx, id)
	if err != nil {
		return Page{}, err
	}

	options, total, err := s.repo.Options(ctx, id, page*size, size)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Search:  *search,
		Page:    page,
		Size:    size,
		Total:   total,
		HasMore: int64((page+1)*size) < total,
		Options: options,
	}, nil
}

// Recent lists the newest searches, clamping limit to [1, MaxRecent].
func (s *Service) Recent(ctx context.Context, limit int) ([]Search, error) {
	limit = min(max(limit, 1), s.cfg.MaxRecent)
	return s.repo.Recent(ctx, limit)
}
