package handler

import (
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/advisor"
	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/searches"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

type SearchResponse struct {
	SearchID       string                `json:"search_id,omitempty"`
	SearchCriteria models.SearchCriteria `json:"search_criteria"`
	Metadata       models.SearchMetadata `json:"metadata"`
	Statistics     stats.Statistics      `json:"statistics"`
	Trend          *history.TrendResult  `json:"trend,omitempty"`
	Options        []advisor.Evaluation  `json:"options"`
}

// EvaluateRequest carries options priced elsewhere. Route and date are only
// used for the history trend and the days-to-departure signal.
type EvaluateRequest struct {
	Origin        string              `json:"origin"`
	Destination   string              `json:"destination"`
	DepartureDate string              `json:"departure_date,omitempty"`
	Options       []models.TripOption `json:"options"`
}

func (r EvaluateRequest) Validate() error {
	if len(r.Options) == 0 {
		return models.ErrNoOptions
	}
	if r.DepartureDate != "" {
		if _, ok := r.searchRequest().EarliestDeparture(); !ok {
			return models.ErrInvalidDepartureDate
		}
	}
	return nil
}

func (r EvaluateRequest) searchRequest() models.SearchRequest {
	return models.SearchRequest{
		Origin:        models.AirportCode(r.Origin),
		Destination:   models.AirportCode(r.Destination),
		DepartureDate: r.DepartureDate,
	}
}

type EvaluateResponse struct {
	Statistics stats.Statistics     `json:"statistics"`
	Trend      *history.TrendResult `json:"trend,omitempty"`
	Options    []advisor.Evaluation `json:"options"`
}

// TrendResponse adds to the trend the number of observations recorded for
// the route in the lookback window, across all departure dates.
type TrendResponse struct {
	Origin             string `json:"origin"`
	Destination        string `json:"destination"`
	DepartureDate      string `json:"departure_date"`
	ObservationsRecent *int64 `json:"observations_recent,omitempty"`
	history.TrendResult
}

type OptionsPageResponse struct {
	SearchID       string                `json:"search_id"`
	SearchCriteria models.SearchCriteria `json:"search_criteria"`
	Page           int                   `json:"page"`
	Size           int                   `json:"size"`
	TotalOptions   int64                 `json:"total_options"`
	HasMore        bool                  `json:"has_more"`
	Statistics     stats.Statistics      `json:"statistics"`
	Trend          *history.TrendResult  `json:"trend,omitempty"`
	Options        []advisor.Evaluation  `json:"options"`
}

type RecentSearch struct {
	SearchID      string    `json:"search_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date,omitempty"`
	OptionCount   int       `json:"option_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func newRecentSearch(s searches.Search) RecentSearch {
	return RecentSearch{
		SearchID:      s.ID,
		Origin:        s.Origin,
		Destination:   s.Destination,
		DepartureDate: s.DepartureDate,
		ReturnDate:    s.ReturnDate,
		OptionCount:   s.OptionCount,
		CreatedAt:     s.CreatedAt,
	}
}
