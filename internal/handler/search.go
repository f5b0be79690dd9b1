package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dharmasatrya/tripoptimizer/internal/advisor"
	"github.com/dharmasatrya/tripoptimizer/internal/aggregator"
	"github.com/dharmasatrya/tripoptimizer/internal/buywait"
	"github.com/dharmasatrya/tripoptimizer/internal/cache"
	"github.com/dharmasatrya/tripoptimizer/internal/filter"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/searches"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
	"github.com/dharmasatrya/tripoptimizer/internal/trend"
)

// RouteCounter counts recent price observations for a route.
// history.Service implements it.
type RouteCounter interface {
	RecentCount(ctx context.Context, origin, destination string) (int64, error)
}

// Deps are the collaborators of SearchHandler. Trends, Counter and Searches
// may be nil: the trends endpoint then answers 503, trend responses omit
// the recent count, and searches are not stored.
type Deps struct {
	Aggregator    *aggregator.Aggregator
	Cache         cache.Cache
	Advisor       *advisor.Advisor
	Trends        trend.Lookup
	Counter       RouteCounter
	Searches      *searches.Service
	RecordHistory bool
}

type SearchHandler struct {
	aggregator    *aggregator.Aggregator
	cache         cache.Cache
	advisor       *advisor.Advisor
	trends        trend.Lookup
	counter       RouteCounter
	searches      *searches.Service
	recordHistory bool
}

func NewSearchHandler(d Deps) *SearchHandler {
	return &SearchHandler{
		aggregator:    d.Aggregator,
		cache:         d.Cache,
		advisor:       d.Advisor,
		trends:        d.Trends,
		counter:       d.Counter,
		searches:      d.Searches,
		recordHistory: d.RecordHistory,
	}
}

// Register mounts the API routes on g.
func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/trips/search", h.Search)
	g.POST("/trips/evaluate", h.Evaluate)
	g.GET("/trips/searches/recent", h.RecentSearches)
	g.GET("/trips/searches/:id/options", h.SearchOptions)
	g.GET("/trends", h.Trends)
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Failed to parse request body: "+err.Error())
	}

	if err := req.Validate(); err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	meta := models.SearchMetadata{}
	options, cacheHit := h.cache.Get(ctx, req)
	if cacheHit {
		meta.CacheHit = true
	} else {
		result, err := h.aggregator.Search(ctx, req)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "search_error",
				Message: "Failed to search trips: " + err.Error(),
				Code:    http.StatusInternalServerError,
			})
		}
		options = result.Options
		meta.ProvidersQueried = result.ProvidersQueried
		meta.ProvidersSucceeded = result.ProvidersSucceeded
		meta.ProvidersFailed = result.ProvidersFailed
		meta.FailedProviders = result.FailedProviders
		meta.ReturnUnavailable = result.ReturnUnavailable

		// A partial round trip is not cached so the next search retries the return leg.
		if !result.ReturnUnavailable {
			if err := h.cache.Set(ctx, req, options); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("failed to cache search results")
			}
		}
	}

	params := buywait.ParamsFromRequest(req)
	ranked, pageStats := filter.Apply(options, req.Filters, req.SortBy, req.SortOrder)
	page := h.advisor.Evaluate(ctx, ranked, pageStats, params)
	if strings.EqualFold(req.SortBy, filter.SortConfidence) {
		advisor.SortByConfidence(page.Evaluations, strings.ToLower(req.SortOrder))
	}

	var searchID string
	if h.searches != nil {
		id, err := h.searches.Save(ctx, req, ranked)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to store search")
		} else {
			searchID = id
		}
	}

	if !cacheHit && h.recordHistory {
		h.advisor.RecordPrices(ctx, params, options)
	}

	meta.TotalResults = len(page.Evaluations)
	meta.SearchTimeMs = time.Since(startTime).Milliseconds()

	return c.JSON(http.StatusOK, SearchResponse{
		SearchID:       searchID,
		SearchCriteria: models.NewSearchCriteria(req),
		Metadata:       meta,
		Statistics:     page.Statistics,
		Trend:          page.Trend,
		Options:        page.Evaluations,
	})
}

// Evaluate explains options the caller already has, without querying
// providers.
func (h *SearchHandler) Evaluate(c echo.Context) error {
	ctx := c.Request().Context()

	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Failed to parse request body: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	page := h.advisor.Evaluate(ctx, req.Options, stats.FromOptions(req.Options), buywait.ParamsFromRequest(req.searchRequest()))

	return c.JSON(http.StatusOK, EvaluateResponse{
		Statistics: page.Statistics,
		Trend:      page.Trend,
		Options:    page.Evaluations,
	})
}

// SearchOptions serves one page of a stored search. Each page is evaluated
// on its own: statistics, flags and buy/wait are computed over the options
// of that page only.
func (h *SearchHandler) SearchOptions(c echo.Context) error {
	ctx := c.Request().Context()
	if h.searches == nil {
		return unavailable(c, "Stored searches are not enabled")
	}

	page, err := intParam(c, "page", 0)
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}
	size, err := intParam(c, "size", 0)
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	id := c.Param("id")
	stored, err := h.searches.Page(ctx, id, page, size)
	if errors.Is(err, searches.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "No stored search with id " + id,
			Code:    http.StatusNotFound,
		})
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("search_id", id).Msg("failed to load stored search")
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to load stored search",
			Code:    http.StatusInternalServerError,
		})
	}

	req := stored.Search.Request()
	evaluated := h.advisor.Evaluate(ctx, stored.Options, stats.FromOptions(stored.Options), buywait.ParamsFromRequest(req))

	return c.JSON(http.StatusOK, OptionsPageResponse{
		SearchID:       stored.Search.ID,
		SearchCriteria: models.NewSearchCriteria(req),
		Page:           stored.Page,
		Size:           stored.Size,
		TotalOptions:   stored.Total,
		HasMore:        stored.HasMore,
		Statistics:     evaluated.Statistics,
		Trend:          evaluated.Trend,
		Options:        evaluated.Evaluations,
	})
}

func (h *SearchHandler) RecentSearches(c echo.Context) error {
	ctx := c.Request().Context()
	if h.searches == nil {
		return unavailable(c, "Stored searches are not enabled")
	}

	limit, err := intParam(c, "limit", 10)
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	recent, err := h.searches.Recent(ctx, limit)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to list recent searches")
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to list recent searches",
			Code:    http.StatusInternalServerError,
		})
	}

	out := make([]RecentSearch, len(recent))
	for i, s := range recent {
		out[i] = newRecentSearch(s)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SearchHandler) Trends(c echo.Context) error {
	ctx := c.Request().Context()

	origin := models.AirportCode(c.QueryParam("origin"))
	destination := models.AirportCode(c.QueryParam("destination"))
	date := c.QueryParam("date")

	if origin == "" {
		return badRequest(c, "validation_error", models.ErrMissingOrigin.Error())
	}
	if destination == "" {
		return badRequest(c, "validation_error", models.ErrMissingDestination.Error())
	}
	departure, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return badRequest(c, "validation_error", "date must be YYYY-MM-DD")
	}

	if h.trends == nil {
		return unavailable(c, "Price history is not configured")
	}

	result, err := h.trends.ComputeTrend(ctx, origin, destination, departure)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return unavailable(c, "Price history is temporarily unavailable")
		}
		logging.Ctx(ctx).Error().Err(err).Str("origin", origin).Str("destination", destination).Msg("trend lookup failed")
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "trend_error",
			Message: "Failed to compute trend",
			Code:    http.StatusInternalServerError,
		})
	}

	resp := TrendResponse{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: date,
		TrendResult:   result,
	}
	if h.counter != nil {
		n, err := h.counter.RecentCount(ctx, origin, destination)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("origin", origin).Str("destination", destination).Msg("failed to count recent observations")
		} else {
			resp.ObservationsRecent = &n
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

func unavailable(c echo.Context, message string) error {
	return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "unavailable",
		Message: message,
		Code:    http.StatusServiceUnavailable,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
