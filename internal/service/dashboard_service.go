package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

const (
	dashboardPath          = "/api/admin/dashboard"
	dashboardDefaultPeriod = "30d"
	dashboardCachePrefix   = "dashboard:summary:"
)

var dashboardPeriods = map[string]struct{}{"7d": {}, "30d": {}, "90d": {}, "12m": {}}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	StatsResources []string
}

// DashboardService composes the dashboard payload from the summary and stats endpoints.
type DashboardService struct {
	api    listing.Requester
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
	flight singleflight.Group
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	API    listing.Requester
	Cache  *CacheService
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if len(cfg.StatsResources) == 0 {
		cfg.StatsResources = []string{"users", "experts", "bookings", "payments"}
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		api:    params.API,
		cache:  params.Cache,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Summary returns the dashboard view for period and reports whether the summary came
// from cache. refresh skips the cache read but still repopulates it.
func (s *DashboardService) Summary(ctx context.Context, period string, refresh bool) (*models.DashboardView, bool, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		period = dashboardDefaultPeriod
	}
	if _, ok := dashboardPeriods[period]; !ok {
		return nil, false, appErrors.WithFields("invalid period", map[string]string{"period": "must be one of 7d, 30d, 90d, 12m"})
	}

	var (
		summary models.DashboardSummary
		cached  bool
		mu      sync.Mutex
		stats   = make(map[string]json.RawMessage, len(s.cfg.StatsResources))
	)

	key := dashboardCachePrefix + period
	if !refresh && s.cache != nil && s.cache.Get(ctx, key, &summary) {
		cached = true
	}

	g, gctx := errgroup.WithContext(ctx)
	if !cached {
		g.Go(func() error {
			// callers share an upstream call only when they present the same token;
			// the shared call outlives any single caller's cancellation
			flightKey := period + "\x00" + apiclient.TokenFromContext(gctx)
			shared := context.WithoutCancel(gctx)
			ch := s.flight.DoChan(flightKey, func() (interface{}, error) {
				return s.loadSummary(shared, period)
			})
			select {
			case <-gctx.Done():
				return gctx.Err()
			case res := <-ch:
				if res.Err != nil {
					return res.Err
				}
				summary = *res.Val.(*models.DashboardSummary)
				return nil
			}
		})
	}
	for _, resource := range s.cfg.StatsResources {
		resource := resource
		g.Go(func() error {
			raw, err := s.loadStats(gctx, resource)
			if err != nil {
				s.logger.Warn("dashboard stats fetch failed", zap.String("resource", resource), zap.Error(err))
				return nil
			}
			mu.Lock()
			stats[resource] = raw
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, TranslateError(err)
	}

	if !cached && s.cache != nil {
		s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	}
	if summary.Period == "" {
		summary.Period = period
	}

	return &models.DashboardView{
		Summary:     summary,
		Stats:       stats,
		GeneratedAt: s.now().UTC(),
	}, cached, nil
}

// Invalidate drops every cached dashboard summary.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, dashboardCachePrefix+"*")
}

func (s *DashboardService) loadSummary(ctx context.Context, period string) (*models.DashboardSummary, error) {
	q := url.Values{}
	q.Set("period", period)
	var env apiclient.Envelope
	if err := s.api.Get(ctx, dashboardPath+"?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	var summary models.DashboardSummary
	if err := env.Unwrap(&summary); err != nil {
		var unsuccessful *apiclient.UnsuccessfulError
		if errors.As(err, &unsuccessful) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", listing.ErrUnexpectedShape, err)
	}
	return &summary, nil
}

func (s *DashboardService) loadStats(ctx context.Context, resource string) (json.RawMessage, error) {
	var env apiclient.Envelope
	if err := s.api.Get(ctx, "/api/admin/"+resource+"/stats", &env); err != nil {
		return nil, err
	}
	var data struct {
		Stats json.RawMessage `json:"stats"`
	}
	if err := env.Unwrap(&data); err != nil {
		return nil, err
	}
	if len(data.Stats) == 0 {
		return json.RawMessage("{}"), nil
	}
	return data.Stats, nil
}
