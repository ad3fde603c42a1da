package guide

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/internal/store"
	"AapdaMitra/pkg/cache"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/llm"
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/metrics"
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cachePrefix = "guide:"

// Result is a survival guide together with where it came from.
type Result struct {
	DisasterType models.DisasterType `json:"disasterType"`
	Guide        string              `json:"guide"`
	Timestamp    time.Time           `json:"timestamp"`
	// Cached is set when the guide was not generated by this call.
	Cached bool `json:"cached"`
	// Stale is set when generation failed and an older guide was served.
	Stale bool `json:"stale"`
}

// Service serves guides cache-aside: memory, then the store, then the oracle.
type Service struct {
	guides *store.Collection[models.SurvivalGuideCache, models.DisasterType]
	l1     cache.Cache
	oracle llm.TextGenerator
	ttl    time.Duration
	now    func() time.Time
	flight singleflight.Group
}

func NewService(guides *store.Collection[models.SurvivalGuideCache, models.DisasterType], l1 cache.Cache, oracle llm.TextGenerator, ttl time.Duration) *Service {
	return &Service{
		guides: guides,
		l1:     l1,
		oracle: oracle,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Fetch returns the guide for dt, generating one only when none is stored.
func (s *Service) Fetch(ctx context.Context, dt models.DisasterType) (*Result, error) {
	dt, err := canonical(dt)
	if err != nil {
		return nil, err
	}

	if rec, ok := s.fromMemory(ctx, dt); ok {
		metrics.ObserveGuideLookup(metrics.GuideSourceMemory)
		return result(rec, true, false), nil
	}

	rec, err := s.guides.Get(ctx, dt)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.remember(ctx, rec)
		metrics.ObserveGuideLookup(metrics.GuideSourceStore)
		return result(rec, true, false), nil
	}

	return s.generate(ctx, dt)
}

// Refresh regenerates the guide for dt and overwrites the stored copy.
func (s *Service) Refresh(ctx context.Context, dt models.DisasterType) (*Result, error) {
	dt, err := canonical(dt)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, dt)
}

func canonical(dt models.DisasterType) (models.DisasterType, error) {
	parsed, ok := models.ParseDisasterType(string(dt))
	if !ok {
		return "", errors.Validation("unknown disaster type %q", dt)
	}
	return parsed, nil
}

func (s *Service) generate(ctx context.Context, dt models.DisasterType) (*Result, error) {
	v, err, _ := s.flight.Do(string(dt), func() (interface{}, error) {
		text, err := s.oracle.GenerateSurvivalGuide(ctx, string(dt))
		if err != nil {
			return nil, err
		}
		rec := &models.SurvivalGuideCache{DisasterType: dt, Guide: text, Timestamp: s.now()}
		if _, err := s.guides.Put(ctx, rec); err != nil {
			logger.Warn("failed to cache survival guide", zap.String("disasterType", string(dt)), zap.Error(err))
		}
		s.remember(ctx, rec)
		return rec, nil
	})
	if err == nil {
		metrics.ObserveGuideLookup(metrics.GuideSourceOracle)
		return result(v.(*models.SurvivalGuideCache), false, false), nil
	}

	logger.Warn("survival guide generation failed", zap.String("disasterType", string(dt)), zap.Error(err))
	rec, getErr := s.guides.Get(ctx, dt)
	if getErr == nil && rec != nil {
		metrics.ObserveGuideLookup(metrics.GuideSourceStale)
		return result(rec, true, true), nil
	}
	metrics.ObserveGuideLookup(metrics.GuideSourceFailed)
	if errors.IsGeneration(err) {
		return nil, err
	}
	return nil, errors.Generation(err, "failed to generate survival guide")
}

func (s *Service) fromMemory(ctx context.Context, dt models.DisasterType) (*models.SurvivalGuideCache, bool) {
	if s.l1 == nil {
		return nil, false
	}
	raw, ok := s.l1.Get(ctx, cachePrefix+string(dt))
	if !ok {
		return nil, false
	}
	var rec models.SurvivalGuideCache
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		_ = s.l1.Delete(ctx, cachePrefix+string(dt))
		return nil, false
	}
	return &rec, true
}

func (s *Service) remember(ctx context.Context, rec *models.SurvivalGuideCache) {
	if s.l1 == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.l1.Set(ctx, cachePrefix+string(rec.DisasterType), string(raw), s.ttl); err != nil {
		logger.Warn("failed to fill guide memory cache", zap.String("disasterType", string(rec.DisasterType)), zap.Error(err))
	}
}

func result(rec *models.SurvivalGuideCache, cached, stale bool) *Result {
	return &Result{
		DisasterType: rec.DisasterType,
		Guide:        rec.Guide,
		Timestamp:    rec.Timestamp,
		Cached:       cached,
		Stale:        stale,
	}
}
