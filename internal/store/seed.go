package store

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/logger"
	"context"

	"go.uber.org/zap"
)

// SeedReport lists which collections received their initial records.
type SeedReport struct {
	Alerts   bool `json:"alerts"`
	Shelters bool `json:"shelters"`
}

// SeedIfEmpty writes the initial alerts and shelters into collections that
// have no records yet. Non-empty collections are never touched.
func (s *Store) SeedIfEmpty(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	var err error
	if report.Alerts, err = seedIfEmpty(ctx, s.Alerts, models.InitialAlerts()); err != nil {
		return report, err
	}
	if report.Shelters, err = seedIfEmpty(ctx, s.Shelters, models.InitialShelters()); err != nil {
		return report, err
	}
	return report, nil
}

func seedIfEmpty[T any, K comparable](ctx context.Context, c *Collection[T, K], records []T) (bool, error) {
	n, err := c.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := c.BulkSeed(ctx, records); err != nil {
		return false, err
	}
	logger.Info("seeded collection", zap.String("collection", c.Name()), zap.Int("records", len(records)))
	return true, nil
}
