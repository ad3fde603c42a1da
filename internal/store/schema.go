package store

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/logger"
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Generation is one additive schema step. A generation only creates the
// tables it lists; tables of earlier generations are left alone.
type Generation struct {
	Version int
	Models  []interface{}
}

// Generations in upgrade order.
var Generations = []Generation{
	{Version: 1, Models: []interface{}{&models.PersonalContact{}, &models.UserProfile{}}},
	{Version: 2, Models: []interface{}{&models.Alert{}, &models.Shelter{}, &models.SurvivalGuideCache{}}},
}

// LatestGeneration is the generation a fresh store is migrated to.
var LatestGeneration = Generations[len(Generations)-1].Version

type schemaGeneration struct {
	Version   int `gorm:"primaryKey;autoIncrement:false"`
	AppliedAt time.Time
}

func (schemaGeneration) TableName() string { return "schema_generations" }

// Migrate applies every pending generation up to and including upTo.
// Each generation runs in its own transaction together with its bookkeeping row.
func Migrate(ctx context.Context, db *gorm.DB, upTo int) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaGeneration{}); err != nil {
		return errors.Storage(err, "schema_generations", "migrate")
	}
	current, err := Version(ctx, db)
	if err != nil {
		return err
	}

	for _, g := range Generations {
		if g.Version <= current || g.Version > upTo {
			continue
		}
		g := g
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(g.Models...); err != nil {
				return err
			}
			return tx.Create(&schemaGeneration{Version: g.Version, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return errors.Storage(err, "schema_generations", "migrate").
				WithContext("generation", strconv.Itoa(g.Version))
		}
		logger.Info("store schema upgraded", zap.Int("generation", g.Version))
	}
	return nil
}

// Version returns the highest applied generation, 0 for an empty database.
func Version(ctx context.Context, db *gorm.DB) (int, error) {
	var v int
	row := db.WithContext(ctx).Model(&schemaGeneration{}).Select("COALESCE(MAX(version), 0)").Row()
	if err := row.Scan(&v); err != nil {
		return 0, errors.Storage(err, "schema_generations", "version")
	}
	return v, nil
}
