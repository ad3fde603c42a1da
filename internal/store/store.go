package store

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/util"
	"context"
	"time"

	"gorm.io/gorm"
)

// Store is the offline-available system of record. Build one at startup
// and hand it to every consumer.
type Store struct {
	db *gorm.DB

	Contacts *Collection[models.PersonalContact, uint]
	Profiles *Collection[models.UserProfile, uint]
	Alerts   *Collection[models.Alert, uint]
	Shelters *Collection[models.Shelter, uint]
	Guides   *Collection[models.SurvivalGuideCache, models.DisasterType]
}

// Open connects to the database and upgrades it to LatestGeneration.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := util.OpenDB(driver, dsn, 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := Migrate(ctx, db, LatestGeneration); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already open database without migrating it.
func New(db *gorm.DB) *Store {
	return &Store{
		db: db,
		Contacts: newCollection(db, collectionSpec[models.PersonalContact, uint]{
			name:       "personalContacts",
			keyColumn:  "id",
			autoKey:    true,
			keyOf:      func(c *models.PersonalContact) uint { return c.ID },
			orderables: map[string]string{"id": "id", "name": "name", "number": "number"},
		}),
		Profiles: newCollection(db, collectionSpec[models.UserProfile, uint]{
			name:       "userProfile",
			keyColumn:  "id",
			keyOf:      func(p *models.UserProfile) uint { return p.ID },
			orderables: map[string]string{"id": "id", "name": "name", "phone": "phone", "age": "age", "gender": "gender"},
		}),
		Alerts: newCollection(db, collectionSpec[models.Alert, uint]{
			name:       "alerts",
			keyColumn:  "id",
			autoKey:    true,
			keyOf:      func(a *models.Alert) uint { return a.ID },
			orderables: map[string]string{"id": "id", "type": "type", "area": "area", "severity": "severity"},
		}),
		Shelters: newCollection(db, collectionSpec[models.Shelter, uint]{
			name:       "shelters",
			keyColumn:  "id",
			autoKey:    true,
			keyOf:      func(s *models.Shelter) uint { return s.ID },
			orderables: map[string]string{"id": "id", "name": "name", "location": "location"},
		}),
		Guides: newCollection(db, collectionSpec[models.SurvivalGuideCache, models.DisasterType]{
			name:       "survivalGuides",
			keyColumn:  "disaster_type",
			keyOf:      func(g *models.SurvivalGuideCache) models.DisasterType { return g.DisasterType },
			orderables: map[string]string{"disasterType": "disaster_type", "timestamp": "timestamp"},
		}),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadProfile returns the singleton profile, writing the default on first use.
func (s *Store) LoadProfile(ctx context.Context) (*models.UserProfile, error) {
	p, err := s.Profiles.Get(ctx, models.ProfileID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	def := models.DefaultProfile()
	if _, err := s.Profiles.Put(ctx, &def); err != nil {
		return nil, err
	}
	return &def, nil
}
