package store

import (
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/metrics"
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedBatchSize = 100

// Collection is one named set of records of type T keyed by K.
// Auto-keyed collections assign a fresh key when Put receives the zero key.
type Collection[T any, K comparable] struct {
	db         *gorm.DB
	name       string
	keyColumn  string
	autoKey    bool
	keyOf      func(*T) K
	orderables map[string]string
}

type collectionSpec[T any, K comparable] struct {
	name       string
	keyColumn  string
	autoKey    bool
	keyOf      func(*T) K
	orderables map[string]string
}

func newCollection[T any, K comparable](db *gorm.DB, spec collectionSpec[T, K]) *Collection[T, K] {
	orderables := map[string]string{}
	for field, col := range spec.orderables {
		orderables[field] = col
	}
	return &Collection[T, K]{
		db:         db,
		name:       spec.name,
		keyColumn:  spec.keyColumn,
		autoKey:    spec.autoKey,
		keyOf:      spec.keyOf,
		orderables: orderables,
	}
}

func (c *Collection[T, K]) Name() string { return c.name }

// QueryOption adjusts GetAll.
type QueryOption func(*query)

type query struct {
	orderBy string
	reverse bool
}

// OrderBy sorts by one of the collection's orderable fields.
func OrderBy(field string) QueryOption {
	return func(q *query) { q.orderBy = field }
}

// Reverse flips the whole result order, ties included.
func Reverse() QueryOption {
	return func(q *query) { q.reverse = true }
}

func (c *Collection[T, K]) observe(op string, err error) error {
	metrics.ObserveStore(c.name, op, err)
	return err
}

func (c *Collection[T, K]) fail(op string, err error) error {
	return c.observe(op, errors.Storage(err, c.name, op))
}

// Count returns the number of records.
func (c *Collection[T, K]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, c.fail("count", err)
	}
	return n, c.observe("count", nil)
}

// BulkSeed inserts records as given. It has no duplicate guard: callers
// check Count first.
func (c *Collection[T, K]) BulkSeed(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).CreateInBatches(records, seedBatchSize).Error; err != nil {
		return c.fail("seed", err)
	}
	return c.observe("seed", nil)
}

// GetAll returns every record. Without options records come in key order.
// Equal sort values are tie-broken by key so the order is stable.
func (c *Collection[T, K]) GetAll(ctx context.Context, opts ...QueryOption) ([]T, error) {
	var q query
	for _, opt := range opts {
		opt(&q)
	}

	tx := c.db.WithContext(ctx).Model(new(T))
	if q.orderBy != "" {
		col, ok := c.orderables[q.orderBy]
		if !ok {
			return nil, c.observe("list", errors.Validation("%s: field %q is not orderable", c.name, q.orderBy))
		}
		if col != c.keyColumn {
			tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.reverse})
		}
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: c.keyColumn}, Desc: q.reverse})

	records := make([]T, 0)
	if err := tx.Find(&records).Error; err != nil {
		return nil, c.fail("list", err)
	}
	return records, c.observe("list", nil)
}

// Get returns the record stored under key, or nil when there is none.
func (c *Collection[T, K]) Get(ctx context.Context, key K) (*T, error) {
	rec := new(T)
	err := c.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: c.keyColumn}, Value: key}).
		Take(rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.observe("get", nil)
	}
	if err != nil {
		return nil, c.fail("get", err)
	}
	return rec, c.observe("get", nil)
}

// Put inserts or replaces rec and returns its resolved key. The key
// assigned by an auto-keyed insert is also written back into rec.
func (c *Collection[T, K]) Put(ctx context.Context, rec *T) (K, error) {
	var zero K
	if rec == nil {
		return zero, c.observe("put", errors.Validation("%s: nil record", c.name))
	}

	db := c.db.WithContext(ctx)
	var err error
	if c.keyOf(rec) == zero {
		if !c.autoKey {
			return zero, c.observe("put", errors.Validation("%s: record has no key", c.name))
		}
		err = db.Create(rec).Error
	} else {
		err = db.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
	}
	if err != nil {
		return zero, c.fail("put", err)
	}
	return c.keyOf(rec), c.observe("put", nil)
}

// Delete removes the record under key. A missing key is not an error.
func (c *Collection[T, K]) Delete(ctx context.Context, key K) error {
	err := c.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: c.keyColumn}, Value: key}).
		Delete(new(T)).Error
	if err != nil {
		return c.fail("delete", err)
	}
	return c.observe("delete", nil)
}
