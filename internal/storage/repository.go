package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pack-grader/internal/pricing"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	createBundlesTableSQL = `CREATE TABLE IF NOT EXISTS bundles (
        id          BIGSERIAL PRIMARY KEY,
        price       NUMERIC(18,4) NOT NULL,
        items       JSONB NOT NULL,
        observed_at TIMESTAMPTZ NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	createObservedAtIndexSQL = `CREATE INDEX IF NOT EXISTS idx_bundles_observed_at
        ON bundles (observed_at);`

	insertBundleSQL = `INSERT INTO bundles (price, items, observed_at)
    VALUES ($1, $2, $3)
    RETURNING id, created_at;`

	listBundlesSQL = `SELECT id, price, items, observed_at, created_at
    FROM bundles
    ORDER BY observed_at;`

	listRecentBundlesSQL = `SELECT id, price, items, observed_at, created_at
    FROM bundles
    ORDER BY observed_at DESC
    LIMIT $1;`

	countBundlesSQL = `SELECT COUNT(*) FROM bundles;`
)

// BundleStore defines operations for bundle persistence.
type BundleStore interface {
	InsertBundle(ctx context.Context, rec BundleRecord) (BundleRecord, error)
	ListRecentBundles(ctx context.Context, limit int) ([]BundleRecord, error)
	CountBundles(ctx context.Context) (int64, error)
}

// Store is the Postgres-backed bundle repository. It also implements
// pricing.BundleSource for the model builder.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ BundleStore          = (*Store)(nil)
	_ pricing.BundleSource = (*Store)(nil)
)

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the bundles table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createBundlesTableSQL); err != nil {
		return fmt.Errorf("create bundles table: %w", err)
	}
	if _, err := pool.Exec(ctx, createObservedAtIndexSQL); err != nil {
		return fmt.Errorf("create observed_at index: %w", err)
	}
	return nil
}

// InsertBundle persists a submitted bundle and returns it with identity
// columns populated.
func (s *Store) InsertBundle(ctx context.Context, rec BundleRecord) (BundleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return BundleRecord{}, err
	}

	items, err := json.Marshal(rec.Items)
	if err != nil {
		return BundleRecord{}, fmt.Errorf("marshal item lines: %w", err)
	}

	observedAt := rec.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	row := pool.QueryRow(ctx, insertBundleSQL, rec.Price.String(), items, observedAt)
	rec.ObservedAt = observedAt
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return BundleRecord{}, fmt.Errorf("insert bundle: %w", err)
	}
	return rec, nil
}

// ListBundles returns every stored bundle in chronological order, converted
// to the pricing domain. Satisfies pricing.BundleSource.
func (s *Store) ListBundles(ctx context.Context) ([]pricing.Bundle, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listBundlesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list bundles: %w", queryErr)
	}
	defer rows.Close()

	bundles := make([]pricing.Bundle, 0)
	for rows.Next() {
		rec, scanErr := scanBundle(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bundles = append(bundles, rec.ToBundle())
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bundles, nil
}

// ListRecentBundles lists the most recent bundles, newest first.
func (s *Store) ListRecentBundles(ctx context.Context, limit int) ([]BundleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentBundlesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent bundles: %w", queryErr)
	}
	defer rows.Close()

	records := make([]BundleRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanBundle(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// CountBundles counts stored bundles.
func (s *Store) CountBundles(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countBundlesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count bundles: %w", scanErr)
	}
	return count, nil
}

func scanBundle(rows pgx.Rows) (BundleRecord, error) {
	var (
		id         int64
		priceStr   string
		items      json.RawMessage
		observedAt time.Time
		createdAt  time.Time
	)

	if err := rows.Scan(&id, &priceStr, &items, &observedAt, &createdAt); err != nil {
		return BundleRecord{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return BundleRecord{}, fmt.Errorf("parse bundle price: %w", err)
	}

	var lines []pricing.ItemLine
	if err := json.Unmarshal(items, &lines); err != nil {
		return BundleRecord{}, fmt.Errorf("decode item lines: %w", err)
	}

	return BundleRecord{
		ID:         id,
		Price:      price,
		Items:      lines,
		ObservedAt: observedAt,
		CreatedAt:  createdAt,
	}, nil
}
