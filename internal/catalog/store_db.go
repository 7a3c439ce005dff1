package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUndefinedTable = "42P01"
	catalogRowID     = 1
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_documents (
	id       INTEGER PRIMARY KEY,
	document JSONB   NOT NULL,
	version  BIGINT  NOT NULL
)`

// PostgresStore keeps the catalog document in one jsonb row. The version
// column is bumped on every write and checked in the UPDATE predicate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schemaSQL)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var (
		raw     []byte
		version int64
	)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT document, version
			FROM catalog_documents
			WHERE id = $1
		`, catalogRowID).Scan(&raw, &version)
	})

	empty := Snapshot{Catalog: Catalog{Products: []Product{}}}
	if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}

	c, err := decodeDocument(raw)
	return Snapshot{Catalog: c, Version: strconv.FormatInt(version, 10)}, err
}

func (s *PostgresStore) Save(ctx context.Context, next Snapshot) (string, error) {
	b, err := encodeDocument(next.Catalog)
	if err != nil {
		return "", err
	}

	var version int64
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if next.Version == "" {
			return s.db.QueryRowContext(ctx, `
				INSERT INTO catalog_documents (id, document, version)
				VALUES ($1, $2, 1)
				ON CONFLICT (id) DO NOTHING
				RETURNING version
			`, catalogRowID, b).Scan(&version)
		}

		base, err := strconv.ParseInt(next.Version, 10, 64)
		if err != nil {
			return ErrConflict
		}
		return s.db.QueryRowContext(ctx, `
			UPDATE catalog_documents
			SET document = $2, version = version + 1
			WHERE id = $1 AND version = $3
			RETURNING version
		`, catalogRowID, b, base).Scan(&version)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrConflict
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(version, 10), nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
