package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

const (
	selectDocSQL = `SELECT document, version FROM catalog_documents WHERE id = \$1`
	insertDocSQL = `INSERT INTO catalog_documents`
	updateDocSQL = `UPDATE catalog_documents SET document = \$2, version = version \+ 1 WHERE id = \$1 AND version = \$3`
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_LoadMissingRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(selectDocSQL).
		WithArgs(int64(catalogRowID)).
		WillReturnError(sql.ErrNoRows)

	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Catalog.Products)
	require.Equal(t, "", snap.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadMissingTable(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(selectDocSQL).
		WillReturnError(&pgconn.PgError{Code: pgUndefinedTable})

	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Catalog.Products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(selectDocSQL).
		WithArgs(int64(catalogRowID)).
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).
			AddRow([]byte(`{"products":[{"id":"p1","title":"Alpha","description":"d","image":"","nutritionLabel":"","category":"protein"}]}`), int64(7)))

	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "7", snap.Version)
	require.Len(t, snap.Catalog.Products, 1)
	require.Equal(t, "Alpha", snap.Catalog.Products[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FirstSaveInserts(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(insertDocSQL).
		WithArgs(int64(catalogRowID), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	v, err := st.Save(context.Background(), Snapshot{Catalog: Catalog{Products: []Product{fullProduct()}}})
	require.NoError(t, err)
	require.Equal(t, "1", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertRaceIsConflict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(insertDocSQL).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := st.Save(context.Background(), Snapshot{})
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateChecksVersion(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(updateDocSQL).
		WithArgs(int64(catalogRowID), sqlmock.AnyArg(), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	v, err := st.Save(ctx, Snapshot{Catalog: Catalog{}, Version: "3"})
	require.NoError(t, err)
	require.Equal(t, "4", v)

	mock.ExpectQuery(updateDocSQL).
		WithArgs(int64(catalogRowID), sqlmock.AnyArg(), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err = st.Save(ctx, Snapshot{Catalog: Catalog{}, Version: "3"})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS catalog_documents`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
