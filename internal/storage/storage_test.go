package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomapi/internal/slogutil"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecommerce.db")

	db, err := Open(path, slogutil.NewDiscardLogger(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db, path
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db, path := openTestDB(t)
	ctx := context.Background()

	assert.FileExists(t, path)
	for _, table := range []string{"users", "orders", MigrationsTable} {
		exists, err := db.TableExists(ctx, table)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist", table)
	}

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, _ := openTestDB(t)
	require.NoError(t, db.Migrate())

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrate_AdoptsExistingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	logger := slogutil.NewDiscardLogger()

	legacy, err := Open(path, logger, Options{})
	require.NoError(t, err)
	_, err = legacy.Conn().Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, first_name TEXT, last_name TEXT,
		email TEXT, age INTEGER, gender TEXT, state TEXT, street_address TEXT, postal_code TEXT, city TEXT,
		country TEXT, latitude REAL, longitude REAL, traffic_source TEXT, created_at TEXT)`)
	require.NoError(t, err)
	_, err = legacy.Conn().Exec(`INSERT INTO users (id, first_name) VALUES (1, 'Ada')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	db, err := Open(path, logger, Options{})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	var count int
	require.NoError(t, db.Conn().Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)
}

func TestReadOnly(t *testing.T) {
	_, path := openTestDB(t)

	ro, err := OpenReadOnly(path, slogutil.NewDiscardLogger(), 0)
	require.NoError(t, err)
	defer ro.Close()

	assert.True(t, ro.ReadOnly())
	assert.Error(t, ro.Migrate())

	_, err = ro.Conn().Exec("INSERT INTO users (id) VALUES (1)")
	assert.Error(t, err, "writes must fail on a read-only handle")

	var count int
	require.NoError(t, ro.Conn().Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 0, count)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	logger := slogutil.NewDiscardLogger()

	t.Run("existing file", func(t *testing.T) {
		db, _ := openTestDB(t)
		assert.NoError(t, db.Check(ctx))
	})

	t.Run("empty file without schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		db, err := OpenReadOnly(path, logger, 0)
		require.NoError(t, err)
		defer db.Close()
		assert.NoError(t, db.Check(ctx))
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		db, err := OpenReadOnly(path, logger, 0)
		require.NoError(t, err)
		defer db.Close()

		err = db.Check(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database file not found")
		assert.NoFileExists(t, path, "read-only handles must not create the file")
	})

	t.Run("in memory", func(t *testing.T) {
		db, err := Open(MemoryPath, logger, Options{})
		require.NoError(t, err)
		defer db.Close()
		assert.NoError(t, db.Check(ctx))
	})
}

func TestWithTx(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("INSERT INTO users (id, first_name) VALUES (1, 'Ada')")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("INSERT INTO users (id, first_name) VALUES (2, 'Grace')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(tx *sqlx.Tx) error {
			_, _ = tx.Exec("INSERT INTO users (id) VALUES (3)")
			panic("kaboom")
		})
	})

	var ids []int64
	require.NoError(t, db.Conn().Select(&ids, "SELECT id FROM users ORDER BY id"))
	assert.Equal(t, []int64{1}, ids)
}

func TestWithConn_ReleasesConnection(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	// The read-write pool holds a single connection, so a leak would block the
	// second call forever.
	for i := 0; i < 3; i++ {
		err := db.WithConn(ctx, func(conn *sqlx.Conn) error {
			return errors.New("fail")
		})
		assert.Error(t, err)
	}
	assert.Equal(t, 0, db.Conn().Stats().InUse)
}

func TestInsertIgnoreBatch(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()
	cols := []string{"id", "first_name", "country"}

	var inserted int64
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := InsertIgnoreBatch(ctx, tx, "users", cols, [][]any{
			{"1", "Ada", "UK"},
			{"2", nil, "US"},
			{"1", "Duplicate", "FR"},
		})
		inserted = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	var u User
	require.NoError(t, db.Conn().Get(&u, "SELECT * FROM users WHERE id = 1"))
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Ada", *u.FirstName, "first write wins")

	require.NoError(t, db.Conn().Get(&u, "SELECT * FROM users WHERE id = 2"))
	assert.Nil(t, u.FirstName)
	require.NotNil(t, u.Country)
	assert.Equal(t, "US", *u.Country)

	err = db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := InsertIgnoreBatch(ctx, tx, "users", cols, [][]any{{"3"}})
		return err
	})
	assert.Error(t, err)
}

func TestInsertIgnoreBatch_SplitsLargeBatches(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	cols := OrdersTable.Columns
	rows := make([][]any, 0, 4000)
	for i := 1; i <= 4000; i++ {
		rows = append(rows, []any{i, 1, "Complete", "F", "2023-01-01", nil, nil, nil, 1})
	}

	var inserted int64
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := InsertIgnoreBatch(ctx, tx, "orders", cols, rows)
		inserted = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), inserted)
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, StatusComplete.Known())
	assert.False(t, OrderStatus("Lost in transit").Known())
	assert.Equal(t, "Returned", StatusReturned.String())
}

func TestTableByName(t *testing.T) {
	table, ok := TableByName("orders")
	require.True(t, ok)
	assert.Equal(t, "order_id", table.PrimaryKey)
	assert.True(t, table.HasColumn("num_of_item"))
	assert.False(t, table.HasColumn("email"))

	_, ok = TableByName("products")
	assert.False(t, ok)
}
