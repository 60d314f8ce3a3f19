// Package testutil provides the fixture store and golden-file helpers shared
// by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"ecomapi/internal/loader"
	"ecomapi/internal/slogutil"
	"ecomapi/internal/storage"
)

// FixtureUsers and FixtureOrders are the CSV files under testdata/fixtures.
const (
	FixtureUsers  = "users.csv"
	FixtureOrders = "orders.csv"
)

// FixturePath returns the absolute path of a file in testdata/fixtures/.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(testdataRoot(t), "fixtures", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Fixture not found: %s", path)
	}
	return path
}

// FixtureStore loads the fixture CSVs into a fresh database file and returns
// its path. The store holds five customers and eight orders, one of which
// references a customer that does not exist.
func FixtureStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecommerce.db")

	db, err := storage.Open(path, slogutil.NewDiscardLogger(), storage.Options{})
	if err != nil {
		t.Fatalf("Failed to open fixture store: %v", err)
	}
	defer db.Close()

	l := loader.New(db, slogutil.NewDiscardLogger(), loader.Options{})
	if _, err := l.Load(context.Background(), FixturePath(t, FixtureUsers), FixturePath(t, FixtureOrders)); err != nil {
		t.Fatalf("Failed to load fixtures: %v", err)
	}
	return path
}

// testdataRoot returns the absolute path to the repository's testdata/.
func testdataRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// internal/testutil -> project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	return filepath.Join(projectRoot, "testdata")
}
