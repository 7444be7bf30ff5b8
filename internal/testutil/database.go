// Package testutil provides in-memory database fixtures for the books tests.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/storage"
)

// TestDB represents a migrated test database with seeding helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup  func(context.Context, *storage.SQLiteStorage) error
	Owners       []model.Owner
	Transactions []model.Transaction
	Obligations  []model.Obligation
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database seeded from opts.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}
	for i := range opts.Owners {
		db.SeedOwner(opts.Owners[i])
	}
	if len(opts.Transactions) > 0 {
		db.SeedTransactions(opts.Transactions...)
	}
	for i := range opts.Obligations {
		db.SeedObligation(opts.Obligations[i])
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}
	return db
}

// SeedOwner stores an owner or fails the test.
func (db *TestDB) SeedOwner(owner model.Owner) {
	db.t.Helper()
	if err := db.Storage.SaveOwner(context.Background(), &owner); err != nil {
		db.t.Fatalf("failed to seed owner %q: %v", owner.ID, err)
	}
}

// SeedTransactions stores transactions or fails the test.
func (db *TestDB) SeedTransactions(txns ...model.Transaction) {
	db.t.Helper()
	if _, err := db.Storage.SaveTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
}

// SeedObligation stores a receivable or payable or fails the test.
func (db *TestDB) SeedObligation(o model.Obligation) *model.Obligation {
	db.t.Helper()
	if err := db.Storage.SaveObligation(context.Background(), &o); err != nil {
		db.t.Fatalf("failed to seed %s %q: %v", o.Kind, o.ID, err)
	}
	return &o
}

// MustGetTransaction returns the stored transaction or fails the test.
func (db *TestDB) MustGetTransaction(id string) *model.Transaction {
	db.t.Helper()
	txn, err := db.Storage.GetTransaction(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get transaction %q: %v", id, err)
	}
	return txn
}

// MustGetObligation returns the stored obligation or fails the test.
func (db *TestDB) MustGetObligation(kind model.ObligationKind, id string) *model.Obligation {
	db.t.Helper()
	o, err := db.Storage.GetObligation(context.Background(), kind, id)
	if err != nil {
		db.t.Fatalf("failed to get %s %q: %v", kind, id, err)
	}
	return o
}
