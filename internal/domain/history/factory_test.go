package history

import (
	"context"
	"testing"
)

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(Config{}, Dependencies{})
	if err != nil {
		t.Fatalf("default driver error: %v", err)
	}
	defer store.Close(context.Background())

	stats, err := store.Stats(context.Background())
	if err != nil || stats["type"] != "memory" {
		t.Fatalf("expected memory store, got %v err=%v", stats, err)
	}

	db := newTestSQLiteDB(t)
	sqlite, err := New(Config{Driver: "SQLite"}, Dependencies{SQLiteDB: db})
	if err != nil {
		t.Fatalf("sqlite driver error: %v", err)
	}
	stats, err = sqlite.Stats(context.Background())
	if err != nil || stats["type"] != "sqlite" {
		t.Fatalf("expected sqlite store, got %v err=%v", stats, err)
	}

	if _, err := New(Config{Driver: DriverSQLite}, Dependencies{}); err == nil {
		t.Fatal("expected sqlite error without handle or path")
	}
	if _, err := New(Config{Driver: "cassandra"}, Dependencies{}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
