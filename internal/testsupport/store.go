package testsupport

import (
	"context"
	"testing"

	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a job and its ledger row for tests using the provided store.
func NewJob(t testing.TB, store *history.Store, source job.Source) *history.Record {
	t.Helper()

	j, err := job.New(source, job.EngineFaster, job.ModelBase)
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	record, err := store.NewJob(context.Background(), j)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return record
}
