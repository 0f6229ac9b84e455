package api

import (
	"context"
	"fmt"

	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/services"
)

// JobReader is the slice of the ledger store the read-side API consumes.
type JobReader interface {
	List(ctx context.Context, statuses ...job.Status) ([]*history.Record, error)
	GetByID(ctx context.Context, id string) (*history.Record, error)
	Health(ctx context.Context) (history.HealthSummary, error)
}

// JobService answers read-side job queries with wire payloads. A nil
// service or store reports unavailable rather than panicking.
type JobService struct {
	store JobReader
}

// NewJobService wires a service around the provided store.
func NewJobService(store JobReader) *JobService {
	return &JobService{store: store}
}

// List returns jobs filtered by the optional status set, newest first.
func (s *JobService) List(ctx context.Context, statuses ...job.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("%w: job ledger not available", services.ErrUnavailable)
	}
	records, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return FromRecords(records), nil
}

// Describe returns one job by ID. The boolean reports whether it exists.
func (s *JobService) Describe(ctx context.Context, id string) (Job, bool, error) {
	if s == nil || s.store == nil {
		return Job{}, false, fmt.Errorf("%w: job ledger not available", services.ErrUnavailable)
	}
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Job{}, false, fmt.Errorf("describe job %s: %w", id, err)
	}
	if record == nil {
		return Job{}, false, nil
	}
	return FromRecord(record), true, nil
}

// Counts returns ledger occupancy grouped by lifecycle bucket.
func (s *JobService) Counts(ctx context.Context) (JobCounts, error) {
	if s == nil || s.store == nil {
		return JobCounts{}, fmt.Errorf("%w: job ledger not available", services.ErrUnavailable)
	}
	summary, err := s.store.Health(ctx)
	if err != nil {
		return JobCounts{}, fmt.Errorf("job counts: %w", err)
	}
	return FromHealthSummary(summary), nil
}
