package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/equilibra/equilibra/internal/domain"
	"github.com/equilibra/equilibra/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.AnalyzeOwnerJob{
		JobID:  "job-1",
		Owner:  "user-1",
		Mode:   domain.ModePersonal,
		Status: jobs.JobStatusPending,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Owner != "user-1" || got.Status != jobs.JobStatusPending {
		t.Errorf("got %+v", got)
	}

	// Mutating the returned copy must not touch the stored job.
	got.Status = jobs.JobStatusFailed
	again, _ := store.GetJob(ctx, "job-1")
	if again.Status != jobs.JobStatusPending {
		t.Error("GetJob returned a shared pointer instead of a copy")
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.AnalyzeOwnerJob{}); err == nil {
		t.Fatal("expected error for job without ID")
	}
}

func TestStore_ListJobsFilterAndOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, spec := range []struct {
		id     string
		owner  string
		status jobs.JobStatus
	}{
		{"job-1", "user-1", jobs.JobStatusCompleted},
		{"job-2", "user-1", jobs.JobStatusFailed},
		{"job-3", "user-2", jobs.JobStatusCompleted},
	} {
		_ = store.SaveJob(ctx, &jobs.AnalyzeOwnerJob{
			JobID:     spec.id,
			Owner:     spec.owner,
			Status:    spec.status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	list, err := store.ListJobs(ctx, jobs.JobFilter{Owner: "user-1"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d jobs, want 2", len(list))
	}
	if list[0].JobID != "job-2" {
		t.Errorf("first job = %s, want job-2 (newest first)", list[0].JobID)
	}

	list, err = store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(list) != 1 || list[0].Status != jobs.JobStatusCompleted {
		t.Errorf("got %+v, want one completed job", list)
	}
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, 1, store)
	ctx := context.Background()

	var mu sync.Mutex
	processed := make(map[string]bool)
	done := make(chan struct{})

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		processed[job.GetID()] = true
		mu.Unlock()
		close(done)
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.AnalyzeOwnerJob{Owner: "user-1", Mode: domain.ModeWork}
	if err := queue.PublishAnalyzeOwner(ctx, job); err != nil {
		t.Fatalf("PublishAnalyzeOwner: %v", err)
	}
	if job.JobID == "" || job.Strategy != jobs.StrategyRules {
		t.Errorf("publish did not fill defaults: %+v", job)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	// The worker updates the stored status after the handler returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := store.GetJob(ctx, job.JobID)
		if err == nil && stored.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %v, want completed", stored)
		}
		time.Sleep(10 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := queue.Stop(shutdownCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	queue := NewQueue(1, 1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := queue.PublishAnalyzeOwner(context.Background(), &jobs.AnalyzeOwnerJob{Owner: "u"}); err == nil {
		t.Fatal("expected error publishing to a closed queue")
	}
}
