package jobs

import (
	"context"
	"time"

	"github.com/equilibra/equilibra/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeAnalyzeOwner represents a pattern analysis run for one owner.
	JobTypeAnalyzeOwner JobType = "analyze_owner"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Analysis strategies. Rules is the deterministic evaluator; LLM asks the
// model and falls back to rules when the response is unusable.
const (
	StrategyRules = "rules"
	StrategyLLM   = "llm"
)

// AnalyzeOwnerJob represents one queued analysis run for an owner+mode pair.
type AnalyzeOwnerJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Owner is the user whose ledger gets analyzed.
	Owner string `json:"owner"`

	// Mode selects the work or personal slice of the ledger.
	Mode domain.Mode `json:"mode"`

	// Strategy picks the generator, rules or llm.
	Strategy string `json:"strategy"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// InsightCount is how many insights the run wrote, set on completion.
	InsightCount int `json:"insight_count,omitempty"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *AnalyzeOwnerJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *AnalyzeOwnerJob) GetType() JobType {
	return JobTypeAnalyzeOwner
}

// GetStatus implements the Job interface.
func (j *AnalyzeOwnerJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations
// (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// PublishAnalyzeOwner publishes an analysis job.
	PublishAnalyzeOwner(ctx context.Context, job *AnalyzeOwnerJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *AnalyzeOwnerJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*AnalyzeOwnerJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyzeOwnerJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Owner filters jobs by owner.
	Owner string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
