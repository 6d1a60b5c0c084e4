package repository

import (
	"context"
	"time"

	"github.com/joseph-ayodele/scandocx/constants"
)

// Job is one persisted job document, addressable by its opaque id.
type Job struct {
	ID        string              `bson:"_id" json:"id"`
	Status    constants.JobStatus `bson:"status" json:"status"`
	Step      constants.JobStep   `bson:"step" json:"step"`
	Progress  int                 `bson:"progress" json:"progress"`
	CreatedAt time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updated_at"`
	ExpiresAt time.Time           `bson:"expiresAt" json:"expires_at"`
	Settings  JobSettings         `bson:"settings" json:"settings"`
	Input     JobInput            `bson:"input" json:"input"`
	Output    JobOutput           `bson:"output" json:"output"`
	Error     JobError            `bson:"error" json:"error"`
}

// State returns the job's (status, step) pair.
func (j *Job) State() constants.JobState {
	return constants.JobState{Status: j.Status, Step: j.Step}
}

// JobSettings is immutable after creation. Extra carries forward-compatible
// free-form settings that have no dedicated field yet.
type JobSettings struct {
	DPI          int            `bson:"dpi,omitempty" json:"dpi,omitempty"`
	PageFormat   string         `bson:"page_format,omitempty" json:"page_format,omitempty"`
	OutputFormat string         `bson:"output_format,omitempty" json:"output_format,omitempty"`
	Title        string         `bson:"title,omitempty" json:"title,omitempty"`
	Extra        map[string]any `bson:"extra,omitempty" json:"extra,omitempty"`
}

// JobInput is populated stage by stage as facts about the upload are learned.
type JobInput struct {
	Filename    string         `bson:"filename,omitempty" json:"filename,omitempty"`
	ContentType string         `bson:"content_type,omitempty" json:"content_type,omitempty"`
	SizeBytes   int64          `bson:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	PagesDir    string         `bson:"pages_dir,omitempty" json:"pages_dir,omitempty"`
	PageCount   int            `bson:"page_count,omitempty" json:"page_count,omitempty"`
	Extra       map[string]any `bson:"extra,omitempty" json:"extra,omitempty"`
}

// JobOutput is populated by the later stages.
type JobOutput struct {
	TotalBlocks  int            `bson:"total_blocks,omitempty" json:"total_blocks,omitempty"`
	ArtifactPath string         `bson:"artifact_path,omitempty" json:"artifact_path,omitempty"`
	Format       string         `bson:"format,omitempty" json:"format,omitempty"`
	Extra        map[string]any `bson:"extra,omitempty" json:"extra,omitempty"`
}

// JobError is empty unless the job failed.
type JobError struct {
	Stage   string `bson:"stage,omitempty" json:"stage,omitempty"`
	Message string `bson:"message,omitempty" json:"message,omitempty"`
}

// JobUpdate is a sparse update: only non-nil fields are written. Input and
// Output entries are merged key-by-key into the nested documents rather than
// replacing them.
type JobUpdate struct {
	Status   *constants.JobStatus
	Step     *constants.JobStep
	Progress *int
	Error    *JobError
	Input    map[string]any
	Output   map[string]any
}

// JobStore is the durable record of a job's lifecycle.
//
// Create inserts a new document at the initial state and fails if the id
// already exists. Update applies a sparse merge and always refreshes
// updatedAt. Get returns the current document or a not-found error; a
// TTL-expired job is indistinguishable from one that never existed.
type JobStore interface {
	Create(ctx context.Context, jobID string, settings JobSettings) (*Job, error)
	Get(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, jobID string, upd JobUpdate) (*Job, error)
	ListRecent(ctx context.Context, limit int) ([]Job, error)
}

// Pointer helpers for building sparse updates.
func StatusPtr(s constants.JobStatus) *constants.JobStatus { return &s }
func StepPtr(s constants.JobStep) *constants.JobStep       { return &s }
func ProgressPtr(p int) *int                               { return &p }
