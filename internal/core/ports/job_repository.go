package ports

import (
	"context"

	"github.com/gradeidea/roast-service/internal/core/domain"
)

// JobUpdate carries the fields merged into an existing job. Nil fields are
// left untouched. The store bumps updated_at on every merge.
type JobUpdate struct {
	Status           *domain.JobStatus
	Result           *domain.RoastResult
	Paid             *bool
	PaymentSessionID *string
}

// JobRepository defines persistence operations for roast jobs.
//
// Callers must not use Update to move status backward; transition legality
// is checked at the call sites via domain.JobStatus.CanTransitionTo.
type JobRepository interface {
	// Create assigns a unique id, sets created_at = updated_at = now, and
	// persists the job. The assigned id is written back onto the job.
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, id string, upd JobUpdate) error
	FindByID(ctx context.Context, id string) (*domain.Job, error)
}
