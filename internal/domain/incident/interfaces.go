package incident

import (
	"context"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/examsession"
)

// Repository provides persistence for incidents.
type Repository interface {
	Create(ctx context.Context, inc *Incident) error
	Get(ctx context.Context, id string) (*Incident, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	List(ctx context.Context, opts ListOptions) ([]Summary, error)
	AddAttachment(ctx context.Context, att *attachment.Stored) error
	Search(ctx context.Context, query string, limit int) ([]Summary, error)
}

// ListOptions provides filtering options for listing incidents.
type ListOptions struct {
	SessionID *string
	Category  *Category
	Status    *Status
	Limit     int
	Offset    int
}

// SessionRepository answers session existence and state for validation.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*examsession.ExamSession, error)
}

// Broadcaster pushes cache-invalidation events to connected clients.
type Broadcaster interface {
	Broadcast(resource, id string)
}
