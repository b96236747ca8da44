package incident

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/repository"
)

// Service handles incident reporting and review operations.
type Service struct {
	incidents   Repository
	sessions    SessionRepository
	activity    *activity.Service
	store       *attachment.Store
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewService creates a new incident service.
func NewService(
	incidents Repository,
	sessions SessionRepository,
	activitySvc *activity.Service,
	store *attachment.Store,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *Service {
	return &Service{
		incidents:   incidents,
		sessions:    sessions,
		activity:    activitySvc,
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Upload pairs a validated descriptor with its content stream.
type Upload struct {
	Descriptor attachment.Descriptor
	Content    io.Reader
}

// ReportRequest describes a new incident report.
type ReportRequest struct {
	SessionID    string
	ReporterID   string
	Category     Category
	Description  string
	Confidential bool
	Subject      Subject
	Uploads      []Upload
}

// Report validates and files an incident. Sensitive categories are
// force-flagged confidential regardless of the request. The subject
// union invariant and the attachment cap are enforced before anything
// is persisted.
func (s *Service) Report(ctx context.Context, req ReportRequest) (*Incident, error) {
	if req.SessionID == "" || req.ReporterID == "" || req.Description == "" {
		return nil, ErrInvalidInput
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}
	if err := req.Subject.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(req.Uploads) > attachment.MaxCount {
		return nil, ErrTooManyAttachments
	}
	for _, up := range req.Uploads {
		if err := attachment.Validate(up.Descriptor); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if _, err := s.sessions.Get(ctx, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	now := time.Now()
	inc := &Incident{
		ID:           uuid.NewString(),
		SessionID:    req.SessionID,
		ReporterID:   req.ReporterID,
		Category:     req.Category,
		Description:  req.Description,
		Confidential: req.Confidential || req.Category.Confidential(),
		Subject:      req.Subject,
		Status:       StatusOpen,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.incidents.Create(ctx, inc); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("creating incident: %w", err)
	}

	for _, up := range req.Uploads {
		stored, err := s.saveUpload(ctx, inc.ID, up)
		if err != nil {
			return nil, err
		}
		inc.Attachments = append(inc.Attachments, *stored)
	}

	s.logActivity(ctx, activity.KindIncidentReported, inc,
		fmt.Sprintf("%s incident reported in session %s", inc.Category, inc.SessionID))
	if s.broadcaster != nil {
		s.broadcaster.Broadcast("incidents", inc.ID)
	}
	return inc, nil
}

// Get retrieves an incident with its attachments.
func (s *Service) Get(ctx context.Context, id string) (*Incident, error) {
	inc, err := s.incidents.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("loading incident: %w", err)
	}
	return inc, nil
}

// List pages through incident summaries with filtering.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	return s.incidents.List(ctx, opts)
}

// Search runs a full-text query over incident descriptions.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	if query == "" {
		return nil, nil
	}
	return s.incidents.Search(ctx, query, limit)
}

// UpdateStatus advances an incident through its review lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status Status) error {
	switch status {
	case StatusOpen, StatusUnderReview, StatusResolved:
	default:
		return ErrInvalidInput
	}
	inc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.incidents.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	inc.Status = status
	s.logActivity(ctx, activity.KindIncidentUpdated, inc,
		fmt.Sprintf("incident %s now %s", id, status))
	if s.broadcaster != nil {
		s.broadcaster.Broadcast("incidents", id)
	}
	return nil
}

func (s *Service) saveUpload(ctx context.Context, incidentID string, up Upload) (*attachment.Stored, error) {
	hash, size, err := s.store.Save(up.Content)
	if err != nil {
		return nil, fmt.Errorf("storing attachment: %w", err)
	}
	stored := &attachment.Stored{
		ID:         uuid.NewString(),
		IncidentID: incidentID,
		Name:       up.Descriptor.Name,
		MIME:       up.Descriptor.MIME,
		Size:       size,
		Hash:       hash,
		UploadedAt: time.Now(),
	}
	if err := s.incidents.AddAttachment(ctx, stored); err != nil {
		return nil, fmt.Errorf("recording attachment: %w", err)
	}
	return stored, nil
}

func (s *Service) logActivity(ctx context.Context, kind activity.Kind, inc *Incident, summary string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Log(ctx, &activity.Entry{
		SessionID:  &inc.SessionID,
		IncidentID: &inc.ID,
		ActorID:    inc.ReporterID,
		Kind:       kind,
		Summary:    summary,
	})
	if err != nil {
		s.logger.Warn("activity log failed", "kind", kind, "error", err)
	}
}
