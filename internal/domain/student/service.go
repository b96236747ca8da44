package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/invigil/invigil/internal/repository"
)

// Longest edit distance still offered as a near-miss suggestion.
const maxSuggestionDistance = 2

// Most suggestions returned with a not-found outcome.
const maxSuggestions = 3

// Service handles student directory operations.
type Service struct {
	students Repository
	rosters  RosterRepository
	logger   *slog.Logger
}

// NewService creates a new student service.
func NewService(students Repository, rosters RosterRepository, logger *slog.Logger) *Service {
	return &Service{students: students, rosters: rosters, logger: logger}
}

// RegisterRequest describes a new directory entry.
type RegisterRequest struct {
	IndexNumber string
	FullName    string
	Program     string
	Level       string
}

// Register adds a student to the directory.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Student, error) {
	req.IndexNumber = normalizeKey(req.IndexNumber)
	if req.IndexNumber == "" || req.FullName == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.students.GetByIndexNumber(ctx, req.IndexNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking index number: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateIndex
	}

	st := &Student{
		ID:          uuid.NewString(),
		IndexNumber: req.IndexNumber,
		FullName:    req.FullName,
		Program:     req.Program,
		Level:       req.Level,
		CreatedAt:   time.Now(),
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("creating student: %w", err)
	}
	return st, nil
}

// Get retrieves a student by ID.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	st, err := s.students.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("loading student: %w", err)
	}
	return st, nil
}

// List pages through the directory.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Student, error) {
	return s.students.List(ctx, limit, offset)
}

// Lookup resolves an index number to a student. When sessionID is given
// the session roster is searched first; a roster hit is marked as such.
// A miss returns ErrStudentNotFound so callers can branch to manual
// entry, distinct from transport failures.
func (s *Service) Lookup(ctx context.Context, key, sessionID string) (*LookupResult, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, ErrInvalidInput
	}

	if sessionID != "" {
		st, err := s.rosters.FindOnRoster(ctx, sessionID, key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("searching roster: %w", err)
		}
		if st != nil {
			return &LookupResult{Student: *st, InRoster: true, SessionID: sessionID}, nil
		}
	}

	st, err := s.students.GetByIndexNumber(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("searching directory: %w", err)
	}

	result := &LookupResult{Student: *st}
	if sessionID != "" {
		onRoster, err := s.rosters.IsOnRoster(ctx, sessionID, st.ID)
		if err != nil {
			s.logger.Warn("roster membership check failed", "session", sessionID, "error", err)
		} else if onRoster {
			result.InRoster = true
			result.SessionID = sessionID
		}
	}
	return result, nil
}

// Suggest returns up to three index numbers within a small edit distance
// of the missed key, closest first.
func (s *Service) Suggest(ctx context.Context, key string) ([]Suggestion, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, nil
	}

	all, err := s.students.ListIndexNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing index numbers: %w", err)
	}

	var near []Suggestion
	for _, cand := range all {
		dist := levenshtein.ComputeDistance(key, cand.IndexNumber)
		if dist > 0 && dist <= maxSuggestionDistance {
			cand.Distance = dist
			near = append(near, cand)
		}
	}
	sort.Slice(near, func(i, j int) bool {
		if near[i].Distance != near[j].Distance {
			return near[i].Distance < near[j].Distance
		}
		return near[i].IndexNumber < near[j].IndexNumber
	})
	if len(near) > maxSuggestions {
		near = near[:maxSuggestions]
	}
	return near, nil
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
