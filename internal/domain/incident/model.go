package incident

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invigil/invigil/internal/attachment"
)

// Category is the closed set of incident types.
type Category string

const (
	CategoryCheating        Category = "cheating"
	CategoryImpersonation   Category = "impersonation"
	CategoryIllegalMaterial Category = "illegal_material"
	CategoryMisconduct      Category = "misconduct"
	CategoryHarassment      Category = "harassment"
	CategoryMedical         Category = "medical"
	CategoryOther           Category = "other"
)

// Categories lists every valid category, in display order.
func Categories() []Category {
	return []Category{
		CategoryCheating,
		CategoryImpersonation,
		CategoryIllegalMaterial,
		CategoryMisconduct,
		CategoryHarassment,
		CategoryMedical,
		CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCheating, CategoryImpersonation, CategoryIllegalMaterial,
		CategoryMisconduct, CategoryHarassment, CategoryMedical, CategoryOther:
		return true
	}
	return false
}

// Confidential reports whether reports in this category are force-flagged
// confidential at creation.
func (c Category) Confidential() bool {
	return c == CategoryImpersonation || c == CategoryHarassment
}

// Status represents the review lifecycle of an incident.
type Status string

const (
	StatusOpen        Status = "open"
	StatusUnderReview Status = "under_review"
	StatusResolved    Status = "resolved"
)

// SubjectKind discriminates the subject union.
type SubjectKind string

const (
	SubjectStudent SubjectKind = "student"
	SubjectManual  SubjectKind = "manual"
	SubjectNone    SubjectKind = "none"
)

// StudentRef identifies a directory-resolved subject.
type StudentRef struct {
	StudentID   string `json:"student_id"`
	IndexNumber string `json:"index_number"`
	FullName    string `json:"full_name"`
}

// ManualEntry is the fallback subject supplied by hand when the lookup
// found no directory match.
type ManualEntry struct {
	IndexNumber string `json:"index_number"`
	FullName    string `json:"full_name"`
	Program     string `json:"program,omitempty"`
}

// Subject is a tagged union: a resolved student reference, a manual
// entry, or nothing. At most one variant is set.
type Subject struct {
	Kind    SubjectKind  `json:"kind"`
	Student *StudentRef  `json:"student,omitempty"`
	Manual  *ManualEntry `json:"manual,omitempty"`
}

// Validate enforces the exclusivity invariant of the union.
func (s Subject) Validate() error {
	switch s.Kind {
	case SubjectStudent:
		if s.Student == nil || s.Manual != nil {
			return fmt.Errorf("student subject requires exactly the student variant")
		}
	case SubjectManual:
		if s.Manual == nil || s.Student != nil {
			return fmt.Errorf("manual subject requires exactly the manual variant")
		}
		if s.Manual.IndexNumber == "" {
			return fmt.Errorf("manual subject requires an index number")
		}
	case SubjectNone, "":
		if s.Student != nil || s.Manual != nil {
			return fmt.Errorf("empty subject must carry no variant")
		}
	default:
		return fmt.Errorf("unknown subject kind %q", s.Kind)
	}
	return nil
}

// UnmarshalJSON validates the union on decode.
func (s *Subject) UnmarshalJSON(data []byte) error {
	type alias Subject
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = SubjectNone
	}
	*s = Subject(a)
	return s.Validate()
}

// Incident is a filed report.
type Incident struct {
	ID           string              `json:"id"`
	SessionID    string              `json:"session_id"`
	ReporterID   string              `json:"reporter_id"`
	Category     Category            `json:"category"`
	Description  string              `json:"description"`
	Confidential bool                `json:"confidential"`
	Subject      Subject             `json:"subject"`
	Status       Status              `json:"status"`
	Attachments  []attachment.Stored `json:"attachments,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	ModifiedAt   time.Time           `json:"modified_at"`
}

// Summary is a list-view projection of an incident.
type Summary struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Category     Category  `json:"category"`
	Confidential bool      `json:"confidential"`
	Status       Status    `json:"status"`
	Subject      string    `json:"subject"`
	CreatedAt    time.Time `json:"created_at"`
}
