package examsession

import (
	"time"

	"github.com/invigil/invigil/internal/domain/student"
)

// Status represents the lifecycle status of an exam session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
)

// AttendanceStatus marks how a student attended a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Batch groups exam sessions belonging to one exam period.
type Batch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartsOn  time.Time `json:"starts_on"`
	EndsOn    time.Time `json:"ends_on"`
	CreatedAt time.Time `json:"created_at"`
}

// ExamSession is a single sitting: one course, one venue, one time slot.
type ExamSession struct {
	ID         string     `json:"id"`
	BatchID    string     `json:"batch_id"`
	CourseCode string     `json:"course_code"`
	Title      string     `json:"title"`
	Venue      string     `json:"venue"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// AttendanceRecord ties a student to a session with a marked status.
type AttendanceRecord struct {
	SessionID string           `json:"session_id"`
	StudentID string           `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
	MarkedBy  string           `json:"marked_by"`
	MarkedAt  time.Time        `json:"marked_at"`
}

// RosterEntry pairs a registered student with any attendance mark.
type RosterEntry struct {
	Student    student.Student   `json:"student"`
	Attendance *AttendanceRecord `json:"attendance,omitempty"`
}

// BatchProgress summarizes tracking counts across a batch.
type BatchProgress struct {
	BatchID      string `json:"batch_id"`
	Scheduled    int    `json:"scheduled"`
	Active       int    `json:"active"`
	Closed       int    `json:"closed"`
	Registered   int    `json:"registered"`
	MarkedTotal  int    `json:"marked_total"`
	PresentTotal int    `json:"present_total"`
}
