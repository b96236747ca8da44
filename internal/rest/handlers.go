package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
)

const maxMultipartMemory = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, apiErr *APIError) {
	writeJSON(w, status, map[string]*APIError{"error": apiErr})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status, apiErr := MapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, apiErr)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, &APIError{Code: "BAD_REQUEST", Message: "malformed JSON body"})
		return false
	}
	return true
}

func queryInt(r *http.Request, name, fallback string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		raw = fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// --- students ---

type registerStudentRequest struct {
	IndexNumber string `json:"index_number"`
	FullName    string `json:"full_name"`
	Program     string `json:"program"`
	Level       string `json:"level"`
}

func (s *Server) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.services.Students.Register(r.Context(), student.RegisterRequest{
		IndexNumber: req.IndexNumber,
		FullName:    req.FullName,
		Program:     req.Program,
		Level:       req.Level,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleStudentList(w http.ResponseWriter, r *http.Request) {
	students, err := s.services.Students.List(r.Context(), queryInt(r, "limit", "100"), queryInt(r, "offset", "0"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// handleStudentLookup resolves an index number, preferring the roster of
// the scope session when one is given. A miss returns 404 with near-miss
// suggestions so the client can offer manual entry.
func (s *Server) handleStudentLookup(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	sessionID := r.URL.Query().Get("session_id")

	result, err := s.services.Students.Lookup(r.Context(), key, sessionID)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			lookupsTotal.WithLabelValues("not_found").Inc()
			suggestions, suggestErr := s.services.Students.Suggest(r.Context(), key)
			if suggestErr != nil {
				s.logger.Warn("lookup suggestions failed", "error", suggestErr)
			}
			writeError(w, http.StatusNotFound, &APIError{
				Code:    "STUDENT_NOT_FOUND",
				Message: "student not found",
				Details: map[string]any{
					"query":       key,
					"suggestions": suggestions,
				},
			})
			return
		}
		lookupsTotal.WithLabelValues("error").Inc()
		s.writeDomainError(w, err)
		return
	}
	lookupsTotal.WithLabelValues("found").Inc()
	writeJSON(w, http.StatusOK, result)
}

// --- batches ---

type createBatchRequest struct {
	Name     string    `json:"name"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}

func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := s.services.Sessions.CreateBatch(r.Context(), examsession.CreateBatchRequest{
		Name:     req.Name,
		StartsOn: req.StartsOn,
		EndsOn:   req.EndsOn,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleBatchList(w http.ResponseWriter, r *http.Request) {
	batches, err := s.services.Sessions.ListBatches(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.services.Sessions.BatchProgress(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleSessionsByBatch(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.services.Sessions.ListByBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// --- sessions ---

type createSessionRequest struct {
	BatchID    string    `json:"batch_id"`
	CourseCode string    `json:"course_code"`
	Title      string    `json:"title"`
	Venue      string    `json:"venue"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.services.Sessions.CreateSession(r.Context(), examsession.CreateSessionRequest{
		BatchID:    req.BatchID,
		CourseCode: req.CourseCode,
		Title:      req.Title,
		Venue:      req.Venue,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	var statuses []examsession.Status
	for _, raw := range r.URL.Query()["status"] {
		statuses = append(statuses, examsession.Status(raw))
	}
	sessions, err := s.services.Sessions.List(r.Context(), statuses)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.services.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionOpen(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	sess, err := s.services.Sessions.OpenSession(r.Context(), actor.ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.hub.Broadcast("sessions", sess.ID)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	sess, err := s.services.Sessions.CloseSession(r.Context(), actor.ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.hub.Broadcast("sessions", sess.ID)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.services.Sessions.Roster(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

type rosterAddRequest struct {
	StudentID string `json:"student_id"`
}

func (s *Server) handleRosterAdd(w http.ResponseWriter, r *http.Request) {
	var req rosterAddRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.services.Sessions.AddToRoster(r.Context(), chi.URLParam(r, "sessionID"), req.StudentID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := UserFromContext(r.Context())
	record, err := s.services.Sessions.MarkAttendance(r.Context(), examsession.MarkAttendanceRequest{
		SessionID: chi.URLParam(r, "sessionID"),
		StudentID: req.StudentID,
		Status:    examsession.AttendanceStatus(req.Status),
		MarkedBy:  actor.ID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.hub.Broadcast("attendance", record.SessionID)
	writeJSON(w, http.StatusOK, record)
}

// --- incidents ---

type reportIncidentPayload struct {
	SessionID    string           `json:"session_id"`
	Category     string           `json:"category"`
	Description  string           `json:"description"`
	Confidential bool             `json:"confidential"`
	Subject      incident.Subject `json:"subject"`
}

// handleIncidentReport accepts multipart form data: a "payload" JSON part
// plus up to five "attachments" file parts. Attachment size and type are
// validated by the service before anything is written.
func (s *Server) handleIncidentReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, &APIError{Code: "BAD_REQUEST", Message: "expected multipart form data"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var payload reportIncidentPayload
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
		writeError(w, http.StatusBadRequest, &APIError{Code: "BAD_REQUEST", Message: "malformed payload part"})
		return
	}

	var uploads []incident.Upload
	for _, fh := range r.MultipartForm.File["attachments"] {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, &APIError{Code: "BAD_REQUEST", Message: "unreadable attachment part"})
			return
		}
		defer f.Close()
		uploads = append(uploads, incident.Upload{
			Descriptor: attachment.Descriptor{
				Name: fh.Filename,
				MIME: fh.Header.Get("Content-Type"),
				Size: fh.Size,
			},
			Content: f,
		})
	}

	actor, _ := UserFromContext(r.Context())
	inc, err := s.services.Incidents.Report(r.Context(), incident.ReportRequest{
		SessionID:    payload.SessionID,
		ReporterID:   actor.ID,
		Category:     incident.Category(payload.Category),
		Description:  payload.Description,
		Confidential: payload.Confidential,
		Subject:      payload.Subject,
		Uploads:      uploads,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	incidentsReported.Inc()
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleIncidentList(w http.ResponseWriter, r *http.Request) {
	opts := incident.ListOptions{
		Limit:  queryInt(r, "limit", "50"),
		Offset: queryInt(r, "offset", "0"),
	}
	if v := r.URL.Query().Get("session_id"); v != "" {
		opts.SessionID = &v
	}
	if v := r.URL.Query().Get("category"); v != "" {
		c := incident.Category(v)
		opts.Category = &c
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := incident.Status(v)
		opts.Status = &st
	}
	summaries, err := s.services.Incidents.List(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleIncidentSearch(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.services.Incidents.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit", "20"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleIncidentGet(w http.ResponseWriter, r *http.Request) {
	inc, err := s.services.Incidents.Get(r.Context(), chi.URLParam(r, "incidentID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

type incidentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleIncidentStatus(w http.ResponseWriter, r *http.Request) {
	var req incidentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := UserFromContext(r.Context())
	id := chi.URLParam(r, "incidentID")
	if err := s.services.Incidents.UpdateStatus(r.Context(), actor.ID, id, incident.Status(req.Status)); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- users ---

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	creds, err := s.services.Users.Create(r.Context(), user.CreateRequest{
		Name:  req.Name,
		Email: req.Email,
		Role:  user.Role(req.Role),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creds)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Users.Deactivate(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- activity ---

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	opts := activity.ListOptions{
		Limit:  queryInt(r, "limit", "50"),
		Offset: queryInt(r, "offset", "0"),
	}
	if v := r.URL.Query().Get("session_id"); v != "" {
		opts.SessionID = &v
	}
	if v := r.URL.Query().Get("incident_id"); v != "" {
		opts.IncidentID = &v
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		k := activity.Kind(v)
		opts.Kind = &k
	}
	entries, err := s.services.Activity.Recent(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
