// Package client is the HTTP client for the invigild API. It speaks the
// JSON error envelope, raises typed errors for lookup misses, and can
// subscribe to the server's invalidation stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/rest"
)

// ErrUnauthorized indicates the token was rejected.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// StudentNotFoundError is raised on a lookup miss. It carries the query
// and the server's near-miss suggestions so callers can fall back to
// manual entry.
type StudentNotFoundError struct {
	Query       string
	Suggestions []student.Suggestion
}

func (e *StudentNotFoundError) Error() string {
	return fmt.Sprintf("no student matches %q", e.Query)
}

// Client talks to an invigild server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the given server.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, envelope.Error.Message)
	}
	if envelope.Error.Code == "STUDENT_NOT_FOUND" && len(envelope.Error.Details) > 0 {
		var details struct {
			Query       string               `json:"query"`
			Suggestions []student.Suggestion `json:"suggestions"`
		}
		if err := json.Unmarshal(envelope.Error.Details, &details); err == nil {
			return &StudentNotFoundError{Query: details.Query, Suggestions: details.Suggestions}
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		Details:    envelope.Error.Details,
	}
}

// LookupStudent resolves an index number, scoped to a session's roster
// when sessionID is non-empty. A miss returns *StudentNotFoundError.
func (c *Client) LookupStudent(ctx context.Context, key, sessionID string) (*student.LookupResult, error) {
	q := url.Values{"key": {key}}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	var result student.LookupResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/students/lookup?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterStudent adds a student to the directory.
func (c *Client) RegisterStudent(ctx context.Context, indexNumber, fullName, program, level string) (*student.Student, error) {
	body := map[string]string{
		"index_number": indexNumber,
		"full_name":    fullName,
		"program":      program,
		"level":        level,
	}
	var st student.Student
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/students", body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Attachment is a file to upload alongside an incident report.
type Attachment struct {
	Name    string
	MIME    string
	Content io.Reader
}

// ReportIncidentRequest is the client-side incident submission.
type ReportIncidentRequest struct {
	SessionID    string           `json:"session_id"`
	Category     string           `json:"category"`
	Description  string           `json:"description"`
	Confidential bool             `json:"confidential"`
	Subject      incident.Subject `json:"subject"`
	Attachments  []Attachment     `json:"-"`
}

// ReportIncident submits a report as multipart form data.
func (c *Client) ReportIncident(ctx context.Context, req ReportIncidentRequest) (*incident.Incident, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	if err := w.WriteField("payload", string(payload)); err != nil {
		return nil, fmt.Errorf("writing payload part: %w", err)
	}

	for _, att := range req.Attachments {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachments"; filename=%q`, att.Name))
		hdr.Set("Content-Type", att.MIME)
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("writing attachment part: %w", err)
		}
		if _, err := io.Copy(part, att.Content); err != nil {
			return nil, fmt.Errorf("copying attachment %s: %w", att.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finishing form: %w", err)
	}

	var inc incident.Incident
	if err := c.do(ctx, http.MethodPost, "/api/v1/incidents", &buf, w.FormDataContentType(), &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// ListIncidents lists incident summaries, optionally scoped to a session.
func (c *Client) ListIncidents(ctx context.Context, sessionID string) ([]incident.Summary, error) {
	path := "/api/v1/incidents"
	if sessionID != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var summaries []incident.Summary
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SearchIncidents runs a full-text search over incident descriptions.
func (c *Client) SearchIncidents(ctx context.Context, query string) ([]incident.Summary, error) {
	var summaries []incident.Summary
	path := "/api/v1/incidents/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetIncident fetches one incident with its attachments.
func (c *Client) GetIncident(ctx context.Context, id string) (*incident.Incident, error) {
	var inc incident.Incident
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/incidents/"+id, nil, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// UpdateIncidentStatus moves an incident through its review workflow.
func (c *Client) UpdateIncidentStatus(ctx context.Context, id, status string) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/incidents/"+id+"/status",
		map[string]string{"status": status}, nil)
}

// ListBatches lists exam periods.
func (c *Client) ListBatches(ctx context.Context) ([]examsession.Batch, error) {
	var batches []examsession.Batch
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/batches", nil, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// BatchProgress reports attendance coverage across a batch.
func (c *Client) BatchProgress(ctx context.Context, batchID string) (*examsession.BatchProgress, error) {
	var progress examsession.BatchProgress
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/batches/"+batchID+"/progress", nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListSessions lists sessions, optionally filtered by status.
func (c *Client) ListSessions(ctx context.Context, statuses ...string) ([]examsession.ExamSession, error) {
	q := url.Values{}
	for _, st := range statuses {
		q.Add("status", st)
	}
	path := "/api/v1/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var sessions []examsession.ExamSession
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, id string) (*examsession.ExamSession, error) {
	var sess examsession.ExamSession
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/sessions/"+id, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// OpenSession activates a scheduled session.
func (c *Client) OpenSession(ctx context.Context, id string) (*examsession.ExamSession, error) {
	var sess examsession.ExamSession
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/open", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CloseSession ends an active session.
func (c *Client) CloseSession(ctx context.Context, id string) (*examsession.ExamSession, error) {
	var sess examsession.ExamSession
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/close", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Roster lists the students registered to sit a session.
func (c *Client) Roster(ctx context.Context, sessionID string) ([]examsession.RosterEntry, error) {
	var roster []examsession.RosterEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/sessions/"+sessionID+"/roster", nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// MarkAttendance records an attendance status; the latest mark wins.
func (c *Client) MarkAttendance(ctx context.Context, sessionID, studentID, status string) (*examsession.AttendanceRecord, error) {
	body := map[string]string{"student_id": studentID, "status": status}
	var record examsession.AttendanceRecord
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/attendance", body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// RecentActivity fetches the activity feed, optionally scoped to a session.
func (c *Client) RecentActivity(ctx context.Context, sessionID string, limit int) ([]activity.Entry, error) {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/v1/activity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var entries []activity.Entry
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateUser provisions an operator account and returns its one-time token.
func (c *Client) CreateUser(ctx context.Context, name, email, role string) (*user.Credentials, error) {
	body := map[string]string{"name": name, "email": email, "role": role}
	var creds user.Credentials
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/users", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ListUsers lists operator accounts.
func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeactivateUser revokes an account's access.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/"+id, nil, nil)
}

// Subscribe opens the server's invalidation stream. Events arrive on the
// returned channel until the context is cancelled or the connection
// drops, after which the channel is closed.
func (c *Client) Subscribe(ctx context.Context) (<-chan rest.Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/events"
	header := http.Header{"Authorization": []string{"Bearer " + c.token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dialing event stream: %w", err)
	}

	events := make(chan rest.Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev rest.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return events, nil
}
