package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Students  *student.Service
	Sessions  *examsession.Service
	Incidents *incident.Service
	Users     *user.Service
	Activity  *activity.Service
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	hub      *Hub
	logger   *slog.Logger
}

// NewServer creates the API router with middleware.
func NewServer(services Services, hub *Hub, resolver UserResolver, logger *slog.Logger) *chi.Mux {
	srv := &Server{services: services, hub: hub, logger: logger}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/healthz", srv.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(resolver))

		r.Handle("/events", hub)

		r.Route("/students", func(r chi.Router) {
			r.Get("/lookup", srv.handleStudentLookup)
			r.Get("/", srv.handleStudentList)
			r.With(RequireRole(user.RoleCoordinator, user.RoleAdmin)).
				Post("/", srv.handleStudentRegister)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", srv.handleBatchList)
			r.With(RequireRole(user.RoleCoordinator, user.RoleAdmin)).
				Post("/", srv.handleBatchCreate)
			r.Get("/{batchID}/progress", srv.handleBatchProgress)
			r.Get("/{batchID}/sessions", srv.handleSessionsByBatch)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", srv.handleSessionList)
			r.With(RequireRole(user.RoleCoordinator, user.RoleAdmin)).
				Post("/", srv.handleSessionCreate)
			r.Get("/{sessionID}", srv.handleSessionGet)
			r.Post("/{sessionID}/open", srv.handleSessionOpen)
			r.Post("/{sessionID}/close", srv.handleSessionClose)
			r.Get("/{sessionID}/roster", srv.handleRoster)
			r.Post("/{sessionID}/roster", srv.handleRosterAdd)
			r.Post("/{sessionID}/attendance", srv.handleMarkAttendance)
		})

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", srv.handleIncidentList)
			r.Get("/search", srv.handleIncidentSearch)
			r.Post("/", srv.handleIncidentReport)
			r.Get("/{incidentID}", srv.handleIncidentGet)
			r.Patch("/{incidentID}/status", srv.handleIncidentStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireRole(user.RoleAdmin))
			r.Get("/", srv.handleUserList)
			r.Post("/", srv.handleUserCreate)
			r.Delete("/{userID}", srv.handleUserDeactivate)
		})

		r.Get("/activity", srv.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
