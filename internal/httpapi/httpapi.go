// Package httpapi is the thin HTTP collaborator in front of the workflow and
// the read-side store. Authentication is handled upstream; the gateway passes
// the caller's identity in the X-User-Id header.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobsphere/ms-job/internal/app"
	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/job"
	"github.com/jobsphere/ms-job/internal/jsoncodec"
	"github.com/jobsphere/ms-job/internal/logging"
)

// JobReader is the read-side of the record store used by the API.
type JobReader interface {
	Get(ctx context.Context, id string) (*job.Job, error)
	List(ctx context.Context, offset, limit int, activeOnly bool) ([]job.Job, error)
	Search(ctx context.Context, q, location string, offset, limit int) ([]job.Job, int, error)
}

// Server mounts the routes on a chi router.
type Server struct {
	jobs         JobReader
	applications *app.Applications
	log          logging.ServiceLogger
}

func NewServer(jobs JobReader, applications *app.Applications, log logging.ServiceLogger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{jobs: jobs, applications: applications, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Get("/search", s.handleSearchJobs)
		r.Get("/{jobID}", s.handleGetJob)
		r.Post("/apply", s.handleApply)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ms-job"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "skip", 0)
	limit := clampLimit(queryInt(r, "limit", 10))
	activeOnly := r.URL.Query().Get("active_only") != "false"

	jobs, err := s.jobs.List(r.Context(), offset, limit, activeOnly)
	if err != nil {
		s.serverError(w, "listing jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	location := r.URL.Query().Get("location")
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := clampLimit(queryInt(r, "limit", 10))
	offset := (page - 1) * limit

	jobs, total, err := s.jobs.Search(r.Context(), q, location, offset, limit)
	if err != nil {
		s.serverError(w, "searching jobs", err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Jobs:       jobs,
		Total:      total,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, errspkg.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.serverError(w, "fetching job", err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

type applicationRequest struct {
	ApplicationData struct {
		JobOfferID     string `json:"job_offer_id"`
		ApplicantName  string `json:"applicant_name"`
		ApplicantEmail string `json:"applicant_email"`
	} `json:"application_data"`
	ProfileData json.RawMessage `json:"profile_data"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req applicationRequest
	if err := jsoncodec.Decode(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ApplicationData.JobOfferID == "" || req.ApplicationData.ApplicantEmail == "" {
		writeError(w, http.StatusBadRequest, "job_offer_id and applicant_email are required")
		return
	}

	application, err := s.applications.Create(r.Context(), app.CreateApplicationInput{
		JobOfferID:     req.ApplicationData.JobOfferID,
		UserID:         userID,
		ApplicantName:  req.ApplicationData.ApplicantName,
		ApplicantEmail: req.ApplicationData.ApplicantEmail,
		Profile:        req.ProfileData,
	})
	if err != nil {
		if errors.Is(err, errspkg.ErrJobOfferNotFound) {
			writeError(w, http.StatusBadRequest, "job offer does not exist")
			return
		}
		s.serverError(w, "creating application", err)
		return
	}

	writeJSON(w, http.StatusCreated, application)
}

type searchResponse struct {
	Jobs       []job.Job `json:"jobs"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.log.Error("Request failed", err, logging.LogFields{"op": msg})
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoncodec.Encode(w, v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
