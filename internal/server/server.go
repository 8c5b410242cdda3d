// Package server exposes the interview over HTTP for the browser UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/chaz8081/mock-interviewer/internal/extract"
	"github.com/chaz8081/mock-interviewer/internal/interview"
	"github.com/chaz8081/mock-interviewer/internal/llm"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// MaxResumeBytes caps the size of an uploaded resume.
const MaxResumeBytes = 10 << 20

// Dispatcher runs interview commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd interview.Command) (interview.Result, error)
	Progress() interview.Progress
}

// Server routes HTTP requests to a Dispatcher.
type Server struct {
	d   Dispatcher
	spa http.Handler
	log zerolog.Logger
}

// New creates a Server. spa serves every path outside /api; it may be nil.
func New(d Dispatcher, spa http.Handler, log zerolog.Logger) *Server {
	return &Server{
		d:   d,
		spa: spa,
		log: log.With().Str("component", "http").Logger(),
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/domains", s.handleDomains)
		r.Post("/domain", s.handleSelectDomain)
		r.Post("/resume", s.handleUploadResume)
		r.Post("/interview/begin", s.command(interview.KindBeginInterview))
		r.Post("/interview/end", s.command(interview.KindEndInterview))
		r.Post("/interview/new", s.command(interview.KindNewInterview))
		r.Post("/record", s.command(interview.KindRecordAnswer))
		r.Get("/record/progress", s.handleProgress)
		r.Get("/report", s.handleReport)
	})

	if s.spa != nil {
		r.Handle("/*", s.spa)
	}
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StatusFor maps a command error to an HTTP status.
func StatusFor(err error) int {
	var (
		eerr *extract.ExtractionError
		terr *transcribe.TranscriptionError
		gerr *llm.GenerationError
		rerr *report.RenderError
		uerr *interview.UnknownCommandError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &eerr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &gerr):
		return http.StatusBadGateway
	case errors.As(err, &terr), errors.As(err, &rerr):
		return http.StatusInternalServerError
	case errors.Is(err, interview.ErrUnknownDomain), errors.As(err, &uerr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type sessionResponse struct {
	interview.Snapshot
	Error string `json:"error,omitempty"`
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd interview.Command) (interview.Result, bool) {
	res, err := s.d.Dispatch(r.Context(), cmd)
	if err != nil {
		Error(w, http.StatusServiceUnavailable, err.Error())
		return interview.Result{}, false
	}
	return res, true
}

func writeResult(w http.ResponseWriter, res interview.Result) {
	body := sessionResponse{Snapshot: res.Snapshot}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	JSON(w, StatusFor(res.Err), body)
}

func (s *Server) command(kind interview.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res, ok := s.dispatch(w, r, interview.Command{Kind: kind}); ok {
			writeResult(w, res)
		}
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.dispatch(w, r, interview.Command{Kind: interview.KindSnapshot}); ok {
		writeResult(w, res)
	}
}

func (s *Server) handleDomains(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"domains": types.Domains(),
		"default": types.DefaultDomain(),
	})
}

func (s *Server) handleSelectDomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domain, err := types.ParseDomain(req.Domain)
	if err != nil {
		// Let the controller report the bad value in the snapshot.
		domain = types.Domain(req.Domain)
	}
	if res, ok := s.dispatch(w, r, interview.Command{Kind: interview.KindSelectDomain, Domain: domain}); ok {
		writeResult(w, res)
	}
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxResumeBytes)
	if err := r.ParseMultipartForm(MaxResumeBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing resume file")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		Error(w, http.StatusBadRequest, "read resume: "+err.Error())
		return
	}

	cmd := interview.Command{Kind: interview.KindUploadResume, Filename: header.Filename, PDF: data}
	if res, ok := s.dispatch(w, r, cmd); ok {
		writeResult(w, res)
	}
}

type progressResponse struct {
	Recording bool    `json:"recording"`
	ElapsedMS int64   `json:"elapsed_ms"`
	TotalMS   int64   `json:"total_ms"`
	Fraction  float64 `json:"fraction"`
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	p := s.d.Progress()
	JSON(w, http.StatusOK, progressResponse{
		Recording: p.Recording,
		ElapsedMS: p.Elapsed.Milliseconds(),
		TotalMS:   p.Total.Milliseconds(),
		Fraction:  p.Fraction(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.dispatch(w, r, interview.Command{Kind: interview.KindDownloadReport})
	if !ok {
		return
	}
	if res.Err != nil {
		writeResult(w, res)
		return
	}
	if res.Report == nil {
		JSON(w, http.StatusConflict, sessionResponse{Snapshot: res.Snapshot, Error: "no analysis available"})
		return
	}

	w.Header().Set("Content-Type", res.Report.MIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Report.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Report.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Report.Data); err != nil {
		s.log.Debug().Err(err).Msg("writing report")
	}
}

// requestLogger logs one line per request. Progress polls log at debug.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				ev := log.Info()
				if r.URL.Path == "/api/record/progress" || r.URL.Path == "/health" {
					ev = log.Debug()
				}
				ev.Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("took", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
