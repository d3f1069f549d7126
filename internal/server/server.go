// internal/server/server.go
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"print-advisor/internal/assessment/wizard"
	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/models"
)

// resumeKeyPattern bounds client-supplied resume keys so they are safe to
// embed in a storage key.
var resumeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Server exposes the wizard over a thin JSON API, one machine per session.
type Server struct {
	sessions *SessionManager
	logger   logger.Logger
}

func New(sessions *SessionManager, log logger.Logger) *Server {
	return &Server{
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
}

// Routes registers the session API on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("PUT /api/v1/sessions/{id}/sections/{section}", s.handlePatchSection)
	mux.HandleFunc("POST /api/v1/sessions/{id}/next", s.handleNext)
	mux.HandleFunc("POST /api/v1/sessions/{id}/prev", s.handlePrev)
	mux.HandleFunc("POST /api/v1/sessions/{id}/goto", s.handleGoTo)
	mux.HandleFunc("POST /api/v1/sessions/{id}/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/v1/sessions/{id}/report", s.handleExport)

	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ==========================
// Handlers
// ==========================

// createSessionResponse decorates the machine snapshot with the resume key
// the client should present on its next visit.
type createSessionResponse struct {
	*wizard.Snapshot
	ResumeKey string `json:"resumeKey"`
	Resumed   bool   `json:"resumed"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResumeKey string `json:"resumeKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST",
			"body must be empty or {\"resumeKey\": \"...\"}")
		return
	}
	if body.ResumeKey != "" && !resumeKeyPattern.MatchString(body.ResumeKey) {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST",
			"resumeKey must be 1-128 characters of [A-Za-z0-9._:-]")
		return
	}

	id, resumeKey, machine := s.sessions.Create(body.ResumeKey)
	resumed := machine.Resume(r.Context())

	s.logger.Info("session created", map[string]interface{}{
		"sessionId": id,
		"resumed":   resumed,
	})
	s.writeJSON(w, http.StatusCreated, createSessionResponse{
		Snapshot:  machine.Snapshot(),
		ResumeKey: resumeKey,
		Resumed:   resumed,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePatchSection(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}

	ctx := r.Context()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var err error
	switch section := r.PathValue("section"); section {
	case "businessProfile":
		var v models.BusinessProfile
		if err = dec.Decode(&v); err == nil {
			err = machine.SetBusinessProfile(ctx, v)
		}
	case "currentSetup":
		var v models.CurrentSetup
		if err = dec.Decode(&v); err == nil {
			err = machine.SetCurrentSetup(ctx, v)
		}
	case "printVolume":
		var v models.PrintVolume
		if err = dec.Decode(&v); err == nil {
			err = machine.SetPrintVolume(ctx, v)
		}
	case "workflowNeeds":
		var v models.WorkflowNeeds
		if err = dec.Decode(&v); err == nil {
			err = machine.SetWorkflowNeeds(ctx, v)
		}
	case "budgetTimeline":
		var v models.BudgetTimeline
		if err = dec.Decode(&v); err == nil {
			err = machine.SetBudgetTimeline(ctx, v)
		}
	case "contactInfo":
		var v models.ContactInfo
		if err = dec.Decode(&v); err == nil {
			err = machine.SetContactInfo(ctx, v)
		}
	default:
		s.writeError(w, http.StatusNotFound, "UNKNOWN_SECTION",
			fmt.Sprintf("unknown draft section %q", section))
		return
	}

	if err != nil {
		s.writeMachineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}

	vr, err := machine.NextStep(r.Context())
	if err != nil {
		s.writeMachineError(w, err)
		return
	}

	snap := machine.Snapshot()
	if vr != nil && !vr.Valid {
		snap.Validation = vr
		s.writeJSON(w, http.StatusUnprocessableEntity, snap)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}
	if err := machine.PrevStep(r.Context()); err != nil {
		s.writeMachineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}

	var body struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "body must be {\"step\": n}")
		return
	}
	if err := machine.GoToStep(r.Context(), body.Step); err != nil {
		s.writeMachineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}
	if err := machine.Submit(r.Context()); err != nil {
		s.writeMachineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}
	machine.Reset(r.Context())
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	machine, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session id")
		return
	}

	artifact, err := machine.ExportReport(r.Context())
	if err != nil {
		s.writeMachineError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Count(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

// ==========================
// Response helpers
// ==========================

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("response encode failed", nil)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeMachineError maps machine error codes onto HTTP statuses.
func (s *Server) writeMachineError(w http.ResponseWriter, err error) {
	code := stderrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case stderrors.ErrCodeValidationFailed:
		status = http.StatusUnprocessableEntity
	case stderrors.ErrCodeSubmissionInFlight, stderrors.ErrCodeInvalidStateForCall:
		status = http.StatusConflict
	case stderrors.ErrCodeAnalysisTimeout:
		status = http.StatusGatewayTimeout
	case stderrors.ErrCodeAnalysisFailed, stderrors.ErrCodeAnalysisContractViolation:
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, errorResponse{
		Code:      string(code),
		Message:   err.Error(),
		Retryable: stderrors.IsRetryable(err),
	})
}
