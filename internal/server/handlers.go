package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/agents"
	"github.com/truthline/truthline/internal/auth"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/storage"
	"github.com/truthline/truthline/internal/utils"
)

const (
	defaultScanTitle = "Untitled Scan"
	defaultScanType  = "text"

	scanSummaryLength   = 150
	contentSampleLength = 200
)

// decodeBody unmarshals a size-capped JSON request body
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"status": "ok"}})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		s.sendError(w, http.StatusBadRequest, "name, email and a password of at least 8 characters are required")
		return
	}

	session, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			s.sendError(w, http.StatusConflict, "email already registered")
			return
		}
		s.logger.Error("Registration failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.sendJSON(w, http.StatusCreated, envelope{Success: true, Data: session})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.auth.Login(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.sendError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("Login failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: session})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decodeBody(w, r, &req); err != nil || req.RefreshToken == "" {
		s.sendError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	session, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.sendError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: session})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decodeBody(w, r, &req); err != nil || req.RefreshToken == "" {
		s.sendError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	user := currentUser(r)
	if err := s.auth.Logout(r.Context(), user.ID, req.RefreshToken); err != nil {
		s.logger.Error("Logout failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Message: "logged out"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		s.sendError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := s.auth.ForgotPassword(r.Context(), email); err != nil {
		s.logger.Error("Forgot-password request failed", zap.Error(err))
	}

	// Same response whether or not the account exists
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Message: "If the account exists, an email will be sent."})
}

type analysisRequest struct {
	Payload string `json:"payload"`
	Title   string `json:"title"`
	Type    string `json:"type"`
}

type analysisResponse struct {
	Scan         *storage.ScanResult  `json:"scan"`
	Orchestrated *core.AnalysisResult `json:"orchestrated"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := utils.Normalize(req.Payload)
	if strings.TrimSpace(payload) == "" {
		s.sendError(w, http.StatusBadRequest, "payload must be a non-empty string")
		return
	}

	result, err := s.analysis.Process(r.Context(), payload)
	if err != nil {
		s.logger.Error("Analysis failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	user := currentUser(r)
	title := req.Title
	if title == "" {
		title = defaultScanTitle
	}
	scanType := req.Type
	if scanType == "" {
		scanType = defaultScanType
	}

	scan, err := s.store.CreateScan(r.Context(), user.ID, &storage.ScanResult{
		Title:        title,
		Type:         scanType,
		InputSummary: utils.Truncate(payload, scanSummaryLength),
		Findings:     []string{},
		Score:        result.Report.RiskScore,
		Tags:         []string{string(result.Report.OverallLabel)},
	})
	if err != nil {
		s.logger.Error("Failed to persist scan", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to persist scan")
		return
	}

	s.store.RecordActivity(r.Context(), user.ID, "analysis", map[string]any{"scanId": scan.ID})

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: analysisResponse{
		Scan:         scan,
		Orchestrated: result,
	}})
}

type extractRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := utils.Normalize(req.Content)
	if strings.TrimSpace(content) == "" {
		s.sendError(w, http.StatusBadRequest, "Content is required")
		return
	}

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: s.extraction.Run(r.Context(), content)})
}

type generateReportRequest struct {
	Classification *core.ClassificationResult `json:"classification"`
	Extraction     *core.ExtractionResult     `json:"extraction"`
	Summary        *core.SummaryResult        `json:"summary"`
}

// handleGenerateReport aggregates previously obtained stage results into
// a report, without re-running the pipeline.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Classification == nil || req.Extraction == nil || req.Summary == nil {
		s.sendError(w, http.StatusBadRequest, "classification, extraction and summary are required")
		return
	}

	report := agents.AggregateReport(req.Classification, req.Extraction, req.Summary)
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: report})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	scans, err := s.store.ListScansByUser(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("Failed to list scans", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: scans})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	scan, err := s.store.GetScan(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Error("Failed to load scan", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: scan})
}

func (s *Server) handleUpdateScan(w http.ResponseWriter, r *http.Request) {
	var update storage.ScanUpdate
	if err := s.decodeBody(w, r, &update); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	scan, err := s.store.UpdateScan(r.Context(), user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Error("Failed to update scan", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to update scan")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: scan})
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := s.store.DeleteScan(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Error("Failed to delete scan", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to delete scan")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Message: "scan deleted"})
}

type spamCheckRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// verdictFor maps a classification label to the spam-check verdict
func verdictFor(label core.ContentLabel) string {
	switch label {
	case core.LabelPhishing, core.LabelSpam:
		return "spam"
	case core.LabelDarkPattern:
		return "suspicious"
	default:
		return "clean"
	}
}

func (s *Server) handleSpamCheck(w http.ResponseWriter, r *http.Request) {
	var req spamCheckRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := utils.Normalize(req.Content)
	if strings.TrimSpace(content) == "" {
		s.sendError(w, http.StatusBadRequest, "content must be a non-empty string")
		return
	}

	classification := s.classification.Run(r.Context(), content)

	metadata := map[string]any{"classification": classification}
	for k, v := range req.Metadata {
		if k != "classification" {
			metadata[k] = v
		}
	}

	user := currentUser(r)
	check, err := s.store.CreateSpamCheck(r.Context(), &storage.SpamCheck{
		UserID:        user.ID,
		ContentSample: utils.Truncate(content, contentSampleLength),
		RiskScore:     classification.Confidence,
		Verdict:       verdictFor(classification.Label),
		Metadata:      metadata,
	})
	if err != nil {
		s.logger.Error("Failed to persist spam check", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to persist spam check")
		return
	}

	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: check})
}

func (s *Server) handleSpamHistory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	checks, err := s.store.ListSpamChecksByUser(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("Failed to list spam checks", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to list spam checks")
		return
	}
	s.sendJSON(w, http.StatusOK, envelope{Success: true, Data: checks})
}
