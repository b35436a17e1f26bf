package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/adapters/cache"
	"github.com/truthline/truthline/internal/agents"
	"github.com/truthline/truthline/internal/auth"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/storage"
)

// newTestServer wires a full server with no external providers: every
// model-backed stage degrades to its deterministic fallback.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	v := config.NewEmptyViper()
	v.Set("auth.access_secret", "test-access-secret")
	v.Set("auth.refresh_secret", "test-refresh-secret")
	v.Set("storage.upload_dir", t.TempDir())
	cfg := config.NewFromViper(v)

	store, err := storage.NewStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	stageCache := cache.NewMemoryCache(5*time.Minute, 0, logger)
	t.Cleanup(stageCache.Stop)

	classification := agents.NewClassificationAgent(nil, stageCache, logger)
	extraction := agents.NewExtractionAgent(stageCache, logger)
	orchestrator := agents.NewOrchestrator(
		agents.NewCleaningAgent(nil, stageCache, logger),
		classification,
		extraction,
		agents.NewSummaryAgent(nil, stageCache, logger),
		logger,
	)
	analysis := core.NewAnalysisService(orchestrator, stageCache, logger, true)

	tokens, err := auth.NewTokenManager(cfg.GetAuth())
	require.NoError(t, err)
	authService := auth.NewService(store, tokens, logger)

	srv, err := NewServer(cfg, analysis, classification, extraction, authService, store, logger)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) (bool, map[string]any) {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp.Success, resp.Data
}

func registerUser(t *testing.T, srv *Server, email string) (accessToken, refreshToken string) {
	t.Helper()
	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "long enough password",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	_, data := decodeEnvelope(t, recorder)
	return data["accessToken"].(string), data["refreshToken"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	recorder := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)
	assert.Equal(t, "ok", data["status"])
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "tiny",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "dup@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Again",
		"email":    "dup@example.com",
		"password": "long enough password",
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestLoginAndRefresh(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "long enough password",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	_, data := decodeEnvelope(t, recorder)
	refresh := data["refreshToken"].(string)

	recorder = doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestLoginBadPassword(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong password here",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	srv := newTestServer(t)
	access, refresh := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/logout", access, map[string]string{
		"refreshToken": refresh,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, srv, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	recorder := doJSON(t, srv, http.MethodPost, "/api/analysis", "", map[string]string{"payload": "x"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doJSON(t, srv, http.MethodGet, "/api/scans", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAnalysisEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/analysis", access, map[string]string{
		"payload": "Urgent: verify your account at http://phish.example/login",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)

	scan := data["scan"].(map[string]any)
	assert.Equal(t, "Untitled Scan", scan["title"])
	assert.Equal(t, "text", scan["type"])
	assert.Equal(t, []any{"unknown"}, scan["tags"])
	assert.InDelta(t, 0.35, scan["score"].(float64), 1e-9)

	orchestrated := data["orchestrated"].(map[string]any)
	report := orchestrated["report"].(map[string]any)
	assert.Equal(t, "unknown", report["overallLabel"])
	assert.InDelta(t, 0.35, report["riskScore"].(float64), 1e-9)

	// The scan is now visible in history
	recorder = doJSON(t, srv, http.MethodGet, "/api/scans", access, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}

func TestAnalysisEmptyPayload(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/analysis", access, map[string]string{"payload": "   "})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestScanUpdateAndDelete(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/analysis", access, map[string]string{
		"payload": "some text to scan",
		"title":   "My scan",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	_, data := decodeEnvelope(t, recorder)
	scanID := data["scan"].(map[string]any)["id"].(string)

	recorder = doJSON(t, srv, http.MethodPatch, "/api/scans/"+scanID, access, map[string]any{
		"title": "Renamed",
		"tags":  []string{"reviewed"},
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	_, data = decodeEnvelope(t, recorder)
	assert.Equal(t, "Renamed", data["title"])

	recorder = doJSON(t, srv, http.MethodDelete, "/api/scans/"+scanID, access, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, srv, http.MethodGet, "/api/scans/"+scanID, access, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestScansAreScopedToUser(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, _ := registerUser(t, srv, "alice@example.com")
	bobToken, _ := registerUser(t, srv, "bob@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/analysis", aliceToken, map[string]string{
		"payload": "alice's text",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	_, data := decodeEnvelope(t, recorder)
	scanID := data["scan"].(map[string]any)["id"].(string)

	recorder = doJSON(t, srv, http.MethodGet, "/api/scans/"+scanID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSpamCheckAndHistory(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/spam/check", access, map[string]string{
		"content": "totally ordinary message",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)

	// No classifier configured: the degraded unknown verdict maps to clean
	assert.Equal(t, "clean", data["verdict"])
	assert.InDelta(t, 0.3, data["riskScore"].(float64), 1e-9)
	assert.Equal(t, "totally ordinary message", data["contentSample"])

	recorder = doJSON(t, srv, http.MethodGet, "/api/spam/history", access, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}

func TestSpamCheckKeepsCallerMetadata(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/spam/check", access, map[string]any{
		"content":  "check this",
		"metadata": map[string]any{"source": "import", "classification": "spoofed"},
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	_, data := decodeEnvelope(t, recorder)

	metadata := data["metadata"].(map[string]any)
	assert.Equal(t, "import", metadata["source"])
	// The classification slot cannot be overridden by the caller
	assert.IsType(t, map[string]any{}, metadata["classification"])
}

func TestSpamCheckEmptyContent(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/spam/check", access, map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestForgotPasswordAlwaysAccepts(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice@example.com")

	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		recorder := doJSON(t, srv, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
			"email": email,
		})
		assert.Equal(t, http.StatusOK, recorder.Code)
		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "If the account exists, an email will be sent.", resp.Message)
	}
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	srv := newTestServer(t)

	recorder := doJSON(t, srv, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "  "})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExtractEndpoint(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/extract", access, map[string]string{
		"content": "Visit https://example.com/offer and write to help@example.com today",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)
	assert.Equal(t, []any{"https://example.com/offer"}, data["urls"])
	assert.Equal(t, []any{"help@example.com"}, data["emails"])
}

func TestExtractRequiresContent(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/extract", access, map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGenerateReportFromStageResults(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/generate-report", access, map[string]any{
		"classification": map[string]any{
			"label":      "spam",
			"confidence": 0.5,
			"reasons":    []string{"bulk phrasing"},
		},
		"extraction": map[string]any{
			"urls":       []string{"http://a.example"},
			"emails":     []string{},
			"entities":   []map[string]string{{"type": "url", "value": "http://a.example"}},
			"indicators": []string{"Contains URLs", "Urgency language detected"},
		},
		"summary": map[string]any{"summary": "A short summary."},
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)
	assert.Equal(t, "spam", data["overallLabel"])
	// Label floor 0.6 plus 0.05 per indicator
	assert.InDelta(t, 0.7, data["riskScore"].(float64), 1e-9)
}

func TestGenerateReportRequiresAllStages(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := doJSON(t, srv, http.MethodPost, "/api/generate-report", access, map[string]any{
		"classification": map[string]any{"label": "spam", "confidence": 0.5},
		"summary":        map[string]any{"summary": "missing extraction"},
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "classification, extraction and summary are required", resp.Message)
}

func uploadFile(t *testing.T, srv *Server, token, filename, usage, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if usage != "" {
		require.NoError(t, writer.WriteField("usage", usage))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestFileUploadAndList(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := uploadFile(t, srv, access, "sample.eml", "spam", "Subject: hello\n\nbody")
	require.Equal(t, http.StatusCreated, recorder.Code)
	success, data := decodeEnvelope(t, recorder)
	assert.True(t, success)
	assert.Equal(t, "sample.eml", data["originalName"])
	assert.Equal(t, "spam", data["usage"])
	assert.Equal(t, "uploaded", data["status"])
	assert.InDelta(t, float64(len("Subject: hello\n\nbody")), data["size"].(float64), 1e-9)

	// File content landed on disk
	content, err := os.ReadFile(filepath.FromSlash(data["storagePath"].(string)))
	require.NoError(t, err)
	assert.Equal(t, "Subject: hello\n\nbody", string(content))

	recorder = doJSON(t, srv, http.MethodGet, "/api/files", access, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "sample.eml", list.Data[0]["originalName"])
}

func TestFileUploadDefaultsUsage(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := uploadFile(t, srv, access, "notes.txt", "", "plain text")
	require.Equal(t, http.StatusCreated, recorder.Code)
	_, data := decodeEnvelope(t, recorder)
	assert.Equal(t, "analysis", data["usage"])
}

func TestFileUploadRejectsUnknownUsage(t *testing.T) {
	srv := newTestServer(t)
	access, _ := registerUser(t, srv, "alice@example.com")

	recorder := uploadFile(t, srv, access, "notes.txt", "archive", "plain text")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestFilesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	recorder := doJSON(t, srv, http.MethodGet, "/api/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestVerdictMapping(t *testing.T) {
	assert.Equal(t, "spam", verdictFor(core.LabelPhishing))
	assert.Equal(t, "spam", verdictFor(core.LabelSpam))
	assert.Equal(t, "suspicious", verdictFor(core.LabelDarkPattern))
	assert.Equal(t, "clean", verdictFor(core.LabelLegitimate))
	assert.Equal(t, "clean", verdictFor(core.LabelUnknown))
}
