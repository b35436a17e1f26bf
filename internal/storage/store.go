package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Store is a SQLite-backed document store for accounts, scan history and
// spam checks. Structured fields are kept as JSON columns.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (and migrates) the store at the given path. The special
// path ":memory:" yields an ephemeral store for tests.
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			refresh_tokens TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS scan_results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			input_summary TEXT NOT NULL,
			findings TEXT NOT NULL DEFAULT '[]',
			score REAL NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_user_id ON scan_results(user_id)`,
		`CREATE TABLE IF NOT EXISTS spam_checks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content_sample TEXT NOT NULL,
			risk_score REAL NOT NULL,
			verdict TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spam_checks_user_id ON spam_checks(user_id)`,
		`CREATE TABLE IF NOT EXISTS file_uploads (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			original_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			storage_path TEXT NOT NULL,
			usage TEXT NOT NULL DEFAULT 'analysis',
			status TEXT NOT NULL DEFAULT 'uploaded',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_file_uploads_user_id ON file_uploads(user_id)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	user := &User{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          "user",
		RefreshTokens: []string{},
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, refresh_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, '[]', ?)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID looks a user up by id
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	var tokens string
	var lastLogin sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, refresh_tokens, created_at, last_login_at
		FROM users WHERE `+where, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&tokens, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := json.Unmarshal([]byte(tokens), &user.RefreshTokens); err != nil {
		user.RefreshTokens = []string{}
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return &user, nil
}

// TouchLastLogin stamps the user's last login time
func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// AddRefreshToken appends a refresh token to the user's active set
func (s *Store) AddRefreshToken(ctx context.Context, userID, token string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.writeRefreshTokens(ctx, userID, append(user.RefreshTokens, token))
}

// RemoveRefreshToken drops a refresh token from the user's active set
func (s *Store) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(user.RefreshTokens))
	for _, t := range user.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	return s.writeRefreshTokens(ctx, userID, kept)
}

func (s *Store) writeRefreshTokens(ctx context.Context, userID string, tokens []string) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode refresh tokens: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET refresh_tokens = ? WHERE id = ?`,
		string(data), userID)
	if err != nil {
		return fmt.Errorf("failed to update refresh tokens: %w", err)
	}
	return nil
}

// CreateScan inserts a new scan record
func (s *Store) CreateScan(ctx context.Context, userID string, scan *ScanResult) (*ScanResult, error) {
	now := time.Now().UTC()
	scan.ID = uuid.NewString()
	scan.UserID = userID
	scan.CreatedAt = now
	scan.UpdatedAt = now
	if scan.Findings == nil {
		scan.Findings = []string{}
	}
	if scan.Tags == nil {
		scan.Tags = []string{}
	}

	findings, err := json.Marshal(scan.Findings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode findings: %w", err)
	}
	tags, err := json.Marshal(scan.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_results (id, user_id, title, type, input_summary, findings, score, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, scan.ID, scan.UserID, scan.Title, scan.Type, scan.InputSummary,
		string(findings), scan.Score, string(tags), scan.CreatedAt, scan.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}
	return scan, nil
}

// ListScansByUser returns the user's scan history, newest first
func (s *Store) ListScansByUser(ctx context.Context, userID string) ([]*ScanResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, input_summary, findings, score, tags, created_at, updated_at
		FROM scan_results WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	scans := []*ScanResult{}
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// GetScan fetches one scan owned by the user
func (s *Store) GetScan(ctx context.Context, userID, scanID string) (*ScanResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, type, input_summary, findings, score, tags, created_at, updated_at
		FROM scan_results WHERE id = ? AND user_id = ?
	`, scanID, userID)

	scan, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return scan, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*ScanResult, error) {
	var scan ScanResult
	var findings, tags string

	err := row.Scan(&scan.ID, &scan.UserID, &scan.Title, &scan.Type, &scan.InputSummary,
		&findings, &scan.Score, &tags, &scan.CreatedAt, &scan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(findings), &scan.Findings); err != nil {
		scan.Findings = []string{}
	}
	if err := json.Unmarshal([]byte(tags), &scan.Tags); err != nil {
		scan.Tags = []string{}
	}
	return &scan, nil
}

// UpdateScan applies a partial update to a scan owned by the user
func (s *Store) UpdateScan(ctx context.Context, userID, scanID string, update ScanUpdate) (*ScanResult, error) {
	scan, err := s.GetScan(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		scan.Title = *update.Title
	}
	if update.Type != nil {
		scan.Type = *update.Type
	}
	if update.Findings != nil {
		scan.Findings = *update.Findings
	}
	if update.Tags != nil {
		scan.Tags = *update.Tags
	}
	scan.UpdatedAt = time.Now().UTC()

	findings, err := json.Marshal(scan.Findings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode findings: %w", err)
	}
	tags, err := json.Marshal(scan.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE scan_results SET title = ?, type = ?, findings = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, scan.Title, scan.Type, string(findings), string(tags), scan.UpdatedAt, scanID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update scan: %w", err)
	}
	return scan, nil
}

// DeleteScan removes a scan owned by the user
func (s *Store) DeleteScan(ctx context.Context, userID, scanID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_results WHERE id = ? AND user_id = ?
	`, scanID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSpamCheck inserts a spam-check record
func (s *Store) CreateSpamCheck(ctx context.Context, check *SpamCheck) (*SpamCheck, error) {
	check.ID = uuid.NewString()
	check.CreatedAt = time.Now().UTC()
	if check.Metadata == nil {
		check.Metadata = map[string]any{}
	}

	metadata, err := json.Marshal(check.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spam_checks (id, user_id, content_sample, risk_score, verdict, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, check.ID, check.UserID, check.ContentSample, check.RiskScore, check.Verdict,
		string(metadata), check.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create spam check: %w", err)
	}
	return check, nil
}

// ListSpamChecksByUser returns the user's spam checks, newest first
func (s *Store) ListSpamChecksByUser(ctx context.Context, userID string) ([]*SpamCheck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content_sample, risk_score, verdict, metadata, created_at
		FROM spam_checks WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spam checks: %w", err)
	}
	defer rows.Close()

	checks := []*SpamCheck{}
	for rows.Next() {
		var check SpamCheck
		var metadata string
		if err := rows.Scan(&check.ID, &check.UserID, &check.ContentSample,
			&check.RiskScore, &check.Verdict, &metadata, &check.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spam check: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &check.Metadata); err != nil {
			check.Metadata = map[string]any{}
		}
		checks = append(checks, &check)
	}
	return checks, rows.Err()
}

// CreateFileUpload inserts the metadata record for an uploaded file
func (s *Store) CreateFileUpload(ctx context.Context, upload *FileUpload) (*FileUpload, error) {
	upload.ID = uuid.NewString()
	upload.CreatedAt = time.Now().UTC()
	if upload.Usage == "" {
		upload.Usage = "analysis"
	}
	if upload.Status == "" {
		upload.Status = "uploaded"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_uploads (id, user_id, original_name, mime_type, size, storage_path, usage, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, upload.ID, upload.UserID, upload.OriginalName, upload.MimeType, upload.Size,
		upload.StoragePath, upload.Usage, upload.Status, upload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file upload: %w", err)
	}
	return upload, nil
}

// ListFileUploadsByUser returns the user's uploads, newest first
func (s *Store) ListFileUploadsByUser(ctx context.Context, userID string) ([]*FileUpload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, original_name, mime_type, size, storage_path, usage, status, created_at
		FROM file_uploads WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file uploads: %w", err)
	}
	defer rows.Close()

	uploads := []*FileUpload{}
	for rows.Next() {
		var upload FileUpload
		if err := rows.Scan(&upload.ID, &upload.UserID, &upload.OriginalName, &upload.MimeType,
			&upload.Size, &upload.StoragePath, &upload.Usage, &upload.Status, &upload.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file upload: %w", err)
		}
		uploads = append(uploads, &upload)
	}
	return uploads, rows.Err()
}

// RecordActivity appends an audit entry; failures are logged, not returned
func (s *Store) RecordActivity(ctx context.Context, userID, action string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		s.logger.Error("Failed to encode activity details", zap.Error(err))
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), userID, action, string(data), time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to record activity", zap.Error(err), zap.String("action", action))
	}
}
