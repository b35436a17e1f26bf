package storage

import "time"

// User is a registered account
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	RefreshTokens []string   `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// ScanResult is one persisted analysis outcome
type ScanResult struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	InputSummary string    `json:"inputSummary"`
	Findings     []string  `json:"findings"`
	Score        float64   `json:"score"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ScanUpdate carries the mutable scan fields; nil means leave unchanged
type ScanUpdate struct {
	Title    *string   `json:"title"`
	Type     *string   `json:"type"`
	Findings *[]string `json:"findings"`
	Tags     *[]string `json:"tags"`
}

// SpamCheck is one persisted spam-check verdict
type SpamCheck struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	ContentSample string         `json:"contentSample"`
	RiskScore     float64        `json:"riskScore"`
	Verdict       string         `json:"verdict"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// FileUpload is the stored metadata for one uploaded file
type FileUpload struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	StoragePath  string    `json:"storagePath"`
	Usage        string    `json:"usage"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActivityLog is one audit entry
type ActivityLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
