package analysis

import "time"

// AnalysisID identifier type
type AnalysisID string

// Status of a stored analysis
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Analysis is a finished pipeline run kept for auditing and retrieval.
type Analysis struct {
	ID          AnalysisID `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Language    string     `json:"language"`
	CodeSHA256  string     `json:"code_sha256"`
	Status      Status     `json:"status"`
	FailedStage Stage      `json:"failed_stage,omitempty"`
	Error       string     `json:"error,omitempty"`
	Report      string     `json:"report"`
	ReportURL   string     `json:"report_url,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
	CreatedAt   time.Time  `json:"created_at"`
}
