package model

import "time"

// GeneratedFile is the ledger entry for one rendered report file.
type GeneratedFile struct {
	FileID        string            `json:"file_id"`
	ReportID      string            `json:"report_id"`
	Filename      string            `json:"filename"`
	FilePath      string            `json:"file_path"`
	Parameters    map[string]string `json:"parameters"`
	OutputFormat  OutputFormat      `json:"output_format"`
	GeneratedAt   time.Time         `json:"generated_at"`
	GeneratedBy   string            `json:"generated_by"`
	ExpiresAt     time.Time         `json:"expires_at"`
	FileSize      int64             `json:"file_size"`
	DownloadCount int               `json:"download_count"`
}

// Expired reports whether the entry is past its expiry at now.
func (f GeneratedFile) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}
