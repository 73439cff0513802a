package models

import "time"

// DownloadStatus is the lifecycle state of a download attempt.
type DownloadStatus string

const (
	StatusPending     DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
	StatusCancelled   DownloadStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s DownloadStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDownloading, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// InProgress reports whether the download has not yet reached a terminal state.
func (s DownloadStatus) InProgress() bool {
	return s == StatusPending || s == StatusDownloading
}

// Terminal reports whether no further transition is permitted out of s.
func (s DownloadStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Download represents one download attempt (a download_history row)
type Download struct {
	ID             int64
	UserID         int64
	VideoID        int64
	Status         DownloadStatus
	Quality        string
	FormatType     string
	FileSize       int64
	FilePath       string
	TelegramFileID string
	ErrorMessage   string
	Metadata       string
	CreatedAt      time.Time
	StartedAt      time.Time
	CompletedAt    time.Time
}

// DownloadTime returns how long the attempt ran, zero if it never finished.
func (d *Download) DownloadTime() time.Duration {
	if d.StartedAt.IsZero() || d.CompletedAt.IsZero() {
		return 0
	}
	return d.CompletedAt.Sub(d.StartedAt)
}
