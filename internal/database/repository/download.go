package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
)

// DownloadRepository handles download history persistence
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a pending download attempt for the given user and video
func (r *DownloadRepository) Create(userID, videoID int64, quality, formatType string) (*models.Download, error) {
	now := time.Now()
	query := `
		INSERT INTO download_history (user_id, video_id, status, quality, format_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query, userID, videoID, models.StatusPending, quality, formatType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// GetByID retrieves one download attempt, nil if unknown
func (r *DownloadRepository) GetByID(id int64) (*models.Download, error) {
	query := `
		SELECT id, user_id, video_id, status, quality, format_type, file_size,
		       file_path, telegram_file_id, error_message, metadata,
		       created_at, started_at, completed_at
		FROM download_history
		WHERE id = ?
	`
	return r.scanDownload(r.db.QueryRow(query, id))
}

func (r *DownloadRepository) scanDownload(row rowScanner) (*models.Download, error) {
	d := &models.Download{}
	var status string
	var quality, filePath, fileID, errMsg, metadata sql.NullString
	var fileSize sql.NullInt64
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.VideoID,
		&status,
		&quality,
		&d.FormatType,
		&fileSize,
		&filePath,
		&fileID,
		&errMsg,
		&metadata,
		&d.CreatedAt,
		&startedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download: %w", err)
	}

	d.Status = models.DownloadStatus(status)
	d.Quality = quality.String
	d.FileSize = fileSize.Int64
	d.FilePath = filePath.String
	d.TelegramFileID = fileID.String
	d.ErrorMessage = errMsg.String
	d.Metadata = metadata.String
	d.StartedAt = startedAt.Time
	d.CompletedAt = completedAt.Time

	return d, nil
}

// MarkStarted transitions pending → downloading and stamps started_at
func (r *DownloadRepository) MarkStarted(id int64) error {
	query := `UPDATE download_history SET status = ?, started_at = ? WHERE id = ?`
	if _, err := r.db.Exec(query, models.StatusDownloading, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark started: %w", err)
	}
	return nil
}

// MarkCompleted transitions to the completed terminal state with the
// produced file's path and size
func (r *DownloadRepository) MarkCompleted(id int64, filePath string, fileSize int64) error {
	query := `
		UPDATE download_history
		SET status = ?, completed_at = ?, file_path = ?, file_size = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, models.StatusCompleted, time.Now(), filePath, fileSize, id); err != nil {
		return fmt.Errorf("failed to mark completed: %w", err)
	}
	return nil
}

// MarkFailed transitions to the failed terminal state with the error text
func (r *DownloadRepository) MarkFailed(id int64, errorMessage string) error {
	query := `
		UPDATE download_history
		SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, models.StatusFailed, time.Now(), errorMessage, id); err != nil {
		return fmt.Errorf("failed to mark failed: %w", err)
	}
	return nil
}

// SetTelegramFileID caches the platform file handle so later requests for
// the same variant can resend without re-downloading
func (r *DownloadRepository) SetTelegramFileID(id int64, fileID string) error {
	query := `UPDATE download_history SET telegram_file_id = ? WHERE id = ?`
	if _, err := r.db.Exec(query, fileID, id); err != nil {
		return fmt.Errorf("failed to set telegram file id: %w", err)
	}
	return nil
}

// FindCachedFileID returns the newest cached Telegram file handle for an
// exact (video, quality, format) match, empty string if none exists.
func (r *DownloadRepository) FindCachedFileID(videoID int64, quality, formatType string) (string, error) {
	query := `
		SELECT telegram_file_id
		FROM download_history
		WHERE video_id = ? AND quality = ? AND format_type = ?
		  AND status = ? AND telegram_file_id IS NOT NULL AND telegram_file_id != ''
		ORDER BY completed_at DESC
		LIMIT 1
	`
	var fileID string
	err := r.db.QueryRow(query, videoID, quality, formatType, models.StatusCompleted).Scan(&fileID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find cached file id: %w", err)
	}
	return fileID, nil
}

// ListCompletedBefore returns completed downloads finished before the
// cutoff that still have a file on disk
func (r *DownloadRepository) ListCompletedBefore(cutoff time.Time) ([]models.Download, error) {
	query := `
		SELECT id, user_id, video_id, status, quality, format_type, file_size,
		       file_path, telegram_file_id, error_message, metadata,
		       created_at, started_at, completed_at
		FROM download_history
		WHERE status = ? AND completed_at < ? AND file_path IS NOT NULL AND file_path != ''
		ORDER BY completed_at
	`

	rows, err := r.db.Query(query, models.StatusCompleted, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed downloads: %w", err)
	}
	defer rows.Close()

	var downloads []models.Download
	for rows.Next() {
		d, err := r.scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, *d)
	}

	return downloads, rows.Err()
}

// ClearFilePath nulls the on-disk path after cleanup, keeping the row as a
// historical record
func (r *DownloadRepository) ClearFilePath(id int64) error {
	query := `UPDATE download_history SET file_path = NULL WHERE id = ?`
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to clear file path: %w", err)
	}
	return nil
}

// CountByStatus returns the number of attempts in the given state
func (r *DownloadRepository) CountByStatus(status models.DownloadStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM download_history WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CountTotal returns the number of attempts ever made
func (r *DownloadRepository) CountTotal() (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM download_history`).Scan(&count)
	return count, err
}

// CountSince returns the number of attempts created after the cutoff
func (r *DownloadRepository) CountSince(cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM download_history WHERE created_at >= ?`, cutoff).Scan(&count)
	return count, err
}

// CountForUserSince returns the number of attempts by one user after the cutoff
func (r *DownloadRepository) CountForUserSince(userID int64, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM download_history WHERE user_id = ? AND created_at >= ?`, userID, cutoff).Scan(&count)
	return count, err
}
