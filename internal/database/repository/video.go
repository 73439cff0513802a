package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
)

// VideoRepository handles video metadata persistence
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create persists a new video row with its format snapshot
func (r *VideoRepository) Create(video *models.Video) (*models.Video, error) {
	formats, err := json.Marshal(video.AvailableFormats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal formats: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO videos
		(video_id, title, description, duration, view_count, like_count,
		 channel_name, channel_id, upload_date, thumbnail_url, available_formats,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		video.VideoID,
		video.Title,
		video.Description,
		video.Duration,
		video.ViewCount,
		video.LikeCount,
		video.ChannelName,
		video.ChannelID,
		video.UploadDate,
		video.ThumbnailURL,
		string(formats),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	return r.GetByVideoID(video.VideoID)
}

// GetByVideoID retrieves a video by its YouTube ID, nil if unknown
func (r *VideoRepository) GetByVideoID(videoID string) (*models.Video, error) {
	query := `
		SELECT id, video_id, title, description, duration, view_count, like_count,
		       channel_name, channel_id, upload_date, thumbnail_url, available_formats,
		       file_size, quality, format_id, download_count, created_at, updated_at
		FROM videos
		WHERE video_id = ?
	`
	return r.scanVideo(r.db.QueryRow(query, videoID))
}

// GetByID retrieves a video by its database key, nil if unknown
func (r *VideoRepository) GetByID(id int64) (*models.Video, error) {
	query := `
		SELECT id, video_id, title, description, duration, view_count, like_count,
		       channel_name, channel_id, upload_date, thumbnail_url, available_formats,
		       file_size, quality, format_id, download_count, created_at, updated_at
		FROM videos
		WHERE id = ?
	`
	return r.scanVideo(r.db.QueryRow(query, id))
}

func (r *VideoRepository) scanVideo(row rowScanner) (*models.Video, error) {
	video := &models.Video{}
	var description, channelName, channelID, thumbnailURL, formats, quality, formatID sql.NullString
	var duration sql.NullInt64
	var viewCount, likeCount, fileSize sql.NullInt64
	var uploadDate sql.NullTime

	err := row.Scan(
		&video.ID,
		&video.VideoID,
		&video.Title,
		&description,
		&duration,
		&viewCount,
		&likeCount,
		&channelName,
		&channelID,
		&uploadDate,
		&thumbnailURL,
		&formats,
		&fileSize,
		&quality,
		&formatID,
		&video.DownloadCount,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	video.Description = description.String
	video.Duration = int(duration.Int64)
	video.ViewCount = viewCount.Int64
	video.LikeCount = likeCount.Int64
	video.ChannelName = channelName.String
	video.ChannelID = channelID.String
	video.UploadDate = uploadDate.Time
	video.ThumbnailURL = thumbnailURL.String
	video.FileSize = fileSize.Int64
	video.Quality = quality.String
	video.FormatID = formatID.String

	if formats.String != "" {
		if err := json.Unmarshal([]byte(formats.String), &video.AvailableFormats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal formats: %w", err)
		}
	}

	return video, nil
}

// IncrementDownloadCount bumps the per-video download counter
func (r *VideoRepository) IncrementDownloadCount(id int64) error {
	query := `UPDATE videos SET download_count = download_count + 1, updated_at = ? WHERE id = ?`
	if _, err := r.db.Exec(query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to increment download count: %w", err)
	}
	return nil
}

// BackfillFileInfo records size/quality/format on the video row after its
// first successful download. Later downloads leave the snapshot untouched.
func (r *VideoRepository) BackfillFileInfo(id int64, fileSize int64, quality, formatID string) error {
	query := `
		UPDATE videos
		SET file_size = ?, quality = ?, format_id = ?, updated_at = ?
		WHERE id = ? AND file_size IS NULL
	`
	if _, err := r.db.Exec(query, fileSize, quality, formatID, time.Now(), id); err != nil {
		return fmt.Errorf("failed to backfill file info: %w", err)
	}
	return nil
}

// GetPopular returns the most downloaded videos (top N)
func (r *VideoRepository) GetPopular(limit int) ([]models.Video, error) {
	query := `
		SELECT id, video_id, title, description, duration, view_count, like_count,
		       channel_name, channel_id, upload_date, thumbnail_url, available_formats,
		       file_size, quality, format_id, download_count, created_at, updated_at
		FROM videos
		WHERE download_count > 0
		ORDER BY download_count DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := r.scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}

	return videos, rows.Err()
}
