// Package service implements the media resolution and download workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
	"github.com/artur/tube-butler/internal/database/repository"
	"github.com/artur/tube-butler/internal/downloader"
	"github.com/artur/tube-butler/internal/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Validation rejections surfaced to the user, not logged as errors.
var (
	ErrUnsupportedURL = errors.New("unsupported video URL")
	ErrVideoTooLong   = errors.New("video exceeds maximum duration")
)

// YouTubeService drives the download state machine over history rows it
// exclusively owns. User and video rows are shared across requests.
type YouTubeService struct {
	dl          downloader.Downloader
	users       *repository.UserRepository
	videos      *repository.VideoRepository
	downloads   *repository.DownloadRepository
	pool        *worker.Pool
	storagePath string
	maxDuration int
	maxFileSize int64
	logger      *zap.Logger
}

// NewYouTubeService wires the workflow with its collaborators.
func NewYouTubeService(
	dl downloader.Downloader,
	users *repository.UserRepository,
	videos *repository.VideoRepository,
	downloads *repository.DownloadRepository,
	pool *worker.Pool,
	storagePath string,
	maxDuration int,
	maxFileSize int64,
	logger *zap.Logger,
) *YouTubeService {
	return &YouTubeService{
		dl:          dl,
		users:       users,
		videos:      videos,
		downloads:   downloads,
		pool:        pool,
		storagePath: storagePath,
		maxDuration: maxDuration,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Resolve maps a URL to a persisted video row, creating it on first
// request. An existing row is returned as-is: the cache is by identifier,
// stale metadata is accepted. The duration cap applies at creation only.
func (s *YouTubeService) Resolve(url string) (*models.Video, error) {
	videoID := downloader.ExtractVideoID(url)
	if videoID == "" {
		return nil, ErrUnsupportedURL
	}

	video, err := s.videos.GetByVideoID(videoID)
	if err != nil {
		return nil, err
	}
	if video != nil {
		return video, nil
	}

	info, err := s.dl.GetVideoInfo(videoID)
	if err != nil {
		s.logger.Error("metadata fetch failed", zap.String("video_id", videoID), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve video %s: %w", videoID, err)
	}

	if s.maxDuration > 0 && info.Duration > s.maxDuration {
		s.logger.Warn("video too long",
			zap.String("video_id", videoID),
			zap.Int("duration", info.Duration),
			zap.Int("max", s.maxDuration))
		return nil, ErrVideoTooLong
	}

	video, err = s.videos.Create(&models.Video{
		VideoID:          videoID,
		Title:            info.Title,
		Description:      info.Description,
		Duration:         info.Duration,
		ViewCount:        info.ViewCount,
		ChannelName:      info.ChannelName,
		ChannelID:        info.ChannelID,
		UploadDate:       info.UploadDate,
		ThumbnailURL:     info.ThumbnailURL,
		AvailableFormats: info.Formats,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("video created", zap.String("video_id", videoID), zap.String("title", video.Title))
	return video, nil
}

// Download runs one download attempt to a terminal state. The returned row
// is never left pending or downloading; any internal error is captured as
// the failed state rather than propagated. The error return is non-nil only
// when the attempt row itself could not be created.
func (s *YouTubeService) Download(ctx context.Context, video *models.Video, user *models.User, quality, formatType string) (*models.Download, error) {
	dl, err := s.downloads.Create(user.ID, video.ID, quality, formatType)
	if err != nil {
		return nil, fmt.Errorf("failed to create download record: %w", err)
	}

	if err := s.downloads.MarkStarted(dl.ID); err != nil {
		return s.fail(dl.ID, err.Error())
	}

	// Свежая папка на каждую попытку, без коллизий между попытками
	tempDir := filepath.Join(s.storagePath, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return s.fail(dl.ID, fmt.Sprintf("failed to create download dir: %v", err))
	}

	var filePath string
	err = s.pool.Do(ctx, func() error {
		var dlErr error
		filePath, dlErr = s.dl.Download(ctx, video.URL(), quality, formatType, tempDir)
		return dlErr
	})
	if err != nil {
		os.RemoveAll(tempDir)
		s.logger.Error("download failed",
			zap.String("video_id", video.VideoID),
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		return s.fail(dl.ID, err.Error())
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		os.RemoveAll(tempDir)
		return s.fail(dl.ID, fmt.Sprintf("downloaded file missing: %v", err))
	}

	// The tool was already told the ceiling; re-check anyway since not all
	// versions enforce it.
	fileSize := stat.Size()
	if s.maxFileSize > 0 && fileSize > s.maxFileSize {
		os.RemoveAll(tempDir)
		return s.fail(dl.ID, fmt.Sprintf("file too large: %d bytes (max %d)", fileSize, s.maxFileSize))
	}

	if err := s.downloads.MarkCompleted(dl.ID, filePath, fileSize); err != nil {
		return s.fail(dl.ID, err.Error())
	}

	if err := s.videos.IncrementDownloadCount(video.ID); err != nil {
		s.logger.Error("failed to increment video counter", zap.Error(err))
	}
	if err := s.users.IncrementDownloads(user.ID, fileSize); err != nil {
		s.logger.Error("failed to increment user counters", zap.Error(err))
	}

	if video.FileSize == 0 {
		if err := s.videos.BackfillFileInfo(video.ID, fileSize, quality, formatType); err != nil {
			s.logger.Error("failed to backfill video file info", zap.Error(err))
		}
	}

	s.logger.Info("download completed",
		zap.String("video_id", video.VideoID),
		zap.Int64("user_id", user.ID),
		zap.String("quality", quality),
		zap.Int64("size", fileSize))

	return s.downloads.GetByID(dl.ID)
}

// fail records the terminal failed state and returns the refreshed row.
func (s *YouTubeService) fail(id int64, message string) (*models.Download, error) {
	if err := s.downloads.MarkFailed(id, message); err != nil {
		s.logger.Error("failed to mark download failed", zap.Int64("id", id), zap.Error(err))
	}
	return s.downloads.GetByID(id)
}

// Cleanup deletes on-disk files of completed downloads older than the
// cutoff, nulling the stored path but keeping the row. Best-effort: a
// per-file error is logged and skipped. Returns the count actually removed.
func (s *YouTubeService) Cleanup(olderThanDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	downloads, err := s.downloads.ListCompletedBefore(cutoff)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, dl := range downloads {
		if dl.FilePath == "" {
			continue
		}
		if _, err := os.Stat(dl.FilePath); err != nil {
			continue
		}
		if err := os.Remove(dl.FilePath); err != nil {
			s.logger.Error("failed to remove file", zap.String("path", dl.FilePath), zap.Error(err))
			continue
		}

		// Remove the per-attempt directory once it is empty
		parent := filepath.Dir(dl.FilePath)
		if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
			if err := os.Remove(parent); err != nil {
				s.logger.Error("failed to remove dir", zap.String("path", parent), zap.Error(err))
			}
		}

		if err := s.downloads.ClearFilePath(dl.ID); err != nil {
			s.logger.Error("failed to clear file path", zap.Int64("id", dl.ID), zap.Error(err))
			continue
		}
		cleaned++
	}

	s.logger.Info("cleanup finished", zap.Int("removed", cleaned))
	return cleaned, nil
}

// DownloadStats is an aggregate snapshot for the admin panel.
type DownloadStats struct {
	Total       int64
	Completed   int64
	Failed      int64
	SuccessRate float64
	Today       int64
	Popular     []models.Video
}

// GetDownloadStats collects download totals and the most requested videos.
func (s *YouTubeService) GetDownloadStats() (*DownloadStats, error) {
	total, err := s.downloads.CountTotal()
	if err != nil {
		return nil, err
	}
	completed, err := s.downloads.CountByStatus(models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	failed, err := s.downloads.CountByStatus(models.StatusFailed)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today, err := s.downloads.CountSince(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
	if err != nil {
		return nil, err
	}

	popular, err := s.videos.GetPopular(10)
	if err != nil {
		return nil, err
	}

	stats := &DownloadStats{
		Total:     total,
		Completed: completed,
		Failed:    failed,
		Today:     today,
		Popular:   popular,
	}
	if total > 0 {
		stats.SuccessRate = float64(completed) / float64(total) * 100
	}

	return stats, nil
}
