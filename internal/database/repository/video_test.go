package repository_test

import (
	"testing"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
	"github.com/artur/tube-butler/internal/database/repository"
)

func testVideo(videoID string) *models.Video {
	return &models.Video{
		VideoID:     videoID,
		Title:       "Test Video",
		Description: "A test video",
		Duration:    212,
		ViewCount:   1000,
		ChannelName: "Test Channel",
		ChannelID:   "UCtest",
		UploadDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableFormats: []models.FormatDescriptor{
			{FormatID: "22", Ext: "mp4", Width: 1280, Height: 720, Filesize: 10 << 20, VCodec: "avc1.64001F", ACodec: "mp4a.40.2"},
			{FormatID: "18", Ext: "mp4", Width: 640, Height: 360, Filesize: 3 << 20, VCodec: "avc1.42001E", ACodec: "mp4a.40.2"},
		},
	}
}

func TestVideoRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	created, err := repo.Create(testVideo("dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	if created.ID == 0 {
		t.Error("Expected non-zero ID")
	}
	if created.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected video_id dQw4w9WgXcQ, got %s", created.VideoID)
	}
	if len(created.AvailableFormats) != 2 {
		t.Errorf("Expected 2 formats, got %d", len(created.AvailableFormats))
	}
	if created.AvailableFormats[0].FormatID != "22" {
		t.Errorf("Expected format 22 first, got %s", created.AvailableFormats[0].FormatID)
	}

	got, err := repo.GetByVideoID("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Failed to get video: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Error("Failed to retrieve created video")
	}

	got, err = repo.GetByID(created.ID)
	if err != nil {
		t.Fatalf("Failed to get video by id: %v", err)
	}
	if got == nil || got.VideoID != "dQw4w9WgXcQ" {
		t.Error("Failed to retrieve video by database id")
	}
}

func TestVideoRepository_GetByVideoID_Unknown(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	video, err := repo.GetByVideoID("unknown")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if video != nil {
		t.Error("Expected nil for unknown video")
	}
}

func TestVideoRepository_UniqueVideoID(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	if _, err := repo.Create(testVideo("abc123XYZ_-")); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}
	if _, err := repo.Create(testVideo("abc123XYZ_-")); err == nil {
		t.Error("Expected unique constraint violation for duplicate video_id")
	}
}

func TestVideoRepository_IncrementDownloadCount(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	video, err := repo.Create(testVideo("counter"))
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	repo.IncrementDownloadCount(video.ID)
	repo.IncrementDownloadCount(video.ID)

	got, _ := repo.GetByVideoID("counter")
	if got.DownloadCount != 2 {
		t.Errorf("Expected download_count 2, got %d", got.DownloadCount)
	}
}

func TestVideoRepository_BackfillFileInfo(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	video, err := repo.Create(testVideo("backfill"))
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	if err := repo.BackfillFileInfo(video.ID, 5000, "720p", "mp4"); err != nil {
		t.Fatalf("Failed to backfill: %v", err)
	}

	got, _ := repo.GetByVideoID("backfill")
	if got.FileSize != 5000 || got.Quality != "720p" || got.FormatID != "mp4" {
		t.Errorf("Backfill not applied: size=%d quality=%s format=%s", got.FileSize, got.Quality, got.FormatID)
	}

	// A second backfill must not overwrite the first snapshot
	if err := repo.BackfillFileInfo(video.ID, 9000, "1080p", "mp4"); err != nil {
		t.Fatalf("Failed second backfill: %v", err)
	}

	got, _ = repo.GetByVideoID("backfill")
	if got.FileSize != 5000 || got.Quality != "720p" {
		t.Errorf("First snapshot overwritten: size=%d quality=%s", got.FileSize, got.Quality)
	}
}

func TestVideoRepository_GetPopular(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewVideoRepository(db)

	v1, _ := repo.Create(testVideo("one"))
	v2, _ := repo.Create(testVideo("two"))
	repo.Create(testVideo("never-downloaded"))

	repo.IncrementDownloadCount(v1.ID)
	repo.IncrementDownloadCount(v2.ID)
	repo.IncrementDownloadCount(v2.ID)

	popular, err := repo.GetPopular(10)
	if err != nil {
		t.Fatalf("Failed to get popular: %v", err)
	}
	if len(popular) != 2 {
		t.Fatalf("Expected 2 popular videos, got %d", len(popular))
	}
	if popular[0].VideoID != "two" {
		t.Errorf("Expected 'two' first, got %s", popular[0].VideoID)
	}
}
