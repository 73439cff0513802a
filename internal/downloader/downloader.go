package downloader

import (
	"context"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
)

// VideoInfo is the structured metadata document returned by the resolver
type VideoInfo struct {
	VideoID      string
	Title        string
	Description  string
	Duration     int
	ViewCount    int64
	ChannelName  string
	ChannelID    string
	UploadDate   time.Time
	ThumbnailURL string
	Formats      []models.FormatDescriptor
}

// Downloader resolves video metadata and fetches media files
type Downloader interface {
	GetVideoInfo(videoID string) (*VideoInfo, error)
	Download(ctx context.Context, videoURL, quality, formatType, destDir string) (filePath string, err error)
}
