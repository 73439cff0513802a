package models

import (
	"fmt"
	"time"
)

// Video represents a YouTube video known to the bot, keyed by its YouTube ID
type Video struct {
	ID               int64
	VideoID          string
	Title            string
	Description      string
	Duration         int
	ViewCount        int64
	LikeCount        int64
	ChannelName      string
	ChannelID        string
	UploadDate       time.Time
	ThumbnailURL     string
	AvailableFormats []FormatDescriptor
	FileSize         int64
	Quality          string
	FormatID         string
	DownloadCount    int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FormatDescriptor is one downloadable variant reported by the resolver.
type FormatDescriptor struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize"`
	FPS      int    `json:"fps"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
}

// URL returns the canonical watch URL for the video
func (v *Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// DurationFormatted renders the duration as MM:SS or HH:MM:SS
func (v *Video) DurationFormatted() string {
	if v.Duration <= 0 {
		return ""
	}
	hours := v.Duration / 3600
	minutes := (v.Duration % 3600) / 60
	seconds := v.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
