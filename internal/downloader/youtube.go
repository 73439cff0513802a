package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/artur/tube-butler/internal/database/models"
	"github.com/kkdai/youtube/v2"
)

// Принимаемые формы ссылок: watch, короткая, embed и устаревшая /v/
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]+)`),
}

// ExtractVideoID pulls the canonical video ID out of any accepted URL
// shape, empty string if none matches.
func ExtractVideoID(url string) string {
	for _, pattern := range videoIDPatterns {
		if matches := pattern.FindStringSubmatch(url); len(matches) > 1 {
			return matches[1]
		}
	}
	return ""
}

// YouTubeDownloader resolves metadata through the YouTube API client and
// fetches files through the yt-dlp binary.
type YouTubeDownloader struct {
	client    youtube.Client
	ytdlpPath string
	maxSize   int64
}

// NewYouTubeDownloader creates a downloader invoking yt-dlp from PATH.
// maxSize is passed to the tool as a hard file-size ceiling; the tool
// enforces it best-effort.
func NewYouTubeDownloader(maxSize int64) *YouTubeDownloader {
	return &YouTubeDownloader{
		client:    youtube.Client{},
		ytdlpPath: "yt-dlp",
		maxSize:   maxSize,
	}
}

// GetVideoInfo fetches the metadata document for a video ID
func (d *YouTubeDownloader) GetVideoInfo(videoID string) (*VideoInfo, error) {
	video, err := d.client.GetVideo(videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	info := &VideoInfo{
		VideoID:     video.ID,
		Title:       video.Title,
		Description: video.Description,
		Duration:    int(video.Duration.Seconds()),
		ViewCount:   int64(video.Views),
		ChannelName: video.Author,
		ChannelID:   video.ChannelID,
		UploadDate:  video.PublishDate,
		Formats:     extractFormats(video.Formats),
	}

	if len(video.Thumbnails) > 0 {
		info.ThumbnailURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	return info, nil
}

// extractFormats flattens the resolver's format list into descriptors,
// skipping audio-only variants and de-duplicating by concrete format id.
func extractFormats(formats youtube.FormatList) []models.FormatDescriptor {
	seen := make(map[string]struct{})
	var result []models.FormatDescriptor

	for _, f := range formats {
		if strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}

		id := strconv.Itoa(f.ItagNo)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		vcodec, acodec := parseCodecs(f.MimeType)
		result = append(result, models.FormatDescriptor{
			FormatID: id,
			Ext:      parseExt(f.MimeType),
			Width:    f.Width,
			Height:   f.Height,
			Filesize: f.ContentLength,
			FPS:      f.FPS,
			VCodec:   vcodec,
			ACodec:   acodec,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Height < result[j].Height
	})

	return result
}

// parseExt extracts the container from a MIME type like
// `video/mp4; codecs="avc1.640028, mp4a.40.2"`
func parseExt(mimeType string) string {
	base := mimeType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	if i := strings.Index(base, "/"); i >= 0 {
		return strings.TrimSpace(base[i+1:])
	}
	return base
}

func parseCodecs(mimeType string) (vcodec, acodec string) {
	vcodec, acodec = "none", "none"
	start := strings.Index(mimeType, `codecs="`)
	if start < 0 {
		return
	}
	rest := mimeType[start+len(`codecs="`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return
	}
	parts := strings.Split(rest[:end], ",")
	if len(parts) > 0 {
		vcodec = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		acodec = strings.TrimSpace(parts[1])
	}
	return
}

// formatSelector maps a quality label and format type to a yt-dlp format
// selector. Audio always requests the best audio-only stream; unrecognized
// video labels fall back to the 720p rule.
func formatSelector(quality, formatType string) string {
	if formatType == "mp3" {
		return "bestaudio/best"
	}

	switch quality {
	case "240p":
		return "bestvideo[height<=240]+bestaudio/best[height<=240]/best"
	case "360p":
		return "bestvideo[height<=360]+bestaudio/best[height<=360]/best"
	case "480p":
		return "bestvideo[height<=480]+bestaudio/best[height<=480]/best"
	case "720p":
		return "bestvideo[height<=720]+bestaudio/best[height<=720]/best"
	case "1080p":
		return "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"
	default:
		return "bestvideo[height<=720]+bestaudio/best[height<=720]/best"
	}
}

// Download runs yt-dlp against destDir and returns the path of the single
// produced file.
func (d *YouTubeDownloader) Download(ctx context.Context, videoURL, quality, formatType, destDir string) (string, error) {
	args := []string{
		"--format", formatSelector(quality, formatType),
		"--output", filepath.Join(destDir, "%(title)s.%(ext)s"),
		"--no-playlist",
		"--no-part",
		"--quiet",
		"--no-warnings",
	}

	if d.maxSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(d.maxSize, 10))
	}

	if formatType == "mp3" {
		args = append(args, "--extract-audio", "--audio-format", "mp3", "--audio-quality", "192K")
	}

	args = append(args, videoURL)

	cmd := exec.CommandContext(ctx, d.ytdlpPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read download dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			return filepath.Join(destDir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("no file was downloaded")
}
