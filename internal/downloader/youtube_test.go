package downloader

import (
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch without scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy v url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"not a video url", "https://www.youtube.com/results?search_query=cats", ""},
		{"unrelated url", "https://example.com/watch?v=dQw4w9WgXcQ", ""},
		{"plain text", "hello", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractVideoID_SameIDFromAllShapes(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=abc123_-XYZ",
		"https://youtu.be/abc123_-XYZ",
		"https://www.youtube.com/embed/abc123_-XYZ",
	}
	for _, url := range urls {
		if got := ExtractVideoID(url); got != "abc123_-XYZ" {
			t.Errorf("ExtractVideoID(%q) = %q, want abc123_-XYZ", url, got)
		}
	}
}

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		quality    string
		formatType string
		want       string
	}{
		{"360p", "mp4", "bestvideo[height<=360]+bestaudio/best[height<=360]/best"},
		{"720p", "mp4", "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		{"1080p", "mp4", "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"},
		// Неизвестное качество сводится к правилу 720p
		{"999p", "mp4", "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		{"", "mp4", "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		// Для аудио качество роли не играет
		{"720p", "mp3", "bestaudio/best"},
		{"", "mp3", "bestaudio/best"},
	}

	for _, tt := range tests {
		t.Run(tt.quality+"/"+tt.formatType, func(t *testing.T) {
			if got := formatSelector(tt.quality, tt.formatType); got != tt.want {
				t.Errorf("formatSelector(%q, %q) = %q, want %q", tt.quality, tt.formatType, got, tt.want)
			}
		})
	}
}

func TestParseExt(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{`video/mp4; codecs="avc1.640028, mp4a.40.2"`, "mp4"},
		{`video/webm; codecs="vp9"`, "webm"},
		{"video/mp4", "mp4"},
		{"garbage", "garbage"},
	}

	for _, tt := range tests {
		if got := parseExt(tt.mimeType); got != tt.want {
			t.Errorf("parseExt(%q) = %q, want %q", tt.mimeType, got, tt.want)
		}
	}
}

func TestParseCodecs(t *testing.T) {
	vcodec, acodec := parseCodecs(`video/mp4; codecs="avc1.640028, mp4a.40.2"`)
	if vcodec != "avc1.640028" || acodec != "mp4a.40.2" {
		t.Errorf("Got (%q, %q), want (avc1.640028, mp4a.40.2)", vcodec, acodec)
	}

	vcodec, acodec = parseCodecs(`video/webm; codecs="vp9"`)
	if vcodec != "vp9" || acodec != "none" {
		t.Errorf("Got (%q, %q), want (vp9, none)", vcodec, acodec)
	}

	vcodec, acodec = parseCodecs("video/mp4")
	if vcodec != "none" || acodec != "none" {
		t.Errorf("Got (%q, %q), want (none, none)", vcodec, acodec)
	}
}

func TestExtractFormats(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Width: 1280, Height: 720, ContentLength: 1000},
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Width: 640, Height: 360, ContentLength: 500},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`},
		// Дубль itag не должен попасть в результат
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Width: 1280, Height: 720},
	}

	result := extractFormats(formats)
	if len(result) != 2 {
		t.Fatalf("Expected 2 formats, got %d", len(result))
	}
	// Отсортировано по высоте по возрастанию
	if result[0].Height != 360 || result[1].Height != 720 {
		t.Errorf("Formats not sorted by height: %+v", result)
	}
	if result[1].FormatID != "22" || result[1].Ext != "mp4" || result[1].VCodec != "avc1.64001F" {
		t.Errorf("Descriptor fields wrong: %+v", result[1])
	}
}

func TestNewYouTubeDownloader(t *testing.T) {
	d := NewYouTubeDownloader(50 * 1024 * 1024)

	if d.ytdlpPath != "yt-dlp" {
		t.Errorf("Expected tool path yt-dlp, got %q", d.ytdlpPath)
	}
	if d.maxSize != 50*1024*1024 {
		t.Errorf("Expected max size to be stored, got %d", d.maxSize)
	}
}

func TestFormatSelectorIsValidSyntax(t *testing.T) {
	// Селекторы не должны содержать пробелов, yt-dlp получает их одним аргументом
	for _, quality := range []string{"240p", "360p", "480p", "720p", "1080p", "xxx"} {
		sel := formatSelector(quality, "mp4")
		if strings.Contains(sel, " ") {
			t.Errorf("Selector for %s contains whitespace: %q", quality, sel)
		}
	}
}
