package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/artur/tube-butler/internal/database/models"
	"github.com/artur/tube-butler/internal/database/repository"
	"github.com/artur/tube-butler/internal/downloader"
	"github.com/artur/tube-butler/internal/middleware"
	"github.com/artur/tube-butler/internal/service"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// YouTubeHandler turns YouTube links into quality menus and drives the
// download workflow from menu callbacks.
type YouTubeHandler struct {
	service   *service.YouTubeService
	videos    *repository.VideoRepository
	downloads *repository.DownloadRepository
	logger    *zap.Logger
}

func NewYouTubeHandler(svc *service.YouTubeService, videos *repository.VideoRepository, downloads *repository.DownloadRepository, logger *zap.Logger) *YouTubeHandler {
	return &YouTubeHandler{
		service:   svc,
		videos:    videos,
		downloads: downloads,
		logger:    logger,
	}
}

func (h *YouTubeHandler) CanHandle(update tgbotapi.Update) bool {
	if update.Message != nil && !update.Message.IsCommand() {
		return downloader.ExtractVideoID(update.Message.Text) != ""
	}
	if update.CallbackQuery != nil {
		return strings.HasPrefix(update.CallbackQuery.Data, "dl:")
	}
	return false
}

func (h *YouTubeHandler) Handle(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(ctx, api, update)
		return
	}
	h.handleURL(ctx, api, update)
}

func (h *YouTubeHandler) handleURL(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	url := strings.TrimSpace(update.Message.Text)

	api.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	loading, err := api.Send(tgbotapi.NewMessage(chatID, "🔍 Получаем информацию о видео..."))
	if err != nil {
		h.logger.Error("failed to send loading message", zap.Error(err))
		return
	}

	video, err := h.service.Resolve(url)
	if err != nil {
		h.editText(api, chatID, loading.MessageID, resolveErrorText(err))
		return
	}

	info := formatVideoCard(video)
	keyboard := qualityKeyboard(video)

	edit := tgbotapi.NewEditMessageText(chatID, loading.MessageID, info)
	edit.ReplyMarkup = &keyboard
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := api.Send(edit); err != nil {
		h.logger.Error("failed to send video card", zap.Error(err))
	}
}

func resolveErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrUnsupportedURL):
		return "❌ Неверная ссылка на YouTube видео.\n" +
			"Поддерживаемые форматы:\n" +
			"• https://youtube.com/watch?v=VIDEO_ID\n" +
			"• https://youtu.be/VIDEO_ID"
	case errors.Is(err, service.ErrVideoTooLong):
		return "❌ Видео слишком длинное для скачивания."
	default:
		return "❌ Не удалось получить информацию о видео.\nПроверьте ссылку и попробуйте ещё раз."
	}
}

func formatVideoCard(video *models.Video) string {
	views := "неизвестно"
	if video.ViewCount > 0 {
		views = humanize.Comma(video.ViewCount)
	}
	duration := video.DurationFormatted()
	if duration == "" {
		duration = "неизвестно"
	}
	uploaded := "неизвестно"
	if !video.UploadDate.IsZero() {
		uploaded = video.UploadDate.Format("02.01.2006")
	}

	return fmt.Sprintf(
		"🎬 <b>%s</b>\n\n"+
			"📺 Канал: %s\n"+
			"⏱ Длительность: %s\n"+
			"👁 Просмотры: %s\n"+
			"📅 Дата загрузки: %s\n\n"+
			"Выберите качество и формат для скачивания:",
		video.Title, video.ChannelName, duration, views, uploaded)
}

// qualityKeyboard builds up to five video quality buttons from the stored
// format snapshot plus an audio-only option. Callback data is
// dl:<video db id>:<format>:<quality>.
func qualityKeyboard(video *models.Video) tgbotapi.InlineKeyboardMarkup {
	labels := qualityLabels(video.AvailableFormats)
	if len(labels) == 0 {
		labels = []string{"720p", "480p", "360p"}
	}
	if len(labels) > 5 {
		labels = labels[:5]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, label := range labels {
		data := fmt.Sprintf("dl:%d:mp4:%s", video.ID, label)
		btn := tgbotapi.NewInlineKeyboardButtonData("📹 "+label+" MP4", data)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}

	audioData := fmt.Sprintf("dl:%d:mp3:audio", video.ID)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎵 MP3 (только аудио)", audioData)))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// qualityLabels collapses format descriptors into distinct height labels,
// highest first.
func qualityLabels(formats []models.FormatDescriptor) []string {
	seen := make(map[int]struct{})
	var heights []int
	for _, f := range formats {
		if f.Height <= 0 {
			continue
		}
		if _, ok := seen[f.Height]; ok {
			continue
		}
		seen[f.Height] = struct{}{}
		heights = append(heights, f.Height)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	labels := make([]string, 0, len(heights))
	for _, height := range heights {
		labels = append(labels, strconv.Itoa(height)+"p")
	}
	return labels
}

func (h *YouTubeHandler) handleCallback(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	callback := update.CallbackQuery
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	// dl:<video db id>:<format>:<quality>
	parts := strings.Split(callback.Data, ":")
	if len(parts) != 4 {
		return
	}
	videoDBID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}
	formatType := parts[2]
	quality := parts[3]

	user := middleware.UserFrom(ctx)
	if user == nil {
		return
	}

	video, err := h.videos.GetByID(videoDBID)
	if err != nil || video == nil {
		h.logger.Error("video lookup failed", zap.Int64("id", videoDBID), zap.Error(err))
		h.answerCallback(api, callback.ID, "❌ Видео не найдено")
		return
	}

	h.answerCallback(api, callback.ID, "🚀 Начинаем скачивание...")

	// Ранее отправленный файл переиспользуем без повторного скачивания
	if fileID, err := h.downloads.FindCachedFileID(video.ID, quality, formatType); err == nil && fileID != "" {
		if h.sendByFileID(api, chatID, video, formatType, fileID) {
			api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
			return
		}
	}

	h.editText(api, chatID, messageID, fmt.Sprintf(
		"⏳ Скачиваем: %s\n📹 Качество: %s\n📁 Формат: %s\n\nЭто может занять некоторое время...",
		video.Title, quality, strings.ToUpper(formatType)))

	api.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo))

	download, err := h.service.Download(ctx, video, user, quality, formatType)
	if err != nil || download == nil {
		h.logger.Error("download workflow error", zap.Error(err))
		h.editText(api, chatID, messageID, "❌ Произошла ошибка при скачивании. Попробуйте позже.")
		return
	}

	if download.Status != models.StatusCompleted {
		// Текст ошибки показываем как есть, чтобы можно было выбрать другое качество
		h.editText(api, chatID, messageID, "❌ Ошибка: "+download.ErrorMessage)
		return
	}

	h.deliver(api, chatID, messageID, video, download, quality, formatType)
}

// deliver sends the produced file. Delivery failure does not change the
// download's terminal state: the download itself succeeded.
func (h *YouTubeHandler) deliver(api *tgbotapi.BotAPI, chatID int64, messageID int, video *models.Video, download *models.Download, quality, formatType string) {
	file := tgbotapi.FilePath(download.FilePath)
	caption := fmt.Sprintf("🎬 %s\n📺 %s", video.Title, video.ChannelName)

	var sent tgbotapi.Message
	var err error
	if formatType == "mp3" {
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Caption = caption
		sent, err = api.Send(audio)
	} else {
		videoMsg := tgbotapi.NewVideo(chatID, file)
		videoMsg.Caption = caption
		sent, err = api.Send(videoMsg)
	}

	if err != nil {
		h.logger.Error("failed to deliver file", zap.Int64("download_id", download.ID), zap.Error(err))
		h.editText(api, chatID, messageID,
			"❌ Не удалось отправить файл через Telegram.\nПопробуйте выбрать более низкое качество.")
		return
	}

	if fileID := sentFileID(sent, formatType); fileID != "" {
		if err := h.downloads.SetTelegramFileID(download.ID, fileID); err != nil {
			h.logger.Error("failed to cache file id", zap.Error(err))
		}
	}

	h.editText(api, chatID, messageID, fmt.Sprintf(
		"✅ Скачивание завершено!\n\n🎬 %s\n📹 Качество: %s\n📁 Формат: %s\n💾 Размер: %s",
		video.Title, quality, strings.ToUpper(formatType), humanize.Bytes(uint64(download.FileSize))))
}

func (h *YouTubeHandler) sendByFileID(api *tgbotapi.BotAPI, chatID int64, video *models.Video, formatType, fileID string) bool {
	caption := fmt.Sprintf("🎬 %s\n📺 %s", video.Title, video.ChannelName)

	var err error
	if formatType == "mp3" {
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileID(fileID))
		audio.Caption = caption
		_, err = api.Send(audio)
	} else {
		videoMsg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
		videoMsg.Caption = caption
		_, err = api.Send(videoMsg)
	}

	if err != nil {
		h.logger.Warn("cached file id rejected, re-downloading", zap.Error(err))
		return false
	}
	return true
}

func sentFileID(msg tgbotapi.Message, formatType string) string {
	if formatType == "mp3" {
		if msg.Audio != nil {
			return msg.Audio.FileID
		}
		return ""
	}
	if msg.Video != nil {
		return msg.Video.FileID
	}
	return ""
}

func (h *YouTubeHandler) answerCallback(api *tgbotapi.BotAPI, callbackID, text string) {
	if _, err := api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.Error("failed to answer callback", zap.Error(err))
	}
}

func (h *YouTubeHandler) editText(api *tgbotapi.BotAPI, chatID int64, messageID int, text string) {
	if _, err := api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		h.logger.Error("failed to edit message", zap.Error(err))
	}
}
