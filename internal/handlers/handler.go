package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"ai-stylist/internal/imagedata"
	"ai-stylist/internal/mediagroup"
	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
	"ai-stylist/internal/telegram"
)

// DownloadFilename matches the name the web page offers.
const DownloadFilename = "ai-styled-look.png"

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, keyboard telegram.InlineKeyboard) error
	AnswerCallback(callbackID, text string) error
	SendImage(chatID int64, img imagedata.Image, caption string) error
	SendDocument(chatID int64, img imagedata.Image, filename, caption string) error
	SendAction(chatID int64, action string)
	DownloadImage(ctx context.Context, fileID string, limit int64) (imagedata.Image, error)
}

type Options struct {
	Telegram       Messenger
	Sessions       *session.Store
	Logger         *slog.Logger
	MaxUploadBytes int64
}

type Handler struct {
	tg         Messenger
	sessions   *session.Store
	logger     *slog.Logger
	maxUpload  int64
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		tg:        opts.Telegram,
		sessions:  opts.Sessions,
		logger:    logger,
		maxUpload: opts.MaxUploadBytes,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch {
	case msg.IsCommand():
		return h.handleCommand(ctx, chatID, userID, msg)
	case len(msg.Photo) > 0:
		return h.handlePhoto(ctx, chatID, userID, msg)
	case isImageDocument(msg.Document):
		return h.handleUpload(ctx, chatID, userID, msg.Caption, msg.Document.FileID)
	case msg.Document != nil:
		return h.tg.SendText(chatID, "That file is not an image. Please send a photo.")
	case strings.TrimSpace(msg.Text) != "":
		return h.handleText(ctx, chatID, userID, msg.Text)
	}
	return nil
}

// HandleMediaGroup fills the closeup then the full body slot from an album.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processAlbum(ctx, group); err != nil {
		h.logger.Error("media group processing failed", "chat_id", group.ChatID, "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "styles":
		return h.sendStyleKeyboard(chatID, userID)
	case "style":
		if args == "" {
			return h.sendStyleKeyboard(chatID, userID)
		}
		name, ok := stylist.LookupStyle(args)
		if !ok {
			return h.tg.SendText(chatID, fmt.Sprintf("I don't know the style %q. Use /styles to pick one.", args))
		}
		return h.setStyle(chatID, userID, name)
	case "occasion":
		return h.setOccasion(chatID, userID, args)
	case "generate":
		return h.runGenerate(ctx, chatID, userID)
	case "refine":
		return h.runRefine(ctx, chatID, userID, args)
	case "download":
		return h.download(chatID, userID)
	case "status":
		return h.tg.SendText(chatID, formatStatus(h.orchestrator(chatID, userID).Snapshot()))
	case "reset":
		return h.reset(chatID, userID)
	default:
		return h.tg.SendText(chatID, "Unknown command. Use /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) error {
	sess := h.orchestrator(chatID, userID).Snapshot()
	if sess.State == session.StateReady && !sess.StyledImage.IsZero() {
		return h.runRefine(ctx, chatID, userID, text)
	}
	if sess.State.Busy() {
		return h.tg.SendText(chatID, "⏳ Still working on your look, one moment.")
	}
	return h.tg.SendText(chatID, "Send your closeup and full body photos first, then /generate. Use /help for details.")
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	return h.handleUpload(ctx, chatID, userID, msg.Caption, photo.FileID)
}

func (h *Handler) handleUpload(ctx context.Context, chatID, userID int64, caption, fileID string) error {
	orch := h.orchestrator(chatID, userID)

	slot, ok := chooseSlot(caption, orch.Snapshot())
	if !ok {
		return h.tg.SendText(chatID, "I already have both photos. Caption a new one with \"face\" or \"body\" to replace it, or /reset.")
	}

	img, err := h.tg.DownloadImage(ctx, fileID, h.maxUpload)
	if err != nil {
		return h.reportDownloadError(chatID, err)
	}

	sess, err := orch.SetImage(slot, img)
	if err != nil {
		return h.reportError(chatID, err, "")
	}
	h.logUpload(sess.ID, slot, img)
	return h.tg.SendText(chatID, uploadReply(slot, sess))
}

func (h *Handler) processAlbum(ctx context.Context, group mediagroup.Group) error {
	chatID := group.ChatID
	if len(group.FileIDs) < 2 {
		if len(group.FileIDs) == 1 {
			return h.handleUpload(ctx, chatID, group.UserID, group.Caption, group.FileIDs[0])
		}
		return nil
	}

	images := make([]imagedata.Image, 2)
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range group.FileIDs[:2] {
		i, fileID := i, fileID
		eg.Go(func() error {
			img, err := h.tg.DownloadImage(egCtx, fileID, h.maxUpload)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return h.reportDownloadError(chatID, err)
	}

	orch := h.orchestrator(chatID, group.UserID)
	for i, slot := range []session.Slot{session.SlotCloseup, session.SlotFullBody} {
		sess, err := orch.SetImage(slot, images[i])
		if err != nil {
			return h.reportError(chatID, err, "")
		}
		h.logUpload(sess.ID, slot, images[i])
	}

	reply := "📸 Got both photos: the first as your closeup, the second as your full body shot.\n" +
		"Pick a style with /styles, set an /occasion, or just /generate."
	if group.Dropped > 0 {
		reply += fmt.Sprintf("\n(I only use two photos, %d extra ignored.)", group.Dropped)
	}
	return h.tg.SendText(chatID, reply)
}

func (h *Handler) runGenerate(ctx context.Context, chatID, userID int64) error {
	orch := h.orchestrator(chatID, userID)
	if snap := orch.Snapshot(); !snap.State.Busy() && snap.HasInputs() {
		_ = h.tg.SendText(chatID, "🧵 Analysing your photos and styling your look. This can take a minute...")
		h.tg.SendAction(chatID, tgbotapi.ChatUploadPhoto)
	}

	sess, err := orch.Generate(ctx)
	if err != nil {
		if sess.Suggestion != nil {
			_ = h.tg.SendText(chatID, formatSuggestion(*sess.Suggestion))
		}
		return h.reportError(chatID, err, stylist.FallbackGenerateMessage)
	}

	if sess.Suggestion != nil {
		if err := h.tg.SendText(chatID, formatSuggestion(*sess.Suggestion)); err != nil {
			return err
		}
	}
	return h.tg.SendImage(chatID, sess.StyledImage, "Here is your styled look. Send a message to refine it, or /download.")
}

func (h *Handler) runRefine(ctx context.Context, chatID, userID int64, instruction string) error {
	orch := h.orchestrator(chatID, userID)
	if snap := orch.Snapshot(); snap.State == session.StateReady && strings.TrimSpace(instruction) != "" {
		h.tg.SendAction(chatID, tgbotapi.ChatUploadPhoto)
	}

	sess, err := orch.Refine(ctx, instruction)
	if err != nil {
		return h.reportError(chatID, err, stylist.FallbackRefineMessage)
	}
	caption := fmt.Sprintf("Refined: %s", strings.TrimSpace(instruction))
	return h.tg.SendImage(chatID, sess.StyledImage, caption)
}

func (h *Handler) download(chatID, userID int64) error {
	sess := h.orchestrator(chatID, userID).Snapshot()
	if sess.StyledImage.IsZero() {
		return h.tg.SendText(chatID, "There is no styled image yet. Use /generate first.")
	}
	return h.tg.SendDocument(chatID, sess.StyledImage, DownloadFilename, "")
}

func (h *Handler) setStyle(chatID, userID int64, style string) error {
	orch := h.orchestrator(chatID, userID)
	if _, err := orch.SetPreferences(orch.Snapshot().Occasion, style); err != nil {
		return h.reportError(chatID, err, "")
	}
	return h.tg.SendText(chatID, "Style set to "+style+".")
}

func (h *Handler) setOccasion(chatID, userID int64, occasion string) error {
	orch := h.orchestrator(chatID, userID)
	if occasion == "" {
		current := orch.Snapshot().Occasion
		if current == "" {
			current = "not set"
		}
		return h.tg.SendText(chatID, "Occasion: "+current+"\nUsage: /occasion summer wedding")
	}
	if len([]rune(occasion)) > 200 {
		return h.tg.SendText(chatID, "Please keep the occasion under 200 characters.")
	}
	if _, err := orch.SetPreferences(occasion, orch.Snapshot().Style); err != nil {
		return h.reportError(chatID, err, "")
	}
	return h.tg.SendText(chatID, "Occasion set to "+occasion+".")
}

func (h *Handler) reset(chatID, userID int64) error {
	if _, err := h.orchestrator(chatID, userID).Reset(); err != nil {
		return h.reportError(chatID, err, "")
	}
	return h.tg.SendText(chatID, "🔄 Started over. Send your closeup and full body photos.")
}

func (h *Handler) orchestrator(chatID, userID int64) *session.Orchestrator {
	return h.sessions.GetOrCreate(sessionKey(chatID, userID))
}

func (h *Handler) reportError(chatID int64, err error, fallback string) error {
	if errors.Is(err, session.ErrBusy) {
		return h.tg.SendText(chatID, "⏳ Still working on your previous request, one moment.")
	}
	return h.tg.SendText(chatID, "❌ "+stylist.UserMessage(err, fallback))
}

func (h *Handler) reportDownloadError(chatID int64, err error) error {
	switch {
	case errors.Is(err, imagedata.ErrNotImage):
		return h.tg.SendText(chatID, "That file is not an image. Please send a photo.")
	case errors.Is(err, imagedata.ErrTooLarge):
		return h.tg.SendText(chatID, "That photo is too large. Please send a smaller one.")
	}
	h.logger.Error("photo download failed", "chat_id", chatID, "err", err)
	return h.tg.SendText(chatID, "❌ I couldn't download that photo. Please try again.")
}

func (h *Handler) logUpload(sessionID string, slot session.Slot, img imagedata.Image) {
	if info, err := imagedata.Probe(img); err == nil {
		h.logger.Info("image uploaded", "session", sessionID, "slot", slot, "format", info.Format, "width", info.Width, "height", info.Height)
		return
	}
	h.logger.Info("image uploaded", "session", sessionID, "slot", slot, "mime", img.MimeType())
}

func uploadReply(slot session.Slot, sess session.Session) string {
	if sess.HasInputs() {
		return "📸 " + slotLabel(slot) + " saved. Both photos are ready: pick a style with /styles or send /generate."
	}
	if slot == session.SlotCloseup {
		return "📸 Closeup photo saved. Now send a full body photo."
	}
	return "📸 Full body photo saved. Now send a closeup of your face."
}

func isImageDocument(doc *tgbotapi.Document) bool {
	return doc != nil && strings.HasPrefix(strings.ToLower(doc.MimeType), "image/")
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}
