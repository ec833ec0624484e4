package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-stylist/internal/stylist"
	"ai-stylist/internal/telegram"
)

const styleCallbackPrefix = "sty"

func (h *Handler) sendStyleKeyboard(chatID, userID int64) error {
	sess := h.orchestrator(chatID, userID).Snapshot()
	text := "Pick a style for your look.\nCurrent: " + sess.Style
	return h.tg.SendTextWithKeyboard(chatID, text, styleKeyboard(userID, sess.Style))
}

func (h *Handler) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, styleCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.")
		return nil
	}

	chatID := q.Message.Chat.ID
	action := parts[2]
	args := parts[3:]

	switch action {
	case "style":
		if len(args) < 1 {
			return nil
		}
		name, ok := stylist.LookupStyle(args[0])
		if !ok {
			_ = h.tg.AnswerCallback(q.ID, "Unknown style.")
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, name)
		return h.setStyle(chatID, ownerID, name)
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "")
		return h.runGenerate(ctx, chatID, ownerID)
	case "reset":
		_ = h.tg.AnswerCallback(q.ID, "")
		return h.reset(chatID, ownerID)
	default:
		_ = h.tg.AnswerCallback(q.ID, "")
		return nil
	}
}

func styleKeyboard(ownerID int64, current string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, opt := range stylist.StyleCategories() {
		label := opt.Name
		if strings.EqualFold(opt.Name, current) {
			label = "✅ " + label
		}

		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "style", opt.Key)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", cb(ownerID, "generate")),
		tgbotapi.NewInlineKeyboardButtonData("Reset", cb(ownerID, "reset")),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", styleCallbackPrefix, ownerID, strings.Join(parts, ":"))
}
