package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-stylist/internal/imagedata"
)

const (
	maxMessageBytes = 4096
	maxCaptionBytes = 1024
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		bot:        bot,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type (
	Update         = tgbotapi.Update
	Message        = tgbotapi.Message
	CallbackQuery  = tgbotapi.CallbackQuery
	InlineKeyboard = tgbotapi.InlineKeyboardMarkup
)

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	} else {
		u.Timeout = 30
	}
	u.AllowedUpdates = []string{"message", "callback_query"}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

// SendAction shows "typing" or "sending photo" while a round trip runs.
func (c *Client) SendAction(chatID int64, action string) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		c.logger.Debug("chat action failed", "chat_id", chatID, "action", action, "err", err)
	}
}

func (c *Client) SendText(chatID int64, text string) error {
	for _, p := range splitByBytes(text, maxMessageBytes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, p)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func (c *Client) SendTextWithKeyboard(chatID int64, text string, keyboard InlineKeyboard) error {
	msg := tgbotapi.NewMessage(chatID, truncateByBytes(text, maxMessageBytes))
	msg.ReplyMarkup = keyboard
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(callbackID, text string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SendImage posts img as a compressed photo.
func (c *Client) SendImage(chatID int64, img imagedata.Image, caption string) error {
	file, err := fileBytes(img, "styled-look")
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, file)
	photo.Caption = truncateByBytes(caption, maxCaptionBytes)
	if _, err := c.bot.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendDocument posts img uncompressed under filename.
func (c *Client) SendDocument(chatID int64, img imagedata.Image, filename, caption string) error {
	_, raw, err := img.Decode()
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: raw})
	doc.Caption = truncateByBytes(caption, maxCaptionBytes)
	if _, err := c.bot.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// DownloadImage fetches a file the user sent and ingests it the same way a
// browser upload is ingested.
func (c *Client) DownloadImage(ctx context.Context, fileID string, limit int64) (imagedata.Image, error) {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("telegram file download %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return imagedata.Ingest(resp.Body, resp.Header.Get("content-type"), limit)
}

func fileBytes(img imagedata.Image, base string) (tgbotapi.FileBytes, error) {
	_, raw, err := img.Decode()
	if err != nil {
		return tgbotapi.FileBytes{}, err
	}
	return tgbotapi.FileBytes{Name: base + img.Extension(), Bytes: raw}, nil
}

func splitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	var buf strings.Builder
	buf.Grow(maxBytes)

	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len() > 0 && buf.Len()+runeBytes > maxBytes {
			out = append(out, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}

	return out
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
