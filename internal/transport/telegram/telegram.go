// Package telegram implements the Telegram bot transport for readmebot.
//
// The bot long-polls for updates. Text, voice notes, audio files and inline
// keyboard presses become events; replies go back to the originating chat,
// with the generated README sent as a document.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nadzzz/readmebot/internal/message"
	"github.com/nadzzz/readmebot/internal/transport"
)

// UserPrefix namespaces Telegram chats in conversation user ids.
const UserPrefix = "telegram:"

// Bot is the subset of *tgbotapi.BotAPI used by the transport.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Transport implements transport.Transport over the Telegram Bot API.
type Transport struct {
	bot         Bot
	pollTimeout int
	maxBytes    int64
	client      *http.Client

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New connects to the Bot API with token.
func New(token string, pollTimeout int, maxBytes int64, debug bool) (*Transport, error) {
	if token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connecting: %w", err)
	}
	bot.Debug = debug
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)
	return NewWithBot(bot, pollTimeout, maxBytes), nil
}

// NewWithBot wraps an existing Bot client.
func NewWithBot(bot Bot, pollTimeout int, maxBytes int64) *Transport {
	return &Transport{
		bot:         bot,
		pollTimeout: pollTimeout,
		maxBytes:    maxBytes,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "telegram" }

// Listen polls for updates until ctx is cancelled. Each update is handled in
// its own goroutine; the conversation engine serializes events per user.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)

	slog.Info("telegram transport polling", "timeout", t.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			slog.Info("telegram transport shutting down")
			t.stop()
			t.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return nil
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleUpdate(ctx, handler, update)
			}()
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, handler transport.Handler, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			slog.Warn("answering callback failed", "error", err)
		}
	}

	ev, chatID, fileID := EventFromUpdate(update)
	if ev == nil {
		return
	}
	log := slog.With("user_id", ev.UserID)

	if fileID != "" {
		audio, err := t.download(ctx, fileID)
		if err != nil {
			log.Error("downloading voice note failed", "error", err)
			t.sendText(chatID, "I couldn't download that voice note. Please try again or type your answer.")
			return
		}
		ev.Audio = audio
	}

	resp, err := handler(ctx, ev)
	if err != nil {
		log.Error("dispatch failed", "error", err)
		return
	}
	for _, c := range Replies(chatID, resp) {
		if _, err := t.bot.Send(c); err != nil {
			log.Error("sending reply failed", "error", err)
		}
	}
}

func (t *Transport) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching file: status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if t.maxBytes > 0 {
		// One byte over the cap lets the engine report the size itself.
		body = io.LimitReader(resp.Body, t.maxBytes+1)
	}
	return io.ReadAll(body)
}

func (t *Transport) sendText(chatID int64, text string) {
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("sending reply failed", "error", err)
	}
}

// Close stops polling. It is safe to call after Listen has returned.
func (t *Transport) Close() error {
	t.stop()
	return nil
}

// stop ends long polling once; the Bot API panics on a second stop.
func (t *Transport) stop() {
	t.stopOnce.Do(t.bot.StopReceivingUpdates)
}

// EventFromUpdate converts an update into an event. fileID is set when the
// audio still has to be downloaded. A nil event means the update is ignored.
func EventFromUpdate(update tgbotapi.Update) (ev *message.Event, chatID int64, fileID string) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || cb.Data == "" {
			return nil, 0, ""
		}
		chatID = cb.Message.Chat.ID
		return &message.Event{UserID: userID(chatID), Text: cb.Data}, chatID, ""
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil, 0, ""
	}
	chatID = msg.Chat.ID
	ev = &message.Event{UserID: userID(chatID)}

	switch {
	case msg.Voice != nil:
		ev.Kind = message.KindAudio
		ev.Format = formatOr(msg.Voice.MimeType, "ogg")
		return ev, chatID, msg.Voice.FileID
	case msg.Audio != nil:
		ev.Kind = message.KindAudio
		ev.Format = formatOr(msg.Audio.MimeType, msg.Audio.FileName)
		return ev, chatID, msg.Audio.FileID
	case msg.IsCommand():
		ev.Kind = message.KindCommand
		ev.Text = msg.Text
		ev.Command = msg.Command()
		ev.Args = msg.CommandArguments()
	case strings.TrimSpace(msg.Text) != "":
		ev.Text = msg.Text
	default:
		return nil, 0, ""
	}
	return ev, chatID, ""
}

// Replies renders a response as Telegram messages: the text with an inline
// keyboard for the offered actions, then any attachments as documents.
func Replies(chatID int64, resp *message.Response) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable
	if resp.Message != "" {
		msg := tgbotapi.NewMessage(chatID, resp.Message)
		if kb, ok := keyboard(resp.Actions); ok {
			msg.ReplyMarkup = kb
		}
		out = append(out, msg)
	}
	for _, a := range resp.Attachments {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: a.Name, Bytes: a.Data})
		doc.Caption = "Your profile README. Copy it into the README.md of your <username>/<username> repository."
		out = append(out, doc)
	}
	return out
}

func keyboard(actions []string) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var flow []tgbotapi.InlineKeyboardButton
	for _, a := range actions {
		switch a {
		case "confirm":
			flow = append(flow, tgbotapi.NewInlineKeyboardButtonData("Confirm", "/confirm"))
		case "edit":
			flow = append(flow, tgbotapi.NewInlineKeyboardButtonData("Edit", "/edit"))
		case "regenerate":
			flow = append(flow, tgbotapi.NewInlineKeyboardButtonData("Regenerate", "/regenerate"))
		case "rate":
			var stars []tgbotapi.InlineKeyboardButton
			for i := 1; i <= 5; i++ {
				stars = append(stars, tgbotapi.NewInlineKeyboardButtonData(
					strings.Repeat("⭐", i), "/rate "+strconv.Itoa(i)))
			}
			rows = append(rows, stars)
		}
	}
	if len(flow) > 0 {
		rows = append([][]tgbotapi.InlineKeyboardButton{flow}, rows...)
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func userID(chatID int64) string {
	return UserPrefix + strconv.FormatInt(chatID, 10)
}

func formatOr(format, fallback string) string {
	if format != "" {
		return format
	}
	if i := strings.LastIndexByte(fallback, '.'); i >= 0 {
		return fallback[i+1:]
	}
	return fallback
}
