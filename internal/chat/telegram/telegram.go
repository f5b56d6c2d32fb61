// Package telegram implements the chat frontend over the Telegram Bot API
// using the go-telegram/bot library.
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"spotloader/internal/chat"
)

const entityTypeURL = "url"

type Config struct {
	BotToken string
}

// Frontend implements chat.Frontend for Telegram. Chat and message IDs
// cross the interface as strings and are parsed back at the API boundary.
type Frontend struct {
	config *Config
	logger *zap.Logger
	bot    *bot.Bot

	messageHandler func(context.Context, *chat.Message)
}

func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config: config,
		logger: logger,
	}
}

// Start creates the bot. Construction validates the token against the
// API, so a bad token fails here rather than on the first send.
func (f *Frontend) Start(_ context.Context) error {
	b, err := bot.New(f.config.BotToken,
		bot.WithDefaultHandler(f.handleUpdate),
	)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	f.bot = b

	f.logger.Info("Telegram frontend started")
	return nil
}

// Listen blocks polling for updates until ctx is canceled.
func (f *Frontend) Listen(ctx context.Context, handler func(context.Context, *chat.Message)) error {
	f.messageHandler = handler
	f.bot.Start(ctx)
	return nil
}

func (f *Frontend) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	f.handleMessage(ctx, update.Message)
}

func (f *Frontend) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	message := chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: displayName(msg.From),
		Text:       msg.Text,
		URLs:       extractURLs(msg),
		Raw:        msg,
	}

	if f.messageHandler != nil {
		f.messageHandler(ctx, &message)
	}
}

func (f *Frontend) SendText(ctx context.Context, chatID, replyToID, text string) (string, error) {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return "", err
	}

	params := &bot.SendMessageParams{
		ChatID: chatIDInt,
		Text:   text,
	}
	if replyToID != "" {
		messageID, parseErr := strconv.Atoi(replyToID)
		if parseErr != nil {
			return "", fmt.Errorf("invalid reply message ID: %w", parseErr)
		}
		params.ReplyParameters = &models.ReplyParameters{MessageID: messageID}
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return strconv.Itoa(msg.ID), nil
}

func (f *Frontend) EditText(ctx context.Context, chatID, msgID, text string) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	if _, err := f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatIDInt,
		MessageID: messageID,
		Text:      text,
	}); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// SendAudio uploads the file at path as a playable audio message and
// returns Telegram's file ID so later requests can re-send by reference.
func (f *Frontend) SendAudio(ctx context.Context, chatID, path, title, performer string) (string, error) {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer file.Close()

	msg, err := f.bot.SendAudio(ctx, &bot.SendAudioParams{
		ChatID: chatIDInt,
		Audio: &models.InputFileUpload{
			Filename: filepath.Base(path),
			Data:     file,
		},
		Title:     title,
		Performer: performer,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send audio: %w", err)
	}
	if msg.Audio == nil {
		return "", nil
	}
	return msg.Audio.FileID, nil
}

func (f *Frontend) SendAudioByID(ctx context.Context, chatID, fileID string) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	if _, err := f.bot.SendAudio(ctx, &bot.SendAudioParams{
		ChatID: chatIDInt,
		Audio:  &models.InputFileString{Data: fileID},
	}); err != nil {
		return fmt.Errorf("failed to send cached audio: %w", err)
	}
	return nil
}

func (f *Frontend) SendDocument(ctx context.Context, chatID, path string) error {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	if _, err := f.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatIDInt,
		Document: &models.InputFileUpload{
			Filename: filepath.Base(path),
			Data:     file,
		},
	}); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID: %w", err)
	}
	return id, nil
}

// extractURLs pulls URL entities out of the message text. Telegram entity
// offsets are in UTF-16 code units; plain byte slicing matches the common
// ASCII-URL case the catalog links always are.
func extractURLs(msg *models.Message) []string {
	var urls []string
	for _, entity := range msg.Entities {
		if entity.Type != entityTypeURL {
			continue
		}
		end := entity.Offset + entity.Length
		if entity.Offset < 0 || end > len(msg.Text) {
			continue
		}
		urls = append(urls, msg.Text[entity.Offset:end])
	}
	return urls
}

func displayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}
