// Package chat defines the narrow messaging-transport interface the core
// depends on, keeping the bot library out of pipeline code.
package chat

import (
	"context"
)

// Message is a normalized inbound chat message.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	URLs       []string
	Raw        any // underlying library message struct
}

// Frontend is the transport contract the core needs: deliver text, deliver
// files, and maintain one editable progress message per request. Delivery
// failures are the caller's to log and swallow; they never abort a pipeline.
type Frontend interface {
	// Start initializes the transport connection.
	Start(ctx context.Context) error

	// Listen blocks, invoking handler for every inbound message until ctx
	// is canceled.
	Listen(ctx context.Context, handler func(context.Context, *Message)) error

	// SendText sends a text reply and returns the new message's ID.
	SendText(ctx context.Context, chatID, replyToID, text string) (string, error)

	// EditText rewrites a previously sent message in place.
	EditText(ctx context.Context, chatID, msgID, text string) error

	// SendAudio uploads a local audio file as a playable audio reply and
	// returns the transport's reusable file ID.
	SendAudio(ctx context.Context, chatID, path, title, performer string) (string, error)

	// SendAudioByID re-sends a previously uploaded audio file by its
	// transport file ID, skipping the upload.
	SendAudioByID(ctx context.Context, chatID, fileID string) error

	// SendDocument uploads a local file as a generic document reply.
	SendDocument(ctx context.Context, chatID, path string) error
}
