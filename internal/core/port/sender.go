package port

import (
	"context"
)

type TextSender interface {
	// Send posts text to the given chat.
	Send(ctx context.Context, chatID int64, text string) error
}
