package sender

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramMessageLimit is the longest text Telegram accepts in one message.
const TelegramMessageLimit = 4096

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Telegram struct {
	bot TelegramBot
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot}
}

func (s *Telegram) Send(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, TelegramMessageLimit) {
		_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   chunk,
		})
		if err != nil {
			log.Error().Err(err).Int64("chatId", chatID).Msg("failed to send message")
			return err
		}
	}

	return nil
}

// splitMessage cuts text into chunks of at most limit runes, on a line break
// when one is available.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string

	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}

	return append(chunks, string(runes))
}
