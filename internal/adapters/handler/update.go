package handler

import (
	"context"
	"strconv"
	"sync"

	"oustad/internal/core/domain"
	"oustad/internal/core/port"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Update turns Telegram updates from the community chat into dispatcher
// events. Each event runs in its own goroutine and is not cancelled once
// started.
type Update struct {
	dispatcher port.EventDispatcher
	chatID     int64
	inFlight   sync.WaitGroup
}

func NewUpdate(dispatcher port.EventDispatcher, chatID int64) *Update {
	return &Update{dispatcher: dispatcher, chatID: chatID}
}

func (u *Update) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	msg := update.Message
	if msg.Chat.ID != u.chatID {
		log.Debug().Int64("chatId", msg.Chat.ID).Msg("ignoring update from foreign chat")
		return
	}

	l := log.With().
		Str("eventId", newEventID()).
		Int("messageId", msg.ID).
		Int64("chatId", msg.Chat.ID).
		Logger()

	switch {
	case len(msg.NewChatMembers) > 0:
		for _, user := range msg.NewChatMembers {
			if user.IsBot {
				continue
			}
			member := toMember(&user)
			u.run(ctx, l, "join", func(ctx context.Context) error {
				return u.dispatcher.OnMemberJoin(ctx, member)
			})
		}
	case msg.LeftChatMember != nil:
		if msg.LeftChatMember.IsBot {
			return
		}
		member := toMember(msg.LeftChatMember)
		u.run(ctx, l, "leave", func(ctx context.Context) error {
			return u.dispatcher.OnMemberRemove(ctx, member)
		})
	case msg.Text != "" && msg.From != nil && !msg.From.IsBot:
		author := toMember(msg.From)
		message := &domain.Message{
			ID:         msg.ID,
			ChatID:     msg.Chat.ID,
			AuthorID:   author.ID,
			AuthorName: author.DisplayName,
			Text:       msg.Text,
		}
		l.Debug().Str("message", msg.Text).Msg("received message")
		u.run(ctx, l, "message", func(ctx context.Context) error {
			return u.dispatcher.OnMessage(ctx, message)
		})
	}
}

// Wait blocks until every started event has finished.
func (u *Update) Wait() {
	u.inFlight.Wait()
}

func (u *Update) run(ctx context.Context, l zerolog.Logger, event string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	u.inFlight.Add(1)
	go func() {
		defer u.inFlight.Done()

		if err := fn(ctx); err != nil {
			l.Err(err).Str("event", event).Msg("failed to handle event")
		}
	}()
}

func toMember(user *models.User) domain.Member {
	return domain.Member{
		ID:          strconv.FormatInt(user.ID, 10),
		DisplayName: getUserNameOrFirstName(user),
	}
}

func getUserNameOrFirstName(user *models.User) string {
	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}

func newEventID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
