package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"oustad/internal/adapters/handler"
	"oustad/internal/adapters/roster"
	"oustad/internal/adapters/sender"
	"oustad/internal/core/domain"
	"oustad/internal/core/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Telegram and track the community's availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	log.Info().Str("community", a.cfg.Bot.Community).Msg("starting oustad...")

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	community := a.cfg.Bot.Community
	availability := service.NewAvailability(community, st,
		roster.NewDirectory(st, community),
		service.NewDailyRefresh(loc))

	// The update handler needs the dispatcher, which needs the bot to reply.
	// Polling only starts with b.Start, after updates is set.
	var updates *handler.Update
	b, err := bot.New(a.cfg.Telegram.BotToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			updates.Handle(ctx, b, update)
		}))
	if err != nil {
		return fmt.Errorf("failed initializing telegram bot: %w", err)
	}

	dispatcher := service.NewDispatcher(availability,
		domain.NewCommandTable(a.cfg.Bot.Prefix),
		sender.NewTelegram(b),
		service.NewAuthorizer(a.cfg.Bot.AdminIDs),
		service.DispatcherOptions{
			Community: community,
			ChatID:    a.cfg.Telegram.ChatID,
			Directory: st,
			Shutdown:  cancel,
		})
	updates = handler.NewUpdate(dispatcher, a.cfg.Telegram.ChatID)

	if err := dispatcher.OnReady(ctx); err != nil {
		if !errors.Is(err, domain.ErrSendingReplyFailed) {
			return err
		}
		log.Warn().Err(err).Msg("could not post rules")
	}

	log.Info().Msg("bot listening")
	b.Start(ctx)

	updates.Wait()
	log.Info().Msg("bot stopped")

	return nil
}
