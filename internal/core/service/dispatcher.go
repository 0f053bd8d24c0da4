package service

import (
	"context"
	"errors"
	"fmt"

	"oustad/internal/core/domain"
	"oustad/internal/core/port"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type DispatcherOptions struct {
	Community string
	ChatID    int64
	// Directory records members as they show up. Optional.
	Directory port.MemberDirectory
	// Shutdown is called by an authorized kill command.
	Shutdown func()
}

// Dispatcher routes community events to the availability registry and
// answers in the community chat.
type Dispatcher struct {
	registry   AvailabilityRegistry
	commands   *domain.CommandTable
	sender     port.TextSender
	authorizer Authorizer
	opts       DispatcherOptions
}

func NewDispatcher(registry AvailabilityRegistry,
	commands *domain.CommandTable,
	sender port.TextSender,
	authorizer Authorizer,
	opts DispatcherOptions) *Dispatcher {
	if opts.Shutdown == nil {
		opts.Shutdown = func() {}
	}

	return &Dispatcher{
		registry:   registry,
		commands:   commands,
		sender:     sender,
		authorizer: authorizer,
		opts:       opts,
	}
}

func (d *Dispatcher) OnReady(ctx context.Context) error {
	registry, err := d.registry.LoadIfFresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	log.Info().
		Str("community", d.opts.Community).
		Int64("chatId", d.opts.ChatID).
		Str("asOfDate", registry.AsOfDate).
		Int("members", registry.Len()).
		Msg("connected to community")

	if err := d.sender.Send(ctx, d.opts.ChatID, domain.Rules(d.commands)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (d *Dispatcher) OnMessage(ctx context.Context, message *domain.Message) error {
	cmd, err := d.commands.Parse(message.Text)
	if errors.Is(err, domain.ErrNotCommand) {
		return nil
	}

	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("memberId", message.AuthorID).
		Str("command", string(cmd.Kind)).
		Logger()

	if errors.Is(err, domain.ErrInvalidTime) {
		l.Info().Err(err).Msg("could not read time, continuing without one")
		if err := d.sender.Send(ctx, message.ChatID, domain.TimeHint(d.commands)); err != nil {
			l.Warn().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
		}
	}

	d.remember(ctx, l, domain.Member{ID: message.AuthorID, DisplayName: message.AuthorName})

	if cmd.Kind == domain.CommandKill && !d.authorizer.IsAuthorized(message.AuthorID) {
		cmd = domain.Command{Kind: domain.CommandSleep, Fallback: true}
	}

	switch cmd.Kind {
	case domain.CommandStatus:
		l.Info().Msgf("%s asked for status", message.AuthorName)
		return d.sendStatus(ctx, message)
	case domain.CommandIn:
		return d.vote(ctx, l, message, domain.In, cmd.At)
	case domain.CommandOut:
		return d.vote(ctx, l, message, domain.Out, nil)
	case domain.CommandSleep:
		if cmd.Fallback {
			l.Debug().Str("text", message.Text).Msg("no matching command")
			return nil
		}
		_, _, err := d.registry.SetStatus(ctx, message.AuthorID, message.AuthorName, domain.Sleep, nil)
		if err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}
		return nil
	case domain.CommandKill:
		l.Warn().Msg("shutting down on request")
		d.opts.Shutdown()
		return nil
	}

	return nil
}

func (d *Dispatcher) OnMemberJoin(ctx context.Context, member domain.Member) error {
	l := log.With().Str("memberId", member.ID).Logger()
	l.Info().Str("name", member.DisplayName).Msg("member joined")

	d.remember(ctx, l, member)

	if _, err := d.registry.AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	err := d.sender.Send(ctx, d.opts.ChatID, domain.Welcome(member.DisplayName, d.opts.Community, d.commands))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (d *Dispatcher) OnMemberRemove(ctx context.Context, member domain.Member) error {
	l := log.With().Str("memberId", member.ID).Logger()
	l.Info().Str("name", member.DisplayName).Msg("member left")

	if d.opts.Directory != nil {
		if err := d.opts.Directory.ForgetMember(ctx, d.opts.Community, member.ID); err != nil {
			l.Warn().Err(err).Msg("failed to forget member")
		}
	}

	if _, err := d.registry.RemoveMember(ctx, member.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if err := d.sender.Send(ctx, d.opts.ChatID, domain.Farewell(member.DisplayName)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (d *Dispatcher) vote(ctx context.Context,
	l zerolog.Logger,
	message *domain.Message,
	status domain.Status,
	at *string) error {
	changed, registry, err := d.registry.SetStatus(ctx, message.AuthorID, message.AuthorName, status, at)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if !changed {
		l.Debug().Msg("status unchanged")
		return nil
	}

	players := domain.CountByStatus(registry, domain.In)
	if err := d.sender.Send(ctx, message.ChatID, domain.ProgressMessage(message.AuthorName, players)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (d *Dispatcher) sendStatus(ctx context.Context, message *domain.Message) error {
	registry, err := d.registry.LoadIfFresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if err := d.sender.Send(ctx, message.ChatID, domain.StatusReport(registry)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (d *Dispatcher) remember(ctx context.Context, l zerolog.Logger, member domain.Member) {
	if d.opts.Directory == nil || member.ID == "" {
		return
	}
	if err := d.opts.Directory.RememberMember(ctx, d.opts.Community, member); err != nil {
		l.Warn().Err(err).Msg("failed to remember member")
	}
}
