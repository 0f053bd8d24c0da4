package port

import (
	"context"
	"oustad/internal/core/domain"
)

type EventDispatcher interface {
	// OnReady loads or rebuilds today's registry and greets the community.
	OnReady(ctx context.Context) error
	// OnMessage parses a chat message and applies the resulting command.
	OnMessage(ctx context.Context, message *domain.Message) error
	// OnMemberJoin adds a new member to the registry and welcomes them.
	OnMemberJoin(ctx context.Context, member domain.Member) error
	// OnMemberRemove drops a member from the registry and says goodbye.
	OnMemberRemove(ctx context.Context, member domain.Member) error
}
