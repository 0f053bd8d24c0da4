package roster

import (
	"context"
	"fmt"

	"oustad/internal/core/domain"
	"oustad/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Directory serves the roster of a community from the members it has been
// seen with. Telegram offers no way for a bot to list every group member.
type Directory struct {
	directory port.MemberDirectory
	community string
}

func NewDirectory(directory port.MemberDirectory, community string) *Directory {
	return &Directory{directory: directory, community: community}
}

func (d *Directory) Members(ctx context.Context) ([]domain.Member, error) {
	members, err := d.directory.KnownMembers(ctx, d.community)
	if err != nil {
		return nil, fmt.Errorf("failed to list known members: %w", err)
	}

	log.Debug().Str("community", d.community).Int("members", len(members)).Msg("fetched roster")

	return members, nil
}
