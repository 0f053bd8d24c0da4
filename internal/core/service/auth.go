package service

import (
	"github.com/rs/zerolog/log"
)

type Authorizer interface {
	IsAuthorized(memberID string) bool
}

// MemberAuthorizer allows privileged commands for a fixed list of member ids.
type MemberAuthorizer struct {
	allowlist []string
}

func NewAuthorizer(allowlist []string) *MemberAuthorizer {
	return &MemberAuthorizer{allowlist: allowlist}
}

func (a *MemberAuthorizer) IsAuthorized(memberID string) bool {
	for _, id := range a.allowlist {
		if id == memberID {
			return true
		}
	}

	log.Debug().Str("memberId", memberID).Msg("member not in allowlist")

	return false
}
