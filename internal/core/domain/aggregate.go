package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

func CountByStatus(r *Registry, status Status) int {
	count := 0
	for _, m := range r.Members() {
		if m.Status == status {
			count++
		}
	}
	return count
}

// MembersByStatus returns display names in registry order.
func MembersByStatus(r *Registry, status Status) []string {
	var names []string
	for _, m := range r.Members() {
		if m.Status == status {
			names = append(names, m.DisplayName)
		}
	}
	return names
}

// GroupInByTime buckets IN members by their announced time. Members who gave
// no time land in the Unspecified bucket.
func GroupInByTime(r *Registry) map[string][]string {
	groups := make(map[string][]string)
	for _, m := range r.Members() {
		if m.Status != In {
			continue
		}
		key := Unspecified
		if m.AvailableAt != nil {
			key = *m.AvailableAt
		}
		groups[key] = append(groups[key], m.DisplayName)
	}
	return groups
}

const statusTemplate = `%d players : %s
%d out : %s
%d sleeping : %s`

func StatusReport(r *Registry) string {
	// encoding/json writes map keys sorted
	players, err := json.Marshal(GroupInByTime(r))
	if err != nil {
		players = []byte("{}")
	}

	return fmt.Sprintf(statusTemplate,
		CountByStatus(r, In), players,
		CountByStatus(r, Out), strings.Join(MembersByStatus(r, Out), ","),
		CountByStatus(r, Sleep), strings.Join(MembersByStatus(r, Sleep), ","),
	)
}
