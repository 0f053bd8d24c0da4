package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Registry is the availability snapshot of one community for one calendar
// date. Members keep insertion order.
type Registry struct {
	AsOfDate     string
	LastModified time.Time

	order   []string
	members map[string]*Member
}

func NewRegistry(asOfDate string) *Registry {
	return &Registry{
		AsOfDate: asOfDate,
		members:  make(map[string]*Member),
	}
}

// NewRegistryFromRoster builds a registry where every roster member sleeps.
func NewRegistryFromRoster(asOfDate string, roster []Member) *Registry {
	r := NewRegistry(asOfDate)
	for _, m := range roster {
		r.Add(m)
	}
	return r
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Get(id string) (Member, bool) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Members returns a copy of every member in iteration order.
func (r *Registry) Members() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.members[id])
	}
	return out
}

// Add inserts a member with the SLEEP default. It returns false when the id
// is already present.
func (r *Registry) Add(m Member) bool {
	if _, ok := r.members[m.ID]; ok {
		return false
	}
	r.order = append(r.order, m.ID)
	r.members[m.ID] = &Member{ID: m.ID, DisplayName: m.DisplayName, Status: Sleep}
	return true
}

// Remove deletes a member. It returns false when the id is unknown.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Transition moves a member to status, with at only kept for In. Unknown ids
// are added first. It returns false, leaving the registry untouched, when
// status and time are already the current ones.
func (r *Registry) Transition(id, name string, status Status, at *string) bool {
	if status != In {
		at = nil
	}

	m, ok := r.members[id]
	if ok && m.Status == status && SameTime(m.AvailableAt, at) {
		return false
	}
	if !ok {
		r.Add(Member{ID: id, DisplayName: name})
		m = r.members[id]
	}

	m.Status = status
	m.DisplayName = name
	if at != nil {
		t := *at
		m.AvailableAt = &t
	} else {
		m.AvailableAt = nil
	}

	return true
}

type memberJSON struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      Status  `json:"status"`
	AvailableAt *string `json:"availableAt,omitempty"`
}

type registryJSON struct {
	AsOfDate string       `json:"asOfDate"`
	Members  []memberJSON `json:"members"`
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	out := registryJSON{AsOfDate: r.AsOfDate, Members: make([]memberJSON, 0, len(r.order))}
	for _, m := range r.Members() {
		out.Members = append(out.Members, memberJSON{
			ID:          m.ID,
			Name:        m.DisplayName,
			Status:      m.Status,
			AvailableAt: m.AvailableAt,
		})
	}
	return json.Marshal(out)
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var in registryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	decoded := NewRegistry(in.AsOfDate)
	for _, m := range in.Members {
		status, err := ParseStatus(string(m.Status))
		if err != nil {
			return fmt.Errorf("member %s: %w", m.ID, err)
		}
		if _, dup := decoded.members[m.ID]; dup {
			return fmt.Errorf("duplicate member id %s", m.ID)
		}
		decoded.order = append(decoded.order, m.ID)
		member := &Member{ID: m.ID, DisplayName: m.Name, Status: status}
		if status == In {
			member.AvailableAt = m.AvailableAt
		}
		decoded.members[m.ID] = member
	}

	r.AsOfDate = decoded.AsOfDate
	r.order = decoded.order
	r.members = decoded.members

	return nil
}
