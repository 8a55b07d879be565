package models

import "sort"

// Group owns a set of members and their shared expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon trip").
	Name string

	// Description is optional free text.
	Description string

	// Category classifies the group.
	Category GroupCategory

	// Currency is the ISO 4217 code every expense and settlement in the group uses.
	Currency string

	// CreatedBy is the user who created the group. They join as admin.
	CreatedBy string

	// Members holds every user who ever joined, including removed ones, so
	// that historical splits and settlements keep referring to members.
	Members []GroupMember

	// Version increases by one on every ledger mutation in this group.
	// Writers pass the version they read; a mismatch means a concurrent write.
	Version int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last mutation.
	UpdatedAt int64
}

// GroupMember is one user's membership in a group.
type GroupMember struct {
	UserID   string
	Role     GroupRole
	JoinedAt int64

	// RemovedAt is zero while the member is active.
	RemovedAt int64
}

// Active reports whether the member has not been removed.
func (m GroupMember) Active() bool {
	return m.RemovedAt == 0
}

// Member looks up userID among all members, active or not.
func (g *Group) Member(userID string) (GroupMember, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return GroupMember{}, false
}

// IsActiveMember reports whether userID currently belongs to the group.
func (g *Group) IsActiveMember(userID string) bool {
	m, ok := g.Member(userID)
	return ok && m.Active()
}

// IsAdmin reports whether userID is an active admin of the group.
func (g *Group) IsAdmin(userID string) bool {
	m, ok := g.Member(userID)
	return ok && m.Active() && m.Role == RoleAdmin
}

// ActiveMemberIDs returns the IDs of current members, sorted.
func (g *Group) ActiveMemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Active() {
			ids = append(ids, m.UserID)
		}
	}
	sort.Strings(ids)
	return ids
}

// AllMemberIDs returns the IDs of every member ever, sorted.
func (g *Group) AllMemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	sort.Strings(ids)
	return ids
}
