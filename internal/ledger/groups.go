package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupInput holds the fields of a new group.
type GroupInput struct {
	Name        string
	Description string
	Category    models.GroupCategory
	Currency    string

	// MemberIDs are added as regular members next to the creator.
	MemberIDs []string
}

// CreateGroup creates a group with actorID as its admin.
func (h *Host) CreateGroup(ctx context.Context, actorID string, in GroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if !money.ValidCurrency(currency) {
		return nil, fmt.Errorf("%w: %q", money.ErrUnknownCurrency, in.Currency)
	}
	category := in.Category
	if category == 0 {
		category = models.GroupGeneral
	}

	g := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Currency:    currency,
		CreatedBy:   actorID,
		Members:     []models.GroupMember{{UserID: actorID, Role: models.RoleAdmin}},
	}
	seen := map[string]bool{actorID: true}
	for _, id := range in.MemberIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Members = append(g.Members, models.GroupMember{UserID: id, Role: models.RoleMember})
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	users, err := h.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if users[id] == nil {
			return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
		}
	}

	if err := h.store.CreateGroup(ctx, g); err != nil {
		h.metrics.LedgerMutation("create_group", outcome(err))
		return nil, err
	}
	h.metrics.LedgerMutation("create_group", "ok")
	return g, nil
}

// AddMember adds userID to the group. Any active member may invite.
func (h *Host) AddMember(ctx context.Context, actorID, groupID, userID string, role models.GroupRole) error {
	if role == 0 {
		role = models.RoleMember
	}
	if _, err := h.store.GetUser(ctx, userID); err != nil {
		return err
	}

	return h.mutate(ctx, groupID, "add_member", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		if role == models.RoleAdmin && !snap.Group.IsAdmin(actorID) {
			return nil, fmt.Errorf("%w: only admins can add admins", ErrPermissionDenied)
		}
		if snap.Group.IsActiveMember(userID) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyMember, userID)
		}

		member := models.GroupMember{UserID: userID, Role: role, JoinedAt: h.now().Unix()}
		if err := h.store.AddMember(ctx, groupID, snap.Group.Version, member); err != nil {
			return nil, err
		}

		e := h.newEvent(events.MemberAdded, groupID, userID, actorID)
		e.MemberID = userID
		return []events.Event{e}, nil
	})
}

// RemoveMember removes userID from the group. Members may leave on their own;
// removing someone else takes an admin. A member whose balance is not zero
// cannot be removed, so that nobody's debt disappears from view.
func (h *Host) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	return h.mutate(ctx, groupID, "remove_member", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		if actorID != userID && !snap.Group.IsAdmin(actorID) {
			return nil, fmt.Errorf("%w: only admins can remove other members", ErrPermissionDenied)
		}
		if !snap.Group.IsActiveMember(userID) {
			return nil, fmt.Errorf("%w: member %s of group %s", storage.ErrNotFound, userID, groupID)
		}

		result, err := h.compute(ctx, snap)
		if err != nil {
			return nil, err
		}
		if net := result.Net(userID); !net.IsZero() {
			return nil, &MemberBalanceError{UserID: userID, Net: net}
		}

		if err := h.store.RemoveMember(ctx, groupID, snap.Group.Version, userID, h.now().Unix()); err != nil {
			return nil, err
		}

		e := h.newEvent(events.MemberRemoved, groupID, userID, actorID)
		e.MemberID = userID
		return []events.Event{e}, nil
	})
}

// GroupUpdate holds the editable fields of a group. Empty fields keep their
// current value; a nil Description is left alone, an empty one clears it.
type GroupUpdate struct {
	Name        string
	Description *string
	Category    models.GroupCategory
}

// UpdateGroup changes a group's name, description or category. Only admins
// may do so. The currency never changes once a group exists.
func (h *Host) UpdateGroup(ctx context.Context, actorID, groupID string, in GroupUpdate) (*models.Group, error) {
	var updated *models.Group
	err := h.mutate(ctx, groupID, "update_group", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		if !snap.Group.IsAdmin(actorID) {
			return nil, fmt.Errorf("%w: only admins can edit the group", ErrPermissionDenied)
		}

		g := *snap.Group
		if name := strings.TrimSpace(in.Name); name != "" {
			g.Name = name
		}
		if in.Description != nil {
			g.Description = strings.TrimSpace(*in.Description)
		}
		if in.Category != 0 {
			if !in.Category.Valid() {
				return nil, fmt.Errorf("%w: unknown category", ErrInvalidGroup)
			}
			g.Category = in.Category
		}

		if err := h.store.UpdateGroup(ctx, &g, snap.Group.Version); err != nil {
			return nil, err
		}
		updated = &g
		return []events.Event{h.newEvent(events.GroupUpdated, groupID, groupID, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteGroup removes a group and its whole history. Only admins may do so,
// and only once every member's balance is zero.
func (h *Host) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	return h.mutate(ctx, groupID, "delete_group", func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error) {
		if err := requireMember(snap, actorID); err != nil {
			return nil, err
		}
		if !snap.Group.IsAdmin(actorID) {
			return nil, fmt.Errorf("%w: only admins can delete the group", ErrPermissionDenied)
		}

		result, err := h.compute(ctx, snap)
		if err != nil {
			return nil, err
		}
		for _, b := range result.Balances {
			if !b.Net.IsZero() {
				return nil, &MemberBalanceError{UserID: b.UserID, Net: b.Net}
			}
		}

		if err := h.store.DeleteGroup(ctx, groupID, snap.Group.Version); err != nil {
			return nil, err
		}
		e := h.newEvent(events.GroupDeleted, groupID, groupID, actorID)
		e.Description = snap.Group.Name
		return []events.Event{e}, nil
	})
}

// activeParticipants rejects splits that name users outside the group.
func activeParticipants(g *models.Group, participants []calculator.Participant) error {
	for _, p := range participants {
		if !g.IsActiveMember(p.UserID) {
			return &calculator.InvalidParticipantsError{UserID: p.UserID, Reason: "not a group member"}
		}
	}
	return nil
}
