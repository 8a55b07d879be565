// Package ledger hosts the group ledgers: it validates and applies every
// mutation, serializing writers per group, and serves cached balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

const defaultCacheSize = 1024

// Options configures a Host. Zero values are usable.
type Options struct {
	// CacheSize is the number of groups whose balances are kept in memory.
	CacheSize int

	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Host applies ledger mutations.
//
// Within one process, mutations of the same group run one at a time. Across
// processes, every write carries the group version it validated against; if
// another writer got there first the mutation is re-validated on a fresh
// snapshot and retried once before storage.ErrConcurrentModification is
// returned.
type Host struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	locks  *keyedMutex
	cache  *lru.Cache[string, cachedBalances]
	flight singleflight.Group
	now    func() time.Time
}

type cachedBalances struct {
	version int64
	result  *calculator.Result
}

// New creates a Host on top of store.
func New(store storage.Store, opts Options) (*Host, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, cachedBalances](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Host{
		store:     store,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "ledger"),
		locks:     newKeyedMutex(),
		cache:     cache,
		now:       time.Now,
	}, nil
}

// mutation is one validate-and-write step against a snapshot. It must use
// snap.Group.Version for its write and return the events to publish once the
// write has committed.
type mutation func(ctx context.Context, snap *storage.GroupSnapshot) ([]events.Event, error)

// mutate runs fn under the group lock, retrying once on a version conflict.
func (h *Host) mutate(ctx context.Context, groupID, kind string, fn mutation) error {
	unlock, err := h.locks.Lock(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	var evs []events.Event
	for attempt := 1; ; attempt++ {
		var snap *storage.GroupSnapshot
		snap, err = h.store.Snapshot(ctx, groupID)
		if err != nil {
			break
		}
		evs, err = fn(ctx, snap)
		if attempt == 1 && errors.Is(err, storage.ErrConcurrentModification) {
			h.metrics.ConflictRetry()
			h.logger.WarnContext(ctx, "Retrying ledger mutation after concurrent modification",
				"kind", kind,
				"group_id", groupID)
			continue
		}
		break
	}

	if err != nil {
		h.metrics.LedgerMutation(kind, outcome(err))
		return err
	}

	h.cache.Remove(groupID)
	h.metrics.LedgerMutation(kind, "ok")
	h.publish(ctx, evs)
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, storage.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, storage.ErrGroupNotFound), errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "rejected"
}

func (h *Host) publish(ctx context.Context, evs []events.Event) {
	if h.publisher == nil {
		return
	}
	for _, e := range evs {
		h.publisher.Publish(ctx, e)
	}
}

func (h *Host) newEvent(t events.Type, groupID, entityID, actorID string) events.Event {
	return events.Event{
		ID:         uuid.New().String(),
		Type:       t,
		GroupID:    groupID,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: h.now().UTC(),
	}
}

func requireMember(snap *storage.GroupSnapshot, userID string) error {
	if !snap.Group.IsActiveMember(userID) {
		return fmt.Errorf("%w: %s in group %s", ErrNotMember, userID, snap.Group.ID)
	}
	return nil
}
