package sessions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
)

const (
	defaultIdleTTL  = 2 * time.Hour
	maxSessionIDLen = 128
)

// SnapshotStore persists cart snapshots between process restarts.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (cart.Snapshot, bool, error)
	Save(ctx context.Context, sessionID string, snap cart.Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// Params configure a Registry. Store, Logger and Metrics are optional.
type Params struct {
	Store   SnapshotStore
	IdleTTL time.Duration
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	Clock   func() time.Time
}

type entry struct {
	ledger        *cart.Ledger
	lastSeen      time.Time
	savedRevision uint64
}

// Registry hands each session its own cart. Carts are never shared across sessions.
type Registry struct {
	mu      sync.Mutex
	carts   map[string]*entry
	store   SnapshotStore
	idleTTL time.Duration
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
}

func NewRegistry(params Params) *Registry {
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		carts:   make(map[string]*entry),
		store:   params.Store,
		idleTTL: ttl,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     clock,
	}
}

// ValidateSessionID rejects ids that cannot key a cart.
func ValidateSessionID(sessionID string) error {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if len(trimmed) > maxSessionIDLen || trimmed != sessionID {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is malformed")
	}
	return nil
}

// Cart returns the session's cart, restoring a persisted snapshot or creating an
// empty cart on first use.
func (r *Registry) Cart(ctx context.Context, sessionID string) (*cart.Ledger, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.carts[sessionID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ledger, nil
	}
	r.mu.Unlock()

	ledger, err := r.restore(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request for the same session may have won the race while we loaded.
	if e, ok := r.carts[sessionID]; ok {
		e.lastSeen = r.now()
		return e.ledger, nil
	}
	r.carts[sessionID] = &entry{ledger: ledger, lastSeen: r.now(), savedRevision: ledger.Revision()}
	r.metrics.SetSessions(len(r.carts))
	return ledger, nil
}

func (r *Registry) restore(ctx context.Context, sessionID string) (*cart.Ledger, error) {
	if r.store == nil {
		return cart.NewLedger(), nil
	}
	snap, found, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	if !found {
		return cart.NewLedger(), nil
	}
	if r.logg != nil {
		r.logg.Debug(r.logg.WithSessionID(ctx, sessionID), "cart snapshot restored")
	}
	return cart.Restore(snap), nil
}

// Save persists the session's cart if it changed since the last save.
func (r *Registry) Save(ctx context.Context, sessionID string) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	e, ok := r.carts[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.saveEntry(ctx, sessionID, e)
}

func (r *Registry) saveEntry(ctx context.Context, sessionID string, e *entry) error {
	// read the revision first so a concurrent mutation forces another save.
	rev := e.ledger.Revision()

	r.mu.Lock()
	saved := e.savedRevision
	r.mu.Unlock()
	if rev == saved {
		return nil
	}

	if err := r.store.Save(ctx, sessionID, e.ledger.Snapshot()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}

	r.mu.Lock()
	if rev > e.savedRevision {
		e.savedRevision = rev
	}
	r.mu.Unlock()
	return nil
}

// Drop forgets the session's cart in memory and in the snapshot store.
func (r *Registry) Drop(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.metrics.SetSessions(len(r.carts))
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	if err := r.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}

// EvictIdle saves and then releases carts untouched for longer than the idle
// TTL as of now. Carts whose save fails stay in memory so nothing is lost.
func (r *Registry) EvictIdle(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	candidates := make(map[string]*entry)
	for id, e := range r.carts {
		if e.lastSeen.Before(cutoff) {
			candidates[id] = e
		}
	}
	r.mu.Unlock()

	var (
		errs    error
		evicted int
	)
	for id, e := range candidates {
		if r.store != nil {
			if err := r.saveEntry(ctx, id, e); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", id, err))
				continue
			}
		}
		r.mu.Lock()
		if current, ok := r.carts[id]; ok && current == e && e.lastSeen.Before(cutoff) {
			delete(r.carts, id)
			evicted++
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.metrics.SetSessions(len(r.carts))
	r.mu.Unlock()
	r.metrics.AddEvictions(evicted)
	return evicted, errs
}

// Len is the number of carts held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
