// Package inventory implements the in-memory inventory store: boxes,
// items, the box-to-item stock matrix and the van registry, backed by
// full-state JSON snapshots in a durable key-value blob store.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/zaboj/internal/model"
)

// Blob is the persistence backend contract: a durable string-keyed
// store. Writes must be durable when Put returns.
type Blob interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the single source of truth for inventory state. All
// mutations go through its methods; queries return copies so callers
// can never reach the internal maps. Every successful mutation is
// followed by a full-state persist and a synchronous observer
// notification.
type Store struct {
	mu   sync.RWMutex
	blob Blob

	boxes map[string]model.Box
	items map[string]model.Item
	stock map[string]map[string]int // box barcode -> item barcode -> quantity > 0
	vans  []string

	loadedAt    time.Time
	savedAt     time.Time
	lastSaveErr error

	observers    map[int]func()
	nextObserver int
}

// New creates an empty store over the given blob backend. Call Load
// before anything else to pick up persisted state.
func New(blob Blob) *Store {
	s := &Store{
		blob:      blob,
		observers: make(map[int]func()),
	}
	s.resetLocked()
	return s
}

// Subscribe registers fn to be called synchronously after every
// successful mutation (and after loads and saves). The returned
// function unsubscribes. Observers must re-read state through the
// query methods; the notification carries no payload.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Load reads persisted state: the canonical key first, then the legacy
// key (migrating it forward on success), and leaves the store empty on
// first run. A corrupt snapshot is reported as an ErrCorruptSnapshot
// error with the in-memory state untouched; the caller decides whether
// that is fatal. The load timestamp is updated in every case.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *Store) loadLocked(ctx context.Context) error {
	s.loadedAt = time.Now()

	text, ok, err := s.blob.Get(ctx, SnapshotKey)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if ok && strings.TrimSpace(text) != "" {
		snap, err := DecodeSnapshot(text)
		if err != nil {
			return err
		}
		s.applyLocked(snap)
		return nil
	}

	legacy, ok, err := s.blob.Get(ctx, LegacySnapshotKey)
	if err != nil {
		return fmt.Errorf("reading legacy snapshot: %w", err)
	}
	if ok && strings.TrimSpace(legacy) != "" {
		snap, err := DecodeSnapshot(legacy)
		if err != nil {
			return err
		}
		s.applyLocked(snap)
		// Self-migrate to the canonical key.
		if err := s.persistLocked(ctx); err != nil {
			return fmt.Errorf("migrating legacy snapshot: %w", err)
		}
		slog.Info("migrated legacy inventory snapshot", "key", SnapshotKey)
		return nil
	}

	// First run.
	s.resetLocked()
	return nil
}

// Save persists the full current state to the canonical key. Mutating
// operations call this implicitly; it is exported so callers can force
// a save (e.g. before shutdown) and inspect the result.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()
	return err
}

// LastSaveError returns the error from the most recent persist attempt,
// or nil if it succeeded. Mutations never fail on a persist error (the
// session must survive a broken disk); this is how the gap becomes
// visible.
func (s *Store) LastSaveError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaveErr
}

// LoadedAt returns the time of the last load attempt.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// SavedAt returns the time of the last successful save.
func (s *Store) SavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt
}

// resetLocked clears all state and seeds the default vans.
func (s *Store) resetLocked() {
	s.boxes = make(map[string]model.Box)
	s.items = make(map[string]model.Item)
	s.stock = make(map[string]map[string]int)
	s.vans = model.DefaultVans()
}

// applyLocked destructively replaces all state from a decoded snapshot.
// Non-positive quantities and stock entries referencing unregistered
// items are dropped (a hand-edited or corrupted snapshot can contain
// them; they would be invisible to queries anyway).
func (s *Store) applyLocked(snap *Snapshot) {
	s.boxes = make(map[string]model.Box, len(snap.Boxes))
	for _, b := range snap.Boxes {
		if b.Barcode == "" {
			continue
		}
		s.boxes[b.Barcode] = b
	}

	s.items = make(map[string]model.Item, len(snap.Items))
	for _, i := range snap.Items {
		if i.Barcode == "" {
			continue
		}
		s.items[i.Barcode] = i
	}

	dropped := 0
	s.stock = make(map[string]map[string]int, len(snap.Stock))
	for box, row := range snap.Stock {
		for item, qty := range row {
			if qty <= 0 {
				continue
			}
			if _, ok := s.items[item]; !ok {
				dropped++
				continue
			}
			r := s.stock[box]
			if r == nil {
				r = make(map[string]int)
				s.stock[box] = r
			}
			r[item] = qty
		}
	}
	if dropped > 0 {
		slog.Warn("dropped orphan stock entries on load", "count", dropped)
	}

	if len(snap.Vans) > 0 {
		s.vans = slices.Clone(snap.Vans)
	} else {
		s.vans = model.DefaultVans()
	}
	// Every box's van belongs in the registry, including vans an older
	// snapshot never listed.
	for _, b := range s.boxes {
		s.registerVanLocked(b.Van)
	}
	slices.SortFunc(s.vans, model.CompareFold)
}

// snapshotLocked builds a deep-copied snapshot of the current state.
func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Boxes: make([]model.Box, 0, len(s.boxes)),
		Items: make([]model.Item, 0, len(s.items)),
		Stock: make(map[string]map[string]int, len(s.stock)),
		Vans:  slices.Clone(s.vans),
	}
	for _, b := range s.boxes {
		snap.Boxes = append(snap.Boxes, b)
	}
	slices.SortFunc(snap.Boxes, func(a, b model.Box) int {
		return strings.Compare(a.Barcode, b.Barcode)
	})
	for _, i := range s.items {
		snap.Items = append(snap.Items, i)
	}
	slices.SortFunc(snap.Items, func(a, b model.Item) int {
		return strings.Compare(a.Barcode, b.Barcode)
	})
	for box, row := range s.stock {
		if len(row) == 0 {
			continue
		}
		cp := make(map[string]int, len(row))
		for item, qty := range row {
			cp[item] = qty
		}
		snap.Stock[box] = cp
	}
	return snap
}

// persistLocked serializes the full state and writes it to the
// canonical key. The result is recorded in lastSaveErr either way.
func (s *Store) persistLocked(ctx context.Context) error {
	text, err := s.snapshotLocked().Encode()
	if err == nil {
		err = s.blob.Put(ctx, SnapshotKey, text)
	}
	s.lastSaveErr = err
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	s.savedAt = time.Now()
	return nil
}

// autosave persists after a mutation. Failures are logged and recorded
// but never propagate: a failed save leaves a durability gap until the
// next successful one, it must not crash the session.
func (s *Store) autosave(ctx context.Context) {
	if err := s.persistLocked(ctx); err != nil {
		slog.Error("inventory autosave failed", "error", err)
	}
}

// notify invokes all observers synchronously, in registration order.
func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.observers))
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// registerVanLocked adds a van name if it is non-blank and not already
// present (case-sensitive). The caller re-sorts if needed.
func (s *Store) registerVanLocked(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if slices.Contains(s.vans, name) {
		return false
	}
	s.vans = append(s.vans, name)
	return true
}

// Transfer precondition failures.
var (
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrSameBox             = errors.New("source and destination box are the same")
	ErrInsufficientStock   = errors.New("insufficient stock")
)
