package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/zaboj/internal/model"
)

// CreateBox registers a new box with an empty stock row and registers
// its van if unseen. Creating a box whose barcode already exists is a
// no-op, not an error (the scanner UI calls this on every scan).
func (s *Store) CreateBox(ctx context.Context, barcode, name, van string) {
	if barcode == "" {
		return
	}

	s.mu.Lock()
	if _, ok := s.boxes[barcode]; ok {
		s.mu.Unlock()
		return
	}
	s.boxes[barcode] = model.Box{Barcode: barcode, Name: name, Van: van}
	if s.registerVanLocked(van) {
		slices.SortFunc(s.vans, model.CompareFold)
	}
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// RenameBox changes a box's display label. Unknown barcodes are a no-op.
func (s *Store) RenameBox(ctx context.Context, barcode, newName string) {
	s.mu.Lock()
	box, ok := s.boxes[barcode]
	if !ok {
		s.mu.Unlock()
		return
	}
	box.Name = newName
	s.boxes[barcode] = box
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// MoveBoxToVan changes a box's van tag, registering the van if unseen.
// Unknown barcodes are a no-op.
func (s *Store) MoveBoxToVan(ctx context.Context, barcode, newVan string) {
	s.mu.Lock()
	box, ok := s.boxes[barcode]
	if !ok {
		s.mu.Unlock()
		return
	}
	box.Van = newVan
	s.boxes[barcode] = box
	if s.registerVanLocked(newVan) {
		slices.SortFunc(s.vans, model.CompareFold)
	}
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// UpsertItem creates or fully overwrites an item and returns the
// resulting state. Upserting twice with the same arguments is
// idempotent.
func (s *Store) UpsertItem(ctx context.Context, barcode, name string, unitPriceCents int, expiresOn *model.Date, expiryWarningDays *int) model.Item {
	item := model.Item{
		Barcode:           barcode,
		Name:              name,
		UnitPriceCents:    unitPriceCents,
		ExpiresOn:         expiresOn,
		ExpiryWarningDays: expiryWarningDays,
	}

	s.mu.Lock()
	s.items[barcode] = item
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
	return item
}

// AddToBox increments the stock entry for (box, item) by quantity,
// creating the row and entry as needed. Non-positive quantities are a
// no-op. The box and item are not cross-checked against the
// registries; callers create the box and upsert the item first.
func (s *Store) AddToBox(ctx context.Context, boxBarcode, itemBarcode string, quantity int) {
	if quantity <= 0 {
		return
	}

	s.mu.Lock()
	row := s.stock[boxBarcode]
	if row == nil {
		row = make(map[string]int)
		s.stock[boxBarcode] = row
	}
	row[itemBarcode] += quantity
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// RemoveFromBox decrements the stock entry for (box, item) by quantity.
// An entry that reaches (or would pass) zero is deleted, never stored
// as zero or negative. Non-positive quantities and unknown boxes are a
// no-op.
func (s *Store) RemoveFromBox(ctx context.Context, boxBarcode, itemBarcode string, quantity int) {
	if quantity <= 0 {
		return
	}

	s.mu.Lock()
	row, ok := s.stock[boxBarcode]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, ok := row[itemBarcode]; !ok {
		s.mu.Unlock()
		return
	}
	if row[itemBarcode] -= quantity; row[itemBarcode] <= 0 {
		delete(row, itemBarcode)
	}
	if len(row) == 0 {
		delete(s.stock, boxBarcode)
	}
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// MoveBetweenBoxes transfers quantity of an item from one box to
// another. The transfer is atomic from the caller's perspective: if any
// precondition fails (non-positive quantity, same box, insufficient
// source stock) it returns the matching sentinel error and nothing is
// mutated.
func (s *Store) MoveBetweenBoxes(ctx context.Context, srcBarcode, destBarcode, itemBarcode string, quantity int) error {
	if quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	if srcBarcode == destBarcode {
		return ErrSameBox
	}

	s.mu.Lock()
	available := s.stock[srcBarcode][itemBarcode]
	if available < quantity {
		s.mu.Unlock()
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, available, quantity)
	}

	src := s.stock[srcBarcode]
	if src[itemBarcode] -= quantity; src[itemBarcode] == 0 {
		delete(src, itemBarcode)
	}
	if len(src) == 0 {
		delete(s.stock, srcBarcode)
	}

	dest := s.stock[destBarcode]
	if dest == nil {
		dest = make(map[string]int)
		s.stock[destBarcode] = dest
	}
	dest[itemBarcode] += quantity

	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
	return nil
}

// AddVan adds a van to the registry. Blank names and case-sensitive
// duplicates are a no-op.
func (s *Store) AddVan(ctx context.Context, name string) {
	s.mu.Lock()
	if !s.registerVanLocked(name) {
		s.mu.Unlock()
		return
	}
	slices.SortFunc(s.vans, model.CompareFold)
	s.autosave(ctx)
	s.mu.Unlock()
	s.notify()
}

// WipeAll irreversibly clears all state, reseeds the default vans, and
// deletes both persistence keys.
func (s *Store) WipeAll(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked()
	err := errors.Join(
		s.blob.Delete(ctx, SnapshotKey),
		s.blob.Delete(ctx, LegacySnapshotKey),
	)
	s.mu.Unlock()
	s.notify()
	if err != nil {
		return fmt.Errorf("wiping persisted snapshot: %w", err)
	}
	return nil
}

// RestoreJSON fully replaces state from raw snapshot JSON and persists
// the given text verbatim under the canonical key. A snapshot that does
// not decode leaves state and persistence untouched.
func (s *Store) RestoreJSON(ctx context.Context, raw string) error {
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.applyLocked(snap)
	if err := s.blob.Put(ctx, SnapshotKey, strings.TrimSpace(raw)); err != nil {
		s.lastSaveErr = err
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("persisting restored snapshot: %w", err)
	}
	s.lastSaveErr = nil
	s.savedAt = time.Now()
	s.mu.Unlock()
	s.notify()
	return nil
}

// ReplaceAll destructively replaces state from a decoded snapshot and
// persists it. Used by the CSV importer after the whole file has been
// parsed, so a malformed file never reaches the store.
func (s *Store) ReplaceAll(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	s.applyLocked(snap)
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()
	return err
}
