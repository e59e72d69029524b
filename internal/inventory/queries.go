package inventory

import (
	"slices"
	"strings"

	"github.com/erazemk/zaboj/internal/model"
)

// Boxes returns all boxes, sorted by name (case-insensitive) with the
// barcode as tiebreak.
func (s *Store) Boxes() []model.Box {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boxes := make([]model.Box, 0, len(s.boxes))
	for _, b := range s.boxes {
		boxes = append(boxes, b)
	}
	slices.SortFunc(boxes, func(a, b model.Box) int {
		if c := model.CompareFold(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Barcode, b.Barcode)
	})
	return boxes
}

// FindBox looks up a box by barcode.
func (s *Store) FindBox(barcode string) (model.Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	box, ok := s.boxes[barcode]
	return box, ok
}

// Items returns all registered items, sorted by name (case-insensitive).
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, i := range s.items {
		items = append(items, i)
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		if c := model.CompareFold(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Barcode, b.Barcode)
	})
	return items
}

// FindItem looks up an item by barcode.
func (s *Store) FindItem(barcode string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[barcode]
	return item, ok
}

// Contents returns the stock lines of a box, sorted by item name
// (case-insensitive, ascending). Entries whose item is not in the
// registry are excluded.
func (s *Store) Contents(boxBarcode string) []model.StockLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.stock[boxBarcode]
	lines := make([]model.StockLine, 0, len(row))
	for barcode, qty := range row {
		item, ok := s.items[barcode]
		if !ok || qty <= 0 {
			continue
		}
		lines = append(lines, model.StockLine{Item: item, Quantity: qty})
	}
	slices.SortFunc(lines, func(a, b model.StockLine) int {
		if c := model.CompareFold(a.Item.Name, b.Item.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Item.Barcode, b.Item.Barcode)
	})
	return lines
}

// Quantity returns the stock quantity for a (box, item) pair, 0 if the
// entry is absent.
func (s *Store) Quantity(boxBarcode, itemBarcode string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stock[boxBarcode][itemBarcode]
}

// Vans returns the van registry, already sorted case-insensitively.
func (s *Store) Vans() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.vans)
}

// ExportSnapshot returns a deep-copied snapshot of the full state, for
// serialization by exporters.
func (s *Store) ExportSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}
