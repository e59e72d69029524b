package model

import "strings"

// Box represents a physical container identified by a barcode,
// located at a van.
type Box struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Van     string `json:"van"`
}

// StockLine is the quantity of one item present in one box.
type StockLine struct {
	Item     Item `json:"item"`
	Quantity int  `json:"quantity"`
}

// DefaultVans is the van registry seeded on first run and after a wipe.
func DefaultVans() []string {
	return []string{"Van 1", "Van 2", "Van 3"}
}

// CompareFold orders names case-insensitively, falling back to a
// case-sensitive comparison so the order is deterministic.
func CompareFold(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return strings.Compare(la, lb)
	}
	return strings.Compare(a, b)
}
