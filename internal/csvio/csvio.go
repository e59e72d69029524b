// Package csvio converts inventory snapshots to and from the CSV
// interchange format used for spreadsheet export and bulk import.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/zaboj/internal/inventory"
	"github.com/erazemk/zaboj/internal/model"
)

// Column names, in export order. Import matches columns by name, not
// position, and requires every one of them to be present.
var columns = []string{
	"BoxBarcode", "BoxName", "Van",
	"ItemBarcode", "ItemName", "UnitPriceEUR",
	"Quantity", "ExpiryDate", "WarnDays",
}

// MissingColumnError reports a required CSV column absent from the
// header row. The import aborts before any state is touched.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Export serializes a snapshot to CSV: one row per stock line, plus one
// row with empty item fields and Quantity=0 for each box without stock.
func Export(snap *inventory.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	items := make(map[string]model.Item, len(snap.Items))
	for _, i := range snap.Items {
		items[i.Barcode] = i
	}

	registered := make(map[string]bool, len(snap.Boxes))
	for _, box := range snap.Boxes {
		registered[box.Barcode] = true
		if err := writeBoxRows(w, box.Barcode, box.Name, box.Van, snap.Stock[box.Barcode], items); err != nil {
			return nil, err
		}
	}

	// Stock rows can reference a box barcode that was never registered
	// (adding stock does not cross-check the box registry). Those
	// quantities are real; emit them with empty name and van rather than
	// losing them.
	orphans := make([]string, 0)
	for barcode := range snap.Stock {
		if !registered[barcode] {
			orphans = append(orphans, barcode)
		}
	}
	slices.Sort(orphans)
	for _, barcode := range orphans {
		if err := writeBoxRows(w, barcode, "", "", snap.Stock[barcode], items); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBoxRows emits one row per stock line, or a single row with empty
// item fields and Quantity=0 for a box without stock. Item barcodes are
// sorted for deterministic output.
func writeBoxRows(w *csv.Writer, boxBarcode, name, van string, row map[string]int, items map[string]model.Item) error {
	if len(row) == 0 {
		record := []string{boxBarcode, name, van, "", "", "", "0", "", ""}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
		return nil
	}

	barcodes := make([]string, 0, len(row))
	for b := range row {
		barcodes = append(barcodes, b)
	}
	slices.Sort(barcodes)

	for _, barcode := range barcodes {
		item := items[barcode]
		record := []string{
			boxBarcode, name, van,
			barcode, item.Name, FormatPrice(item.UnitPriceCents),
			strconv.Itoa(row[barcode]),
			formatDate(item.ExpiresOn), formatWarnDays(item.ExpiryWarningDays),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	return nil
}

// Parse decodes CSV text into a snapshot. Column order is irrelevant;
// a missing required column aborts with a MissingColumnError. Entirely
// empty rows and rows with an empty box barcode are skipped. Any
// malformed cell aborts the whole parse so a bad file never reaches
// the store.
func Parse(text string) (*inventory.Snapshot, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range columns {
		if _, ok := index[name]; !ok {
			return nil, &MissingColumnError{Column: name}
		}
	}

	snap := &inventory.Snapshot{Stock: make(map[string]map[string]int)}
	boxes := make(map[string]bool)
	items := make(map[string]bool)

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", line, err)
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if emptyRecord(record) {
			continue
		}

		boxBarcode := field("BoxBarcode")
		if boxBarcode == "" {
			// A box needs a barcode; nothing else in the row is usable.
			continue
		}

		if !boxes[boxBarcode] {
			boxes[boxBarcode] = true
			snap.Boxes = append(snap.Boxes, model.Box{
				Barcode: boxBarcode,
				Name:    field("BoxName"),
				Van:     field("Van"),
			})
		}

		itemBarcode := field("ItemBarcode")
		if itemBarcode == "" {
			continue
		}

		if !items[itemBarcode] {
			items[itemBarcode] = true

			cents, err := ParsePrice(field("UnitPriceEUR"))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			expiresOn, err := parseDate(field("ExpiryDate"))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			warnDays, err := parseWarnDays(field("WarnDays"))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}

			snap.Items = append(snap.Items, model.Item{
				Barcode:           itemBarcode,
				Name:              field("ItemName"),
				UnitPriceCents:    cents,
				ExpiresOn:         expiresOn,
				ExpiryWarningDays: warnDays,
			})
		}

		qty, err := parseQuantity(field("Quantity"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if qty > 0 {
			row := snap.Stock[boxBarcode]
			if row == nil {
				row = make(map[string]int)
				snap.Stock[boxBarcode] = row
			}
			row[itemBarcode] += qty
		}
	}

	return snap, nil
}

// FormatPrice renders minor-unit cents as a decimal EUR string
// ("1000" cents -> "10", "1050" -> "10.5").
func FormatPrice(cents int) string {
	return decimal.New(int64(cents), -2).String()
}

// ParsePrice converts a decimal EUR string to integer cents. A comma
// decimal separator is accepted ("10,50" == "10.50"). An empty string
// is zero. Sub-cent precision is rejected.
func ParsePrice(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("invalid price %q: sub-cent precision", s)
	}
	return int(cents.IntPart()), nil
}

func formatDate(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func parseDate(s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatWarnDays(days *int) string {
	if days == nil {
		return ""
	}
	return strconv.Itoa(*days)
}

func parseWarnDays(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid warn days %q: %w", s, err)
	}
	if days < 0 {
		return nil, fmt.Errorf("invalid warn days %q: must not be negative", s)
	}
	return &days, nil
}

func parseQuantity(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return qty, nil
}

func emptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
