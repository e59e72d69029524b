package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/zaboj/internal/model"
)

// memBlob is an in-memory Blob for tests. Individual operations can be
// made to fail to exercise the fail-soft paths.
type memBlob struct {
	values  map[string]string
	failPut bool
}

func newMemBlob() *memBlob {
	return &memBlob{values: make(map[string]string)}
}

func (m *memBlob) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memBlob) Put(_ context.Context, key, value string) error {
	if m.failPut {
		return errors.New("disk full")
	}
	m.values[key] = value
	return nil
}

func (m *memBlob) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func newTestStore(t *testing.T) (*Store, *memBlob) {
	t.Helper()
	blob := newMemBlob()
	s := New(blob)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, blob
}

func TestFirstRunSeedsDefaultVans(t *testing.T) {
	s, _ := newTestStore(t)

	vans := s.Vans()
	if len(vans) != 3 {
		t.Fatalf("expected 3 seed vans, got %v", vans)
	}
	if s.LoadedAt().IsZero() {
		t.Error("expected load timestamp to be set")
	}
}

func TestCreateBoxIsIdempotentNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:demo-123", "Demo", "Van 1")

	box, ok := s.FindBox("BOX:demo-123")
	if !ok {
		t.Fatal("expected box to exist")
	}
	if box.Name != "Demo" || box.Van != "Van 1" {
		t.Errorf("unexpected box: %+v", box)
	}

	// Same barcode, different name: original unchanged.
	s.CreateBox(ctx, "BOX:demo-123", "Other", "Van 2")
	box, _ = s.FindBox("BOX:demo-123")
	if box.Name != "Demo" {
		t.Errorf("expected original name to survive, got %q", box.Name)
	}
}

func TestCreateBoxRegistersNewVan(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:a", "A", "Zagreb run")
	vans := s.Vans()
	if len(vans) != 4 {
		t.Fatalf("expected 4 vans, got %v", vans)
	}
}

func TestRenameAndMoveUnknownBoxIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.RenameBox(ctx, "BOX:ghost", "New")
	s.MoveBoxToVan(ctx, "BOX:ghost", "Van 9")

	if _, ok := s.FindBox("BOX:ghost"); ok {
		t.Error("no-op operations must not create boxes")
	}
	if len(s.Vans()) != 3 {
		t.Error("no-op move must not register vans")
	}
}

func TestUpsertItemIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	expiry, _ := model.ParseDate("2026-12-24")
	warn := 14

	first := s.UpsertItem(ctx, "X", "Bandages", 999, &expiry, &warn)
	second := s.UpsertItem(ctx, "X", "Bandages", 999, &expiry, &warn)

	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	// Overwrite all fields.
	s.UpsertItem(ctx, "X", "Plasters", 500, nil, nil)
	item, _ := s.FindItem("X")
	if item.Name != "Plasters" || item.UnitPriceCents != 500 || item.ExpiresOn != nil {
		t.Errorf("expected full overwrite, got %+v", item)
	}
}

func TestNonNegativity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:demo-123", "Demo", "Van 1")
	s.UpsertItem(ctx, "X", "Widget", 999, nil, nil)

	s.AddToBox(ctx, "BOX:demo-123", "X", 3)
	if got := s.Quantity("BOX:demo-123", "X"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	// Removing more than available clamps to removal, not negative.
	s.RemoveFromBox(ctx, "BOX:demo-123", "X", 5)
	if got := s.Quantity("BOX:demo-123", "X"); got != 0 {
		t.Errorf("expected 0 after over-removal, got %d", got)
	}
	if lines := s.Contents("BOX:demo-123"); len(lines) != 0 {
		t.Errorf("expected empty contents, got %v", lines)
	}

	// Non-positive quantities are no-ops.
	s.AddToBox(ctx, "BOX:demo-123", "X", 0)
	s.AddToBox(ctx, "BOX:demo-123", "X", -2)
	s.RemoveFromBox(ctx, "BOX:demo-123", "X", -2)
	if got := s.Quantity("BOX:demo-123", "X"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestZeroEntriesAreDeletedNotStored(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 2)
	s.RemoveFromBox(ctx, "BOX:a", "I", 2)

	snap := s.ExportSnapshot()
	if len(snap.Stock) != 0 {
		t.Errorf("expected empty stock matrix, got %v", snap.Stock)
	}
}

func TestMoveBetweenBoxes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 5)

	if err := s.MoveBetweenBoxes(ctx, "BOX:a", "BOX:b", "I", 2); err != nil {
		t.Fatalf("MoveBetweenBoxes: %v", err)
	}
	if got := s.Quantity("BOX:a", "I"); got != 3 {
		t.Errorf("expected source 3, got %d", got)
	}
	if got := s.Quantity("BOX:b", "I"); got != 2 {
		t.Errorf("expected destination 2, got %d", got)
	}
}

func TestMoveBetweenBoxesPreconditions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 5)

	tests := []struct {
		name string
		src  string
		dest string
		qty  int
		want error
	}{
		{"insufficient stock", "BOX:a", "BOX:b", 10, ErrInsufficientStock},
		{"same box", "BOX:a", "BOX:a", 1, ErrSameBox},
		{"zero quantity", "BOX:a", "BOX:b", 0, ErrNonPositiveQuantity},
		{"negative quantity", "BOX:a", "BOX:b", -1, ErrNonPositiveQuantity},
		{"empty source", "BOX:empty", "BOX:b", 1, ErrInsufficientStock},
	}

	for _, tt := range tests {
		err := s.MoveBetweenBoxes(ctx, tt.src, tt.dest, "I", tt.qty)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	// Nothing moved.
	if got := s.Quantity("BOX:a", "I"); got != 5 {
		t.Errorf("expected source unchanged at 5, got %d", got)
	}
	if got := s.Quantity("BOX:b", "I"); got != 0 {
		t.Errorf("expected destination unchanged at 0, got %d", got)
	}
}

func TestMoveDrainsSourceEntry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 5)

	if err := s.MoveBetweenBoxes(ctx, "BOX:a", "BOX:b", "I", 5); err != nil {
		t.Fatalf("MoveBetweenBoxes: %v", err)
	}

	snap := s.ExportSnapshot()
	if _, ok := snap.Stock["BOX:a"]; ok {
		t.Error("expected drained source row to be deleted")
	}
	if snap.Stock["BOX:b"]["I"] != 5 {
		t.Errorf("expected destination 5, got %v", snap.Stock["BOX:b"])
	}
}

func TestContentsSortedAndFiltered(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.UpsertItem(ctx, "1", "zebra strips", 100, nil, nil)
	s.UpsertItem(ctx, "2", "Apple juice", 200, nil, nil)
	s.UpsertItem(ctx, "3", "mango puree", 300, nil, nil)
	s.AddToBox(ctx, "BOX:a", "1", 1)
	s.AddToBox(ctx, "BOX:a", "2", 2)
	s.AddToBox(ctx, "BOX:a", "3", 3)

	lines := s.Contents("BOX:a")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	want := []string{"Apple juice", "mango puree", "zebra strips"}
	for i, w := range want {
		if lines[i].Item.Name != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i].Item.Name)
		}
	}
}

func TestAddVan(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddVan(ctx, "alpha van")
	s.AddVan(ctx, "alpha van") // duplicate
	s.AddVan(ctx, "   ")       // blank
	s.AddVan(ctx, "")

	vans := s.Vans()
	if len(vans) != 4 {
		t.Fatalf("expected 4 vans, got %v", vans)
	}
	// Sorted case-insensitively: "alpha van" before "Van 1".
	if vans[0] != "alpha van" {
		t.Errorf("expected alpha van first, got %v", vans)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	expiry, _ := model.ParseDate("2027-01-31")
	warn := 7
	s.CreateBox(ctx, "BOX:a", "First aid", "Van 2")
	s.CreateBox(ctx, "BOX:b", "Spares", "Van 1")
	s.UpsertItem(ctx, "I1", "Bandages", 1050, &expiry, &warn)
	s.UpsertItem(ctx, "I2", "Tape", 250, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I1", 4)
	s.AddToBox(ctx, "BOX:b", "I2", 9)
	s.AddVan(ctx, "Spare van")

	text, err := s.ExportSnapshot().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	restored, _ := newTestStore(t)
	if err := restored.RestoreJSON(ctx, text); err != nil {
		t.Fatalf("RestoreJSON: %v", err)
	}

	text2, err := restored.ExportSnapshot().Encode()
	if err != nil {
		t.Fatalf("Encode restored: %v", err)
	}
	if text != text2 {
		t.Errorf("round trip mismatch:\n%s\n%s", text, text2)
	}
}

func TestLoadPrefersCanonicalKey(t *testing.T) {
	blob := newMemBlob()
	canonical := `{"boxes":[{"barcode":"BOX:new","name":"New","van":"Van 1"}]}`
	legacy := `{"boxes":[{"barcode":"BOX:old","name":"Old","van":"Van 1"}]}`
	blob.values[SnapshotKey] = canonical
	blob.values[LegacySnapshotKey] = legacy

	s := New(blob)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.FindBox("BOX:new"); !ok {
		t.Error("expected canonical snapshot to win")
	}
	if _, ok := s.FindBox("BOX:old"); ok {
		t.Error("legacy snapshot must be ignored when canonical exists")
	}
}

func TestLoadMigratesLegacyKey(t *testing.T) {
	blob := newMemBlob()
	blob.values[LegacySnapshotKey] = `{"boxes":[{"barcode":"BOX:old","name":"Old","van":"Van 1"}]}`

	s := New(blob)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.FindBox("BOX:old"); !ok {
		t.Error("expected legacy snapshot to apply")
	}
	if _, ok := blob.values[SnapshotKey]; !ok {
		t.Error("expected legacy snapshot to migrate to the canonical key")
	}
}

func TestLoadDoubleEncodedSnapshot(t *testing.T) {
	inner := `{"boxes":[{"barcode":"BOX:a","name":"A","van":"Van 1"}]}`
	wrapped, _ := json.Marshal(inner)

	blob := newMemBlob()
	blob.values[SnapshotKey] = string(wrapped)

	s := New(blob)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.FindBox("BOX:a"); !ok {
		t.Error("expected double-encoded snapshot to be unwrapped")
	}
}

func TestLoadCorruptSnapshotKeepsState(t *testing.T) {
	s, blob := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:a", "A", "Van 1")
	blob.values[SnapshotKey] = "{not json"

	err := s.Load(ctx)
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}
	if _, ok := s.FindBox("BOX:a"); !ok {
		t.Error("expected in-memory state to survive a corrupt snapshot")
	}
	if s.LoadedAt().IsZero() {
		t.Error("expected load timestamp to update even on failure")
	}
}

func TestLoadDropsOrphanStockEntries(t *testing.T) {
	blob := newMemBlob()
	blob.values[SnapshotKey] = `{
		"items": [{"barcode":"known","name":"Known","unitPriceCents":1,"expiresOn":null,"expiryWarningDays":null}],
		"inv": {"BOX:a": {"known": 2, "ghost": 7}}
	}`

	s := New(blob)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Quantity("BOX:a", "known"); got != 2 {
		t.Errorf("expected known entry kept, got %d", got)
	}
	if got := s.Quantity("BOX:a", "ghost"); got != 0 {
		t.Errorf("expected orphan entry dropped, got %d", got)
	}
}

func TestEveryMutationPersists(t *testing.T) {
	s, blob := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:a", "A", "Van 1")
	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 5)

	// A fresh store over the same blob sees everything.
	s2 := New(blob)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s2.Quantity("BOX:a", "I"); got != 5 {
		t.Errorf("expected reloaded quantity 5, got %d", got)
	}
	if s.SavedAt().IsZero() {
		t.Error("expected save timestamp to be set")
	}
}

func TestSaveFailureIsSoftAndInspectable(t *testing.T) {
	s, blob := newTestStore(t)
	ctx := context.Background()

	blob.failPut = true
	s.CreateBox(ctx, "BOX:a", "A", "Van 1") // must not panic or fail

	if _, ok := s.FindBox("BOX:a"); !ok {
		t.Error("expected in-memory mutation to apply despite save failure")
	}
	if s.LastSaveError() == nil {
		t.Error("expected LastSaveError to report the failure")
	}

	blob.failPut = false
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.LastSaveError() != nil {
		t.Error("expected LastSaveError to clear after a successful save")
	}
}

func TestWipeAll(t *testing.T) {
	s, blob := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:a", "A", "Custom van")
	s.UpsertItem(ctx, "I", "Widget", 100, nil, nil)
	s.AddToBox(ctx, "BOX:a", "I", 5)

	if err := s.WipeAll(ctx); err != nil {
		t.Fatalf("WipeAll: %v", err)
	}

	if len(s.Boxes()) != 0 || len(s.Items()) != 0 {
		t.Error("expected all registries cleared")
	}
	if len(s.Vans()) != 3 {
		t.Errorf("expected default vans after wipe, got %v", s.Vans())
	}
	if _, ok := blob.values[SnapshotKey]; ok {
		t.Error("expected canonical key deleted")
	}
	if _, ok := blob.values[LegacySnapshotKey]; ok {
		t.Error("expected legacy key deleted")
	}
}

func TestRestoreJSONRejectsCorruptInput(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:a", "A", "Van 1")

	err := s.RestoreJSON(ctx, `["not","a","snapshot"]`)
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}
	if _, ok := s.FindBox("BOX:a"); !ok {
		t.Error("expected state untouched after failed restore")
	}
}

func TestObserversNotifiedInOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var order []int
	cancel1 := s.Subscribe(func() { order = append(order, 1) })
	defer cancel1()
	cancel2 := s.Subscribe(func() { order = append(order, 2) })

	s.CreateBox(ctx, "BOX:a", "A", "Van 1")
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected in-order notification [1 2], got %v", order)
	}

	// No notification for a no-op.
	order = nil
	s.CreateBox(ctx, "BOX:a", "Again", "Van 1")
	if len(order) != 0 {
		t.Errorf("expected no notification for no-op, got %v", order)
	}

	// Unsubscribed observers stop receiving.
	cancel2()
	order = nil
	s.AddVan(ctx, "New van")
	if len(order) != 1 || order[0] != 1 {
		t.Errorf("expected only observer 1, got %v", order)
	}
}

func TestScenarioRemoveBelowZero(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.CreateBox(ctx, "BOX:demo-123", "Demo", "Van 1")
	s.UpsertItem(ctx, "X", "Widget", 999, nil, nil)
	s.AddToBox(ctx, "BOX:demo-123", "X", 3)
	s.RemoveFromBox(ctx, "BOX:demo-123", "X", 5)

	if got := s.Quantity("BOX:demo-123", "X"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	for _, line := range s.Contents("BOX:demo-123") {
		if line.Item.Barcode == "X" {
			t.Error("expected no stock line for X")
		}
	}
}

func TestLoadedAtAdvances(t *testing.T) {
	s, _ := newTestStore(t)
	first := s.LoadedAt()
	time.Sleep(5 * time.Millisecond)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.LoadedAt().After(first) {
		t.Error("expected load timestamp to advance")
	}
}
