package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2026-01-31", false},
		{"1999-12-01", false},
		{"2026-13-01", true},
		{"2026-1-1", true},
		{"not-a-date", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := ParseDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 9)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2026-03-09"` {
		t.Errorf("expected \"2026-03-09\", got %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("round trip mismatch: %v != %v", back, d)
	}
}

func TestDateUnmarshalRejectsNonString(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`20260309`), &d); err == nil {
		t.Error("expected error for non-string date")
	}
}

func TestExpiringSoon(t *testing.T) {
	expiry := NewDate(2026, time.June, 10)
	warn := 5
	today := func(day int) time.Time {
		return time.Date(2026, time.June, day, 15, 4, 5, 0, time.UTC)
	}

	tests := []struct {
		name string
		item Item
		day  int
		want bool
	}{
		{"no expiry date", Item{}, 1, false},
		{"before window", Item{ExpiresOn: &expiry, ExpiryWarningDays: &warn}, 4, false},
		{"window start", Item{ExpiresOn: &expiry, ExpiryWarningDays: &warn}, 5, true},
		{"on expiry", Item{ExpiresOn: &expiry, ExpiryWarningDays: &warn}, 10, true},
		{"after expiry", Item{ExpiresOn: &expiry, ExpiryWarningDays: &warn}, 20, true},
		{"no warning days, before expiry", Item{ExpiresOn: &expiry}, 9, false},
		{"no warning days, on expiry", Item{ExpiresOn: &expiry}, 10, true},
	}

	for _, tt := range tests {
		if got := tt.item.ExpiringSoon(today(tt.day)); got != tt.want {
			t.Errorf("%s: ExpiringSoon = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleWorker, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleWorker, true},
		{RoleWorker, RoleManager, false},
		{RoleWorker, RoleWorker, true},
		// Unknown roles fail-closed.
		{"unknown", RoleWorker, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
	}

	for _, tt := range tests {
		if got := RoleAtLeast(tt.role, tt.minimum); got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestCompareFold(t *testing.T) {
	if CompareFold("alpha", "Bravo") >= 0 {
		t.Error("expected case-insensitive lexicographic order")
	}
	// Lexicographic, not natural: "Van 10" sorts before "Van 2".
	if CompareFold("van 2", "Van 10") <= 0 {
		t.Error("expected \"Van 10\" to sort before \"van 2\"")
	}
	if CompareFold("Van 1", "van 1") >= 0 {
		t.Error("expected case-sensitive tiebreak for equal folded names")
	}
	if CompareFold("Van 1", "Van 1") != 0 {
		t.Error("expected equal names to compare equal")
	}
}
