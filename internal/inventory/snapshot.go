package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/zaboj/internal/model"
)

// Persistence keys. SnapshotKey holds the canonical JSON snapshot;
// LegacySnapshotKey is the pre-v2 key, read once on load and then
// migrated forward to SnapshotKey.
const (
	SnapshotKey       = "inventory_v2"
	LegacySnapshotKey = "inventory"
)

// ErrCorruptSnapshot marks a persisted or restored snapshot that could
// not be decoded. The in-memory state is never touched when decoding
// fails.
var ErrCorruptSnapshot = errors.New("corrupt inventory snapshot")

// Snapshot is the full serialized state at a point in time. All keys
// are tolerated as absent and default to empty; an absent or empty van
// list defaults to the seed vans on apply.
type Snapshot struct {
	Boxes []model.Box               `json:"boxes"`
	Items []model.Item              `json:"items"`
	Stock map[string]map[string]int `json:"inv"`
	Vans  []string                  `json:"vans,omitempty"`
}

// DecodeSnapshot parses snapshot JSON. Shape mismatches fail fast with
// ErrCorruptSnapshot rather than partially applying. Older exports that
// double-encoded the snapshot (a JSON string containing JSON) are
// unwrapped one level.
func DecodeSnapshot(text string) (*Snapshot, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCorruptSnapshot)
	}

	if text[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		text = inner
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

// Encode serializes the snapshot to canonical JSON.
func (s *Snapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(data), nil
}
