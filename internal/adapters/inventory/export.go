package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// exportRecord is one entry of an in-game account export.
// data is a numeric game id in real exports; item names are accepted for hand-written files.
type exportRecord struct {
	Data  json.RawMessage `json:"data"`
	Level int             `json:"lvl"`
	Count int             `json:"cnt"`
	Timer int64           `json:"timer"`
}

type exportFile struct {
	Tag        string         `json:"tag"`
	Timestamp  int64          `json:"timestamp"`
	Buildings  []exportRecord `json:"buildings"`
	Traps      []exportRecord `json:"traps"`
	Heroes     []exportRecord `json:"heroes"`
	Buildings2 []exportRecord `json:"buildings2"`
	Traps2     []exportRecord `json:"traps2"`
	Heroes2    []exportRecord `json:"heroes2"`
}

// ExportParser turns account export JSON into inventory snapshots
type ExportParser struct {
	catalog catalog.Catalog
}

// NewExportParser creates a parser that resolves game ids through c
func NewExportParser(c catalog.Catalog) *ExportParser {
	return &ExportParser{catalog: c}
}

// ParseFile reads an export from disk
func (p *ExportParser) ParseFile(path string, village catalog.Village) (*upgrade.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return p.ParseBytes(data, village)
}

// Parse reads an export from r
func (p *ExportParser) Parse(r io.Reader, village catalog.Village) (*upgrade.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return p.ParseBytes(data, village)
}

// ParseBytes builds the snapshot of one village from export JSON.
// Blank, truncated or wrongly shaped input fails with *upgrade.InvalidInputError. Game ids the
// catalog does not know are kept as their decimal string so the job builder reports them as
// missing entries.
func (p *ExportParser) ParseBytes(data []byte, village catalog.Village) (*upgrade.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &upgrade.InvalidInputError{Reason: "no inventory data"}
	}

	var file exportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &upgrade.InvalidInputError{Reason: fmt.Sprintf("cannot parse inventory json: %v", err)}
	}

	snapshot := &upgrade.Snapshot{
		PlayerTag: file.Tag,
		Village:   village,
	}
	if file.Timestamp > 0 {
		snapshot.CapturedAt = time.Unix(file.Timestamp, 0).UTC()
	}

	structures := [][]exportRecord{file.Buildings, file.Traps}
	heroes := file.Heroes
	if village == catalog.VillageBuilder {
		structures = [][]exportRecord{file.Buildings2, file.Traps2}
		heroes = file.Heroes2
	}

	for _, group := range structures {
		for i, rec := range group {
			record, err := p.toRecord(rec)
			if err != nil {
				return nil, &upgrade.InvalidInputError{Reason: fmt.Sprintf("structure %d: %v", i, err)}
			}
			snapshot.Structures = append(snapshot.Structures, record)
		}
	}
	for i, rec := range heroes {
		record, err := p.toRecord(rec)
		if err != nil {
			return nil, &upgrade.InvalidInputError{Reason: fmt.Sprintf("hero %d: %v", i, err)}
		}
		snapshot.Heroes = append(snapshot.Heroes, record)
	}

	return snapshot, nil
}

func (p *ExportParser) toRecord(rec exportRecord) (upgrade.Record, error) {
	itemID, err := p.resolve(rec.Data)
	if err != nil {
		return upgrade.Record{}, err
	}
	return upgrade.Record{
		ItemID:       itemID,
		Level:        rec.Level,
		Count:        rec.Count,
		TimerSeconds: rec.Timer,
	}, nil
}

func (p *ExportParser) resolve(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("record has no data field")
	}

	var gameID int
	if err := json.Unmarshal(raw, &gameID); err == nil {
		if item, ok := p.catalog.ItemByGameID(gameID); ok {
			return item.ID, nil
		}
		return strconv.Itoa(gameID), nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("data must be a game id or an item name, got %s", string(raw))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("record has an empty item name")
	}
	return name, nil
}
