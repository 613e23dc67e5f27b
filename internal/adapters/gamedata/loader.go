package gamedata

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
)

//go:embed data/catalog.yaml
var embeddedCatalog []byte

// catalogFile mirrors the YAML layout of a catalog table
type catalogFile struct {
	Items []itemEntry                       `yaml:"items"`
	Caps  map[string]map[int]map[string]int `yaml:"caps"`
}

type itemEntry struct {
	ID           string       `yaml:"id"`
	GameID       int          `yaml:"game_id"`
	Kind         string       `yaml:"kind"`
	Village      string       `yaml:"village"`
	GrantsWorker bool         `yaml:"grants_worker"`
	Levels       []levelEntry `yaml:"levels"`
}

type levelEntry struct {
	Level         int    `yaml:"lvl"`
	HallLevel     int    `yaml:"th"`
	HeroHallLevel int    `yaml:"hh"`
	Time          string `yaml:"time"`
}

// LoadDefault returns the catalog shipped with the binary
func LoadDefault() (*catalog.StaticCatalog, error) {
	c := catalog.NewStaticCatalog()
	if err := decodeInto(c, embeddedCatalog); err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// Load returns the embedded catalog with the overrides from overridePath applied.
// An empty path loads the embedded tables only.
func Load(overridePath string) (*catalog.StaticCatalog, error) {
	c, err := LoadDefault()
	if err != nil {
		return nil, err
	}
	if overridePath == "" {
		return c, nil
	}

	f, err := os.Open(overridePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog override: %w", err)
	}
	defer f.Close()

	if err := ApplyOverrides(c, f); err != nil {
		return nil, fmt.Errorf("catalog override %s: %w", overridePath, err)
	}
	return c, nil
}

// ApplyOverrides merges a YAML table into c. Items replace entries with the same id and
// caps replace the whole cap table of a (village, hall level) pair.
func ApplyOverrides(c *catalog.StaticCatalog, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return decodeInto(c, data)
}

func decodeInto(c *catalog.StaticCatalog, data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	for _, entry := range file.Items {
		item, err := entry.toItem()
		if err != nil {
			return err
		}
		if err := c.Add(item); err != nil {
			return err
		}
	}

	for villageName, levels := range file.Caps {
		village, err := catalog.ParseVillage(villageName)
		if err != nil {
			return fmt.Errorf("caps: %w", err)
		}
		for hallLevel, caps := range levels {
			if hallLevel < 1 {
				return fmt.Errorf("caps for %s: hall level must be >= 1, got %d", village, hallLevel)
			}
			for itemID, n := range caps {
				if n < 0 {
					return fmt.Errorf("caps for %s level %d: %s has negative count %d", village, hallLevel, itemID, n)
				}
			}
			c.SetCaps(village, hallLevel, caps)
		}
	}
	return nil
}

func (e itemEntry) toItem() (*catalog.Item, error) {
	village, err := catalog.ParseVillage(e.Village)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", e.ID, err)
	}
	kind, err := parseKind(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", e.ID, err)
	}

	levels := make([]catalog.LevelSpec, 0, len(e.Levels))
	for _, l := range e.Levels {
		seconds, err := ParseGameDuration(l.Time)
		if err != nil {
			return nil, fmt.Errorf("item %s level %d: %w", e.ID, l.Level, err)
		}
		if kind == catalog.KindHero && l.HeroHallLevel < 1 {
			return nil, fmt.Errorf("item %s level %d: heroes need an hh requirement", e.ID, l.Level)
		}
		if kind != catalog.KindHero && l.HallLevel < 1 {
			return nil, fmt.Errorf("item %s level %d: th requirement must be >= 1", e.ID, l.Level)
		}
		levels = append(levels, catalog.LevelSpec{
			Level:           l.Level,
			HallLevel:       l.HallLevel,
			HeroHallLevel:   l.HeroHallLevel,
			DurationSeconds: seconds,
		})
	}

	return catalog.NewItem(e.ID, e.GameID, kind, village, e.GrantsWorker, levels)
}

func parseKind(s string) (catalog.ItemKind, error) {
	switch kind := catalog.ItemKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case catalog.KindBuilding, catalog.KindTrap, catalog.KindHero, catalog.KindHall, catalog.KindWall:
		return kind, nil
	case "":
		return catalog.KindBuilding, nil
	default:
		return "", fmt.Errorf("unknown item kind %q", s)
	}
}

// ParseGameDuration converts timer notation ("45s", "2h30m", "1d12h", "0", plain seconds)
// into whole seconds.
func ParseGameDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return n, nil
	}

	var days int64
	if idx := strings.Index(s, "d"); idx >= 0 {
		n, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		days = n
		s = s[idx+1:]
	}

	var rest time.Duration
	if s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		rest = d
	}
	return days*86400 + int64(rest/time.Second), nil
}
