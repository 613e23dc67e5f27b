package catalog

import (
	"fmt"
	"sort"
)

// Village identifies which base a structure belongs to
type Village string

const (
	// VillageHome is the main base, gated by the Town Hall
	VillageHome Village = "home"

	// VillageBuilder is the secondary base, gated by the Builder Hall
	VillageBuilder Village = "builder"
)

// ParseVillage converts a string into a Village, defaulting empty input to home
func ParseVillage(s string) (Village, error) {
	switch s {
	case "", "home", "HOME":
		return VillageHome, nil
	case "builder", "BUILDER":
		return VillageBuilder, nil
	default:
		return "", fmt.Errorf("unknown village %q", s)
	}
}

// Well-known item identifiers the planner treats specially
const (
	TownHall    = "Town Hall"
	BuilderHall = "Builder Hall"
	HeroHall    = "Hero Hall"
	Wall        = "Wall"
)

// HallItemID returns the hall structure that gates the given village
func HallItemID(v Village) string {
	if v == VillageBuilder {
		return BuilderHall
	}
	return TownHall
}

// ItemKind classifies catalog entries
type ItemKind string

const (
	KindBuilding ItemKind = "building"
	KindTrap     ItemKind = "trap"
	KindHero     ItemKind = "hero"
	KindHall     ItemKind = "hall"
	KindWall     ItemKind = "wall"
)

// LevelSpec is one upgrade step of an item.
// HallLevel is the hall level that unlocks the step; HeroHallLevel is only set for heroes.
type LevelSpec struct {
	Level           int
	HallLevel       int
	HeroHallLevel   int
	DurationSeconds int64
}

// Item is the immutable catalog description of a structure, trap or hero type
type Item struct {
	ID           string
	GameID       int
	Kind         ItemKind
	Village      Village
	GrantsWorker bool
	Levels       []LevelSpec
}

// NewItem creates an Item with its levels sorted ascending.
// Duplicate levels are rejected so lookups stay unambiguous.
func NewItem(id string, gameID int, kind ItemKind, village Village, grantsWorker bool, levels []LevelSpec) (*Item, error) {
	if id == "" {
		return nil, fmt.Errorf("catalog item id is required")
	}

	sorted := make([]LevelSpec, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	for i, l := range sorted {
		if l.Level < 1 {
			return nil, fmt.Errorf("catalog item %s: level must be >= 1, got %d", id, l.Level)
		}
		if l.DurationSeconds < 0 {
			return nil, fmt.Errorf("catalog item %s level %d: negative duration", id, l.Level)
		}
		if i > 0 && sorted[i-1].Level == l.Level {
			return nil, fmt.Errorf("catalog item %s: duplicate level %d", id, l.Level)
		}
	}

	return &Item{
		ID:           id,
		GameID:       gameID,
		Kind:         kind,
		Village:      village,
		GrantsWorker: grantsWorker,
		Levels:       sorted,
	}, nil
}

// IsHero returns true for hero entries
func (i *Item) IsHero() bool {
	return i.Kind == KindHero
}

// Level returns the spec for an exact level
func (i *Item) Level(level int) (LevelSpec, bool) {
	for _, l := range i.Levels {
		if l.Level == level {
			return l, true
		}
	}
	return LevelSpec{}, false
}

// MaxLevelAt returns the highest level unlocked at the given hall level (0 if none).
// Hero levels are gated by the hero hall instead, see MaxHeroLevelAt.
func (i *Item) MaxLevelAt(hallLevel int) int {
	max := 0
	for _, l := range i.Levels {
		if l.HallLevel > 0 && l.HallLevel <= hallLevel && l.Level > max {
			max = l.Level
		}
	}
	return max
}

// LowestLevelAt returns the lowest level buildable at the given hall level (0 if none)
func (i *Item) LowestLevelAt(hallLevel int) int {
	for _, l := range i.Levels {
		if l.HallLevel > 0 && l.HallLevel <= hallLevel {
			return l.Level
		}
	}
	return 0
}

// MaxHeroLevelAt returns the highest hero level unlocked by a hero hall of the given level
func (i *Item) MaxHeroLevelAt(heroHallLevel int) int {
	max := 0
	for _, l := range i.Levels {
		if l.HeroHallLevel > 0 && l.HeroHallLevel <= heroHallLevel && l.Level > max {
			max = l.Level
		}
	}
	return max
}

// Catalog is the read-only lookup contract the job builder depends on
type Catalog interface {
	// Item returns the catalog entry for an item identifier
	Item(id string) (*Item, bool)

	// ItemByGameID resolves the numeric identifier used by in-game exports
	ItemByGameID(gameID int) (*Item, bool)

	// HallCaps returns the maximum count of each item type allowed at a hall level
	HallCaps(village Village, hallLevel int) (map[string]int, bool)

	// Items lists every entry of a village in a stable order
	Items(village Village) []*Item
}
