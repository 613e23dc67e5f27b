package upgrade

import (
	"fmt"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
)

// Record is one line of a player's inventory.
//
// A record without a timer describes Count identical finished instances at Level.
// A record with a timer describes exactly one instance upgrading from Level to Level+1.
type Record struct {
	ItemID       string
	Level        int
	Count        int
	TimerSeconds int64
}

// Instances returns how many physical instances the record stands for
func (r Record) Instances() int {
	if r.TimerSeconds > 0 {
		return 1
	}
	if r.Count <= 0 {
		return 1
	}
	return r.Count
}

// InProgress returns true if the record's instance is mid-upgrade
func (r Record) InProgress() bool {
	return r.TimerSeconds > 0
}

// Snapshot is a point-in-time inventory of one village
type Snapshot struct {
	PlayerTag  string
	Village    catalog.Village
	CapturedAt time.Time
	Structures []Record
	Heroes     []Record
}

// VillageOrHome returns the snapshot village, treating an unset one as home
func (s *Snapshot) VillageOrHome() catalog.Village {
	if s.Village == "" {
		return catalog.VillageHome
	}
	return s.Village
}

// HallLevel returns the level of the village's hall record (0 if absent)
func (s *Snapshot) HallLevel() int {
	return s.levelOf(catalog.HallItemID(s.VillageOrHome()))
}

// HeroHallLevel returns the live hero-hall level (0 if not built)
func (s *Snapshot) HeroHallLevel() int {
	return s.levelOf(catalog.HeroHall)
}

func (s *Snapshot) levelOf(itemID string) int {
	level := 0
	for _, r := range s.Structures {
		if r.ItemID == itemID && r.Level > level {
			level = r.Level
		}
	}
	return level
}

// Validate rejects snapshots that cannot be planned from
func (s *Snapshot) Validate() error {
	if s == nil {
		return &InvalidInputError{Reason: "no inventory data"}
	}
	if len(s.Structures) == 0 {
		return &InvalidInputError{Reason: "building list is empty"}
	}
	for i, r := range s.Structures {
		if err := validateRecord(r); err != nil {
			return &InvalidInputError{Reason: fmt.Sprintf("structure %d: %v", i, err)}
		}
	}
	for i, r := range s.Heroes {
		if err := validateRecord(r); err != nil {
			return &InvalidInputError{Reason: fmt.Sprintf("hero %d: %v", i, err)}
		}
	}
	if s.HallLevel() == 0 {
		return &InvalidInputError{Reason: fmt.Sprintf("no %s level found", catalog.HallItemID(s.VillageOrHome()))}
	}
	return nil
}

func validateRecord(r Record) error {
	if r.ItemID == "" {
		return fmt.Errorf("missing item id")
	}
	if r.Level < 0 {
		return fmt.Errorf("%s: negative level %d", r.ItemID, r.Level)
	}
	if r.Count < 0 {
		return fmt.Errorf("%s: negative count %d", r.ItemID, r.Count)
	}
	if r.TimerSeconds < 0 {
		return fmt.Errorf("%s: negative timer %d", r.ItemID, r.TimerSeconds)
	}
	if r.TimerSeconds > 0 && r.Count > 1 {
		return fmt.Errorf("%s: an upgrading record must describe a single instance, got count %d", r.ItemID, r.Count)
	}
	return nil
}
