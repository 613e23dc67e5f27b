package catalog

import (
	"fmt"
	"sort"
)

// StaticCatalog is an in-memory Catalog. Loaders fill it once and hand it out read-only.
type StaticCatalog struct {
	order  []string
	items  map[string]*Item
	byGame map[int]*Item
	caps   map[Village]map[int]map[string]int
}

// NewStaticCatalog creates an empty catalog
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		items:  make(map[string]*Item),
		byGame: make(map[int]*Item),
		caps:   make(map[Village]map[int]map[string]int),
	}
}

// Add registers an item. Adding an id twice replaces the earlier entry in place.
func (c *StaticCatalog) Add(item *Item) error {
	if item == nil {
		return fmt.Errorf("nil catalog item")
	}
	if existing, ok := c.byGame[item.GameID]; ok && item.GameID != 0 && existing.ID != item.ID {
		return fmt.Errorf("game id %d is used by both %s and %s", item.GameID, existing.ID, item.ID)
	}
	if old, ok := c.items[item.ID]; ok {
		if old.GameID != 0 {
			delete(c.byGame, old.GameID)
		}
	} else {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item
	if item.GameID != 0 {
		c.byGame[item.GameID] = item
	}
	return nil
}

// SetCaps records the per-item maximum counts for a hall level
func (c *StaticCatalog) SetCaps(village Village, hallLevel int, caps map[string]int) {
	if c.caps[village] == nil {
		c.caps[village] = make(map[int]map[string]int)
	}
	copied := make(map[string]int, len(caps))
	for k, v := range caps {
		copied[k] = v
	}
	c.caps[village][hallLevel] = copied
}

func (c *StaticCatalog) Item(id string) (*Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

func (c *StaticCatalog) ItemByGameID(gameID int) (*Item, bool) {
	item, ok := c.byGame[gameID]
	return item, ok
}

func (c *StaticCatalog) HallCaps(village Village, hallLevel int) (map[string]int, bool) {
	levels, ok := c.caps[village]
	if !ok {
		return nil, false
	}
	caps, ok := levels[hallLevel]
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(caps))
	for k, v := range caps {
		out[k] = v
	}
	return out, true
}

func (c *StaticCatalog) Items(village Village) []*Item {
	var out []*Item
	for _, id := range c.order {
		if item := c.items[id]; item.Village == village {
			out = append(out, item)
		}
	}
	return out
}

// HallLevels lists the hall levels that have caps for a village, ascending
func (c *StaticCatalog) HallLevels(village Village) []int {
	var out []int
	for level := range c.caps[village] {
		out = append(out, level)
	}
	sort.Ints(out)
	return out
}

var _ Catalog = (*StaticCatalog)(nil)
