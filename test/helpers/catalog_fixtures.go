package helpers

import (
	"fmt"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
)

// NewFixtureCatalog returns a small home-village catalog with round timers, for tests
// that need exact schedules. Caps exist for hall levels 1 to 3.
//
//	Cannon        L1 10s (TH1), L2 50s (TH1), L3 100s (TH2)
//	Archer Tower  L1 30s (TH2), L2 90s (TH2), L3 200s (TH3)
//	Hero Hall     L1 60s (TH2), L2 120s (TH3)
//	Barbarian King L1-2 (HH1) 40s, L3 (HH2) 80s
func NewFixtureCatalog() *catalog.StaticCatalog {
	c := catalog.NewStaticCatalog()

	mustAdd(c, catalog.TownHall, 1000001, catalog.KindHall, false,
		lvl(1, 1, 0), lvl(2, 1, 300), lvl(3, 2, 900))
	mustAdd(c, "Builder's Hut", 1000015, catalog.KindBuilding, true,
		lvl(1, 1, 0))
	mustAdd(c, catalog.Wall, 1000010, catalog.KindWall, false,
		lvl(1, 1, 0), lvl(2, 2, 0))
	mustAdd(c, "Cannon", 1000008, catalog.KindBuilding, false,
		lvl(1, 1, 10), lvl(2, 1, 50), lvl(3, 2, 100))
	mustAdd(c, "Archer Tower", 1000009, catalog.KindBuilding, false,
		lvl(1, 2, 30), lvl(2, 2, 90), lvl(3, 3, 200))
	mustAdd(c, catalog.HeroHall, 1000071, catalog.KindBuilding, false,
		lvl(1, 2, 60), lvl(2, 3, 120))
	mustAdd(c, "Barbarian King", 28000000, catalog.KindHero, false,
		hero(1, 1, 0), hero(2, 1, 40), hero(3, 2, 80))

	c.SetCaps(catalog.VillageHome, 1, map[string]int{"Cannon": 1})
	c.SetCaps(catalog.VillageHome, 2, map[string]int{"Cannon": 2, "Archer Tower": 1, catalog.HeroHall: 1})
	c.SetCaps(catalog.VillageHome, 3, map[string]int{"Cannon": 2, "Archer Tower": 2, catalog.HeroHall: 1})
	return c
}

func lvl(level, hall int, seconds int64) catalog.LevelSpec {
	return catalog.LevelSpec{Level: level, HallLevel: hall, DurationSeconds: seconds}
}

func hero(level, heroHall int, seconds int64) catalog.LevelSpec {
	return catalog.LevelSpec{Level: level, HeroHallLevel: heroHall, DurationSeconds: seconds}
}

func mustAdd(c *catalog.StaticCatalog, id string, gameID int, kind catalog.ItemKind, grantsWorker bool, levels ...catalog.LevelSpec) {
	item, err := catalog.NewItem(id, gameID, kind, catalog.VillageHome, grantsWorker, levels)
	if err != nil {
		panic(fmt.Sprintf("fixture catalog: %v", err))
	}
	if err := c.Add(item); err != nil {
		panic(fmt.Sprintf("fixture catalog: %v", err))
	}
}
