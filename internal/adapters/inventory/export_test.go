package inventory_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/inventory"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

const sampleExport = `{
  "tag": "#GU2QV0Y8Q",
  "timestamp": 1757084582,
  "buildings": [
    {"data": 1000001, "lvl": 8, "cnt": 1},
    {"data": 1000008, "lvl": 7, "cnt": 4},
    {"data": 1000008, "lvl": 6, "timer": 3600},
    {"data": 1000019, "lvl": 4, "timer": 28511}
  ],
  "traps": [{"data": 12000000, "lvl": 5, "cnt": 6}],
  "heroes": [{"data": 28000000, "lvl": 11}],
  "buildings2": [{"data": 1000034, "lvl": 4, "cnt": 1}],
  "units": [{"data": 4000000, "lvl": 4}]
}`

func newTestCatalog(t *testing.T) *catalog.StaticCatalog {
	t.Helper()
	c := catalog.NewStaticCatalog()
	add := func(id string, gameID int, kind catalog.ItemKind, village catalog.Village) {
		item, err := catalog.NewItem(id, gameID, kind, village, false, []catalog.LevelSpec{{Level: 1, HallLevel: 1}})
		require.NoError(t, err)
		require.NoError(t, c.Add(item))
	}
	add(catalog.TownHall, 1000001, catalog.KindHall, catalog.VillageHome)
	add("Cannon", 1000008, catalog.KindBuilding, catalog.VillageHome)
	add("Bomb", 12000000, catalog.KindTrap, catalog.VillageHome)
	add("Barbarian King", 28000000, catalog.KindHero, catalog.VillageHome)
	add(catalog.BuilderHall, 1000034, catalog.KindHall, catalog.VillageBuilder)
	return c
}

func TestParseBytes_HomeVillage(t *testing.T) {
	// Arrange
	parser := inventory.NewExportParser(newTestCatalog(t))

	// Act
	snapshot, err := parser.ParseBytes([]byte(sampleExport), catalog.VillageHome)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "#GU2QV0Y8Q", snapshot.PlayerTag)
	assert.Equal(t, time.Unix(1757084582, 0).UTC(), snapshot.CapturedAt)
	assert.Equal(t, []upgrade.Record{
		{ItemID: catalog.TownHall, Level: 8, Count: 1},
		{ItemID: "Cannon", Level: 7, Count: 4},
		{ItemID: "Cannon", Level: 6, TimerSeconds: 3600},
		{ItemID: "1000019", Level: 4, TimerSeconds: 28511},
		{ItemID: "Bomb", Level: 5, Count: 6},
	}, snapshot.Structures)
	assert.Equal(t, []upgrade.Record{{ItemID: "Barbarian King", Level: 11}}, snapshot.Heroes)
	assert.Equal(t, 8, snapshot.HallLevel())
}

func TestParseBytes_BuilderVillage(t *testing.T) {
	parser := inventory.NewExportParser(newTestCatalog(t))

	snapshot, err := parser.ParseBytes([]byte(sampleExport), catalog.VillageBuilder)

	require.NoError(t, err)
	assert.Equal(t, []upgrade.Record{{ItemID: catalog.BuilderHall, Level: 4, Count: 1}}, snapshot.Structures)
	assert.Empty(t, snapshot.Heroes)
	assert.Equal(t, 4, snapshot.HallLevel())
}

func TestParseBytes_ItemNames(t *testing.T) {
	parser := inventory.NewExportParser(newTestCatalog(t))

	snapshot, err := parser.ParseBytes([]byte(`{"buildings":[{"data":"Town Hall","lvl":3},{"data":" Cannon ","lvl":2,"cnt":2}]}`), catalog.VillageHome)

	require.NoError(t, err)
	assert.Equal(t, "Cannon", snapshot.Structures[1].ItemID)
	assert.True(t, snapshot.CapturedAt.IsZero())
}

func TestParseBytes_Errors(t *testing.T) {
	parser := inventory.NewExportParser(newTestCatalog(t))

	t.Run("blank input is invalid inventory", func(t *testing.T) {
		_, err := parser.ParseBytes([]byte("  \n"), catalog.VillageHome)

		var invalid *upgrade.InvalidInputError
		require.True(t, errors.As(err, &invalid))
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"truncated json", `{"buildings": [ {"data": 1000001, "lvl": `, "parse inventory json"},
		{"not json", `not json at all`, "parse inventory json"},
		{"array instead of object", `[]`, "parse inventory json"},
		{"missing data", `{"buildings":[{"lvl":1}]}`, "no data field"},
		{"empty name", `{"buildings":[{"data":"","lvl":1}]}`, "empty item name"},
		{"object data", `{"heroes":[{"data":{"id":1},"lvl":1}]}`, "hero 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseBytes([]byte(tt.input), catalog.VillageHome)

			var invalid *upgrade.InvalidInputError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Contains(t, invalid.Reason, tt.want)
		})
	}
}

func TestParse_ReaderAndFile(t *testing.T) {
	parser := inventory.NewExportParser(newTestCatalog(t))

	fromReader, err := parser.Parse(strings.NewReader(sampleExport), catalog.VillageHome)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))
	fromFile, err := parser.ParseFile(path, catalog.VillageHome)
	require.NoError(t, err)

	assert.Equal(t, fromReader, fromFile)

	_, err = parser.ParseFile(filepath.Join(t.TempDir(), "nope.json"), catalog.VillageHome)
	assert.Error(t, err)
}
