package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/gamedata"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// NewCatalogCommand creates the catalog command with subcommands
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect structure, trap and hero data",
		Long: `Inspect the catalog the planner uses: level timers, hall requirements and
per-hall structure caps. catalog.path in config.yaml points at an optional
YAML file whose items and caps replace or extend the built-in data.

Examples:
  upgrade-planner catalog list
  upgrade-planner catalog list --hall 7
  upgrade-planner catalog list --village builder
  upgrade-planner catalog show "Archer Queen"`,
	}

	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogShowCommand())

	return cmd
}

func loadCatalog() (*catalog.StaticCatalog, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := gamedata.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// newCatalogListCommand lists items with their max level and cap at a hall level
func newCatalogListCommand() *cobra.Command {
	var (
		villageName string
		hall        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with max level and cap at a hall level",
		RunE: func(cmd *cobra.Command, args []string) error {
			village, err := catalog.ParseVillage(villageName)
			if err != nil {
				return err
			}
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			return renderCatalog(cmd.OutOrStdout(), cat, village, hall)
		},
	}

	cmd.Flags().StringVar(&villageName, "village", "home", "Village: home or builder")
	cmd.Flags().IntVar(&hall, "hall", 0, "Hall level (default: highest known)")

	return cmd
}

// newCatalogShowCommand prints one item's level table
func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <item>",
		Short: "Show the level table of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			item, ok := findItem(cat, args[0])
			if !ok {
				return fmt.Errorf("no catalog entry for %q", args[0])
			}
			renderItem(cmd.OutOrStdout(), item)
			return nil
		},
	}
}

// findItem looks an item up by exact id, then case-insensitively, then by game id
func findItem(cat *catalog.StaticCatalog, name string) (*catalog.Item, bool) {
	if item, ok := cat.Item(name); ok {
		return item, true
	}
	for _, village := range []catalog.Village{catalog.VillageHome, catalog.VillageBuilder} {
		for _, item := range cat.Items(village) {
			if strings.EqualFold(item.ID, name) {
				return item, true
			}
		}
	}
	if gameID, err := strconv.Atoi(name); err == nil {
		return cat.ItemByGameID(gameID)
	}
	return nil, false
}

func renderCatalog(w io.Writer, cat *catalog.StaticCatalog, village catalog.Village, hall int) error {
	levels := cat.HallLevels(village)
	if len(levels) == 0 {
		return fmt.Errorf("catalog has no %s village data", village)
	}
	if hall == 0 {
		hall = levels[len(levels)-1]
	}
	caps, ok := cat.HallCaps(village, hall)
	if !ok {
		return fmt.Errorf("no caps for %s level %d (known: %v)", catalog.HallItemID(village), hall, levels)
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s level %d", catalog.HallItemID(village), hall)))
	rows := [][]string{}
	for _, item := range cat.Items(village) {
		maxLevel := item.MaxLevelAt(hall)
		if item.IsHero() {
			maxLevel = item.MaxHeroLevelAt(heroHallAt(cat, hall))
		}
		count := "-"
		if n, ok := caps[item.ID]; ok {
			count = strconv.Itoa(n)
		}
		worker := ""
		if item.GrantsWorker {
			worker = "yes"
		}
		rows = append(rows, []string{item.ID, string(item.Kind), strconv.Itoa(item.GameID), strconv.Itoa(maxLevel), count, worker})
	}
	fmt.Fprintln(w, newTable("ITEM", "KIND", "GAME ID", "MAX LEVEL", "CAP", "BUILDER").Rows(rows...).Render())
	return nil
}

// heroHallAt is the highest hero hall level buildable at a town hall level
func heroHallAt(cat *catalog.StaticCatalog, hall int) int {
	item, ok := cat.Item(catalog.HeroHall)
	if !ok {
		return 0
	}
	return item.MaxLevelAt(hall)
}

func renderItem(w io.Writer, item *catalog.Item) {
	fmt.Fprintln(w, titleStyle.Render(item.ID)+" "+
		labelStyle.Render(fmt.Sprintf("%s, %s village, game id %d", item.Kind, item.Village, item.GameID)))

	requirement := "HALL"
	if item.IsHero() {
		requirement = "HERO HALL"
	}
	var total int64
	rows := make([][]string, 0, len(item.Levels))
	for _, l := range item.Levels {
		req := l.HallLevel
		if item.IsHero() {
			req = l.HeroHallLevel
		}
		total += l.DurationSeconds
		rows = append(rows, []string{strconv.Itoa(l.Level), strconv.Itoa(req), utils.FormatHuman(l.DurationSeconds), utils.FormatHuman(total)})
	}
	fmt.Fprintln(w, newTable("LEVEL", requirement, "TIME", "CUMULATIVE").Rows(rows...).Render())
}
