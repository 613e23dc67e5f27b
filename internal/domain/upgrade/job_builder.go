package upgrade

import (
	"fmt"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// BuildOptions tunes how a snapshot is expanded into jobs
type BuildOptions struct {
	// BoostFraction is the builder-time reduction in [0, 1)
	BoostFraction float64

	// UseFixedPriority enables PriorityTable; otherwise every ordinary job gets DefaultPriority
	UseFixedPriority bool
	PriorityTable    map[string]int

	// DefaultPriority for ordinary upgrades (zero means PriorityDefault)
	DefaultPriority Priority

	// TargetHallLevel plans towards another hall level's caps (zero means the live hall)
	TargetHallLevel int
}

// BuildResult is the job set for one planning run
type BuildResult struct {
	Jobs            []*Job
	Workers         int
	HallLevel       int
	TargetHallLevel int

	// Warnings are recovered problems, typically *MissingCatalogEntryError
	Warnings []error
}

// JobBuilder expands an inventory snapshot into upgrade jobs and their precedence edges
type JobBuilder struct {
	catalog catalog.Catalog
}

// NewJobBuilder creates a builder backed by the given catalog
func NewJobBuilder(c catalog.Catalog) *JobBuilder {
	return &JobBuilder{catalog: c}
}

// buildRun carries the per-call state of Build
type buildRun struct {
	snapshot *Snapshot
	opts     BuildOptions
	target   int
	caps     map[string]int
	jobs     []*Job
	warnings []error
}

// Build creates the job set for a snapshot.
//
// Invalid snapshots fail with *InvalidInputError, bad options with *shared.ConfigurationError
// and unreachable hero unlocks with *DataInconsistencyError. A catalog id that cannot form a
// job key fails with *shared.ValidationError. Items missing from the catalog
// are skipped and reported in BuildResult.Warnings.
func (b *JobBuilder) Build(snapshot *Snapshot, opts BuildOptions) (*BuildResult, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	if err := validateBuildOptions(&opts); err != nil {
		return nil, err
	}

	hall := snapshot.HallLevel()
	target := opts.TargetHallLevel
	if target == 0 {
		target = hall
	}
	if target < hall {
		return nil, shared.NewConfigurationError("target hall level",
			fmt.Sprintf("%d is below the current hall level %d", target, hall))
	}

	village := snapshot.VillageOrHome()
	run := &buildRun{snapshot: snapshot, opts: opts, target: target}

	caps, ok := b.catalog.HallCaps(village, target)
	if !ok {
		run.warnings = append(run.warnings, fmt.Errorf("no structure caps for %s level %d, new instances are not planned",
			catalog.HallItemID(village), target))
		caps = map[string]int{}
	}
	run.caps = caps

	hallID := catalog.HallItemID(village)
	order, grouped := groupRecords(snapshot.Structures)
	var heroRecords []Record

	for _, itemID := range order {
		if itemID == hallID || itemID == catalog.Wall {
			continue
		}
		item, ok := b.catalog.Item(itemID)
		if !ok {
			run.warnings = append(run.warnings, &MissingCatalogEntryError{ItemID: itemID})
			continue
		}
		if item.IsHero() {
			heroRecords = append(heroRecords, grouped[itemID]...)
			continue
		}
		if err := run.addStructureJobs(item, grouped[itemID]); err != nil {
			return nil, err
		}
	}

	// Capped types with no live instance yet are built from scratch
	for _, item := range b.catalog.Items(village) {
		if _, seen := grouped[item.ID]; seen || run.caps[item.ID] <= 0 {
			continue
		}
		if item.ID == hallID || item.Kind == catalog.KindWall || item.IsHero() {
			continue
		}
		if err := run.addStructureJobs(item, nil); err != nil {
			return nil, err
		}
	}

	heroRecords = append(heroRecords, snapshot.Heroes...)
	if village == catalog.VillageHome && len(heroRecords) > 0 {
		if err := b.addHeroJobs(run, heroRecords); err != nil {
			return nil, err
		}
	}

	return &BuildResult{
		Jobs:            run.jobs,
		Workers:         b.countWorkers(snapshot),
		HallLevel:       hall,
		TargetHallLevel: target,
		Warnings:        run.warnings,
	}, nil
}

func validateBuildOptions(opts *BuildOptions) error {
	if err := ValidateBoostFraction(opts.BoostFraction); err != nil {
		return shared.NewConfigurationError("builder boost", err.Error())
	}
	if opts.DefaultPriority == 0 {
		opts.DefaultPriority = PriorityDefault
	}
	if opts.DefaultPriority < PriorityInProgress || opts.DefaultPriority.IsReserved() {
		return shared.NewConfigurationError("default priority",
			fmt.Sprintf("%d is reserved or out of range", opts.DefaultPriority))
	}
	if opts.UseFixedPriority {
		for itemID, p := range opts.PriorityTable {
			if p <= int(PriorityNewConstruction) {
				return shared.NewConfigurationError("priority table",
					fmt.Sprintf("%s has priority %d, values up to %d are reserved", itemID, p, PriorityNewConstruction))
			}
		}
	}
	return nil
}

// groupRecords keeps records per item in first-appearance order
func groupRecords(records []Record) ([]string, map[string][]Record) {
	var order []string
	grouped := make(map[string][]Record)
	for _, r := range records {
		if _, seen := grouped[r.ItemID]; !seen {
			order = append(order, r.ItemID)
		}
		grouped[r.ItemID] = append(grouped[r.ItemID], r)
	}
	return order, grouped
}

func (r *buildRun) priorityFor(itemID string) Priority {
	if r.opts.UseFixedPriority {
		if p, ok := r.opts.PriorityTable[itemID]; ok {
			return Priority(p)
		}
	}
	return r.opts.DefaultPriority
}

func (r *buildRun) emit(itemID, iter string, level int, duration int64, priority Priority, hero bool, predecessors ...JobKey) (*Job, error) {
	job, err := NewJob(itemID, iter, level, duration, priority, predecessors...)
	if err != nil {
		return nil, err
	}
	job.hero = hero
	r.jobs = append(r.jobs, job)
	return job, nil
}

// addStructureJobs emits in-progress, catch-up and missing-instance chains for one item type
func (r *buildRun) addStructureJobs(item *catalog.Item, records []Record) error {
	seq := &IterSequence{}
	maxLevel := item.MaxLevelAt(r.target)
	live := 0

	for _, rec := range records {
		for k := 0; k < rec.Instances(); k++ {
			live++
			if err := r.addInstanceChain(item, seq.Next(), rec, maxLevel, false, nil); err != nil {
				return err
			}
		}
	}

	missing := r.caps[item.ID] - live
	if missing <= 0 {
		return nil
	}
	lowest := item.LowestLevelAt(r.target)
	if lowest == 0 {
		return nil
	}
	for m := 0; m < missing; m++ {
		iter := seq.Next()
		var prev JobKey
		for level := lowest; level <= maxLevel; level++ {
			spec, ok := item.Level(level)
			if !ok {
				r.warnings = append(r.warnings, fmt.Errorf("%s has no level %d in the catalog, chain stops at %d", item.ID, level, level-1))
				break
			}
			priority := r.priorityFor(item.ID)
			if level == lowest {
				priority = PriorityNewConstruction
			}
			job, err := r.emit(item.ID, iter, level, ApplyBoost(spec.DurationSeconds, r.opts.BoostFraction), priority, false, prev)
			if err != nil {
				return err
			}
			prev = job.Key()
		}
	}
	return nil
}

// heroGate attaches the hero-hall predecessor a hero level needs, if any
type heroGate func(level catalog.LevelSpec) (JobKey, error)

// addInstanceChain emits the in-progress job of an instance (if upgrading) and the
// catch-up steps up to maxLevel, each linked to the step before it.
func (r *buildRun) addInstanceChain(item *catalog.Item, iter string, rec Record, maxLevel int, hero bool, gate heroGate) error {
	base := rec.Level
	var prev JobKey
	if rec.InProgress() {
		job, err := r.emit(item.ID, iter, rec.Level+1, rec.TimerSeconds, PriorityInProgress, hero)
		if err != nil {
			return err
		}
		prev = job.Key()
		base = rec.Level + 1
	}

	for level := base + 1; level <= maxLevel; level++ {
		spec, ok := item.Level(level)
		if !ok {
			r.warnings = append(r.warnings, fmt.Errorf("%s has no level %d in the catalog, chain stops at %d", item.ID, level, level-1))
			break
		}
		preds := []JobKey{prev}
		if gate != nil {
			hallKey, err := gate(spec)
			if err != nil {
				return err
			}
			preds = append(preds, hallKey)
		}
		job, err := r.emit(item.ID, iter, level, ApplyBoost(spec.DurationSeconds, r.opts.BoostFraction), r.priorityFor(item.ID), hero, preds...)
		if err != nil {
			return err
		}
		prev = job.Key()
	}
	return nil
}

// addHeroJobs handles home-village heroes; levels needing a higher hero hall than the live
// one wait for the hero-hall job that first reaches the required level.
func (b *JobBuilder) addHeroJobs(run *buildRun, records []Record) error {
	liveHeroHall := run.snapshot.HeroHallLevel()
	maxHeroHall := liveHeroHall
	if hallItem, ok := b.catalog.Item(catalog.HeroHall); ok {
		if m := hallItem.MaxLevelAt(run.target); m > maxHeroHall {
			maxHeroHall = m
		}
	}

	order, grouped := groupRecords(records)
	for _, itemID := range order {
		item, ok := b.catalog.Item(itemID)
		if !ok {
			run.warnings = append(run.warnings, &MissingCatalogEntryError{ItemID: itemID})
			continue
		}
		maxLevel := item.MaxHeroLevelAt(maxHeroHall)
		seq := &IterSequence{}

		for _, rec := range grouped[itemID] {
			iter := seq.Next()
			gate := func(spec catalog.LevelSpec) (JobKey, error) {
				if spec.HeroHallLevel <= liveHeroHall {
					return "", nil
				}
				hallJob := run.findHeroHallJob(spec.HeroHallLevel)
				if hallJob == nil {
					return "", &DataInconsistencyError{
						ItemID:        item.ID,
						TargetLevel:   spec.Level,
						RequiredItem:  catalog.HeroHall,
						RequiredLevel: spec.HeroHallLevel,
					}
				}
				return hallJob.Key(), nil
			}
			if err := run.addInstanceChain(item, iter, rec, maxLevel, true, gate); err != nil {
				return err
			}
		}
	}
	return nil
}

// findHeroHallJob returns the hero-hall job with the lowest target level >= level
func (r *buildRun) findHeroHallJob(level int) *Job {
	var best *Job
	for _, j := range r.jobs {
		if j.ItemID() != catalog.HeroHall || j.TargetLevel() < level {
			continue
		}
		if best == nil || j.TargetLevel() < best.TargetLevel() {
			best = j
		}
	}
	return best
}

// countWorkers counts every finished or upgrading instance of a worker-granting structure
func (b *JobBuilder) countWorkers(snapshot *Snapshot) int {
	workers := 0
	for _, rec := range snapshot.Structures {
		item, ok := b.catalog.Item(rec.ItemID)
		if !ok || !item.GrantsWorker {
			continue
		}
		workers += rec.Instances()
	}
	return workers
}
