package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/persistence"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/test/helpers"
)

var planOrigin = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type planningContext struct {
	catalog  *catalog.StaticCatalog
	snapshot *upgrade.Snapshot

	built    *upgrade.BuildResult
	buildErr error

	mediator   mediator.Mediator
	plan       *commands.GeneratePlanResponse
	comparison *commands.CompareHeuristicsResponse
	err        error
}

func (pc *planningContext) reset() {
	pc.catalog = nil
	pc.snapshot = nil
	pc.built = nil
	pc.buildErr = nil
	pc.mediator = nil
	pc.plan = nil
	pc.comparison = nil
	pc.err = nil
}

// Given steps

func (pc *planningContext) theFixtureCatalog() error {
	pc.catalog = helpers.NewFixtureCatalog()
	return nil
}

func (pc *planningContext) aHomeVillageInventory(table *godog.Table) error {
	pc.snapshot = &upgrade.Snapshot{PlayerTag: "#BDD", Village: catalog.VillageHome}
	for _, row := range tableRows(table) {
		level, err := intCell(row, "level")
		if err != nil {
			return err
		}
		count, err := intCell(row, "count")
		if err != nil {
			return err
		}
		timer, err := int64Cell(row, "timer")
		if err != nil {
			return err
		}
		pc.snapshot.Structures = append(pc.snapshot.Structures, upgrade.Record{
			ItemID:       row["item"],
			Level:        level,
			Count:        count,
			TimerSeconds: timer,
		})
	}
	return nil
}

func (pc *planningContext) theHeroes(table *godog.Table) error {
	if pc.snapshot == nil {
		return fmt.Errorf("heroes need an inventory first")
	}
	for _, row := range tableRows(table) {
		level, err := intCell(row, "level")
		if err != nil {
			return err
		}
		pc.snapshot.Heroes = append(pc.snapshot.Heroes, upgrade.Record{ItemID: row["item"], Level: level})
	}
	return nil
}

func (pc *planningContext) anEmptyHomeVillageInventory() error {
	pc.snapshot = &upgrade.Snapshot{PlayerTag: "#BDD", Village: catalog.VillageHome}
	return nil
}

func (pc *planningContext) thePlannerIsBackedByThePlanHistoryDatabase() error {
	if helpers.SharedTestDB == nil {
		return fmt.Errorf("shared test database not initialized")
	}
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}

	repo := persistence.NewGormPlanRunRepository(helpers.SharedTestDB)
	service := planning.NewPlanningService(pc.catalog)
	clock := shared.NewMockClock(planOrigin)

	med := mediator.NewMediator()
	if err := mediator.RegisterHandler[*commands.GeneratePlanCommand](med, commands.NewGeneratePlanHandler(service, repo, clock)); err != nil {
		return err
	}
	if err := mediator.RegisterHandler[*commands.CompareHeuristicsCommand](med, commands.NewCompareHeuristicsHandler(service, clock)); err != nil {
		return err
	}
	if err := mediator.RegisterHandler[*queries.ListPlanRunsQuery](med, queries.NewListPlanRunsHandler(repo)); err != nil {
		return err
	}
	if err := mediator.RegisterHandler[*queries.GetPlanRunQuery](med, queries.NewGetPlanRunHandler(repo)); err != nil {
		return err
	}
	pc.mediator = med
	return nil
}

// When steps

func (pc *planningContext) iBuildTheJobs() error {
	return pc.build(0)
}

func (pc *planningContext) iBuildTheJobsWithABoost(percent int) error {
	return pc.build(float64(percent) / 100)
}

func (pc *planningContext) build(boost float64) error {
	if pc.catalog == nil {
		return fmt.Errorf("no catalog loaded")
	}
	pc.built, pc.buildErr = upgrade.NewJobBuilder(pc.catalog).Build(pc.snapshot, upgrade.BuildOptions{BoostFraction: boost})
	return nil
}

func (pc *planningContext) iGenerateAPlanAndSaveIt(heuristic, label string) error {
	if pc.mediator == nil {
		return fmt.Errorf("planner is not wired")
	}
	resp, err := pc.mediator.Send(context.Background(), &commands.GeneratePlanCommand{
		Snapshot: pc.snapshot,
		Settings: planning.PlanSettings{Heuristic: heuristic},
		Origin:   planOrigin,
		Label:    label,
		Save:     true,
	})
	pc.err = err
	if err == nil {
		pc.plan = resp.(*commands.GeneratePlanResponse)
	}
	return nil
}

func (pc *planningContext) iCompareTheHeuristics() error {
	if pc.mediator == nil {
		return fmt.Errorf("planner is not wired")
	}
	resp, err := pc.mediator.Send(context.Background(), &commands.CompareHeuristicsCommand{
		Snapshot: pc.snapshot,
		Origin:   planOrigin,
	})
	pc.err = err
	if err == nil {
		pc.comparison = resp.(*commands.CompareHeuristicsResponse)
	}
	return nil
}

// Then steps

func (pc *planningContext) jobsShouldBeBuiltForBuilders(jobs, workers int) error {
	if pc.buildErr != nil {
		return fmt.Errorf("expected jobs, got error: %v", pc.buildErr)
	}
	if len(pc.built.Jobs) != jobs {
		keys := make([]string, 0, len(pc.built.Jobs))
		for _, j := range pc.built.Jobs {
			keys = append(keys, string(j.Key()))
		}
		return fmt.Errorf("expected %d jobs, got %d: %s", jobs, len(pc.built.Jobs), strings.Join(keys, ", "))
	}
	if pc.built.Workers != workers {
		return fmt.Errorf("expected %d builders, got %d", workers, pc.built.Workers)
	}
	return nil
}

func (pc *planningContext) theJobsShouldInclude(table *godog.Table) error {
	if pc.buildErr != nil {
		return fmt.Errorf("expected jobs, got error: %v", pc.buildErr)
	}
	byKey := make(map[upgrade.JobKey]*upgrade.Job, len(pc.built.Jobs))
	for _, j := range pc.built.Jobs {
		byKey[j.Key()] = j
	}

	for _, row := range tableRows(table) {
		key, err := rowKey(row)
		if err != nil {
			return err
		}
		job, ok := byKey[key]
		if !ok {
			return fmt.Errorf("no job %s was built", key)
		}
		duration, err := int64Cell(row, "duration")
		if err != nil {
			return err
		}
		priority, err := intCell(row, "priority")
		if err != nil {
			return err
		}
		after, err := afterKeys(row["after"])
		if err != nil {
			return err
		}

		if job.DurationSeconds() != duration {
			return fmt.Errorf("%s: expected duration %d, got %d", key, duration, job.DurationSeconds())
		}
		if int(job.Priority()) != priority {
			return fmt.Errorf("%s: expected priority %d, got %d", key, priority, job.Priority())
		}
		if got, want := sortedKeys(job.Predecessors()), sortedKeys(after); got != want {
			return fmt.Errorf("%s: expected predecessors [%s], got [%s]", key, want, got)
		}
	}
	return nil
}

func sortedKeys(keys []upgrade.JobKey) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	sort.Strings(out)
	return strings.Join(out, "; ")
}

func (pc *planningContext) thereShouldBeAWarningMentioning(text string) error {
	if pc.built == nil {
		return fmt.Errorf("nothing was built: %v", pc.buildErr)
	}
	for _, w := range pc.built.Warnings {
		if strings.Contains(w.Error(), text) {
			return nil
		}
	}
	return fmt.Errorf("no warning mentions %q (got %v)", text, pc.built.Warnings)
}

func (pc *planningContext) buildingShouldFailWith(text string) error {
	if pc.buildErr == nil {
		return fmt.Errorf("expected building to fail with %q, but it succeeded", text)
	}
	if !strings.Contains(pc.buildErr.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, pc.buildErr.Error())
	}
	return nil
}

func (pc *planningContext) generated() error {
	if pc.err != nil {
		return fmt.Errorf("expected a plan, got error: %v", pc.err)
	}
	if pc.plan == nil {
		return fmt.Errorf("no plan generated")
	}
	return nil
}

func (pc *planningContext) thePlanOutcomeShouldBe(outcome string) error {
	if err := pc.generated(); err != nil {
		return err
	}
	if pc.plan.Outcome != outcome {
		return fmt.Errorf("expected outcome %s, got %s", outcome, pc.plan.Outcome)
	}
	return nil
}

func (pc *planningContext) thePlanReasonShouldContain(text string) error {
	if err := pc.generated(); err != nil {
		return err
	}
	if !strings.Contains(pc.plan.Reason, text) {
		return fmt.Errorf("expected reason containing %q, got %q", text, pc.plan.Reason)
	}
	return nil
}

func (pc *planningContext) thePlanMakespanShouldRead(makespan string) error {
	if err := pc.generated(); err != nil {
		return err
	}
	if pc.plan.Makespan != makespan {
		return fmt.Errorf("expected makespan %s, got %s", makespan, pc.plan.Makespan)
	}
	return nil
}

func (pc *planningContext) thePlanHistoryShouldList(count int) error {
	resp, err := pc.mediator.Send(context.Background(), &queries.ListPlanRunsQuery{})
	if err != nil {
		return err
	}
	runs := resp.(*queries.ListPlanRunsResponse).Runs
	if len(runs) != count {
		return fmt.Errorf("expected %d stored runs, got %d", count, len(runs))
	}
	return nil
}

func (pc *planningContext) theStoredPlanShouldHave(jobs int, label string) error {
	if err := pc.generated(); err != nil {
		return err
	}
	resp, err := pc.mediator.Send(context.Background(), &queries.GetPlanRunQuery{ID: pc.plan.RunID})
	if err != nil {
		return err
	}
	run := resp.(*queries.GetPlanRunResponse).Run
	if len(run.Entries) != jobs {
		return fmt.Errorf("expected %d stored jobs, got %d", jobs, len(run.Entries))
	}
	if run.Label != label {
		return fmt.Errorf("expected label %q, got %q", label, run.Label)
	}
	return nil
}

func (pc *planningContext) bothHeuristicsShouldSchedule(jobs int) error {
	if pc.err != nil {
		return fmt.Errorf("comparison failed: %v", pc.err)
	}
	if len(pc.comparison.Results) != len(scheduling.AllHeuristics()) {
		return fmt.Errorf("expected %d results, got %d", len(scheduling.AllHeuristics()), len(pc.comparison.Results))
	}
	for _, r := range pc.comparison.Results {
		if len(r.Jobs) != jobs {
			return fmt.Errorf("%s scheduled %d jobs, expected %d", r.Heuristic, len(r.Jobs), jobs)
		}
	}
	return nil
}

func (pc *planningContext) theBestHeuristicShouldHaveTheShortestMakespan() error {
	if pc.err != nil {
		return fmt.Errorf("comparison failed: %v", pc.err)
	}
	var best *commands.HeuristicSummary
	for _, r := range pc.comparison.Results {
		if r.Heuristic == pc.comparison.Best {
			best = r
		}
	}
	if best == nil {
		return fmt.Errorf("best heuristic %q is not among the results", pc.comparison.Best)
	}
	for _, r := range pc.comparison.Results {
		if r.MakespanSeconds < best.MakespanSeconds {
			return fmt.Errorf("%s (%ds) beats the reported best %s (%ds)", r.Heuristic, r.MakespanSeconds, best.Heuristic, best.MakespanSeconds)
		}
	}
	return nil
}

func InitializePlanningScenario(ctx *godog.ScenarioContext) {
	pc := &planningContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		pc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the fixture catalog$`, pc.theFixtureCatalog)
	ctx.Step(`^a home village inventory:$`, pc.aHomeVillageInventory)
	ctx.Step(`^the heroes:$`, pc.theHeroes)
	ctx.Step(`^an empty home village inventory$`, pc.anEmptyHomeVillageInventory)
	ctx.Step(`^the planner is backed by the plan history database$`, pc.thePlannerIsBackedByThePlanHistoryDatabase)

	// When steps
	ctx.Step(`^I build the jobs$`, pc.iBuildTheJobs)
	ctx.Step(`^I build the jobs with a (\d+)% builder boost$`, pc.iBuildTheJobsWithABoost)
	ctx.Step(`^I generate an? (\w+) plan and save it as "([^"]*)"$`, pc.iGenerateAPlanAndSaveIt)
	ctx.Step(`^I compare the heuristics$`, pc.iCompareTheHeuristics)

	// Then steps
	ctx.Step(`^(\d+) jobs? should be built for (\d+) builders?$`, pc.jobsShouldBeBuiltForBuilders)
	ctx.Step(`^the jobs should include:$`, pc.theJobsShouldInclude)
	ctx.Step(`^there should be a warning mentioning "([^"]*)"$`, pc.thereShouldBeAWarningMentioning)
	ctx.Step(`^building should fail with "([^"]*)"$`, pc.buildingShouldFailWith)
	ctx.Step(`^the plan outcome should be "([^"]*)"$`, pc.thePlanOutcomeShouldBe)
	ctx.Step(`^the plan reason should contain "([^"]*)"$`, pc.thePlanReasonShouldContain)
	ctx.Step(`^the plan makespan should read "([^"]*)"$`, pc.thePlanMakespanShouldRead)
	ctx.Step(`^the plan history should list (\d+) runs?$`, pc.thePlanHistoryShouldList)
	ctx.Step(`^the stored plan should have (\d+) jobs? and the label "([^"]*)"$`, pc.theStoredPlanShouldHave)
	ctx.Step(`^both heuristics should schedule (\d+) jobs$`, pc.bothHeuristicsShouldSchedule)
	ctx.Step(`^the best heuristic should have the shortest makespan$`, pc.theBestHeuristicShouldHaveTheShortestMakespan)
}
