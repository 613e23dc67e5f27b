package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

type schedulerContext struct {
	origin time.Time
	opts   scheduling.Options
	jobs   []*upgrade.Job
	result *scheduling.Result
	err    error
}

func (sc *schedulerContext) reset() {
	sc.origin = time.Time{}
	sc.opts = scheduling.Options{}
	sc.jobs = nil
	sc.result = nil
	sc.err = nil
}

// Given steps

func (sc *schedulerContext) thePlanOriginIs(value string) error {
	origin, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return err
	}
	sc.origin = origin
	return nil
}

func (sc *schedulerContext) buildersUsingTheHeuristic(workers int, heuristic string) error {
	h, err := scheduling.ParseHeuristic(heuristic)
	if err != nil {
		return err
	}
	sc.opts.Workers = workers
	sc.opts.Heuristic = h
	return nil
}

func (sc *schedulerContext) anActiveWindow(start, end, zone string) error {
	location, err := time.LoadLocation(zone)
	if err != nil {
		return err
	}
	window, err := scheduling.NewActiveWindow(start, end, location)
	if err != nil {
		return err
	}
	sc.opts.Window = window
	return nil
}

func (sc *schedulerContext) theFollowingJobs(table *godog.Table) error {
	for _, row := range tableRows(table) {
		level, err := intCell(row, "level")
		if err != nil {
			return err
		}
		duration, err := int64Cell(row, "duration")
		if err != nil {
			return err
		}
		priority, err := intCell(row, "priority")
		if err != nil {
			return err
		}
		preds, err := afterKeys(row["after"])
		if err != nil {
			return err
		}
		job, err := upgrade.NewJob(row["item"], row["iter"], level, duration, upgrade.Priority(priority), preds...)
		if err != nil {
			return err
		}
		sc.jobs = append(sc.jobs, job)
	}
	return nil
}

// When steps

func (sc *schedulerContext) iScheduleTheJobs() error {
	sc.opts.Origin = sc.origin.Unix()
	sc.result, sc.err = scheduling.NewScheduler().Schedule(sc.jobs, sc.opts)
	return nil
}

// Then steps

func (sc *schedulerContext) scheduled() error {
	if sc.err != nil {
		return fmt.Errorf("expected a schedule, got error: %v", sc.err)
	}
	if sc.result == nil {
		return fmt.Errorf("no schedule produced")
	}
	return nil
}

func (sc *schedulerContext) theScheduleShouldBe(table *godog.Table) error {
	if err := sc.scheduled(); err != nil {
		return err
	}
	rows := tableRows(table)
	if len(rows) != len(sc.result.Jobs) {
		return fmt.Errorf("expected %d scheduled jobs, got %d", len(rows), len(sc.result.Jobs))
	}
	for i, row := range rows {
		key, err := rowKey(row)
		if err != nil {
			return err
		}
		builder, err := intCell(row, "builder")
		if err != nil {
			return err
		}
		start, err := int64Cell(row, "start")
		if err != nil {
			return err
		}
		end, err := int64Cell(row, "end")
		if err != nil {
			return err
		}

		got := sc.result.Jobs[i]
		gotStart, gotEnd := got.Start-sc.result.Origin, got.End-sc.result.Origin
		if got.Key() != key || got.Worker+1 != builder || gotStart != start || gotEnd != end {
			return fmt.Errorf("row %d: expected %s on builder %d [%d, %d], got %s on builder %d [%d, %d]",
				i+1, key, builder, start, end, got.Key(), got.Worker+1, gotStart, gotEnd)
		}
	}
	return nil
}

func (sc *schedulerContext) theMakespanShouldBe(seconds int64) error {
	if err := sc.scheduled(); err != nil {
		return err
	}
	if sc.result.MakespanSeconds != seconds {
		return fmt.Errorf("expected makespan %d, got %d", seconds, sc.result.MakespanSeconds)
	}
	return nil
}

func (sc *schedulerContext) scheduledItemAt(position string, item string) error {
	if err := sc.scheduled(); err != nil {
		return err
	}
	if len(sc.result.Jobs) == 0 {
		return fmt.Errorf("schedule is empty")
	}
	got := sc.result.Jobs[0]
	if position == "last" {
		got = sc.result.Jobs[len(sc.result.Jobs)-1]
	}
	if got.Job.ItemID() != item {
		return fmt.Errorf("expected the %s job to be %s, got %s", position, item, got.Key())
	}
	return nil
}

func (sc *schedulerContext) schedulingShouldFailWithADeadlock() error {
	var deadlock *scheduling.DeadlockError
	if !errors.As(sc.err, &deadlock) {
		return fmt.Errorf("expected a deadlock error, got %v", sc.err)
	}
	return nil
}

func (sc *schedulerContext) theScheduleShouldBeEmpty() error {
	if err := sc.scheduled(); err != nil {
		return err
	}
	if len(sc.result.Jobs) != 0 {
		return fmt.Errorf("expected an empty schedule, got %d jobs", len(sc.result.Jobs))
	}
	return nil
}

func InitializeSchedulerScenario(ctx *godog.ScenarioContext) {
	sc := &schedulerContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the plan origin is "([^"]*)"$`, sc.thePlanOriginIs)
	ctx.Step(`^(\d+) builders? using the (\w+) heuristic$`, sc.buildersUsingTheHeuristic)
	ctx.Step(`^an active window from "([^"]*)" to "([^"]*)" in "([^"]*)"$`, sc.anActiveWindow)
	ctx.Step(`^the following jobs:$`, sc.theFollowingJobs)

	// When steps
	ctx.Step(`^I schedule the jobs$`, sc.iScheduleTheJobs)

	// Then steps
	ctx.Step(`^the schedule should be:$`, sc.theScheduleShouldBe)
	ctx.Step(`^the makespan should be (\d+) seconds?$`, sc.theMakespanShouldBe)
	ctx.Step(`^the (first|last) scheduled job should be "([^"]*)"$`, sc.scheduledItemAt)
	ctx.Step(`^scheduling should fail with a deadlock$`, sc.schedulingShouldFailWithADeadlock)
	ctx.Step(`^the schedule should be empty$`, sc.theScheduleShouldBeEmpty)
}
