package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

const timeLayout = "Mon 02 Jan 15:04"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	bestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func secondsDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, warningStyle.Render("warning: "+msg))
	}
}

func jobRows(jobs []*planning.ScheduledJobDTO, withBuilder bool) [][]string {
	rows := make([][]string, 0, len(jobs))
	for i, j := range jobs {
		row := []string{
			strconv.Itoa(i + 1),
			j.ItemID,
			j.InstanceIter,
			strconv.Itoa(j.TargetLevel),
		}
		if withBuilder {
			row = append(row, strconv.Itoa(j.Worker+1))
		}
		row = append(row,
			j.StartAt.Format(timeLayout),
			j.EndAt.Format(timeLayout),
			utils.FormatHuman(j.DurationSeconds),
			strconv.Itoa(j.Priority),
		)
		rows = append(rows, row)
	}
	return rows
}

// renderPlan prints a generated plan as a start-ordered table, or grouped per builder
func renderPlan(w io.Writer, resp *commands.GeneratePlanResponse, byBuilder bool) {
	if resp.Outcome == planning.OutcomeNothingToSchedule {
		fmt.Fprintln(w, titleStyle.Render("Nothing to schedule"))
		fmt.Fprintln(w, labelStyle.Render(resp.Reason))
		renderWarnings(w, resp.Warnings)
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Upgrade plan %s (%s)", resp.RunID, resp.Heuristic)))
	fmt.Fprintf(w, "%s %d   %s %d   %s %d\n",
		labelStyle.Render("hall"), resp.HallLevel,
		labelStyle.Render("builders"), resp.Workers,
		labelStyle.Render("jobs"), len(resp.Jobs))
	fmt.Fprintf(w, "%s %s   %s %s (%s)\n",
		labelStyle.Render("start"), resp.Origin.Format(timeLayout),
		labelStyle.Render("done"), resp.Origin.Add(secondsDuration(resp.MakespanSeconds)).Format(timeLayout),
		resp.Makespan)
	renderWarnings(w, resp.Warnings)
	fmt.Fprintln(w)

	if byBuilder {
		renderByBuilder(w, resp.Jobs, resp.Workers)
	} else {
		t := newTable("#", "ITEM", "INST", "LEVEL", "BUILDER", "START", "END", "DURATION", "PRIORITY").
			Rows(jobRows(resp.Jobs, true)...)
		fmt.Fprintln(w, t.Render())
	}
	if resp.Saved {
		fmt.Fprintln(w, labelStyle.Render("saved as "+resp.RunID))
	}
}

// renderByBuilder prints one table per builder with its busy time
func renderByBuilder(w io.Writer, jobs []*planning.ScheduledJobDTO, workers int) {
	byWorker := make(map[int][]*planning.ScheduledJobDTO)
	for _, j := range jobs {
		byWorker[j.Worker] = append(byWorker[j.Worker], j)
	}
	for worker := 0; worker < workers; worker++ {
		assigned := byWorker[worker]
		sort.SliceStable(assigned, func(a, b int) bool { return assigned[a].StartSeconds < assigned[b].StartSeconds })

		var busy int64
		for _, j := range assigned {
			busy += j.DurationSeconds
		}
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Builder %d", worker+1))+" "+
			labelStyle.Render(fmt.Sprintf("%d jobs, busy %s", len(assigned), utils.FormatHuman(busy))))
		if len(assigned) == 0 {
			fmt.Fprintln(w, labelStyle.Render("  idle"))
			continue
		}
		t := newTable("#", "ITEM", "INST", "LEVEL", "START", "END", "DURATION", "PRIORITY").
			Rows(jobRows(assigned, false)...)
		fmt.Fprintln(w, t.Render())
	}
}

// renderComparison prints each heuristic's makespan and marks the shortest
func renderComparison(w io.Writer, resp *commands.CompareHeuristicsResponse) {
	if resp.Outcome == planning.OutcomeNothingToSchedule {
		fmt.Fprintln(w, titleStyle.Render("Nothing to schedule"))
		fmt.Fprintln(w, labelStyle.Render(resp.Reason))
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Heuristic comparison (%d builders)", resp.Workers)))
	renderWarnings(w, resp.Warnings)

	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		name := r.Heuristic
		if r.Heuristic == resp.Best {
			name = bestStyle.Render(name + " *")
		}
		rows = append(rows, []string{
			name,
			r.Makespan,
			utils.FormatHuman(r.MakespanSeconds),
			resp.Origin.Add(secondsDuration(r.MakespanSeconds)).Format(timeLayout),
			strconv.Itoa(len(r.Jobs)),
		})
	}
	fmt.Fprintln(w, newTable("HEURISTIC", "MAKESPAN", "EXACT", "DONE", "JOBS").Rows(rows...).Render())
}

// renderRuns prints a plan-history listing
func renderRuns(w io.Writer, runs []*planning.PlanRunSummaryDTO) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored plans found")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.PlayerTag,
			r.Village,
			r.Heuristic,
			strconv.Itoa(r.Workers),
			strconv.Itoa(r.Jobs),
			r.Makespan,
			r.Label,
		})
	}
	fmt.Fprintln(w, newTable("ID", "CREATED", "PLAYER", "VILLAGE", "HEURISTIC", "BUILDERS", "JOBS", "MAKESPAN", "LABEL").
		Rows(rows...).Render())
}

// renderRun prints a stored plan
func renderRun(w io.Writer, run *planning.PlanRunDTO, byBuilder bool) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Stored plan %s (%s)", run.ID, run.Heuristic)))
	details := []string{
		fmt.Sprintf("%s %d", labelStyle.Render("hall"), run.HallLevel),
		fmt.Sprintf("%s %d", labelStyle.Render("builders"), run.Workers),
		fmt.Sprintf("%s %s", labelStyle.Render("makespan"), run.Makespan),
	}
	if run.BoostFraction > 0 {
		details = append(details, fmt.Sprintf("%s %s%%", labelStyle.Render("boost"),
			strconv.FormatFloat(run.BoostFraction*100, 'f', -1, 64)))
	}
	if run.ActiveWindow != "" {
		details = append(details, fmt.Sprintf("%s %s", labelStyle.Render("window"), run.ActiveWindow))
	}
	fmt.Fprintln(w, strings.Join(details, "   "))
	renderWarnings(w, run.Warnings)
	fmt.Fprintln(w)

	if byBuilder {
		renderByBuilder(w, run.Entries, run.Workers)
		return
	}
	fmt.Fprintln(w, newTable("#", "ITEM", "INST", "LEVEL", "BUILDER", "START", "END", "DURATION", "PRIORITY").
		Rows(jobRows(run.Entries, true)...).Render())
}
