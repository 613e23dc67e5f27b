package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// tableRows returns every data row keyed by the header row
func tableRows(table *godog.Table) []map[string]string {
	if table == nil || len(table.Rows) < 2 {
		return nil
	}
	header := table.Rows[0]
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		rows = append(rows, rowValues(header, row))
	}
	return rows
}

func rowValues(header, row *messages.PickleTableRow) map[string]string {
	values := make(map[string]string, len(header.Cells))
	for i, cell := range header.Cells {
		if i < len(row.Cells) {
			values[cell.Value] = strings.TrimSpace(row.Cells[i].Value)
		}
	}
	return values
}

func intCell(row map[string]string, column string) (int, error) {
	v, ok := row[column]
	if !ok {
		return 0, fmt.Errorf("missing column %q", column)
	}
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", column, err)
	}
	return n, nil
}

func int64Cell(row map[string]string, column string) (int64, error) {
	n, err := intCell(row, column)
	return int64(n), err
}

// rowKey builds a job key from item, iter and level columns
func rowKey(row map[string]string) (upgrade.JobKey, error) {
	level, err := intCell(row, "level")
	if err != nil {
		return "", err
	}
	return upgrade.NewJobKey(row["item"], row["iter"], level), nil
}

// afterKeys parses "Cannon,A,2; Mortar,A,1" into job keys
func afterKeys(value string) ([]upgrade.JobKey, error) {
	var keys []upgrade.JobKey
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("predecessor %q must look like item,iter,level", part)
		}
		level, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("predecessor %q: %w", part, err)
		}
		keys = append(keys, upgrade.NewJobKey(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), level))
	}
	return keys, nil
}
