package main

import (
	"fmt"
	"strings"
	"time"

	"happytube/internal/bucket"
	"happytube/internal/stage"
)

// parseDate resolves a --date flag value. An empty value means today.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.ParseInLocation(bucket.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return day, nil
}

func resultRow(result stage.Result) []string {
	return []string{
		result.Stage,
		string(result.Status),
		fmt.Sprintf("%d", result.Processed),
		fmt.Sprintf("%d", result.Errored),
		result.Elapsed.Round(time.Millisecond).String(),
		result.Detail,
	}
}

func renderResults(results []stage.Result) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, resultRow(result))
	}
	return renderTable(
		[]string{"Stage", "Status", "Processed", "Errors", "Elapsed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func failedStages(results []stage.Result) []string {
	var failed []string
	for _, result := range results {
		if result.Failed() {
			failed = append(failed, result.Stage)
		}
	}
	return failed
}
