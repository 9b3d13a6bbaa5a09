package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the hit histogram as CSV string.
func RenderCSV(histogram []HistogramRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("hits,count,share\n")

	// Rows
	for _, h := range histogram {
		sb.WriteString(fmt.Sprintf("%d,%d,%.6f\n", h.Hits, h.Count, h.Share))
	}

	return sb.String()
}

// RenderIterationsCSV renders per-draw results as CSV string.
// Number lists are space separated.
func RenderIterationsCSV(iterations []IterationRow) string {
	var sb strings.Builder

	sb.WriteString("draw_id,hits,suggested,actual,training_rows,trained_through\n")
	for _, it := range iterations {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%s,%d,%d\n",
			it.DrawID,
			it.Hits,
			joinNumbers(it.Suggested, " "),
			joinNumbers(it.Actual, " "),
			it.TrainingRows,
			it.TrainedThrough,
		))
	}

	return sb.String()
}
