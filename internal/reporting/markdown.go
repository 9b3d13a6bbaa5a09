package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Horizon: %d | Draws: %d..%d\n\n", r.RunID, r.Horizon, r.FirstDrawID, r.LastDrawID))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Draws Tested | %d |\n", r.Tested))
	sb.WriteString(fmt.Sprintf("| Best Score | %d |\n", r.Best))
	sb.WriteString(fmt.Sprintf("| Mean Hits | %.4f |\n", r.Mean))
	sb.WriteString(fmt.Sprintf("| Stddev | %.4f |\n", r.Stats.Stddev))
	sb.WriteString(fmt.Sprintf("| Median / P10 / P90 | %.2f / %.2f / %.2f |\n", r.Stats.Median, r.Stats.P10, r.Stats.P90))
	sb.WriteString(fmt.Sprintf("| Prize Rate (>= %d hits) | %.2f%% |\n", MinPrizeHits, r.Stats.PrizeRate*100))
	sb.WriteString(fmt.Sprintf("| Longest Run Without Prize | %d |\n", r.Stats.LongestNoWin))
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("| Duration | %s |\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))
	}
	sb.WriteString("\n")

	// Histogram
	sb.WriteString("## Hit Histogram\n\n")
	if len(r.Histogram) > 0 {
		sb.WriteString("| Hits | Count | Share |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, h := range r.Histogram {
			sb.WriteString(fmt.Sprintf("| %d | %d | %.2f%% |\n", h.Hits, h.Count, h.Share*100))
		}
	} else {
		sb.WriteString("No iterations evaluated.\n")
	}
	sb.WriteString("\n")

	// Iterations
	sb.WriteString("## Iterations\n\n")
	if len(r.Iterations) > 0 {
		sb.WriteString("| Draw | Hits | Suggested | Actual | Rows | Trained Through |\n")
		sb.WriteString("|------|------|-----------|--------|------|-----------------|\n")
		for _, it := range r.Iterations {
			sb.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %d | %d |\n",
				it.DrawID, it.Hits, joinNumbers(it.Suggested, " "), joinNumbers(it.Actual, " "),
				it.TrainingRows, it.TrainedThrough))
		}
	} else {
		sb.WriteString("No iterations available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func joinNumbers(numbers []int, sep string) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, sep)
}
