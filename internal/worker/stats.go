package worker

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"voxsub/internal/pipeline"
)

// renderStats builds a summary table for a finished run.
func renderStats(cues []pipeline.Cue, elapsed time.Duration) string {
	totalDur := 0.0
	maxChars := 0
	for _, c := range cues {
		totalDur += c.Duration()
		if n := utf8.RuneCountInString(c.Text); n > maxChars {
			maxChars = n
		}
	}
	meanDur := 0.0
	span := 0.0
	if len(cues) > 0 {
		meanDur = totalDur / float64(len(cues))
		span = cues[len(cues)-1].End - cues[0].Start
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Cues", fmt.Sprintf("%d", len(cues))},
		{"Output span", fmt.Sprintf("%.1f s", span)},
		{"Mean cue duration", fmt.Sprintf("%.2f s", meanDur)},
		{"Longest cue text", fmt.Sprintf("%d chars", maxChars)},
		{"Transcription time", elapsed.Round(100 * time.Millisecond).String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
