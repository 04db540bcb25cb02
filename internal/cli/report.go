package cli

import (
	"fmt"
	"strings"

	"github.com/mkedata/crosswalk/internal/engine"
	"github.com/mkedata/crosswalk/internal/model"
)

// RenderLinkSummary renders the outcome of an identity-resolution run.
func RenderLinkSummary(entries []model.MappingEntry) string {
	linked, demoOnly, cjOnly := 0, 0, 0
	for _, e := range entries {
		switch {
		case e.Linked:
			linked++
		case e.InDemoOnly:
			demoOnly++
		case e.InCJOnly:
			cjOnly++
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-28s %d\n", "Linked identities (L):", linked))
	b.WriteString(fmt.Sprintf("%-28s %d\n", "Student-only identities (D):", demoOnly))
	b.WriteString(fmt.Sprintf("%-28s %d\n", "Justice-only identities (C):", cjOnly))
	b.WriteString(fmt.Sprintf("%-28s %d", "Total:", len(entries)))
	return RenderBox("Identity Resolution", b.String())
}

// RenderReport renders a materialization report.
func RenderReport(report *engine.Report) string {
	var lines []string
	for _, name := range report.Persisted {
		lines = append(lines, FormatSuccess(name))
	}
	for _, name := range report.Skipped {
		lines = append(lines, SubtleStyle.Render(SuccessIcon+" "+name+" (already materialized)"))
	}
	for _, r := range report.Rejected {
		lines = append(lines, FormatError(r.Feature+": "+r.Reason))
	}
	if len(lines) == 0 {
		lines = append(lines, SubtleStyle.Render("nothing to do"))
	}

	summary := fmt.Sprintf("%d persisted, %d skipped, %d rejected",
		len(report.Persisted), len(report.Skipped), len(report.Rejected))
	lines = append(lines, "", SubtleStyle.Render(summary))

	return RenderBox("Features: "+report.Table, strings.Join(lines, "\n"))
}

// RenderDictionary renders the feature dictionary as a table.
func RenderDictionary(entries []model.FeatureMeta) string {
	if len(entries) == 0 {
		return FormatInfo("Feature dictionary is empty.")
	}

	header := TableHeaderStyle.Render(fmt.Sprintf("%-36s %-12s %s", "Column", "Type", "Description"))
	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, header)
	for _, e := range entries {
		rows = append(rows, TableCellStyle.Render(
			fmt.Sprintf("%-36s %-12s %s", e.Column, e.Type, e.Description)))
	}
	return strings.Join(rows, "\n")
}
