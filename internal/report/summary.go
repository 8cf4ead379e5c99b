package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/danielolaszy/triage/pkg/models"
)

// PrintSummary renders the run as a colored terminal table, one row per
// issue, followed by headline counts.
func PrintSummary(w io.Writer, run *models.AnalysisRun) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Issue", "Title", "Category", "Lifecycle", "Confidence", "Cost"})

	var data [][]string
	for _, a := range run.Issues {
		data = append(data, []string{
			"#" + strconv.Itoa(a.IssueNumber),
			truncate(a.Normalized.NormalizedTitle, 48),
			string(a.Triage.Category),
			colorLifecycle(a.Lifecycle.State),
			string(a.Lifecycle.Confidence),
			string(a.MaintainerCost.Level),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	needsInfo, blocked, stale := 0, 0, 0
	for _, a := range run.Issues {
		switch a.Lifecycle.State {
		case models.StateNeedsInfo:
			needsInfo++
		case models.StateBlocked:
			blocked++
		case models.StateStale:
			stale++
		}
	}
	fmt.Fprintf(w, "Analyzed %d issues for %s (needs-info: %d, blocked: %d, stale: %d, links: %d)\n",
		len(run.Issues), run.Repo, needsInfo, blocked, stale, len(run.Dependencies))
	fmt.Fprintf(w, "Governance mode: %s\n", run.GovernanceMode)
	return nil
}

func colorLifecycle(state models.LifecycleState) string {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	switch state {
	case models.StateActionable:
		return green(string(state))
	case models.StateNeedsInfo:
		return yellow(string(state))
	case models.StateBlocked, models.StateStale:
		return red(string(state))
	default:
		return string(state)
	}
}

// truncate shortens to max runes, not bytes, so multibyte titles never
// get cut mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
