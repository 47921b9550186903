package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

var (
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

// Summary renders the human-readable run summary: a per-test table,
// failure details with the originating statements, and the terminal
// RED/GREEN line.
func Summary(w io.Writer, rep *RunReport) {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Outcome", "Spec", "Scenario"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, res := range rep.Results {
		table.Append([]string{res.Test, string(res.Outcome), res.SpecFile, res.ScenarioID})
	}
	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(rep.Results)),
		fmt.Sprintf("%d passed", rep.Passed),
		fmt.Sprintf("%d failed", rep.Failed+rep.Errored),
		fmt.Sprintf("%d skipped", rep.Skipped),
	})
	table.Render()
	fmt.Fprintf(w, "\n%s\n", tableBuffer.String())

	for _, res := range rep.Failures() {
		fmt.Fprintf(w, "FAIL %s", res.Test)
		if res.SpecFile != "" {
			fmt.Fprintf(w, " (%s, scenario %s)", res.SpecFile, res.ScenarioID)
		}
		fmt.Fprintln(w)
		for _, stmt := range res.Statements {
			fmt.Fprintf(w, "    %s\n", stmt)
		}
		if out := strings.TrimSpace(res.Output); out != "" {
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintf(w, "    | %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", statusLine(rep.Status))
}

// statusLine renders the colored terminal status.
func statusLine(s Status) string {
	if s == Green {
		return greenStyle.Render("GREEN: all acceptance tests pass")
	}
	return redStyle.Render("RED: at least one acceptance test failed")
}
