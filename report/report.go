package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nkoval/mailbrief/processor"
)

var (
	headerKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	subjectStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	summaryStyle   = lipgloss.NewStyle()
	dividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "238"})

	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	}
)

const dividerWidth = 50

// Render writes the per-message report in a fixed layout, one block per
// result separated by a divider line. An empty batch prints a notice
// instead.
func Render(w io.Writer, results []processor.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No unread messages in the requested window.")
		return
	}
	for _, r := range results {
		renderResult(w, r)
	}
}

func renderResult(w io.Writer, r processor.Result) {
	fmt.Fprintf(w, "\n%s %s\n", headerKeyStyle.Render("Subject:"), subjectStyle.Render(r.Subject))
	fmt.Fprintf(w, "%s %s\n", headerKeyStyle.Render("From:"), r.Sender)
	fmt.Fprintf(w, "%s %s\n", headerKeyStyle.Render("Date:"), r.Date)
	fmt.Fprintf(w, "%s %s\n", headerKeyStyle.Render("Category:"), r.Category)
	fmt.Fprintf(w, "%s %s\n", headerKeyStyle.Render("Priority:"), stylePriority(r.Priority))
	fmt.Fprintf(w, "\n%s %s\n", headerKeyStyle.Render("Summary:"), summaryStyle.Render(r.Summary))
	if len(r.ActionItems) > 0 {
		fmt.Fprintf(w, "\n%s\n", headerKeyStyle.Render("Action Items:"))
		for _, item := range r.ActionItems {
			fmt.Fprintf(w, "- %s\n", item)
		}
	}
	fmt.Fprintln(w, dividerStyle.Render(strings.Repeat("-", dividerWidth)))
}

func stylePriority(priority string) string {
	if style, ok := priorityStyles[strings.ToLower(priority)]; ok {
		return style.Render(priority)
	}
	return priority
}
