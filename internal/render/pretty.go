package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/catalog"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)

	severityColors = map[taxonomy.Severity]lipgloss.Color{
		taxonomy.SeverityCritical: lipgloss.Color("196"),
		taxonomy.SeverityHigh:     lipgloss.Color("208"),
		taxonomy.SeverityMedium:   lipgloss.Color("214"),
		taxonomy.SeverityLow:      lipgloss.Color("114"),
	}
)

func badge(s taxonomy.Severity) string {
	c, ok := severityColors[s]
	if !ok {
		c = lipgloss.Color("245")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(c).Padding(0, 1).Render(string(s))
}

func prettyResult(r analyzer.Result) string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		badge(r.Severity), " ",
		titleStyle.Render(string(r.Category)), " ",
		dimStyle.Render(fmt.Sprintf("%d", r.StatusCode)),
	)

	retry := "no"
	if r.IsRetryable {
		retry = "yes"
		if r.RetryAfter != nil {
			retry = fmt.Sprintf("yes, after %ds", *r.RetryAfter)
		}
	}
	rows := [][2]string{
		{"Message", r.Message},
		{"Retryable", retry},
		{"Description", r.Description},
		{"Action", r.RecommendedAction},
	}
	if r.Endpoint != "" {
		rows = append(rows, [2]string{"Endpoint", r.Endpoint})
	}
	if r.EndpointCode != "" {
		rows = append(rows, [2]string{"Code", r.EndpointCode})
	}
	if r.RequestID != "" {
		rows = append(rows, [2]string{"Request ID", r.RequestID})
	}
	if r.DocumentationURL != "" {
		rows = append(rows, [2]string{"Docs", r.DocumentationURL})
	}

	parts := []string{header, "", prettyRows(rows)}
	if len(r.Solutions) > 0 {
		var b strings.Builder
		for _, s := range r.Solutions {
			b.WriteString("• " + s + "\n")
		}
		parts = append(parts, "", labelStyle.Render("Solutions"), strings.TrimRight(b.String(), "\n"))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func prettyRows(rows [][2]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueStyle.Render(row[1])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func prettyEndpoints(eps []catalog.EndpointInfo) string {
	width := 0
	for _, e := range eps {
		width = max(width, len(e.Key.String()))
	}
	keyStyle := lipgloss.NewStyle().Bold(true).Width(width + 2)
	lines := make([]string, 0, len(eps))
	for _, e := range eps {
		lines = append(lines, keyStyle.Render(e.Key.String())+valueStyle.Render(e.Description)+"  "+dimStyle.Render(joinInts(e.Statuses)))
	}
	return strings.Join(lines, "\n")
}
