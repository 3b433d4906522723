package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/state"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newSurface(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("dbspctl", styles.Logo)}
	if m.snapshot.Server != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.snapshot.Server, 40), styles.MutedText))
	}

	if m.snapshot.IsOffline() || (m.lastUpdated.IsZero() && m.snapshot.LastError != nil) {
		parts = append(parts,
			bg.Render("SERVER "+classifyConnectionError(m.snapshot.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		)
		if ts := m.formatTimestamp(); ts != "" {
			parts = append(parts, bg.Render(ts, styles.MutedText))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	counts := countStatuses(m.snapshot.Projects)
	parts = append(parts,
		bg.Render("Projects:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Projects)), styles.Text),
	)
	if counts.compiling > 0 {
		parts = append(parts,
			bg.Render("Compiling:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", counts.compiling), styles.StatusStyle("compiling")),
		)
	}
	failedStyle := styles.MutedText
	if counts.failed > 0 {
		failedStyle = styles.DangerText
	}
	parts = append(parts,
		bg.Render("Failed:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", counts.failed), failedStyle)+
			sep+bg.Render("•", styles.FaintText)+sep+
			bg.Render("Pipelines:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", counts.pipelines), styles.SuccessText),
	)

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}
	if m.snapshot.LastError != nil {
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), 60), styles.DangerText),
		)
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

type statusCounts struct {
	compiling int
	failed    int
	pipelines int
}

func countStatuses(views []state.ProjectView) statusCounts {
	var c statusCounts
	for _, v := range views {
		switch v.Status.Kind {
		case dbsp.StatusPending, dbsp.StatusCompiling:
			c.compiling++
		case dbsp.StatusSQLError, dbsp.StatusRustError:
			c.failed++
		}
		if v.StatusErr != nil {
			c.failed++
		}
		c.pipelines += v.PipelineCount()
	}
	return c
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	since := time.Since(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "UNREACHABLE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// truncateMiddle keeps the start and end of s.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}
