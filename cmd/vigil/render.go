package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/zoobzio/vigil"
	"github.com/zoobzio/vigil/books"
)

// Icons.
const (
	iconOK   = "✓"
	iconFail = "✗"
	iconDiff = "~"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5CF6")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22A06B"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D93025"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#667085"))
)

// renderStatus formats one progress notification as a status line.
func renderStatus(at time.Time, p vigil.Progress) string {
	stamp := dimStyle.Render("[" + at.Format("15:04:05") + "]")
	took := dimStyle.Render("(" + p.Duration.Round(time.Microsecond).String() + ")")
	switch p.Outcome {
	case vigil.OutcomeSucceeded:
		return fmt.Sprintf("%s %s data loaded successfully %s", stamp, okStyle.Render(iconOK), took)
	case vigil.OutcomeParseFailed:
		return fmt.Sprintf("%s %s loading data failed: %v %s", stamp, failStyle.Render(iconFail), p.Err, took)
	default:
		return fmt.Sprintf("%s %s validating data failed: %v %s", stamp, failStyle.Render(iconFail), p.Err, took)
	}
}

// renderChangeHint is printed when a change is waiting to be promoted.
func renderChangeHint() string {
	return warnStyle.Render(iconDiff + " changes detected; restart with --auto-promote to accept them automatically")
}

// renderLibrary formats a library as a header and one line per article.
func renderLibrary(lib *books.Library, now time.Time) string {
	if lib == nil {
		return dimStyle.Render("(no data)") + "\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("Library %s", lib.Version)
	b.WriteString(titleStyle.Render(header))
	if ts, err := time.ParseInLocation(books.TimestampLayout, lib.Timestamp, now.Location()); err == nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  updated %s (%s)", lib.Timestamp, humanize.RelTime(ts, now, "ago", "from now"))))
	}
	b.WriteString("\n")

	if len(lib.Articles) == 0 {
		b.WriteString(dimStyle.Render("  no articles") + "\n")
		return b.String()
	}
	for i, a := range lib.Articles {
		if a == nil {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, dimStyle.Render("(empty)"))
			continue
		}
		pages := "?"
		if a.Pages != nil {
			pages = humanize.Comma(int64(*a.Pages))
		}
		fmt.Fprintf(&b, "  %d. %s by %s, %s pages, %s %s\n",
			i+1, a.Title, a.Author, pages, a.Language, dimStyle.Render("ISBN "+a.ISBN13))
	}
	return b.String()
}
