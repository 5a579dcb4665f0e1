package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/feedsync/internal/syncer"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func printResult(w io.Writer, result *syncer.Result) {
	label := "Done !"
	if result.DryRun {
		label = "Done ! (dry run)"
	}
	fmt.Fprintf(w, "%s %s\n", successStyle.Render(label), dimStyle.Render(result.String()))

	for _, f := range result.SourceFailures {
		fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("feed"), f.Err)
	}
	for _, f := range result.PublishFailures {
		fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("post"), f.Err)
	}
}
