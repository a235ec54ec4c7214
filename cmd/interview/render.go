package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/persona-interview/backend/internal/model/chat"
	model "github.com/zhouzirui/persona-interview/backend/internal/model/interview"
)

var (
	interviewerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	userStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func renderEntry(entry chat.Entry) string {
	if entry.Role == chat.RoleUser {
		return userStyle.Render("You") + ": " + entry.Content
	}
	return interviewerStyle.Render("Interviewer") + ": " + entry.Content
}

// renderMarkdown 使用 Glamour 渲染总结，失败时原样返回
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func renderProgress(sections []model.SectionProgress) string {
	if len(sections) == 0 {
		return mutedStyle.Render("no sections")
	}
	lines := make([]string, 0, len(sections))
	for i, section := range sections {
		mark := mutedStyle.Render("…")
		if section.Completed {
			mark = successStyle.Render("✓")
		}
		lines = append(lines, fmt.Sprintf("%s %d. %-20s %s", mark, i+1, section.Title, formatClock(section.Elapsed)))
	}
	return strings.Join(lines, "\n")
}

// formatClock renders a duration as mm:ss.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func renderError(err error) string {
	return errorStyle.Render("error: " + err.Error())
}
