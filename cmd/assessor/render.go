package main

import (
	"fmt"
	"strings"

	"pathways_backend/internal/client"
	"pathways_backend/internal/protocol"

	"charm.land/lipgloss/v2"
)

var (
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorAccent  = lipgloss.Color("#F97316")
	colorDim     = lipgloss.Color("#94A3B8")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	correctStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	wrongStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(colorAccent)
)

var answerLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

func letter(i int) string {
	if i < len(answerLetters) {
		return answerLetters[i]
	}
	return fmt.Sprint(i + 1)
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return correctStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", percent)
}

func renderQuestion(s client.State, idx int, q protocol.QuestionView) string {
	var b strings.Builder

	head := fmt.Sprintf("%d. %s", idx+1, q.Text)
	switch {
	case client.QuestionLocked(s, q.ID):
		head = correctStyle.Render(head)
	case client.QuestionFailed(s, q.ID):
		head = wrongStyle.Render(head)
	default:
		head = titleStyle.Render(head)
	}
	b.WriteString(head)
	if q.Count > 1 {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" (choose %d)", q.Count)))
	}
	b.WriteString("\n")

	for i, a := range q.Answers {
		icon := letter(i)
		line := fmt.Sprintf("   %s) %s", icon, a.Text)
		switch client.AnswerMark(s, q.ID, a.ID) {
		case client.MarkCorrect:
			line = correctStyle.Render(fmt.Sprintf("   ✓) %s", a.Text))
		case client.MarkWrong:
			line = wrongStyle.Render(fmt.Sprintf("   ✗) %s", a.Text))
		case client.MarkDisabled:
			line = dimStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderComplete(s client.State) string {
	var b strings.Builder
	b.WriteString(correctStyle.Render(strings.ToUpper(s.AssessType)+" COMPLETE!") + "\n")
	b.WriteString(fmt.Sprintf("%d Points\n", s.Points))

	mp := s.ModuleProgress
	if mp == nil {
		return b.String()
	}
	b.WriteString(titleStyle.Render(mp.ModuleName) + "  " + dimStyle.Render(mp.ModuleBadge) + "\n")
	b.WriteString(mp.Progress + "\n")
	if mp.ProgBar != 100 {
		b.WriteString(progressBar(mp.ProgBar, 30) + "\n")
	}
	if mp.NextUnitHRef != nil && mp.NextUnitName != nil {
		b.WriteString(fmt.Sprintf("Next Module Unit: %s (%s)\n", *mp.NextUnitName, *mp.NextUnitHRef))
	}
	return b.String()
}

func renderNotices(s client.State) string {
	var lines []string
	if n := client.DataErrorNotice(s); n != "" {
		lines = append(lines, wrongStyle.Render(n))
	}
	if n := client.WrongAnswerNotice(s); n != "" {
		lines = append(lines, noticeStyle.Render(n))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderTada(mp *protocol.ModuleProgress) string {
	name := ""
	if mp != nil {
		name = mp.ModuleName
	}
	return noticeStyle.Render("🎉 Module complete: "+name+" 🎉") + "\n"
}
