package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func itoa(n int) string { return strconv.Itoa(n) }

func modalBoxWidth(termW int) int {
	w := termW - 8
	if w > 78 {
		w = 78
	}
	if w < 30 {
		w = 30
	}
	return w
}

// modalBodyWidth is the usable text width inside renderModalBox.
func modalBodyWidth(termW int) int {
	return modalBoxWidth(termW) - 4
}

func renderModalBox(termW int, title, content string) string {
	w := modalBoxWidth(termW)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorModalHeaderBg).
		Padding(0, 2).
		Width(w).
		Render(title)
	body := lipgloss.NewStyle().
		Foreground(colorSurfaceFg).
		Background(colorModalSurfaceBg).
		Padding(1, 2).
		Width(w).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// placeModal centers a rendered box in the terminal.
func placeModal(width, height int, box string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmModalFocus) string {
	// No borders: some terminals show background artifacts when nesting
	// bordered components inside a modal with a background colour.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btnBase.Render(confirmLabel)
	cancel := btnBase.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = btnActive.Render(confirmLabel)
	} else {
		cancel = btnActive.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	help := styleMuted().Width(modalBodyWidth(width)).Render("tab: focus   enter: select   esc: cancel")
	content := strings.Join([]string{body, "", controls, "", help}, "\n")
	return renderModalBox(width, title, content)
}

// renderAlert is the blocking notification for errors and refusals.
func renderAlert(width int, msg string) string {
	bodyW := modalBodyWidth(width)
	text := strings.Join(wrapText(msg, bodyW), "\n")
	badge := lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorErrorBg).Padding(0, 1).Render("!")
	help := styleMuted().Render("enter/esc: dismiss")
	return renderModalBox(width, "Notice", badge+" "+text+"\n\n"+help)
}

// renderPicker renders a vertical single-choice list.
func renderPicker(width int, title string, options []string, cursor int, current string, help string) string {
	var b strings.Builder
	for i, o := range options {
		mark := "  "
		if i == cursor {
			mark = "> "
		}
		line := mark + o
		if o == current {
			line += styleMuted().Render("  (current)")
		}
		if i == cursor {
			line = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(help))
	return renderModalBox(width, title, b.String())
}
