package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and, when
// height > 0, exactly height lines. Over-wide lines are cut with an ellipsis.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitWidth(ln, width)
	}
	return strings.Join(lines, "\n")
}

func fitWidth(ln string, width int) string {
	w := xansi.StringWidth(ln)
	if w > width {
		switch {
		case width <= 0:
			return ""
		case width == 1:
			ln = xansi.Cut(ln, 0, 1)
		default:
			ln = xansi.Cut(ln, 0, width-1) + "…"
		}
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// truncateText cuts plain text to width with an ellipsis.
func truncateText(s string, width int) string {
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return xansi.Cut(s, 0, width)
	}
	return xansi.Cut(s, 0, width-1) + "…"
}

// wrapText word-wraps plain text to width. Words wider than width are hard-cut.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for xansi.StringWidth(w) > width {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				out = append(out, xansi.Cut(w, 0, width))
				w = xansi.Cut(w, width, xansi.StringWidth(w))
			}
			switch {
			case cur == "":
				cur = w
			case xansi.StringWidth(cur)+1+xansi.StringWidth(w) <= width:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return out
}

// excerpt returns at most n wrapped lines of s, marking a cut with "…".
func excerpt(s string, width, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" || n <= 0 {
		return nil
	}
	lines := wrapText(s, width)
	if len(lines) <= n {
		return lines
	}
	lines = lines[:n]
	lines[n-1] = truncateText(lines[n-1]+" …", width)
	return lines
}
