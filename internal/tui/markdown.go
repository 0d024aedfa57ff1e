package tui

import (
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/glamour"
)

const minPreviewWidth = 20

// renderMarkdown renders md for the terminal with glamour, falling back to
// go-term-markdown when glamour fails.
func renderMarkdown(md string, width int) string {
	if width < minPreviewWidth {
		width = minPreviewWidth
	}
	if strings.TrimSpace(md) == "" {
		return helpStyle.Render("(nothing to preview)")
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return strings.TrimRight(string(markdown.Render(md, width, 0)), "\n")
}
