package summary

import (
	"github.com/charmbracelet/glamour"
)

// Terminal renders a Markdown report for display in a terminal, wrapping at width columns.
func Terminal(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
