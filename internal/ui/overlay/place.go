package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position anchors a layer inside the screen.
type Position int

const (
	// Center places the layer in the middle of the screen.
	Center Position = iota
	// TopRight places the layer in the top right corner.
	TopRight
	// Bottom places the layer at the bottom, horizontally centered.
	Bottom
)

// Layer is styled content drawn at a cell offset.
type Layer struct {
	X, Y    int
	Content string
}

// Anchor builds a layer for content at pos on a width x height screen,
// keeping pad cells from the edges it touches.
func Anchor(pos Position, width, height, pad int, content string) Layer {
	w := lipgloss.Width(content)
	h := lipgloss.Height(content)

	var x, y int
	switch pos {
	case TopRight:
		x, y = width-w-pad, pad
	case Bottom:
		x, y = (width-w)/2, height-h-pad
	default:
		x, y = (width-w)/2, (height-h)/2
	}
	return Layer{X: max(x, 0), Y: max(y, 0), Content: content}
}

// Compose draws layers over bg in order. Styling on both sides is kept:
// background lines are cut with ANSI-aware truncation around each layer.
func Compose(width, height int, bg string, layers ...Layer) string {
	lines := strings.Split(bg, "\n")
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	for _, l := range layers {
		for i, fg := range strings.Split(l.Content, "\n") {
			row := l.Y + i
			if row >= len(lines) {
				break
			}
			lines[row] = splice(lines[row], fg, l.X)
		}
	}
	return strings.Join(lines, "\n")
}

func splice(line, fg string, x int) string {
	left := ansi.Truncate(line, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}

	var right string
	end := x + ansi.StringWidth(fg)
	if end < ansi.StringWidth(line) {
		right = ansi.TruncateLeft(line, end, "")
	}
	return left + fg + right
}
