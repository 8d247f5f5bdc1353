package overlay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

type boxKind int

// Later kinds paint over earlier ones.
const (
	boxNone boxKind = iota
	boxDropZone
	boxActiveZone
	boxInvalidZone
	boxHighlighted
	boxWarning
	boxUpload
	boxInsert
)

type box struct {
	rect  model.Rect
	label string
	kind  boxKind
}

// pageMap scales page rectangles onto a grid of terminal cells.
type pageMap struct {
	width, height int
	boxes         []box
}

func newPageMap(width, height int) *pageMap {
	return &pageMap{width: width, height: height}
}

func (p *pageMap) add(r model.Rect, label string, kind boxKind) {
	if r.Width <= 0 && r.Height <= 0 {
		return
	}
	p.boxes = append(p.boxes, box{rect: r, label: label, kind: kind})
}

// fromState adds the boxes a renderer of s would paint on the page.
func (p *pageMap) fromState(s *machine.State) {
	if dc := s.DragContext; dc != nil {
		for _, dz := range dc.DropZones {
			kind := boxDropZone
			switch {
			case len(dz.Validations) > 0:
				kind = boxInvalidZone
			case dc.DropZone != nil && dc.DropZone.ElementRecordID == dz.ElementRecordID:
				kind = boxActiveZone
			}
			p.add(dz.Rect, "", kind)
		}
		if dc.Prev != nil {
			p.add(*dc.Prev, "", boxInsert)
		}
		if dc.Next != nil {
			p.add(*dc.Next, "", boxInsert)
		}
	}

	for _, id := range sortedKeys(s.Highlighted) {
		hd := s.Highlighted[id]
		kind := boxHighlighted
		if len(hd.Validations) > 0 {
			kind = boxWarning
		}
		p.add(hd.Rect, hd.Label, kind)
	}
	for _, id := range sortedKeys(s.Uploading) {
		up := s.Uploading[id]
		p.add(up.Rect, fmt.Sprintf("%s %d%%", up.Label, up.Progress), boxUpload)
	}
}

// render draws the boxes scaled so the furthest edge fits the grid.
func (p *pageMap) render() string {
	if p.width <= 0 || p.height <= 0 {
		return ""
	}
	cells := make([][]rune, p.height)
	kinds := make([][]boxKind, p.height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(" ", p.width))
		kinds[y] = make([]boxKind, p.width)
	}

	var extentX, extentY float64
	for _, b := range p.boxes {
		extentX = max(extentX, b.rect.Right())
		extentY = max(extentY, b.rect.Bottom())
	}
	if extentX > 0 && extentY > 0 {
		sx := float64(p.width-1) / extentX
		sy := float64(p.height-1) / extentY

		ordered := append([]box(nil), p.boxes...)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].kind < ordered[j].kind })
		for _, b := range ordered {
			x0, y0 := int(b.rect.Left*sx), int(b.rect.Top*sy)
			x1, y1 := int(b.rect.Right()*sx), int(b.rect.Bottom()*sy)
			p.draw(cells, kinds, b, x0, y0, max(x1, x0+1), max(y1, y0+1))
		}
	}

	var sb strings.Builder
	for y := range cells {
		if y > 0 {
			sb.WriteByte('\n')
		}
		writeRow(&sb, cells[y], kinds[y])
	}
	return sb.String()
}

func (p *pageMap) draw(cells [][]rune, kinds [][]boxKind, b box, x0, y0, x1, y1 int) {
	x1 = min(x1, p.width-1)
	y1 = min(y1, p.height-1)

	set := func(x, y int, r rune) {
		if x < 0 || y < 0 || x >= p.width || y >= p.height {
			return
		}
		cells[y][x] = r
		kinds[y][x] = b.kind
	}
	for x := x0 + 1; x < x1; x++ {
		set(x, y0, '─')
		set(x, y1, '─')
	}
	for y := y0 + 1; y < y1; y++ {
		set(x0, y, '│')
		set(x1, y, '│')
	}
	set(x0, y0, '┌')
	set(x1, y0, '┐')
	set(x0, y1, '└')
	set(x1, y1, '┘')

	label := []rune(b.label)
	if room := x1 - x0 - 1; len(label) > room {
		label = label[:max(room, 0)]
	}
	for i, r := range label {
		set(x0+1+i, y0, r)
	}
}

// writeRow renders runs of cells sharing a kind with one style each.
func writeRow(sb *strings.Builder, cells []rune, kinds []boxKind) {
	start := 0
	for i := 1; i <= len(cells); i++ {
		if i < len(cells) && kinds[i] == kinds[start] {
			continue
		}
		run := string(cells[start:i])
		if style, ok := boxStyles[kinds[start]]; ok {
			run = style.Render(run)
		}
		sb.WriteString(run)
		start = i
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
