package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

func TestPageMap_Empty(t *testing.T) {
	out := newPageMap(5, 2).render()
	require.Equal(t, "     \n     ", out)
}

func TestPageMap_ScalesBoxToGrid(t *testing.T) {
	s := machine.Initial()
	s.Highlighted = map[int]model.HighlightData{
		1: {ID: 1, Label: "hero", Rect: model.Rect{Width: 100, Height: 50}},
	}

	pm := newPageMap(11, 6)
	pm.fromState(s)
	lines := strings.Split(ansi.Strip(pm.render()), "\n")

	require.Len(t, lines, 6)
	require.Equal(t, "┌hero─────┐", lines[0])
	require.Equal(t, "│         │", lines[2])
	require.Equal(t, "└─────────┘", lines[5])
}

func TestPageMap_LabelTruncatedToBox(t *testing.T) {
	pm := newPageMap(6, 3)
	pm.add(model.Rect{Width: 10, Height: 10}, "a very long label", boxHighlighted)

	lines := strings.Split(ansi.Strip(pm.render()), "\n")
	require.Equal(t, "┌a ve┐", lines[0])
}

func TestPageMap_ZoneKinds(t *testing.T) {
	s := machine.Initial()
	active := model.DropZone{ElementRecordID: 2, Rect: model.Rect{Top: 100, Width: 50, Height: 50}}
	s.DragContext = &machine.DragContext{
		DropZones: []model.DropZone{
			{ElementRecordID: 1, Rect: model.Rect{Width: 50, Height: 50}},
			active,
			{
				ElementRecordID: 3,
				Rect:            model.Rect{Top: 200, Width: 50, Height: 50},
				Validations: model.Validations{
					model.ValidationMaxCount: {ID: model.ValidationMaxCount, Level: model.LevelSuggestion, Message: "No more than 1 item allowed"},
				},
			},
		},
		DropZone: &active,
		Next:     &model.Rect{Top: 120, Width: 50, Height: 2},
	}

	pm := newPageMap(40, 20)
	pm.fromState(s)

	kinds := make([]boxKind, 0, len(pm.boxes))
	for _, b := range pm.boxes {
		kinds = append(kinds, b.kind)
	}
	require.Equal(t, []boxKind{boxDropZone, boxActiveZone, boxInvalidZone, boxInsert}, kinds)
}

func TestPageMap_SkipsEmptyRects(t *testing.T) {
	pm := newPageMap(10, 5)
	pm.add(model.Rect{}, "ghost", boxHighlighted)
	require.Empty(t, pm.boxes)
}

func TestPageMap_UploadLabelShowsProgress(t *testing.T) {
	s := machine.Initial()
	s.Uploading = map[int]machine.Upload{
		4: {HighlightData: model.HighlightData{ID: 4, Label: "Image", Rect: model.Rect{Width: 200, Height: 100}}, Progress: 40},
	}

	pm := newPageMap(30, 6)
	pm.fromState(s)

	require.Len(t, pm.boxes, 1)
	require.Equal(t, "Image 40%", pm.boxes[0].label)
	require.Equal(t, boxUpload, pm.boxes[0].kind)
}
