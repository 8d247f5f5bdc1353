package machine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/iceguest/internal/guest/guesttest"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

var fieldSelections = []model.ICEProps{
	{ModelID: "page-1", FieldID: "title_t"},
	{ModelID: "page-1", FieldID: "sections_o", Index: "0"},
	{ModelID: "page-1", FieldID: "links_o", Index: "1"},
	{ModelID: "feat-1", FieldID: "title_s"},
	{ModelID: "feat-3"},
}

var elementNames = []string{
	"title", "hero", "sections", "feat-1", "feat-1-title", "feat-1-image", "feat-2",
	"gallery", "feat-3", "links", "link-0", "link-0-label", "link-1",
}

// eventGen draws events against the sample page.
func eventGen(f *fixture) *rapid.Generator[machine.Event] {
	return rapid.Custom(func(t *rapid.T) machine.Event {
		el := f.element(rapid.SampledFrom(elementNames).Draw(t, "element"))
		switch rapid.IntRange(0, 24).Draw(t, "kind") {
		case 0:
			return machine.MouseOver{Record: el}
		case 1:
			return machine.MouseLeave{}
		case 2:
			return machine.DragStart{Record: el}
		case 3:
			return machine.ComputedDragOver{
				Record:  el,
				ClientX: rapid.Float64Range(0, 1024).Draw(t, "x"),
				ClientY: rapid.Float64Range(0, 1200).Draw(t, "y"),
			}
		case 4:
			return machine.DragLeave{Record: el}
		case 5:
			return machine.DropzoneEnter{ElementRecordID: el}
		case 6:
			return machine.DropzoneLeave{ElementRecordID: el}
		case 7:
			return machine.ComputedDragEnd{}
		case 8:
			return machine.Scrolling{}
		case 9:
			return machine.ScrollingStopped{}
		case 10:
			return machine.ComponentDragStarted{ContentType: model.ContentType{
				ID: rapid.SampledFrom([]string{guesttest.FeatureType, guesttest.HeroType}).Draw(t, "contentType"),
			}}
		case 11:
			return machine.AssetDragStarted{Asset: model.Asset{
				MimeType: rapid.SampledFrom([]string{"image/png", "video/mp4", "text/plain"}).Draw(t, "mime"),
			}}
		case 12:
			return machine.DblClick{Record: el}
		case 13:
			return machine.SetEditingStatus{Status: rapid.SampledFrom([]machine.Status{
				machine.StatusListening, machine.StatusEditingComponent, machine.StatusSortingComponent,
			}).Draw(t, "status")}
		case 14:
			return machine.HighlightModeChanged{HighlightMode: rapid.SampledFrom([]machine.HighlightMode{
				machine.HighlightAll, machine.HighlightMoveTargets,
			}).Draw(t, "mode")}
		case 15:
			return machine.ContentTypeDropTargetsRequest{ContentTypeID: guesttest.FeatureType}
		case 16:
			return machine.ClearHighlightedDropTargets{}
		case 17:
			return machine.ContentTreeFieldSelected{ICEProps: rapid.SampledFrom(fieldSelections).Draw(t, "field")}
		case 18:
			return machine.ContentTreeSwitchFieldInstance{Direction: rapid.SampledFrom([]string{"next", "prev"}).Draw(t, "direction")}
		case 19:
			return machine.ClearContentTreeFieldSelected{}
		case 20:
			return machine.ICEZoneSelected{Record: el}
		case 21:
			return machine.EditComponentInline{}
		case 22:
			return machine.ExitComponentInlineEdit{}
		case 23:
			return machine.StartListening{}
		default:
			return machine.SetDropPosition{TargetIndex: rapid.IntRange(0, 3).Draw(t, "index")}
		}
	})
}

func TestReduce_DragContextMatchesStatus(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		gen := eventGen(f)
		s := f.checkedIn()
		for _, ev := range rapid.SliceOfN(gen, 1, 40).Draw(rt, "events") {
			s = f.apply(s, ev)
			requireDragInvariant(rt, s)
		}
		requireReset(rt, f.apply(s, machine.ComputedDragEnd{}))
	})
}

func TestReduce_ReturningToListeningClearsInteraction(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		gen := eventGen(f)
		s := f.checkedIn()
		for _, ev := range rapid.SliceOfN(gen, 1, 40).Draw(rt, "events") {
			prev := s
			s = f.apply(s, ev)
			if prev.Status != machine.StatusListening && s.Status == machine.StatusListening {
				requireReset(rt, s)
				require.Empty(rt, s.Editable, "%T left editable records", ev)
				require.Nil(rt, s.FieldSwitcher, "%T left a field switcher", ev)
			}
		}
		requireReset(rt, f.apply(s, machine.StartListening{}))
	})
}

func TestReduce_NeverMutatesPreviousState(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		gen := eventGen(f)
		s := f.checkedIn()
		for _, ev := range rapid.SliceOfN(gen, 1, 30).Draw(rt, "events") {
			before, err := json.Marshal(s)
			require.NoError(rt, err)
			f.apply(s, ev)
			after, err := json.Marshal(s)
			require.NoError(rt, err)
			require.JSONEq(rt, string(before), string(after), "%T mutated its input", ev)
			s = f.apply(s, ev)
		}
	})
}

func TestReduce_InvalidDropFollowsMaxCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		extra := rapid.IntRange(0, 2).Draw(rt, "extraGalleryItems")
		for i := 0; i < extra; i++ {
			f.appendChild("gallery", model.Rect{Left: 512, Top: 820, Width: 512, Height: 200})
		}
		start := rapid.SampledFrom([]machine.Event{
			machine.DragStart{Record: f.element("feat-1")},
			machine.DragStart{Record: f.element("feat-3")},
			machine.ComponentDragStarted{ContentType: model.ContentType{ID: guesttest.FeatureType}},
		}).Draw(rt, "start")
		zone := rapid.SampledFrom([]string{"sections", "gallery"}).Draw(rt, "zone")

		s := f.apply(f.checkedIn(), start, machine.DropzoneEnter{ElementRecordID: f.element(zone)})
		require.NotNil(rt, s.DragContext)
		require.NotNil(rt, s.DragContext.DropZone)
		_, failed := s.DragContext.DropZone.Validations[model.ValidationMaxCount]
		require.Equal(rt, failed, s.DragContext.InvalidDrop)
	})
}

func TestReduce_LockedContentCannotBeDragged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		name := rapid.SampledFrom([]string{"feat-1", "feat-2", "feat-3", "link-0", "link-1"}).Draw(rt, "element")
		external := rapid.Bool().Draw(rt, "external")

		var lock machine.Event = machine.LockContentEvent{Locked: true, User: model.User{Username: "bob"}, TargetPath: guesttest.PagePath}
		if external {
			lock = machine.ContentEvent{User: model.User{Username: "bob"}, TargetPath: guesttest.PagePath}
		}
		s := f.apply(f.checkedIn(), lock)
		require.Same(rt, s, f.apply(s, machine.DragStart{Record: f.element(name)}))
	})
}

func TestReduce_ClearHighlightedDropTargetsIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		gen := eventGen(f)
		s := f.checkedIn()
		for _, ev := range rapid.SliceOfN(gen, 0, 20).Draw(rt, "events") {
			s = f.apply(s, ev)
		}
		once := f.apply(s, machine.ClearHighlightedDropTargets{})
		require.Same(rt, once, f.apply(once, machine.ClearHighlightedDropTargets{}))
	})
}
