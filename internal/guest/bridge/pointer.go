package bridge

import (
	"context"
	"slices"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/world"
)

// PointerSample is a raw pointer position in client coordinates.
type PointerSample struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// pointerTracker remembers what the previous sample was over. Only the
// dispatch goroutine touches it.
type pointerTracker struct {
	zone int // element record of the drop zone under the pointer
	over int // element record of the player under the pointer
}

// translate turns a pointer sample into the drag events a browser would fire
// against the current drag: dropzoneLeave/dropzoneEnter when the innermost
// zone under the pointer changes, then computedDragOver for the player under
// it or dragleave when the pointer left every player.
func (b *Bridge) translate(ctx context.Context, p PointerSample) []machine.Event {
	dc := b.state.Load().DragContext
	if dc == nil {
		b.pointer = pointerTracker{}
		return nil
	}

	w, release := world.Open(ctx, b.ice, b.els, nil)
	defer release()

	var (
		zone     int
		player   model.ElementRecord
		onPlayer bool
		under    int
	)
	if rec, node, ok := w.ElementFromPoint(p.X, p.Y); ok {
		under = rec.ID
		zone = innermostZone(w, dc.DropZones, node)
		player, onPlayer = innermostPlayer(w, dc.Players, node)
	}

	var out []machine.Event
	if zone != b.pointer.zone {
		if b.pointer.zone != 0 {
			out = append(out, machine.DropzoneLeave{ElementRecordID: b.pointer.zone})
		}
		if zone != 0 {
			out = append(out, machine.DropzoneEnter{ElementRecordID: zone})
		}
		b.pointer.zone = zone
	}

	switch {
	case onPlayer:
		out = append(out, machine.ComputedDragOver{Record: player.ID, ClientX: p.X, ClientY: p.Y})
		b.pointer.over = player.ID
	case b.pointer.over != 0:
		out = append(out, machine.DragLeave{Record: under})
		b.pointer.over = 0
	}
	return out
}

func innermostZone(w *world.Snapshot, zones []model.DropZone, node model.NodeID) int {
	best := -1
	for i, dz := range zones {
		if !w.Contains(dz.Element, node) {
			continue
		}
		if best < 0 || w.Contains(zones[best].Element, dz.Element) {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return zones[best].ElementRecordID
}

func innermostPlayer(w *world.Snapshot, players []model.NodeID, node model.NodeID) (model.ElementRecord, bool) {
	candidates := slices.DeleteFunc(slices.Clone(players), func(p model.NodeID) bool {
		return !w.Contains(p, node)
	})
	if len(candidates) == 0 {
		return model.ElementRecord{}, false
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if w.Contains(best, p) {
			best = p
		}
	}
	return w.FromNode(best)
}
