package elementregistry

import (
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

// Reader is a read view of the element registry.
type Reader struct {
	r   *Registry
	ice *iceregistry.Reader
}

// Get returns an element record.
func (rd *Reader) Get(id int) (model.ElementRecord, bool) {
	rec, ok := rd.r.records[id]
	return rec, ok
}

// FromNode returns the record registered for exactly node.
func (rd *Reader) FromNode(node model.NodeID) (model.ElementRecord, bool) {
	id, ok := rd.r.byNode[node]
	if !ok {
		return model.ElementRecord{}, false
	}
	return rd.r.records[id], true
}

// Closest returns the record of node or of its nearest registered ancestor.
func (rd *Reader) Closest(node model.NodeID) (model.ElementRecord, bool) {
	for cur := node; cur != 0; {
		if rec, ok := rd.FromNode(cur); ok {
			return rec, true
		}
		parent, ok := rd.r.doc.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return model.ElementRecord{}, false
}

// FromICEID returns the first element record rendering iceID.
func (rd *Reader) FromICEID(iceID int) (model.ElementRecord, bool) {
	recs := rd.GetRecordsFromICEID(iceID)
	if len(recs) == 0 {
		return model.ElementRecord{}, false
	}
	return recs[0], true
}

// GetRecordsFromICEID returns every element record rendering iceID, in
// registration order.
func (rd *Reader) GetRecordsFromICEID(iceID int) []model.ElementRecord {
	var out []model.ElementRecord
	for _, id := range rd.r.sortedIDs() {
		rec := rd.r.records[id]
		for _, ice := range rec.ICEIDs {
			if ice == iceID {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// GetDraggable returns the ICE id that dragging the element moves.
func (rd *Reader) GetDraggable(elementID int) (int, bool) {
	rec, ok := rd.r.records[elementID]
	if !ok {
		return 0, false
	}
	for _, ice := range rec.ICEIDs {
		if rd.ice.IsMovable(ice) {
			return ice, true
		}
	}
	return 0, false
}

// GetHoverData returns the highlight box of an element.
func (rd *Reader) GetHoverData(elementID int) (model.HighlightData, bool) {
	rec, ok := rd.r.records[elementID]
	if !ok {
		return model.HighlightData{}, false
	}
	rect, ok := rd.r.doc.Rect(rec.Element)
	if !ok {
		return model.HighlightData{}, false
	}
	return model.HighlightData{ID: rec.ID, Rect: rect, Label: rd.label(rec), Validations: model.Validations{}}, true
}

func (rd *Reader) label(rec model.ElementRecord) string {
	if rec.Label != "" {
		return rec.Label
	}
	for _, ice := range rec.ICEIDs {
		entries, ok := rd.ice.GetReferentialEntries(ice)
		if !ok {
			continue
		}
		if entries.Field != nil {
			return entries.Field.Name
		}
		if entries.Model.Label != "" {
			return entries.Model.Label
		}
		return entries.ContentType.Name
	}
	return ""
}

// GetSiblingRects returns the rectangles of the nodes rendered right before
// and after the element within its parent.
func (rd *Reader) GetSiblingRects(elementID int) model.SiblingRects {
	rec, ok := rd.r.records[elementID]
	if !ok {
		return model.SiblingRects{}
	}
	return rd.siblingRectsOf(rec.Element)
}

func (rd *Reader) siblingRectsOf(node model.NodeID) model.SiblingRects {
	parent, ok := rd.r.doc.Parent(node)
	if !ok {
		return model.SiblingRects{}
	}
	children := rd.r.doc.Children(parent)
	var out model.SiblingRects
	for i, c := range children {
		if c != node {
			continue
		}
		if i > 0 {
			if rect, ok := rd.r.doc.Rect(children[i-1]); ok {
				out.Prev = &rect
			}
		}
		if i+1 < len(children) {
			if rect, ok := rd.r.doc.Rect(children[i+1]); ok {
				out.Next = &rect
			}
		}
		break
	}
	return out
}

// CompileDropZone builds the drop zone of a collection record from the node
// rendering it.
func (rd *Reader) CompileDropZone(iceID int) (model.DropZone, bool) {
	rec, ok := rd.FromICEID(iceID)
	if !ok {
		return model.DropZone{}, false
	}
	dz := model.DropZone{
		ElementRecordID: rec.ID,
		ICEID:           iceID,
		Element:         rec.Element,
		Validations:     model.Validations{},
	}
	return rd.RefreshDropZone(dz), true
}

// RefreshDropZone recomputes the geometry of a zone from the current layout.
func (rd *Reader) RefreshDropZone(dz model.DropZone) model.DropZone {
	out := dz.Clone()
	if rect, ok := rd.r.doc.Rect(dz.Element); ok {
		out.Rect = rect
	}
	out.Children = rd.r.doc.Children(dz.Element)
	out.ChildrenRects = make([]model.Rect, 0, len(out.Children))
	for _, c := range out.Children {
		rect, _ := rd.r.doc.Rect(c)
		out.ChildrenRects = append(out.ChildrenRects, rect)
	}
	out.Arrangement = arrangementOf(out.ChildrenRects)
	return out
}

func arrangementOf(rects []model.Rect) model.Arrangement {
	if len(rects) > 1 && rects[0].Top == rects[1].Top && rects[0].Left != rects[1].Left {
		return model.ArrangementHorizontal
	}
	return model.ArrangementVertical
}

// GetDragContextFromDropTargets compiles the drop zones of targets and the
// node sets a drag uses for hit-testing. Players are the nodes able to take
// the pointer during the drag: every zone and its children, minus the dragged
// element. The zone holding the dragged element is flagged as origin.
func (rd *Reader) GetDragContextFromDropTargets(targets []model.ICERecord, lookup model.ValidationsLookup, dragged *model.ElementRecord) model.DragTargets {
	var out model.DragTargets
	for _, t := range targets {
		dz, ok := rd.CompileDropZone(t.ID)
		if !ok {
			continue
		}
		if v, ok := lookup[t.ID]; ok {
			dz.Validations = v.Clone()
		}
		dz.Origin = dragged != nil && dz.HasChild(dragged.Element)

		out.DropZones = append(out.DropZones, dz)
		out.Containers = append(out.Containers, dz.Element)
		out.Players = append(out.Players, dz.Element)
		for _, c := range dz.Children {
			out.Siblings = append(out.Siblings, c)
			if dragged != nil && c == dragged.Element {
				continue
			}
			out.Players = append(out.Players, c)
		}
	}
	return out
}

// GetHighlighted returns the highlight boxes of drop zones keyed by element
// record id, each carrying the zone's validations.
func (rd *Reader) GetHighlighted(zones []model.DropZone) map[int]model.HighlightData {
	out := make(map[int]model.HighlightData, len(zones))
	for _, dz := range zones {
		hd, ok := rd.GetHoverData(dz.ElementRecordID)
		if !ok {
			continue
		}
		hd.Validations = dz.Validations.Clone()
		out[dz.ElementRecordID] = hd
	}
	return out
}

// ElementFromPoint returns the element record under a client point.
func (rd *Reader) ElementFromPoint(x, y float64) (model.ElementRecord, model.NodeID, bool) {
	node, ok := rd.r.doc.ElementFromPoint(x, y)
	if !ok {
		return model.ElementRecord{}, 0, false
	}
	rec, ok := rd.Closest(node)
	return rec, node, ok
}

// Contains reports whether node is ancestor or nested in it.
func (rd *Reader) Contains(ancestor, node model.NodeID) bool {
	return rd.r.doc.Contains(ancestor, node)
}
