package machine

import (
	"maps"
	"slices"

	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/validation"
)

// Attachment scopes a dragged component may use when dropped.
var (
	newComponentScopes      = []string{model.ScopeEmbedded, model.ScopeShared}
	existingComponentScopes = []string{model.ScopeExisting, model.ScopeShared}
)

func dragStart(s *State, e DragStart, w World) *State {
	if s.Status != StatusListening {
		return s
	}
	rec, ok := w.Get(e.Record)
	if !ok {
		return s
	}
	iceID, ok := s.Draggable[rec.ID]
	if !ok {
		if iceID, ok = w.GetDraggable(rec.ID); !ok {
			return s
		}
	}
	for _, path := range w.AncestorPaths(iceID) {
		if s.IsLocked(path) || s.IsExternallyModified(path) {
			return s
		}
	}

	dragged := rec
	if el, ok := w.FromICEID(iceID); ok {
		dragged = el
	}

	targets := w.GetRecordDropTargets(iceID)
	lookup := w.RunDropTargetsValidations(targets)
	dt := w.GetDragContextFromDropTargets(targets, lookup, &dragged)

	// The origin already counts the dragged item.
	for i, dz := range dt.DropZones {
		if !dz.Origin {
			continue
		}
		occ := validation.EnterOccupancy(len(dz.Children), true)
		dt.DropZones[i].Validations = validation.Merge(dz.Validations, model.ValidationMaxCount,
			w.RunValidation(dz.ICEID, model.ValidationMaxCount, occ))
	}

	return startDrag(s, StatusSortingComponent, dt, &DragContext{Dragged: &dragged}, w)
}

// startDrag enters a drag-class status with the zones of dt.
func startDrag(s *State, status Status, dt model.DragTargets, dc *DragContext, w World) *State {
	dc.Players = dt.Players
	dc.Siblings = dt.Siblings
	dc.Containers = dt.Containers
	dc.DropZones = dt.DropZones
	if dc.DropZones == nil {
		dc.DropZones = []model.DropZone{}
	}

	out := s.clone()
	out.Status = status
	out.DragContext = dc
	out.Highlighted = w.GetHighlighted(dc.DropZones)
	out.Draggable = map[int]int{}
	out.Editable = map[int]model.HighlightData{}
	out.FieldSwitcher = nil
	return out
}

func dragLeave(s *State, e DragLeave, w World) *State {
	dc := s.DragContext
	if dc == nil || (dc.Over == nil && !dc.InZone && dc.TargetIndex == nil) {
		return s
	}
	next := dc.clone()
	next.Over = nil
	next.InZone = false
	next.TargetIndex = nil
	next.Next, next.Prev = nil, nil

	leaving := true
	if dc.DropZone != nil {
		if rec, ok := w.Get(e.Record); ok && w.Contains(dc.DropZone.Element, rec.Element) {
			leaving = false
		}
	}
	if leaving {
		next.DropZone = nil
	}

	out := s.clone()
	out.DragContext = next
	return out
}

func computedDragOver(s *State, e ComputedDragOver, w World) *State {
	dc := s.DragContext
	if dc == nil || dc.Scrolling {
		return s
	}
	rec, ok := w.Get(e.Record)
	if !ok || !slices.Contains(dc.Players, rec.Element) {
		return s
	}

	next := dc.clone()
	over := rec
	next.Over = &over
	next.InZone = true
	next.Coordinates = &model.Coordinates{X: e.ClientX, Y: e.ClientY}
	next.Next, next.Prev = nil, nil
	next.DropZone = nil
	next.TargetIndex = nil

	for i, dz := range next.DropZones {
		if dz.Element != rec.Element && !dz.HasChild(rec.Element) {
			continue
		}
		zone := next.DropZones[i].Clone()
		next.DropZone = &zone
		idx := insertionIndex(zone, rec.Element, e.ClientX, e.ClientY)
		next.TargetIndex = &idx
		break
	}

	if slices.Contains(dc.Siblings, rec.Element) {
		rects := w.GetSiblingRects(rec.ID)
		next.Next, next.Prev = rects.Next, rects.Prev
	}

	out := s.clone()
	out.DragContext = next
	return out
}

// insertionIndex is the position among the zone's children the item would
// take if dropped at (x, y) over node. Hovering the container appends.
func insertionIndex(zone model.DropZone, node model.NodeID, x, y float64) int {
	for i, c := range zone.Children {
		if c != node {
			continue
		}
		r := zone.ChildrenRects[i]
		after := y > r.Top+r.Height/2
		if zone.Arrangement == model.ArrangementHorizontal {
			after = x > r.Left+r.Width/2
		}
		if after {
			return i + 1
		}
		return i
	}
	return len(zone.Children)
}

func setDropPosition(s *State, e SetDropPosition) *State {
	dc := s.DragContext
	if dc == nil || e.TargetIndex < 0 {
		return s
	}
	if dc.TargetIndex != nil && *dc.TargetIndex == e.TargetIndex {
		return s
	}
	next := dc.clone()
	idx := e.TargetIndex
	next.TargetIndex = &idx
	out := s.clone()
	out.DragContext = next
	return out
}

func scrolling(s *State) *State {
	if s.DragContext == nil || s.DragContext.Scrolling {
		return s
	}
	next := s.DragContext.clone()
	next.Scrolling = true
	out := s.clone()
	out.DragContext = next
	return out
}

// scrollingStopped refreshes all zone geometry in one pass.
func scrollingStopped(s *State, w World) *State {
	if s.DragContext == nil {
		return s
	}
	next := s.DragContext.clone()
	next.Scrolling = false
	for i, dz := range next.DropZones {
		next.DropZones[i] = w.RefreshDropZone(dz)
	}
	if next.DropZone != nil {
		for _, dz := range next.DropZones {
			if dz.ElementRecordID == next.DropZone.ElementRecordID {
				zone := dz.Clone()
				next.DropZone = &zone
			}
		}
	}
	if next.Over != nil && slices.Contains(next.Siblings, next.Over.Element) {
		rects := w.GetSiblingRects(next.Over.ID)
		next.Next, next.Prev = rects.Next, rects.Prev
	}
	out := s.clone()
	out.DragContext = next
	out.Highlighted = w.GetHighlighted(next.DropZones)
	return out
}

func dropzoneEnter(s *State, e DropzoneEnter, w World) *State {
	dc := s.DragContext
	if dc == nil {
		return s
	}
	i, ok := dc.zoneByElementRecord(e.ElementRecordID)
	if !ok {
		return s
	}
	zone := dc.DropZones[i]
	occ := validation.EnterOccupancy(len(zone.Children), s.Status == StatusSortingComponent && zone.Origin)
	result := w.RunValidation(zone.ICEID, model.ValidationMaxCount, occ)

	next := dc.clone()
	next.DropZones[i].Validations = validation.Merge(zone.Validations, model.ValidationMaxCount, result)
	active := next.DropZones[i].Clone()
	next.DropZone = &active
	next.InvalidDrop = result != nil
	return withZoneValidations(s, next, e.ElementRecordID)
}

func dropzoneLeave(s *State, e DropzoneLeave, w World) *State {
	dc := s.DragContext
	if dc == nil {
		return s
	}
	i, ok := dc.zoneByElementRecord(e.ElementRecordID)
	if !ok {
		return s
	}
	zone := dc.DropZones[i]
	occ := validation.LeaveOccupancy(len(zone.Children), s.Status == StatusSortingComponent && zone.Origin)
	result := w.RunValidation(zone.ICEID, model.ValidationMinCount, occ)

	next := dc.clone()
	next.DropZones[i].Validations = validation.Merge(zone.Validations, model.ValidationMinCount, result)
	if next.DropZone != nil && next.DropZone.ElementRecordID == e.ElementRecordID {
		next.DropZone = nil
		next.InZone = false
	}
	next.InvalidDrop = result != nil && zone.Origin
	return withZoneValidations(s, next, e.ElementRecordID)
}

// withZoneValidations installs dc and mirrors the validations of one zone in
// its highlight box.
func withZoneValidations(s *State, dc *DragContext, elementRecordID int) *State {
	out := s.clone()
	out.DragContext = dc
	if i, ok := dc.zoneByElementRecord(elementRecordID); ok {
		if hd, ok := s.Highlighted[elementRecordID]; ok {
			out.Highlighted = maps.Clone(s.Highlighted)
			hd.Validations = dc.DropZones[i].Validations.Clone()
			out.Highlighted[elementRecordID] = hd
		}
	}
	return out
}

func componentDragStarted(s *State, e ComponentDragStarted, w World) *State {
	if s.Status != StatusListening || e.ContentType.ID == "" {
		return s
	}
	targets := w.GetContentTypeDropTargets(e.ContentType.ID, func(t model.ICERecord) bool {
		return !editActionAvailable(s, w, t.ID)
	}, newComponentScopes)
	lookup := w.RunDropTargetsValidations(targets)
	dt := w.GetDragContextFromDropTargets(targets, lookup, nil)
	return startDrag(s, StatusPlacingNewComponent, dt, &DragContext{ContentTypeID: e.ContentType.ID}, w)
}

func componentInstanceDragStarted(s *State, e ComponentInstanceDragStarted, w World) *State {
	ctID := e.ContentType.ID
	if ctID == "" {
		ctID = e.Instance.ContentTypeID
	}
	if s.Status != StatusListening || ctID == "" {
		return s
	}
	targets := w.GetContentTypeDropTargets(ctID, func(t model.ICERecord) bool {
		if e.Instance.Path != "" && slices.Contains(w.AncestorPaths(t.ID), e.Instance.Path) {
			return true
		}
		return !editActionAvailable(s, w, t.ID)
	}, existingComponentScopes)
	lookup := w.RunDropTargetsValidations(targets)
	dt := w.GetDragContextFromDropTargets(targets, lookup, nil)
	instance := e.Instance
	return startDrag(s, StatusPlacingDetachedComponent, dt, &DragContext{ContentTypeID: ctID, Instance: &instance}, w)
}

// assetDragStarted places a library or desktop asset. Unsupported media
// types still enter the drag, with nowhere to drop.
func assetDragStarted(s *State, asset model.Asset, status Status, w World) *State {
	if s.Status != StatusListening {
		return s
	}
	var targets []model.ICERecord
	for _, t := range w.GetMediaDropTargets(asset.MediaType()) {
		if editActionAvailable(s, w, t.ID) {
			targets = append(targets, t)
		}
	}
	lookup := model.ValidationsLookup{}
	dt := w.GetDragContextFromDropTargets(targets, lookup, nil)
	a := asset
	return startDrag(s, status, dt, &DragContext{Asset: &a}, w)
}

func contentTypeDropTargetsRequest(s *State, e ContentTypeDropTargetsRequest, w World) *State {
	if s.Status.IsDragging() || e.ContentTypeID == "" {
		return s
	}
	targets := w.GetContentTypeDropTargets(e.ContentTypeID, nil, nil)
	lookup := w.RunDropTargetsValidations(targets)
	dt := w.GetDragContextFromDropTargets(targets, lookup, nil)

	out := s.clone()
	out.Status = StatusShowDropTargets
	out.Highlighted = w.GetHighlighted(dt.DropZones)
	out.Draggable = map[int]int{}
	out.FieldSwitcher = nil
	return out
}

func clearHighlightedDropTargets(s *State) *State {
	if s.Status.IsDragging() {
		return s
	}
	return reset(s)
}
