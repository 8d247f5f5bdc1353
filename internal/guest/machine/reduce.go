// Package machine is the editing state machine of the guest: a pure
// transition function from (state, event, world) to the next state.
//
// Reduce never fails. Stale or unresolvable input (unknown records, drag
// events without a drag, duplicate DOM events) leaves the state untouched
// and Reduce returns the very same pointer, which callers use to detect a
// no-op. Placement validation failures are part of the state, not errors.
package machine

import (
	"maps"
	"reflect"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

// Reduce applies one event.
func Reduce(s *State, ev Event, w World) *State {
	switch e := ev.(type) {
	case MouseOver:
		return mouseOver(s, e, w)
	case MouseLeave:
		return mouseLeave(s)
	case DblClick:
		return dblClick(s, e, w)
	case ICEZoneSelected:
		return iceZoneSelected(s, e, w)
	case EditComponentInline:
		return editComponentInline(s)
	case ExitComponentInlineEdit:
		if s.Status != StatusEditingComponentInline {
			return s
		}
		return reset(s)
	case StartListening:
		return reset(s)
	case SetEditingStatus:
		return setEditingStatus(s, e)

	case DragStart:
		return dragStart(s, e, w)
	case DragLeave:
		return dragLeave(s, e, w)
	case ComputedDragOver:
		return computedDragOver(s, e, w)
	case ComputedDragEnd:
		return reset(s)
	case SetDropPosition:
		return setDropPosition(s, e)
	case Scrolling:
		return scrolling(s)
	case ScrollingStopped:
		return scrollingStopped(s, w)
	case DropzoneEnter:
		return dropzoneEnter(s, e, w)
	case DropzoneLeave:
		return dropzoneLeave(s, e, w)
	case ComponentDragStarted:
		return componentDragStarted(s, e, w)
	case ComponentInstanceDragStarted:
		return componentInstanceDragStarted(s, e, w)
	case AssetDragStarted:
		return assetDragStarted(s, e.Asset, StatusPlacingDetachedAsset, w)
	case DesktopAssetDragStarted:
		return assetDragStarted(s, e.Asset, StatusUploadAssetFromDesktop, w)
	case ContentTypeDropTargetsRequest:
		return contentTypeDropTargetsRequest(s, e, w)
	case ClearHighlightedDropTargets:
		return clearHighlightedDropTargets(s)

	case DesktopAssetUploadStarted:
		return uploadStarted(s, e, w)
	case DesktopAssetUploadProgress:
		return uploadProgress(s, e)
	case DesktopAssetUploadComplete:
		return uploadFinished(s, e.Record)
	case DesktopAssetUploadFailed:
		return uploadFinished(s, e.Record)

	case SetEditMode:
		return setEditMode(s, e)
	case SetPreviewEditMode:
		return applyModes(s, e.EditMode, s.HighlightMode)
	case HighlightModeChanged:
		return applyModes(s, s.EditMode, e.HighlightMode)

	case ContentTreeFieldSelected:
		return contentTreeFieldSelected(s, e, w)
	case ContentTreeSwitchFieldInstance:
		return contentTreeSwitchFieldInstance(s, e, w)
	case ClearContentTreeFieldSelected:
		if s.Status != StatusFieldSelected && s.FieldSwitcher == nil {
			return s
		}
		return reset(s)

	case HostCheckIn:
		return hostCheckIn(s, e)
	case UpdateRTEConfig:
		out := s.clone()
		out.RTEConfig = maps.Clone(e.RTEConfig)
		return out
	case SetEditModePadding:
		if s.EditModePadding == e.EditModePadding {
			return s
		}
		out := s.clone()
		out.EditModePadding = e.EditModePadding
		return out
	case ContentEvent:
		return contentEvent(s, e)
	case LockContentEvent:
		return lockContentEvent(s, e)
	case SetLockedItems:
		return setLockedItems(s, e)
	case FetchGuestModelComplete:
		return fetchGuestModelComplete(s, e)
	case ContentTypesResponse:
		return contentTypesResponse(s, e)
	}
	return s
}

func mouseOver(s *State, e MouseOver, w World) *State {
	if s.Status != StatusListening {
		return s
	}
	rec, ok := w.Get(e.Record)
	if !ok || len(rec.ICEIDs) == 0 {
		return s
	}
	movable, hasMovable := w.GetMovableParentRecord(rec.ICEIDs[0])

	highlighted := map[int]model.HighlightData{}
	draggable := map[int]int{}

	switch s.HighlightMode {
	case HighlightMoveTargets:
		if !hasMovable {
			return s
		}
		target, ok := w.FromICEID(movable)
		if !ok {
			return s
		}
		hd, ok := w.GetHoverData(target.ID)
		if !ok {
			return s
		}
		highlighted[target.ID] = hd
		draggable[target.ID] = movable
	default:
		hd, ok := w.GetHoverData(rec.ID)
		if !ok {
			return s
		}
		highlighted[rec.ID] = hd
		if hasMovable {
			target, ok := w.FromICEID(movable)
			if !ok {
				target = rec
			}
			draggable[target.ID] = movable
		}
	}

	if reflect.DeepEqual(highlighted, s.Highlighted) && maps.Equal(draggable, s.Draggable) {
		return s
	}
	out := s.clone()
	out.Highlighted = highlighted
	out.Draggable = draggable
	return out
}

func mouseLeave(s *State) *State {
	if s.Status != StatusListening || (len(s.Highlighted) == 0 && len(s.Draggable) == 0) {
		return s
	}
	out := s.clone()
	out.Highlighted = map[int]model.HighlightData{}
	out.Draggable = map[int]int{}
	return out
}

func dblClick(s *State, e DblClick, w World) *State {
	if s.Status != StatusListening {
		return s
	}
	return editing(s, e.Record, StatusEditingComponentInline, w)
}

func iceZoneSelected(s *State, e ICEZoneSelected, w World) *State {
	if s.Status.IsDragging() {
		return s
	}
	return editing(s, e.Record, StatusEditingComponent, w)
}

func editing(s *State, elementID int, status Status, w World) *State {
	hd, ok := w.GetHoverData(elementID)
	if !ok {
		return s
	}
	out := s.clone()
	out.Status = status
	out.Editable = map[int]model.HighlightData{elementID: hd}
	out.Highlighted = map[int]model.HighlightData{}
	out.Draggable = map[int]int{}
	out.FieldSwitcher = nil
	return out
}

func editComponentInline(s *State) *State {
	if s.Status.IsDragging() || s.Status == StatusEditingComponentInline || len(s.Highlighted) == 0 {
		return s
	}
	out := s.clone()
	out.Status = StatusEditingComponentInline
	out.Editable = maps.Clone(s.Highlighted)
	out.Highlighted = map[int]model.HighlightData{}
	out.Draggable = map[int]int{}
	return out
}

func setEditingStatus(s *State, e SetEditingStatus) *State {
	if !e.Status.Valid() || e.Status.IsDragging() || e.Status == s.Status {
		return s
	}
	if e.Status == StatusListening {
		return reset(s)
	}
	out := s
	if s.Status.IsDragging() {
		out = reset(s)
	}
	out = out.clone()
	out.Status = e.Status
	return out
}

func setEditMode(s *State, e SetEditMode) *State {
	editMode := s.EditMode
	if e.EditMode != nil {
		editMode = *e.EditMode
	}
	mode := s.HighlightMode
	if e.HighlightMode != "" {
		mode = e.HighlightMode
	}
	return applyModes(s, editMode, mode)
}

// applyModes switches edit and highlight modes. A genuine change resets the
// interaction in progress first.
func applyModes(s *State, editMode bool, mode HighlightMode) *State {
	if !mode.Valid() {
		mode = s.HighlightMode
	}
	if editMode == s.EditMode && mode == s.HighlightMode {
		return s
	}
	out := reset(s).clone()
	out.EditMode = editMode
	out.HighlightMode = mode
	return out
}

func uploadStarted(s *State, e DesktopAssetUploadStarted, w World) *State {
	hd, ok := w.GetHoverData(e.Record)
	if !ok {
		return s
	}
	out := s.clone()
	out.Uploading = maps.Clone(s.Uploading)
	if out.Uploading == nil {
		out.Uploading = map[int]Upload{}
	}
	out.Uploading[e.Record] = Upload{HighlightData: hd}
	return out
}

func uploadProgress(s *State, e DesktopAssetUploadProgress) *State {
	up, ok := s.Uploading[e.Record]
	progress := min(max(e.Percentage, 0), 100)
	if !ok || up.Progress == progress {
		return s
	}
	up.Progress = progress
	out := s.clone()
	out.Uploading = maps.Clone(s.Uploading)
	out.Uploading[e.Record] = up
	return out
}

func uploadFinished(s *State, record int) *State {
	if _, ok := s.Uploading[record]; !ok {
		return s
	}
	out := s.clone()
	out.Uploading = maps.Clone(s.Uploading)
	delete(out.Uploading, record)
	return out
}

func contentTreeFieldSelected(s *State, e ContentTreeFieldSelected, w World) *State {
	if s.Status.IsDragging() {
		return s
	}
	iceID, ok := w.Exists(e.ICEProps)
	if !ok {
		return s
	}
	rec, ok := w.GetByID(iceID)
	if !ok {
		return s
	}

	if s.HighlightMode == HighlightMoveTargets {
		if movable, ok := w.GetMovableParentRecord(iceID); ok {
			iceID = movable
		}
	} else if rec.RecordType == model.RecordNodeSelectorItem {
		if child, ok := w.FindChildRecord(rec.ModelID, rec.FieldID, rec.Index); ok {
			iceID = child.ID
		}
	}

	entries := w.GetRecordsFromICEID(iceID)
	if len(entries) == 0 {
		return s
	}
	ids := make([]int, len(entries))
	for i, el := range entries {
		ids[i] = el.ID
	}

	out := selectField(s, iceID, ids, 0, w)
	if out == nil {
		return s
	}
	return out
}

func contentTreeSwitchFieldInstance(s *State, e ContentTreeSwitchFieldInstance, w World) *State {
	fs := s.FieldSwitcher
	if fs == nil {
		return s
	}
	next := fs.CurrentElement
	switch e.Direction {
	case "next":
		next++
	case "prev":
		next--
	}
	if next < 0 || next >= len(fs.RegistryEntryIDs) || next == fs.CurrentElement {
		return s
	}
	out := selectField(s, fs.ICEID, fs.RegistryEntryIDs, next, w)
	if out == nil {
		return s
	}
	return out
}

// selectField highlights the element at position current among the element
// records rendering iceID. Returns nil when the element is gone.
func selectField(s *State, iceID int, elementIDs []int, current int, w World) *State {
	elementID := elementIDs[current]
	hd, ok := w.GetHoverData(elementID)
	if !ok {
		return nil
	}
	out := s.clone()
	out.Status = StatusFieldSelected
	out.Highlighted = map[int]model.HighlightData{elementID: hd}
	out.Draggable = map[int]int{}
	out.Editable = map[int]model.HighlightData{}
	if movable, ok := w.GetMovableParentRecord(iceID); ok {
		target := elementID
		if movable != iceID {
			if el, ok := w.FromICEID(movable); ok {
				target = el.ID
			}
		}
		out.Draggable[target] = movable
	}
	out.FieldSwitcher = nil
	if len(elementIDs) > 1 {
		out.FieldSwitcher = &FieldSwitcher{
			ICEID:            iceID,
			CurrentElement:   current,
			RegistryEntryIDs: append([]int(nil), elementIDs...),
		}
	}
	return out
}
