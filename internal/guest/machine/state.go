package machine

import (
	"maps"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

// Status is what the author is doing. Exactly one status is active.
type Status string

const (
	StatusListening                Status = "LISTENING"
	StatusSortingComponent         Status = "SORTING_COMPONENT"
	StatusPlacingNewComponent      Status = "PLACING_NEW_COMPONENT"
	StatusPlacingDetachedComponent Status = "PLACING_DETACHED_COMPONENT"
	StatusPlacingDetachedAsset     Status = "PLACING_DETACHED_ASSET"
	StatusUploadAssetFromDesktop   Status = "UPLOAD_ASSET_FROM_DESKTOP"
	StatusEditingComponent         Status = "EDITING_COMPONENT"
	StatusEditingComponentInline   Status = "EDITING_COMPONENT_INLINE"
	StatusShowDropTargets          Status = "SHOW_DROP_TARGETS"
	StatusFieldSelected            Status = "FIELD_SELECTED"
)

// IsDragging reports whether the status carries a drag context.
func (s Status) IsDragging() bool {
	switch s {
	case StatusSortingComponent,
		StatusPlacingNewComponent,
		StatusPlacingDetachedComponent,
		StatusPlacingDetachedAsset,
		StatusUploadAssetFromDesktop:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusListening,
		StatusEditingComponent,
		StatusEditingComponentInline,
		StatusShowDropTargets,
		StatusFieldSelected:
		return true
	}
	return s.IsDragging()
}

// HighlightMode selects what hovering surfaces.
type HighlightMode string

const (
	// HighlightAll highlights every editable record.
	HighlightAll HighlightMode = "ALL"
	// HighlightMoveTargets highlights only records that can be moved.
	HighlightMoveTargets HighlightMode = "MOVE_TARGETS"
)

// Valid reports whether m is a known mode.
func (m HighlightMode) Valid() bool {
	return m == HighlightAll || m == HighlightMoveTargets
}

// Upload tracks a desktop file being uploaded into a field.
type Upload struct {
	model.HighlightData
	Progress int `json:"progress"`
}

// FieldSwitcher cycles between the element records rendering the ICE record
// selected in the content tree.
type FieldSwitcher struct {
	ICEID            int   `json:"iceId"`
	CurrentElement   int   `json:"currentElement"`
	RegistryEntryIDs []int `json:"registryEntryIds"`
}

// DragContext is the ephemeral data of an in-progress drag.
type DragContext struct {
	Players    []model.NodeID   `json:"players"`
	Siblings   []model.NodeID   `json:"siblings"`
	Containers []model.NodeID   `json:"containers"`
	DropZones  []model.DropZone `json:"dropZones"`
	// DropZone is the zone under the pointer, if any.
	DropZone *model.DropZone `json:"dropZone,omitempty"`
	// Dragged is nil when placing something that is not on the page yet.
	Dragged       *model.ElementRecord   `json:"dragged,omitempty"`
	ContentTypeID string                 `json:"contentTypeId,omitempty"`
	Instance      *model.ContentInstance `json:"instance,omitempty"`
	Asset         *model.Asset           `json:"asset,omitempty"`
	TargetIndex   *int                   `json:"targetIndex,omitempty"`
	InZone        bool                   `json:"inZone"`
	InvalidDrop   bool                   `json:"invalidDrop"`
	Scrolling     bool                   `json:"scrolling"`
	Coordinates   *model.Coordinates     `json:"coordinates,omitempty"`
	Over          *model.ElementRecord   `json:"over,omitempty"`
	Next          *model.Rect            `json:"next,omitempty"`
	Prev          *model.Rect            `json:"prev,omitempty"`
}

func (d *DragContext) clone() *DragContext {
	out := *d
	out.DropZones = make([]model.DropZone, len(d.DropZones))
	for i, dz := range d.DropZones {
		out.DropZones[i] = dz.Clone()
	}
	if d.DropZone != nil {
		dz := d.DropZone.Clone()
		out.DropZone = &dz
	}
	return &out
}

func (d *DragContext) zoneByElementRecord(id int) (int, bool) {
	for i, dz := range d.DropZones {
		if dz.ElementRecordID == id {
			return i, true
		}
	}
	return 0, false
}

// State is the snapshot produced by every transition. A State is never
// mutated once returned; transitions that change nothing return the same
// pointer.
type State struct {
	DragContext             *DragContext                 `json:"dragContext"`
	Draggable               map[int]int                  `json:"draggable"`
	Editable                map[int]model.HighlightData  `json:"editable"`
	Highlighted             map[int]model.HighlightData  `json:"highlighted"`
	Status                  Status                       `json:"status"`
	EditMode                bool                         `json:"editMode"`
	HighlightMode           HighlightMode                `json:"highlightMode"`
	AuthoringBase           string                       `json:"authoringBase"`
	Uploading               map[int]Upload               `json:"uploading"`
	LockedPaths             map[string]model.User        `json:"lockedPaths"`
	ExternallyModifiedPaths map[string]model.User        `json:"externallyModifiedPaths"`
	ContentTypes            map[string]model.ContentType `json:"contentTypes"`
	HostCheckedIn           bool                         `json:"hostCheckedIn"`
	RTEConfig               map[string]any               `json:"rteConfig"`
	ActiveSite              string                       `json:"activeSite"`
	EditModePadding         bool                         `json:"editModePadding"`
	Username                string                       `json:"username"`
	FieldSwitcher           *FieldSwitcher               `json:"fieldSwitcher,omitempty"`
}

// Initial returns the state before the host checks in.
func Initial() *State {
	return &State{
		Draggable:               map[int]int{},
		Editable:                map[int]model.HighlightData{},
		Highlighted:             map[int]model.HighlightData{},
		Status:                  StatusListening,
		HighlightMode:           HighlightAll,
		Uploading:               map[int]Upload{},
		LockedPaths:             map[string]model.User{},
		ExternallyModifiedPaths: map[string]model.User{},
		ContentTypes:            map[string]model.ContentType{},
		RTEConfig:               map[string]any{},
	}
}

// clone makes a shallow copy. Maps are shared until a transition replaces them.
func (s *State) clone() *State {
	out := *s
	return &out
}

// isReset reports whether the state already is what reset would produce.
func (s *State) isReset() bool {
	return s.Status == StatusListening &&
		s.DragContext == nil &&
		len(s.Highlighted) == 0 &&
		len(s.Draggable) == 0 &&
		len(s.Editable) == 0 &&
		s.FieldSwitcher == nil
}

// reset returns to LISTENING and drops everything tied to the interaction
// in progress. Environment, locks and uploads survive.
func reset(s *State) *State {
	if s.isReset() {
		return s
	}
	out := s.clone()
	out.Status = StatusListening
	out.DragContext = nil
	out.Highlighted = map[int]model.HighlightData{}
	out.Draggable = map[int]int{}
	out.Editable = map[int]model.HighlightData{}
	out.FieldSwitcher = nil
	return out
}

// IsLocked reports whether path is locked by another author.
func (s *State) IsLocked(path string) bool {
	_, ok := s.LockedPaths[path]
	return ok
}

// IsExternallyModified reports whether another author changed path.
func (s *State) IsExternallyModified(path string) bool {
	_, ok := s.ExternallyModifiedPaths[path]
	return ok
}

func withUser(m map[string]model.User, path string, u model.User) map[string]model.User {
	out := maps.Clone(m)
	if out == nil {
		out = map[string]model.User{}
	}
	out[path] = u
	return out
}

func withoutPath(m map[string]model.User, path string) map[string]model.User {
	out := maps.Clone(m)
	delete(out, path)
	return out
}
