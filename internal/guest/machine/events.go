package machine

import "github.com/zjrosen/iceguest/internal/guest/model"

// EventType is the wire name of an event.
type EventType string

const (
	EventMouseOver                      EventType = "mouseover"
	EventMouseLeave                     EventType = "mouseleave"
	EventDblClick                       EventType = "dblclick"
	EventDragStart                      EventType = "dragstart"
	EventDragLeave                      EventType = "dragleave"
	EventComputedDragOver               EventType = "computedDragOver"
	EventComputedDragEnd                EventType = "computedDragEnd"
	EventSetDropPosition                EventType = "setDropPosition"
	EventEditComponentInline            EventType = "editComponentInline"
	EventExitComponentInlineEdit        EventType = "exitComponentInlineEdit"
	EventICEZoneSelected                EventType = "iceZoneSelected"
	EventStartListening                 EventType = "startListening"
	EventScrolling                      EventType = "scrolling"
	EventScrollingStopped               EventType = "scrollingStopped"
	EventDropzoneEnter                  EventType = "dropzoneEnter"
	EventDropzoneLeave                  EventType = "dropzoneLeave"
	EventSetEditMode                    EventType = "setEditMode"
	EventSetPreviewEditMode             EventType = "setPreviewEditMode"
	EventHighlightModeChanged           EventType = "highlightModeChanged"
	EventContentTypeDropTargetsRequest  EventType = "contentTypeDropTargetsRequest"
	EventClearHighlightedDropTargets    EventType = "clearHighlightedDropTargets"
	EventDesktopAssetUploadStarted      EventType = "desktopAssetUploadStarted"
	EventDesktopAssetUploadProgress     EventType = "desktopAssetUploadProgress"
	EventDesktopAssetUploadComplete     EventType = "desktopAssetUploadComplete"
	EventDesktopAssetUploadFailed       EventType = "desktopAssetUploadFailed"
	EventComponentDragStarted           EventType = "componentDragStarted"
	EventComponentInstanceDragStarted   EventType = "componentInstanceDragStarted"
	EventDesktopAssetDragStarted        EventType = "desktopAssetDragStarted"
	EventAssetDragStarted               EventType = "assetDragStarted"
	EventSetEditingStatus               EventType = "setEditingStatus"
	EventContentTreeFieldSelected       EventType = "contentTreeFieldSelected"
	EventContentTreeSwitchFieldInstance EventType = "contentTreeSwitchFieldInstance"
	EventClearContentTreeFieldSelected  EventType = "clearContentTreeFieldSelected"
	EventHostCheckIn                    EventType = "hostCheckIn"
	EventUpdateRTEConfig                EventType = "updateRteConfig"
	EventSetEditModePadding             EventType = "setEditModePadding"
	EventContentEvent                   EventType = "contentEvent"
	EventLockContentEvent               EventType = "lockContentEvent"
	EventSetLockedItems                 EventType = "setLockedItems"
	EventFetchGuestModelComplete        EventType = "fetchGuestModelComplete"
	EventContentTypesResponse           EventType = "contentTypesResponse"
)

// Event is one input of the state machine. The set of implementations is
// closed; Reduce switches over all of them.
type Event interface {
	Type() EventType
	event()
}

// Pointer and element events. Record fields hold element record ids.
type (
	MouseOver struct {
		Record int `json:"record"`
	}
	MouseLeave struct{}
	DblClick   struct {
		Record int `json:"record"`
	}
	DragStart struct {
		Record int `json:"record"`
	}
	// DragLeave reports the pointer left the element it was over. Record is
	// the element now under the pointer, zero when none.
	DragLeave struct {
		Record int `json:"record"`
	}
	ComputedDragOver struct {
		Record  int     `json:"record"`
		ClientX float64 `json:"clientX"`
		ClientY float64 `json:"clientY"`
	}
	ComputedDragEnd struct{}
	SetDropPosition struct {
		TargetIndex int `json:"targetIndex"`
	}
	EditComponentInline     struct{}
	ExitComponentInlineEdit struct{}
	ICEZoneSelected         struct {
		Record int `json:"record"`
	}
	StartListening   struct{}
	Scrolling        struct{}
	ScrollingStopped struct{}
	DropzoneEnter    struct {
		ElementRecordID int `json:"elementRecordId"`
	}
	DropzoneLeave struct {
		ElementRecordID int `json:"elementRecordId"`
	}
)

// Mode events.
type (
	SetEditMode struct {
		EditMode      *bool         `json:"editMode,omitempty"`
		HighlightMode HighlightMode `json:"highlightMode,omitempty"`
	}
	SetPreviewEditMode struct {
		EditMode bool `json:"editMode"`
	}
	HighlightModeChanged struct {
		HighlightMode HighlightMode `json:"highlightMode"`
	}
	SetEditingStatus struct {
		Status Status `json:"status"`
	}
)

// Host driven drags and drop target previews.
type (
	ContentTypeDropTargetsRequest struct {
		ContentTypeID string `json:"contentTypeId"`
	}
	ClearHighlightedDropTargets struct{}
	ComponentDragStarted        struct {
		ContentType model.ContentType `json:"contentType"`
	}
	ComponentInstanceDragStarted struct {
		Instance    model.ContentInstance `json:"instance"`
		ContentType model.ContentType     `json:"contentType"`
	}
	DesktopAssetDragStarted struct {
		Asset model.Asset `json:"asset"`
	}
	AssetDragStarted struct {
		Asset model.Asset `json:"asset"`
	}
)

// Upload progress of desktop assets dropped on a field.
type (
	DesktopAssetUploadStarted struct {
		Record int `json:"record"`
	}
	DesktopAssetUploadProgress struct {
		Record     int `json:"record"`
		Percentage int `json:"percentage"`
	}
	DesktopAssetUploadComplete struct {
		Record int `json:"record"`
	}
	DesktopAssetUploadFailed struct {
		Record int `json:"record"`
	}
)

// Content tree selection.
type (
	ContentTreeFieldSelected struct {
		ICEProps model.ICEProps `json:"iceProps"`
		Name     string         `json:"name,omitempty"`
	}
	// ContentTreeSwitchFieldInstance moves the field switcher; Direction is "next" or "prev".
	ContentTreeSwitchFieldInstance struct {
		Direction string `json:"type"`
	}
	ClearContentTreeFieldSelected struct{}
)

// Host environment and content events.
type (
	HostCheckIn struct {
		AuthoringBase   string         `json:"authoringBase"`
		EditModePadding bool           `json:"editModePadding"`
		HighlightMode   HighlightMode  `json:"highlightMode"`
		EditMode        bool           `json:"editMode"`
		RTEConfig       map[string]any `json:"rteConfig"`
		Site            string         `json:"site"`
		Username        string         `json:"username"`
	}
	UpdateRTEConfig struct {
		RTEConfig map[string]any `json:"rteConfig"`
	}
	SetEditModePadding struct {
		EditModePadding bool `json:"editModePadding"`
	}
	ContentEvent struct {
		User       model.User `json:"user"`
		TargetPath string     `json:"targetPath"`
	}
	LockContentEvent struct {
		Locked     bool       `json:"locked"`
		User       model.User `json:"user"`
		TargetPath string     `json:"targetPath"`
	}
	SetLockedItems struct {
		Items []model.LockedItem `json:"items"`
	}
	// FetchGuestModelComplete carries the sandbox state of the content
	// loaded in the preview. The bridge also loads Models into the ICE registry.
	FetchGuestModelComplete struct {
		SandboxItems []model.SandboxItem `json:"sandboxItems"`
		Models       []model.Model       `json:"models,omitempty"`
	}
	ContentTypesResponse struct {
		ContentTypes map[string]model.ContentType `json:"contentTypes"`
	}
)

func (MouseOver) Type() EventType                      { return EventMouseOver }
func (MouseLeave) Type() EventType                     { return EventMouseLeave }
func (DblClick) Type() EventType                       { return EventDblClick }
func (DragStart) Type() EventType                      { return EventDragStart }
func (DragLeave) Type() EventType                      { return EventDragLeave }
func (ComputedDragOver) Type() EventType               { return EventComputedDragOver }
func (ComputedDragEnd) Type() EventType                { return EventComputedDragEnd }
func (SetDropPosition) Type() EventType                { return EventSetDropPosition }
func (EditComponentInline) Type() EventType            { return EventEditComponentInline }
func (ExitComponentInlineEdit) Type() EventType        { return EventExitComponentInlineEdit }
func (ICEZoneSelected) Type() EventType                { return EventICEZoneSelected }
func (StartListening) Type() EventType                 { return EventStartListening }
func (Scrolling) Type() EventType                      { return EventScrolling }
func (ScrollingStopped) Type() EventType               { return EventScrollingStopped }
func (DropzoneEnter) Type() EventType                  { return EventDropzoneEnter }
func (DropzoneLeave) Type() EventType                  { return EventDropzoneLeave }
func (SetEditMode) Type() EventType                    { return EventSetEditMode }
func (SetPreviewEditMode) Type() EventType             { return EventSetPreviewEditMode }
func (HighlightModeChanged) Type() EventType           { return EventHighlightModeChanged }
func (ContentTypeDropTargetsRequest) Type() EventType  { return EventContentTypeDropTargetsRequest }
func (ClearHighlightedDropTargets) Type() EventType    { return EventClearHighlightedDropTargets }
func (DesktopAssetUploadStarted) Type() EventType      { return EventDesktopAssetUploadStarted }
func (DesktopAssetUploadProgress) Type() EventType     { return EventDesktopAssetUploadProgress }
func (DesktopAssetUploadComplete) Type() EventType     { return EventDesktopAssetUploadComplete }
func (DesktopAssetUploadFailed) Type() EventType       { return EventDesktopAssetUploadFailed }
func (ComponentDragStarted) Type() EventType           { return EventComponentDragStarted }
func (ComponentInstanceDragStarted) Type() EventType   { return EventComponentInstanceDragStarted }
func (DesktopAssetDragStarted) Type() EventType        { return EventDesktopAssetDragStarted }
func (AssetDragStarted) Type() EventType               { return EventAssetDragStarted }
func (SetEditingStatus) Type() EventType               { return EventSetEditingStatus }
func (ContentTreeFieldSelected) Type() EventType       { return EventContentTreeFieldSelected }
func (ContentTreeSwitchFieldInstance) Type() EventType { return EventContentTreeSwitchFieldInstance }
func (ClearContentTreeFieldSelected) Type() EventType  { return EventClearContentTreeFieldSelected }
func (HostCheckIn) Type() EventType                    { return EventHostCheckIn }
func (UpdateRTEConfig) Type() EventType                { return EventUpdateRTEConfig }
func (SetEditModePadding) Type() EventType             { return EventSetEditModePadding }
func (ContentEvent) Type() EventType                   { return EventContentEvent }
func (LockContentEvent) Type() EventType               { return EventLockContentEvent }
func (SetLockedItems) Type() EventType                 { return EventSetLockedItems }
func (FetchGuestModelComplete) Type() EventType        { return EventFetchGuestModelComplete }
func (ContentTypesResponse) Type() EventType           { return EventContentTypesResponse }

func (MouseOver) event()                      {}
func (MouseLeave) event()                     {}
func (DblClick) event()                       {}
func (DragStart) event()                      {}
func (DragLeave) event()                      {}
func (ComputedDragOver) event()               {}
func (ComputedDragEnd) event()                {}
func (SetDropPosition) event()                {}
func (EditComponentInline) event()            {}
func (ExitComponentInlineEdit) event()        {}
func (ICEZoneSelected) event()                {}
func (StartListening) event()                 {}
func (Scrolling) event()                      {}
func (ScrollingStopped) event()               {}
func (DropzoneEnter) event()                  {}
func (DropzoneLeave) event()                  {}
func (SetEditMode) event()                    {}
func (SetPreviewEditMode) event()             {}
func (HighlightModeChanged) event()           {}
func (ContentTypeDropTargetsRequest) event()  {}
func (ClearHighlightedDropTargets) event()    {}
func (DesktopAssetUploadStarted) event()      {}
func (DesktopAssetUploadProgress) event()     {}
func (DesktopAssetUploadComplete) event()     {}
func (DesktopAssetUploadFailed) event()       {}
func (ComponentDragStarted) event()           {}
func (ComponentInstanceDragStarted) event()   {}
func (DesktopAssetDragStarted) event()        {}
func (AssetDragStarted) event()               {}
func (SetEditingStatus) event()               {}
func (ContentTreeFieldSelected) event()       {}
func (ContentTreeSwitchFieldInstance) event() {}
func (ClearContentTreeFieldSelected) event()  {}
func (HostCheckIn) event()                    {}
func (UpdateRTEConfig) event()                {}
func (SetEditModePadding) event()             {}
func (ContentEvent) event()                   {}
func (LockContentEvent) event()               {}
func (SetLockedItems) event()                 {}
func (FetchGuestModelComplete) event()        {}
func (ContentTypesResponse) event()           {}

// IsInteractive reports whether the event comes from the author manipulating
// the page, as opposed to environment and content updates.
func IsInteractive(ev Event) bool {
	switch ev.(type) {
	case MouseOver, MouseLeave, DblClick, DragStart, DragLeave, ComputedDragOver,
		SetDropPosition, EditComponentInline, ICEZoneSelected, DropzoneEnter, DropzoneLeave,
		ComponentDragStarted, ComponentInstanceDragStarted, DesktopAssetDragStarted, AssetDragStarted,
		ContentTypeDropTargetsRequest, ContentTreeFieldSelected, ContentTreeSwitchFieldInstance:
		return true
	}
	return false
}
