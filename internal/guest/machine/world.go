package machine

import "github.com/zjrosen/iceguest/internal/guest/model"

// World is the read-only view of the page a transition consults: the element
// registry, the ICE registry and the cached sandbox state. One World is
// resolved per event and stays consistent for the whole transition.
type World interface {
	// Element registry.
	Get(elementID int) (model.ElementRecord, bool)
	FromICEID(iceID int) (model.ElementRecord, bool)
	GetRecordsFromICEID(iceID int) []model.ElementRecord
	GetDraggable(elementID int) (int, bool)
	GetHoverData(elementID int) (model.HighlightData, bool)
	GetSiblingRects(elementID int) model.SiblingRects
	GetDragContextFromDropTargets(targets []model.ICERecord, lookup model.ValidationsLookup, dragged *model.ElementRecord) model.DragTargets
	GetHighlighted(zones []model.DropZone) map[int]model.HighlightData
	RefreshDropZone(dz model.DropZone) model.DropZone
	Contains(ancestor, node model.NodeID) bool

	// ICE registry.
	GetByID(iceID int) (model.ICERecord, bool)
	Exists(props model.ICEProps) (int, bool)
	IsMovable(iceID int) bool
	GetMovableParentRecord(iceID int) (int, bool)
	GetRecordDropTargets(iceID int) []model.ICERecord
	GetContentTypeDropTargets(contentTypeID string, exclude func(model.ICERecord) bool, scopes []string) []model.ICERecord
	GetMediaDropTargets(mediaType string) []model.ICERecord
	RunDropTargetsValidations(targets []model.ICERecord) model.ValidationsLookup
	RunValidation(iceID int, key model.ValidationKey, occupancy int) *model.ValidationResult
	FindChildRecord(modelID, fieldID string, index model.ItemIndex) (model.ICERecord, bool)
	PathOf(iceID int) string
	AncestorPaths(iceID int) []string

	// SandboxItem returns the cached working-copy state of a content path.
	SandboxItem(path string) (model.SandboxItem, bool)
}
