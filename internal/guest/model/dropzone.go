package model

// ValidationKey names a placement validation.
type ValidationKey string

const (
	ValidationMinCount ValidationKey = "minCount"
	ValidationMaxCount ValidationKey = "maxCount"
)

// Validation levels.
const (
	LevelRequired   = "required"
	LevelSuggestion = "suggestion"
)

// ValidationResult describes a failed validation.
type ValidationResult struct {
	ID      ValidationKey  `json:"id"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Values  map[string]int `json:"values,omitempty"`
}

// Validations maps a key to its failure.
type Validations map[ValidationKey]ValidationResult

// Clone copies the map. A nil map clones to an empty one.
func (v Validations) Clone() Validations {
	out := make(Validations, len(v))
	for k, r := range v {
		out[k] = r
	}
	return out
}

// ValidationsLookup holds the validation failures of drop targets by ICE id.
type ValidationsLookup map[int]Validations

// HighlightData is what the overlay paints for one element record.
type HighlightData struct {
	ID          int         `json:"id"`
	Rect        Rect        `json:"rect"`
	Label       string      `json:"label"`
	Validations Validations `json:"validations,omitempty"`
}

// SiblingRects are the neighbours of an element in its parent.
type SiblingRects struct {
	Prev *Rect `json:"prev,omitempty"`
	Next *Rect `json:"next,omitempty"`
}

// Arrangement of the children of a drop zone.
type Arrangement string

const (
	ArrangementVertical   Arrangement = "vertical"
	ArrangementHorizontal Arrangement = "horizontal"
)

// DropZone is a rendered collection able to accept the dragged item.
type DropZone struct {
	ElementRecordID int         `json:"elementRecordId"`
	ICEID           int         `json:"iceId"`
	Element         NodeID      `json:"element"`
	Children        []NodeID    `json:"children"`
	Rect            Rect        `json:"rect"`
	ChildrenRects   []Rect      `json:"childrenRects"`
	Arrangement     Arrangement `json:"arrangement"`
	Validations     Validations `json:"validations"`
	// Origin is true for the zone the current drag started from.
	Origin bool `json:"origin"`
}

// Clone deep-copies the zone.
func (d DropZone) Clone() DropZone {
	out := d
	out.Children = append([]NodeID(nil), d.Children...)
	out.ChildrenRects = append([]Rect(nil), d.ChildrenRects...)
	out.Validations = d.Validations.Clone()
	return out
}

// HasChild reports whether node is a direct child of the zone.
func (d DropZone) HasChild(node NodeID) bool {
	for _, c := range d.Children {
		if c == node {
			return true
		}
	}
	return false
}

// DragTargets is the geometry derived from a set of drop targets.
type DragTargets struct {
	Players    []NodeID
	Siblings   []NodeID
	Containers []NodeID
	DropZones  []DropZone
}
