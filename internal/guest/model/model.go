// Package model holds the value types shared by the guest registries, the
// editing state machine and the host bridge.
//
// Records reference each other by integer id only. Nothing in this package
// holds a pointer to another record, so the registries can be treated as
// arenas and snapshots can be copied freely.
package model

import (
	"strconv"
	"strings"
)

// NodeID identifies a node of the rendered document. Zero is never a valid node.
type NodeID int

// Rect is a bounding rectangle in client coordinates.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether the point lies inside the rectangle (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right() && y >= r.Top && y <= r.Bottom()
}

// Offset returns the rectangle translated by (-dx, -dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{Left: r.Left - dx, Top: r.Top - dy, Width: r.Width, Height: r.Height}
}

// Coordinates is a pointer position in client coordinates.
type Coordinates struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// RecordType classifies an ICE record.
type RecordType string

const (
	RecordComponent        RecordType = "component"
	RecordRepeatItem       RecordType = "repeat-item"
	RecordNodeSelectorItem RecordType = "node-selector-item"
	// RecordField covers plain fields and whole collections (drop targets).
	RecordField RecordType = "field"
)

// IsItem reports whether the record is an item of a collection.
func (t RecordType) IsItem() bool {
	return t == RecordRepeatItem || t == RecordNodeSelectorItem
}

// Field types with special meaning to the engine.
const (
	FieldRepeat       = "repeat"
	FieldNodeSelector = "node-selector"
	FieldImage        = "image"
	FieldVideo        = "video-picker"
)

// ItemIndex addresses an item inside a (possibly nested) collection.
// "" means no index; nested repeat items use dot notation ("1.0").
type ItemIndex string

// IsSet reports whether the index addresses an item.
func (i ItemIndex) IsSet() bool { return i != "" }

// Parts returns the numeric components of the index. Malformed parts are skipped.
func (i ItemIndex) Parts() []int {
	if i == "" {
		return nil
	}
	raw := strings.Split(string(i), ".")
	parts := make([]int, 0, len(raw))
	for _, p := range raw {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		parts = append(parts, n)
	}
	return parts
}

// Parent drops the last component ("1.0" -> "1", "3" -> "").
func (i ItemIndex) Parent() ItemIndex {
	idx := strings.LastIndex(string(i), ".")
	if idx < 0 {
		return ""
	}
	return i[:idx]
}

// IndexOf builds an ItemIndex from its parts.
func IndexOf(parts ...int) ItemIndex {
	s := make([]string, len(parts))
	for n, p := range parts {
		s[n] = strconv.Itoa(p)
	}
	return ItemIndex(strings.Join(s, "."))
}

// ICEProps locate an editable entry in the content model.
type ICEProps struct {
	ModelID string    `json:"modelId" yaml:"modelId"`
	FieldID string    `json:"fieldId,omitempty" yaml:"fieldId,omitempty"`
	Index   ItemIndex `json:"index,omitempty" yaml:"index,omitempty"`
}

// ICERecord is an entry of the ICE registry.
type ICERecord struct {
	ID          int              `json:"id"`
	ModelID     string           `json:"modelId"`
	FieldID     string           `json:"fieldId,omitempty"`
	Index       ItemIndex        `json:"index,omitempty"`
	RecordType  RecordType       `json:"recordType"`
	Validations FieldValidations `json:"validations"`
}

// Props returns the lookup key of the record.
func (r ICERecord) Props() ICEProps {
	return ICEProps{ModelID: r.ModelID, FieldID: r.FieldID, Index: r.Index}
}

// ElementRecord ties a rendered node to the ICE records it represents.
type ElementRecord struct {
	ID      int    `json:"id"`
	Element NodeID `json:"element"`
	ICEIDs  []int  `json:"iceIds"`
	Label   string `json:"label"`
}

// FieldValidations are the declared constraints of a content-type field.
type FieldValidations struct {
	MinCount            *int     `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	MaxCount            *int     `json:"maxCount,omitempty" yaml:"maxCount,omitempty"`
	AllowedContentTypes []string `json:"allowedContentTypes,omitempty" yaml:"allowedContentTypes,omitempty"`
	// AllowedScopes restricts how components may be attached: embedded, shared or existing.
	AllowedScopes []string `json:"allowedScopes,omitempty" yaml:"allowedScopes,omitempty"`
}

// Allows reports whether the content type is accepted by the field.
func (v FieldValidations) Allows(contentTypeID string) bool {
	for _, ct := range v.AllowedContentTypes {
		if ct == contentTypeID {
			return true
		}
	}
	return false
}

// AllowsAnyScope reports whether one of the scopes is accepted. A field that
// declares no scopes accepts all of them.
func (v FieldValidations) AllowsAnyScope(scopes []string) bool {
	if len(scopes) == 0 || len(v.AllowedScopes) == 0 {
		return true
	}
	for _, want := range scopes {
		for _, have := range v.AllowedScopes {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Attachment scopes.
const (
	ScopeEmbedded = "embedded"
	ScopeShared   = "shared"
	ScopeExisting = "existing"
)

// ContentTypeField describes one field of a content type.
type ContentTypeField struct {
	ID          string                      `json:"id" yaml:"id"`
	Name        string                      `json:"name" yaml:"name"`
	Type        string                      `json:"type" yaml:"type"`
	Sortable    *bool                       `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Validations FieldValidations            `json:"validations" yaml:"validations"`
	Fields      map[string]ContentTypeField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsSortable reports whether the items of the field may be reordered. Defaults to true.
func (f ContentTypeField) IsSortable() bool {
	return f.Sortable == nil || *f.Sortable
}

// IsCollection reports whether the field holds items.
func (f ContentTypeField) IsCollection() bool {
	return f.Type == FieldRepeat || f.Type == FieldNodeSelector
}

// ContentType describes the shape of a content model.
type ContentType struct {
	ID     string                      `json:"id" yaml:"id"`
	Name   string                      `json:"name" yaml:"name"`
	Type   string                      `json:"type" yaml:"type"`
	Fields map[string]ContentTypeField `json:"fields" yaml:"fields"`
}

// Field resolves a possibly nested field id ("links_o.label_s").
func (c ContentType) Field(fieldID string) (ContentTypeField, bool) {
	if fieldID == "" {
		return ContentTypeField{}, false
	}
	fields := c.Fields
	var field ContentTypeField
	for _, part := range strings.Split(fieldID, ".") {
		f, ok := fields[part]
		if !ok {
			return ContentTypeField{}, false
		}
		field = f
		fields = f.Fields
	}
	return field, true
}

// Model is a content item as loaded in the preview. Repeat values are lists of
// maps, node-selector values are lists of model ids.
type Model struct {
	ID            string         `json:"id" yaml:"id"`
	Path          string         `json:"path,omitempty" yaml:"path,omitempty"`
	ContentTypeID string         `json:"contentTypeId" yaml:"contentTypeId"`
	ParentID      string         `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Label         string         `json:"label,omitempty" yaml:"label,omitempty"`
	Values        map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// Action bits of a sandbox item.
const (
	ActionEdit uint64 = 1 << iota
	ActionDelete
	ActionPublish
)

// SandboxItem is the working-copy state of a content item.
type SandboxItem struct {
	Path             string `json:"path" yaml:"path"`
	LockOwner        string `json:"lockOwner,omitempty" yaml:"lockOwner,omitempty"`
	Modifier         string `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	AvailableActions uint64 `json:"availableActions" yaml:"availableActions"`
}

// CanEdit reports whether the edit action is available.
func (s SandboxItem) CanEdit() bool { return s.AvailableActions&ActionEdit != 0 }

// LockedFor reports whether the item is locked by someone other than username.
func (s SandboxItem) LockedFor(username string) bool {
	return s.LockOwner != "" && s.LockOwner != username
}

// User identifies an author.
type User struct {
	Username  string `json:"username" yaml:"username"`
	FirstName string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
}

// LockedItem is one entry of a lock listing.
type LockedItem struct {
	Path      string `json:"path" yaml:"path"`
	LockOwner string `json:"lockOwner" yaml:"lockOwner"`
}

// Asset is a media item dragged from the host or the desktop. Library assets
// declare MimeType; desktop files declare Type.
type Asset struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// MediaType classifies the asset as the field type able to receive it.
// Returns "" for unsupported types.
func (a Asset) MediaType() string {
	mime := a.MimeType
	if mime == "" {
		mime = a.Type
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return FieldImage
	case strings.HasPrefix(mime, "video/"):
		return FieldVideo
	default:
		return ""
	}
}

// ContentInstance is an existing component dragged from the host.
type ContentInstance struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label,omitempty" yaml:"label,omitempty"`
	ContentTypeID string `json:"contentTypeId" yaml:"contentTypeId"`
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ReferentialEntries bundles what a record points at in the content model.
type ReferentialEntries struct {
	Record      ICERecord
	Model       Model
	ContentType ContentType
	Field       *ContentTypeField
}
