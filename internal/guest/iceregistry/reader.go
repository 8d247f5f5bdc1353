package iceregistry

import (
	"strings"

	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/validation"
)

// Reader is a read view of the registry held under its read lock.
type Reader struct {
	r *Registry
}

// GetByID returns a record.
func (rd *Reader) GetByID(id int) (model.ICERecord, bool) {
	rec, ok := rd.r.records[id]
	return rec, ok
}

// Exists returns the id registered for props.
func (rd *Reader) Exists(props model.ICEProps) (int, bool) {
	id, ok := rd.r.byProps[props]
	return id, ok
}

// Model returns a loaded content model.
func (rd *Reader) Model(id string) (model.Model, bool) {
	m, ok := rd.r.models[id]
	return m, ok
}

// ContentType returns a loaded content type.
func (rd *Reader) ContentType(id string) (model.ContentType, bool) {
	ct, ok := rd.r.contentTypes[id]
	return ct, ok
}

// GetReferentialEntries resolves the model, content type and field of a record.
func (rd *Reader) GetReferentialEntries(id int) (model.ReferentialEntries, bool) {
	rec, ok := rd.r.records[id]
	if !ok {
		return model.ReferentialEntries{}, false
	}
	m, ok := rd.r.models[rec.ModelID]
	if !ok {
		return model.ReferentialEntries{}, false
	}
	ct, ok := rd.r.contentTypes[m.ContentTypeID]
	if !ok {
		return model.ReferentialEntries{}, false
	}
	entries := model.ReferentialEntries{Record: rec, Model: m, ContentType: ct}
	if f, ok := ct.Field(rec.FieldID); ok {
		entries.Field = &f
	}
	return entries, true
}

// IsMovable reports whether the record is a sortable collection item.
func (rd *Reader) IsMovable(id int) bool {
	rec, ok := rd.r.records[id]
	if !ok || !rec.RecordType.IsItem() {
		return false
	}
	entries, ok := rd.GetReferentialEntries(id)
	if !ok || entries.Field == nil {
		return false
	}
	return entries.Field.IsSortable()
}

// GetMovableParentRecord resolves the closest movable record that carries
// id along when dragged: the record itself when it is an item, the repeat
// item a nested field lives in, or the node-selector item referencing a
// component.
func (rd *Reader) GetMovableParentRecord(id int) (int, bool) {
	rec, ok := rd.r.records[id]
	if !ok {
		return 0, false
	}
	if rec.RecordType.IsItem() {
		if rd.IsMovable(id) {
			return id, true
		}
		return 0, false
	}

	if rec.FieldID == "" {
		itemID, ok := rd.referencingItem(rec.ModelID)
		if ok && rd.IsMovable(itemID) {
			return itemID, true
		}
		return 0, false
	}

	// Field nested in a repeat item: walk up the field path.
	fieldID := rec.FieldID
	for strings.Contains(fieldID, ".") {
		fieldID = fieldID[:strings.LastIndex(fieldID, ".")]
		parts := rec.Index.Parts()
		depth := fieldDepth(fieldID)
		if len(parts) < depth {
			continue
		}
		props := model.ICEProps{ModelID: rec.ModelID, FieldID: fieldID, Index: model.IndexOf(parts[:depth]...)}
		if itemID, ok := rd.r.byProps[props]; ok && rd.IsMovable(itemID) {
			return itemID, true
		}
	}

	// Plain field of a component: the component moves with its item.
	itemID, ok := rd.referencingItem(rec.ModelID)
	if ok && rd.IsMovable(itemID) {
		return itemID, true
	}
	return 0, false
}

// referencingItem finds the node-selector item whose value is modelID.
func (rd *Reader) referencingItem(modelID string) (int, bool) {
	for _, id := range rd.r.sortedIDs() {
		rec := rd.r.records[id]
		if rec.RecordType != model.RecordNodeSelectorItem {
			continue
		}
		m, ok := rd.r.models[rec.ModelID]
		if !ok {
			continue
		}
		if v, ok := itemValue(m.Values, rec.FieldID, rec.Index); ok && v == modelID {
			return id, true
		}
	}
	return 0, false
}

// isCollectionRecord reports whether the record addresses a whole collection.
func (rd *Reader) isCollectionRecord(rec model.ICERecord) (model.ContentTypeField, bool) {
	if rec.RecordType != model.RecordField {
		return model.ContentTypeField{}, false
	}
	entries, ok := rd.GetReferentialEntries(rec.ID)
	if !ok || entries.Field == nil || !entries.Field.IsCollection() {
		return model.ContentTypeField{}, false
	}
	if len(rec.Index.Parts()) != fieldDepth(rec.FieldID)-1 {
		return model.ContentTypeField{}, false
	}
	return *entries.Field, true
}

// GetRecordDropTargets lists the collections an item may be moved to. Repeat
// items only sort within their own collection; node-selector items go to any
// collection accepting the referenced component's content type, except the
// ones inside the component itself.
func (rd *Reader) GetRecordDropTargets(id int) []model.ICERecord {
	entries, ok := rd.GetReferentialEntries(id)
	if !ok || entries.Field == nil || !entries.Record.RecordType.IsItem() {
		return nil
	}
	rec := entries.Record

	switch entries.Field.Type {
	case model.FieldRepeat:
		props := model.ICEProps{ModelID: rec.ModelID, FieldID: rec.FieldID, Index: rec.Index.Parent()}
		if cid, ok := rd.r.byProps[props]; ok {
			return []model.ICERecord{rd.r.records[cid]}
		}
		return nil
	case model.FieldNodeSelector:
		childID, ok := itemValue(entries.Model.Values, rec.FieldID, rec.Index)
		if !ok {
			return nil
		}
		child, ok := rd.r.models[childID]
		if !ok {
			return nil
		}
		return rd.GetContentTypeDropTargets(child.ContentTypeID, func(target model.ICERecord) bool {
			return rd.descendsFrom(target.ModelID, child.ID)
		}, nil)
	default:
		return nil
	}
}

// GetContentTypeDropTargets lists the node-selector collections accepting
// contentTypeID within one of scopes. Records for which exclude returns true
// are skipped.
func (rd *Reader) GetContentTypeDropTargets(contentTypeID string, exclude func(model.ICERecord) bool, scopes []string) []model.ICERecord {
	var out []model.ICERecord
	for _, id := range rd.r.sortedIDs() {
		rec := rd.r.records[id]
		field, ok := rd.isCollectionRecord(rec)
		if !ok || field.Type != model.FieldNodeSelector {
			continue
		}
		if !field.Validations.Allows(contentTypeID) || !field.Validations.AllowsAnyScope(scopes) {
			continue
		}
		if exclude != nil && exclude(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GetMediaDropTargets lists the fields of the given media field type.
func (rd *Reader) GetMediaDropTargets(mediaType string) []model.ICERecord {
	if mediaType == "" {
		return nil
	}
	var out []model.ICERecord
	for _, id := range rd.r.sortedIDs() {
		rec := rd.r.records[id]
		if rec.RecordType != model.RecordField {
			continue
		}
		entries, ok := rd.GetReferentialEntries(id)
		if !ok || entries.Field == nil || entries.Field.Type != mediaType {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// CollectionLength returns the number of items a collection record holds.
func (rd *Reader) CollectionLength(id int) int {
	rec, ok := rd.r.records[id]
	if !ok {
		return 0
	}
	m, ok := rd.r.models[rec.ModelID]
	if !ok {
		return 0
	}
	list, ok := collectionValue(m.Values, rec.FieldID, rec.Index)
	if !ok {
		return 0
	}
	return len(list)
}

// RunDropTargetsValidations evaluates every target as it stands.
func (rd *Reader) RunDropTargetsValidations(targets []model.ICERecord) model.ValidationsLookup {
	lookup := make(model.ValidationsLookup, len(targets))
	for _, t := range targets {
		lookup[t.ID] = validation.Collection(t.Validations, rd.CollectionLength(t.ID))
	}
	return lookup
}

// RunValidation evaluates one validation of a record for a candidate occupancy.
func (rd *Reader) RunValidation(id int, key model.ValidationKey, occupancy int) *model.ValidationResult {
	rec, ok := rd.r.records[id]
	if !ok {
		return nil
	}
	return validation.Check(key, rec.Validations, occupancy)
}

// FindChildRecord returns the component record referenced by a node-selector item.
func (rd *Reader) FindChildRecord(modelID, fieldID string, index model.ItemIndex) (model.ICERecord, bool) {
	m, ok := rd.r.models[modelID]
	if !ok {
		return model.ICERecord{}, false
	}
	childID, ok := itemValue(m.Values, fieldID, index)
	if !ok {
		return model.ICERecord{}, false
	}
	id, ok := rd.r.byProps[model.ICEProps{ModelID: childID}]
	if !ok {
		return model.ICERecord{}, false
	}
	return rd.r.records[id], true
}

// ModelPath returns the content path that stores modelID. Embedded components
// have no path of their own and live in their parent's file.
func (rd *Reader) ModelPath(modelID string) string {
	seen := map[string]bool{}
	for id := modelID; id != "" && !seen[id]; {
		seen[id] = true
		m, ok := rd.r.models[id]
		if !ok {
			return ""
		}
		if m.Path != "" {
			return m.Path
		}
		id = m.ParentID
	}
	return ""
}

// PathOf returns the content path owning an ICE record.
func (rd *Reader) PathOf(id int) string {
	rec, ok := rd.r.records[id]
	if !ok {
		return ""
	}
	return rd.ModelPath(rec.ModelID)
}

// AncestorPaths returns the distinct content paths of the record's model and
// every model above it, nearest first.
func (rd *Reader) AncestorPaths(id int) []string {
	rec, ok := rd.r.records[id]
	if !ok {
		return nil
	}
	var paths []string
	seen := map[string]bool{}
	for mid := rec.ModelID; mid != "" && !seen[mid]; {
		seen[mid] = true
		m, ok := rd.r.models[mid]
		if !ok {
			break
		}
		if m.Path != "" && (len(paths) == 0 || paths[len(paths)-1] != m.Path) {
			paths = append(paths, m.Path)
		}
		mid = m.ParentID
	}
	return paths
}

// descendsFrom reports whether modelID is ancestorID or nested below it.
func (rd *Reader) descendsFrom(modelID, ancestorID string) bool {
	seen := map[string]bool{}
	for id := modelID; id != "" && !seen[id]; {
		if id == ancestorID {
			return true
		}
		seen[id] = true
		m, ok := rd.r.models[id]
		if !ok {
			return false
		}
		id = m.ParentID
	}
	return false
}
