// Package iceregistry is the semantic index of editable entries: which model,
// field and item every ICE id stands for, which content types a collection
// accepts and where a record may be moved.
//
// The registry is an arena keyed by integer id. Records, models and content
// types point at each other through ids only. Mutations (Register, PutModels,
// SetContentTypes) belong to the mount lifecycle; the editing state machine
// only reads through a Reader obtained from Read.
package iceregistry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

var (
	// ErrUnknownModel is returned when registering against a model that was never loaded.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnknownContentType is returned when a model's content type is not loaded.
	ErrUnknownContentType = errors.New("unknown content type")
	// ErrUnknownField is returned when the field id is not declared by the content type.
	ErrUnknownField = errors.New("unknown field")
)

// Registry owns ICE records, models and content types.
type Registry struct {
	mu           sync.RWMutex
	nextID       int
	records      map[int]model.ICERecord
	byProps      map[model.ICEProps]int
	models       map[string]model.Model
	contentTypes map[string]model.ContentType
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records:      make(map[int]model.ICERecord),
		byProps:      make(map[model.ICEProps]int),
		models:       make(map[string]model.Model),
		contentTypes: make(map[string]model.ContentType),
	}
}

// SetContentTypes merges content type definitions into the registry.
func (r *Registry) SetContentTypes(contentTypes map[string]model.ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ct := range contentTypes {
		if ct.ID == "" {
			ct.ID = id
		}
		r.contentTypes[ct.ID] = ct
	}
}

// PutModels adds or replaces content models.
func (r *Registry) PutModels(models ...model.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		r.models[m.ID] = m
	}
}

// Register indexes an editable entry and returns its id. Registering the
// same props twice returns the existing id.
func (r *Registry) Register(props model.ICEProps) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byProps[props]; ok {
		return id, nil
	}

	m, ok := r.models[props.ModelID]
	if !ok {
		return 0, fmt.Errorf("register %s: %w", props.ModelID, ErrUnknownModel)
	}
	ct, ok := r.contentTypes[m.ContentTypeID]
	if !ok {
		return 0, fmt.Errorf("register %s: %s: %w", props.ModelID, m.ContentTypeID, ErrUnknownContentType)
	}

	rec := model.ICERecord{
		ModelID:    props.ModelID,
		FieldID:    props.FieldID,
		Index:      props.Index,
		RecordType: model.RecordComponent,
	}
	if props.FieldID != "" {
		field, ok := ct.Field(props.FieldID)
		if !ok {
			return 0, fmt.Errorf("register %s.%s: %w", props.ModelID, props.FieldID, ErrUnknownField)
		}
		rec.RecordType = recordTypeOf(field, props)
		rec.Validations = field.Validations
	}

	r.nextID++
	rec.ID = r.nextID
	r.records[rec.ID] = rec
	r.byProps[props] = rec.ID
	return rec.ID, nil
}

// Deregister removes a record. Unknown ids are ignored.
func (r *Registry) Deregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	delete(r.records, id)
	delete(r.byProps, rec.Props())
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Read acquires a consistent read view. The returned function releases it
// and must be called exactly once.
func (r *Registry) Read() (*Reader, func()) {
	r.mu.RLock()
	return &Reader{r: r}, r.mu.RUnlock
}

func fieldDepth(fieldID string) int {
	return strings.Count(fieldID, ".") + 1
}

func recordTypeOf(field model.ContentTypeField, props model.ICEProps) model.RecordType {
	if field.IsCollection() && len(props.Index.Parts()) == fieldDepth(props.FieldID) {
		if field.Type == model.FieldRepeat {
			return model.RecordRepeatItem
		}
		return model.RecordNodeSelectorItem
	}
	return model.RecordField
}

// sortedIDs returns record ids in registration order.
func (r *Registry) sortedIDs() []int {
	ids := make([]int, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
