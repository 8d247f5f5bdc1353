package iceregistry

import (
	"fmt"
	"strings"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

// collectionValue walks model values down a dotted field id, stepping into
// repeat items with the index parts, and returns the list at the last field.
func collectionValue(values map[string]any, fieldID string, index model.ItemIndex) ([]any, bool) {
	if fieldID == "" {
		return nil, false
	}
	fields := strings.Split(fieldID, ".")
	idx := index.Parts()
	cur := values
	for i, f := range fields[:len(fields)-1] {
		list := asList(cur[f])
		if i >= len(idx) || idx[i] < 0 || idx[i] >= len(list) {
			return nil, false
		}
		m, ok := asMap(list[idx[i]])
		if !ok {
			return nil, false
		}
		cur = m
	}
	v, ok := cur[fields[len(fields)-1]]
	if !ok {
		return []any{}, true
	}
	return asList(v), true
}

// itemValue returns the model id stored in a node-selector item.
func itemValue(values map[string]any, fieldID string, index model.ItemIndex) (string, bool) {
	list, ok := collectionValue(values, fieldID, index)
	if !ok {
		return "", false
	}
	idx := index.Parts()
	if len(idx) == 0 {
		return "", false
	}
	last := idx[len(idx)-1]
	if last < 0 || last >= len(list) {
		return "", false
	}
	switch v := list[last].(type) {
	case string:
		return v, true
	case nil:
		return "", false
	default:
		if m, ok := asMap(v); ok {
			if id, ok := m["id"]; ok {
				return fmt.Sprint(id), true
			}
		}
		return "", false
	}
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}
