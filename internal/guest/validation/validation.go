// Package validation evaluates placement constraints (minCount/maxCount) of a
// collection against a candidate occupancy. Failures are values, not errors:
// the overlay paints them and the state machine flags the drop as invalid.
package validation

import (
	"fmt"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

// MinCount fails when occupancy is below min.
func MinCount(min, occupancy int) *model.ValidationResult {
	if occupancy >= min {
		return nil
	}
	return &model.ValidationResult{
		ID:      model.ValidationMinCount,
		Level:   model.LevelRequired,
		Message: fmt.Sprintf("At least %d %s required", min, items(min)),
		Values:  map[string]int{"minCount": min, "occupancy": occupancy},
	}
}

// MaxCount fails when occupancy exceeds max.
func MaxCount(max, occupancy int) *model.ValidationResult {
	if occupancy <= max {
		return nil
	}
	return &model.ValidationResult{
		ID:      model.ValidationMaxCount,
		Level:   model.LevelRequired,
		Message: fmt.Sprintf("No more than %d %s allowed", max, items(max)),
		Values:  map[string]int{"maxCount": max, "occupancy": occupancy},
	}
}

func items(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}

// Check runs one validation by key. Undeclared constraints and unknown keys pass.
func Check(key model.ValidationKey, v model.FieldValidations, occupancy int) *model.ValidationResult {
	switch key {
	case model.ValidationMinCount:
		if v.MinCount == nil {
			return nil
		}
		return MinCount(*v.MinCount, occupancy)
	case model.ValidationMaxCount:
		if v.MaxCount == nil {
			return nil
		}
		return MaxCount(*v.MaxCount, occupancy)
	default:
		return nil
	}
}

// Collection evaluates a collection holding count items as a drop target:
// minCount against the current count and maxCount against count+1 (the state
// after a drop).
func Collection(v model.FieldValidations, count int) model.Validations {
	out := model.Validations{}
	if r := Check(model.ValidationMinCount, v, count); r != nil {
		out[model.ValidationMinCount] = *r
	}
	if r := Check(model.ValidationMaxCount, v, count+1); r != nil {
		out[model.ValidationMaxCount] = *r
	}
	return out
}

// EnterOccupancy is the number of items a zone would hold if the dragged item
// were dropped in it. When sorting inside the origin zone the item is already
// counted among the children.
func EnterOccupancy(children int, sortingInOrigin bool) int {
	n := children + 1
	if sortingInOrigin {
		n--
	}
	return n
}

// LeaveOccupancy is the number of items a zone keeps once the dragged item
// leaves it. Only the origin zone loses an item.
func LeaveOccupancy(children int, sortingInOrigin bool) int {
	if sortingInOrigin {
		return children - 1
	}
	return children
}

// Merge returns base without key, plus result under key when non-nil.
func Merge(base model.Validations, key model.ValidationKey, result *model.ValidationResult) model.Validations {
	out := base.Clone()
	delete(out, key)
	if result != nil {
		out[key] = *result
	}
	return out
}
