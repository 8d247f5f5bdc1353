// Package scenario loads a page fixture and an event script from YAML and
// replays the script through a bridge.
//
// A scenario names its page either inline (fixture) or as a file relative
// to the scenario (page). Payload strings of the form "@name" are replaced
// with the element record id of the named element before decoding:
//
//	name: sort a feature
//	page: home.yaml
//	steps:
//	  - event: hostCheckIn
//	    payload: {editMode: true, username: alice}
//	  - event: dragstart
//	    payload: {record: "@feat-2"}
//	  - pointer: {x: 10, y: 650}
//	  - event: computedDragEnd
//	expect:
//	  status: LISTENING
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/page"
)

var (
	// ErrUnknownNode is returned when a step references an element the page
	// does not have.
	ErrUnknownNode = errors.New("unknown node reference")
	// ErrInvalidStep is returned for a step that is neither an event nor a
	// pointer sample.
	ErrInvalidStep = errors.New("invalid step")
	// ErrNoPage is returned when a scenario has neither fixture nor page.
	ErrNoPage = errors.New("scenario has no page")
)

// refPrefix marks a payload string as an element reference.
const refPrefix = "@"

// Point is a pointer sample in viewport coordinates.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Step is one scripted input: an event with its payload, or a pointer
// sample.
type Step struct {
	Event   machine.EventType `yaml:"event,omitempty"`
	Payload any               `yaml:"payload,omitempty"`
	Pointer *Point            `yaml:"pointer,omitempty"`
}

// Expect lists assertions checked against the final state. Unset fields are
// not checked.
type Expect struct {
	Status        machine.Status `yaml:"status,omitempty"`
	HostCheckedIn *bool          `yaml:"hostCheckedIn,omitempty"`
	Dragging      *bool          `yaml:"dragging,omitempty"`
	InvalidDrop   *bool          `yaml:"invalidDrop,omitempty"`
	// Highlighted names the elements expected to be highlighted, in any order.
	Highlighted []string `yaml:"highlighted,omitempty"`
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Name    string        `yaml:"name"`
	Page    string        `yaml:"page,omitempty"`
	Fixture *page.Fixture `yaml:"fixture,omitempty"`
	Steps   []Step        `yaml:"steps"`
	Expect  *Expect       `yaml:"expect,omitempty"`

	// dir resolves Page; empty for scenarios parsed from memory.
	dir string
}

// Parse decodes a scenario and validates its steps.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

// ReadFile parses the scenario at path. Page paths resolve against the
// scenario's directory.
func ReadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// PagePath returns the resolved path of the page fixture file, empty when
// the fixture is inline.
func (sc *Scenario) PagePath() string {
	if sc.Fixture != nil || sc.Page == "" {
		return ""
	}
	if filepath.IsAbs(sc.Page) || sc.dir == "" {
		return sc.Page
	}
	return filepath.Join(sc.dir, sc.Page)
}

func (s Step) validate() error {
	switch {
	case s.Event != "" && s.Pointer != nil:
		return fmt.Errorf("%w: both event and pointer", ErrInvalidStep)
	case s.Event == "" && s.Pointer == nil:
		return fmt.Errorf("%w: neither event nor pointer", ErrInvalidStep)
	case s.Pointer != nil && s.Payload != nil:
		return fmt.Errorf("%w: pointer steps take no payload", ErrInvalidStep)
	}
	return nil
}

// resolveRefs returns a copy of payload with "@name" strings replaced by the
// element record ids of p.
func resolveRefs(payload any, p *page.Page) (any, error) {
	switch v := payload.(type) {
	case string:
		name, ok := strings.CutPrefix(v, refPrefix)
		if !ok {
			return v, nil
		}
		id, ok := p.Element(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, v)
		}
		return id, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := resolveRefs(item, p)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := resolveRefs(item, p)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// event decodes the step's event against p.
func (s Step) event(p *page.Page) (machine.Event, error) {
	payload, err := resolveRefs(s.Payload, p)
	if err != nil {
		return nil, err
	}
	return machine.DecodeEvent(s.Event, payload)
}
