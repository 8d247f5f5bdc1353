package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventType machine.EventType
		payload   any
		want      machine.Event
	}{
		{
			name:      "bare record id",
			eventType: machine.EventMouseOver,
			payload:   map[string]any{"record": 5},
			want:      machine.MouseOver{Record: 5},
		},
		{
			name:      "record object",
			eventType: machine.EventDragStart,
			payload:   map[string]any{"record": map[string]any{"id": 7, "label": "Feature"}},
			want:      machine.DragStart{Record: 7},
		},
		{
			name:      "weakly typed id",
			eventType: machine.EventDropzoneEnter,
			payload:   map[string]any{"elementRecordId": "3"},
			want:      machine.DropzoneEnter{ElementRecordID: 3},
		},
		{
			name:      "nested pointer position",
			eventType: machine.EventComputedDragOver,
			payload:   map[string]any{"record": 2, "event": map[string]any{"clientX": 10.5, "clientY": 20}},
			want:      machine.ComputedDragOver{Record: 2, ClientX: 10.5, ClientY: 20},
		},
		{
			name:      "flat pointer position",
			eventType: machine.EventComputedDragOver,
			payload:   map[string]any{"record": 2, "clientX": 1, "clientY": 2},
			want:      machine.ComputedDragOver{Record: 2, ClientX: 1, ClientY: 2},
		},
		{
			name:      "lock with user",
			eventType: machine.EventLockContentEvent,
			payload:   map[string]any{"locked": true, "user": map[string]any{"username": "bob"}, "targetPath": "/site/a.xml"},
			want:      machine.LockContentEvent{Locked: true, User: model.User{Username: "bob"}, TargetPath: "/site/a.xml"},
		},
		{
			name:      "switch direction",
			eventType: machine.EventContentTreeSwitchFieldInstance,
			payload:   map[string]any{"type": "next"},
			want:      machine.ContentTreeSwitchFieldInstance{Direction: "next"},
		},
		{
			name:      "numeric index",
			eventType: machine.EventContentTreeFieldSelected,
			payload:   map[string]any{"iceProps": map[string]any{"modelId": "page-1", "fieldId": "sections_o", "index": 0}},
			want:      machine.ContentTreeFieldSelected{ICEProps: model.ICEProps{ModelID: "page-1", FieldID: "sections_o", Index: "0"}},
		},
		{
			name:      "optional edit mode",
			eventType: machine.EventSetEditMode,
			payload:   map[string]any{"highlightMode": "MOVE_TARGETS"},
			want:      machine.SetEditMode{HighlightMode: machine.HighlightMoveTargets},
		},
		{
			name:      "no payload",
			eventType: machine.EventComputedDragEnd,
			want:      machine.ComputedDragEnd{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := machine.DecodeEvent(tt.eventType, tt.payload)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := machine.DecodeEvent("bogus", nil)
	require.ErrorIs(t, err, machine.ErrUnknownEvent)

	_, err = machine.DecodeEvent(machine.EventMouseOver, map[string]any{"record": "not-a-number"})
	require.ErrorIs(t, err, machine.ErrInvalidPayload)
	require.ErrorContains(t, err, "mouseover")
}

func TestEventTypes_DecodeToMatchingEvent(t *testing.T) {
	types := machine.EventTypes()
	require.NotEmpty(t, types)
	for _, et := range types {
		ev, err := machine.DecodeEvent(et, nil)
		require.NoError(t, err, et)
		require.Equal(t, et, ev.Type())
	}
}

func TestIsInteractive(t *testing.T) {
	require.True(t, machine.IsInteractive(machine.MouseOver{}))
	require.True(t, machine.IsInteractive(machine.DropzoneEnter{}))
	require.False(t, machine.IsInteractive(machine.HostCheckIn{}))
	require.False(t, machine.IsInteractive(machine.SetLockedItems{}))
}
