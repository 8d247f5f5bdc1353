package machine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var (
	// ErrUnknownEvent is returned when decoding an event type the machine does not handle.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrInvalidPayload is returned when a payload does not fit its event.
	ErrInvalidPayload = errors.New("invalid event payload")
)

var decoders = map[EventType]func(payload any) (Event, error){
	EventMouseOver:                      decodeInto[MouseOver],
	EventMouseLeave:                     decodeInto[MouseLeave],
	EventDblClick:                       decodeInto[DblClick],
	EventDragStart:                      decodeInto[DragStart],
	EventDragLeave:                      decodeInto[DragLeave],
	EventComputedDragOver:               decodeDragOver,
	EventComputedDragEnd:                decodeInto[ComputedDragEnd],
	EventSetDropPosition:                decodeInto[SetDropPosition],
	EventEditComponentInline:            decodeInto[EditComponentInline],
	EventExitComponentInlineEdit:        decodeInto[ExitComponentInlineEdit],
	EventICEZoneSelected:                decodeInto[ICEZoneSelected],
	EventStartListening:                 decodeInto[StartListening],
	EventScrolling:                      decodeInto[Scrolling],
	EventScrollingStopped:               decodeInto[ScrollingStopped],
	EventDropzoneEnter:                  decodeInto[DropzoneEnter],
	EventDropzoneLeave:                  decodeInto[DropzoneLeave],
	EventSetEditMode:                    decodeInto[SetEditMode],
	EventSetPreviewEditMode:             decodeInto[SetPreviewEditMode],
	EventHighlightModeChanged:           decodeInto[HighlightModeChanged],
	EventContentTypeDropTargetsRequest:  decodeInto[ContentTypeDropTargetsRequest],
	EventClearHighlightedDropTargets:    decodeInto[ClearHighlightedDropTargets],
	EventDesktopAssetUploadStarted:      decodeInto[DesktopAssetUploadStarted],
	EventDesktopAssetUploadProgress:     decodeInto[DesktopAssetUploadProgress],
	EventDesktopAssetUploadComplete:     decodeInto[DesktopAssetUploadComplete],
	EventDesktopAssetUploadFailed:       decodeInto[DesktopAssetUploadFailed],
	EventComponentDragStarted:           decodeInto[ComponentDragStarted],
	EventComponentInstanceDragStarted:   decodeInto[ComponentInstanceDragStarted],
	EventDesktopAssetDragStarted:        decodeInto[DesktopAssetDragStarted],
	EventAssetDragStarted:               decodeInto[AssetDragStarted],
	EventSetEditingStatus:               decodeInto[SetEditingStatus],
	EventContentTreeFieldSelected:       decodeInto[ContentTreeFieldSelected],
	EventContentTreeSwitchFieldInstance: decodeInto[ContentTreeSwitchFieldInstance],
	EventClearContentTreeFieldSelected:  decodeInto[ClearContentTreeFieldSelected],
	EventHostCheckIn:                    decodeInto[HostCheckIn],
	EventUpdateRTEConfig:                decodeInto[UpdateRTEConfig],
	EventSetEditModePadding:             decodeInto[SetEditModePadding],
	EventContentEvent:                   decodeInto[ContentEvent],
	EventLockContentEvent:               decodeInto[LockContentEvent],
	EventSetLockedItems:                 decodeInto[SetLockedItems],
	EventFetchGuestModelComplete:        decodeInto[FetchGuestModelComplete],
	EventContentTypesResponse:           decodeInto[ContentTypesResponse],
}

// EventTypes returns every event type DecodeEvent accepts.
func EventTypes() []EventType {
	out := make([]EventType, 0, len(decoders))
	for t := range decoders {
		out = append(out, t)
	}
	return out
}

// DecodeEvent builds a typed event from a loosely typed payload, as received
// from the host (decoded JSON) or read from a script (decoded YAML).
// Element references may be given as a bare id or as an object with an id.
func DecodeEvent(eventType EventType, payload any) (Event, error) {
	dec, ok := decoders[eventType]
	if !ok {
		return nil, fmt.Errorf("%s: %w", eventType, ErrUnknownEvent)
	}
	ev, err := dec(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", eventType, ErrInvalidPayload, err)
	}
	return ev, nil
}

func decodeInto[E Event](payload any) (Event, error) {
	var ev E
	if payload == nil {
		return ev, nil
	}
	if err := decode(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// decodeDragOver accepts the pointer position either flat or nested under
// "event" the way the browser event is forwarded.
func decodeDragOver(payload any) (Event, error) {
	var ev ComputedDragOver
	if payload == nil {
		return ev, nil
	}
	if err := decode(payload, &ev); err != nil {
		return nil, err
	}
	if m, ok := payload.(map[string]any); ok {
		if nested, ok := m["event"]; ok {
			var pos struct {
				ClientX float64 `json:"clientX"`
				ClientY float64 `json:"clientY"`
			}
			if err := decode(nested, &pos); err != nil {
				return nil, err
			}
			ev.ClientX, ev.ClientY = pos.ClientX, pos.ClientY
		}
	}
	return ev, nil
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       referenceHook,
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// referenceHook flattens object references into their key: {id: 5} into 5
// for ids and {username: "bob"} into "bob" for names.
func referenceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Map {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.String:
	default:
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	for _, key := range []string{"id", "username"} {
		if v, ok := m[key]; ok {
			return v, nil
		}
	}
	return data, nil
}
