package domain

// EventType is the classified kind of a filesystem change delivered to callers.
type EventType uint8

const (
	// EventCreate indicates a path was created.
	EventCreate EventType = iota + 1
	// EventChange indicates a path's content or metadata was modified.
	EventChange
	// EventDelete indicates a path was removed.
	EventDelete
)

// AllEventTypes returns every event type in protocol order.
func AllEventTypes() []EventType {
	return []EventType{EventCreate, EventChange, EventDelete}
}

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventChange:
		return "change"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	switch t {
	case EventCreate, EventChange, EventDelete:
		return []byte(t.String()), nil
	default:
		return nil, Tag(ErrUnknownEventType, "event_type", int(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Only the three wire names are accepted.
func (t *EventType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "create":
		*t = EventCreate
	case "change":
		*t = EventChange
	case "delete":
		*t = EventDelete
	default:
		return Tag(ErrUnknownEventType, "event_type", string(text))
	}
	return nil
}

// FSEvent is a classified change for one session, ready for delivery.
type FSEvent struct {
	UID       uint64    `json:"uid"`
	EventType EventType `json:"event_type"`
	Path      string    `json:"path"`
}
