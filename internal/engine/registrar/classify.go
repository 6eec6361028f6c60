package registrar

import (
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
)

// Classify maps a raw notification kind onto the event type delivered to callers.
// The second result is false for kinds that are never observable, such as the
// source side of a rename.
func Classify(op ports.WatchOp) (domain.EventType, bool) {
	switch op {
	case ports.OpCreate:
		return domain.EventCreate, true
	case ports.OpWrite, ports.OpChmod:
		return domain.EventChange, true
	case ports.OpRemove:
		return domain.EventDelete, true
	case ports.OpUnknown, ports.OpRename:
		return 0, false
	default:
		return 0, false
	}
}
