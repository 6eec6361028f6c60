package registrar

import (
	"errors"

	"go.trai.ch/cheetah/internal/core/domain"
)

// batch accumulates classified notifications for one debounce window.
// Entries are keyed by interned path and drained in first-seen order.
//
// The interest filter applies to each notification on arrival, so a pending
// entry only ever holds a wanted event type.
type batch struct {
	wants    func(domain.EventType) bool
	order    []domain.InternedString
	pending  map[domain.InternedString]domain.EventType
	errs     []error
	raw      int
	filtered int
}

func newBatch(wants func(domain.EventType) bool) *batch {
	return &batch{
		wants:   wants,
		pending: make(map[domain.InternedString]domain.EventType),
	}
}

// add records a classified notification for path, coalescing with any
// notification already pending for the same path.
func (b *batch) add(path string, eventType domain.EventType) {
	b.raw++
	if !b.wants(eventType) {
		b.filtered++
		return
	}
	key := domain.NewInternedString(path)

	prev, ok := b.pending[key]
	if !ok {
		b.pending[key] = eventType
		b.order = append(b.order, key)
		return
	}

	next, keep := coalesce(prev, eventType)
	if !keep {
		delete(b.pending, key)
		return
	}
	if !b.wants(next) {
		// A replaced file folds into a change; without interest in changes
		// the latest notification is what the caller asked for.
		next = eventType
	}
	b.pending[key] = next
}

// touch counts a notification that carried nothing observable.
func (b *batch) touch() {
	b.raw++
}

// fail records a primitive failure. A failed batch emits nothing.
func (b *batch) fail(err error) {
	b.errs = append(b.errs, err)
}

// err returns the joined primitive failures of the window, if any.
func (b *batch) err() error {
	return errors.Join(b.errs...)
}

// size reports how many raw notifications arrived during the window.
func (b *batch) size() int {
	return b.raw
}

// drain returns the pending events and the number of notifications the
// interest filter rejected, then resets the batch for the next window.
func (b *batch) drain(uid uint64) ([]domain.FSEvent, int) {
	events := make([]domain.FSEvent, 0, len(b.pending))
	filtered := b.filtered

	for _, key := range b.order {
		eventType, ok := b.pending[key]
		if !ok {
			continue
		}
		// A path re-added after a transient create/delete appears twice in order.
		delete(b.pending, key)

		events = append(events, domain.FSEvent{
			UID:       uid,
			EventType: eventType,
			Path:      key.String(),
		})
	}

	b.reset()
	return events, filtered
}

// reset discards everything accumulated during the window.
func (b *batch) reset() {
	clear(b.pending)
	b.order = b.order[:0]
	b.errs = nil
	b.raw = 0
	b.filtered = 0
}

// coalesce folds a new notification into the one already pending for a path.
// keep is false when the two cancel out.
func coalesce(prev, next domain.EventType) (merged domain.EventType, keep bool) {
	switch next {
	case domain.EventDelete:
		if prev == domain.EventCreate {
			return 0, false
		}
		return domain.EventDelete, true
	case domain.EventCreate:
		if prev == domain.EventDelete {
			return domain.EventChange, true
		}
		return domain.EventCreate, true
	case domain.EventChange:
		if prev == domain.EventCreate {
			return domain.EventCreate, true
		}
		return domain.EventChange, true
	default:
		return prev, true
	}
}
