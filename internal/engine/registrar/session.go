package registrar

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
)

// session owns one watcher and the goroutine that debounces its notifications.
//
// The worker moves between three states: idle (no timer armed), accumulating
// (timer armed, every notification re-arms it) and flushing (timer fired, the
// batch is delivered before the next notification is read).
type session struct {
	opts    domain.RegisterOptions
	paths   []string
	watcher ports.Watcher
	logger  ports.Logger
	tracer  ports.Tracer

	out    chan domain.FSEvent
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the worker goroutine; read only after done is closed.
	delivered     int
	failedFlushes int
}

func newSession(
	opts domain.RegisterOptions,
	paths []string,
	watcher ports.Watcher,
	logger ports.Logger,
	tracer ports.Tracer,
) *session {
	return &session{
		opts:    opts,
		paths:   paths,
		watcher: watcher,
		logger:  logger,
		tracer:  tracer,
		out:     make(chan domain.FSEvent),
		done:    make(chan struct{}),
	}
}

// start launches the worker. The worker outlives the registering request.
func (s *session) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// stop signals the worker, unsubscribes every path and waits for the worker to exit.
// No event is sent on the stream once stop returns.
func (s *session) stop() error {
	s.cancel()
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)

	pending := newBatch(s.opts.Wants)
	events := s.watcher.Events()
	errs := s.watcher.Errors()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	// arm (re)starts the trailing-edge window.
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(s.opts.Debounce)
		} else {
			timer.Reset(s.opts.Debounce)
		}
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.accumulate(pending, event)
			arm()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			pending.fail(err)
			arm()

		case <-fire:
			fire = nil
			if !s.flush(ctx, pending) {
				return
			}
		}
	}
}

// accumulate classifies a raw notification into the pending batch.
// Unclassifiable kinds and notifications without a path still extend the window.
func (s *session) accumulate(pending *batch, event ports.WatchEvent) {
	if event.Path == "" {
		pending.touch()
		return
	}
	eventType, ok := Classify(event.Operation)
	if !ok {
		pending.touch()
		return
	}
	pending.add(event.Path, eventType)
}

// flush delivers the pending batch. It returns false when the session was
// stopped mid-flush.
func (s *session) flush(ctx context.Context, pending *batch) bool {
	_, span := s.tracer.Start(ctx, "session.flush")
	defer span.End()
	span.SetAttribute("uid", s.opts.UID)
	span.SetAttribute("notifications", pending.size())

	if err := pending.err(); err != nil {
		s.failedFlushes++
		span.RecordError(err)
		s.logger.Warn(fmt.Sprintf(
			"session %d: dropped %d notifications after watcher error: %v",
			s.opts.UID, pending.size(), err,
		))
		pending.reset()
		return true
	}

	events, filtered := pending.drain(s.opts.UID)
	span.SetAttribute("events", len(events))
	span.SetAttribute("dropped", filtered)

	for _, event := range events {
		// Teardown wins over a ready consumer.
		if ctx.Err() != nil {
			return false
		}
		select {
		case s.out <- event:
			s.delivered++
		case <-ctx.Done():
			return false
		}
	}
	return true
}
