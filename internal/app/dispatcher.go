package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.trai.ch/cheetah/internal/adapters/protocol"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/cheetah/internal/engine/registrar"
	"golang.org/x/sync/errgroup"
)

// dispatcher reads commands from one connection and forwards the event
// streams of the sessions it registered back to it.
//
// Commands are handled one at a time; each session's stream is drained by its
// own forwarder goroutine.
type dispatcher struct {
	conn      ports.Conn
	registrar *registrar.Registrar
	resolver  ports.PathResolver
	logger    ports.Logger

	group      *errgroup.Group
	forwarders map[uint64]<-chan struct{}
}

func newDispatcher(
	conn ports.Conn,
	reg *registrar.Registrar,
	resolver ports.PathResolver,
	logger ports.Logger,
) *dispatcher {
	return &dispatcher{
		conn:       conn,
		registrar:  reg,
		resolver:   resolver,
		logger:     logger,
		forwarders: make(map[uint64]<-chan struct{}),
	}
}

func (d *dispatcher) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	d.group = g

	// Closing the connection unblocks a pending ReadLine.
	stop := context.AfterFunc(gctx, func() {
		_ = d.conn.Close()
	})
	defer stop()

	g.Go(func() error {
		defer d.shutdown()

		for {
			line, err := d.conn.ReadLine()
			if err != nil {
				if errors.Is(err, io.EOF) || gctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := d.handle(gctx, line); err != nil {
				return err
			}
		}
	})

	return g.Wait()
}

// shutdown tears down every session of the connection. Forwarders exit once
// their streams are closed.
func (d *dispatcher) shutdown() {
	if n := d.registrar.Len(); n > 0 {
		d.logger.Debug(fmt.Sprintf("connection closed with %d active sessions", n))
	}
	if err := d.registrar.Close(); err != nil {
		d.logger.Error(err)
	}
}

// handle executes one command line. Command failures are reported to the
// caller as diagnostics; only transport failures are returned.
func (d *dispatcher) handle(ctx context.Context, line string) error {
	cmd, err := protocol.Decode(line)
	if err != nil {
		return d.reply(err)
	}

	switch {
	case cmd.Register != nil:
		return d.register(ctx, *cmd.Register)
	case cmd.Unregister != nil:
		return d.unregister(ctx, *cmd.Unregister)
	default:
		return d.reply(domain.ErrUnknownCommand)
	}
}

func (d *dispatcher) register(ctx context.Context, opts domain.RegisterOptions) error {
	res, err := d.resolver.Resolve(opts)
	if err != nil {
		return d.reply(err)
	}

	for _, line := range protocol.ResolutionLines(res) {
		if err := d.conn.WriteLine(line); err != nil {
			return err
		}
	}

	events, err := d.registrar.Register(ctx, opts, res.Paths)
	if err != nil {
		return d.reply(err)
	}

	done := make(chan struct{})
	d.forwarders[opts.UID] = done
	d.group.Go(func() error {
		defer close(done)
		return d.forward(events)
	})
	return nil
}

// unregister returns once the session's forwarder has written its last event.
func (d *dispatcher) unregister(ctx context.Context, uid uint64) error {
	if err := d.registrar.Unregister(ctx, uid); err != nil {
		return d.reply(err)
	}

	if done, ok := d.forwarders[uid]; ok {
		<-done
		delete(d.forwarders, uid)
	}
	return nil
}

func (d *dispatcher) forward(events <-chan domain.FSEvent) error {
	for event := range events {
		line, err := protocol.EncodeEvent(event)
		if err != nil {
			d.logger.Error(err)
			continue
		}
		if err := d.conn.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// reply writes a command failure as a diagnostic line.
func (d *dispatcher) reply(err error) error {
	d.logger.Debug(fmt.Sprintf("command failed: %v", err))
	return d.conn.WriteLine(protocol.FormatDiagnostic(err))
}
