package app_test

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

var errConnClosed = errors.New("connection closed")

// fakeConn is an in-memory ports.Conn. Tests feed commands through send and
// read output lines through next.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *fakeConn) WriteLine(line string) error {
	select {
	case c.out <- line:
		return nil
	case <-c.closed:
		return errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(t *testing.T, line string) {
	t.Helper()
	select {
	case c.in <- line:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out sending %q", line)
	}
}

func (c *fakeConn) next(t *testing.T) string {
	t.Helper()
	select {
	case line := <-c.out:
		return line
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for output line")
		return ""
	}
}

// finish signals end of input.
func (c *fakeConn) finish() {
	close(c.in)
}
