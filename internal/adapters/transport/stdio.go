// Package transport provides line-oriented command channels over stdio and websockets.
package transport

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
)

var _ ports.Conn = (*Stdio)(nil)

// maxLineSize bounds a single command line.
const maxLineSize = 1 << 20

// Stdio reads commands from one stream and writes output lines to another.
//
// Lines are scanned by a background goroutine started on the first ReadLine,
// so Close ends a pending ReadLine even when the input cannot be interrupted,
// as with a terminal. That goroutine stays parked in Read until the stream
// yields or the process exits.
type Stdio struct {
	in      io.Reader
	scanner *bufio.Scanner
	lines   chan scanResult
	scan    sync.Once

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu  sync.Mutex
	out *bufio.Writer
}

type scanResult struct {
	line string
	err  error
}

// NewStdio returns a Conn reading lines from in and writing lines to out.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stdio{
		in:      in,
		scanner: scanner,
		lines:   make(chan scanResult),
		closed:  make(chan struct{}),
		out:     bufio.NewWriter(out),
	}
}

// ReadLine returns the next non-empty line, without its terminator.
// After Close it returns io.EOF.
func (s *Stdio) ReadLine() (string, error) {
	s.scan.Do(func() { go s.readLoop() })

	for {
		select {
		case <-s.closed:
			return "", io.EOF
		default:
		}

		select {
		case <-s.closed:
			return "", io.EOF
		case res, ok := <-s.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", domain.Wrap(domain.ErrTransportRead, res.err)
			}
			line := strings.TrimRight(res.line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			return line, nil
		}
	}
}

func (s *Stdio) readLoop() {
	defer close(s.lines)

	for s.scanner.Scan() {
		select {
		case s.lines <- scanResult{line: s.scanner.Text()}:
		case <-s.closed:
			return
		}
	}
	if err := s.scanner.Err(); err != nil {
		select {
		case s.lines <- scanResult{err: err}:
		case <-s.closed:
		}
	}
}

// WriteLine writes line followed by a newline and flushes it.
func (s *Stdio) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.WriteString(line); err != nil {
		return domain.Wrap(domain.ErrTransportWrite, err)
	}
	if err := s.out.WriteByte('\n'); err != nil {
		return domain.Wrap(domain.ErrTransportWrite, err)
	}
	if err := s.out.Flush(); err != nil {
		return domain.Wrap(domain.ErrTransportWrite, err)
	}
	return nil
}

// Close ends any pending ReadLine and closes the input stream when it can be
// closed. It is safe to call more than once.
func (s *Stdio) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if c, ok := s.in.(io.Closer); ok {
			s.closeErr = c.Close()
		}
	})
	return s.closeErr
}
