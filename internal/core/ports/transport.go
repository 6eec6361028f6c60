package ports

//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Conn is a line-oriented, bidirectional command channel with one caller.
type Conn interface {
	// ReadLine blocks until the next command line is available.
	// It returns io.EOF when the caller has finished sending.
	ReadLine() (string, error)
	// WriteLine writes one output line. It is safe for concurrent use.
	WriteLine(line string) error
	// Close releases the connection and unblocks a pending ReadLine.
	Close() error
}
