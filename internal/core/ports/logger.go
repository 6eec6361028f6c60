package ports

import "go.trai.ch/cheetah/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error)
	// SetLevel changes the minimum level that is emitted.
	SetLevel(level domain.LogLevel)
	// SetJSON switches between JSON and pretty output.
	SetJSON(enable bool)
}
