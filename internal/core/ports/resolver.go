package ports

import "go.trai.ch/cheetah/internal/core/domain"

// PathResolver turns glob patterns into concrete paths to watch.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type PathResolver interface {
	// Resolve expands opts.Patterns relative to opts.Cwd, removes anything matched by
	// opts.Ignores and reports per-pattern diagnostics. Only an unusable working
	// directory is returned as an error.
	Resolve(opts domain.RegisterOptions) (*domain.Resolution, error)
}
