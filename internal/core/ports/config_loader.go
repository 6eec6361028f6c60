package ports

import "go.trai.ch/cheetah/internal/core/domain"

// ConfigLoader defines the interface for loading the service configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path on top of domain.DefaultConfig.
	// An empty path returns the defaults.
	Load(path string) (domain.Config, error)
}
