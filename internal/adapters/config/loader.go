// Package config provides the configuration loader for cheetah.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration file at path on top of the defaults.
// An empty path returns the defaults.
func (l *Loader) Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return cfg, zerr.With(domain.Wrap(domain.ErrConfigReadFailed, err), "path", path)
	}

	file, err := parse(data)
	if err != nil {
		return cfg, zerr.With(domain.Wrap(domain.ErrConfigParseFailed, err), "path", path)
	}

	if err := apply(&cfg, file); err != nil {
		return cfg, zerr.With(err, "path", path)
	}

	l.logger.Debug("loaded configuration from " + path)
	return cfg, nil
}

func parse(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &file, nil
}

// apply overlays the values present in file onto cfg.
//
//nolint:cyclop // one branch per optional key
func apply(cfg *domain.Config, file *File) error {
	if file.Log != nil {
		if file.Log.Level != nil {
			level, ok := domain.ParseLogLevel(*file.Log.Level)
			if !ok {
				return zerr.With(domain.Tag(domain.ErrInvalidConfig, "key", "log.level"), "value", *file.Log.Level)
			}
			cfg.Log.Level = level
		}
		if file.Log.Format != nil {
			format, ok := domain.ParseLogFormat(*file.Log.Format)
			if !ok {
				return zerr.With(domain.Tag(domain.ErrInvalidConfig, "key", "log.format"), "value", *file.Log.Format)
			}
			cfg.Log.Format = format
		}
	}

	if file.Transport != nil {
		if file.Transport.Listen != nil {
			cfg.Transport.Listen = *file.Transport.Listen
		}
		if file.Transport.Path != nil {
			if !strings.HasPrefix(*file.Transport.Path, "/") {
				return zerr.With(domain.Tag(domain.ErrInvalidConfig, "key", "transport.path"), "value", *file.Transport.Path)
			}
			cfg.Transport.Path = *file.Transport.Path
		}
	}

	if file.Sessions != nil && file.Sessions.Max != nil {
		if *file.Sessions.Max < 0 {
			return zerr.With(domain.Tag(domain.ErrInvalidConfig, "key", "sessions.max"), "value", *file.Sessions.Max)
		}
		cfg.Sessions.Max = *file.Sessions.Max
	}

	if file.Tracing != nil && file.Tracing.Enabled != nil {
		cfg.Tracing.Enabled = *file.Tracing.Enabled
	}

	return nil
}
