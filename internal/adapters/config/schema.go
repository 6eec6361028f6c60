package config

// File represents the structure of the cheetah.yaml configuration file.
// Pointer fields distinguish an omitted key from an explicit zero value.
type File struct {
	Log       *LogDTO       `yaml:"log"`
	Transport *TransportDTO `yaml:"transport"`
	Sessions  *SessionsDTO  `yaml:"sessions"`
	Tracing   *TracingDTO   `yaml:"tracing"`
}

// LogDTO represents the log section.
type LogDTO struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// TransportDTO represents the transport section.
type TransportDTO struct {
	Listen *string `yaml:"listen"`
	Path   *string `yaml:"path"`
}

// SessionsDTO represents the sessions section.
type SessionsDTO struct {
	Max *int `yaml:"max"`
}

// TracingDTO represents the tracing section.
type TracingDTO struct {
	Enabled *bool `yaml:"enabled"`
}
