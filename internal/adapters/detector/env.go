// Package detector picks the log format from the environment.
package detector

import (
	"os"

	"go.trai.ch/cheetah/internal/core/domain"
	"golang.org/x/term"
)

// DetectLogFormat returns pretty output when f is a terminal outside CI and JSON otherwise.
func DetectLogFormat(f *os.File) domain.LogFormat {
	isTTY := f != nil && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return domain.LogFormatJSON
	}
	return domain.LogFormatPretty
}

// ResolveLogFormat applies the configured format to the detected one.
// Auto and unknown values defer to detection.
func ResolveLogFormat(detected, configured domain.LogFormat) domain.LogFormat {
	switch configured {
	case domain.LogFormatPretty, domain.LogFormatJSON:
		return configured
	case domain.LogFormatAuto:
		return detected
	default:
		return detected
	}
}
