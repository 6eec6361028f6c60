// Package fs resolves watch patterns into concrete paths on the local file system.
package fs

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathResolver = (*Resolver)(nil)

// Resolver implements ports.PathResolver using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve expands the watch patterns of opts and removes every path that is
// the same file as one matched by an ignore pattern.
func (r *Resolver) Resolve(opts domain.RegisterOptions) (*domain.Resolution, error) {
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return nil, err
	}

	paths, patternErrs := expand(cwd, opts.Patterns)
	ignores, ignoreErrs := expand(cwd, opts.Ignores)

	return &domain.Resolution{
		Paths:         exclude(dedupe(paths), ignores),
		PatternErrors: patternErrs,
		IgnoreErrors:  ignoreErrs,
	}, nil
}

func resolveCwd(cwd string) (string, error) {
	if cwd == "" {
		cwd = domain.DefaultCwd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(domain.Wrap(domain.ErrInvalidWorkingDir, err), "cwd", cwd)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", zerr.With(domain.Wrap(domain.ErrInvalidWorkingDir, err), "cwd", cwd)
	}
	if !info.IsDir() {
		return "", zerr.With(domain.Tag(domain.ErrInvalidWorkingDir, "cwd", cwd), "reason", "not a directory")
	}
	return abs, nil
}

// expand globs every pattern against cwd. Patterns that are invalid or match
// nothing are reported as diagnostics and contribute no paths.
func expand(cwd string, patterns []string) ([]string, []error) {
	var (
		paths []string
		errs  []error
	)
	for _, pattern := range patterns {
		abs := pattern
		if !filepath.IsAbs(pattern) {
			abs = filepath.Join(cwd, pattern)
		}

		if !doublestar.ValidatePathPattern(abs) {
			errs = append(errs, domain.Tag(domain.ErrInvalidPattern, "pattern", pattern))
			continue
		}

		matches, err := doublestar.FilepathGlob(abs)
		if err != nil {
			errs = append(errs, zerr.With(domain.Wrap(domain.ErrInvalidPattern, err), "pattern", pattern))
			continue
		}
		if len(matches) == 0 {
			errs = append(errs, domain.Tag(domain.ErrPatternNoMatch, "pattern", pattern))
			continue
		}

		for _, match := range matches {
			paths = append(paths, filepath.Clean(match))
		}
	}
	return paths, errs
}

type entry struct {
	path string
	info os.FileInfo
}

// dedupe drops paths that refer to a file already seen, keeping the first
// occurrence. Paths that vanished since globbing are dropped too.
func dedupe(paths []string) []entry {
	seen := make([]entry, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if containsSameFile(seen, info) {
			continue
		}
		seen = append(seen, entry{path: path, info: info})
	}
	return seen
}

// exclude returns the paths of entries that are not the same file as any ignored path.
func exclude(entries []entry, ignores []string) []string {
	ignored := dedupe(ignores)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if containsSameFile(ignored, e.info) {
			continue
		}
		paths = append(paths, e.path)
	}
	return paths
}

func containsSameFile(entries []entry, info os.FileInfo) bool {
	for _, e := range entries {
		if os.SameFile(e.info, info) {
			return true
		}
	}
	return false
}
