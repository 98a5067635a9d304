// Package fileloader resolves require_relative targets (spec.md §6 "File
// loader tries the literal path first; then .rb; then .mx"). It is a pure
// path-resolution collaborator: the evaluator's require_relative native
// function (internal/evaluator/natives.go) calls Resolve and then parses
// and executes the returned path itself.
package fileloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/metorex-lang/metorex/internal/config"
)

// Resolve finds the file `require_relative` should load: the literal path
// relative to baseDir, tried concurrently against each candidate extension
// in config.SourceFileExtensions, picking the first that exists in
// priority order (literal, then each extension in turn) regardless of
// which goroutine finishes first.
func Resolve(target, baseDir string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, target)
	}

	candidates := make([]string, 0, 1+len(config.SourceFileExtensions))
	candidates = append(candidates, target)
	for _, ext := range config.SourceFileExtensions {
		if !strings.HasSuffix(target, ext) {
			candidates = append(candidates, target+ext)
		}
	}

	exists := make([]bool, len(candidates))
	var g errgroup.Group
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			info, err := os.Stat(candidate)
			exists[i] = err == nil && !info.IsDir()
			return nil
		})
	}
	_ = g.Wait()

	for i, ok := range exists {
		if ok {
			return candidates[i], nil
		}
	}
	return "", fmt.Errorf("no such file to load -- %s (tried %s)", target, strings.Join(candidates, ", "))
}
