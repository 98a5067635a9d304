// Package config defines Metorex's package-level constants and the
// optional metorex.yaml project configuration (SPEC_FULL.md §3 "Ambient
// Stack — Configuration").
package config

// Version is the current Metorex version. Set at build time via
// -ldflags or by editing this file directly.
var Version = "0.1.0"

// SourceFileExtensions are the extensions the file loader tries, in
// order, after the literal path (spec.md §6 "Source file format").
var SourceFileExtensions = []string{".rb", ".mx"}

// FloatEqualityEpsilon is the default |a-b| threshold for general Float
// equality (spec.md §3.4) and the default of metorex.yaml's float_epsilon.
// The evaluator compares Floats with its own fixed constant of the same
// value and does not read the configured float_epsilon.
const FloatEqualityEpsilon = 1e-9

// DefaultMaxCallDepth bounds runaway recursion in the tree-walking
// evaluator; exceeding it raises a RuntimeError rather than crashing the
// host process with a Go stack overflow.
const DefaultMaxCallDepth = 4096

// TrimSourceExt removes a recognized source extension from a filename,
// returning the original string unchanged if none match.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}
