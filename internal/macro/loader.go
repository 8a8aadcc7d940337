// Package macro loads Starlark files as user-defined calculator
// functions. Macros are loaded from .star files and auto-namespaced
// based on filename: square.star defining area(x) becomes the
// callable square.area(x) inside expressions.
package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
)

// Loader scans a directory for .star files and loads them as Starlark modules.
type Loader struct {
	dir string
}

// NewLoader creates a new macro loader for the specified directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadedModule represents a parsed Starlark macro file.
type LoadedModule struct {
	// Namespace is derived from filename (e.g., "stats" from "stats.star")
	Namespace string

	// Path is the absolute path to the .star file
	Path string

	// Exports contains the exported callables (names not starting with _)
	Exports map[string]starlark.Callable

	// Meta holds the static parse of the file: signatures and
	// docstrings for help listings, collected without executing it.
	Meta *ParsedNamespace
}

// Load scans the macro directory and loads all .star files.
// A missing directory is not an error; the calculator just has no macros.
func (l *Loader) Load() ([]*LoadedModule, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access macros directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("macros path is not a directory: %s", l.dir)
	}

	pattern := filepath.Join(l.dir, "*.star")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan macros directory: %w", err)
	}

	var modules []*LoadedModule

	for _, file := range files {
		module, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}

	return modules, nil
}

// loadFile loads a single .star file and extracts its exported callables.
func (l *Loader) loadFile(path string) (*LoadedModule, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the macros directory
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
		}
	}

	base := filepath.Base(path)
	namespace := strings.TrimSuffix(base, ".star")

	if err := validateNamespace(namespace); err != nil {
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	meta, err := ParseStarlarkFile(path, content)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: fmt.Sprintf("parse error: %v", err),
		}
	}

	thread := &starlark.Thread{
		Name: fmt.Sprintf("load:%s", namespace),
		Print: func(_ *starlark.Thread, _ string) {
			// Ignore prints during macro loading
		},
	}

	globals, err := starlark.ExecFile(thread, path, content, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: fmt.Sprintf("Starlark execution error: %v", err),
		}
	}

	// Keep exported callables only (exclude names starting with _).
	exports := make(map[string]starlark.Callable)
	for name, value := range globals {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if fn, ok := value.(starlark.Callable); ok {
			exports[name] = fn
		}
	}

	return &LoadedModule{
		Namespace: namespace,
		Path:      path,
		Exports:   exports,
		Meta:      meta,
	}, nil
}

// validateNamespace checks if a namespace name is valid.
func validateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("namespace must start with letter or underscore: %s", name)
			}
		} else {
			if !isLetter(r) && !isDigit(r) && r != '_' {
				return fmt.Errorf("namespace contains invalid character: %s", name)
			}
		}
	}

	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError represents an error loading a macro file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("macros/%s: %s", filepath.Base(e.File), e.Message)
}
