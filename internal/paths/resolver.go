package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrInvalidAlias indicates an alias table entry that cannot be registered
var ErrInvalidAlias = errors.New("invalid alias")

// UnknownAliasError is returned when a symbolic name is not in the alias table.
type UnknownAliasError struct {
	Name string
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("alias not found: %q", e.Name)
}

// DefaultTable returns the symbolic names known to the source tree, relative to the project root.
func DefaultTable() map[string]string {
	return map[string]string{
		"@":          "src",
		"@src":       "src",
		"@component": "src/components",
		"@router":    "src/router",
		"@store":     "src/store",
		"@views":     "src/views",
		"@assets":    "src/assets",
	}
}

// Resolver maps symbolic names to absolute locations under a project root.
type Resolver struct {
	root  string
	table map[string]string
}

// New validates every entry of the table up front so resolution cannot fail
// later for a registered name.
func New(root string, table map[string]string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	r := &Resolver{root: abs, table: make(map[string]string, len(table))}
	for name, rel := range table {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidAlias)
		}
		if rel == "" || filepath.IsAbs(rel) {
			return nil, fmt.Errorf("%w: %s must map to a relative path", ErrInvalidAlias, name)
		}
		clean := filepath.Clean(rel)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s escapes the project root", ErrInvalidAlias, name)
		}
		r.table[name] = clean
	}
	return r, nil
}

// Resolve returns the absolute path for a symbolic name.
func (r *Resolver) Resolve(name string) (string, error) {
	rel, ok := r.table[name]
	if !ok {
		return "", &UnknownAliasError{Name: name}
	}
	return filepath.Join(r.root, rel), nil
}

// Validate reports every name that is not in the table.
func (r *Resolver) Validate(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, ok := r.table[name]; !ok {
			errs = append(errs, &UnknownAliasError{Name: name})
		}
	}
	return errors.Join(errs...)
}

// Names returns the known symbolic names, sorted.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Path joins a path relative to the project root.
func (r *Resolver) Path(rel string) string {
	return filepath.Join(r.root, rel)
}

func (r *Resolver) Root() string {
	return r.root
}
