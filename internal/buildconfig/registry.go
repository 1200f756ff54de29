package buildconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"gopkg.in/yaml.v3"
)

// Registry is an ordered collection of uniquely named entries. The zero value
// is ready to use.
type Registry[T any] struct {
	names []string
	items map[string]T
}

// Register adds a new entry. Registering a name twice is an error; use Set to
// replace an entry on purpose.
func (r *Registry[T]) Register(name string, v T) error {
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, name)
	}
	r.Set(name, v)
	return nil
}

// Set stores v under name, keeping the original position when the name exists.
func (r *Registry[T]) Set(name string, v T) {
	if r.items == nil {
		r.items = make(map[string]T)
	}
	if _, ok := r.items[name]; !ok {
		r.names = append(r.names, name)
	}
	r.items[name] = v
}

func (r *Registry[T]) Get(name string) (T, bool) {
	v, ok := r.items[name]
	return v, ok
}

func (r *Registry[T]) Has(name string) bool {
	_, ok := r.items[name]
	return ok
}

// Delete removes name and reports whether it was present.
func (r *Registry[T]) Delete(name string) bool {
	if _, ok := r.items[name]; !ok {
		return false
	}
	delete(r.items, name)
	r.names = slices.DeleteFunc(r.names, func(n string) bool { return n == name })
	return true
}

func (r *Registry[T]) Clear() {
	r.names = nil
	r.items = nil
}

func (r *Registry[T]) Len() int {
	return len(r.names)
}

// Names returns the registered names in registration order.
func (r *Registry[T]) Names() []string {
	return slices.Clone(r.names)
}

// All iterates the entries in registration order.
func (r *Registry[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, name := range r.names {
			if !yield(name, r.items[name]) {
				return
			}
		}
	}
}

func (r *Registry[T]) clone(copyValue func(T) T) Registry[T] {
	out := Registry[T]{names: slices.Clone(r.names)}
	if r.items != nil {
		out.items = make(map[string]T, len(r.items))
		for name, v := range r.items {
			out.items[name] = copyValue(v)
		}
	}
	return out
}

// MarshalJSON encodes the registry as an object whose keys keep registration order.
func (r Registry[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.items[name])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the registry as a mapping whose keys keep registration order.
func (r Registry[T]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range r.names {
		value := &yaml.Node{}
		if err := value.Encode(r.items[name]); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			value,
		)
	}
	return node, nil
}
