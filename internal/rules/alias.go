package rules

import (
	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/paths"
)

// Alias registers symbolic import prefixes for the source tree.
type Alias struct {
	always
	names   []string
	targets map[string]string
}

// NewAlias resolves every name up front so an unknown alias fails before
// composition starts. With no names the resolver's whole table is used.
func NewAlias(r *paths.Resolver, names ...string) (*Alias, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	if err := r.Validate(names...); err != nil {
		return nil, err
	}

	a := &Alias{names: names, targets: make(map[string]string, len(names))}
	for _, name := range names {
		target, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		a.targets[name] = target
	}
	return a, nil
}

func (a *Alias) Name() string { return NameAlias }

func (a *Alias) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	for _, name := range a.names {
		if err := cfg.Resolve.Alias.Register(name, a.targets[name]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
