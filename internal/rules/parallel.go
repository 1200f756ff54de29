package rules

import (
	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/workerpool"
)

// DelegatePrefix starts every loader handed to a parallel plugin; the plugin
// id follows it.
const DelegatePrefix = "parallel/loader?id="

// ParallelCompile replaces the script loader chain with a single loader that
// delegates to the shared worker pool.
type ParallelCompile struct {
	always
	ID      string
	Loaders []string
	Pool    *workerpool.Pool
}

// NewParallelCompile uses a pool sized to the host when pool is nil.
func NewParallelCompile(pool *workerpool.Pool) *ParallelCompile {
	if pool == nil {
		pool = workerpool.New(0)
	}
	return &ParallelCompile{
		ID:      "babel",
		Loaders: []string{"babel-loader?cacheDirectory=true"},
		Pool:    pool,
	}
}

func (p *ParallelCompile) Name() string { return NameParallelCompile }

func (p *ParallelCompile) Seals() []string { return []string{buildconfig.RuleJS} }

// DelegatedLoader is the loader the script chain is replaced with.
func (p *ParallelCompile) DelegatedLoader() string {
	return DelegatePrefix + p.ID
}

func (p *ParallelCompile) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	js, err := cfg.ModuleRule(buildconfig.RuleJS)
	if err != nil {
		return nil, err
	}

	loader := p.DelegatedLoader()
	js.Uses.Clear()
	js.Uses.Set(loader, buildconfig.Use{Loader: loader})
	cfg.Module.Rules.Set(buildconfig.RuleJS, js)

	err = cfg.Plugins.Register(PluginParallel, buildconfig.Plugin{Spec: &buildconfig.ParallelPlugin{
		ID:      p.ID,
		Loaders: p.Loaders,
		Threads: p.Pool.Size(),
		Pool:    p.Pool,
	}})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
