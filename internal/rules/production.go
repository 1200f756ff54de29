package rules

import (
	"fmt"
	"regexp"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

// ChunkSplitting installs the cache groups for vendor, UI library and shared
// component code.
type ChunkSplitting struct {
	productionOnly
	CommonsDir string
}

func NewChunkSplitting(commonsDir string) *ChunkSplitting {
	return &ChunkSplitting{CommonsDir: commonsDir}
}

func (c *ChunkSplitting) Name() string { return NameChunkSplitting }

func (c *ChunkSplitting) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if cfg.Optimization.SplitChunks != nil {
		return nil, fmt.Errorf("%w: splitChunks", buildconfig.ErrDuplicateRegistration)
	}

	sc := &buildconfig.SplitChunks{Chunks: "all"}
	groups := []struct {
		name  string
		group buildconfig.CacheGroup
	}{
		{"libs", buildconfig.CacheGroup{
			Name:     "chunk-libs",
			Test:     `[\\/]node_modules[\\/]`,
			Priority: 10,
			Chunks:   buildconfig.ChunksInitial,
		}},
		// higher than libs so the UI library is not absorbed into the vendor chunk
		{"elementUI", buildconfig.CacheGroup{
			Name:     "chunk-elementUI",
			Test:     `[\\/]node_modules[\\/]_?element-ui(.*)`,
			Priority: 20,
		}},
		{"commons", buildconfig.CacheGroup{
			Name:               "chunk-commons",
			Test:               "^" + regexp.QuoteMeta(c.CommonsDir),
			Priority:           5,
			MinChunks:          3,
			ReuseExistingChunk: true,
		}},
	}
	for _, g := range groups {
		if err := sc.CacheGroups.Register(g.name, g.group); err != nil {
			return nil, err
		}
	}

	cfg.Optimization.SplitChunks = sc
	return cfg, nil
}

// StaleAssetCleanup removes images the build no longer references.
type StaleAssetCleanup struct {
	productionOnly
	Root    string
	Exclude []string
}

func NewStaleAssetCleanup(root string) *StaleAssetCleanup {
	return &StaleAssetCleanup{Root: root, Exclude: []string{"**/node_modules/**"}}
}

func (s *StaleAssetCleanup) Name() string { return NameStaleAssetCleanup }

func (s *StaleAssetCleanup) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	err := cfg.Plugins.Register(PluginCleanup, buildconfig.Plugin{Spec: &buildconfig.CleanupPlugin{
		Root:    s.Root,
		Clean:   true,
		Exclude: append([]string(nil), s.Exclude...),
	}})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// RuntimeChunk extracts one runtime chunk shared by every entry point.
type RuntimeChunk struct {
	productionOnly
	ChunkName string
}

func NewRuntimeChunk() *RuntimeChunk {
	return &RuntimeChunk{ChunkName: "runtime"}
}

func (r *RuntimeChunk) Name() string { return NameRuntimeChunk }

func (r *RuntimeChunk) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if cfg.Optimization.RuntimeChunk != nil {
		return nil, fmt.Errorf("%w: runtimeChunk", buildconfig.ErrDuplicateRegistration)
	}
	cfg.Optimization.RuntimeChunk = &buildconfig.RuntimeChunk{Name: r.ChunkName}
	return cfg, nil
}

// InlineRuntime inlines the runtime chunk into the generated HTML.
type InlineRuntime struct {
	productionOnly
	Pattern string
}

func NewInlineRuntime() *InlineRuntime {
	return &InlineRuntime{Pattern: `runtime\..*\.js$`}
}

func (i *InlineRuntime) Name() string { return NameInlineRuntime }

func (i *InlineRuntime) After() []string { return []string{NameRuntimeChunk} }

func (i *InlineRuntime) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if cfg.Optimization.RuntimeChunk == nil {
		return nil, ErrRuntimeChunkMissing
	}
	if _, err := cfg.Plugin(buildconfig.PluginHTML); err != nil {
		return nil, err
	}
	if _, err := regexp.Compile(i.Pattern); err != nil {
		return nil, fmt.Errorf("%w: inline runtime: %w", ErrInvalidPattern, err)
	}

	err := cfg.Plugins.Register(PluginInlineRuntime, buildconfig.Plugin{
		After: buildconfig.PluginHTML,
		Spec:  &buildconfig.InlineRuntimePlugin{Inline: i.Pattern},
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
