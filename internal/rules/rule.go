// Package rules holds the named transformations applied to a build configuration.
package rules

import (
	"errors"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/settings"
)

// Rule names, in the order the composition engine applies them.
const (
	NameAlias             = "alias"
	NameCompression       = "compression"
	NameParallelCompile   = "parallel-compile"
	NameSVGIcons          = "svg-icons"
	NameBundleAnalysis    = "bundle-analysis"
	NamePreload           = "preload"
	NameChunkSplitting    = "chunk-splitting"
	NameStaleAssetCleanup = "stale-asset-cleanup"
	NameRuntimeChunk      = "runtime-chunk"
	NameInlineRuntime     = "inline-runtime"
)

// Names of entries registered by the rules.
const (
	RuleIcons = "icons"

	PluginCompression   = "compression"
	PluginParallel      = "parallel"
	PluginAnalyzer      = "bundle-analyzer"
	PluginCleanup       = "useless-file"
	PluginInlineRuntime = "script-ext-html"
)

var (
	// ErrRuntimeChunkMissing indicates runtime inlining was requested without a runtime chunk
	ErrRuntimeChunkMissing = errors.New("runtime chunk not configured")
	// ErrInvalidPattern indicates a rule was configured with an unusable pattern
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Rule is one named transformation of a configuration. Apply receives a value
// it may mutate freely and returns the next configuration.
type Rule interface {
	Name() string
	AppliesIn(env settings.Environment) bool
	Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error)
}

// Ordered is implemented by rules that depend on other rules having run first.
type Ordered interface {
	After() []string
}

// Sealer is implemented by rules that fully replace a module rule's loader
// chain. No later rule may change the chains it names.
type Sealer interface {
	Seals() []string
}

type always struct{}

func (always) AppliesIn(settings.Environment) bool { return true }

type productionOnly struct{}

func (productionOnly) AppliesIn(env settings.Environment) bool { return env.IsProduction() }
