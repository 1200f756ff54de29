package compose

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/rules"
)

// productionPlugins may only be registered in production configurations.
var productionPlugins = []string{rules.PluginCleanup, rules.PluginInlineRuntime}

// Validate checks the properties a finished configuration must satisfy.
func Validate(cfg *buildconfig.Configuration) error {
	return errors.Join(
		validateSVGPartition(cfg),
		validateEnvironment(cfg),
		validateRuntimeInline(cfg),
		validatePluginOrder(cfg),
		validateDelegates(cfg),
	)
}

// validateSVGPartition requires the generic SVG rule to exclude exactly the
// directories the icon rule includes.
func validateSVGPartition(cfg *buildconfig.Configuration) error {
	icons, ok := cfg.Module.Rules.Get(rules.RuleIcons)
	if !ok {
		return nil
	}
	svg, ok := cfg.Module.Rules.Get(buildconfig.RuleSVG)
	if !ok {
		return nil
	}

	include := sortedSet(icons.Include)
	exclude := sortedSet(svg.Exclude)
	if !slices.Equal(include, exclude) {
		return fmt.Errorf("%w: svg excludes %v, icons include %v", ErrPredicateOverlap, exclude, include)
	}
	if len(include) == 0 {
		return fmt.Errorf("%w: icons rule has no include directory", ErrPredicateOverlap)
	}
	return nil
}

func validateEnvironment(cfg *buildconfig.Configuration) error {
	if cfg.Mode.IsProduction() {
		return nil
	}

	var errs []error
	for _, name := range productionPlugins {
		if cfg.Plugins.Has(name) {
			errs = append(errs, fmt.Errorf("%w: plugin %s", ErrEnvironmentLeak, name))
		}
	}
	if cfg.Optimization.SplitChunks != nil {
		errs = append(errs, fmt.Errorf("%w: splitChunks", ErrEnvironmentLeak))
	}
	if cfg.Optimization.RuntimeChunk != nil {
		errs = append(errs, fmt.Errorf("%w: runtimeChunk", ErrEnvironmentLeak))
	}
	return errors.Join(errs...)
}

// validateRuntimeInline checks the inline pattern against the file name the
// runtime chunk will be emitted under.
func validateRuntimeInline(cfg *buildconfig.Configuration) error {
	plugin, ok := cfg.Plugins.Get(rules.PluginInlineRuntime)
	if !ok {
		return nil
	}
	spec, ok := plugin.Spec.(*buildconfig.InlineRuntimePlugin)
	if !ok {
		return fmt.Errorf("%w: %s has unexpected kind", ErrRuntimeMismatch, rules.PluginInlineRuntime)
	}
	if cfg.Optimization.RuntimeChunk == nil {
		return fmt.Errorf("%w: no runtime chunk", ErrRuntimeMismatch)
	}

	re, err := regexp.Compile(spec.Inline)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntimeMismatch, err)
	}
	filename := RuntimeFilename(cfg)
	if !re.MatchString(filename) {
		return fmt.Errorf("%w: %s does not match %s", ErrRuntimeMismatch, spec.Inline, filename)
	}
	return nil
}

func validatePluginOrder(cfg *buildconfig.Configuration) error {
	var errs []error
	for name, p := range cfg.Plugins.All() {
		if p.After != "" && !cfg.Plugins.Has(p.After) {
			errs = append(errs, fmt.Errorf("%w: %s after %s", ErrDanglingAfter, name, p.After))
		}
	}
	return errors.Join(errs...)
}

// validateDelegates requires every delegated loader to name the id of a
// registered parallel plugin.
func validateDelegates(cfg *buildconfig.Configuration) error {
	ids := map[string]bool{}
	for _, p := range cfg.Plugins.All() {
		if spec, ok := p.Spec.(*buildconfig.ParallelPlugin); ok {
			ids[spec.ID] = true
		}
	}

	var errs []error
	for ruleName, rule := range cfg.Module.Rules.All() {
		for _, use := range rule.Uses.All() {
			id, ok := strings.CutPrefix(use.Loader, rules.DelegatePrefix)
			if ok && !ids[id] {
				errs = append(errs, fmt.Errorf("%w: rule %s uses %s", ErrUnboundDelegate, ruleName, use.Loader))
			}
		}
	}
	return errors.Join(errs...)
}

// RuntimeFilename renders the chunk file name template for the runtime chunk
// with a placeholder hash. It is empty when no runtime chunk is configured.
func RuntimeFilename(cfg *buildconfig.Configuration) string {
	if cfg.Optimization.RuntimeChunk == nil {
		return ""
	}
	return strings.NewReplacer(
		"[name]", cfg.Optimization.RuntimeChunk.Name,
		"[hash]", "00000000",
		"[contenthash]", "00000000",
	).Replace(cfg.Output.ChunkFilename)
}

func sortedSet(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
