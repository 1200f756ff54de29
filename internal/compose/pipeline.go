// Package compose assembles a finished build configuration by applying the
// rule table in a fixed order.
package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/paths"
	"github.com/419921017/ph-fe-template/internal/rules"
	"github.com/419921017/ph-fe-template/internal/settings"
	"github.com/419921017/ph-fe-template/internal/workerpool"
)

var (
	// ErrRuleOrder indicates a rule is scheduled before a rule it depends on
	ErrRuleOrder = errors.New("rule scheduled before its prerequisite")
	// ErrDuplicateRule indicates two rules share a name
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrEnvironmentMismatch indicates the base configuration was built for another environment
	ErrEnvironmentMismatch = errors.New("environment mismatch")
	// ErrSealedChain indicates a rule changed a loader chain sealed by an earlier rule
	ErrSealedChain = errors.New("sealed loader chain modified")
	// ErrPredicateOverlap indicates two exclusive module rules can match the same file
	ErrPredicateOverlap = errors.New("module rule predicates overlap")
	// ErrEnvironmentLeak indicates production-only entries in a development configuration
	ErrEnvironmentLeak = errors.New("production-only entry in development configuration")
	// ErrRuntimeMismatch indicates the inline pattern does not select the runtime chunk
	ErrRuntimeMismatch = errors.New("inline pattern does not match runtime chunk")
	// ErrDanglingAfter indicates a plugin ordered after a plugin that is not registered
	ErrDanglingAfter = errors.New("plugin ordered after unregistered plugin")
	// ErrUnboundDelegate indicates a delegated loader names no registered parallel plugin
	ErrUnboundDelegate = errors.New("delegated loader has no parallel plugin")
)

// RuleError reports the rule that aborted composition.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Options configures the standard rule table.
type Options struct {
	Resolver *paths.Resolver
	// Alias names to register; all names known to Resolver when empty
	Aliases []string
	// Analyze registers the bundle size report
	Analyze bool
	// Pool is handed to the parallel compile rule; sized to the host when nil
	Pool *workerpool.Pool

	IconDir     string
	CommonsDir  string
	CleanupRoot string
}

// Pipeline applies an ordered rule list for one environment.
type Pipeline struct {
	env   settings.Environment
	rules []rules.Rule
}

// New builds the standard rule table in its fixed order:
// alias, compression, parallel-compile, svg-icons, bundle-analysis, preload,
// then the production block chunk-splitting, stale-asset-cleanup,
// runtime-chunk, inline-runtime.
func New(env settings.Environment, opts Options) (*Pipeline, error) {
	if opts.Resolver == nil {
		return nil, errors.New("compose: resolver is required")
	}
	r := opts.Resolver

	alias, err := rules.NewAlias(r, opts.Aliases...)
	if err != nil {
		return nil, fmt.Errorf("invalid alias table: %w", err)
	}

	iconDir := cond(opts.IconDir != "", opts.IconDir, r.Path("src/icons"))
	commonsDir := cond(opts.CommonsDir != "", opts.CommonsDir, r.Path("src/components"))
	cleanupRoot := cond(opts.CleanupRoot != "", opts.CleanupRoot, r.Path("src/assets/images"))

	return NewWithRules(env,
		alias,
		rules.NewCompression(),
		rules.NewParallelCompile(opts.Pool),
		rules.NewSVGIcons(iconDir),
		rules.NewBundleAnalysis(opts.Analyze),
		rules.NewPreload(env),
		rules.NewChunkSplitting(commonsDir),
		rules.NewStaleAssetCleanup(cleanupRoot),
		rules.NewRuntimeChunk(),
		rules.NewInlineRuntime(),
	)
}

// NewWithRules checks that rule names are unique and every prerequisite is
// scheduled earlier.
func NewWithRules(env settings.Environment, rs ...rules.Rule) (*Pipeline, error) {
	seen := make(map[string]bool, len(rs))
	for _, rule := range rs {
		name := rule.Name()
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, name)
		}
		if ordered, ok := rule.(rules.Ordered); ok {
			for _, dep := range ordered.After() {
				if !seen[dep] {
					return nil, fmt.Errorf("%w: %s must run after %s", ErrRuleOrder, name, dep)
				}
			}
		}
		seen[name] = true
	}
	return &Pipeline{env: env, rules: rs}, nil
}

// Rules returns the rule names in application order.
func (p *Pipeline) Rules() []string {
	names := make([]string, len(p.rules))
	for i, rule := range p.rules {
		names[i] = rule.Name()
	}
	return names
}

func (p *Pipeline) Environment() settings.Environment {
	return p.env
}

// Compose applies every applicable rule to a copy of base and validates the
// result. base is never modified and no configuration is returned on error.
func (p *Pipeline) Compose(base *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if base.Mode != p.env {
		return nil, fmt.Errorf("%w: base is %s, pipeline is %s", ErrEnvironmentMismatch, base.Mode, p.env)
	}

	cfg := base.Clone()
	sealed := map[string]seal{}

	for _, rule := range p.rules {
		name := rule.Name()
		if !rule.AppliesIn(p.env) {
			log.Debug().Str("rule", name).Str("env", p.env.String()).Msg("Skipping rule")
			continue
		}

		next, err := rule.Apply(cfg.Clone())
		if err != nil {
			return nil, &RuleError{Rule: name, Err: err}
		}
		if next == nil {
			return nil, &RuleError{Rule: name, Err: errors.New("returned no configuration")}
		}

		if err := checkSeals(next, sealed); err != nil {
			return nil, &RuleError{Rule: name, Err: err}
		}
		if sealer, ok := rule.(rules.Sealer); ok {
			for _, ruleName := range sealer.Seals() {
				s, err := sealOf(next, ruleName, name)
				if err != nil {
					return nil, &RuleError{Rule: name, Err: err}
				}
				sealed[ruleName] = s
			}
		}

		cfg = next
		log.Debug().Str("rule", name).Msg("Applied rule")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Compose builds the standard pipeline for env and applies it to base.
func Compose(base *buildconfig.Configuration, env settings.Environment, opts Options) (*buildconfig.Configuration, error) {
	p, err := New(env, opts)
	if err != nil {
		return nil, err
	}
	return p.Compose(base)
}

// seal is the JSON rendering of a module rule when it was sealed. Any later
// difference in the rendering breaks the seal.
type seal struct {
	by   string
	rule []byte
}

func sealOf(cfg *buildconfig.Configuration, ruleName, by string) (seal, error) {
	rule, err := cfg.ModuleRule(ruleName)
	if err != nil {
		return seal{}, err
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return seal{}, fmt.Errorf("failed to seal %s: %w", ruleName, err)
	}
	return seal{by: by, rule: data}, nil
}

func checkSeals(cfg *buildconfig.Configuration, sealed map[string]seal) error {
	for ruleName, s := range sealed {
		rule, ok := cfg.Module.Rules.Get(ruleName)
		if !ok {
			return fmt.Errorf("%w: %s removed after %s", ErrSealedChain, ruleName, s.by)
		}
		data, err := json.Marshal(rule)
		if err != nil {
			return fmt.Errorf("failed to check seal of %s: %w", ruleName, err)
		}
		if !bytes.Equal(data, s.rule) {
			return fmt.Errorf("%w: %s was changed after %s", ErrSealedChain, ruleName, s.by)
		}
	}
	return nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
