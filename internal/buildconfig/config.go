package buildconfig

import (
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/419921017/ph-fe-template/internal/settings"
)

// Configuration is the complete build definition handed to the bundler.
type Configuration struct {
	Name string               `json:"name" yaml:"name"`
	Mode settings.Environment `json:"mode" yaml:"mode"`

	// Entry points keyed by chunk name, paths relative to the project root
	Entry        Registry[string] `json:"entry" yaml:"entry"`
	Output       Output           `json:"output" yaml:"output"`
	Resolve      Resolve          `json:"resolve" yaml:"resolve"`
	Module       Module           `json:"module" yaml:"module"`
	Plugins      Registry[Plugin] `json:"plugins" yaml:"plugins"`
	Optimization Optimization     `json:"optimization" yaml:"optimization"`
	CSS          CSS              `json:"css" yaml:"css"`
	PWA          PWA              `json:"pwa" yaml:"pwa"`
	DevServer    DevServer        `json:"devServer" yaml:"devServer"`

	LintOnSave bool `json:"lintOnSave" yaml:"lintOnSave"`
	Parallel   bool `json:"parallel" yaml:"parallel"`
}

type Output struct {
	Dir           string `json:"dir" yaml:"dir"`
	AssetsDir     string `json:"assetsDir" yaml:"assetsDir"`
	PublicPath    string `json:"publicPath" yaml:"publicPath"`
	Filename      string `json:"filename" yaml:"filename"`
	ChunkFilename string `json:"chunkFilename" yaml:"chunkFilename"`
	AssetFilename string `json:"assetFilename" yaml:"assetFilename"`
	SourceMap     bool   `json:"sourceMap" yaml:"sourceMap"`
}

type Resolve struct {
	// Symbolic import prefixes mapped to absolute directories
	Alias      Registry[string] `json:"alias" yaml:"alias"`
	Extensions []string         `json:"extensions" yaml:"extensions"`
}

type Module struct {
	Rules Registry[ModuleRule] `json:"rules" yaml:"rules"`
}

// ModuleRule routes files matching Test through an ordered loader chain.
// Include and Exclude hold absolute directories.
type ModuleRule struct {
	Test    string        `json:"test" yaml:"test"`
	Include []string      `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string      `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Uses    Registry[Use] `json:"uses" yaml:"uses"`
}

type Use struct {
	Loader  string            `json:"loader" yaml:"loader"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

type Optimization struct {
	Minimize     bool          `json:"minimize" yaml:"minimize"`
	SplitChunks  *SplitChunks  `json:"splitChunks,omitempty" yaml:"splitChunks,omitempty"`
	RuntimeChunk *RuntimeChunk `json:"runtimeChunk,omitempty" yaml:"runtimeChunk,omitempty"`
}

// RuntimeChunk extracts the bundler bootstrap into one chunk shared by every entry.
type RuntimeChunk struct {
	Name string `json:"name" yaml:"name"`
}

type CSS struct {
	Extract   bool              `json:"extract" yaml:"extract"`
	SourceMap bool              `json:"sourceMap" yaml:"sourceMap"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

type PWA struct {
	IconPaths map[string]string `json:"iconPaths,omitempty" yaml:"iconPaths,omitempty"`
}

type DevServer struct {
	Port    int                 `json:"port" yaml:"port"`
	Open    bool                `json:"open" yaml:"open"`
	Overlay Overlay             `json:"overlay" yaml:"overlay"`
	Proxy   Registry[ProxyRule] `json:"proxy" yaml:"proxy"`
}

// Overlay controls which compiler problems are rendered in the browser.
type Overlay struct {
	Warnings bool `json:"warnings" yaml:"warnings"`
	Errors   bool `json:"errors" yaml:"errors"`
}

// ProxyRule forwards requests whose path matches the registry key to Target.
type ProxyRule struct {
	Target       string            `json:"target" yaml:"target"`
	ChangeOrigin bool              `json:"changeOrigin" yaml:"changeOrigin"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	PathRewrite  []PathRewrite     `json:"pathRewrite,omitempty" yaml:"pathRewrite,omitempty"`
}

type PathRewrite struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

// ModuleRule returns the named rule or ErrMissingRule.
func (c *Configuration) ModuleRule(name string) (ModuleRule, error) {
	rule, ok := c.Module.Rules.Get(name)
	if !ok {
		return ModuleRule{}, fmt.Errorf("%w: %s", ErrMissingRule, name)
	}
	return rule, nil
}

// Plugin returns the named plugin or ErrMissingPlugin.
func (c *Configuration) Plugin(name string) (Plugin, error) {
	p, ok := c.Plugins.Get(name)
	if !ok {
		return Plugin{}, fmt.Errorf("%w: %s", ErrMissingPlugin, name)
	}
	return p, nil
}

// Clone returns a deep copy that shares no mutable state with c.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Entry = c.Entry.clone(identity[string])
	out.Output = c.Output
	out.Resolve = Resolve{
		Alias:      c.Resolve.Alias.clone(identity[string]),
		Extensions: slices.Clone(c.Resolve.Extensions),
	}
	out.Module = Module{Rules: c.Module.Rules.clone(ModuleRule.clone)}
	out.Plugins = c.Plugins.clone(Plugin.clone)
	out.Optimization = c.Optimization.clone()
	out.CSS = CSS{
		Extract:   c.CSS.Extract,
		SourceMap: c.CSS.SourceMap,
		Variables: maps.Clone(c.CSS.Variables),
	}
	out.PWA = PWA{IconPaths: maps.Clone(c.PWA.IconPaths)}
	out.DevServer = DevServer{
		Port:    c.DevServer.Port,
		Open:    c.DevServer.Open,
		Overlay: c.DevServer.Overlay,
		Proxy:   c.DevServer.Proxy.clone(ProxyRule.clone),
	}
	return &out
}

func (r ModuleRule) clone() ModuleRule {
	return ModuleRule{
		Test:    r.Test,
		Include: slices.Clone(r.Include),
		Exclude: slices.Clone(r.Exclude),
		Uses:    r.Uses.clone(Use.clone),
	}
}

func (u Use) clone() Use {
	return Use{Loader: u.Loader, Options: maps.Clone(u.Options)}
}

func (o Optimization) clone() Optimization {
	out := Optimization{Minimize: o.Minimize}
	if o.SplitChunks != nil {
		sc := SplitChunks{
			Chunks:      o.SplitChunks.Chunks,
			CacheGroups: o.SplitChunks.CacheGroups.clone(identity[CacheGroup]),
		}
		out.SplitChunks = &sc
	}
	if o.RuntimeChunk != nil {
		rc := *o.RuntimeChunk
		out.RuntimeChunk = &rc
	}
	return out
}

func (p ProxyRule) clone() ProxyRule {
	return ProxyRule{
		Target:       p.Target,
		ChangeOrigin: p.ChangeOrigin,
		Headers:      maps.Clone(p.Headers),
		PathRewrite:  slices.Clone(p.PathRewrite),
	}
}

func identity[T any](v T) T {
	return v
}

// Matches reports whether file is handled by the rule: the test pattern must
// match, the file must sit under an include directory when any are set, and
// under no exclude directory.
func (r ModuleRule) Matches(file string) (bool, error) {
	re, err := regexp.Compile(r.Test)
	if err != nil {
		return false, err
	}
	if !re.MatchString(file) {
		return false, nil
	}
	if len(r.Include) > 0 && !slices.ContainsFunc(r.Include, func(dir string) bool { return within(dir, file) }) {
		return false, nil
	}
	if slices.ContainsFunc(r.Exclude, func(dir string) bool { return within(dir, file) }) {
		return false, nil
	}
	return true, nil
}

func within(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
