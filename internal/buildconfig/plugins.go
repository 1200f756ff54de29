package buildconfig

import (
	"encoding/json"
	"slices"

	"github.com/419921017/ph-fe-template/internal/workerpool"
)

// Plugin kinds understood by the bundler adapter.
const (
	KindHTML          = "html"
	KindPreload       = "preload"
	KindCompression   = "compression"
	KindParallel      = "parallel"
	KindAnalyzer      = "bundle-analyzer"
	KindCleanup       = "useless-file"
	KindInlineRuntime = "script-ext-html"
)

// PluginSpec is the typed option set of one plugin kind.
type PluginSpec interface {
	Kind() string
	cloneSpec() PluginSpec
}

// Plugin is a registered plugin. After names a plugin this one must run behind.
type Plugin struct {
	After string
	Spec  PluginSpec
}

type pluginDoc struct {
	Kind    string     `json:"kind" yaml:"kind"`
	After   string     `json:"after,omitempty" yaml:"after,omitempty"`
	Options PluginSpec `json:"options" yaml:"options"`
}

func (p Plugin) doc() pluginDoc {
	d := pluginDoc{After: p.After, Options: p.Spec}
	if p.Spec != nil {
		d.Kind = p.Spec.Kind()
	}
	return d
}

func (p Plugin) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.doc())
}

func (p Plugin) MarshalYAML() (any, error) {
	return p.doc(), nil
}

func (p Plugin) clone() Plugin {
	out := Plugin{After: p.After}
	if p.Spec != nil {
		out.Spec = p.Spec.cloneSpec()
	}
	return out
}

// HTMLPlugin emits the HTML page that loads the entry chunks.
type HTMLPlugin struct {
	Title    string `json:"title" yaml:"title"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	Filename string `json:"filename" yaml:"filename"`
}

func (p *HTMLPlugin) Kind() string { return KindHTML }

func (p *HTMLPlugin) cloneSpec() PluginSpec {
	c := *p
	return &c
}

// PreloadPlugin emits resource hints. Include selects "initial" or
// "asyncChunks"; FileBlacklist patterns drop matching files.
type PreloadPlugin struct {
	Rel           string   `json:"rel" yaml:"rel"`
	Include       string   `json:"include" yaml:"include"`
	FileBlacklist []string `json:"fileBlacklist,omitempty" yaml:"fileBlacklist,omitempty"`
}

func (p *PreloadPlugin) Kind() string { return KindPreload }

func (p *PreloadPlugin) cloneSpec() PluginSpec {
	c := *p
	c.FileBlacklist = slices.Clone(p.FileBlacklist)
	return &c
}

// CompressionPlugin writes a gzip copy of emitted files matching Test whose
// size exceeds Threshold bytes.
type CompressionPlugin struct {
	Test      string `json:"test" yaml:"test"`
	Threshold int    `json:"threshold" yaml:"threshold"`
}

func (p *CompressionPlugin) Kind() string { return KindCompression }

func (p *CompressionPlugin) cloneSpec() PluginSpec {
	c := *p
	return &c
}

// ParallelPlugin runs the listed loaders on a shared worker pool.
type ParallelPlugin struct {
	ID      string           `json:"id" yaml:"id"`
	Loaders []string         `json:"loaders" yaml:"loaders"`
	Threads int              `json:"threads" yaml:"threads"`
	Pool    *workerpool.Pool `json:"-" yaml:"-"`
}

func (p *ParallelPlugin) Kind() string { return KindParallel }

// cloneSpec keeps the pool handle; the pool is shared, not copied.
func (p *ParallelPlugin) cloneSpec() PluginSpec {
	c := *p
	c.Loaders = slices.Clone(p.Loaders)
	return &c
}

// AnalyzerPlugin writes a bundle size report.
type AnalyzerPlugin struct {
	ReportFilename string `json:"reportFilename" yaml:"reportFilename"`
}

func (p *AnalyzerPlugin) Kind() string { return KindAnalyzer }

func (p *AnalyzerPlugin) cloneSpec() PluginSpec {
	c := *p
	return &c
}

// CleanupPlugin removes files under Root that the build no longer references.
// Exclude holds glob patterns.
type CleanupPlugin struct {
	Root    string   `json:"root" yaml:"root"`
	Clean   bool     `json:"clean" yaml:"clean"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

func (p *CleanupPlugin) Kind() string { return KindCleanup }

func (p *CleanupPlugin) cloneSpec() PluginSpec {
	c := *p
	c.Exclude = slices.Clone(p.Exclude)
	return &c
}

// InlineRuntimePlugin inlines emitted scripts whose file name matches Inline
// into the generated HTML.
type InlineRuntimePlugin struct {
	Inline string `json:"inline" yaml:"inline"`
}

func (p *InlineRuntimePlugin) Kind() string { return KindInlineRuntime }

func (p *InlineRuntimePlugin) cloneSpec() PluginSpec {
	c := *p
	return &c
}
