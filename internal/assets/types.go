package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"sync"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/workerpool"
)

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates metadata was requested before a successful build
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

// BuildMetadata is the subset of the esbuild metafile the pipeline reads.
type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int                     `json:"bytes"`
	EntryPoint string                  `json:"entryPoint"`
	CSSBundle  string                  `json:"cssBundle"`
	Imports    []ImportInfo            `json:"imports"`
	Inputs     map[string]InputContrib `json:"inputs"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// Problems holds the messages of the most recent build.
type Problems struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Pipeline builds the assets described by a composed configuration
type Pipeline struct {
	cfg      *buildconfig.Configuration
	root     string
	pool     *workerpool.Pool
	metadata *BuildMetadata
	problems Problems
	mu       sync.RWMutex
}

// New creates a pipeline for cfg rooted at the project directory. Post-build
// work runs on the pool registered by the parallel plugin, or serially when
// there is none.
func New(cfg *buildconfig.Configuration, root string) *Pipeline {
	p := &Pipeline{cfg: cfg, root: root, pool: workerpool.New(1)}
	for _, plugin := range cfg.Plugins.All() {
		if spec, ok := plugin.Spec.(*buildconfig.ParallelPlugin); ok && spec.Pool != nil {
			p.pool = spec.Pool
		}
	}
	return p
}

// Problems returns the errors and warnings of the most recent build.
func (p *Pipeline) Problems() Problems {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.problems
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
