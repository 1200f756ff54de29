package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// metafile written next to the bundle
const metafileName = "meta.json"

// Build runs esbuild with the composed settings, loads the metadata and runs
// the post-build plugins.
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts, err := p.BuildOptions()
	if err != nil {
		return err
	}

	log.Info().
		Strs("entrypoints", p.cfg.Entry.Names()).
		Str("mode", p.cfg.Mode.String()).
		Str("outdir", opts.Outdir).
		Msg("Building assets")

	if p.cfg.Mode.IsProduction() {
		if err := p.cleanOutput(); err != nil {
			return err
		}
	}

	if err := p.record(api.Build(opts)); err != nil {
		return err
	}

	return p.postBuild(ctx)
}

// cleanOutput removes the previous build so stale hashed bundles are neither
// served nor compressed.
func (p *Pipeline) cleanOutput() error {
	dir := p.outputDir()
	if rel, err := filepath.Rel(p.root, dir); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to clean output directory %s outside the project", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	log.Debug().Str("outdir", dir).Msg("Cleaned output directory")
	return nil
}

// record stores the problems and metadata of a finished build.
func (p *Pipeline) record(result api.BuildResult) error {
	p.problems = Problems{
		Errors:   messages(result.Errors),
		Warnings: messages(result.Warnings),
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return ErrBuildFailed
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
	}

	if err := os.MkdirAll(p.outputDir(), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(p.outputDir(), metafileName), []byte(result.Metafile), 0600); err != nil {
		return fmt.Errorf("failed to write metafile: %w", err)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.metadata = &metadata
	return nil
}

func messages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text))
			continue
		}
		out = append(out, msg.Text)
	}
	return out
}

func (p *Pipeline) postBuild(ctx context.Context) error {
	if err := p.emitHTML(); err != nil {
		return err
	}
	if err := p.compress(ctx); err != nil {
		return err
	}
	if err := p.analyze(); err != nil {
		return err
	}
	return p.cleanup()
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadScripts(entryPointPath)
}

func (p *Pipeline) loadScripts(entryPointPath string) ([]string, string, error) {
	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	// Find the output file for this entrypoint
	for _, outputPath := range p.outputPaths() {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath {
			continue
		}
		entrypoint := p.publicURL(outputPath)
		scripts := []string{entrypoint}
		visited := map[string]bool{outputPath: true}
		p.addDependencies(info, &scripts, visited, isStatic)
		return scripts, entrypoint, nil
	}

	return nil, "", errors.New("entrypoint not found in metadata")
}

// asyncScripts returns the chunks loaded on demand from the entrypoint.
func (p *Pipeline) asyncScripts(entryPointPath string) []string {
	var scripts []string
	visited := map[string]bool{}
	for _, outputPath := range p.outputPaths() {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath {
			continue
		}
		for _, imp := range info.Imports {
			if imp.Kind != "dynamic-import" || visited[imp.Path] {
				continue
			}
			visited[imp.Path] = true
			scripts = append(scripts, p.publicURL(imp.Path))
			if chunk, ok := p.metadata.Outputs[imp.Path]; ok {
				p.addDependencies(chunk, &scripts, visited, isStatic)
			}
		}
	}
	return scripts
}

func isStatic(imp ImportInfo) bool {
	return imp.Kind != "dynamic-import"
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool, follow func(ImportInfo) bool) {
	for _, imp := range output.Imports {
		if visited[imp.Path] || !follow(imp) {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, p.publicURL(imp.Path))

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, scripts, visited, follow)
		}
	}
}

// outputPaths lists the metafile outputs in a stable order.
func (p *Pipeline) outputPaths() []string {
	paths := make([]string, 0, len(p.metadata.Outputs))
	for path := range p.metadata.Outputs {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// publicURL maps a metafile output path, relative to the project root, to
// the URL the page loads it from.
func (p *Pipeline) publicURL(outputPath string) string {
	rel := filepath.ToSlash(strings.TrimPrefix(filepath.ToSlash(outputPath), filepath.ToSlash(p.cfg.Output.Dir)+"/"))
	prefix := p.cfg.Output.PublicPath
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + rel
}

// absPath maps a metafile path to the file system.
func (p *Pipeline) absPath(outputPath string) string {
	return filepath.Join(p.root, filepath.FromSlash(outputPath))
}
