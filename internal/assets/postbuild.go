package assets

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/gobwas/glob"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

// compress gzips every emitted file that matches a compression plugin and is
// at least its threshold in size. Files are compressed on the shared pool.
func (p *Pipeline) compress(ctx context.Context) error {
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.CompressionPlugin)
		if !ok {
			continue
		}

		re, err := regexp.Compile(spec.Test)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}

		files, err := p.emitted()
		if err != nil {
			return err
		}

		var tasks []func(context.Context) error
		for _, file := range files {
			if !re.MatchString(file) {
				continue
			}
			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			if info.Size() < int64(spec.Threshold) {
				continue
			}
			tasks = append(tasks, func(context.Context) error {
				return gzipFile(file)
			})
		}

		if err := p.pool.Run(ctx, tasks...); err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}
		log.Info().Int("files", len(tasks)).Int("threshold", spec.Threshold).Msg("Compressed assets")
	}
	return nil
}

// emitted lists the regular files under the output directory.
func (p *Pipeline) emitted() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.outputDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && filepath.Ext(path) != ".gz" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		_ = dst.Close()
		return err
	}
	zw.Name = filepath.Base(path)

	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		_ = dst.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Report summarises the size of every output and what went into it.
type Report struct {
	TotalBytes int            `json:"totalBytes"`
	Outputs    []OutputReport `json:"outputs"`
}

type OutputReport struct {
	Path   string        `json:"path"`
	Bytes  int           `json:"bytes"`
	Inputs []InputReport `json:"inputs"`
}

type InputReport struct {
	Path          string  `json:"path"`
	BytesInOutput int     `json:"bytesInOutput"`
	Percentage    float64 `json:"percentage"`
}

// NewReport builds a size report from build metadata, largest outputs first.
func NewReport(metadata *BuildMetadata) Report {
	var report Report
	for path, output := range metadata.Outputs {
		out := OutputReport{Path: path, Bytes: output.Bytes}
		for input, contrib := range output.Inputs {
			in := InputReport{Path: input, BytesInOutput: contrib.BytesInOutput}
			if output.Bytes > 0 {
				in.Percentage = float64(contrib.BytesInOutput) / float64(output.Bytes) * 100
			}
			out.Inputs = append(out.Inputs, in)
		}
		slices.SortFunc(out.Inputs, func(a, b InputReport) int {
			return cmp.Or(cmp.Compare(b.BytesInOutput, a.BytesInOutput), cmp.Compare(a.Path, b.Path))
		})
		report.TotalBytes += output.Bytes
		report.Outputs = append(report.Outputs, out)
	}
	slices.SortFunc(report.Outputs, func(a, b OutputReport) int {
		return cmp.Or(cmp.Compare(b.Bytes, a.Bytes), cmp.Compare(a.Path, b.Path))
	})
	return report
}

func (p *Pipeline) analyze() error {
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.AnalyzerPlugin)
		if !ok {
			continue
		}

		report := NewReport(p.metadata)
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}

		target := filepath.Join(p.outputDir(), spec.ReportFilename)
		if err := os.WriteFile(target, data, 0600); err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}

		for _, out := range report.Outputs {
			log.Info().Str("output", out.Path).Int("bytes", out.Bytes).Int("inputs", len(out.Inputs)).Msg("Bundle size")
		}
		log.Info().Str("report", target).Int("total_bytes", report.TotalBytes).Msg("Wrote bundle analysis")
	}
	return nil
}

// cleanup reports, and optionally removes, files under the cleanup root
// that no output references.
func (p *Pipeline) cleanup() error {
	for name, plugin := range p.cfg.Plugins.All() {
		spec, ok := plugin.Spec.(*buildconfig.CleanupPlugin)
		if !ok {
			continue
		}

		unused, err := UnusedFiles(p.root, spec, p.metadata)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}

		for _, file := range unused {
			if !spec.Clean {
				log.Warn().Str("file", file).Msg("Unused file")
				continue
			}
			if err := os.Remove(file); err != nil {
				return fmt.Errorf("plugin %s: %w", name, err)
			}
			log.Info().Str("file", file).Msg("Removed unused file")
		}
	}
	return nil
}

// UnusedFiles walks the cleanup root and returns the files that are neither
// build inputs nor excluded.
func UnusedFiles(root string, spec *buildconfig.CleanupPlugin, metadata *BuildMetadata) ([]string, error) {
	if metadata == nil {
		return nil, ErrNotBuilt
	}

	excludes := make([]glob.Glob, 0, len(spec.Exclude))
	for _, pattern := range spec.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude %s: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}

	used := make(map[string]bool, len(metadata.Inputs))
	for input := range metadata.Inputs {
		used[filepath.Join(root, filepath.FromSlash(input))] = true
	}

	var unused []string
	err := filepath.WalkDir(spec.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || used[path] {
			return nil
		}
		slashed := filepath.ToSlash(path)
		if slices.ContainsFunc(excludes, func(g glob.Glob) bool { return g.Match(slashed) }) {
			return nil
		}
		unused = append(unused, path)
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return unused, err
}
