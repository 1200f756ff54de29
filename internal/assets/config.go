package assets

import (
	"cmp"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

// extensions probed against each module rule's test pattern
var candidateExtensions = []string{
	".js", ".mjs", ".jsx", ".json",
	".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp",
	".css", ".less",
}

// BuildOptions translates the configuration into esbuild options.
func (p *Pipeline) BuildOptions() (api.BuildOptions, error) {
	cfg := p.cfg

	var entries []api.EntryPoint
	for name, input := range cfg.Entry.All() {
		entries = append(entries, api.EntryPoint{InputPath: input, OutputPath: name})
	}

	loaders, err := loaderMap(cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}

	plugins := []api.Plugin{}
	if plugin, ok := aliasPlugin(&cfg.Resolve.Alias); ok {
		plugins = append(plugins, plugin)
	}
	for name, rule := range cfg.Module.Rules.All() {
		if len(rule.Include) == 0 || firstLoader(rule) != "svg-sprite-loader" {
			continue
		}
		plugin, err := iconPlugin(name, rule)
		if err != nil {
			return api.BuildOptions{}, err
		}
		plugins = append(plugins, plugin)
	}

	minify := cfg.Optimization.Minimize
	return api.BuildOptions{
		EntryPointsAdvanced: entries,
		AbsWorkingDir:       p.root,
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		JSX:                 api.JSXAutomatic,
		Outdir:              p.outputDir(),
		PublicPath:          cfg.Output.PublicPath,
		EntryNames:          namePattern(cfg.Output.Filename),
		ChunkNames:          namePattern(cfg.Output.ChunkFilename),
		AssetNames:          namePattern(cfg.Output.AssetFilename),
		Format:              api.FormatESModule,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           cond(cfg.Output.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:            true,
		ResolveExtensions:   cfg.Resolve.Extensions,
		Loader:              loaders,
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(cfg.Mode.String()),
		},
		Plugins:  plugins,
		LogLevel: api.LogLevelSilent,
	}, nil
}

func (p *Pipeline) outputDir() string {
	return filepath.Join(p.root, p.cfg.Output.Dir)
}

// namePattern drops the extension from a file name template; esbuild adds its own.
func namePattern(filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// loaderMap maps extensions to esbuild loaders for every rule that is not
// scoped to include directories. Scoped rules are served by plugins.
func loaderMap(cfg *buildconfig.Configuration) (map[string]api.Loader, error) {
	loaders := map[string]api.Loader{}
	for name, rule := range cfg.Module.Rules.All() {
		if len(rule.Include) > 0 {
			continue
		}
		re, err := regexp.Compile(rule.Test)
		if err != nil {
			return nil, fmt.Errorf("module rule %s: %w", name, err)
		}
		for _, ext := range candidateExtensions {
			if !re.MatchString("file" + ext) {
				continue
			}
			if loader, ok := loaderFor(firstLoader(rule), ext); ok {
				loaders[ext] = loader
			}
		}
	}
	return loaders, nil
}

func firstLoader(rule buildconfig.ModuleRule) string {
	names := rule.Uses.Names()
	if len(names) == 0 {
		return ""
	}
	use, _ := rule.Uses.Get(names[0])
	return use.Loader
}

func loaderFor(loader, ext string) (api.Loader, bool) {
	name, _, _ := strings.Cut(loader, "?")
	switch name {
	case "parallel/loader", "babel-loader":
		return cond(ext == ".jsx", api.LoaderJSX, api.LoaderJS), true
	case "file-loader", "url-loader":
		return api.LoaderFile, true
	case "css-loader":
		return api.LoaderCSS, true
	default:
		return api.LoaderNone, false
	}
}

// aliasPlugin redirects imports that start with a registered alias.
func aliasPlugin(aliases *buildconfig.Registry[string]) (api.Plugin, bool) {
	if aliases.Len() == 0 {
		return api.Plugin{}, false
	}

	targets := make(map[string]string, aliases.Len())
	for name, target := range aliases.All() {
		targets[name] = target
	}
	// longest first so "@views" is not taken for "@"
	names := aliases.Names()
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	filter := "^(" + strings.Join(quoted, "|") + ")(/|$)"

	return api.Plugin{
		Name: "alias",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				target, ok := resolveAlias(names, targets, args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}
				result := build.Resolve(target, api.ResolveOptions{
					Importer:   args.Importer,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
				})
				if len(result.Errors) > 0 {
					return api.OnResolveResult{Errors: result.Errors}, nil
				}
				return api.OnResolveResult{
					Path:      result.Path,
					External:  result.External,
					Namespace: result.Namespace,
				}, nil
			})
		},
	}, true
}

// resolveAlias rewrites importPath when it starts with one of names, which
// must be ordered longest first.
func resolveAlias(names []string, targets map[string]string, importPath string) (string, bool) {
	for _, name := range names {
		rest, ok := strings.CutPrefix(importPath, name)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			continue
		}
		return targets[name] + rest, true
	}
	return "", false
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
