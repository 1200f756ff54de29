package assets

import (
	"context"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/paths"
	"github.com/419921017/ph-fe-template/internal/settings"
)

func baseConfig(t *testing.T, root string, env settings.Environment) *buildconfig.Configuration {
	t.Helper()
	r, err := paths.New(root, paths.DefaultTable())
	require.NoError(t, err)

	s := settings.Default()
	s.Env = env
	return buildconfig.Base(s, r)
}

func TestNamePattern(t *testing.T) {
	require.Equal(t, "static/js/[name].[hash]", namePattern("static/js/[name].[hash].js"))
	require.Equal(t, "static/media/[name].[hash]", namePattern("static/media/[name].[hash]"))
	require.Equal(t, "", namePattern(""))
}

func TestLoaderMap(t *testing.T) {
	cfg := baseConfig(t, "/project", settings.Development)

	loaders, err := loaderMap(cfg)
	require.NoError(t, err)
	require.Equal(t, map[string]api.Loader{
		".js":   api.LoaderJS,
		".mjs":  api.LoaderJS,
		".jsx":  api.LoaderJSX,
		".svg":  api.LoaderFile,
		".png":  api.LoaderFile,
		".jpg":  api.LoaderFile,
		".jpeg": api.LoaderFile,
		".gif":  api.LoaderFile,
		".webp": api.LoaderFile,
	}, loaders)

	bad := cfg.Clone()
	bad.Module.Rules.Set("broken", buildconfig.ModuleRule{Test: "("})
	_, err = loaderMap(bad)
	require.Error(t, err)
}

func TestResolveAlias(t *testing.T) {
	names := []string{"@views", "@"}
	targets := map[string]string{"@views": "/project/src/views", "@": "/project/src"}

	tests := []struct {
		in       string
		expected string
		ok       bool
	}{
		{in: "@views/Home.vue", expected: "/project/src/views/Home.vue", ok: true},
		{in: "@/util", expected: "/project/src/util", ok: true},
		{in: "@", expected: "/project/src", ok: true},
		{in: "@vue/shared", ok: false},
		{in: "./local", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := resolveAlias(names, targets, tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestSpriteSymbol(t *testing.T) {
	svg := `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="24" viewBox="0 0 24 24">
  <path d="M0 0h24v24H0z"/>
</svg>`

	require.Equal(t,
		`<symbol id="icon-star" viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></symbol>`,
		spriteSymbol(svg, SymbolID("icon-[name]", "/project/src/icons/star.svg")))

	require.Equal(t, "not an svg", spriteSymbol("not an svg", "icon-x"))
}

func testMetadata() *BuildMetadata {
	return &BuildMetadata{
		Outputs: map[string]OutputInfo{
			"dist/static/js/app.A.js": {
				EntryPoint: "src/main.js",
				CSSBundle:  "dist/static/js/app.A.css",
				Imports: []ImportInfo{
					{Path: "dist/static/js/chunk.B.js", Kind: "import-statement"},
					{Path: "dist/static/js/about.C.js", Kind: "dynamic-import"},
				},
			},
			"dist/static/js/chunk.B.js": {},
			"dist/static/js/about.C.js": {
				Imports: []ImportInfo{{Path: "dist/static/js/chunk.B.js", Kind: "import-statement"}},
			},
			"dist/static/js/app.A.js.map": {},
		},
	}
}

func TestLoadScripts(t *testing.T) {
	p := New(baseConfig(t, "/project", settings.Development), "/project")

	_, _, err := p.LoadScripts("src/main.js")
	require.ErrorIs(t, err, ErrNotBuilt)

	p.metadata = testMetadata()
	scripts, main, err := p.LoadScripts("src/main.js")
	require.NoError(t, err)
	require.Equal(t, "/static/js/app.A.js", main)
	require.Equal(t, []string{"/static/js/app.A.js", "/static/js/chunk.B.js"}, scripts)

	_, _, err = p.LoadScripts("src/other.js")
	require.Error(t, err)
}

func TestPage_development(t *testing.T) {
	p := New(baseConfig(t, "/project", settings.Development), "/project")
	p.metadata = testMetadata()

	page, err := p.page("Demo")
	require.NoError(t, err)
	require.Equal(t, "Demo", page.Title)
	require.Equal(t, []string{"/static/js/app.A.js"}, page.Scripts)
	require.Equal(t, []string{"/static/js/app.A.css"}, page.Styles)
	require.Equal(t, []Link{
		{Rel: "preload", Href: "/static/js/app.A.js"},
		{Rel: "preload", Href: "/static/js/chunk.B.js"},
		{Rel: "prefetch", Href: "/static/js/about.C.js"},
		{Rel: "prefetch", Href: "/static/js/chunk.B.js"},
	}, page.Links)
	require.Len(t, page.Icons, 4)
	require.Equal(t, Link{Rel: "apple-touch-icon", Href: "/favicon.icon"}, page.Icons[0])
	require.Empty(t, page.Inline)
}

func TestPage_inlinesRuntime(t *testing.T) {
	root := t.TempDir()
	cfg := baseConfig(t, root, settings.Production)
	cfg.Plugins.Set("script-ext-html", buildconfig.Plugin{
		After: buildconfig.PluginHTML,
		Spec:  &buildconfig.InlineRuntimePlugin{Inline: `runtime\..*\.js$`},
	})

	runtimeFile := filepath.Join(root, "dist", "static", "js", "runtime.R.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(runtimeFile), 0o755))
	require.NoError(t, os.WriteFile(runtimeFile, []byte("var r=1;"), 0o600))

	p := New(cfg, root)
	p.metadata = &BuildMetadata{Outputs: map[string]OutputInfo{
		"dist/static/js/app.A.js": {
			EntryPoint: "src/main.js",
			Imports:    []ImportInfo{{Path: "dist/static/js/runtime.R.js", Kind: "import-statement"}},
		},
		"dist/static/js/runtime.R.js": {},
	}}

	page, err := p.page("Demo")
	require.NoError(t, err)
	require.Equal(t, []template.JS{"var r=1;"}, page.Inline)
	require.Equal(t, []string{"static/js/app.A.js"}, page.Scripts)
	require.NotContains(t, page.Links, Link{Rel: "preload", Href: "static/js/runtime.R.js"})
}

func TestHints_blacklist(t *testing.T) {
	p := New(baseConfig(t, "/project", settings.Development), "/project")

	links, err := p.hints([]string{"/a.js", "/a.js.map", "/x.hot-update.js"}, nil)
	require.NoError(t, err)
	require.Equal(t, []Link{{Rel: "preload", Href: "/a.js"}}, links)
}

func TestNewReport(t *testing.T) {
	report := NewReport(&BuildMetadata{Outputs: map[string]OutputInfo{
		"dist/small.js": {Bytes: 100, Inputs: map[string]InputContrib{"src/a.js": {BytesInOutput: 100}}},
		"dist/big.js": {Bytes: 400, Inputs: map[string]InputContrib{
			"src/b.js": {BytesInOutput: 100},
			"src/c.js": {BytesInOutput: 300},
		}},
	}})

	require.Equal(t, 500, report.TotalBytes)
	require.Equal(t, "dist/big.js", report.Outputs[0].Path)
	require.Equal(t, "src/c.js", report.Outputs[0].Inputs[0].Path)
	require.InDelta(t, 75.0, report.Outputs[0].Inputs[0].Percentage, 0.001)
	require.Equal(t, "dist/small.js", report.Outputs[1].Path)
}

func TestUnusedFiles(t *testing.T) {
	root := t.TempDir()
	images := filepath.Join(root, "src", "assets", "images")
	for _, rel := range []string{"used.png", "orphan.png", "node_modules/pkg/keep.png"} {
		file := filepath.Join(images, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	}

	spec := &buildconfig.CleanupPlugin{Root: images, Exclude: []string{"**/node_modules/**"}}
	metadata := &BuildMetadata{Inputs: map[string]InputInfo{"src/assets/images/used.png": {Bytes: 1}}}

	unused, err := UnusedFiles(root, spec, metadata)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(images, "orphan.png")}, unused)

	_, err = UnusedFiles(root, spec, nil)
	require.ErrorIs(t, err, ErrNotBuilt)

	missing := &buildconfig.CleanupPlugin{Root: filepath.Join(root, "nope")}
	unused, err = UnusedFiles(root, missing, metadata)
	require.NoError(t, err)
	require.Empty(t, unused)
}

func TestGzipFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.js")
	require.NoError(t, os.WriteFile(file, []byte("console.log('hello')"), 0o600))

	require.NoError(t, gzipFile(file))

	f, err := os.Open(file + ".gz")
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, "console.log('hello')", string(data))
	require.Equal(t, "app.js", zr.Name)
}

func TestCompress_threshold(t *testing.T) {
	root := t.TempDir()
	cfg := baseConfig(t, root, settings.Production)
	cfg.Plugins.Set("compression", buildconfig.Plugin{Spec: &buildconfig.CompressionPlugin{
		Test:      `\.js$|\.html$|\.css$`,
		Threshold: 4096,
	}})

	files := map[string]int{
		"static/js/below.js":  4095,
		"static/js/exact.js":  4096,
		"static/js/above.js":  4097,
		"static/img/logo.png": 8192,
	}
	dist := filepath.Join(root, cfg.Output.Dir)
	for rel, size := range files {
		file := filepath.Join(dist, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, os.WriteFile(file, []byte(strings.Repeat("a", size)), 0o600))
	}

	require.NoError(t, New(cfg, root).compress(context.Background()))

	tests := []struct {
		file       string
		compressed bool
	}{
		{file: "static/js/below.js", compressed: false},
		{file: "static/js/exact.js", compressed: true},
		{file: "static/js/above.js", compressed: true},
		{file: "static/img/logo.png", compressed: false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			gz := filepath.Join(dist, filepath.FromSlash(tt.file)) + ".gz"
			if tt.compressed {
				require.FileExists(t, gz)
			} else {
				require.NoFileExists(t, gz)
			}
		})
	}
}
