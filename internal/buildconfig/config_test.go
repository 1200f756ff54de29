package buildconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/419921017/ph-fe-template/internal/paths"
	"github.com/419921017/ph-fe-template/internal/settings"
	"github.com/419921017/ph-fe-template/internal/workerpool"
)

func testBase(t *testing.T, env settings.Environment) *Configuration {
	t.Helper()

	r, err := paths.New("/project", paths.DefaultTable())
	require.NoError(t, err)

	s := settings.Default()
	s.Env = env
	return Base(s, r)
}

func TestBase_environmentDefaults(t *testing.T) {
	dev := testBase(t, settings.Development)
	require.Equal(t, "/", dev.Output.PublicPath)
	require.True(t, dev.Output.SourceMap)
	require.True(t, dev.LintOnSave)
	require.False(t, dev.CSS.Extract)
	require.False(t, dev.Optimization.Minimize)

	prod := testBase(t, settings.Production)
	require.Equal(t, "", prod.Output.PublicPath)
	require.False(t, prod.Output.SourceMap)
	require.False(t, prod.LintOnSave)
	require.True(t, prod.CSS.Extract)
	require.True(t, prod.Optimization.Minimize)
}

func TestBase_devServer(t *testing.T) {
	cfg := testBase(t, settings.Development)

	require.Equal(t, settings.DefaultPort, cfg.DevServer.Port)
	require.True(t, cfg.DevServer.Open)
	require.False(t, cfg.DevServer.Overlay.Warnings)
	require.True(t, cfg.DevServer.Overlay.Errors)
	require.Equal(t, []string{"^/api", "^/mock/"}, cfg.DevServer.Proxy.Names())

	api, ok := cfg.DevServer.Proxy.Get("^/api")
	require.True(t, ok)
	require.Equal(t, settings.DefaultDevURL, api.Headers["Referer"])
	require.Equal(t, []PathRewrite{{Pattern: "^/api", Replacement: ""}}, api.PathRewrite)
}

func TestClone_isIndependent(t *testing.T) {
	orig := testBase(t, settings.Production)
	orig.Optimization.SplitChunks = &SplitChunks{Chunks: "all"}
	orig.Optimization.SplitChunks.CacheGroups.Set("libs", CacheGroup{Name: "chunk-libs", Priority: 10})
	orig.Optimization.RuntimeChunk = &RuntimeChunk{Name: "runtime"}

	c := orig.Clone()

	js, err := c.ModuleRule(RuleJS)
	require.NoError(t, err)
	js.Uses.Clear()
	js.Exclude = append(js.Exclude, "/tmp")
	c.Module.Rules.Set(RuleJS, js)

	svg, err := c.ModuleRule(RuleSVG)
	require.NoError(t, err)
	svg.Uses.Set("extra", Use{Loader: "extra"})

	p, err := c.Plugin(PluginPreload)
	require.NoError(t, err)
	p.Spec.(*PreloadPlugin).FileBlacklist[0] = "changed"

	c.Plugins.Delete(PluginPrefetch)
	c.Optimization.SplitChunks.CacheGroups.Delete("libs")
	c.Optimization.RuntimeChunk.Name = "other"
	c.CSS.Variables["hack"] = "changed"
	api, _ := c.DevServer.Proxy.Get("^/api")
	api.Headers["Referer"] = "changed"

	origJS, err := orig.ModuleRule(RuleJS)
	require.NoError(t, err)
	require.Equal(t, 1, origJS.Uses.Len())
	require.Empty(t, origJS.Exclude)

	origSVG, err := orig.ModuleRule(RuleSVG)
	require.NoError(t, err)
	require.False(t, origSVG.Uses.Has("extra"))

	origPreload, err := orig.Plugin(PluginPreload)
	require.NoError(t, err)
	require.Equal(t, `\.map$`, origPreload.Spec.(*PreloadPlugin).FileBlacklist[0])

	require.True(t, orig.Plugins.Has(PluginPrefetch))
	require.True(t, orig.Optimization.SplitChunks.CacheGroups.Has("libs"))
	require.Equal(t, "runtime", orig.Optimization.RuntimeChunk.Name)
	require.NotEqual(t, "changed", orig.CSS.Variables["hack"])
	origAPI, _ := orig.DevServer.Proxy.Get("^/api")
	require.Equal(t, settings.DefaultDevURL, origAPI.Headers["Referer"])
}

func TestClone_sharesPoolHandle(t *testing.T) {
	pool := workerpool.New(2)
	cfg := testBase(t, settings.Development)
	cfg.Plugins.Set("parallel", Plugin{Spec: &ParallelPlugin{ID: "babel", Pool: pool, Threads: pool.Size()}})

	p, err := cfg.Clone().Plugin("parallel")
	require.NoError(t, err)
	require.Same(t, pool, p.Spec.(*ParallelPlugin).Pool)
}

func TestConfiguration_marshalJSON(t *testing.T) {
	cfg := testBase(t, settings.Development)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	plugins := decoded["plugins"].(map[string]any)
	html := plugins["html"].(map[string]any)
	require.Equal(t, KindHTML, html["kind"])
	require.Equal(t, settings.DefaultTitle, html["options"].(map[string]any)["title"])
}

func TestLookups_missing(t *testing.T) {
	cfg := testBase(t, settings.Development)

	_, err := cfg.ModuleRule("nope")
	require.ErrorIs(t, err, ErrMissingRule)

	_, err = cfg.Plugin("nope")
	require.ErrorIs(t, err, ErrMissingPlugin)
}
