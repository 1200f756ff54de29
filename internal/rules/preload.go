package rules

import (
	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/settings"
)

// PreloadBlacklist keeps source maps, hot updates and the runtime chunk out of
// the preload hints.
var PreloadBlacklist = []string{`\.map$`, `hot-update\.js$`, `runtime\..*\.js$`}

// Preload narrows the preload hints to initial chunks. Production builds drop
// preload and prefetch hints entirely; with many routes they only add requests.
type Preload struct {
	always
	env settings.Environment
}

func NewPreload(env settings.Environment) *Preload {
	return &Preload{env: env}
}

func (p *Preload) Name() string { return NamePreload }

func (p *Preload) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	plugin, err := cfg.Plugin(buildconfig.PluginPreload)
	if err != nil {
		return nil, err
	}

	plugin.Spec = &buildconfig.PreloadPlugin{
		Rel:           "preload",
		Include:       "initial",
		FileBlacklist: append([]string(nil), PreloadBlacklist...),
	}
	cfg.Plugins.Set(buildconfig.PluginPreload, plugin)

	if p.env.IsProduction() {
		cfg.Plugins.Delete(buildconfig.PluginPrefetch)
		cfg.Plugins.Delete(buildconfig.PluginPreload)
	}
	return cfg, nil
}
