package buildconfig

import (
	"maps"

	"github.com/419921017/ph-fe-template/internal/paths"
	"github.com/419921017/ph-fe-template/internal/settings"
)

// Default module rule and plugin names present in every base configuration.
const (
	RuleJS     = "js"
	RuleSVG    = "svg"
	RuleImages = "images"
	RuleLess   = "less"

	PluginHTML     = "html"
	PluginPreload  = "preload"
	PluginPrefetch = "prefetch"
)

// Base returns the configuration skeleton that rules are applied to.
func Base(s settings.Settings, r *paths.Resolver) *Configuration {
	prod := s.Env.IsProduction()

	cfg := &Configuration{
		Name: s.Title,
		Mode: s.Env,
		Output: Output{
			Dir:           "dist",
			AssetsDir:     "static",
			PublicPath:    cond(prod, "", "/"),
			Filename:      "static/js/[name].[hash].js",
			ChunkFilename: "static/js/[name].[hash].js",
			AssetFilename: "static/media/[name].[hash]",
			SourceMap:     !prod,
		},
		Resolve: Resolve{
			Extensions: []string{".mjs", ".js", ".jsx", ".json"},
		},
		Optimization: Optimization{Minimize: prod},
		CSS: CSS{
			Extract:   prod,
			SourceMap: !prod,
			Variables: maps.Clone(s.StyleVariables),
		},
		PWA:        PWA{IconPaths: maps.Clone(s.IconPaths)},
		LintOnSave: !prod,
		Parallel:   s.Parallel,
		DevServer: DevServer{
			Port:    s.Port,
			Open:    true,
			Overlay: Overlay{Warnings: false, Errors: true},
		},
	}

	cfg.Entry.Set("app", "src/main.js")

	cfg.Module.Rules.Set(RuleJS, rule(`\.m?jsx?$`, "babel-loader", Use{Loader: "babel-loader"}))
	cfg.Module.Rules.Set(RuleSVG, rule(`\.(svg)(\?.*)?$`, "file-loader", Use{
		Loader:  "file-loader",
		Options: map[string]string{"name": "static/img/[name].[hash:8].[ext]"},
	}))
	cfg.Module.Rules.Set(RuleImages, rule(`\.(png|jpe?g|gif|webp)(\?.*)?$`, "url-loader", Use{
		Loader:  "url-loader",
		Options: map[string]string{"limit": "4096"},
	}))
	cfg.Module.Rules.Set(RuleLess, rule(`\.less$`, "less-loader", Use{Loader: "less-loader"}))

	cfg.Plugins.Set(PluginHTML, Plugin{Spec: &HTMLPlugin{
		Title:    s.Title,
		Template: r.Path("public/index.html"),
		Filename: "index.html",
	}})
	cfg.Plugins.Set(PluginPreload, Plugin{Spec: &PreloadPlugin{
		Rel:           "preload",
		Include:       "initial",
		FileBlacklist: []string{`\.map$`, `hot-update\.js$`},
	}})
	cfg.Plugins.Set(PluginPrefetch, Plugin{Spec: &PreloadPlugin{
		Rel:     "prefetch",
		Include: "asyncChunks",
	}})

	cfg.DevServer.Proxy.Set("^/api", ProxyRule{
		Target:       s.DevURL,
		ChangeOrigin: true,
		Headers:      map[string]string{"Referer": s.DevURL},
		PathRewrite:  []PathRewrite{{Pattern: "^/api", Replacement: ""}},
	})
	cfg.DevServer.Proxy.Set("^/mock/", ProxyRule{
		Target:       s.MockURL,
		ChangeOrigin: true,
		Headers:      map[string]string{"Referer": s.MockURL},
		PathRewrite:  []PathRewrite{{Pattern: "^/mock", Replacement: ""}},
	})

	return cfg
}

func rule(test, name string, use Use) ModuleRule {
	r := ModuleRule{Test: test}
	r.Uses.Set(name, use)
	return r
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
