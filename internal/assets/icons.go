package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

const defaultSymbolID = "icon-[name]"

var (
	svgOpenTag = regexp.MustCompile(`(?s)<svg\b([^>]*)>`)
	viewBox    = regexp.MustCompile(`viewBox="([^"]*)"`)
)

// iconPlugin loads the files of a directory scoped svg rule as sprite
// symbols. Files outside the rule's directories fall through to the
// default loader.
func iconPlugin(name string, rule buildconfig.ModuleRule) (api.Plugin, error) {
	if _, err := regexp.Compile(rule.Test); err != nil {
		return api.Plugin{}, fmt.Errorf("module rule %s: %w", name, err)
	}

	symbolID := defaultSymbolID
	if use, ok := rule.Uses.Get("svg-sprite-loader"); ok && use.Options["symbolId"] != "" {
		symbolID = use.Options["symbolId"]
	}

	return api.Plugin{
		Name: name,
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: rule.Test}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				ok, err := rule.Matches(args.Path)
				if err != nil || !ok {
					return api.OnLoadResult{}, err
				}

				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}

				contents := spriteSymbol(string(data), SymbolID(symbolID, args.Path))
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderText,
					WatchFiles: []string{args.Path},
				}, nil
			})
		},
	}, nil
}

// SymbolID expands the [name] placeholder with the icon's file name.
func SymbolID(pattern, file string) string {
	base := filepath.Base(file)
	return strings.ReplaceAll(pattern, "[name]", strings.TrimSuffix(base, filepath.Ext(base)))
}

// spriteSymbol rewrites an svg document as a <symbol>, keeping its viewBox.
func spriteSymbol(svg, id string) string {
	m := svgOpenTag.FindStringSubmatchIndex(svg)
	if m == nil {
		return svg
	}

	attrs := ""
	if vb := viewBox.FindStringSubmatch(svg[m[2]:m[3]]); vb != nil {
		attrs = fmt.Sprintf(` viewBox="%s"`, vb[1])
	}

	body := strings.TrimSpace(svg[m[1]:])
	body = strings.TrimSpace(strings.TrimSuffix(body, "</svg>"))
	return fmt.Sprintf(`<symbol id="%s"%s>%s</symbol>`, id, attrs, body)
}
