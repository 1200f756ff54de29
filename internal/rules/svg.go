package rules

import (
	"slices"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

// SVGIcons carves the icon directory out of the generic SVG rule and routes it
// to the sprite loader instead.
type SVGIcons struct {
	always
	IconDir  string
	SymbolID string
}

func NewSVGIcons(iconDir string) *SVGIcons {
	return &SVGIcons{IconDir: iconDir, SymbolID: "icon-[name]"}
}

func (s *SVGIcons) Name() string { return NameSVGIcons }

func (s *SVGIcons) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	svg, err := cfg.ModuleRule(buildconfig.RuleSVG)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(svg.Exclude, s.IconDir) {
		svg.Exclude = append(svg.Exclude, s.IconDir)
	}
	cfg.Module.Rules.Set(buildconfig.RuleSVG, svg)

	icons := buildconfig.ModuleRule{
		Test:    `\.svg$`,
		Include: []string{s.IconDir},
	}
	icons.Uses.Set("svg-sprite-loader", buildconfig.Use{
		Loader:  "svg-sprite-loader",
		Options: map[string]string{"symbolId": s.SymbolID},
	})
	if err := cfg.Module.Rules.Register(RuleIcons, icons); err != nil {
		return nil, err
	}
	return cfg, nil
}
