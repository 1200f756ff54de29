package rules

import "github.com/419921017/ph-fe-template/internal/buildconfig"

// BundleAnalysis registers the size report when the caller opted in and
// leaves the configuration untouched otherwise.
type BundleAnalysis struct {
	always
	Enabled        bool
	ReportFilename string
}

func NewBundleAnalysis(enabled bool) *BundleAnalysis {
	return &BundleAnalysis{Enabled: enabled, ReportFilename: "report.json"}
}

func (b *BundleAnalysis) Name() string { return NameBundleAnalysis }

func (b *BundleAnalysis) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if !b.Enabled {
		return cfg, nil
	}

	err := cfg.Plugins.Register(PluginAnalyzer, buildconfig.Plugin{Spec: &buildconfig.AnalyzerPlugin{
		ReportFilename: b.ReportFilename,
	}})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
