package rules

import (
	"fmt"
	"regexp"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

const (
	DefaultCompressionTest      = `\.js$|\.html$|\.css$`
	DefaultCompressionThreshold = 4096
)

// Compression registers gzip output for text assets above a size threshold.
type Compression struct {
	always
	Test      string
	Threshold int
}

func NewCompression() *Compression {
	return &Compression{Test: DefaultCompressionTest, Threshold: DefaultCompressionThreshold}
}

func (c *Compression) Name() string { return NameCompression }

func (c *Compression) Apply(cfg *buildconfig.Configuration) (*buildconfig.Configuration, error) {
	if _, err := regexp.Compile(c.Test); err != nil {
		return nil, fmt.Errorf("%w: compression test: %w", ErrInvalidPattern, err)
	}

	err := cfg.Plugins.Register(PluginCompression, buildconfig.Plugin{Spec: &buildconfig.CompressionPlugin{
		Test:      c.Test,
		Threshold: c.Threshold,
	}})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
