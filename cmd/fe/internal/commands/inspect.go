package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type InspectCmd struct {
	Mode         string `help:"Build mode (development or production)." default:"development" env:"NODE_ENV"`
	Format       string `help:"Output format." enum:"json,yaml" default:"json"`
	ComposeFlags `embed:""`

	out io.Writer
}

func (i *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	setupLogging(globals.Debug)

	p, err := globals.compose(i.Mode, i.ComposeFlags)
	if err != nil {
		return err
	}

	out := i.out
	if out == nil {
		out = os.Stdout
	}

	if i.Format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(p.cfg); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(p.cfg)
}
