package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/419921017/ph-fe-template/internal/assets"
)

type BuildCmd struct {
	Mode         string `help:"Build mode (development or production)." default:"production" env:"NODE_ENV"`
	ComposeFlags `embed:""`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals.Debug)

	p, err := globals.compose(b.Mode, b.ComposeFlags)
	if err != nil {
		return err
	}

	started := time.Now()
	log.Info().Str("version", globals.Version).Str("mode", p.cfg.Mode.String()).Str("root", p.root).Msg("Starting build")

	if err := assets.New(p.cfg, p.root).Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().
		Str("outdir", filepath.Join(p.root, p.cfg.Output.Dir)).
		Dur("duration", time.Since(started)).
		Msg("Build complete")
	return nil
}
