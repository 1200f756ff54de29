package commands

import (
	"context"
	"path/filepath"

	"github.com/419921017/ph-fe-template/internal/assets"
	"github.com/419921017/ph-fe-template/internal/devserver"
)

type ServeCmd struct {
	Mode         string   `help:"Build mode (development or production)." default:"development" env:"NODE_ENV"`
	Host         string   `help:"Listen host." default:"0.0.0.0" env:"HOST"`
	CORSOrigins  []string `help:"Allowed CORS origins." default:"*"`
	ComposeFlags `embed:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals.Debug)

	p, err := globals.compose(s.Mode, s.ComposeFlags)
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("mode", p.cfg.Mode.String()).Str("root", p.root).Msg("Starting dev server")

	srv, err := devserver.New(p.cfg, filepath.Join(p.root, p.cfg.Output.Dir), assets.New(p.cfg, p.root), devserver.Options{
		Host:        s.Host,
		CORSOrigins: s.CORSOrigins,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
