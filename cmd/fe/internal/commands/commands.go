package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/compose"
	"github.com/419921017/ph-fe-template/internal/logger"
	"github.com/419921017/ph-fe-template/internal/paths"
	"github.com/419921017/ph-fe-template/internal/settings"
	"github.com/419921017/ph-fe-template/internal/workerpool"
)

type Globals struct {
	Debug    bool
	Version  string
	Root     string
	Settings string
}

// ComposeFlags are shared by every command that composes a configuration.
type ComposeFlags struct {
	Analyzer string `help:"Write a bundle size report when set." env:"ANALYZER"`
	Port     int    `help:"Dev server port, 8888 unless the settings file says otherwise." env:"port,npm_config_port"`
	Threads  int    `help:"Worker pool size, 0 uses every CPU." default:"0"`
}

// project is a composed configuration and the root it was composed for.
type project struct {
	root string
	cfg  *buildconfig.Configuration
}

func setupLogging(debug bool) zerolog.Logger {
	l := logger.Setup(debug)
	log.Logger = l
	return l
}

// compose loads the settings and runs the rule table for mode.
func (g *Globals) compose(mode string, flags ComposeFlags) (*project, error) {
	root, err := filepath.Abs(g.Root)
	if err != nil {
		return nil, err
	}

	settingsPath := g.Settings
	if settingsPath != "" && !filepath.IsAbs(settingsPath) {
		settingsPath = filepath.Join(root, settingsPath)
	}
	s, err := settings.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	s.Env = settings.ParseEnvironment(mode)
	s.Analyze = flags.Analyzer != ""
	if flags.Port > 0 {
		s.Port = flags.Port
	}

	r, err := paths.New(root, paths.DefaultTable())
	if err != nil {
		return nil, err
	}

	poolSize := 1
	if s.Parallel {
		poolSize = flags.Threads
	}

	cfg, err := compose.Compose(buildconfig.Base(s, r), s.Env, compose.Options{
		Resolver: r,
		Analyze:  s.Analyze,
		Pool:     workerpool.New(poolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose %s configuration: %w", s.Env, err)
	}

	return &project{root: root, cfg: cfg}, nil
}
