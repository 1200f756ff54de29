package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Watch builds once and rebuilds on every source change until ctx is done.
// Each rebuild refreshes the metadata, the HTML page and Problems.
func (p *Pipeline) Watch(ctx context.Context) error {
	opts, err := p.BuildOptions()
	if err != nil {
		return err
	}

	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "rebuild",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				p.mu.Lock()
				defer p.mu.Unlock()

				if err := p.record(*result); err != nil {
					log.Warn().Err(err).Int("errors", len(p.problems.Errors)).Msg("Rebuild failed")
					return api.OnEndResult{}, nil
				}
				if err := p.emitHTML(); err != nil {
					log.Error().Err(err).Msg("Failed to write page")
				}
				log.Info().Int("warnings", len(p.problems.Warnings)).Msg("Rebuilt assets")
				return api.OnEndResult{}, nil
			})
		},
	})

	bctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("%w: %s", ErrBuildFailed, strings.Join(messages(ctxErr.Errors), "; "))
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	log.Info().Strs("entrypoints", p.cfg.Entry.Names()).Msg("Watching assets")

	<-ctx.Done()
	return nil
}
