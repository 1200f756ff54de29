package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/419921017/ph-fe-template/cmd/fe/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug    bool   `help:"Enable debug mode."`
		Root     string `help:"Project root directory." default:"." type:"existingdir"`
		Settings string `help:"Settings file overlaying the defaults, relative to the root." default:"fe.yaml" env:"FE_SETTINGS"`
		Version  kong.VersionFlag

		Build   commands.BuildCmd   `cmd:"" help:"Build the bundle"`
		Serve   commands.ServeCmd   `cmd:"" help:"Start the development server"`
		Inspect commands.InspectCmd `cmd:"" help:"Print the composed build configuration"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:    cli.Debug,
		Version:  version,
		Root:     cli.Root,
		Settings: cli.Settings,
	})
	cmd.FatalIfErrorf(err)
}
