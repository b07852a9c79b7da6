package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/yusong-shen/multi-user-blog/cmd/blog/secret"
	"github.com/yusong-shen/multi-user-blog/cmd/blog/serve"
	"github.com/yusong-shen/multi-user-blog/cmd/blog/users"
	"github.com/yusong-shen/multi-user-blog/internal/config"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
)

func main() {
	logLevel := "info"
	envFile := config.EnvFile
	app := &cli.App{
		Name:  "blog",
		Usage: "A small multi user blog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        config.FlagLogLevel,
				Usage:       "Minimum level to log (trace, debug, info, warn, error)",
				EnvVars:     []string{"BLOG_LOG_LEVEL"},
				Value:       logLevel,
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "File with environment variables to load before anything else (missing files are ignored)",
				Value:       envFile,
				Destination: &envFile,
			},
		},
		Before: func(ctx *cli.Context) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}
			// the env file may carry BLOG_LOG_LEVEL, it counts as explicit
			if !ctx.IsSet(config.FlagLogLevel) {
				if lvl := os.Getenv("BLOG_LOG_LEVEL"); lvl != "" {
					if err := ctx.Set(config.FlagLogLevel, lvl); err != nil {
						return err
					}
				}
			}
			ctx.Context = logutil.WithLogger(ctx.Context, logutil.New(os.Stderr, logLevel))
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
			secret.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
