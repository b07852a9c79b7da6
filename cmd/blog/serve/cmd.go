package serve

import (
	"context"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/yusong-shen/multi-user-blog/blog"
	"github.com/yusong-shen/multi-user-blog/internal/cmdflags"
	"github.com/yusong-shen/multi-user-blog/internal/config"
	"github.com/yusong-shen/multi-user-blog/internal/httpserver"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/session"
	"github.com/yusong-shen/multi-user-blog/signer"
	"github.com/yusong-shen/multi-user-blog/store"
)

func Cmd() *cli.Command {
	cfg := config.Defaults()
	var configFile string
	var secretEnvVar string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the blog web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        config.FlagBind,
				Usage:       "Address to bind the http server",
				EnvVars:     []string{"BLOG_BIND"},
				Value:       cfg.Bind,
				Destination: &cfg.Bind,
			},
			cmdflags.DataDir(&cfg.DataDir),
			&cli.StringFlag{
				Name:        config.FlagCookieName,
				Usage:       "Name of the session cookie",
				EnvVars:     []string{"BLOG_COOKIE_NAME"},
				Value:       cfg.CookieName,
				Destination: &cfg.CookieName,
			},
			&cli.DurationFlag{
				Name:        config.FlagUserCacheTTL,
				Usage:       "How long a user stays in the in-memory cache after being loaded",
				EnvVars:     []string{"BLOG_USER_CACHE_TTL"},
				Value:       cfg.UserCacheTTL,
				Destination: &cfg.UserCacheTTL,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Lua file returning a table with server settings (flags take precedence)",
				EnvVars:     []string{"BLOG_CONFIG"},
				Destination: &configFile,
			},
			cmdflags.SecretEnvVar(&secretEnvVar),
		},
		Action: func(ctx *cli.Context) error {
			settings, err := resolveConfig(cfg, ctx.String(config.FlagLogLevel), configFile, ctx.IsSet)
			if err != nil {
				return err
			}
			ctx.Context = logutil.WithLogger(ctx.Context, logutil.New(os.Stderr, settings.LogLevel))
			if err := settings.Validate(); err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)

			secret, err := signer.SecretFromEnv(secretEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			handler, cleanup, err := newHandler(ctx.Context, settings, secret)
			if err != nil {
				return err
			}
			defer cleanup()
			log.Info().Str("bind", settings.Bind).Str("dataDir", settings.DataDir).Msg("Starting blog server")
			return httpserver.Serve(ctx.Context, settings.Bind, handler)
		},
	}
}

// resolveConfig layers the Lua file at configFile (if any) over cfg. The
// global log level is applied first so the file can only override it when
// the level was not given explicitly.
func resolveConfig(cfg config.Config, logLevel, configFile string, explicit func(string) bool) (config.Config, error) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if configFile != "" {
		f, err := config.LoadFile(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Merge(f, explicit)
	}
	return cfg, nil
}

// newHandler opens the store under cfg.DataDir and returns the blog
// application signing cookies with a key derived from secret. cleanup
// releases the cache and the store.
func newHandler(ctx context.Context, cfg config.Config, secret []byte) (http.Handler, func(), error) {
	sign := signer.New(signer.DeriveKey(secret, signer.CookiePurpose))
	st, err := store.Open(ctx, cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	users, err := store.NewUserCache(st, cfg.UserCacheTTL)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	cleanup := func() {
		users.Close()
		st.Close()
	}
	sessions := session.New(sign, users, session.WithCookieName(cfg.CookieName))
	handler, err := blog.AsHandler(ctx, st, sessions)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return handler, cleanup, nil
}
