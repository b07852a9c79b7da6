package secret

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yusong-shen/multi-user-blog/signer"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage the secret used to sign session cookies",
		Subcommands: []*cli.Command{
			{
				Name:  "gen",
				Usage: fmt.Sprintf("Print a new random secret, suitable for %v", signer.SecretEnvVar),
				Action: func(ctx *cli.Context) error {
					s, err := signer.GenerateSecret()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(ctx.App.Writer, s)
					return err
				},
			},
		},
	}
}
