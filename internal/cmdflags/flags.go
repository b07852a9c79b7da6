package cmdflags

import (
	"github.com/urfave/cli/v2"
	"github.com/yusong-shen/multi-user-blog/internal/config"
	"github.com/yusong-shen/multi-user-blog/signer"
)

func DataDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        config.FlagDataDir,
		Aliases:     []string{"d"},
		Usage:       "Directory holding the blog database",
		EnvVars:     []string{"BLOG_DATA_DIR"},
		Destination: out,
		Value:       *out,
	}
}

func SecretEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = signer.SecretEnvVar
	}
	return &cli.StringFlag{
		Name:        "secret-envvar-name",
		Usage:       "Name of the environment variable that holds the cookie secret. The secret itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}
