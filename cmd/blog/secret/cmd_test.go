package secret

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestGen(t *testing.T) {
	var out bytes.Buffer
	app := &cli.App{
		Name:     "blog",
		Writer:   &out,
		Commands: []*cli.Command{Cmd()},
	}
	require.NoError(t, app.Run([]string{"blog", "secret", "gen"}))
	first := strings.TrimSpace(out.String())
	raw, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	out.Reset()
	require.NoError(t, app.Run([]string{"blog", "secret", "gen"}))
	require.NotEqual(t, first, strings.TrimSpace(out.String()))
}
