package users

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/yusong-shen/multi-user-blog/blog"
	"github.com/yusong-shen/multi-user-blog/internal/cmdflags"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/store"
	"github.com/yusong-shen/multi-user-blog/vault"
	"golang.org/x/term"
)

func Cmd() *cli.Command {
	dataDir := "data"
	return &cli.Command{
		Name:  "users",
		Usage: "Manage blog accounts directly on the database",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
		},
		Subcommands: []*cli.Command{
			addCmd(&dataDir),
		},
	}
}

func addCmd(dataDir *string) *cli.Command {
	var username string
	var email string
	return &cli.Command{
		Name:  "add",
		Usage: "Register a new user (password is read from the terminal or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user to register",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "email",
				Usage:       "Optional email of the user",
				Destination: &email,
			},
		},
		Action: func(ctx *cli.Context) error {
			if !blog.ValidUsername(username) {
				return fmt.Errorf("invalid username %q", username)
			}
			if !blog.ValidEmail(email) {
				return fmt.Errorf("invalid email %q", email)
			}
			password, err := readPassword(os.Stdin, ctx.App.ErrWriter)
			if err != nil {
				return err
			}
			if !blog.ValidPassword(password) {
				return errors.New("invalid password, it must have between 3 and 20 characters")
			}
			st, err := store.Open(ctx.Context, *dataDir)
			if err != nil {
				return err
			}
			defer st.Close()
			u, err := st.CreateUser(ctx.Context, username, vault.Hash(username, password), email)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Int64("user_id", u.ID).Str("user", u.Name).Msg("User registered")
			return nil
		},
	}
}

// readPassword prompts twice when in is a terminal, otherwise it reads a
// single line.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return readLine(in)
	}
	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	fmt.Fprint(prompt, "Verify: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func readLine(in io.Reader) (string, error) {
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("missing password from stdin")
	}
	password := strings.TrimSpace(sc.Text())
	if len(password) == 0 {
		return "", errors.New("missing password from stdin")
	}
	return password, nil
}
