// Package config resolves the runtime settings of the blog server.
//
// Values are layered, later layers win:
//
//  1. built-in defaults
//  2. an optional Lua file returning a table (see LoadFile)
//  3. environment variables, including those from .env.local
//  4. command line flags
//
// The cookie secret is the exception: it is only ever read from the
// environment, never from files or flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

const (
	FlagBind         = "bind"
	FlagDataDir      = "data-dir"
	FlagLogLevel     = "log-level"
	FlagCookieName   = "cookie-name"
	FlagUserCacheTTL = "user-cache-ttl"

	EnvFile = ".env.local"
)

type (
	Config struct {
		Bind         string
		DataDir      string
		LogLevel     string
		CookieName   string
		UserCacheTTL time.Duration
	}

	// File mirrors Config as written in a Lua config file. Zero values mean
	// "not set". Durations are expressed in seconds.
	File struct {
		Bind         string
		DataDir      string
		LogLevel     string
		CookieName   string
		UserCacheTTL int
	}
)

func Defaults() Config {
	return Config{
		Bind:         "localhost:8080",
		DataDir:      "data",
		LogLevel:     "info",
		CookieName:   "user_id",
		UserCacheTTL: 10 * time.Minute,
	}
}

// LoadFile runs the Lua script at path and maps the table it returns:
//
//	return {
//	  bind = "0.0.0.0:8080",
//	  data_dir = "/var/lib/blog",
//	  user_cache_ttl = 600,
//	}
func LoadFile(path string) (File, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, pair := range []struct {
		n string
		f lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.f),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.n)); err != nil {
			return File{}, fmt.Errorf("unable to load lua library %v, cause %w", pair.n, err)
		}
	}
	if err := L.DoFile(path); err != nil {
		return File{}, fmt.Errorf("unable to run config file %v, cause %w", path, err)
	}
	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return File{}, fmt.Errorf("config file %v must return a table, got %v", path, L.Get(-1).Type())
	}
	var f File
	if err := gluamapper.Map(tbl, &f); err != nil {
		return File{}, fmt.Errorf("unable to decode config file %v, cause %w", path, err)
	}
	return f, nil
}

// Merge copies every value set in f into c, unless explicit reports that
// the matching flag was given on the command line or through the
// environment.
func (c *Config) Merge(f File, explicit func(flag string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}
	if f.Bind != "" && !explicit(FlagBind) {
		c.Bind = f.Bind
	}
	if f.DataDir != "" && !explicit(FlagDataDir) {
		c.DataDir = f.DataDir
	}
	if f.LogLevel != "" && !explicit(FlagLogLevel) {
		c.LogLevel = f.LogLevel
	}
	if f.CookieName != "" && !explicit(FlagCookieName) {
		c.CookieName = f.CookieName
	}
	if f.UserCacheTTL > 0 && !explicit(FlagUserCacheTTL) {
		c.UserCacheTTL = time.Duration(f.UserCacheTTL) * time.Second
	}
}

func (c Config) Validate() error {
	switch {
	case c.Bind == "":
		return errors.New("config: bind address cannot be empty")
	case c.DataDir == "":
		return errors.New("config: data directory cannot be empty")
	case c.CookieName == "":
		return errors.New("config: cookie name cannot be empty")
	case c.UserCacheTTL <= 0:
		return fmt.Errorf("config: user cache ttl must be positive, got %v", c.UserCacheTTL)
	}
	return nil
}

// LoadEnvFile loads variables from name (EnvFile when empty) without
// overriding variables already present in the environment. A missing file
// is not an error.
func LoadEnvFile(name string) error {
	if name == "" {
		name = EnvFile
	}
	err := godotenv.Load(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
