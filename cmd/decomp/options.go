package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	decomp "github.com/neonux/mozilla-all-sub004"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

// setup loads the configuration file and environment, then configures
// color and logging. It runs before every command.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	v := a.v
	v.SetEnvPrefix("DECOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := v.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("decomp")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "decomp"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if v.GetBool("no-color") {
		color.NoColor = true
	}
	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log = logger
	if used := v.ConfigFileUsed(); used != "" {
		a.log.Debug().Str("path", used).Msg("loaded config")
	}
	return nil
}

// newLogger writes human readable logs to a terminal and JSON otherwise.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) decompOptions() []decomp.Option {
	return []decomp.Option{
		decomp.WithLogger(a.log),
		decomp.WithIndent(a.v.GetInt("indent")),
		decomp.WithPretty(a.v.GetBool("pretty")),
		decomp.WithMaxDepth(a.v.GetInt("max-depth")),
		decomp.WithMaxOutput(a.v.GetInt("max-output")),
	}
}
