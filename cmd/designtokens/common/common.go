// Package common holds the flags and setup every designtokens command shares.
package common

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/config"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/debug"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/engine"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/loader"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/metrics"
)

// Flags are registered on the root command and inherited by every subcommand.
type Flags struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
	EnvPrefix  string

	Fs afero.Fs
}

func NewFlags() *Flags {
	return &Flags{Fs: afero.NewOsFs(), EnvPrefix: config.DefaultEnvPrefix}
}

func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "engine configuration file (.yaml or .hcl)")
	cmd.PersistentFlags().StringVar(&f.LogLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&f.NoColor, "no-color", false, "disable colored output")
}

// Color reports whether output should be colored.
func (f *Flags) Color() bool {
	return !f.NoColor && !color.NoColor
}

// WithLogger attaches the stderr logger to ctx.
func (f *Flags) WithLogger(ctx context.Context) (context.Context, error) {
	lvl, err := debug.ParseLevel(f.LogLevel)
	if err != nil {
		return ctx, err
	}
	logger := debug.NewLogger(os.Stderr, debug.Options{
		Level:   lvl,
		Console: true,
		Color:   f.Color(),
		Caller:  lvl <= zerolog.DebugLevel,
	})
	return logger.WithContext(ctx), nil
}

// Config loads the configuration file when one is given, then applies the
// environment overlay.
func (f *Flags) Config() (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigPath != "" {
		loaded, err := config.Load(f.Fs, f.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, f.EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Engine builds an engine for cfg and loads every definition file matching
// patterns into it. Load and usage errors are returned alongside the engine so
// callers can still report on what did load.
func (f *Flags) Engine(ctx context.Context, cfg *config.Config, rec *metrics.Recorder, patterns ...string) (*engine.Engine, error) {
	var opts []engine.Option
	if rec != nil {
		opts = append(opts, engine.WithObserver(rec))
	}
	e, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	l := loader.New(f.Fs, e.Converter(), loader.WithGridUnit(cfg.BaselineGridUnit))
	set, loadErr := l.Load(ctx, patterns...)
	if set == nil {
		return nil, errors.Errorf("loading token definitions: %w", loadErr)
	}
	results, applyErr := set.Apply(ctx, e)
	for _, r := range results {
		zerolog.Ctx(ctx).Debug().Str("token", r.Token).Stringer("level", r.Level).Msg(r.Message)
	}

	if loadErr != nil || applyErr != nil {
		return e, errors.Errorf("loading token definitions: %w", multierror.Append(loadErr, applyErr))
	}
	return e, nil
}
