package validate_tokens

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/diagnostic"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/finder"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/metrics"
)

var ErrValidationFailed = errors.Base("validation failed")

type Handler struct {
	flags *common.Flags

	format      string
	failOn      string
	watch       bool
	verbose     bool
	metricsFile string
}

func NewValidateCommand(flags *common.Flags) *cobra.Command {
	me := &Handler{flags: flags}

	cmd := &cobra.Command{
		Use:   "validate [pattern...]",
		Short: "validate token definition files and print a report",
		Long: "Loads every token definition matching the patterns (default: tokens), registers them " +
			"through the three-tier validator and prints the validation report.",
	}

	cmd.Flags().StringVarP(&me.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVar(&me.failOn, "fail-on", "error", "exit non-zero at this level: error, warning or none")
	cmd.Flags().BoolVarP(&me.watch, "watch", "w", false, "re-validate when definition files change")
	cmd.Flags().BoolVarP(&me.verbose, "verbose", "v", false, "list passing tokens too")
	cmd.Flags().StringVar(&me.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"tokens"}
		}
		return me.Run(cmd, args)
	}

	return cmd
}

func (me *Handler) Run(cmd *cobra.Command, patterns []string) error {
	switch me.failOn {
	case "error", "warning", "none":
	default:
		return errors.Errorf("invalid --fail-on %q: expected error, warning or none", me.failOn)
	}

	ctx, err := me.flags.WithLogger(cmd.Context())
	if err != nil {
		return err
	}

	if !me.watch {
		return me.once(ctx, cmd, patterns)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := me.once(ctx, cmd, patterns); err != nil && !errors.Is(err, ErrValidationFailed) {
		zerolog.Ctx(ctx).Error().Err(err).Msg("validation run failed")
	}

	w, err := finder.NewWatcher(250 * time.Millisecond)
	if err != nil {
		return err
	}
	if err := w.Add(finder.Roots(patterns...)...); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Strs("patterns", patterns).Msg("watching for changes")

	return w.Run(ctx, func(ctx context.Context, path string) {
		zerolog.Ctx(ctx).Info().Str("file", path).Msg("change detected, re-validating")
		if err := me.once(ctx, cmd, patterns); err != nil && !errors.Is(err, ErrValidationFailed) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("validation run failed")
		}
	})
}

func (me *Handler) once(ctx context.Context, cmd *cobra.Command, patterns []string) error {
	cfg, err := me.flags.Config()
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	e, loadErr := me.flags.Engine(ctx, cfg, rec, patterns...)
	if e == nil {
		return loadErr
	}
	if loadErr != nil {
		cmd.PrintErrln(loadErr.Error())
	}

	report := e.GenerateValidationReport(ctx)

	formatter, err := diagnostic.NewFormatter(me.format, me.flags.Color())
	if err != nil {
		return err
	}
	if tf, ok := formatter.(*diagnostic.TextFormatter); ok {
		tf.Verbose = me.verbose
	}
	out, err := formatter.Format(report)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return errors.Errorf("writing report: %w", err)
	}

	if me.metricsFile != "" {
		if err := rec.WriteTextfile(me.metricsFile); err != nil {
			return err
		}
	}

	if loadErr != nil {
		return errors.Errorf("%w: token definitions did not load cleanly", ErrValidationFailed)
	}
	switch {
	case me.failOn == "error" && report.Summary.Error > 0,
		me.failOn == "warning" && report.Summary.Error+report.Summary.Warning > 0:
		return errors.Errorf("%w: %d error(s), %d warning(s)", ErrValidationFailed, report.Summary.Error, report.Summary.Warning)
	}
	return nil
}
