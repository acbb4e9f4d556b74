package export_tokens

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/bundle"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type Handler struct {
	flags *common.Flags

	platform string
	bundle   string
}

func NewExportCommand(flags *common.Flags) *cobra.Command {
	me := &Handler{flags: flags}

	cmd := &cobra.Command{
		Use:   "export [pattern...]",
		Short: "print every registered token flattened for one platform as JSON",
		Long: "Prints the tokens for --platform as JSON. With --bundle the state, the validation report " +
			"and the token list of every platform are written to a tar.gz archive instead.",
	}

	cmd.Flags().StringVarP(&me.platform, "platform", "p", string(tokens.PlatformWeb), "target platform: ios, android or web")
	cmd.Flags().StringVar(&me.bundle, "bundle", "", "write a tar.gz bundle for every platform to this path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"tokens"}
		}
		return me.Run(cmd, args)
	}

	return cmd
}

func (me *Handler) Run(cmd *cobra.Command, patterns []string) error {
	p, err := tokens.ParsePlatform(me.platform)
	if err != nil {
		return err
	}
	ctx, err := me.flags.WithLogger(cmd.Context())
	if err != nil {
		return err
	}
	cfg, err := me.flags.Config()
	if err != nil {
		return err
	}

	e, err := me.flags.Engine(ctx, cfg, nil, patterns...)
	if err != nil {
		return err
	}

	if me.bundle != "" {
		if err := bundle.WriteFile(ctx, me.flags.Fs, me.bundle, e, time.Now().UTC()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", me.bundle)
		return err
	}

	out, err := e.Integrator().GetTokensForPlatform(ctx, p)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Errorf("encoding tokens: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
