package convert_value

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type Handler struct {
	flags *common.Flags

	name     string
	category string
	platform string
	asJSON   bool
}

func NewConvertCommand(flags *common.Flags) *cobra.Command {
	me := &Handler{flags: flags}

	cmd := &cobra.Command{
		Use:   "convert <value>",
		Short: "convert a base value to platform units",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&me.name, "name", "n", "", "token name (typography names convert to sp and rem)")
	cmd.Flags().StringVar(&me.category, "category", string(tokens.CategorySpacing), "token category")
	cmd.Flags().StringVarP(&me.platform, "platform", "p", "", "convert for one platform only: ios, android or web")
	cmd.Flags().BoolVar(&me.asJSON, "json", false, "print JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd, args[0])
	}

	return cmd
}

func (me *Handler) Run(cmd *cobra.Command, raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errors.Errorf("parsing value %q: %w", raw, err)
	}
	cat, ok := tokens.ParseCategory(me.category)
	if !ok {
		return errors.Errorf("unknown category %q", me.category)
	}
	cfg, err := me.flags.Config()
	if err != nil {
		return err
	}
	conv := convert.New(cfg.ConverterOptions()...)

	var out any
	if me.platform != "" {
		p, err := tokens.ParsePlatform(me.platform)
		if err != nil {
			return err
		}
		pv, err := conv.ToPlatform(v, me.name, cat, p)
		if err != nil {
			return err
		}
		if !me.asJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s%s\n", p, tokens.FormatNumber(pv.Value), pv.Unit)
			return nil
		}
		out = map[tokens.Platform]tokens.PlatformValue{p: pv}
	} else {
		cv := conv.ToAllPlatforms(v, me.name, cat)
		if !me.asJSON {
			for _, p := range tokens.Platforms() {
				pv, _ := cv.Platforms().Get(p)
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s%s\n", p, tokens.FormatNumber(pv.Value), pv.Unit)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cv.Reasoning)
			return nil
		}
		out = cv
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Errorf("encoding conversion: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
