package select_token

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/metrics"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/selection"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type Handler struct {
	flags *common.Flags

	patterns    []string
	category    string
	property    string
	context     string
	token       string
	value       string
	component   selection.ComponentSpec
	asJSON      bool
	metricsFile string
}

func NewSelectCommand(flags *common.Flags) *cobra.Command {
	me := &Handler{flags: flags}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "pick a token: semantic first, then primitive, then a new component token",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringSliceVarP(&me.patterns, "tokens", "t", []string{"tokens"}, "token definition patterns")
	cmd.Flags().StringVar(&me.category, "category", "", "token category (derived from --property when empty)")
	cmd.Flags().StringVar(&me.property, "property", "", "consuming property, e.g. padding or backgroundColor")
	cmd.Flags().StringVar(&me.context, "context", "", "usage context, e.g. button")
	cmd.Flags().StringVar(&me.token, "token", "", "request a token by name")
	cmd.Flags().StringVar(&me.value, "value", "", "request a base value")

	cmd.Flags().StringVar(&me.component.Name, "component-token", "", "name of the component token to mint when nothing fits")
	cmd.Flags().StringVar(&me.component.Component, "component", "", "component the minted token belongs to")
	cmd.Flags().Float64Var(&me.component.BaseValue, "component-value", 0, "base value of the minted token")
	cmd.Flags().StringVar(&me.component.Reasoning, "reasoning", "", "why no semantic or primitive token fits")

	cmd.Flags().BoolVar(&me.asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&me.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd)
	}

	return cmd
}

func (me *Handler) request() (selection.Request, error) {
	req := selection.Request{
		Property:  me.property,
		Context:   me.context,
		TokenName: me.token,
	}
	if me.category != "" {
		cat, ok := tokens.ParseCategory(me.category)
		if !ok {
			return req, errors.Errorf("unknown category %q", me.category)
		}
		req.Category = cat
	}
	if me.value != "" {
		v, err := strconv.ParseFloat(me.value, 64)
		if err != nil {
			return req, errors.Errorf("parsing --value %q: %w", me.value, err)
		}
		req.Value = &v
	}
	if me.component.Name != "" {
		spec := me.component
		spec.Category = req.Category
		req.Component = &spec
	}
	return req, nil
}

func (me *Handler) Run(cmd *cobra.Command) error {
	req, err := me.request()
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

	rec := metrics.NewRecorder()
	e, err := me.flags.Engine(ctx, cfg, rec, me.patterns...)
	if e == nil {
		return err
	}
	if err != nil {
		cmd.PrintErrln(err.Error())
	}

	sel, err := e.Integrator().SelectToken(ctx, req)
	if err != nil {
		return err
	}
	rec.ObserveSelection(string(sel.Priority))
	verdict := selection.ValidateTokenSelection(sel)

	if me.metricsFile != "" {
		if err := rec.WriteTextfile(me.metricsFile); err != nil {
			return err
		}
	}

	if me.asJSON {
		b, err := json.MarshalIndent(struct {
			Selection  *selection.Selection    `json:"selection"`
			Validation tokens.ValidationResult `json:"validation"`
		}{sel, verdict}, "", "  ")
		if err != nil {
			return errors.Errorf("encoding selection: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s token: %s\n", sel.Priority, selectedName(sel))
	if sel.SemanticInsufficiencyReason != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  semantic: %s\n", sel.SemanticInsufficiencyReason)
	}
	if sel.PrimitiveInsufficiencyReason != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  primitive: %s\n", sel.PrimitiveInsufficiencyReason)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  mathematically valid: %t\n", sel.MathematicallyValid)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verdict.Level, verdict.Message)
	return nil
}

func selectedName(sel *selection.Selection) string {
	switch {
	case sel.Semantic != nil:
		return sel.Semantic.Name
	case sel.Primitive != nil:
		return sel.Primitive.Name
	case sel.Component != nil:
		return sel.Component.Name
	}
	return ""
}
