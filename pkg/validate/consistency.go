package validate

import (
	"fmt"
	"math"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type ConsistencyOptions struct {
	// UseRelativeTolerance widens the tolerance for large values to 0.1% of the value.
	UseRelativeTolerance bool
	ToleranceMultiplier  float64
}

// ConsistencyResult describes how closely the three declared platform values agree.
type ConsistencyResult struct {
	Token              string                `json:"token"`
	Consistent         bool                  `json:"consistent"`
	Score              float64               `json:"score"`
	FailedPairs        []string              `json:"failedPairs,omitempty"`
	Issues             []string              `json:"issues,omitempty"`
	Tolerance          float64               `json:"tolerance"`
	ToleranceReasoning string                `json:"toleranceReasoning"`
	MaxDeviation       float64               `json:"maxDeviation"`
	Platforms          tokens.PlatformValues `json:"platforms"`
}

// CrossPlatformConsistencyValidator compares the platform projections of a
// primitive with each other and with the converter's projection.
type CrossPlatformConsistencyValidator struct {
	converter *convert.Converter
}

func NewCrossPlatformConsistencyValidator(c *convert.Converter) *CrossPlatformConsistencyValidator {
	return &CrossPlatformConsistencyValidator{converter: c}
}

var platformPairs = [][2]tokens.Platform{
	{tokens.PlatformIOS, tokens.PlatformAndroid},
	{tokens.PlatformIOS, tokens.PlatformWeb},
	{tokens.PlatformAndroid, tokens.PlatformWeb},
}

func (v *CrossPlatformConsistencyValidator) Validate(token *tokens.PrimitiveToken, opts ConsistencyOptions) ConsistencyResult {
	res := ConsistencyResult{Token: token.Name, Platforms: token.Platforms}
	res.Tolerance, res.ToleranceReasoning = v.tolerance(token, opts)

	passed := 0
	for _, pair := range platformPairs {
		a, _ := token.Platforms.Get(pair[0])
		b, _ := token.Platforms.Get(pair[1])
		key := fmt.Sprintf("%s-%s", pair[0], pair[1])

		ok, detail, deviation := v.compare(a, b, res.Tolerance)
		if deviation > res.MaxDeviation {
			res.MaxDeviation = deviation
		}
		if ok {
			passed++
			continue
		}
		res.FailedPairs = append(res.FailedPairs, fmt.Sprintf("%s (%s)", key, detail))
	}
	res.Score = float64(passed) / float64(len(platformPairs))

	projectionOK := true
	if token.Platforms.Web.IsNumeric() && !token.Platforms.IsZero() {
		projected := v.converter.Project(token)
		for _, p := range tokens.Platforms() {
			declared, _ := token.Platforms.Get(p)
			want, _ := projected.Get(p)
			if declared.Unit != want.Unit {
				res.Issues = append(res.Issues, fmt.Sprintf("%s declares unit %s, converter projects %s", p, declared.Unit, want.Unit))
				continue
			}
			if math.Abs(v.absolute(declared)-v.absolute(want)) > res.Tolerance+1e-9 {
				projectionOK = false
				res.Issues = append(res.Issues, fmt.Sprintf("%s value %s differs from converted %s", p,
					tokens.FormatNumber(declared.Value), tokens.FormatNumber(want.Value)))
			}
		}
	}

	for _, fp := range res.FailedPairs {
		res.Issues = append(res.Issues, "Failed consistency pair: "+fp)
	}
	res.Consistent = len(res.FailedPairs) == 0 && projectionOK
	return res
}

func (v *CrossPlatformConsistencyValidator) tolerance(token *tokens.PrimitiveToken, opts ConsistencyOptions) (float64, string) {
	var tol float64
	var why string
	if token.Platforms.Web.Unit == tokens.UnitRem {
		tol = v.converter.Tolerance()
		why = fmt.Sprintf("fontSize conversion precision: ±%s px at %d decimal places with %spx base",
			tokens.FormatNumber(tol), v.converter.Precision(), tokens.FormatNumber(v.converter.WebBaseFontSize()))
	} else {
		tol = 0.5 * math.Pow(10, -float64(v.converter.Precision()))
		why = fmt.Sprintf("mathematical tolerance: ±%s at %d decimal places", tokens.FormatNumber(tol), v.converter.Precision())
	}
	if opts.UseRelativeTolerance {
		if rel := math.Abs(token.BaseValue) * 0.001; rel > tol {
			tol = rel
			why += fmt.Sprintf(", relative tolerance ±%s (0.1%% of %s)", tokens.FormatNumber(rel), tokens.FormatNumber(token.BaseValue))
		}
	}
	if opts.ToleranceMultiplier > 0 {
		tol *= opts.ToleranceMultiplier
		why += fmt.Sprintf(", multiplied by %s", tokens.FormatNumber(opts.ToleranceMultiplier))
	}
	return tol, why
}

// compare checks one platform pair. Rem values are scaled to px before comparison.
func (v *CrossPlatformConsistencyValidator) compare(a, b tokens.PlatformValue, tol float64) (bool, string, float64) {
	if len(a.Modes) > 0 || len(b.Modes) > 0 {
		if modesEqual(a.Modes, b.Modes) {
			return true, "", 0
		}
		return false, "mode values differ", 0
	}
	if a.Text != "" || b.Text != "" {
		if a.Text == b.Text {
			return true, "", 0
		}
		return false, fmt.Sprintf("string mismatch: %q ≠ %q", a.Text, b.Text), 0
	}

	x, y := v.absolute(a), v.absolute(b)
	deviation := math.Abs(x - y)
	if deviation <= tol+1e-9 {
		return true, "", deviation
	}
	return false, fmt.Sprintf("deviation: %.4f, tolerance: %.4f", deviation, tol), deviation
}

func (v *CrossPlatformConsistencyValidator) absolute(pv tokens.PlatformValue) float64 {
	if pv.Unit == tokens.UnitRem {
		return pv.Value * v.converter.WebBaseFontSize()
	}
	return pv.Value
}

func modesEqual(a, b tokens.ModeValues) bool {
	if len(a) != len(b) {
		return false
	}
	for mode, themes := range a {
		other, ok := b[mode]
		if !ok || len(other) != len(themes) {
			return false
		}
		for k, val := range themes {
			if other[k] != val {
				return false
			}
		}
	}
	return true
}
