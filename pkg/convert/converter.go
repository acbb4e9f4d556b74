// Package convert projects unitless token values onto iOS, Android and Web.
//
// A Converter is configured once with a rounding precision and the web base font
// size and is then passed to everything that needs platform values.
package convert

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

const (
	DefaultPrecision       = 2
	DefaultWebBaseFontSize = 16
)

var typographyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)font.?size`),
	regexp.MustCompile(`(?i)line.?height`),
	regexp.MustCompile(`(?i)letter.?spacing`),
}

// Categories whose values carry no length unit on any platform.
var unitlessCategories = map[tokens.Category]bool{
	tokens.CategoryFontWeight: true,
	tokens.CategoryOpacity:    true,
	tokens.CategoryDensity:    true,
}

type Option func(*Converter)

// WithPrecision sets the number of decimal places kept after rounding.
func WithPrecision(p int) Option {
	return func(c *Converter) {
		if p >= 0 {
			c.precision = p
		}
	}
}

// WithWebBaseFontSize sets the px size of 1rem.
func WithWebBaseFontSize(px float64) Option {
	return func(c *Converter) {
		if px > 0 {
			c.webBaseFontSize = px
		}
	}
}

type Converter struct {
	precision       int
	webBaseFontSize float64
}

func New(opts ...Option) *Converter {
	c := &Converter{precision: DefaultPrecision, webBaseFontSize: DefaultWebBaseFontSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) Precision() int           { return c.precision }
func (c *Converter) WebBaseFontSize() float64 { return c.webBaseFontSize }

// Round rounds half-up at the configured precision.
func (c *Converter) Round(v float64) float64 {
	return RoundHalfUp(v, c.precision)
}

// RoundHalfUp rounds v to p decimal places, ties toward positive infinity.
// The scaled value is snapped to 9 decimals before flooring, so 1.005 at p=2
// gives 1.01.
func RoundHalfUp(v float64, p int) float64 {
	scale := math.Pow(10, float64(p))
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(v*scale, 'f', 9, 64), 64)
	if err != nil {
		scaled = v * scale
	}
	return math.Floor(scaled+0.5) / scale
}

// Tolerance is the largest px difference a rem rounding step can introduce.
func (c *Converter) Tolerance() float64 {
	return c.webBaseFontSize * 0.5 * math.Pow(10, -float64(c.precision))
}

// IsTypographyRelated reports whether a token should use sp on Android and rem on
// the web, from its category or, failing that, its name.
func IsTypographyRelated(name string, category tokens.Category) bool {
	if category.IsTypography() {
		return true
	}
	for _, re := range typographyNamePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (c *Converter) ToIOS(v float64) tokens.PlatformValue {
	return tokens.PlatformValue{Value: c.Round(v), Unit: tokens.UnitPt}
}

func (c *Converter) ToAndroid(v float64, name string, category tokens.Category) tokens.PlatformValue {
	unit := tokens.UnitDp
	if IsTypographyRelated(name, category) {
		unit = tokens.UnitSp
	}
	return tokens.PlatformValue{Value: c.Round(v), Unit: unit}
}

func (c *Converter) ToWeb(v float64, name string, category tokens.Category) tokens.PlatformValue {
	if IsTypographyRelated(name, category) {
		return tokens.PlatformValue{Value: c.Round(v / c.webBaseFontSize), Unit: tokens.UnitRem}
	}
	return tokens.PlatformValue{Value: c.Round(v), Unit: tokens.UnitPx}
}

// ToPlatform dispatches to one platform rule. Unknown platforms are a caller error.
func (c *Converter) ToPlatform(v float64, name string, category tokens.Category, p tokens.Platform) (tokens.PlatformValue, error) {
	switch p {
	case tokens.PlatformIOS:
		return c.ToIOS(v), nil
	case tokens.PlatformAndroid:
		return c.ToAndroid(v, name, category), nil
	case tokens.PlatformWeb:
		return c.ToWeb(v, name, category), nil
	}
	return tokens.PlatformValue{}, &tokens.UnsupportedPlatformError{Platform: string(p)}
}

// Conversion is the result of projecting one value onto every platform.
type Conversion struct {
	IOS                      tokens.PlatformValue `json:"ios"`
	Android                  tokens.PlatformValue `json:"android"`
	Web                      tokens.PlatformValue `json:"web"`
	MathematicallyConsistent bool                 `json:"mathematicallyConsistent"`
	Reasoning                string               `json:"reasoning"`
}

// Platforms returns the conversion as a PlatformValues record.
func (cv Conversion) Platforms() tokens.PlatformValues {
	return tokens.PlatformValues{IOS: cv.IOS, Android: cv.Android, Web: cv.Web}
}

func (c *Converter) ToAllPlatforms(v float64, name string, category tokens.Category) Conversion {
	cv := Conversion{
		IOS:     c.ToIOS(v),
		Android: c.ToAndroid(v, name, category),
		Web:     c.ToWeb(v, name, category),
	}
	typography := IsTypographyRelated(name, category)
	cv.MathematicallyConsistent = c.Consistent(cv.Platforms(), typography)

	var b strings.Builder
	fmt.Fprintf(&b, "Base value %s converts to iOS %s, Android %s, Web %s",
		tokens.FormatNumber(v), describe(cv.IOS), describe(cv.Android), describe(cv.Web))
	if typography {
		fmt.Fprintf(&b, " (web = base / %s)", tokens.FormatNumber(c.webBaseFontSize))
	}
	if cv.MathematicallyConsistent {
		b.WriteString(". All platforms maintain mathematical consistency")
	} else {
		b.WriteString(". Platform values are not mathematically consistent")
	}
	cv.Reasoning = b.String()
	return cv
}

// Consistent applies the cross-platform equality rule: exact equality for length
// tokens, and ios == android with web × base ≈ ios for rem tokens.
func (c *Converter) Consistent(pv tokens.PlatformValues, typography bool) bool {
	if pv.IOS.Value != pv.Android.Value {
		return false
	}
	if typography && pv.Web.Unit == tokens.UnitRem {
		return math.Abs(pv.Web.Value*c.webBaseFontSize-pv.IOS.Value) <= c.Tolerance()+1e-9
	}
	return pv.IOS.Value == pv.Web.Value
}

// Project derives platform values for a numeric primitive. Unitless categories
// keep the rounded value on every platform.
func (c *Converter) Project(t *tokens.PrimitiveToken) tokens.PlatformValues {
	if unitlessCategories[t.Category] {
		v := tokens.PlatformValue{Value: c.Round(t.BaseValue), Unit: tokens.UnitUnitless}
		return tokens.PlatformValues{IOS: v, Android: v, Web: v}
	}
	return c.ToAllPlatforms(t.BaseValue, t.Name, t.Category).Platforms()
}

// IsUnitless reports whether the category is projected without a length unit.
func IsUnitless(c tokens.Category) bool {
	return unitlessCategories[c]
}

func describe(v tokens.PlatformValue) string {
	return tokens.FormatNumber(v.Value) + string(v.Unit)
}
