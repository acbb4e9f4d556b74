package validate

import (
	"regexp"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// Classifier decides whether a reference string is a literal value rather than a
// token name. Reason is a short human description of the match.
type Classifier interface {
	Classify(value string) (raw bool, reason string)
}

type ClassifierFunc func(value string) (bool, string)

func (f ClassifierFunc) Classify(value string) (bool, string) { return f(value) }

var (
	numericLiteral = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?(px|pt|dp|sp|rem|em|%|ms|s)?$`)
	hexColor       = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	colorFunction  = regexp.MustCompile(`(?i)^(rgba?|hsla?|hwb|lab|lch|oklab|oklch|color)\(.*\)$`)
	tokenName      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]*$`)
)

var cssColorKeywords = map[string]bool{
	"transparent": true, "currentcolor": true, "inherit": true, "initial": true,
	"black": true, "white": true, "red": true, "green": true, "blue": true, "yellow": true,
	"orange": true, "purple": true, "pink": true, "gray": true, "grey": true, "cyan": true,
	"magenta": true, "brown": true, "navy": true, "teal": true, "silver": true, "gold": true,
}

var fontWeightKeywords = map[string]bool{
	"normal": true, "bold": true, "lighter": true, "bolder": true,
}

// NumericLiteral matches numbers with an optional CSS or platform unit.
var NumericLiteral Classifier = ClassifierFunc(func(v string) (bool, string) {
	if numericLiteral.MatchString(v) {
		return true, "numeric literal"
	}
	return false, ""
})

// ColorLiteral matches hex colors and CSS color functions.
var ColorLiteral Classifier = ClassifierFunc(func(v string) (bool, string) {
	if hexColor.MatchString(v) {
		return true, "hex color literal"
	}
	if colorFunction.MatchString(v) {
		return true, "CSS color function"
	}
	return false, ""
})

// NotAnIdentifier matches anything that cannot be a registered token name.
var NotAnIdentifier Classifier = ClassifierFunc(func(v string) (bool, string) {
	if !tokenName.MatchString(v) {
		return true, "not a token identifier"
	}
	return false, ""
})

// Keywords matches a fixed, case-insensitive word list.
func Keywords(kind string, words map[string]bool) Classifier {
	return ClassifierFunc(func(v string) (bool, string) {
		if words[strings.ToLower(v)] {
			return true, kind + " keyword"
		}
		return false, ""
	})
}

// ClassifierSet holds the rules applied to every reference plus extra rules per
// category. Strict rules only run when strict validation is requested.
type ClassifierSet struct {
	common     []Classifier
	strict     []Classifier
	byCategory map[tokens.Category][]Classifier
}

func NewClassifierSet() *ClassifierSet {
	return &ClassifierSet{byCategory: map[tokens.Category][]Classifier{}}
}

// DefaultClassifierSet flags numbers, colors, CSS color and font-weight keywords,
// and (in strict mode) anything shaped unlike a token name.
func DefaultClassifierSet() *ClassifierSet {
	s := NewClassifierSet()
	s.Add(NumericLiteral, ColorLiteral)
	s.AddStrict(NotAnIdentifier)
	s.AddForCategory(tokens.CategoryColor, Keywords("CSS color", cssColorKeywords))
	s.AddForCategory(tokens.CategoryFontWeight, Keywords("font weight", fontWeightKeywords))
	return s
}

func (s *ClassifierSet) Add(c ...Classifier) *ClassifierSet {
	s.common = append(s.common, c...)
	return s
}

func (s *ClassifierSet) AddStrict(c ...Classifier) *ClassifierSet {
	s.strict = append(s.strict, c...)
	return s
}

func (s *ClassifierSet) AddForCategory(cat tokens.Category, c ...Classifier) *ClassifierSet {
	s.byCategory[cat] = append(s.byCategory[cat], c...)
	return s
}

// IsRaw runs the common rules, then the category rules, then the strict rules.
func (s *ClassifierSet) IsRaw(cat tokens.Category, value string, strict bool) (bool, string) {
	v := strings.TrimSpace(value)
	if v == "" {
		return true, "empty value"
	}

	rules := append([]Classifier{}, s.common...)
	rules = append(rules, s.byCategory[cat]...)
	if strict {
		rules = append(rules, s.strict...)
	}
	for _, r := range rules {
		if raw, reason := r.Classify(v); raw {
			return true, reason
		}
	}
	return false, ""
}
