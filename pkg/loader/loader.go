// Package loader decodes token definition files into tokens ready for the
// engine.
//
// A definition file is one or more YAML documents:
//
//	primitives:
//	  - name: space100
//	    category: spacing
//	    baseValue: 8
//	  - name: colorPrimary
//	    category: color
//	    modes: {light: {base: "#0055FF"}, dark: {base: "#3377FF"}}
//	semantics:
//	  - name: space.grouped.normal
//	    category: spacing
//	    primitiveReferences: {default: space100}
//	components:
//	  - name: button.padding.custom
//	    component: button
//	    category: spacing
//	    baseValue: 14
//	    reasoning: no token matches the 14px design
//	usages:
//	  - {token: space.grouped.normal, context: list, property: gap}
//
// Platform values, alignment flags and the family base value are derived when
// a definition leaves them out.
package loader

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/finder"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type document struct {
	Primitives []primitiveDef         `yaml:"primitives"`
	Semantics  []tokens.SemanticToken `yaml:"semantics"`
	Components []componentDef         `yaml:"components"`
	Usages     []Usage                `yaml:"usages"`
}

type primitiveDef struct {
	Name                     string                 `yaml:"name"`
	Category                 string                 `yaml:"category"`
	BaseValue                float64                `yaml:"baseValue"`
	FamilyBaseValue          float64                `yaml:"familyBaseValue"`
	Description              string                 `yaml:"description"`
	MathematicalRelationship string                 `yaml:"mathematicalRelationship"`
	BaselineGridAlignment    *bool                  `yaml:"baselineGridAlignment"`
	IsStrategicFlexibility   *bool                  `yaml:"isStrategicFlexibility"`
	IsPrecisionTargeted      bool                   `yaml:"isPrecisionTargeted"`
	Value                    string                 `yaml:"value"`
	Modes                    tokens.ModeValues      `yaml:"modes"`
	Platforms                *tokens.PlatformValues `yaml:"platforms"`
}

type componentDef struct {
	Name        string                 `yaml:"name"`
	Component   string                 `yaml:"component"`
	Category    string                 `yaml:"category"`
	BaseValue   float64                `yaml:"baseValue"`
	Reasoning   string                 `yaml:"reasoning"`
	CreatedFrom string                 `yaml:"createdFrom"`
	Platforms   *tokens.PlatformValues `yaml:"platforms"`
}

// Usage records that a token is consumed by a property in some context.
type Usage struct {
	Token    string `yaml:"token"`
	Context  string `yaml:"context"`
	Property string `yaml:"property"`
	Source   string `yaml:"-"`
}

// Set is everything decoded from a group of definition files, in file order.
type Set struct {
	Files      []string
	Primitives []*tokens.PrimitiveToken
	Semantics  []*tokens.SemanticToken
	Components []*tokens.ComponentToken
	Usages     []Usage
}

func (s *Set) merge(o *Set) {
	s.Files = append(s.Files, o.Files...)
	s.Primitives = append(s.Primitives, o.Primitives...)
	s.Semantics = append(s.Semantics, o.Semantics...)
	s.Components = append(s.Components, o.Components...)
	s.Usages = append(s.Usages, o.Usages...)
}

// Loader reads definition files through a TokenFinder and decodes them.
type Loader struct {
	finder    finder.TokenFinder
	converter *convert.Converter
	gridUnit  float64
}

type Option func(*Loader)

// WithGridUnit sets the grid used to derive baselineGridAlignment.
func WithGridUnit(unit float64) Option {
	return func(l *Loader) { l.gridUnit = unit }
}

func WithFinder(f finder.TokenFinder) Option {
	return func(l *Loader) { l.finder = f }
}

func New(fs afero.Fs, converter *convert.Converter, opts ...Option) *Loader {
	l := &Loader{
		finder:    finder.NewGlobFinder(fs),
		converter: converter,
		gridUnit:  tokens.DefaultBaselineGridUnit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes every file matching patterns. A bad file or definition does not
// stop the others: the returned Set holds everything that decoded and the error
// is a *multierror.Error with one entry per failure.
func (l *Loader) Load(ctx context.Context, patterns ...string) (*Set, error) {
	files, err := l.finder.Find(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	set := &Set{}
	var result *multierror.Error
	for _, f := range files {
		s, err := l.Parse(f.Path, f.Content)
		if err != nil {
			result = multierror.Append(result, err)
		}
		if s != nil {
			set.merge(s)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Int("files", len(set.Files)).
		Int("primitives", len(set.Primitives)).
		Int("semantics", len(set.Semantics)).
		Int("components", len(set.Components)).
		Int("usages", len(set.Usages)).
		Msg("token definitions loaded")

	return set, result.ErrorOrNil()
}

// Parse decodes one definition file. Unknown keys are errors.
func (l *Loader) Parse(path string, data []byte) (*Set, error) {
	set := &Set{Files: []string{path}}
	var result *multierror.Error

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	for {
		var doc document
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Errorf("%s: parsing YAML: %w", path, err)
		}

		for _, def := range doc.Primitives {
			t, err := l.primitive(def)
			if err != nil {
				result = multierror.Append(result, errors.Errorf("%s: primitive %s: %w", path, def.Name, err))
				continue
			}
			set.Primitives = append(set.Primitives, t)
		}
		for i := range doc.Semantics {
			t := doc.Semantics[i]
			cat, ok := tokens.ParseCategory(string(t.Category))
			if !ok {
				result = multierror.Append(result, errors.Errorf("%s: semantic %s: unknown category %q", path, t.Name, t.Category))
				continue
			}
			t.Category = cat
			set.Semantics = append(set.Semantics, &t)
		}
		for _, def := range doc.Components {
			t, err := l.component(def)
			if err != nil {
				result = multierror.Append(result, errors.Errorf("%s: component %s: %w", path, def.Name, err))
				continue
			}
			set.Components = append(set.Components, t)
		}
		for _, u := range doc.Usages {
			if u.Token == "" {
				result = multierror.Append(result, errors.Errorf("%s: usage without token", path))
				continue
			}
			u.Source = path
			set.Usages = append(set.Usages, u)
		}
	}

	return set, result.ErrorOrNil()
}

func (l *Loader) primitive(def primitiveDef) (*tokens.PrimitiveToken, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, errors.Errorf("missing name")
	}
	cat, ok := tokens.ParseCategory(def.Category)
	if !ok {
		return nil, errors.Errorf("unknown category %q", def.Category)
	}

	t := &tokens.PrimitiveToken{
		Name:                     def.Name,
		Category:                 cat,
		BaseValue:                def.BaseValue,
		FamilyBaseValue:          def.FamilyBaseValue,
		Description:              def.Description,
		MathematicalRelationship: def.MathematicalRelationship,
		IsPrecisionTargeted:      def.IsPrecisionTargeted,
	}
	if t.FamilyBaseValue == 0 {
		t.FamilyBaseValue = l.familyBase(cat)
	}

	grid := cat.RequiresGridAlignment()
	if def.BaselineGridAlignment != nil {
		t.BaselineGridAlignment = *def.BaselineGridAlignment
	} else {
		t.BaselineGridAlignment = grid && tokens.IsGridAligned(t.BaseValue, l.gridUnit)
	}
	if def.IsStrategicFlexibility != nil {
		t.IsStrategicFlexibility = *def.IsStrategicFlexibility
	} else {
		t.IsStrategicFlexibility = grid && tokens.IsStrategicFlexibilityValue(t.BaseValue)
	}

	switch {
	case def.Platforms != nil:
		t.Platforms = *def.Platforms
		shareModes(&t.Platforms)
	case len(def.Modes) > 0:
		v := tokens.PlatformValue{Unit: tokens.UnitHex, Modes: def.Modes}
		t.Platforms = tokens.PlatformValues{IOS: v, Android: v, Web: v}
		shareModes(&t.Platforms)
	case def.Value != "":
		v := tokens.PlatformValue{Unit: textUnit(cat), Text: def.Value}
		t.Platforms = tokens.PlatformValues{IOS: v, Android: v, Web: v}
	default:
		t.Platforms = l.converter.Project(t)
	}
	return t, nil
}

func (l *Loader) component(def componentDef) (*tokens.ComponentToken, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, errors.Errorf("missing name")
	}
	cat, ok := tokens.ParseCategory(def.Category)
	if !ok {
		return nil, errors.Errorf("unknown category %q", def.Category)
	}
	t := &tokens.ComponentToken{
		Name:        def.Name,
		Component:   def.Component,
		Category:    cat,
		BaseValue:   def.BaseValue,
		Reasoning:   def.Reasoning,
		CreatedFrom: def.CreatedFrom,
	}
	if def.Platforms != nil {
		t.Platforms = *def.Platforms
	} else {
		t.Platforms = l.converter.ToAllPlatforms(t.BaseValue, t.Name, t.Category).Platforms()
	}
	return t, nil
}

func (l *Loader) familyBase(c tokens.Category) float64 {
	switch {
	case c.RequiresGridAlignment():
		return l.gridUnit
	case c == tokens.CategoryFontSize:
		return l.converter.WebBaseFontSize()
	}
	return 0
}

func textUnit(c tokens.Category) tokens.Unit {
	if c == tokens.CategoryFontFamily {
		return tokens.UnitFamily
	}
	return tokens.UnitHex
}

// shareModes gives every platform the web color modes when it declares none.
func shareModes(pv *tokens.PlatformValues) {
	if len(pv.Web.Modes) == 0 {
		return
	}
	for _, v := range []*tokens.PlatformValue{&pv.IOS, &pv.Android} {
		if len(v.Modes) == 0 && v.Text == "" {
			v.Modes = pv.Web.Modes
			if v.Unit == "" {
				v.Unit = pv.Web.Unit
			}
		}
	}
}
