package tokens

import "strings"

// Kind discriminates the three token variants.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindSemantic  Kind = "semantic"
	KindComponent Kind = "component"
)

// Token is implemented by *PrimitiveToken, *SemanticToken and *ComponentToken.
// Callers dispatch on the concrete type with a type switch.
type Token interface {
	TokenName() string
	Kind() Kind
}

// Category is the token family.
type Category string

const (
	CategorySpacing       Category = "spacing"
	CategoryColor         Category = "color"
	CategoryFontSize      Category = "fontSize"
	CategoryLineHeight    Category = "lineHeight"
	CategoryFontWeight    Category = "fontWeight"
	CategoryLetterSpacing Category = "letterSpacing"
	CategoryFontFamily    Category = "fontFamily"
	CategoryRadius        Category = "radius"
	CategoryDensity       Category = "density"
	CategoryTapArea       Category = "tapArea"
	CategoryBorderWidth   Category = "borderWidth"
	CategoryOpacity       Category = "opacity"
	CategoryElevation     Category = "elevation"
	CategoryAnimation     Category = "animation"

	// semantic-only families
	CategoryTypography Category = "typography"
	CategoryBorder     Category = "border"
)

var primitiveCategories = []Category{
	CategorySpacing, CategoryColor, CategoryFontSize, CategoryLineHeight, CategoryFontWeight,
	CategoryLetterSpacing, CategoryFontFamily, CategoryRadius, CategoryDensity, CategoryTapArea,
	CategoryBorderWidth, CategoryOpacity, CategoryElevation, CategoryAnimation,
}

// PrimitiveCategories returns every category a primitive token may carry.
func PrimitiveCategories() []Category {
	out := make([]Category, len(primitiveCategories))
	copy(out, primitiveCategories)
	return out
}

// ParseCategory accepts the canonical spelling or the SCREAMING_SNAKE form used by
// token authoring tools (FONT_SIZE, TAP_AREA).
func ParseCategory(s string) (Category, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", ""))
	for _, c := range append(PrimitiveCategories(), CategoryTypography, CategoryBorder) {
		if strings.ToLower(string(c)) == norm {
			return c, true
		}
	}
	return "", false
}

// RequiresGridAlignment reports whether values of the category must sit on the baseline grid.
func (c Category) RequiresGridAlignment() bool {
	return c == CategorySpacing || c == CategoryRadius
}

// IsTypography reports whether the category is part of the type ramp.
func (c Category) IsTypography() bool {
	switch c {
	case CategoryTypography, CategoryFontSize, CategoryLineHeight, CategoryLetterSpacing:
		return true
	}
	return false
}

// Platform is one of the three render targets.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Platforms returns the supported platforms in canonical order.
func Platforms() []Platform {
	return []Platform{PlatformIOS, PlatformAndroid, PlatformWeb}
}

// ParsePlatform fails with an *UnsupportedPlatformError for anything outside ios/android/web.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformIOS:
		return PlatformIOS, nil
	case PlatformAndroid:
		return PlatformAndroid, nil
	case PlatformWeb:
		return PlatformWeb, nil
	}
	return "", &UnsupportedPlatformError{Platform: s}
}

// Unit labels a platform value.
type Unit string

const (
	UnitPt       Unit = "pt"
	UnitDp       Unit = "dp"
	UnitSp       Unit = "sp"
	UnitPx       Unit = "px"
	UnitRem      Unit = "rem"
	UnitHex      Unit = "hex"
	UnitUnitless Unit = "unitless"
	UnitFamily   Unit = "fontFamily"
)

// ModeValues maps mode -> theme -> color string (e.g. light -> base -> #FFFFFF).
type ModeValues map[string]map[string]string

// Lookup returns the color for a mode and theme.
func (m ModeValues) Lookup(mode, theme string) (string, bool) {
	themes, ok := m[mode]
	if !ok {
		return "", false
	}
	v, ok := themes[theme]
	return v, ok
}

// PlatformValue is a token projected onto one platform. Numeric tokens use Value,
// string tokens (hex colors, font stacks) use Text, and mode-aware colors use Modes.
type PlatformValue struct {
	Value float64    `json:"value" yaml:"value"`
	Unit  Unit       `json:"unit" yaml:"unit"`
	Text  string     `json:"text,omitempty" yaml:"text,omitempty"`
	Modes ModeValues `json:"modes,omitempty" yaml:"modes,omitempty"`
}

// IsNumeric reports whether the value carries a number rather than a string or color map.
func (v PlatformValue) IsNumeric() bool {
	return v.Text == "" && len(v.Modes) == 0
}

// PlatformValues holds one projection per platform.
type PlatformValues struct {
	IOS     PlatformValue `json:"ios" yaml:"ios"`
	Android PlatformValue `json:"android" yaml:"android"`
	Web     PlatformValue `json:"web" yaml:"web"`
}

// Get returns the projection for p.
func (pv PlatformValues) Get(p Platform) (PlatformValue, bool) {
	switch p {
	case PlatformIOS:
		return pv.IOS, true
	case PlatformAndroid:
		return pv.Android, true
	case PlatformWeb:
		return pv.Web, true
	}
	return PlatformValue{}, false
}

// IsZero reports whether no projection has been set.
func (pv PlatformValues) IsZero() bool {
	empty := func(v PlatformValue) bool { return v.Unit == "" && v.Value == 0 && v.Text == "" && len(v.Modes) == 0 }
	return empty(pv.IOS) && empty(pv.Android) && empty(pv.Web)
}

// PrimitiveToken is an atomic, platform agnostic value.
type PrimitiveToken struct {
	Name                     string         `json:"name" yaml:"name"`
	Category                 Category       `json:"category" yaml:"category"`
	BaseValue                float64        `json:"baseValue" yaml:"baseValue"`
	FamilyBaseValue          float64        `json:"familyBaseValue" yaml:"familyBaseValue"`
	Description              string         `json:"description,omitempty" yaml:"description,omitempty"`
	MathematicalRelationship string         `json:"mathematicalRelationship,omitempty" yaml:"mathematicalRelationship,omitempty"`
	BaselineGridAlignment    bool           `json:"baselineGridAlignment" yaml:"baselineGridAlignment"`
	IsStrategicFlexibility   bool           `json:"isStrategicFlexibility" yaml:"isStrategicFlexibility"`
	IsPrecisionTargeted      bool           `json:"isPrecisionTargeted" yaml:"isPrecisionTargeted"`
	Platforms                PlatformValues `json:"platforms" yaml:"platforms"`
}

func (t *PrimitiveToken) TokenName() string { return t.Name }
func (t *PrimitiveToken) Kind() Kind        { return KindPrimitive }

// Clone returns a deep copy so registries never hand out their own storage.
func (t *PrimitiveToken) Clone() *PrimitiveToken {
	if t == nil {
		return nil
	}
	c := *t
	c.Platforms = PlatformValues{
		IOS:     t.Platforms.IOS.clone(),
		Android: t.Platforms.Android.clone(),
		Web:     t.Platforms.Web.clone(),
	}
	return &c
}

func (v PlatformValue) clone() PlatformValue {
	if v.Modes == nil {
		return v
	}
	modes := make(ModeValues, len(v.Modes))
	for mode, themes := range v.Modes {
		t := make(map[string]string, len(themes))
		for k, val := range themes {
			t[k] = val
		}
		modes[mode] = t
	}
	v.Modes = modes
	return v
}

// Reference roles used by semantic tokens.
const (
	RoleDefault    = "default"
	RoleValue      = "value"
	RoleHorizontal = "horizontal"
	RoleVertical   = "vertical"
)

// TypographyRoles lists the references every typography semantic token must carry.
var TypographyRoles = []string{"fontSize", "lineHeight", "fontFamily", "fontWeight", "letterSpacing"}

// SemanticToken is a named alias composed of primitive token references.
type SemanticToken struct {
	Name                string            `json:"name" yaml:"name"`
	Category            Category          `json:"category" yaml:"category"`
	PrimitiveReferences map[string]string `json:"primitiveReferences" yaml:"primitiveReferences"`
	Description         string            `json:"description,omitempty" yaml:"description,omitempty"`
	Context             string            `json:"context,omitempty" yaml:"context,omitempty"`
}

func (t *SemanticToken) TokenName() string { return t.Name }
func (t *SemanticToken) Kind() Kind        { return KindSemantic }

// Clone returns a deep copy.
func (t *SemanticToken) Clone() *SemanticToken {
	if t == nil {
		return nil
	}
	c := *t
	c.PrimitiveReferences = make(map[string]string, len(t.PrimitiveReferences))
	for k, v := range t.PrimitiveReferences {
		c.PrimitiveReferences[k] = v
	}
	return &c
}

// PrimaryReference returns the reference used when a single value is needed:
// default, then value, then the alphabetically first role.
func (t *SemanticToken) PrimaryReference() (role, name string, ok bool) {
	for _, r := range []string{RoleDefault, RoleValue} {
		if v, found := t.PrimitiveReferences[r]; found {
			return r, v, true
		}
	}
	roles := SortedRoles(t.PrimitiveReferences)
	if len(roles) == 0 {
		return "", "", false
	}
	return roles[0], t.PrimitiveReferences[roles[0]], true
}

// ComponentToken is minted when neither a semantic nor a primitive token fits.
type ComponentToken struct {
	Name        string         `json:"name" yaml:"name"`
	Component   string         `json:"component" yaml:"component"`
	Category    Category       `json:"category" yaml:"category"`
	BaseValue   float64        `json:"baseValue" yaml:"baseValue"`
	Reasoning   string         `json:"reasoning" yaml:"reasoning"`
	Platforms   PlatformValues `json:"platforms" yaml:"platforms"`
	CreatedFrom string         `json:"createdFrom,omitempty" yaml:"createdFrom,omitempty"`
}

func (t *ComponentToken) TokenName() string { return t.Name }
func (t *ComponentToken) Kind() Kind        { return KindComponent }

// Clone returns a deep copy.
func (t *ComponentToken) Clone() *ComponentToken {
	if t == nil {
		return nil
	}
	c := *t
	c.Platforms = PlatformValues{
		IOS:     t.Platforms.IOS.clone(),
		Android: t.Platforms.Android.clone(),
		Web:     t.Platforms.Web.clone(),
	}
	return &c
}
