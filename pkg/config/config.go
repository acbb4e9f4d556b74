// Package config loads engine settings from a YAML or HCL file and overlays
// DESIGNTOKENS_* environment variables on top.
package config

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

const DefaultEnvPrefix = "DESIGNTOKENS_"

// 📝 Config file structure
type Config struct {
	// 🔧 Validation on registration
	AutoValidate                  bool `json:"auto_validate" yaml:"auto_validate" hcl:"auto_validate,optional" koanf:"auto_validate"`
	EnableCrossPlatformValidation bool `json:"enable_cross_platform_validation" yaml:"enable_cross_platform_validation" hcl:"enable_cross_platform_validation,optional" koanf:"enable_cross_platform_validation"`
	StrictMathematics             bool `json:"strict_mathematics" yaml:"strict_mathematics" hcl:"strict_mathematics,optional" koanf:"strict_mathematics"`

	// 📊 Health thresholds
	StrategicFlexibilityThreshold float64 `json:"strategic_flexibility_threshold" yaml:"strategic_flexibility_threshold" hcl:"strategic_flexibility_threshold,optional" koanf:"strategic_flexibility_threshold"`
	PrimitiveUsageThreshold       float64 `json:"primitive_usage_threshold" yaml:"primitive_usage_threshold" hcl:"primitive_usage_threshold,optional" koanf:"primitive_usage_threshold"`

	// 📐 Mathematics
	BaselineGridUnit float64 `json:"baseline_grid_unit" yaml:"baseline_grid_unit" hcl:"baseline_grid_unit,optional" koanf:"baseline_grid_unit"`
	WebBaseFontSize  float64 `json:"web_base_font_size" yaml:"web_base_font_size" hcl:"web_base_font_size,optional" koanf:"web_base_font_size"`
	Precision        int     `json:"precision" yaml:"precision" hcl:"precision,optional" koanf:"precision"`

	EnabledPlatforms []string `json:"enabled_platforms" yaml:"enabled_platforms" hcl:"enabled_platforms,optional" koanf:"enabled_platforms"`
}

func Default() *Config {
	return &Config{
		AutoValidate:                  true,
		EnableCrossPlatformValidation: true,
		StrictMathematics:             true,
		StrategicFlexibilityThreshold: 0.8,
		PrimitiveUsageThreshold:       0.3,
		BaselineGridUnit:              tokens.DefaultBaselineGridUnit,
		WebBaseFontSize:               convert.DefaultWebBaseFontSize,
		Precision:                     convert.DefaultPrecision,
		EnabledPlatforms:              []string{string(tokens.PlatformWeb), string(tokens.PlatformIOS), string(tokens.PlatformAndroid)},
	}
}

// 📝 Load config from file (supports YAML and HCL). Keys missing from the file
// keep their default.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return cfg, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	if diags := gohcl.DecodeBody(hclFile.Body, ctx, cfg); diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return cfg, nil
}

// ApplyEnv overlays PREFIX_<KEY> variables, e.g. DESIGNTOKENS_PRECISION=3.
// enabled_platforms takes a comma separated list.
func ApplyEnv(cfg *Config, prefix string) error {
	k := koanf.New(".")

	provider := env.ProviderWithValue(prefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		if key == "enabled_platforms" {
			var platforms []string
			for _, p := range strings.Split(value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					platforms = append(platforms, p)
				}
			}
			return key, platforms
		}
		return key, value
	})
	if err := k.Load(provider, nil); err != nil {
		return errors.Errorf("loading environment: %w", err)
	}

	if k.Exists("enabled_platforms") {
		cfg.EnabledPlatforms = nil
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return errors.Errorf("decoding environment: %w", err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.StrategicFlexibilityThreshold < 0 || c.StrategicFlexibilityThreshold > 1 {
		problems = append(problems, "strategic_flexibility_threshold must be within [0, 1]")
	}
	if c.PrimitiveUsageThreshold < 0 || c.PrimitiveUsageThreshold > 1 {
		problems = append(problems, "primitive_usage_threshold must be within [0, 1]")
	}
	if c.Precision < 0 {
		problems = append(problems, "precision must not be negative")
	}
	if c.WebBaseFontSize <= 0 {
		problems = append(problems, "web_base_font_size must be positive")
	}
	if c.BaselineGridUnit <= 0 {
		problems = append(problems, "baseline_grid_unit must be positive")
	}
	for _, p := range c.EnabledPlatforms {
		if _, err := tokens.ParsePlatform(p); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) ConverterOptions() []convert.Option {
	return []convert.Option{
		convert.WithPrecision(c.Precision),
		convert.WithWebBaseFontSize(c.WebBaseFontSize),
	}
}

// Policy maps the file settings onto the three-tier validator policy.
func (c *Config) Policy() validate.Policy {
	return validate.Policy{
		GridUnit:                        c.BaselineGridUnit,
		RequireCrossPlatformConsistency: c.EnableCrossPlatformValidation,
		StrictMathematics:               c.StrictMathematics,
		StrategicFlexibilityThreshold:   c.StrategicFlexibilityThreshold,
		PrimitiveUsageThreshold:         c.PrimitiveUsageThreshold,
	}
}

// Platforms returns the enabled platforms, skipping unknown names.
func (c *Config) Platforms() []tokens.Platform {
	var out []tokens.Platform
	for _, p := range c.EnabledPlatforms {
		if pl, err := tokens.ParsePlatform(p); err == nil {
			out = append(out, pl)
		}
	}
	return out
}

func (c *Config) Clone() *Config {
	out := *c
	out.EnabledPlatforms = append([]string(nil), c.EnabledPlatforms...)
	return &out
}
