package convert_value_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	convert_value "github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/convert-value"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flags := common.NewFlags()
	flags.Fs = afero.NewMemMapFs()
	flags.EnvPrefix = "DESIGNTOKENS_TEST_"

	root := &cobra.Command{Use: "designtokens", SilenceUsage: true, SilenceErrors: true}
	flags.Bind(root)
	root.AddCommand(convert_value.NewConvertCommand(flags))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"convert", "--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "spacing",
			args:     []string{"8"},
			contains: []string{"ios      8pt", "android  8dp", "web      8px", "All platforms maintain mathematical consistency"},
		},
		{
			name:     "typography by name",
			args:     []string{"18", "--name", "fontSize125"},
			contains: []string{"android  18sp", "web      1.13rem", "(web = base / 16)"},
		},
		{
			name:     "single platform",
			args:     []string{"24", "--category", "fontSize", "-p", "web"},
			contains: []string{"web: 1.5rem"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestConvertCommandJSON(t *testing.T) {
	out, err := execute(t, "4", "--category", "radius", "--json")
	require.NoError(t, err)

	var got struct {
		IOS struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		} `json:"ios"`
		MathematicallyConsistent bool `json:"mathematicallyConsistent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4.0, got.IOS.Value)
	assert.Equal(t, "pt", got.IOS.Unit)
	assert.True(t, got.MathematicallyConsistent)
}

func TestConvertCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not a number", []string{"wide"}, `parsing value "wide"`},
		{"unknown category", []string{"8", "--category", "depth"}, `unknown category "depth"`},
		{"unknown platform", []string{"8", "-p", "tvos"}, "tvos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
