package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/common"
	convert_value "github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/convert-value"
	export_tokens "github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/export-tokens"
	select_token "github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/select-token"
	validate_tokens "github.com/3fn/DesignerPunkv2-sub017/cmd/designtokens/validate-tokens"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:           "designtokens",
		Short:         "Validate design tokens and keep them consistent across iOS, Android and web",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	flags := common.NewFlags()
	flags.Bind(rootCmd)

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(validate_tokens.NewValidateCommand(flags))
	rootCmd.AddCommand(convert_value.NewConvertCommand(flags))
	rootCmd.AddCommand(select_token.NewSelectCommand(flags))
	rootCmd.AddCommand(export_tokens.NewExportCommand(flags))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
