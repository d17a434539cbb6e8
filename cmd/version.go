package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sketchdoc/internal/version"
)

func newVersionCmd() *cobra.Command {
	format := newEnumValue("text", "text", "json")
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the sketchdoc version, commit, build time, Go version and
platform.

Examples:
  sketchdoc version                # text
  sketchdoc version --short        # version only
  sketchdoc version --format json  # machine readable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetBuildInfo()
			out := cmd.OutOrStdout()

			switch {
			case format.String() == "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case short:
				_, err := fmt.Fprintln(out, version.GetShortVersion())
				return err
			default:
				_, err := fmt.Fprintln(out, info.String())
				return err
			}
		},
	}

	cmd.Flags().VarP(format, "format", "f", "output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "show the version only")
	return cmd
}
