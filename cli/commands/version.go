package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/cli/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		short      bool
		asJSON     bool
		constraint string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			if constraint != "" {
				ok, err := info.Satisfies(constraint)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("version %s does not satisfy %q", info.Version, constraint)
				}
			}

			if short {
				fmt.Fprintln(out, info.Version)
				return nil
			}
			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			for _, line := range [][2]string{
				{"dataql version: ", info.Version},
				{"Git commit: ", info.GitCommit},
				{"Build date: ", info.BuildDate},
				{"Go version: ", info.GoVersion},
				{"Platform: ", info.Platform},
			} {
				titleColor.Fprint(out, line[0])
				fmt.Fprintln(out, line[1])
			}
			if info.IsPrerelease() {
				color.New(color.FgYellow).Fprintln(out, "development build")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	cmd.Flags().StringVar(&constraint, "check", "", "fail unless the version satisfies a constraint, e.g. '>= 0.1'")
	return cmd
}
