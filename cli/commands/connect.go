package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/cli/internal/ui"
)

func newConnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Verify the database connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spinner, _ := ui.PrintSpinner("Connecting...")

			e, err := openEngine(ctx)
			if err != nil {
				stopSpinner(spinner, false)
				return err
			}
			defer e.Close()

			if err := e.Ping(ctx); err != nil {
				stopSpinner(spinner, false)
				return err
			}
			stopSpinner(spinner, true)
			ui.PrintSuccess("Connected (%s)", e.Dialect().Name())
			return nil
		},
	}
}
