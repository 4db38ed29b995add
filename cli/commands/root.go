package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/internal/debug"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	driver     string
	dsn        string
	schema     string
	debug      bool
}

var opts globalOptions

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dataql",
		Short: "Compile structured statements to SQL and run them",
		Long: color.CyanString(`dataql - structured query compiler and schema reflection

dataql compiles JSON statements (command, table, fields, options) into
parameterized SQL, validates joins against the reflected schema and runs the
result through the RDS Data API or a database/sql driver.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				debug.Init(true)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default searches ./.dataql.yaml, ~/.dataql.yaml, ~/.config/dataql)")
	flags.StringVar(&opts.driver, "driver", "", "backend: dataapi, postgres, pgx, mysql or sqlite3")
	flags.StringVar(&opts.dsn, "dsn", "", "database/sql connection string")
	flags.StringVar(&opts.schema, "schema", "", "default schema")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newConnectCommand())
	rootCmd.AddCommand(newIntrospectCommand())
	rootCmd.AddCommand(newForeignKeysCommand())
	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newRawCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
