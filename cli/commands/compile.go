package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/cli/internal/ui"
	"github.com/satishbabariya/dataql/cli/internal/watch"
	"github.com/satishbabariya/dataql/engine"
	"github.com/satishbabariya/dataql/query/compiler"
)

func newCompileCommand() *cobra.Command {
	var (
		watchFile bool
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "compile <statement.json>",
		Short: "Compile a statement to SQL without running it",
		Long: `Compile a JSON statement against the reflected catalog and print the SQL
and its bound parameters. Use "-" to read the statement from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			run := func(path string) error {
				return compileFile(ctx, e, path, explain)
			}
			if !watchFile {
				return run(args[0])
			}
			if args[0] == "-" {
				return fmt.Errorf("--watch needs a statement file")
			}

			w, err := watch.NewWatcher(args[0], run)
			if err != nil {
				return err
			}
			w.OnError = func(err error) {
				ui.PrintError("%v", err)
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ui.PrintInfo("Watching %s (Ctrl+C to stop)", args[0])
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "recompile when the file changes")
	cmd.Flags().BoolVar(&explain, "explain", false, "describe joins and row caps")
	return cmd
}

func compileFile(ctx context.Context, e *engine.Engine, path string, explain bool) error {
	stmt, err := readStatement(path)
	if err != nil {
		return err
	}
	compiled, err := e.Compile(ctx, stmt)
	if err != nil {
		return err
	}

	ui.PrintCodeBlock(compiled.SQL, "sql")
	if err := printParams(compiled.Params); err != nil {
		return err
	}
	if explain {
		return ui.PrintMarkdown(explainMarkdown(compiled))
	}
	return nil
}

// explainMarkdown summarizes a compiled statement.
func explainMarkdown(c *compiler.Compiled) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s on `%s`\n\n", c.Command.Kind, c.Table)
	fmt.Fprintf(&b, "- command: `%s`\n", c.Command.Name)
	fmt.Fprintf(&b, "- parameters: %d\n", len(c.Params))
	fmt.Fprintf(&b, "- returns rows: %s\n", yesNo(c.Returning))
	if c.RowCap != nil {
		fmt.Fprintf(&b, "- result capped at %d rows\n", *c.RowCap)
	}
	fmt.Fprintf(&b, "- catalog version: %d\n", c.CatalogVersion)

	if len(c.Joins) > 0 {
		b.WriteString("\n### Joins\n\n| join | foreign key | note |\n|---|---|---|\n")
		for _, j := range c.Joins {
			fk, note := "none (ad hoc)", ""
			if j.ForeignKey != nil {
				fk = "`" + j.ForeignKey.String() + "`"
			}
			if j.TypeMismatch {
				note = "column types differ"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", j.Join.String(), fk, note)
		}
	}
	return b.String()
}
