package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/cli/internal/ui"
)

func newIntrospectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Reflect tables, columns and foreign keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			spinner, _ := ui.PrintSpinner("Introspecting database...")
			snap, err := e.Introspect(ctx)
			stopSpinner(spinner, err == nil)
			if err != nil {
				return err
			}

			if asJSON {
				return printIndented(snap)
			}
			return printCatalog(snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func newForeignKeysCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "fks <table>",
		Aliases: []string{"foreign-keys"},
		Short:   "List foreign keys where a table is either side",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			fks, err := e.ForeignKeys(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printIndented(fks)
			}
			if len(fks) == 0 {
				ui.PrintInfo("%s has no foreign keys", args[0])
				return nil
			}
			return printForeignKeys(fks)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print foreign keys as JSON")
	return cmd
}

func printCatalog(snap *catalog.Snapshot) error {
	ui.PrintHeader("Catalog", fmt.Sprintf("version %d, %d tables, schema %s",
		snap.Version, len(snap.Tables), snap.DefaultSchema))

	for _, table := range snap.Tables {
		ui.PrintSection(table.QualifiedName())
		rows := make([][]string, len(table.Columns))
		for i, col := range table.Columns {
			rows[i] = []string{col.Name, col.Type, string(col.Family()), yesNo(col.Nullable), yesNo(col.PrimaryKey)}
		}
		if err := ui.PrintTable([]string{"COLUMN", "TYPE", "FAMILY", "NULLABLE", "PK"}, rows); err != nil {
			return err
		}
	}

	if len(snap.ForeignKeys) > 0 {
		ui.PrintSection("Foreign keys")
		return printForeignKeys(snap.ForeignKeys)
	}
	return nil
}

func printForeignKeys(fks []catalog.ForeignKey) error {
	rows := make([][]string, len(fks))
	for i, fk := range fks {
		rows[i] = []string{fk.Name, fk.Table + "." + fk.Key, fk.ReferencedTable + "." + fk.ReferencedKey}
	}
	return ui.PrintTable([]string{"NAME", "FROM", "TO"}, rows)
}

func printIndented(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ui.PrintJSON(data)
}

func stopSpinner(spinner *pterm.SpinnerPrinter, ok bool) {
	if spinner == nil {
		return
	}
	if ok {
		spinner.Success()
		return
	}
	spinner.Fail()
}
