package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/satishbabariya/dataql/cli/internal/ui"
	"github.com/satishbabariya/dataql/engine"
	"github.com/satishbabariya/dataql/internal/config"
	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// loadConfig reads the config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	if opts.dsn != "" {
		cfg.DSN = opts.dsn
	}
	if opts.schema != "" {
		cfg.Schema = opts.schema
	}
	if cfg.Debug && !opts.debug {
		debug.Init(true)
	}
	if cfg.File != "" {
		debug.Debug("Loaded config", "file", cfg.File, "driver", cfg.Driver)
	}
	return cfg, nil
}

// openEngine connects an engine from the config. The caller closes it.
func openEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e, err := engine.Connect(ctx, cfg.Engine())
	if err != nil {
		return nil, err
	}
	if debug.Enabled() {
		e.Use(engine.LoggingMiddleware())
	}
	return e, nil
}

// readStatement decodes a statement from path, or stdin for "-".
func readStatement(path string) (*statement.Statement, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open statement: %w", err)
		}
		defer f.Close()
		r = f
	}
	return statement.Decode(r)
}

// printParams renders bound parameters as a table.
func printParams(params []sqlgen.Param) error {
	if len(params) == 0 {
		ui.PrintInfo("no parameters")
		return nil
	}
	rows := make([][]string, len(params))
	for i, p := range params {
		hint := p.TypeHint
		if hint == "" {
			hint = "-"
		}
		rows[i] = []string{p.Name, p.Value.Kind().String(), p.Value.String(), hint}
	}
	return ui.PrintTable([]string{"NAME", "KIND", "VALUE", "HINT"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
