package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robert-radu/tablecmd/internal/command"
	"github.com/robert-radu/tablecmd/internal/domain"
	"github.com/robert-radu/tablecmd/internal/fspath"
	"github.com/robert-radu/tablecmd/internal/metastore"
	"github.com/robert-radu/tablecmd/internal/sqlparse"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "run [statement]",
		Short: "Execute SQL statements against the metastore",
		Long: `Execute one or more semicolon-separated SQL statements. The statements
come from the argument, or from a file with --file, or from stdin when
neither is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.newLogger(cfg)

			script, err := readScript(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cmds, err := sqlparse.ParseScript(script)
			if err != nil {
				return err
			}

			store, err := metastore.Open(cfg.MetastorePath, metastore.Options{
				DefaultDatabase: cfg.DefaultDatabase,
				WarehouseDir:    cfg.WarehouseDir,
			})
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			resolver, err := fspath.New(cfg.DefaultFS)
			if err != nil {
				return err
			}
			executor := command.NewExecutor(store, resolver, logger)

			for _, c := range cmds {
				result, err := executor.Execute(cmd.Context(), c)
				if err != nil {
					return fmt.Errorf("%s: %w", c.Name(), err)
				}
				if err := printResult(cmd.OutOrStdout(), result, output); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read statements from a file")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func readScript(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("pass a statement argument or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // path is caller-controlled
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

// printResult renders a command result. Results without a schema (DDL and
// LOAD) print nothing.
func printResult(w io.Writer, result *domain.Result, format string) error {
	if result == nil || result.Schema == nil {
		return nil
	}

	if format == "json" {
		rows := make([]map[string]any, 0, len(result.Rows))
		for _, row := range result.Rows {
			m := make(map[string]any, len(result.Schema.Columns))
			for i, col := range result.Schema.Columns {
				if i < len(row) {
					m[col.Name] = row[i]
				}
			}
			rows = append(rows, m)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range result.Schema.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col.Name)
	}
	fmt.Fprintln(tw)
	for _, row := range result.Rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprintf(tw, "%v", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
