package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/DataTable/internal/core"
)

func (c *CLI) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the table with the rows of a CSV file",
		Long: `Import replaces every row with the records of FILE ("-" reads stdin).
The header must contain the built-in columns; blank or duplicate ids are
replaced with generated ones.`,
		Example: "  datatable import people.csv\n  cat people.csv | datatable import -",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				r    io.Reader
				name string
			)
			if args[0] == "-" {
				r, name = cmd.InOrStdin(), "stdin.csv"
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("%w: %v", core.ErrNoFile, err)
				}
				defer f.Close()
				r, name = f, filepath.Base(args[0])
			}

			result, err := c.service().Import(cmd.Context(), name, r)
			if err != nil {
				return err
			}
			format, _ := parseFormat(c.format)
			if format != FormatTable {
				return output(cmd.OutOrStdout(), format, result)
			}
			success(cmd.OutOrStdout(), "%s (%d rows, %d ids reassigned)", result.Message, result.Rows, result.Reassigned)
			return nil
		},
	}
}

func (c *CLI) newExportCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the visible columns as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return c.service().Export(cmd.OutOrStdout())
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := c.service().Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Exported %d rows to %s", len(c.service().State().Table.Data), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "file to write (default stdout, e.g. "+core.ExportFileName+")")
	return cmd
}

func (c *CLI) newRowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "List, add and delete rows",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show one page of rows with pending edits applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := c.service().View(page, size)
			format, _ := parseFormat(c.format)
			if format != FormatTable {
				return output(cmd.OutOrStdout(), format, map[string]any{
					"rows":       plainRows(view.Rows),
					"page":       view.Page,
					"totalPages": view.TotalPages,
					"totalRows":  view.TotalRows,
				})
			}

			t := tableData{Footer: fmt.Sprintf("Page %d of %d (%d rows)", view.Page, view.TotalPages, view.TotalRows)}
			for _, col := range view.VisibleColumns {
				t.Headers = append(t.Headers, core.ColumnLabel(col))
			}
			for _, row := range view.Rows {
				cells := make([]string, len(view.VisibleColumns))
				for i, col := range view.VisibleColumns {
					cells[i] = row.Get(col).String()
				}
				t.Rows = append(t.Rows, cells)
			}
			return output(cmd.OutOrStdout(), FormatTable, t)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "size", 0, "rows per page (default from TABLE_PAGE_SIZE)")

	add := &cobra.Command{
		Use:     "add COLUMN=VALUE...",
		Short:   "Append a row",
		Example: "  datatable rows add name=Ada email=ada@example.com age=36",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args)
			if err != nil {
				return err
			}
			row, err := c.service().AddRow(cmd.Context(), fields)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Row %s added", row.ID())
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.service().DeleteRow(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Row %s deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func (c *CLI) newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID COLUMN=VALUE...",
		Short: "Edit fields of a row and save them",
		Long: `Edit stages the given values for the row and saves them together.
Numeric columns must parse; if any value is invalid nothing is saved.`,
		Example: "  datatable edit 1 age=37 role=owner",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.service().StageEdit(ctx, args[0], fields); err != nil {
				return err
			}
			if _, err := c.service().SaveRow(ctx, args[0]); err != nil {
				c.service().CancelRow(ctx, args[0])
				return err
			}
			success(cmd.OutOrStdout(), "Row %s saved", args[0])
			return nil
		},
	}
}

func (c *CLI) newColumnsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List, show, hide and add columns",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show every known column and whether it is visible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl := c.service().State().Table
			format, _ := parseFormat(c.format)
			if format != FormatTable {
				return output(cmd.OutOrStdout(), format, map[string]any{
					"allColumns":     tbl.AllColumns,
					"visibleColumns": tbl.VisibleColumns,
				})
			}
			t := tableData{Headers: []string{"Column", "Label", "Visible"}}
			for _, col := range tbl.AllColumns {
				t.Rows = append(t.Rows, []string{col, core.ColumnLabel(col), strconv.FormatBool(tbl.IsVisible(col))})
			}
			return output(cmd.OutOrStdout(), FormatTable, t)
		},
	}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.service().ShowColumn(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Column %s shown", args[0])
			return nil
		},
	}

	hide := &cobra.Command{
		Use:   "hide NAME",
		Short: "Hide a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.service().HideColumn(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Column %s hidden", args[0])
			return nil
		},
	}

	var visible bool
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a custom column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := c.service().AddColumn(cmd.Context(), args[0], visible)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Column %s added", name)
			return nil
		},
	}
	add.Flags().BoolVar(&visible, "show", false, "show the column right away")

	cmd.AddCommand(list, show, hide, add)
	return cmd
}

// stateDoc is the persisted state with rows as plain values.
type stateDoc struct {
	Version int `json:"version" yaml:"version"`
	Table   struct {
		Data           []map[string]any `json:"data" yaml:"data"`
		VisibleColumns []string         `json:"visibleColumns" yaml:"visibleColumns"`
		AllColumns     []string         `json:"allColumns" yaml:"allColumns"`
	} `json:"table" yaml:"table"`
	Theme string `json:"theme" yaml:"theme"`
}

func (c *CLI) newStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the persisted state (json or yaml)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := c.service().State()
			var doc stateDoc
			doc.Version = snap.Version
			doc.Table.Data = plainRows(snap.Table.Data)
			doc.Table.VisibleColumns = snap.Table.VisibleColumns
			doc.Table.AllColumns = snap.Table.AllColumns
			doc.Theme = string(snap.Theme)

			format, _ := parseFormat(c.format)
			if format == FormatTable {
				format = FormatJSON
			}
			return output(cmd.OutOrStdout(), format, doc)
		},
	}
}

func (c *CLI) newThemeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Print the theme mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.service().Theme())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := c.service().ToggleTheme(cmd.Context())
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Theme is now %s", mode)
			return nil
		},
	})
	return cmd
}

func (c *CLI) newResetCommand() *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear every row and custom column",
		Long: `Reset restores the initial table and keeps the theme. With --purge the
persisted state is deleted instead, theme included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if purge {
				if err := c.app.Purge(cmd.Context()); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Persisted state deleted")
				return nil
			}
			if err := c.service().Reset(cmd.Context()); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Table reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the persisted state")
	return cmd
}
