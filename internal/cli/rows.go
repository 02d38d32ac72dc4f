package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

func rowsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Edit the active row collection",
	}
	cmd.AddCommand(
		rowsListCommand(a),
		rowsAddCommand(a),
		rowsSimpleCommand(a, "add-per-type", "Append one row per occupancy type", (*core.Workspace).AddOnePerType),
		rowsSetCommand(a),
		rowsRemoveCommand(a),
		rowsSimpleCommand(a, "clear", "Reset the collection to its default", (*core.Workspace).Clear),
		rowsSelectCommand(a),
		rowsApplyTypeCommand(a),
		rowsSimpleCommand(a, "duplicate", "Copy every selected row", (*core.Workspace).DuplicateSelected),
		rowsSimpleCommand(a, "delete-selected", "Remove every selected row", (*core.Workspace).DeleteSelected),
	)
	return cmd
}

func rowsListCommand(a *app) *cobra.Command {
	var (
		search, sort, filter string
		desc                 bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rows through the filter, search and sort",
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			q := core.ViewQuery{FilterType: ws.Preferences().FilterType, Search: search, Sort: core.DefaultSorter()}
			if filter != "" {
				q.FilterType = filter
			}
			if sort != "" {
				key, ok := domain.ParseSortKey(sort)
				if !ok {
					return fmt.Errorf("sort %q: want number, name, area, type or load", sort)
				}
				q.Sort.Key = key
			}
			if desc {
				q.Sort.Dir = domain.SortDesc
			}
			rows := ws.ViewWith(q)
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSEL\tROOM #\tROOM NAME\tAREA (M²)\tTYPE\tLOAD")
			for _, r := range rows {
				sel := ""
				if r.Selected {
					sel = "x"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, sel, r.Number, r.Name, r.Area, r.Type, r.Load)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive substring of number or name")
	cmd.Flags().StringVar(&sort, "sort", "", "sort key: number, name, area, type or load")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&filter, "filter", "", "type filter for this listing only")
	return cmd
}

func rowsAddCommand(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append blank rows",
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			report(cmd, ws.AddRows(cmd.Context(), n), fmt.Sprintf("rows: %d", len(ws.Rows())))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&n, "count", "n", 1, "number of rows")
	return cmd
}

func rowsSimpleCommand(a *app, use, short string, op func(*core.Workspace, context.Context) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			report(cmd, op(ws, cmd.Context()), fmt.Sprintf("rows: %d", len(ws.Rows())))
			return nil
		}),
	}
}

func parseRowID(ws *core.Workspace, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("row id %q: want an integer", s)
	}
	if _, ok := ws.Row(id); !ok {
		return 0, domain.NotFoundError{Entity: "row", ID: s}
	}
	return id, nil
}

func rowsSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Edit number, name, area or type of one row",
		Args:  cobra.ExactArgs(3),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			id, err := parseRowID(ws, args[0])
			if err != nil {
				return err
			}
			field, ok := domain.ParseField(args[1])
			if !ok {
				return fmt.Errorf("field %q: want number, name, area or type", args[1])
			}
			changed := ws.UpdateField(cmd.Context(), id, field, args[2])
			row, _ := ws.Row(id)
			report(cmd, changed, fmt.Sprintf("row %d: %s = %q, load %d", id, field, args[2], row.Load))
			return nil
		}),
	}
}

func rowsRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one row",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			id, err := parseRowID(ws, args[0])
			if err != nil {
				return err
			}
			report(cmd, ws.RemoveRow(cmd.Context(), id), fmt.Sprintf("removed row %d", id))
			return nil
		}),
	}
}

func rowsSelectCommand(a *app) *cobra.Command {
	var all, none bool
	cmd := &cobra.Command{
		Use:   "select <id...> | --all | --none",
		Short: "Set selection flags",
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			ctx := cmd.Context()
			switch {
			case all && none:
				return fmt.Errorf("--all and --none are exclusive")
			case all || none:
				if len(args) > 0 {
					return fmt.Errorf("ids cannot be combined with --all or --none")
				}
				changed := ws.SetSelectionAll(ctx, all)
				report(cmd, changed, fmt.Sprintf("selected: %d", ws.Snapshot().SelectedCount))
				return nil
			case len(args) == 0:
				return fmt.Errorf("give row ids, --all or --none")
			}
			ids := make([]int, 0, len(args))
			for _, s := range args {
				id, err := parseRowID(ws, s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			changed := false
			for _, id := range ids {
				if ws.SetSelected(ctx, id, true) {
					changed = true
				}
			}
			report(cmd, changed, fmt.Sprintf("selected: %d", ws.Snapshot().SelectedCount))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "select every row")
	cmd.Flags().BoolVar(&none, "none", false, "clear every selection")
	return cmd
}

func rowsApplyTypeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply-type <type>",
		Short: "Retype every selected row",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			report(cmd, ws.ApplyTypeToSelected(cmd.Context(), args[0]), "applied "+args[0])
			return nil
		}),
	}
}
