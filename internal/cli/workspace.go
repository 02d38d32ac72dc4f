package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func report(cmd *cobra.Command, changed bool, what string) {
	if changed {
		fmt.Fprintln(cmd.OutOrStdout(), what)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), "no change")
}

func codesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List building code sets",
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			active := ws.Preferences().CodeID
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "\tID\tLABEL\tTYPES")
			for _, cs := range ws.Registry().CodeSets() {
				mark := ""
				if cs.ID == active {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", mark, cs.ID, cs.Label, cs.Factors.Len())
			}
			return tw.Flush()
		}),
	}
}

func useCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <codeId>",
		Short: "Activate a code set",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			if err := ws.UseCode(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active code: %s (%s)\n", ws.Preferences().CodeID, ws.Label())
			return nil
		}),
	}
}

func modeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mode <manual|upload>",
		Short:     "Switch the active row collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ModeManual), string(domain.ModeUpload)},
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			mode, ok := domain.ParseMode(args[0])
			if !ok {
				return fmt.Errorf("mode %q: want manual or upload", args[0])
			}
			report(cmd, ws.SetMode(cmd.Context(), mode), "mode: "+string(mode))
			return nil
		}),
	}
}

func filterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <type|All>",
		Short: "Restrict listed rows to one occupancy type",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			changed := ws.SetFilter(cmd.Context(), args[0])
			report(cmd, changed, "filter: "+ws.Preferences().FilterType)
			return nil
		}),
	}
}

func totalsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show occupant load per type and the grand total",
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			t := ws.Totals()
			tw := table(cmd.OutOrStdout())
			for _, tt := range t.ByType {
				fmt.Fprintf(tw, "%s\t%d\n", tt.Type, tt.Load)
			}
			fmt.Fprintf(tw, "Grand Total\t%d\n", t.GrandTotal)
			return tw.Flush()
		}),
	}
}
