package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"occucalc/internal/core"
)

type factorEntry struct {
	Type   string  `json:"type" yaml:"type"`
	Value  float64 `json:"value" yaml:"value"`
	Custom bool    `json:"custom" yaml:"custom"`
}

type factorList struct {
	CodeID  string        `json:"code_id" yaml:"code_id"`
	Label   string        `json:"label" yaml:"label"`
	Factors []factorEntry `json:"factors" yaml:"factors"`
}

func listFactors(ws *core.Workspace) factorList {
	codeID := ws.Preferences().CodeID
	base := ws.Registry().Base(codeID)
	out := factorList{CodeID: codeID, Label: ws.Label(), Factors: []factorEntry{}}
	for _, f := range ws.Factors().Entries() {
		out.Factors = append(out.Factors, factorEntry{Type: f.Type, Value: f.Value, Custom: !base.Has(f.Type)})
	}
	return out
}

func factorsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Inspect and edit the active code's load factors",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List factors in m² per person",
		Args:  cobra.NoArgs,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, _ []string) error {
			fl := listFactors(ws)
			w := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(fl)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(fl); err != nil {
					return err
				}
				return enc.Close()
			case "table", "":
				tw := table(w)
				fmt.Fprintf(tw, "# %s\n", fl.Label)
				fmt.Fprintln(tw, "TYPE\tM²/PERSON\tCUSTOM")
				for _, f := range fl.Factors {
					custom := ""
					if f.Custom {
						custom = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Type, strconv.FormatFloat(f.Value, 'f', -1, 64), custom)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("output %q: want table, yaml or json", output)
			}
		}),
	}
	list.Flags().StringVarP(&output, "output", "o", "table", "output format: table, yaml or json")

	set := &cobra.Command{
		Use:   "set <type> <value>",
		Short: "Override a factor; values must be positive",
		Args:  cobra.ExactArgs(2),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			if !ws.Factors().Has(args[0]) {
				return fmt.Errorf("unknown occupancy type %q", args[0])
			}
			if _, ok := core.ParseFactor(args[1]); !ok {
				return fmt.Errorf("factor %q: want a positive number", args[1])
			}
			report(cmd, ws.SetFactor(cmd.Context(), args[0], args[1]), "set "+args[0]+" = "+args[1])
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom occupancy type",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			report(cmd, ws.AddType(cmd.Context(), args[0]), "added "+args[0])
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <type>",
		Short: "Delete a custom occupancy type",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			report(cmd, ws.DeleteType(cmd.Context(), args[0]), "deleted "+args[0])
			return nil
		}),
	}

	reset := &cobra.Command{
		Use:   "reset [codeId]",
		Short: "Drop every override of a code set, the active one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			codeID := ""
			if len(args) == 1 {
				codeID = args[0]
				if !ws.Registry().Has(codeID) {
					return fmt.Errorf("unknown code set %q", codeID)
				}
			}
			report(cmd, ws.ResetCode(cmd.Context(), codeID), "reset")
			return nil
		}),
	}

	cmd.AddCommand(list, set, add, del, reset)
	return cmd
}
