package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"occucalc/internal/adapters/exports"
	"occucalc/internal/adapters/sheets"
	"occucalc/internal/core"
)

func importCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx|file.xls>",
		Short: "Replace the upload rows with a spreadsheet and switch to upload mode",
		Args:  cobra.ExactArgs(1),
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()
			rows, err := sheets.Import(f, filepath.Base(path), ws.Factors())
			if err != nil {
				return err
			}
			ws.ReplaceUpload(cmd.Context(), rows)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows, grand total %d\n", len(rows), ws.Totals().GrandTotal)
			return nil
		}),
	}
}

func exportCommand(a *app) *cobra.Command {
	var output string
	formats := make([]string, len(exports.Formats))
	for i, f := range exports.Formats {
		formats[i] = string(f)
	}
	cmd := &cobra.Command{
		Use:       "export <" + strings.Join(formats, "|") + ">",
		Short:     "Render the active rows to a file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: formats,
		RunE: a.withWorkspace(func(cmd *cobra.Command, ws *core.Workspace, args []string) (err error) {
			format, err := exports.ParseFormat(args[0])
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = format.FileName()
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer func() {
				if cerr := f.Close(); err == nil && cerr != nil {
					err = cerr
				}
				if err != nil {
					err = errors.Join(err, os.Remove(path))
				}
			}()
			if err := exports.Render(f, format, ws.Contents()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default the format's file name)")
	return cmd
}
