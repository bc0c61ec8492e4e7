package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/commerce-admin/internal/cli"
	"github.com/Veraticus/commerce-admin/internal/config"
	"github.com/Veraticus/commerce-admin/internal/export"
	"github.com/Veraticus/commerce-admin/internal/importer"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		status string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the category tree to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status == "" {
				status = string(model.StatusAll)
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, status, false)
			if err != nil {
				return err
			}

			path := config.ExpandPath(output)
			if filepath.Ext(path) != ".xlsx" {
				return fmt.Errorf("export file must end in .xlsx: %s", output)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}

			summary, err := export.WriteXLSX(f, view.Forest(), view.Filter())
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(path)
				return err
			}

			fmt.Fprintln(a.out, cli.FormatSuccess(fmt.Sprintf("Exported %d categories to %s", summary.Total, path)))
			fmt.Fprintf(a.out, "  %d active, %d inactive, %d roots, depth %d\n",
				summary.Active, summary.Inactive, summary.Roots, summary.MaxDepth)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "status filter (active, inactive, all; default all)")
	cmd.Flags().StringVarP(&output, "output", "o", "categories.xlsx", "workbook to write")

	return cmd
}

func importCmd() *cobra.Command {
	var (
		dryRun     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create a category tree from a YAML file",
		Long: `Create nested categories described in a YAML file, parents before children.

  parent: 20          # optional, attach the roots below an existing category
  categories:
    - name: Bebidas
      description: Drinks
      children:
        - name: Gaseosas
        - name: Jugos
          active: false

A category that fails is reported and its children are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(config.ExpandPath(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer func() { _ = f.Close() }()

			doc, err := importer.Parse(f)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := cli.NewInterruptHandler(cmd.ErrOrStderr()).
				HandleInterrupts(commandContext(cmd), "Categories created so far are kept.")
			defer cancel()

			opts := importer.Options{DryRun: dryRun}
			if !noProgress {
				opts.Progress = cmd.ErrOrStderr()
			}

			res, err := importer.New(a.client, a.validator).Import(ctx, doc, opts)
			if res != nil {
				printImportResult(cmd, res, dryRun)
			}
			if err != nil {
				return err
			}
			if len(res.Failures) > 0 {
				return reported(errors.New("some categories were not imported"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without creating anything")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")

	return cmd
}

func printImportResult(cmd *cobra.Command, res *importer.Result, dryRun bool) {
	out := cmd.OutOrStdout()

	verb := "Created"
	if dryRun {
		verb = "Would create"
	}
	if len(res.Created) > 0 {
		fmt.Fprintln(out, renderTree(res.Forest(), 0))
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s %d categories", verb, len(res.Created))))

	for _, f := range res.Failures {
		line := fmt.Sprintf("%s: %v", f.Path, f.Err)
		if f.Skipped > 0 {
			line += fmt.Sprintf(" (%d below skipped)", f.Skipped)
		}
		fmt.Fprintln(out, cli.FormatError(line))
	}
}
