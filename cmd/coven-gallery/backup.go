// ABOUTME: Export, import and legacy migration subcommands
// ABOUTME: Import and migrate replace the whole collection after confirmation

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389/coven-gallery/internal/backup"
	"github.com/2389/coven-gallery/internal/migrate"
	"github.com/2389/coven-gallery/internal/repository"
)

func newExportCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole collection to a JSON backup file",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		if dir == "" {
			dir = app.cfg.Backup.Dir
		}
		path, err := backup.WriteFile(dir, backup.Export(repo.Items(), repo.Categories()), app.now())
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "exported %d items to %s", len(repo.Items()), path)
		return nil
	})

	cmd.Flags().StringVar(&dir, "dir", "", "Directory for the backup file (default: backup.dir from config)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the whole collection with a JSON backup file",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading backup: %w", err)
		}
		if _, err := backup.Decode(data); err != nil {
			return err
		}
		if !app.confirm(cmd, "Importing overwrites all existing data. Continue?") {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}

		res, err := backup.Import(cmd.Context(), repo, data)
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "imported %d items and %d categories", res.Items, res.Categories)
		if res.Coerced > 0 {
			printWarning(cmd.OutOrStdout(), "%d items referenced unknown categories and were moved to the default", res.Coerced)
		}
		return nil
	})
	return cmd
}

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move legacy flat-storage data into the gallery database",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{skipMigration: true}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		res, err := app.runMigration(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		switch res.Status {
		case migrate.StatusNoLegacyData:
			fmt.Fprintln(cmd.OutOrStdout(), "no legacy data found")
		case migrate.StatusDeclined:
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
		case migrate.StatusMigrated:
			printSuccess(cmd.OutOrStdout(), "migrated %d items and %d categories", res.Replace.Items, res.Replace.Categories)
			if n := res.SkippedItems + res.SkippedCategories; n > 0 {
				printWarning(cmd.OutOrStdout(), "skipped %d malformed entries", n)
			}
		}
		return nil
	})
	return cmd
}
