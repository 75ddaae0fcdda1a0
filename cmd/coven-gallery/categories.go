// ABOUTME: Category and tag subcommands
// ABOUTME: Rename and delete ask for confirmation and report the cascaded item updates

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "List and manage categories",
		Args:    cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{}, listCategories)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories (the default category first)",
		Args:  cobra.NoArgs,
		RunE:  app.withRepo(openOptions{}, listCategories),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			name, err := repo.AddCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "added category %q", name)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category and every item in it",
		Args:  cobra.ExactArgs(2),
		RunE: app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			if !app.confirm(cmd, fmt.Sprintf("Rename category %q to %q?", args[0], args[1])) {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			res, err := repo.RenameCategory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !res.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), "name unchanged")
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "renamed %q to %q (%d items updated)", res.Old, res.New, res.ItemsUpdated)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category; its items move to the default category",
		Args:  cobra.ExactArgs(1),
		RunE: app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
			question := fmt.Sprintf("Delete category %q? Its items move to %q.", args[0], gallery.DefaultCategory)
			if !app.confirm(cmd, question) {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			res, err := repo.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "deleted category %q (%d items moved)", res.Name, res.ItemsReassigned)
			return nil
		}),
	})

	return cmd
}

func listCategories(cmd *cobra.Command, args []string, repo *repository.Repository) error {
	counts := make(map[string]int)
	for _, it := range repo.Items() {
		counts[it.Category]++
	}
	for _, name := range repo.CategoryList() {
		n := counts[name]
		if name == gallery.DefaultCategory {
			n += counts[""]
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, color.HiBlackString(fmt.Sprintf("(%d)", n)))
	}
	return nil
}

func newTagsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		for _, tag := range repo.Tags() {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	})
	return cmd
}
