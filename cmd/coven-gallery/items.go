// ABOUTME: Item subcommands: add, list, show, edit, delete, favorite, move
// ABOUTME: Reads image files into data URIs and prints items as text or JSON

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-gallery/internal/filter"
	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

// readImage loads an image file as a base64 data URI.
// Files that are not images are rejected.
func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	typ := http.DetectContentType(data)
	if !strings.HasPrefix(typ, "image/") {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); strings.HasPrefix(byExt, "image/") {
			typ = byExt
		}
	}
	if !strings.HasPrefix(typ, "image/") {
		return "", fmt.Errorf("%w: %s looks like %s", gallery.ErrInvalidImage, filepath.Base(path), typ)
	}
	if i := strings.Index(typ, ";"); i >= 0 {
		typ = typ[:i]
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func newAddCmd(app *App) *cobra.Command {
	var note, tags, category string

	cmd := &cobra.Command{
		Use:   "add <image-file>",
		Short: "Add an image to the gallery",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		if category != "" && !gallery.KnownCategory(repo.Categories(), category) {
			return fmt.Errorf("category %q: %w", category, gallery.ErrInvalidCategory)
		}
		data, err := readImage(args[0])
		if err != nil {
			return err
		}

		item, err := repo.AddItem(cmd.Context(), data, note, gallery.ParseTags(tags))
		if err != nil {
			return err
		}
		if category != "" && category != item.Category {
			if item, err = repo.EditItem(cmd.Context(), item.ID, item.Note, item.Tags, category); err != nil {
				return err
			}
		}

		printSuccess(cmd.OutOrStdout(), "added %s", item.ID)
		return nil
	})

	cmd.Flags().StringVar(&note, "note", "", "Note text")
	cmd.Flags().StringVar(&tags, "tags", "", "Tags separated by commas or spaces")
	cmd.Flags().StringVar(&category, "category", "", "Category (default: "+gallery.DefaultCategory+")")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var spec string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in manual order",
		Long: `List items in manual order.

Filters: all, favorites, uncategorized, category:<name>, tag:<tag>.
An unrecognized filter lists everything.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		items := repo.View(filter.Parse(spec))
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no items")
			return nil
		}
		for i, it := range items {
			printItemLine(cmd.OutOrStdout(), i, it)
		}
		return nil
	})

	cmd.Flags().StringVarP(&spec, "filter", "f", "all", "Filter to apply")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		it, err := repo.Item(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), it)
		}

		w := cmd.OutOrStdout()
		label := color.New(color.FgHiBlack)
		label.Fprint(w, "id:        ")
		fmt.Fprintln(w, it.ID)
		label.Fprint(w, "category:  ")
		fmt.Fprintln(w, it.Category)
		label.Fprint(w, "favorite:  ")
		fmt.Fprintln(w, it.IsFavorite)
		label.Fprint(w, "tags:      ")
		fmt.Fprintln(w, strings.Join(it.Tags, ", "))
		label.Fprint(w, "image:     ")
		fmt.Fprintln(w, imageSummary(it.ImageData))
		label.Fprintln(w, "note:")
		fmt.Fprintln(w, it.Note)
		return nil
	})

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the item as JSON")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var note, tags, category string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the note, tags or category of an item",
		Long:  "Change the note, tags or category of an item. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		current, err := repo.Item(args[0])
		if err != nil {
			return err
		}

		newNote, newTags, newCategory := current.Note, current.Tags, current.Category
		if cmd.Flags().Changed("note") {
			newNote = note
		}
		if cmd.Flags().Changed("tags") {
			newTags = gallery.ParseTags(tags)
		}
		if cmd.Flags().Changed("category") {
			newCategory = category
		}

		if _, err := repo.EditItem(cmd.Context(), current.ID, newNote, newTags, newCategory); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "updated %s", current.ID)
		return nil
	})

	cmd.Flags().StringVar(&note, "note", "", "New note text")
	cmd.Flags().StringVar(&tags, "tags", "", "New tags separated by commas or spaces")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		if _, err := repo.Item(args[0]); err != nil {
			return err
		}
		if !app.confirm(cmd, fmt.Sprintf("Delete item %s?", args[0])) {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}
		if err := repo.DeleteItem(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "deleted %s", args[0])
		return nil
	})
	return cmd
}

func newFavoriteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag of an item",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		fav, err := repo.ToggleFavorite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if fav {
			printSuccess(cmd.OutOrStdout(), "%s is now a favorite", args[0])
		} else {
			printSuccess(cmd.OutOrStdout(), "%s is no longer a favorite", args[0])
		}
		return nil
	})
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> <index>",
		Short: "Move an item to a position in the manual order (0 is first)",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = app.withRepo(openOptions{}, func(cmd *cobra.Command, args []string, repo *repository.Repository) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be a number: %w", err)
		}
		if err := repo.Reorder(cmd.Context(), args[0], index); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "moved %s", args[0])
		return nil
	})
	return cmd
}

func printItemLine(w io.Writer, pos int, it gallery.Item) {
	star := " "
	if it.IsFavorite {
		star = color.YellowString("★")
	}
	fmt.Fprintf(w, "%3d %s %s  %s", pos, star, it.ID, color.CyanString(it.Category))
	if len(it.Tags) > 0 {
		fmt.Fprintf(w, "  %s", color.HiBlackString("#"+strings.Join(it.Tags, " #")))
	}
	if it.Note != "" {
		fmt.Fprintf(w, "  %s", truncate(firstLine(it.Note), 48))
	}
	fmt.Fprintln(w)
}

// imageSummary describes a data URI without printing the payload.
func imageSummary(data string) string {
	header, payload, ok := strings.Cut(data, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return fmt.Sprintf("%d bytes", len(data))
	}
	typ := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	size := len(payload)
	if strings.HasSuffix(header, ";base64") {
		size = base64.StdEncoding.DecodedLen(len(payload))
	}
	return fmt.Sprintf("%s, ~%d bytes", typ, size)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}
