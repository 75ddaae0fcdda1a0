// ABOUTME: Root cobra command and shared CLI state
// ABOUTME: Loads config, sets up logging, opens the store and runs the legacy migration check

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/coven-gallery/internal/config"
	"github.com/2389/coven-gallery/internal/migrate"
	"github.com/2389/coven-gallery/internal/repository"
	"github.com/2389/coven-gallery/internal/store"
)

// App holds state shared by every subcommand.
type App struct {
	ConfigPath string
	Yes        bool
	Verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
	repo   *repository.Repository
	input  *bufio.Reader
	now    func() time.Time
}

// NewRootCmd builds the coven-gallery command tree.
func NewRootCmd() *cobra.Command {
	app := &App{now: time.Now}

	cmd := &cobra.Command{
		Use:          "coven-gallery",
		Short:        "Local-first image gallery with notes, tags and categories",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Add an image with a note and tags
  coven-gallery add cat.png --note "on the sofa" --tags "cat, home"

  # List favorites as JSON
  coven-gallery list --filter favorites --json

  # Serve the local API for the browser UI
  coven-gallery serve
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config file (default: $"+config.EnvConfigPath+" or ~/.config/coven/gallery.yaml)")
	cmd.PersistentFlags().BoolVarP(&app.Yes, "yes", "y", false, "Answer yes to every confirmation prompt")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newFavoriteCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration and installs the logger.
func (a *App) setup(cmd *cobra.Command) error {
	path := a.ConfigPath
	if path == "" {
		path = config.Path()
	}

	var err error
	if a.ConfigPath != "" {
		a.cfg, err = config.Load(path)
	} else {
		a.cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.Verbose {
		a.cfg.Logging.Level = "debug"
	}
	a.logger = setupLogger(a.cfg.Logging, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	a.input = bufio.NewReader(cmd.InOrStdin())

	a.logger.Debug("config loaded", "path", path, "database", a.cfg.Database.Path)
	return nil
}

type openOptions struct {
	skipMigration bool
}

// open opens the store, offers the legacy migration and loads the collection.
func (a *App) open(cmd *cobra.Command, opts openOptions) (*repository.Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.NewSQLiteStore(a.cfg.Database.Path,
		store.WithDriver(a.cfg.Database.Driver),
		store.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.store = s
	a.repo = repository.New(s, repository.WithLogger(a.logger))

	if !opts.skipMigration {
		if _, err := a.runMigration(ctx, cmd); err != nil {
			a.logger.Warn("legacy migration did not complete", "error", err)
			printWarning(cmd.ErrOrStderr(), "legacy data was not migrated: %v", err)
		}
	}

	if err := a.repo.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	return a.repo, nil
}

func (a *App) runMigration(ctx context.Context, cmd *cobra.Command) (migrate.Result, error) {
	svc := &migrate.Service{
		Source: migrate.NewFileSource(a.cfg.Legacy.Dir, a.cfg.Legacy.Key),
		Target: a.repo,
		Logger: a.logger.With("component", "migrate"),
	}
	return svc.Run(ctx, func() bool {
		return a.confirm(cmd, "Legacy data found. Move it into the gallery database? (this only happens once)")
	})
}

// withRepo opens the collection, runs fn and closes the store afterwards.
func (a *App) withRepo(opts openOptions, fn func(cmd *cobra.Command, args []string, repo *repository.Repository) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		repo, err := a.open(cmd, opts)
		if err != nil {
			return err
		}
		return fn(cmd, args, repo)
	}
}

// close releases the repository and store.
func (a *App) close() error {
	var errs []error
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
		a.repo = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
		a.store = nil
	}
	return errors.Join(errs...)
}

// confirm asks a yes/no question. --yes answers it without prompting, and
// end of input counts as no.
func (a *App) confirm(cmd *cobra.Command, question string) bool {
	if a.Yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := a.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(cmd.OutOrStdout())
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coven-gallery %s\n", version)
		},
	}
}
