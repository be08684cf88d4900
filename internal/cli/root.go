package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"usda-import/internal/config"
	"usda-import/internal/database"
	"usda-import/internal/repository"
	"usda-import/internal/service"
	"usda-import/internal/sr"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// OpenRepository connects the catalog store. The returned function releases it.
type OpenRepository func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.CatalogRepository, func(), error)

// openPostgres opens the PostgreSQL catalog store.
func openPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.CatalogRepository, func(), error) {
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return repository.NewCatalogRepository(pool, logger), pool.Close, nil
}

type importFlags struct {
	maxRows int
	dryRun  bool
	verbose bool
	json    bool
}

// NewRootCommand builds the importer command. A nil open uses PostgreSQL.
func NewRootCommand(open OpenRepository) *cobra.Command {
	if open == nil {
		open = openPostgres
	}

	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "importer <root-folder>",
		Short: "Import USDA SR food groups and foods into the ingredient catalog",
		Long: `importer reads FD_GROUP.txt and FOOD_DES.txt from an SR release folder.

Food groups become categories under the "Ingredient" category type, then food
descriptions become public ingredients in those categories. Existing categories
and ingredients are skipped, so the import can be run again safely.

Database and source settings are read from the environment (and a .env file).

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  14 - Source file not found
  15 - Malformed source record`,
		Args:          requireRootFolder,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags, open)
		},
	}

	cmd.Flags().IntVarP(&flags.maxRows, "max-rows", "n", service.NoRowLimit,
		"Evaluate at most N food description records (-1 for all)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Run every check but roll back instead of committing")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the run report as JSON")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	return cmd
}

// Execute runs the importer command with PostgreSQL storage.
func Execute(ctx context.Context) error {
	return NewRootCommand(nil).ExecuteContext(ctx)
}

// requireRootFolder validates that exactly one root folder argument is provided.
func requireRootFolder(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`%w: missing required argument: <root-folder>

Usage: %s

Example:
  %s ./data/sr28 --max-rows 100`, ErrUsage, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: accepts 1 arg(s), received %d", ErrUsage, len(args))
	}
	if args[0] == "" {
		return fmt.Errorf("%w: root folder must not be empty", ErrUsage)
	}
	return nil
}

func runImport(cmd *cobra.Command, rootDir string, flags *importFlags, open OpenRepository) error {
	if flags.maxRows < service.NoRowLimit {
		return fmt.Errorf("%w: --max-rows must be %d or greater, got %d", ErrUsage, service.NoRowLimit, flags.maxRows)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if flags.verbose {
		cfg.Logger.Level = "debug"
	}

	logger := config.NewLogger(cfg.Logger)

	charset, err := sr.ParseCharset(cfg.Source.Charset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, closeRepo, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	importer := service.NewImporter(repo, service.ImporterConfig{
		GroupFile:           cfg.Source.GroupFile,
		DescriptionFile:     cfg.Source.DescriptionFile,
		Charset:             charset,
		CategoryType:        cfg.Import.CategoryType,
		ReportUnknownGroups: cfg.Import.ReportUnknownGroups,
	}, logger)

	report, err := importer.Run(ctx, service.Options{
		RootDir: rootDir,
		MaxRows: flags.maxRows,
		DryRun:  flags.dryRun,
	})
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSONReport(cmd.OutOrStdout(), report)
	}
	writeReport(cmd.OutOrStdout(), report)
	return nil
}

func writeJSONReport(w io.Writer, report *service.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeReport(w io.Writer, report *service.Report) {
	mode := ""
	if report.DryRun {
		mode = " (dry run, nothing committed)"
	}

	fmt.Fprintf(w, "Import %s finished in %s%s\n", report.RunID, report.Duration.Round(time.Millisecond), mode)
	fmt.Fprintf(w, "  source:      %s\n", report.RootDir)

	if g := report.Groups; g != nil {
		fmt.Fprintf(w, "  categories:  %d read, %d existing, %d new, %d inserted\n",
			g.Read, g.Existing, g.Staged, g.Inserted)
	}

	if in := report.Ingredients; in != nil {
		fmt.Fprintf(w, "  ingredients: %d evaluated, %d unknown group, %d existing, %d new, %d inserted\n",
			in.Evaluated, in.SkippedUnknownGroup, in.SkippedExisting, in.Staged, in.Inserted)
		if in.LimitReached {
			fmt.Fprintln(w, "  stopped at --max-rows limit")
		}
	}
}
