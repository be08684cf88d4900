package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"usda-import/internal/model"
	"usda-import/internal/repository"
	"usda-import/internal/sr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunState is the progress of an import run.
type RunState string

const (
	StateNotStarted        RunState = "not_started"
	StateGroupsLoaded      RunState = "groups_loaded"
	StateIngredientsLoaded RunState = "ingredients_loaded"
	StateFailed            RunState = "failed"
)

// Default source file names of an SR release.
const (
	DefaultGroupFile       = "FD_GROUP.txt"
	DefaultDescriptionFile = "FOOD_DES.txt"
)

// ImporterConfig holds configuration for the importer.
type ImporterConfig struct {
	// GroupFile is the food group file name inside the root folder.
	// Default: FD_GROUP.txt
	GroupFile string

	// DescriptionFile is the food description file name inside the root folder.
	// Default: FOOD_DES.txt
	DescriptionFile string

	// Charset is the encoding of both source files.
	Charset sr.Charset

	// CategoryType is the category type food groups are filed under.
	// Default: model.DefaultCategoryTypeName
	CategoryType string

	// ReportUnknownGroups logs unknown food group codes at warn level.
	ReportUnknownGroups bool
}

// Options are the parameters of a single import run.
type Options struct {
	// RootDir is the folder holding the SR files.
	RootDir string

	// MaxRows bounds the number of description records evaluated.
	// NoRowLimit evaluates the whole file.
	MaxRows int

	// DryRun rolls every phase back instead of committing it.
	DryRun bool
}

// Report describes the outcome of an import run.
type Report struct {
	RunID           uuid.UUID         `json:"run_id"`
	State           RunState          `json:"state"`
	RootDir         string            `json:"root_dir"`
	GroupFile       string            `json:"group_file,omitempty"`
	DescriptionFile string            `json:"description_file,omitempty"`
	DryRun          bool              `json:"dry_run"`
	StartedAt       time.Time         `json:"started_at"`
	Duration        time.Duration     `json:"duration"`
	Groups          *GroupResult      `json:"groups,omitempty"`
	Ingredients     *IngredientResult `json:"ingredients,omitempty"`
}

// Importer runs the group phase followed by the ingredient phase.
type Importer struct {
	repo   repository.CatalogRepository
	config ImporterConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewImporter creates a new importer.
func NewImporter(repo repository.CatalogRepository, config ImporterConfig, logger zerolog.Logger) *Importer {
	if config.GroupFile == "" {
		config.GroupFile = DefaultGroupFile
	}
	if config.DescriptionFile == "" {
		config.DescriptionFile = DefaultDescriptionFile
	}
	if config.CategoryType == "" {
		config.CategoryType = model.DefaultCategoryTypeName
	}

	return &Importer{
		repo:   repo,
		config: config,
		logger: logger.With().Str("component", "importer").Logger(),
		now:    time.Now,
	}
}

// Run imports the SR release found in opts.RootDir. The returned report is
// non-nil whenever the options were valid, including on failure, and its State
// tells how far the run got.
func (i *Importer) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.RootDir == "" {
		return nil, fmt.Errorf("%w: root folder is required", model.ErrInvalidOption)
	}
	if opts.MaxRows < NoRowLimit {
		return nil, fmt.Errorf("%w: max rows must be %d or greater, got %d", model.ErrInvalidOption, NoRowLimit, opts.MaxRows)
	}

	startedAt := i.now()
	report := &Report{
		RunID:     uuid.New(),
		State:     StateNotStarted,
		RootDir:   filepath.Clean(opts.RootDir),
		DryRun:    opts.DryRun,
		StartedAt: startedAt,
	}
	logger := i.logger.With().Str("run_id", report.RunID.String()).Logger()

	fail := func(err error) (*Report, error) {
		report.State = StateFailed
		report.Duration = i.now().Sub(startedAt)
		logger.Error().Err(err).Str("root_dir", report.RootDir).Msg("import failed")
		return report, err
	}

	logger.Info().
		Str("root_dir", report.RootDir).
		Int("max_rows", opts.MaxRows).
		Bool("dry_run", opts.DryRun).
		Msg("starting import")

	// Check both files up front so a missing description file does not leave
	// the groups imported on their own.
	groupFile, err := sr.Resolve(filepath.Join(report.RootDir, i.config.GroupFile))
	if err != nil {
		return fail(err)
	}
	descriptionFile, err := sr.Resolve(filepath.Join(report.RootDir, i.config.DescriptionFile))
	if err != nil {
		return fail(err)
	}
	report.GroupFile = groupFile
	report.DescriptionFile = descriptionFile

	groups := NewGroupLoader(i.repo, GroupLoaderConfig{
		CategoryType: i.config.CategoryType,
		Charset:      i.config.Charset,
		DryRun:       opts.DryRun,
	}, logger)

	report.Groups, err = groups.Load(ctx, groupFile)
	if err != nil {
		return fail(err)
	}
	report.State = StateGroupsLoaded

	ingredients := NewIngredientLoader(i.repo, IngredientLoaderConfig{
		Charset:             i.config.Charset,
		ReportUnknownGroups: i.config.ReportUnknownGroups,
		DryRun:              opts.DryRun,
		Now:                 func() time.Time { return startedAt },
	}, logger)

	report.Ingredients, err = ingredients.Load(ctx, descriptionFile, report.Groups.Index, opts.MaxRows)
	if err != nil {
		return fail(err)
	}
	report.State = StateIngredientsLoaded
	report.Duration = i.now().Sub(startedAt)

	logger.Info().
		Int("categories_inserted", report.Groups.Inserted).
		Int64("ingredients_inserted", report.Ingredients.Inserted).
		Dur("duration", report.Duration).
		Msg("import completed successfully")

	return report, nil
}
