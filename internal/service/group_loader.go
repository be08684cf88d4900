package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"usda-import/internal/model"
	"usda-import/internal/repository"
	"usda-import/internal/sr"

	"github.com/rs/zerolog"
)

// cancelCheckInterval is how many records are read between context checks.
const cancelCheckInterval = 1000

// GroupLoaderConfig holds configuration for the group loader.
type GroupLoaderConfig struct {
	// CategoryType is the name of the category type groups are filed under.
	// Default: model.DefaultCategoryTypeName
	CategoryType string

	// Charset is the encoding of the group file.
	Charset sr.Charset

	// DryRun rolls the phase back instead of committing it.
	DryRun bool
}

// groupLoader implements GroupLoader.
type groupLoader struct {
	repo   repository.CatalogRepository
	config GroupLoaderConfig
	logger zerolog.Logger
}

// NewGroupLoader creates a new group loader.
func NewGroupLoader(repo repository.CatalogRepository, config GroupLoaderConfig, logger zerolog.Logger) GroupLoader {
	if config.CategoryType == "" {
		config.CategoryType = model.DefaultCategoryTypeName
	}

	return &groupLoader{
		repo:   repo,
		config: config,
		logger: logger.With().Str("component", "group-loader").Logger(),
	}
}

// Load reads the group file, inserts the categories that do not exist yet in one
// batch and returns the code to category index. Category IDs are captured when
// the batch is inserted, so the file is read once.
func (l *groupLoader) Load(ctx context.Context, path string) (result *GroupResult, err error) {
	l.logger.Info().Str("file", path).Msg("loading food groups")

	reader, err := sr.Open(path, sr.GroupOptions(l.config.Charset))
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open food group file")
		return nil, err
	}
	defer reader.Close()

	tx, err := l.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load food groups: %w", err)
	}

	// Ensure transaction is rolled back unless it was committed
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				l.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	categoryType, created, err := l.ensureCategoryType(ctx, tx)
	if err != nil {
		return nil, err
	}

	result = &GroupResult{
		Index:               make(CategoryIndex),
		CategoryTypeID:      categoryType.ID,
		CategoryTypeCreated: created,
	}

	var staged []model.Category
	stagedByName := make(map[string]int)
	stagedCodes := make(map[string]int)

	for {
		if result.Read%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				l.logger.Warn().Str("file", reader.Path()).Msg("food group loading cancelled")
				return nil, err
			}
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.logger.Error().Err(err).Str("file", reader.Path()).Msg("failed to read food group file")
			return nil, err
		}

		group := sr.ParseFoodGroup(rec)
		result.Read++

		if i, ok := stagedByName[group.Description]; ok {
			stagedCodes[group.Code] = i
			continue
		}

		existing, err := tx.GetCategoryByName(ctx, group.Description, categoryType.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load food groups: %w", err)
		}
		if existing != nil {
			l.logger.Debug().
				Str("group_code", group.Code).
				Str("category", group.Description).
				Int64("category_id", existing.ID).
				Msg("category already exists")
			result.Index[group.Code] = existing.ID
			result.Existing++
			continue
		}

		stagedByName[group.Description] = len(staged)
		stagedCodes[group.Code] = len(staged)
		staged = append(staged, model.Category{
			CategoryTypeID: categoryType.ID,
			Name:           group.Description,
		})
	}

	if len(staged) > 0 {
		if err := tx.CreateCategories(ctx, staged); err != nil {
			l.logger.Error().Err(err).Int("count", len(staged)).Msg("failed to create categories")
			return nil, fmt.Errorf("failed to load food groups: %w", err)
		}
	}

	for code, i := range stagedCodes {
		if staged[i].ID != 0 {
			result.Index[code] = staged[i].ID
		}
	}
	result.Staged = len(staged)

	switch {
	case l.config.DryRun:
		l.logger.Info().Int("staged", result.Staged).Msg("dry run, rolling back food groups")
	case len(staged) == 0 && !created:
		l.logger.Debug().Msg("no new categories, nothing to commit")
	default:
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to load food groups: %w", err)
		}
		committed = true
		result.Inserted = len(staged)
	}

	l.logger.Info().
		Str("file", reader.Path()).
		Int("read", result.Read).
		Int("existing", result.Existing).
		Int("inserted", result.Inserted).
		Int("mapped_codes", len(result.Index)).
		Msg("food groups loaded successfully")

	return result, nil
}

// ensureCategoryType returns the configured category type, creating it when absent.
func (l *groupLoader) ensureCategoryType(ctx context.Context, tx repository.CatalogTx) (*model.CategoryType, bool, error) {
	categoryType, err := tx.GetCategoryTypeByName(ctx, l.config.CategoryType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load food groups: %w", err)
	}
	if categoryType != nil {
		return categoryType, false, nil
	}

	categoryType = &model.CategoryType{Name: l.config.CategoryType}
	if err := tx.CreateCategoryType(ctx, categoryType); err != nil {
		return nil, false, fmt.Errorf("failed to load food groups: %w", err)
	}

	l.logger.Info().
		Str("category_type", categoryType.Name).
		Int64("category_type_id", categoryType.ID).
		Msg("category type created")

	return categoryType, true, nil
}
