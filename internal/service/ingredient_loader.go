package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"usda-import/internal/model"
	"usda-import/internal/repository"
	"usda-import/internal/sr"

	"github.com/rs/zerolog"
)

// IngredientLoaderConfig holds configuration for the ingredient loader.
type IngredientLoaderConfig struct {
	// Charset is the encoding of the description file.
	Charset sr.Charset

	// ReportUnknownGroups logs skipped unknown food group codes at warn level
	// instead of debug.
	ReportUnknownGroups bool

	// DryRun evaluates every record but inserts nothing.
	DryRun bool

	// Now returns the timestamp stamped on inserted ingredients.
	// Default: time.Now
	Now func() time.Time
}

// ingredientKey identifies an ingredient within its category.
type ingredientKey struct {
	name       string
	categoryID int64
}

// ingredientLoader implements IngredientLoader.
type ingredientLoader struct {
	repo   repository.CatalogRepository
	config IngredientLoaderConfig
	logger zerolog.Logger
}

// NewIngredientLoader creates a new ingredient loader.
func NewIngredientLoader(repo repository.CatalogRepository, config IngredientLoaderConfig, logger zerolog.Logger) IngredientLoader {
	if config.Now == nil {
		config.Now = time.Now
	}

	return &ingredientLoader{
		repo:   repo,
		config: config,
		logger: logger.With().Str("component", "ingredient-loader").Logger(),
	}
}

// Load evaluates description records in file order, skipping unknown groups and
// ingredients that already exist, and inserts the rest in one batch.
func (l *ingredientLoader) Load(ctx context.Context, path string, index CategoryIndex, maxRows int) (*IngredientResult, error) {
	if maxRows < NoRowLimit {
		return nil, fmt.Errorf("%w: max rows must be %d or greater, got %d", model.ErrInvalidOption, NoRowLimit, maxRows)
	}

	l.logger.Info().Str("file", path).Int("max_rows", maxRows).Msg("loading food descriptions")

	reader, err := sr.Open(path, sr.FoodOptions(l.config.Charset))
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open food description file")
		return nil, err
	}
	defer reader.Close()

	tx, err := l.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load food descriptions: %w", err)
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

	dateAdded := l.config.Now()
	result := &IngredientResult{}
	var staged []model.Ingredient
	seen := make(map[ingredientKey]struct{})

	for {
		if maxRows != NoRowLimit && result.Evaluated >= maxRows {
			result.LimitReached = true
			break
		}

		if result.Evaluated%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				l.logger.Warn().Str("file", reader.Path()).Msg("food description loading cancelled")
				return nil, err
			}
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.logger.Error().Err(err).Str("file", reader.Path()).Msg("failed to read food description file")
			return nil, err
		}

		result.Evaluated++
		food := sr.ParseFoodDescription(rec)

		categoryID, ok := index.Lookup(food.GroupCode)
		if !ok {
			result.SkippedUnknownGroup++
			l.unknownGroupEvent().
				Str("ndb_no", food.NDBNo).
				Str("group_code", food.GroupCode).
				Int("line", food.Line).
				Msg("skipping food with unknown group")
			continue
		}

		key := ingredientKey{name: food.LongDescription, categoryID: categoryID}
		if _, dup := seen[key]; dup {
			result.SkippedExisting++
			continue
		}

		exists, err := tx.IngredientExists(ctx, food.LongDescription, categoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load food descriptions: %w", err)
		}
		if exists {
			result.SkippedExisting++
			continue
		}

		l.logger.Debug().
			Str("ndb_no", food.NDBNo).
			Str("ingredient", food.LongDescription).
			Str("common_name", food.CommonName).
			Int64("category_id", categoryID).
			Msg("staging ingredient")

		seen[key] = struct{}{}
		staged = append(staged, model.Ingredient{
			Name:        food.LongDescription,
			CategoryID:  categoryID,
			Description: "",
			IsPublic:    true,
			DateAdded:   dateAdded,
		})
	}

	result.Staged = len(staged)

	switch {
	case l.config.DryRun:
		// Category IDs of a dry run may belong to rows that were rolled back.
		l.logger.Info().Int("staged", result.Staged).Msg("dry run, skipping ingredient insert")
	case len(staged) == 0:
		l.logger.Debug().Msg("no new ingredients, nothing to commit")
	default:
		inserted, err := tx.CreateIngredients(ctx, staged)
		if err != nil {
			l.logger.Error().Err(err).Int("count", len(staged)).Msg("failed to create ingredients")
			return nil, fmt.Errorf("failed to load food descriptions: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to load food descriptions: %w", err)
		}
		committed = true
		result.Inserted = inserted
	}

	l.logger.Info().
		Str("file", reader.Path()).
		Int("evaluated", result.Evaluated).
		Int("skipped_unknown_group", result.SkippedUnknownGroup).
		Int("skipped_existing", result.SkippedExisting).
		Int64("inserted", result.Inserted).
		Bool("limit_reached", result.LimitReached).
		Msg("food descriptions loaded successfully")

	return result, nil
}

func (l *ingredientLoader) unknownGroupEvent() *zerolog.Event {
	if l.config.ReportUnknownGroups {
		return l.logger.Warn()
	}
	return l.logger.Debug()
}
