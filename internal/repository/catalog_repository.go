package repository

import (
	"context"
	"errors"
	"fmt"

	"usda-import/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// catalogRepository implements the CatalogRepository interface using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalogue repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *catalogRepository) BeginTx(ctx context.Context) (CatalogTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &catalogTx{tx: tx, logger: r.logger}, nil
}

// catalogTx implements CatalogTx on top of a pgx transaction.
type catalogTx struct {
	tx     pgx.Tx
	logger zerolog.Logger
}

// GetCategoryTypeByName retrieves a category type by name.
func (t *catalogTx) GetCategoryTypeByName(ctx context.Context, name string) (*model.CategoryType, error) {
	query := `
		SELECT id, name
		FROM category_types
		WHERE name = $1
		ORDER BY id
		LIMIT 1
	`

	var ct model.CategoryType
	err := t.tx.QueryRow(ctx, query, name).Scan(&ct.ID, &ct.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			t.logger.Debug().Str("category_type", name).Msg("category type not found")
			return nil, nil
		}
		t.logger.Error().Err(err).Str("category_type", name).Msg("failed to query category type")
		return nil, fmt.Errorf("failed to query category type: %w", err)
	}

	return &ct, nil
}

// CreateCategoryType inserts a category type and sets its generated ID.
func (t *catalogTx) CreateCategoryType(ctx context.Context, categoryType *model.CategoryType) error {
	query := `
		INSERT INTO category_types (name)
		VALUES ($1)
		RETURNING id
	`

	if err := t.tx.QueryRow(ctx, query, categoryType.Name).Scan(&categoryType.ID); err != nil {
		t.logger.Error().Err(err).Str("category_type", categoryType.Name).Msg("failed to create category type")
		return fmt.Errorf("failed to create category type: %w", err)
	}

	t.logger.Debug().
		Int64("category_type_id", categoryType.ID).
		Str("category_type", categoryType.Name).
		Msg("category type created successfully")

	return nil
}

// GetCategoryByName retrieves a category by name within a category type.
func (t *catalogTx) GetCategoryByName(ctx context.Context, name string, categoryTypeID int64) (*model.Category, error) {
	query := `
		SELECT id, category_type_id, name
		FROM categories
		WHERE name = $1 AND category_type_id = $2
		ORDER BY id
		LIMIT 1
	`

	var c model.Category
	err := t.tx.QueryRow(ctx, query, name, categoryTypeID).Scan(&c.ID, &c.CategoryTypeID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		t.logger.Error().Err(err).Str("category", name).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &c, nil
}

// CreateCategories inserts categories in one batch and sets their generated IDs.
func (t *catalogTx) CreateCategories(ctx context.Context, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}

	query := `
		INSERT INTO categories (category_type_id, name)
		VALUES ($1, $2)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(query, c.CategoryTypeID, c.Name)
	}

	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range categories {
		if err := results.QueryRow().Scan(&categories[i].ID); err != nil {
			t.logger.Error().
				Err(err).
				Str("category", categories[i].Name).
				Msg("failed to create category")
			return fmt.Errorf("failed to create category %q: %w", categories[i].Name, err)
		}
	}

	if err := results.Close(); err != nil {
		t.logger.Error().Err(err).Msg("failed to close category batch")
		return fmt.Errorf("failed to create categories: %w", err)
	}

	t.logger.Debug().
		Int("count", len(categories)).
		Msg("categories created successfully")

	return nil
}

// IngredientExists reports whether an ingredient exists in a category.
func (t *catalogTx) IngredientExists(ctx context.Context, name string, categoryID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM ingredients
			WHERE name = $1 AND category_id = $2
		)
	`

	var exists bool
	if err := t.tx.QueryRow(ctx, query, name, categoryID).Scan(&exists); err != nil {
		t.logger.Error().
			Err(err).
			Str("ingredient", name).
			Int64("category_id", categoryID).
			Msg("failed to check ingredient existence")
		return false, fmt.Errorf("failed to check ingredient existence: %w", err)
	}

	return exists, nil
}

// CreateIngredients copies ingredients into the ingredients table.
func (t *catalogTx) CreateIngredients(ctx context.Context, ingredients []model.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}

	columns := []string{"name", "category_id", "description", "is_public", "date_added"}
	source := pgx.CopyFromSlice(len(ingredients), func(i int) ([]any, error) {
		in := ingredients[i]
		return []any{in.Name, in.CategoryID, in.Description, in.IsPublic, in.DateAdded}, nil
	})

	count, err := t.tx.CopyFrom(ctx, pgx.Identifier{"ingredients"}, columns, source)
	if err != nil {
		t.logger.Error().
			Err(err).
			Int("count", len(ingredients)).
			Msg("failed to create ingredients")
		return 0, fmt.Errorf("failed to create ingredients: %w", err)
	}

	t.logger.Debug().
		Int64("count", count).
		Msg("ingredients created successfully")

	return count, nil
}

// Commit commits the transaction.
func (t *catalogTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		t.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. Rolling back a closed transaction is not an error.
func (t *catalogTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		t.logger.Error().Err(err).Msg("failed to rollback transaction")
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
