package repository

import (
	"context"

	"usda-import/internal/model"
)

// CatalogRepository opens units of work against the destination catalogue.
type CatalogRepository interface {
	// BeginTx starts a new unit of work. Nothing it writes is visible to other
	// units of work until Commit.
	BeginTx(ctx context.Context) (CatalogTx, error)
}

// CatalogTx defines the catalogue operations available inside a unit of work.
type CatalogTx interface {
	// GetCategoryTypeByName retrieves a category type by name.
	// Returns nil, nil when no such type exists.
	GetCategoryTypeByName(ctx context.Context, name string) (*model.CategoryType, error)

	// CreateCategoryType inserts a category type and sets its generated ID.
	CreateCategoryType(ctx context.Context, categoryType *model.CategoryType) error

	// GetCategoryByName retrieves a category by name within a category type.
	// Returns nil, nil when no such category exists.
	GetCategoryByName(ctx context.Context, name string, categoryTypeID int64) (*model.Category, error)

	// CreateCategories inserts categories in one batch and sets the generated ID
	// on each element of the slice.
	CreateCategories(ctx context.Context, categories []model.Category) error

	// IngredientExists reports whether an ingredient with the given name exists
	// in the given category.
	IngredientExists(ctx context.Context, name string, categoryID int64) (bool, error)

	// CreateIngredients inserts ingredients in one batch and returns the number
	// of rows written.
	CreateIngredients(ctx context.Context, ingredients []model.Ingredient) (int64, error)

	// Commit makes the unit of work permanent.
	Commit(ctx context.Context) error

	// Rollback discards the unit of work. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}
