package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"usda-import/internal/model"
)

var (
	// ErrDuplicateKey is returned by the in-memory repository when a commit would
	// violate one of the catalogue's uniqueness constraints.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrTxDone is returned when a finished unit of work is used.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
)

type ingredientKey struct {
	name       string
	categoryID int64
}

type categoryKey struct {
	name           string
	categoryTypeID int64
}

// MemoryRepository is an in-memory CatalogRepository. Writes of a unit of work are
// staged and applied on Commit; the same uniqueness constraints as the PostgreSQL
// schema are enforced at that point. IDs are allocated like a sequence and are not
// reused after a rollback.
type MemoryRepository struct {
	mu            sync.Mutex
	nextID        int64
	categoryTypes []model.CategoryType
	categories    []model.Category
	ingredients   []model.Ingredient
	commits       int
}

// NewMemoryRepository creates an empty in-memory catalogue.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// BeginTx starts a new unit of work.
func (r *MemoryRepository) BeginTx(ctx context.Context) (CatalogTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &memoryTx{repo: r}, nil
}

// CategoryTypes returns a copy of the committed category types.
func (r *MemoryRepository) CategoryTypes() []model.CategoryType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.CategoryType(nil), r.categoryTypes...)
}

// Categories returns a copy of the committed categories.
func (r *MemoryRepository) Categories() []model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Category(nil), r.categories...)
}

// Ingredients returns a copy of the committed ingredients.
func (r *MemoryRepository) Ingredients() []model.Ingredient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Ingredient(nil), r.ingredients...)
}

// Commits returns the number of successful commits.
func (r *MemoryRepository) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

func (r *MemoryRepository) allocateID() int64 {
	r.nextID++
	return r.nextID
}

// memoryTx is a unit of work on a MemoryRepository.
type memoryTx struct {
	repo          *MemoryRepository
	categoryTypes []model.CategoryType
	categories    []model.Category
	ingredients   []model.Ingredient
	done          bool
}

func (t *memoryTx) GetCategoryTypeByName(ctx context.Context, name string) (*model.CategoryType, error) {
	if t.done {
		return nil, ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, ct := range concat(t.repo.categoryTypes, t.categoryTypes) {
		if ct.Name == name {
			found := ct
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateCategoryType(ctx context.Context, categoryType *model.CategoryType) error {
	if t.done {
		return ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	categoryType.ID = t.repo.allocateID()
	t.categoryTypes = append(t.categoryTypes, *categoryType)
	return nil
}

func (t *memoryTx) GetCategoryByName(ctx context.Context, name string, categoryTypeID int64) (*model.Category, error) {
	if t.done {
		return nil, ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, c := range concat(t.repo.categories, t.categories) {
		if c.Name == name && c.CategoryTypeID == categoryTypeID {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateCategories(ctx context.Context, categories []model.Category) error {
	if t.done {
		return ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for i := range categories {
		categories[i].ID = t.repo.allocateID()
		t.categories = append(t.categories, categories[i])
	}
	return nil
}

func (t *memoryTx) IngredientExists(ctx context.Context, name string, categoryID int64) (bool, error) {
	if t.done {
		return false, ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, in := range concat(t.repo.ingredients, t.ingredients) {
		if in.Name == name && in.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) CreateIngredients(ctx context.Context, ingredients []model.Ingredient) (int64, error) {
	if t.done {
		return 0, ErrTxDone
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, in := range ingredients {
		in.ID = t.repo.allocateID()
		t.ingredients = append(t.ingredients, in)
	}
	return int64(len(ingredients)), nil
}

// Commit applies the staged writes, or none of them if a uniqueness constraint
// would be violated.
func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	typeNames := make(map[string]struct{}, len(t.repo.categoryTypes))
	for _, ct := range concat(t.repo.categoryTypes, t.categoryTypes) {
		if _, dup := typeNames[ct.Name]; dup {
			return fmt.Errorf("failed to commit transaction: category type %q: %w", ct.Name, ErrDuplicateKey)
		}
		typeNames[ct.Name] = struct{}{}
	}

	categoryKeys := make(map[categoryKey]struct{}, len(t.repo.categories))
	for _, c := range concat(t.repo.categories, t.categories) {
		key := categoryKey{name: c.Name, categoryTypeID: c.CategoryTypeID}
		if _, dup := categoryKeys[key]; dup {
			return fmt.Errorf("failed to commit transaction: category %q: %w", c.Name, ErrDuplicateKey)
		}
		categoryKeys[key] = struct{}{}
	}

	ingredientKeys := make(map[ingredientKey]struct{}, len(t.repo.ingredients))
	for _, in := range concat(t.repo.ingredients, t.ingredients) {
		key := ingredientKey{name: in.Name, categoryID: in.CategoryID}
		if _, dup := ingredientKeys[key]; dup {
			return fmt.Errorf("failed to commit transaction: ingredient %q: %w", in.Name, ErrDuplicateKey)
		}
		ingredientKeys[key] = struct{}{}
	}

	t.repo.categoryTypes = concat(t.repo.categoryTypes, t.categoryTypes)
	t.repo.categories = concat(t.repo.categories, t.categories)
	t.repo.ingredients = concat(t.repo.ingredients, t.ingredients)
	t.repo.commits++
	return nil
}

// Rollback discards the staged writes.
func (t *memoryTx) Rollback(ctx context.Context) error {
	t.done = true
	t.categoryTypes = nil
	t.categories = nil
	t.ingredients = nil
	return nil
}

func concat[T any](committed, staged []T) []T {
	out := make([]T, 0, len(committed)+len(staged))
	out = append(out, committed...)
	return append(out, staged...)
}
