package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"usda-import/internal/model"
	"usda-import/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// seedCategories commits one category per group code and returns the index.
func seedCategories(t *testing.T, repo *repository.MemoryRepository, groups map[string]string) CategoryIndex {
	t.Helper()

	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	categoryType := &model.CategoryType{Name: model.DefaultCategoryTypeName}
	require.NoError(t, tx.CreateCategoryType(ctx, categoryType))

	codes := make([]string, 0, len(groups))
	categories := make([]model.Category, 0, len(groups))
	for code, name := range groups {
		codes = append(codes, code)
		categories = append(categories, model.Category{CategoryTypeID: categoryType.ID, Name: name})
	}
	require.NoError(t, tx.CreateCategories(ctx, categories))
	require.NoError(t, tx.Commit(ctx))

	index := make(CategoryIndex, len(codes))
	for i, code := range codes {
		index[code] = categories[i].ID
	}
	return index
}

func ingredientNames(ingredients []model.Ingredient) []string {
	names := make([]string, 0, len(ingredients))
	for _, in := range ingredients {
		names = append(names, in.Name)
	}
	return names
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestIngredientLoader_Load_InsertsIngredients(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	index := seedCategories(t, repo, map[string]string{"0500": "Poultry Products"})
	runAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		foodLine("05004", "0500", "Chicken breast, raw"),
		foodLine("05006", "0500", "Chicken, broilers or fryers, skin only, raw"),
	)

	loader := NewIngredientLoader(repo, IngredientLoaderConfig{Now: fixedClock(runAt)}, zerolog.Nop())
	result, err := loader.Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)

	assert.Equal(t, &IngredientResult{Evaluated: 2, Staged: 2, Inserted: 2}, result)

	ingredients := repo.Ingredients()
	require.Len(t, ingredients, 2)
	first := ingredients[0]
	assert.Equal(t, "Chicken breast, raw", first.Name)
	assert.Equal(t, index["0500"], first.CategoryID)
	assert.True(t, first.IsPublic)
	assert.Equal(t, "", first.Description)
	assert.Equal(t, runAt, first.DateAdded)
	assert.Equal(t, runAt, ingredients[1].DateAdded, "one timestamp per run")
}

func TestIngredientLoader_Load_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	index := seedCategories(t, repo, map[string]string{"0100": "Dairy and Egg Products"})
	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		foodLine("01001", "0100", "Butter, salted"),
		foodLine("01002", "0100", "Butter, whipped, with salt"),
	)
	loader := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop())

	_, err := loader.Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)
	commits := repo.Commits()

	second, err := loader.Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)

	assert.Equal(t, int64(0), second.Inserted)
	assert.Equal(t, 2, second.SkippedExisting)
	assert.Len(t, repo.Ingredients(), 2)
	assert.Equal(t, commits, repo.Commits(), "no store mutation without staged rows")
}

func TestIngredientLoader_Load_SkipsUnknownGroup(t *testing.T) {
	tests := []struct {
		name   string
		report bool
	}{
		{name: "Silent skip", report: false},
		{name: "Reported skip", report: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewMemoryRepository()
			index := seedCategories(t, repo, map[string]string{"0100": "Dairy and Egg Products"})
			path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
				foodLine("01001", "0100", "Butter, salted"),
				foodLine("99001", "9999", "Mystery meat"),
			)

			loader := NewIngredientLoader(repo, IngredientLoaderConfig{ReportUnknownGroups: tt.report}, zerolog.Nop())
			result, err := loader.Load(ctx, path, index, NoRowLimit)
			require.NoError(t, err)

			assert.Equal(t, 2, result.Evaluated)
			assert.Equal(t, 1, result.SkippedUnknownGroup)
			assert.Equal(t, int64(1), result.Inserted)
			assert.Equal(t, []string{"Butter, salted"}, ingredientNames(repo.Ingredients()))
		})
	}
}

func TestIngredientLoader_Load_DuplicatesWithinFile(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	index := seedCategories(t, repo, map[string]string{
		"0100": "Dairy and Egg Products",
		"0500": "Poultry Products",
	})
	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		foodLine("01001", "0100", "Egg, whole, raw"),
		foodLine("01002", "0100", "Egg, whole, raw"),
		foodLine("05001", "0500", "Egg, whole, raw"),
	)

	result, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Inserted, "same name in another category is distinct")
	assert.Equal(t, 1, result.SkippedExisting)
	assert.Len(t, repo.Ingredients(), 2)
}

func TestIngredientLoader_Load_MaxRows(t *testing.T) {
	lines := []string{
		foodLine("01001", "0100", "Butter, salted"),
		foodLine("99001", "9999", "Mystery meat"),
		foodLine("01003", "0100", "Butter oil, anhydrous"),
		foodLine("01004", "0100", "Cheese, blue"),
		"~01005~^~0100~",
	}

	tests := []struct {
		name         string
		maxRows      int
		wantNames    []string
		wantSkipped  int
		wantEval     int
		limitReached bool
		wantErr      error
	}{
		{
			name:         "Zero evaluates nothing",
			maxRows:      0,
			wantNames:    []string{},
			limitReached: true,
		},
		{
			name:         "Bound includes skipped rows",
			maxRows:      2,
			wantNames:    []string{"Butter, salted"},
			wantSkipped:  1,
			wantEval:     2,
			limitReached: true,
		},
		{
			name:         "Bound stops before malformed line",
			maxRows:      4,
			wantNames:    []string{"Butter, salted", "Butter oil, anhydrous", "Cheese, blue"},
			wantSkipped:  1,
			wantEval:     4,
			limitReached: true,
		},
		{
			name:    "Unlimited reaches malformed line",
			maxRows: NoRowLimit,
			wantErr: model.ErrMalformedRecord,
		},
		{
			name:    "Negative bound is rejected",
			maxRows: -2,
			wantErr: model.ErrInvalidOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewMemoryRepository()
			index := seedCategories(t, repo, map[string]string{"0100": "Dairy and Egg Products"})
			path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt", lines...)

			result, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).Load(ctx, path, index, tt.maxRows)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.Ingredients())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEval, result.Evaluated)
			assert.Equal(t, tt.wantSkipped, result.SkippedUnknownGroup)
			assert.Equal(t, tt.limitReached, result.LimitReached)
			assert.Equal(t, tt.wantNames, ingredientNames(repo.Ingredients()))
		})
	}
}

func TestIngredientLoader_Load_BlankLinesNotCounted(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	index := seedCategories(t, repo, map[string]string{"0100": "Dairy and Egg Products"})
	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		"",
		foodLine("01001", "0100", "Butter, salted"),
		"",
		foodLine("01002", "0100", "Butter, whipped, with salt"),
		"\x1a",
	)

	result, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).Load(ctx, path, index, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, int64(2), result.Inserted)
}

func TestIngredientLoader_Load_DryRun(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	index := seedCategories(t, repo, map[string]string{"0100": "Dairy and Egg Products"})
	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		foodLine("01001", "0100", "Butter, salted"),
	)
	commits := repo.Commits()

	result, err := NewIngredientLoader(repo, IngredientLoaderConfig{DryRun: true}, zerolog.Nop()).Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Staged)
	assert.Equal(t, int64(0), result.Inserted)
	assert.Empty(t, repo.Ingredients())
	assert.Equal(t, commits, repo.Commits())
}

func TestIngredientLoader_Load_MissingFile(t *testing.T) {
	repo := new(MockCatalogRepository)

	_, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).
		Load(context.Background(), "/nonexistent/FOOD_DES.txt", CategoryIndex{}, NoRowLimit)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingSourceFile)
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestIngredientLoader_Load_StoreFailures(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset by peer")
	index := CategoryIndex{"0100": 10}

	tests := []struct {
		name  string
		setup func(tx *MockCatalogTx)
	}{
		{
			name: "Existence check fails",
			setup: func(tx *MockCatalogTx) {
				tx.On("IngredientExists", ctx, "Butter, salted", int64(10)).Return(false, storeErr)
			},
		},
		{
			name: "Bulk insert fails",
			setup: func(tx *MockCatalogTx) {
				tx.On("IngredientExists", ctx, "Butter, salted", int64(10)).Return(false, nil)
				tx.On("CreateIngredients", ctx, mock.AnythingOfType("[]model.Ingredient")).Return(int64(0), storeErr)
			},
		},
		{
			name: "Commit fails",
			setup: func(tx *MockCatalogTx) {
				tx.On("IngredientExists", ctx, "Butter, salted", int64(10)).Return(false, nil)
				tx.On("CreateIngredients", ctx, mock.AnythingOfType("[]model.Ingredient")).Return(int64(1), nil)
				tx.On("Commit", ctx).Return(storeErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt", foodLine("01001", "0100", "Butter, salted"))

			repo := new(MockCatalogRepository)
			tx := new(MockCatalogTx)
			repo.On("BeginTx", ctx).Return(tx, nil)
			tt.setup(tx)
			tx.On("Rollback", ctx).Return(nil)

			result, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).Load(ctx, path, index, NoRowLimit)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, storeErr)
			assert.True(t, tx.rolledBack)
			tx.AssertExpectations(t)
		})
	}
}

func TestIngredientLoader_Load_SingleBatch(t *testing.T) {
	ctx := context.Background()
	index := CategoryIndex{"0100": 10}
	path := writeSourceFile(t, t.TempDir(), "FOOD_DES.txt",
		foodLine("01001", "0100", "Butter, salted"),
		foodLine("01002", "0100", "Butter, whipped, with salt"),
		foodLine("01003", "0100", "Butter oil, anhydrous"),
	)

	repo := new(MockCatalogRepository)
	tx := new(MockCatalogTx)
	repo.On("BeginTx", ctx).Return(tx, nil)
	tx.On("IngredientExists", ctx, "Butter, salted", int64(10)).Return(false, nil)
	tx.On("IngredientExists", ctx, "Butter, whipped, with salt", int64(10)).Return(true, nil)
	tx.On("IngredientExists", ctx, "Butter oil, anhydrous", int64(10)).Return(false, nil)
	tx.On("CreateIngredients", ctx, mock.MatchedBy(func(ingredients []model.Ingredient) bool {
		return len(ingredients) == 2 &&
			ingredients[0].Name == "Butter, salted" &&
			ingredients[1].Name == "Butter oil, anhydrous"
	})).Return(int64(2), nil).Once()
	tx.On("Commit", ctx).Return(nil).Once()

	result, err := NewIngredientLoader(repo, IngredientLoaderConfig{}, zerolog.Nop()).Load(ctx, path, index, NoRowLimit)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Inserted)
	assert.Equal(t, 1, result.SkippedExisting)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	tx.AssertExpectations(t)
}
