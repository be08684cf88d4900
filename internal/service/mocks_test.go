package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"usda-import/internal/model"
	"usda-import/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) BeginTx(ctx context.Context) (repository.CatalogTx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(repository.CatalogTx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCatalogTx is a mock implementation of CatalogTx.
type MockCatalogTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockCatalogTx) GetCategoryTypeByName(ctx context.Context, name string) (*model.CategoryType, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CategoryType), args.Error(1)
}

func (m *MockCatalogTx) CreateCategoryType(ctx context.Context, categoryType *model.CategoryType) error {
	args := m.Called(ctx, categoryType)
	return args.Error(0)
}

func (m *MockCatalogTx) GetCategoryByName(ctx context.Context, name string, categoryTypeID int64) (*model.Category, error) {
	args := m.Called(ctx, name, categoryTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCatalogTx) CreateCategories(ctx context.Context, categories []model.Category) error {
	args := m.Called(ctx, categories)
	return args.Error(0)
}

func (m *MockCatalogTx) IngredientExists(ctx context.Context, name string, categoryID int64) (bool, error) {
	args := m.Called(ctx, name, categoryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogTx) CreateIngredients(ctx context.Context, ingredients []model.Ingredient) (int64, error) {
	args := m.Called(ctx, ingredients)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockCatalogTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// groupLine formats a food group record.
func groupLine(code, description string) string {
	return fmt.Sprintf("~%s~^~%s~", code, description)
}

// foodLine formats a 14 field food description record.
func foodLine(ndbNo, groupCode, name string) string {
	fields := []string{
		"~" + ndbNo + "~",
		"~" + groupCode + "~",
		"~" + name + "~",
		"~" + strings.ToUpper(name) + "~",
		"~~", "~~", "~Y~", "~~", "0", "~~",
		"6.25", "4.27", "9.02", "3.87",
	}
	return strings.Join(fields, "^")
}

// writeSourceFile writes lines to name inside dir using CRLF line endings.
func writeSourceFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\r\n") + "\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
