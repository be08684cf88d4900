package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"usda-import/internal/config"
	"usda-import/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pantry"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "pantry",
		SSLMode:         "disable",
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Config:    dbConfig,
	}
}

// createSchema creates the catalog tables the importer writes to.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS category_types (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			category_type_id BIGINT NOT NULL REFERENCES category_types(id),
			name TEXT NOT NULL,
			UNIQUE (name, category_type_id)
		);

		CREATE TABLE IF NOT EXISTS ingredients (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category_id BIGINT NOT NULL REFERENCES categories(id),
			description TEXT NOT NULL DEFAULT '',
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			date_added TIMESTAMPTZ NOT NULL,
			UNIQUE (name, category_id)
		);

		CREATE INDEX IF NOT EXISTS idx_ingredients_category_id ON ingredients(category_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// CleanupDB cleans all data from the catalog tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"ingredients", "categories", "category_types"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// WriteRelease writes FD_GROUP.txt and FOOD_DES.txt into a temporary folder.
func WriteRelease(t *testing.T, groups, foods []string) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string][]string{
		"FD_GROUP.txt": groups,
		"FOOD_DES.txt": foods,
	}
	for name, lines := range files {
		content := strings.Join(lines, "\r\n") + "\r\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// FoodLine formats a 14 field food description record.
func FoodLine(ndbNo, groupCode, name string) string {
	return fmt.Sprintf("~%s~^~%s~^~%s~^~%s~^~~^~~^~Y~^~~^0^~~^6.25^4.27^9.02^3.87",
		ndbNo, groupCode, name, strings.ToUpper(name))
}
