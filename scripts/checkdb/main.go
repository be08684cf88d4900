package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"usda-import/internal/config"
	"usda-import/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// Checks that the configured database is reachable and prints how many catalog
// rows it holds. Reads the same environment as the importer.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	err = pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	fmt.Println("\nCatalog tables:")
	for _, table := range []string{"category_types", "categories", "ingredients"} {
		var count int64
		query := "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
		if err := pool.QueryRow(ctx, query).Scan(&count); err != nil {
			fmt.Printf("  - %-15s unavailable (%v)\n", table, err)
			continue
		}
		fmt.Printf("  - %-15s %d rows\n", table, count)
	}

	var categoryTypeID int64
	err = pool.QueryRow(ctx, "SELECT id FROM category_types WHERE name = $1", cfg.Import.CategoryType).Scan(&categoryTypeID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		fmt.Printf("\nCategory type %q not created yet\n", cfg.Import.CategoryType)
	case err != nil:
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	default:
		fmt.Printf("\nCategory type %q has id %d\n", cfg.Import.CategoryType, categoryTypeID)
	}
}
