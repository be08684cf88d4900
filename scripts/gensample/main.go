package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Generates a small SR release for trying the importer locally.
// FD_GROUP.txt is written plain and FOOD_DES.txt gzip-compressed, both Latin-1
// encoded with CRLF line endings like the USDA distribution.
//
// Expected outcome of a first import:
//   - 4 categories (Dairy and Egg Products, Poultry Products, Beverages, Sweets)
//   - 6 ingredients
//   - 1 unknown group skip (code 9999)
//   - 1 duplicate skip (second "Egg, whole, raw, fresh")
func main() {
	dataDir := "data/sr-sample"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	groups := [][]string{
		{"0100", "Dairy and Egg Products"},
		{"0500", "Poultry Products"},
		{"1400", "Beverages"},
		{"1900", "Sweets"},
	}

	foods := [][]string{
		{"01001", "0100", "Butter, salted"},
		{"01123", "0100", "Egg, whole, raw, fresh"},
		{"01124", "0100", "Egg, whole, raw, fresh"}, // duplicate name in the same group
		{"05004", "0500", "Chicken breast, raw"},
		{"14209", "1400", "Café au lait, ready to drink"},
		{"19335", "1900", "Sugars, granulated"},
		{"19296", "1900", "Honey"},
		{"99001", "9999", "Unassigned food"}, // group code not in FD_GROUP
	}

	groupLines := make([]string, 0, len(groups))
	for _, g := range groups {
		groupLines = append(groupLines, fmt.Sprintf("~%s~^~%s~", g[0], g[1]))
	}

	foodLines := make([]string, 0, len(foods))
	for _, f := range foods {
		foodLines = append(foodLines, fmt.Sprintf("~%s~^~%s~^~%s~^~%s~^~~^~~^~Y~^~~^0^~~^6.25^4.00^9.00^4.00",
			f[0], f[1], f[2], strings.ToUpper(f[2])))
	}

	groupPath := filepath.Join(dataDir, "FD_GROUP.txt")
	if err := writeRelease(groupPath, groupLines, false); err != nil {
		log.Fatalf("Failed to create %s: %v", groupPath, err)
	}
	fmt.Printf("Created %s with %d groups\n", groupPath, len(groupLines))

	foodPath := filepath.Join(dataDir, "FOOD_DES.txt.gz")
	if err := writeRelease(foodPath, foodLines, true); err != nil {
		log.Fatalf("Failed to create %s: %v", foodPath, err)
	}
	fmt.Printf("Created %s with %d foods\n", foodPath, len(foodLines))

	fmt.Println("\nSample SR release created successfully!")
	fmt.Printf("\nImport it with:\n  go run ./cmd/importer %s\n", dataDir)
}

func writeRelease(filePath string, lines []string, compress bool) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	var (
		w          io.Writer = file
		gzipWriter *gzip.Writer
	)
	if compress {
		gzipWriter = gzip.NewWriter(file)
		w = gzipWriter
	}

	encoder := transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
	for _, line := range lines {
		if _, err := fmt.Fprintf(encoder, "%s\r\n", line); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush encoder: %w", err)
	}
	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}

	return nil
}
