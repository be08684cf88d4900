package service

import (
	"context"
)

// NoRowLimit disables the row bound of IngredientLoader.Load.
const NoRowLimit = -1

// CategoryIndex maps SR food group codes to the IDs of their categories.
// It is built by a GroupLoader and only read afterwards.
type CategoryIndex map[string]int64

// Lookup returns the category ID for a food group code. Codes that are absent
// or mapped to the zero ID are reported as unknown.
func (idx CategoryIndex) Lookup(code string) (int64, bool) {
	id := idx[code]
	return id, id != 0
}

// GroupResult summarises a food group load.
type GroupResult struct {
	// Index maps every resolved food group code to its category ID.
	Index CategoryIndex `json:"index"`

	// CategoryTypeID is the ID of the category type the groups were filed under.
	CategoryTypeID int64 `json:"category_type_id"`

	// CategoryTypeCreated is true when the category type did not exist yet.
	CategoryTypeCreated bool `json:"category_type_created"`

	// Read is the number of records read from the group file.
	Read int `json:"read"`

	// Existing is the number of records whose category already existed.
	Existing int `json:"existing"`

	// Staged is the number of new categories prepared for insertion.
	Staged int `json:"staged"`

	// Inserted is the number of categories committed to the store.
	Inserted int `json:"inserted"`
}

// IngredientResult summarises a food description load.
type IngredientResult struct {
	// Evaluated is the number of description records processed.
	Evaluated int `json:"evaluated"`

	// SkippedUnknownGroup counts records whose food group code has no category.
	SkippedUnknownGroup int `json:"skipped_unknown_group"`

	// SkippedExisting counts records whose ingredient already exists, in the
	// store or earlier in the same file.
	SkippedExisting int `json:"skipped_existing"`

	// Staged is the number of new ingredients prepared for insertion.
	Staged int `json:"staged"`

	// Inserted is the number of ingredients committed to the store.
	Inserted int64 `json:"inserted"`

	// LimitReached is true when processing stopped at the row bound.
	LimitReached bool `json:"limit_reached"`
}

// GroupLoader loads the SR food group file into categories.
type GroupLoader interface {
	// Load reads the group file at path, creates the missing categories and
	// returns the code to category index.
	Load(ctx context.Context, path string) (*GroupResult, error)
}

// IngredientLoader loads the SR food description file into ingredients.
type IngredientLoader interface {
	// Load reads the description file at path and inserts the ingredients that
	// do not exist yet. At most maxRows records are evaluated unless maxRows is
	// NoRowLimit.
	Load(ctx context.Context, path string, index CategoryIndex, maxRows int) (*IngredientResult, error)
}
