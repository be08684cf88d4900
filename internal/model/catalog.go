package model

import "time"

// DefaultCategoryTypeName is the category type every imported food group is filed under.
const DefaultCategoryTypeName = "Ingredient"

// CategoryType namespaces categories in the host catalogue.
type CategoryType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Category represents one USDA food group.
type Category struct {
	ID             int64  `json:"id" db:"id"`
	CategoryTypeID int64  `json:"categoryTypeId" db:"category_type_id"`
	Name           string `json:"name" db:"name"`
}

// Ingredient represents one named food item available to the host application.
type Ingredient struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	Description string    `json:"description" db:"description"`
	IsPublic    bool      `json:"isPublic" db:"is_public"`
	DateAdded   time.Time `json:"dateAdded" db:"date_added"`
}
