// Package domain defines the core types and interfaces for the hotpot timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category groups ingredients in the catalog.
type Category string

const (
	CategoryMeat      Category = "meat"
	CategorySeafood   Category = "seafood"
	CategoryVegetable Category = "vegetable"
	CategoryNoodle    Category = "noodle"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMeat,
	CategorySeafood,
	CategoryVegetable,
	CategoryNoodle,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// categoryAliases maps the labels found in older exports.
var categoryAliases = map[string]Category{
	"肉类":      CategoryMeat,
	"海鲜":      CategorySeafood,
	"素菜":      CategoryVegetable,
	"主食":      CategoryNoodle,
	"其他":      CategoryOther,
	"veg":     CategoryVegetable,
	"noodles": CategoryNoodle,
	"staple":  CategoryNoodle,
}

// ParseCategory converts a name to a Category. Empty input maps to
// CategoryOther.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CategoryOther, nil
	}
	if c, ok := categoryAliases[name]; ok {
		return c, nil
	}
	c := Category(name)
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", name)}
	}
	return c, nil
}

// DefaultEmoji is used for ingredients imported without an icon.
const DefaultEmoji = "🍲"

// Ingredient is a named, timed food item owned by the catalog.
// The core only reads it.
type Ingredient struct {
	ID         string   `json:"id" yaml:"id" cbor:"id"`
	Name       string   `json:"name" yaml:"name" cbor:"name"`
	Emoji      string   `json:"emoji" yaml:"emoji" cbor:"emoji"`
	Seconds    int      `json:"seconds" yaml:"seconds" cbor:"seconds"`
	Category   Category `json:"category" yaml:"category" cbor:"category"`
	UsageCount int      `json:"usageCount" yaml:"usageCount" cbor:"usageCount"`
	Pinned     bool     `json:"pinned" yaml:"pinned" cbor:"pinned"`
}

// Validate checks the fields the catalog boundary requires.
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if i.Seconds <= 0 {
		return &ValidationError{Field: "seconds", Reason: fmt.Sprintf("must be positive, got %d", i.Seconds)}
	}
	if i.UsageCount < 0 {
		return &ValidationError{Field: "usageCount", Reason: "must not be negative"}
	}
	if i.Category != "" && !i.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", i.Category)}
	}
	return nil
}

// Normalize fills optional fields with their defaults.
func (i Ingredient) Normalize() Ingredient {
	i.Name = strings.TrimSpace(i.Name)
	if i.Emoji == "" {
		i.Emoji = DefaultEmoji
	}
	if i.Category == "" {
		i.Category = CategoryOther
	}
	return i
}

// Label returns "emoji name" for display.
func (i Ingredient) Label() string {
	return i.Emoji + " " + i.Name
}

// Duration is the cooking time.
func (i Ingredient) Duration() time.Duration {
	return time.Duration(i.Seconds) * time.Second
}
