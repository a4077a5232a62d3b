package entity

import (
	"fmt"
	"strings"
)

// Category is a lowercase news category token such as "technology".
type Category string

// CategoryAll is the filter value that matches every category.
const CategoryAll Category = "all"

// Categories understood by the upstream top-headlines API.
const (
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
)

// knownCategories is the closed set accepted by ParseCategory.
var knownCategories = map[Category]struct{}{
	CategoryBusiness:      {},
	CategoryEntertainment: {},
	CategoryGeneral:       {},
	CategoryHealth:        {},
	CategoryScience:       {},
	CategorySports:        {},
	CategoryTechnology:    {},
}

// DefaultCategories returns the categories fetched when none are configured.
func DefaultCategories() []Category {
	return []Category{CategoryTechnology, CategoryHealth, CategorySports, CategoryEntertainment}
}

// KnownCategories returns every category accepted by ParseCategory, sorted by name.
func KnownCategories() []Category {
	return []Category{
		CategoryBusiness,
		CategoryEntertainment,
		CategoryGeneral,
		CategoryHealth,
		CategoryScience,
		CategorySports,
		CategoryTechnology,
	}
}

// ParseCategory normalizes s and checks it against the known set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return "", &ValidationError{Field: "category", Message: "category is required"}
	}
	if _, ok := knownCategories[c]; !ok {
		return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", s)}
	}
	return c, nil
}

// ParseCategories parses a list of tokens, rejecting duplicates.
func ParseCategories(values []string) ([]Category, error) {
	seen := make(map[Category]struct{}, len(values))
	out := make([]Category, 0, len(values))
	for _, v := range values {
		c, err := ParseCategory(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("duplicate category %q", c)}
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Matches reports whether c satisfies the filter value.
// An empty filter or CategoryAll matches everything.
func (c Category) Matches(filter Category) bool {
	return filter == "" || filter == CategoryAll || c == filter
}

func (c Category) String() string { return string(c) }
