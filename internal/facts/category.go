// Package facts holds the fact domain shared by the client and the
// reference service: the category registry, the fact record, its
// validation rules and the derived dispute flag.
package facts

import (
	"errors"
	"fmt"
)

// Category is one of the fixed topical tags a fact belongs to.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryScience       Category = "science"
	CategoryFinance       Category = "finance"
	CategorySociety       Category = "society"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryHistory       Category = "history"
	CategoryNews          Category = "news"
)

// FilterAll selects every category when listing facts.
const FilterAll = "all"

var ErrUnknownCategory = errors.New("unknown category")

// CategoryInfo is a registry entry: the category and how it is painted.
type CategoryInfo struct {
	Name      Category
	Color     string // CSS hex, e.g. "#3b82f6"
	ColorName string
}

// Categories lists the registry in display order.
var Categories = []CategoryInfo{
	{Name: CategoryTechnology, Color: "#3b82f6", ColorName: "blue"},
	{Name: CategoryScience, Color: "#16a34a", ColorName: "green"},
	{Name: CategoryFinance, Color: "#ef4444", ColorName: "red"},
	{Name: CategorySociety, Color: "#eab308", ColorName: "yellow"},
	{Name: CategoryEntertainment, Color: "#db2777", ColorName: "pink"},
	{Name: CategoryHealth, Color: "#14b8a6", ColorName: "teal"},
	{Name: CategoryHistory, Color: "#f97316", ColorName: "orange"},
	{Name: CategoryNews, Color: "#8b5cf6", ColorName: "purple"},
}

var registry = func() map[Category]CategoryInfo {
	m := make(map[Category]CategoryInfo, len(Categories))
	for _, c := range Categories {
		m[c.Name] = c
	}
	return m
}()

// Valid reports whether c is a recognised category.
func (c Category) Valid() bool {
	_, ok := registry[c]
	return ok
}

// Info returns the registry entry for c. Looking up an unrecognised
// category is a programming error and panics.
func (c Category) Info() CategoryInfo {
	info, ok := registry[c]
	if !ok {
		panic(fmt.Sprintf("facts: category %q is not registered", string(c)))
	}
	return info
}

// Color returns the display colour of c as a CSS hex string.
func (c Category) Color() string { return c.Info().Color }

// ColorName returns the plain colour name of c.
func (c Category) ColorName() string { return c.Info().ColorName }

// ParseCategory converts user input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// ParseFilter accepts FilterAll or a category name and returns the
// normalised filter string.
func ParseFilter(s string) (string, error) {
	if s == FilterAll {
		return FilterAll, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return "", err
	}
	return string(c), nil
}
