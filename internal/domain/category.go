package domain

import "strings"

// Category is one value from the fixed taxonomy that every imported
// transaction is ultimately classified into.
type Category string

const (
	CategoryHousing        Category = "Housing"
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategorySavings        Category = "Savings"
	CategoryUtilities      Category = "Utilities"
	CategoryIncome         Category = "Income"
	CategoryOther          Category = "Other"
)

// AllCategories lists the taxonomy in presentation order. Prompts that ask
// the model to pick a category enumerate exactly this list.
var AllCategories = []Category{
	CategoryHousing,
	CategoryFood,
	CategoryTransportation,
	CategoryHealthcare,
	CategoryEntertainment,
	CategoryShopping,
	CategorySavings,
	CategoryUtilities,
	CategoryIncome,
	CategoryOther,
}

// ParseCategory maps an arbitrary string onto the taxonomy. Matching is
// case-insensitive after trimming; anything that is not the exact name of a
// taxonomy value returns ok=false.
func ParseCategory(s string) (Category, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCategories {
		if norm == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string {
	return string(c)
}
