package domain

import "strings"

// keywordRule maps a merchant keyword to a category. Rules are scanned in
// order; the first keyword contained in the merchant signature wins.
type keywordRule struct {
	Keyword  string
	Category Category
}

// keywordRules is the deterministic fallback table used when the
// categorization service is unavailable. Keywords are lowercase substrings.
var keywordRules = []keywordRule{
	{"uber", CategoryTransportation},
	{"lyft", CategoryTransportation},
	{"taxi", CategoryTransportation},
	{"shell", CategoryTransportation},
	{"chevron", CategoryTransportation},
	{"exxon", CategoryTransportation},
	{"parking", CategoryTransportation},
	{"transit", CategoryTransportation},
	{"grocery", CategoryFood},
	{"supermarket", CategoryFood},
	{"whole foods", CategoryFood},
	{"trader joe", CategoryFood},
	{"safeway", CategoryFood},
	{"restaurant", CategoryFood},
	{"coffee", CategoryFood},
	{"starbucks", CategoryFood},
	{"mcdonald", CategoryFood},
	{"doordash", CategoryFood},
	{"grubhub", CategoryFood},
	{"rent", CategoryHousing},
	{"mortgage", CategoryHousing},
	{"landlord", CategoryHousing},
	{"pharmacy", CategoryHealthcare},
	{"cvs", CategoryHealthcare},
	{"walgreens", CategoryHealthcare},
	{"dental", CategoryHealthcare},
	{"medical", CategoryHealthcare},
	{"clinic", CategoryHealthcare},
	{"netflix", CategoryEntertainment},
	{"spotify", CategoryEntertainment},
	{"hulu", CategoryEntertainment},
	{"cinema", CategoryEntertainment},
	{"theatre", CategoryEntertainment},
	{"steam", CategoryEntertainment},
	{"amazon", CategoryShopping},
	{"walmart", CategoryShopping},
	{"target", CategoryShopping},
	{"ebay", CategoryShopping},
	{"electric", CategoryUtilities},
	{"water bill", CategoryUtilities},
	{"internet", CategoryUtilities},
	{"comcast", CategoryUtilities},
	{"verizon", CategoryUtilities},
	{"t-mobile", CategoryUtilities},
	{"utility", CategoryUtilities},
	{"payroll", CategoryIncome},
	{"paycheck", CategoryIncome},
	{"salary", CategoryIncome},
	{"direct deposit", CategoryIncome},
	{"vanguard", CategorySavings},
	{"fidelity", CategorySavings},
	{"savings transfer", CategorySavings},
}

// KeywordCategory matches a merchant signature against the fallback table.
// Returns ok=false when no keyword matches.
func KeywordCategory(signature string) (Category, bool) {
	s := strings.ToLower(signature)
	for _, r := range keywordRules {
		if strings.Contains(s, r.Keyword) {
			return r.Category, true
		}
	}
	return "", false
}
