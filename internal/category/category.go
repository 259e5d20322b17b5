// Package category suggests an expense category from its description.
package category

import "strings"

// Suggest returns a category for the given expense description. Matching is
// case-insensitive: exact match first, then substring match. It returns ""
// when nothing matches, leaving the expense uncategorized.
func Suggest(description string) string {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return ""
	}

	if cat, ok := exactMatch[desc]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(desc, entry.keyword) {
			return entry.category
		}
	}

	return ""
}

var exactMatch = map[string]string{
	// Groceries
	"groceries":    "Groceries",
	"supermarket":  "Groceries",
	"market":       "Groceries",
	"aldi":         "Groceries",
	"lidl":         "Groceries",
	"migros":       "Groceries",
	"coop":         "Groceries",
	"tesco":        "Groceries",
	"walmart":      "Groceries",
	"costco":       "Groceries",
	"trader joe's": "Groceries",

	// Dining
	"lunch":      "Dining",
	"dinner":     "Dining",
	"breakfast":  "Dining",
	"brunch":     "Dining",
	"coffee":     "Dining",
	"restaurant": "Dining",
	"takeout":    "Dining",
	"takeaway":   "Dining",
	"pizza":      "Dining",
	"sushi":      "Dining",

	// Transport
	"gas":     "Transport",
	"petrol":  "Transport",
	"fuel":    "Transport",
	"parking": "Transport",
	"uber":    "Transport",
	"lyft":    "Transport",
	"taxi":    "Transport",
	"train":   "Transport",
	"bus":     "Transport",
	"metro":   "Transport",
	"toll":    "Transport",

	// Housing
	"rent":      "Housing",
	"mortgage":  "Housing",
	"insurance": "Housing",

	// Utilities
	"electricity": "Utilities",
	"electric":    "Utilities",
	"water":       "Utilities",
	"heating":     "Utilities",
	"internet":    "Utilities",
	"wifi":        "Utilities",
	"phone":       "Utilities",

	// Entertainment
	"netflix":  "Entertainment",
	"spotify":  "Entertainment",
	"cinema":   "Entertainment",
	"movies":   "Entertainment",
	"concert":  "Entertainment",
	"theater":  "Entertainment",
	"games":    "Entertainment",
	"bowling":  "Entertainment",
	"minigolf": "Entertainment",

	// Health
	"pharmacy": "Health",
	"doctor":   "Health",
	"dentist":  "Health",
	"gym":      "Health",
	"medicine": "Health",

	// Travel
	"flight": "Travel",
	"hotel":  "Travel",
	"airbnb": "Travel",
	"hostel": "Travel",
}

type substringEntry struct {
	keyword  string
	category string
}

// Ordered longer and more specific first so "gas station" beats "station".
var substringMatches = []substringEntry{
	{"grocery", "Groceries"},
	{"supermarket", "Groceries"},
	{"whole foods", "Groceries"},
	{"farmers market", "Groceries"},

	{"restaurant", "Dining"},
	{"coffee", "Dining"},
	{"cafe", "Dining"},
	{"café", "Dining"},
	{"bakery", "Dining"},
	{"burger", "Dining"},
	{"kebab", "Dining"},
	{"food delivery", "Dining"},
	{"doordash", "Dining"},
	{"deliveroo", "Dining"},

	{"gas station", "Transport"},
	{"car wash", "Transport"},
	{"car repair", "Transport"},
	{"oil change", "Transport"},
	{"ticket", "Transport"},

	{"electric bill", "Utilities"},
	{"water bill", "Utilities"},
	{"phone bill", "Utilities"},
	{"subscription", "Entertainment"},

	{"hospital", "Health"},
	{"clinic", "Health"},
	{"vitamin", "Health"},

	{"flight", "Travel"},
	{"hotel", "Travel"},
	{"vacation", "Travel"},
	{"holiday", "Travel"},

	{"furniture", "Shopping"},
	{"clothes", "Shopping"},
	{"clothing", "Shopping"},
	{"shoes", "Shopping"},
	{"amazon", "Shopping"},
	{"ikea", "Shopping"},
}
