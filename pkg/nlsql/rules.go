package nlsql

import (
	"strings"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// rule maps a keyword set to a result. Rule lists are evaluated in order and
// a keyword matches when it occurs anywhere in the normalized text.
type rule[T any] struct {
	keywords []string
	result   T
}

// firstMatch returns the result of the first rule with a matching keyword.
func firstMatch[T any](text string, rules []rule[T]) (T, bool) {
	for _, r := range rules {
		if containsAny(text, r.keywords...) {
			return r.result, true
		}
	}
	var zero T
	return zero, false
}

// allMatches returns the results of every rule with a matching keyword, in
// rule order.
func allMatches[T any](text string, rules []rule[T]) []T {
	var out []T
	for _, r := range rules {
		if containsAny(text, r.keywords...) {
			out = append(out, r.result)
		}
	}
	return out
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// normalize lower-cases and trims a question.
func normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

var actionRules = []rule[Action]{
	{[]string{"count", "how many", "number of"}, ActionCount},
	{[]string{"total", "sum", "sales", "revenue", "sold"}, ActionSum},
	{[]string{"average", "avg"}, ActionAvg},
	{[]string{"maximum", "max", "highest", "most expensive"}, ActionMax},
	{[]string{"minimum", "min", "lowest", "cheapest"}, ActionMin},
}

var tableRules = []rule[string]{
	{[]string{"user", "customer", "people", "person", "client"}, schema.Users},
	{[]string{"product", "item", "goods", "merchandise", "catalog"}, schema.Products},
	{[]string{"order", "purchase", "transaction", "sale"}, schema.Orders},
	{[]string{"order item", "purchased item", "line item"}, schema.OrderItems},
}

// Signal token sets used by the entity resolver.
var (
	priceTokens    = []string{"price", "cost", "expensive", "cheap", "$"}
	purchaseTokens = []string{"bought", "purchased", "ordered", "buy"}
	salesTokens    = []string{"sales", "revenue", "sold", "selling"}
	categoryTokens = []string{"book", "books", "electronics", "kitchen", "furniture", "category"}
	revenueTokens  = []string{"revenue", "total amount", "sales"}
)

var categoryRules = []rule[string]{
	{[]string{"book", "books", "literature", "reading", "novel", "textbook"}, "Books"},
	{[]string{"electronics", "electronic", "tech", "gadget", "device"}, "Electronics"},
	{[]string{"kitchen", "cooking", "cookware", "utensil"}, "Kitchen"},
	{[]string{"furniture", "chair", "table", "desk", "sofa"}, "Furniture"},
	{[]string{"clothing", "clothes", "apparel", "fashion"}, "Clothing"},
	{[]string{"sports", "sport", "fitness", "exercise"}, "Sports"},
	{[]string{"home", "household", "domestic"}, "Home"},
	{[]string{"toy", "toys", "games", "play"}, "Toys"},
}

var statusRules = []rule[string]{
	{[]string{"pending", "waiting", "processing"}, "pending"},
	{[]string{"completed", "finished", "done", "delivered"}, "completed"},
	{[]string{"cancelled", "canceled", "rejected"}, "cancelled"},
}

// Ordering keywords. Best-selling sits last so explicit sort words win.
var (
	recencyTokens     = []string{"recent", "latest", "newest"}
	expensiveTokens   = []string{"expensive", "highest price", "most expensive"}
	cheapTokens       = []string{"cheapest", "lowest price", "least expensive"}
	bestSellingTokens = []string{"best selling", "popular"}
)

var limitRules = []rule[int]{
	{[]string{"top 5", "first 5"}, 5},
	{[]string{"top 10", "first 10"}, 10},
}

const defaultLimit = 10

// bestSellingLimit caps the top-sellers statement.
const bestSellingLimit = 5

var unlimitedTokens = []string{"all", "every"}
