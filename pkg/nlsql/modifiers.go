package nlsql

import (
	"strings"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

type groupRule struct {
	match     func(text string, action Action) bool
	column    string
	qualified string
}

// groupRules are evaluated in order; at most one grouping column is set.
var groupRules = []groupRule{
	{
		match: func(text string, action Action) bool {
			return strings.Contains(text, "by category") || (strings.Contains(text, "category") && action == ActionCount)
		},
		column:    "category",
		qualified: "p.category",
	},
	{
		match: func(text string, _ Action) bool {
			return strings.Contains(text, "by city") || (strings.Contains(text, "city") && strings.Contains(text, "user"))
		},
		column:    "city",
		qualified: "u.city",
	},
	{
		match: func(text string, _ Action) bool {
			return strings.Contains(text, "by status")
		},
		column:    "status",
		qualified: "o.status",
	},
}

// resolveGrouping returns the single grouping column, qualified for
// cross-table intents.
func resolveGrouping(text string, in Intent) []string {
	for _, g := range groupRules {
		if !g.match(text, in.Action) {
			continue
		}
		if in.CrossTable {
			return []string{g.qualified}
		}
		return []string{g.column}
	}
	return nil
}

// resolveOrdering returns the sort terms and whether the question asks for
// best sellers, which replaces the classified action.
func resolveOrdering(text string, in Intent) (terms []OrderTerm, bestSelling bool) {
	price := "price"
	if in.CrossTable {
		price = "p.price"
	}

	switch {
	case containsAny(text, recencyTokens...):
		return []OrderTerm{{Column: recencyColumn(in), Direction: Desc}}, false
	case containsAny(text, expensiveTokens...):
		return []OrderTerm{{Column: price, Direction: Desc}}, false
	case containsAny(text, cheapTokens...):
		return []OrderTerm{{Column: price, Direction: Asc}}, false
	case containsAny(text, bestSellingTokens...):
		return nil, true
	}
	return nil, false
}

// recencyColumn picks the timestamp to sort by. Orders sort by order_date,
// qualified when the statement aliases orders as o; everything else by
// created_at.
func recencyColumn(in Intent) string {
	if !in.hasTable(schema.Orders) {
		return "created_at"
	}
	if ordersAliased(in) {
		return "o.order_date"
	}
	return "order_date"
}

// resolveLimit applies explicit and default row limits. Scalar aggregates
// and cross-table sums and counts are never limited.
func resolveLimit(text string, in Intent) int {
	if in.Action.scalar() && len(in.GroupBy) == 0 {
		return 0
	}
	if in.CrossTable && (in.Action == ActionSum || in.Action == ActionCount) {
		return 0
	}
	if n, ok := firstMatch(text, limitRules); ok {
		return n
	}
	if containsAny(text, unlimitedTokens...) {
		return 0
	}
	return defaultLimit
}

// Parse reads a question into an Intent without planning joins. Parsing is
// deterministic: the same question always yields the same Intent.
func Parse(question string) Intent {
	return parse(normalize(question))
}

func parse(text string) Intent {
	in := Intent{Action: classifyAction(text)}
	in.Tables, in.CrossTable = resolveEntities(text)
	in.Conditions = extractConditions(text)
	in.GroupBy = resolveGrouping(text, in)

	var bestSelling bool
	in.OrderBy, bestSelling = resolveOrdering(text, in)
	if bestSelling {
		in.Action = ActionBestSelling
		in.Limit = bestSellingLimit
		return in
	}

	in.Limit = resolveLimit(text, in)
	return in
}
