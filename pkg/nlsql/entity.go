package nlsql

import (
	"slices"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// classifyAction returns the provisional action for a normalized question.
func classifyAction(text string) Action {
	if a, ok := firstMatch(text, actionRules); ok {
		return a
	}
	return ActionSelect
}

// resolveEntities returns the tables a question refers to and whether the
// answer needs the join chain.
func resolveEntities(text string) (tables []string, crossTable bool) {
	mentioned := allMatches(text, tableRules)
	has := func(table string) bool { return slices.Contains(mentioned, table) }

	users, products, orders := has(schema.Users), has(schema.Products), has(schema.Orders)
	price := containsAny(text, priceTokens...)
	purchase := containsAny(text, purchaseTokens...)
	sales := containsAny(text, salesTokens...)
	category := containsAny(text, categoryTokens...)

	switch {
	case users && (price || purchase),
		users && products,
		users && orders && price,
		sales && category,
		orders && category:
		return []string{schema.Users, schema.Orders, schema.OrderItems, schema.Products}, true
	case orders && price:
		return []string{schema.Orders, schema.OrderItems, schema.Products}, true
	}

	switch {
	case len(mentioned) > 0:
		return []string{mentioned[0]}, false
	case price || category:
		return []string{schema.Products}, false
	case containsAny(text, revenueTokens...):
		return []string{schema.Orders}, false
	}
	return []string{schema.Products}, false
}
