package sampledata

// examples are questions the rule-based compiler answers well over the
// sample data.
var examples = []string{
	"How many users do we have?",
	"Show me all products in the Electronics category",
	"What's the total revenue from completed orders?",
	"Which are the most expensive products?",
	"Show me recent orders",
	"How many pending orders are there?",
	"What are the best selling products?",
	"Show me users by city",
	"How many products are in each category?",
}

// Examples returns a copy of the example questions.
func Examples() []string {
	return append([]string(nil), examples...)
}
