package nlsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowsOf(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"id": int64(i + 1)}
	}
	return rows
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		question string
		rows     []Row
		want     string
	}{
		{
			name:     "no rows",
			question: "How many users do we have?",
			want:     "No results found for your query.",
		},
		{
			name:     "execution error",
			question: "How many users do we have?",
			rows:     []Row{{"error": "no such table: users"}},
			want:     "There was an error executing the query: no such table: users",
		},
		{
			name:     "cross table sales by category",
			question: "What is the total sales for electronics?",
			rows:     []Row{{"total_sales": 4039.93}},
			want:     "Total sales for Electronics products: $4,039.93",
		},
		{
			name:     "cross table sales",
			question: "total sales of orders over $100",
			rows:     []Row{{"total_sales": 1234.5}},
			want:     "Total sales: $1,234.50",
		},
		{
			name:     "cross table sales without matches",
			question: "What is the total sales for electronics?",
			rows:     []Row{{"total_sales": nil}},
			want:     "No sales found for the specified criteria.",
		},
		{
			name:     "cross table count with price",
			question: "How many users bought products under $100?",
			rows:     []Row{{"count": int64(3)}},
			want:     "Found 3 users who bought products under $100.0.",
		},
		{
			name:     "cross table count",
			question: "how many users bought products by city",
			rows:     []Row{{"city": "Chicago", "count": int64(2)}},
			want:     "Found 2 users who match your criteria.",
		},
		{
			name:     "cross table listing with price",
			question: "Show me users who bought products over $500",
			rows:     rowsOf(4),
			want:     "Here are 4 users who bought products over $500.0.",
		},
		{
			name:     "cross table listing with range",
			question: "users who bought products between $20 and $50",
			rows:     rowsOf(2),
			want:     "Here are 2 users who bought products at least $20.0.",
		},
		{
			name:     "cross table listing",
			question: "users who bought products",
			rows:     rowsOf(2),
			want:     "Here are 2 users who match your purchasing criteria.",
		},
		{
			name:     "grouped product count",
			question: "How many products are in each category?",
			rows: []Row{
				{"category": "Electronics", "count": int64(5)},
				{"category": "Books", "count": int64(1)},
				{"category": "Kitchen", "count": int64(1)},
				{"category": "Furniture", "count": int64(1)},
			},
			want: "Found 4 product categories with a total of 8 products.",
		},
		{
			name:     "product count",
			question: "how many products",
			rows:     []Row{{"count": int64(8)}},
			want:     "There are 8 products in the catalog.",
		},
		{
			name:     "user count",
			question: "How many users do we have?",
			rows:     []Row{{"count": int64(5)}},
			want:     "There are 5 users in the system.",
		},
		{
			name:     "order count",
			question: "How many pending orders are there?",
			rows:     []Row{{"count": int64(2)}},
			want:     "There are 2 orders in the database.",
		},
		{
			name:     "other count",
			question: "count things",
			rows:     []Row{{"count": int64(3)}},
			want:     "Found 3 records matching your criteria.",
		},
		{
			name:     "revenue",
			question: "What's the total revenue from completed orders?",
			rows:     []Row{{"total_revenue": 2458.9}},
			want:     "The total revenue is $2,458.90.",
		},
		{
			name:     "price sum",
			question: "total price of all books",
			rows:     []Row{{"total_price": 39.99}},
			want:     "The total price sum is $39.99.",
		},
		{
			name:     "sum without a known column",
			question: "total price of all books",
			rows:     []Row{{"something": 1}},
			want:     "Found 1 records matching your query.",
		},
		{
			name:     "null sum",
			question: "What's the total revenue from completed orders?",
			rows:     []Row{{"total_revenue": nil}},
			want:     "Found 1 records matching your query.",
		},
		{
			name:     "average",
			question: "average price of kitchen products",
			rows:     []Row{{"average_price": "12.99"}},
			want:     "The average price is $12.99.",
		},
		{
			name:     "best sellers",
			question: "What are the best selling products?",
			rows:     rowsOf(5),
			want:     "Here are the top 5 best-selling products with their sales quantities.",
		},
		{
			name:     "products in category",
			question: "Show me all products in the Electronics category",
			rows:     rowsOf(5),
			want:     "Found 5 products in the Electronics category.",
		},
		{
			name:     "most expensive",
			question: "Which are the most expensive products?",
			rows:     rowsOf(3),
			want:     "Here are the 3 most expensive products.",
		},
		{
			name:     "cheapest",
			question: "cheapest products",
			rows:     rowsOf(3),
			want:     "Here are the 3 cheapest products.",
		},
		{
			name:     "whole catalog",
			question: "list every product in the catalog",
			rows:     rowsOf(8),
			want:     "Here are all 8 products available in the catalog.",
		},
		{
			name:     "products",
			question: "show products",
			rows:     rowsOf(2),
			want:     "Found 2 products matching your query.",
		},
		{
			name:     "users by city",
			question: "Show me users by city",
			rows:     rowsOf(5),
			want:     "Found users across 5 different cities.",
		},
		{
			name:     "users",
			question: "show users",
			rows:     rowsOf(5),
			want:     "Here are 5 users from the system.",
		},
		{
			name:     "orders by status",
			question: "show pending orders",
			rows:     rowsOf(2),
			want:     "Found 2 pending orders.",
		},
		{
			name:     "recent orders",
			question: "Show me recent orders",
			rows:     rowsOf(6),
			want:     "Here are the 6 most recent orders.",
		},
		{
			name:     "orders",
			question: "show orders",
			rows:     rowsOf(6),
			want:     "Found 6 orders in the system.",
		},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Explain(tt.question, "SELECT 1;", tt.rows)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplain_NeverEmpty(t *testing.T) {
	c := New()
	rows := []Row{{"x": 1}}
	for _, q := range []string{"", "count", "total", "average", "max", "best selling", "users who bought", "orders"} {
		assert.NotEmpty(t, c.Explain(q, "", rows), q)
		assert.NotEmpty(t, c.Explain(q, "", nil), q)
	}
}
