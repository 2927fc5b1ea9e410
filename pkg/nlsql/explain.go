package nlsql

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// explain describes result rows in a sentence. It never returns an empty
// string.
func explain(in Intent, text string, rows []Row) string {
	if len(rows) == 0 {
		return "No results found for your query."
	}
	if msg, ok := rows[0]["error"]; ok {
		return fmt.Sprintf("There was an error executing the query: %v", msg)
	}

	if in.CrossTable {
		if s, ok := explainCrossTable(in, rows); ok {
			return s
		}
	}
	if s, ok := explainAction(in, text, rows); ok {
		return s
	}
	return fmt.Sprintf("Found %d records matching your query.", len(rows))
}

func explainCrossTable(in Intent, rows []Row) (string, bool) {
	first := rows[0]

	if total, ok := first["total_sales"]; ok && in.Action == ActionSum {
		if total == nil {
			return "No sales found for the specified criteria.", true
		}
		amount, ok := toFloat(total)
		if !ok {
			return "", false
		}
		if c, ok := in.condition("category"); ok {
			return fmt.Sprintf("Total sales for %s products: $%s", c.Value, formatMoney(amount)), true
		}
		return fmt.Sprintf("Total sales: $%s", formatMoney(amount)), true
	}

	if in.Action == ActionCount {
		count, ok := first["count"]
		if !ok {
			return "", false
		}
		if c, ok := in.condition("price"); ok {
			return fmt.Sprintf("Found %s users who bought products %s $%s.", display(count), c.Operator.phrase(), c.Value), true
		}
		return fmt.Sprintf("Found %s users who match your criteria.", display(count)), true
	}

	if c, ok := in.condition("price"); ok {
		return fmt.Sprintf("Here are %d users who bought products %s $%s.", len(rows), c.Operator.phrase(), c.Value), true
	}
	return fmt.Sprintf("Here are %d users who match your purchasing criteria.", len(rows)), true
}

func explainAction(in Intent, text string, rows []Row) (string, bool) {
	first := rows[0]

	switch in.Action {
	case ActionCount:
		count, ok := first["count"]
		if !ok {
			return "", false
		}
		switch {
		case containsAny(text, "product"):
			if len(in.GroupBy) > 0 {
				return fmt.Sprintf("Found %d product categories with a total of %s products.", len(rows), sumColumn(rows, "count")), true
			}
			return fmt.Sprintf("There are %s products in the catalog.", display(count)), true
		case containsAny(text, "user"):
			return fmt.Sprintf("There are %s users in the system.", display(count)), true
		case containsAny(text, "order"):
			return fmt.Sprintf("There are %s orders in the database.", display(count)), true
		}
		return fmt.Sprintf("Found %s records matching your criteria.", display(count)), true

	case ActionSum:
		if v, ok := money(first, "total_revenue"); ok {
			return fmt.Sprintf("The total revenue is $%s.", v), true
		}
		if v, ok := money(first, "total_price"); ok {
			return fmt.Sprintf("The total price sum is $%s.", v), true
		}
		return "", false

	case ActionAvg:
		if v, ok := money(first, "average_price"); ok {
			return fmt.Sprintf("The average price is $%s.", v), true
		}
		return "", false

	case ActionBestSelling:
		return fmt.Sprintf("Here are the top %d best-selling products with their sales quantities.", len(rows)), true
	}

	return explainListing(in, text, len(rows))
}

// explainListing covers plain selects and the max/min row listings.
func explainListing(in Intent, text string, n int) (string, bool) {
	switch {
	case in.hasTable(schema.Products):
		if c, ok := in.condition("category"); ok {
			return fmt.Sprintf("Found %d products in the %s category.", n, c.Value), true
		}
		switch {
		case containsAny(text, "expensive", "highest", "most expensive"):
			return fmt.Sprintf("Here are the %d most expensive products.", n), true
		case containsAny(text, "cheap", "lowest", "least expensive"):
			return fmt.Sprintf("Here are the %d cheapest products.", n), true
		case containsAny(text, "all", "available", "catalog"):
			return fmt.Sprintf("Here are all %d products available in the catalog.", n), true
		}
		return fmt.Sprintf("Found %d products matching your query.", n), true

	case in.hasTable(schema.Users):
		if slices.Contains(in.GroupBy, "city") {
			return fmt.Sprintf("Found users across %d different cities.", n), true
		}
		return fmt.Sprintf("Here are %d users from the system.", n), true

	case in.hasTable(schema.Orders):
		if c, ok := in.condition("status"); ok {
			return fmt.Sprintf("Found %d %s orders.", n, c.Value), true
		}
		if containsAny(text, "recent", "latest") {
			return fmt.Sprintf("Here are the %d most recent orders.", n), true
		}
		return fmt.Sprintf("Found %d orders in the system.", n), true
	}
	return "", false
}

// money formats a non-null numeric column as an amount.
func money(row Row, column string) (string, bool) {
	v, ok := row[column]
	if !ok || v == nil {
		return "", false
	}
	f, ok := toFloat(v)
	if !ok {
		return "", false
	}
	return formatMoney(f), true
}

// sumColumn totals a numeric column across rows.
func sumColumn(rows []Row, column string) string {
	var total float64
	for _, r := range rows {
		if f, ok := toFloat(r[column]); ok {
			total += f
		}
	}
	return strconv.FormatFloat(total, 'f', -1, 64)
}
