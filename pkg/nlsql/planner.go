package nlsql

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// aliases are the fixed table aliases used by joined plans.
var aliases = map[string]string{
	schema.Users:      "u",
	schema.Orders:     "o",
	schema.OrderItems: "oi",
	schema.Products:   "p",
}

type tableRef struct {
	table string
	alias string
}

func ref(table string) tableRef {
	return tableRef{table: table, alias: aliases[table]}
}

// statement is a planned SELECT, ready for assembly.
type statement struct {
	columns string
	from    tableRef
	joins   []Join
	where   []string
	groupBy []string
	orderBy []OrderTerm
	limit   int
}

// joinsAlias reports whether the FROM clause introduces alias.
func (s statement) joinsAlias(alias string) bool {
	if s.from.alias == alias {
		return true
	}
	for _, j := range s.joins {
		if j.Alias == alias {
			return true
		}
	}
	return false
}

// ordersAliased reports whether the plan for in will refer to orders as o.
func ordersAliased(in Intent) bool {
	if in.CrossTable {
		return true
	}
	return in.Action == ActionSelect && len(in.Tables) > 0 && in.Tables[0] == schema.Orders
}

// planner picks one of the fixed join topologies for an intent and derives
// ON clauses from the schema relationships.
type planner struct {
	schema *schema.Descriptor
}

func (p planner) plan(in Intent) (statement, error) {
	switch {
	case in.Action == ActionBestSelling:
		return p.bestSelling()
	case in.CrossTable:
		return p.crossTable(in)
	}
	return p.singleTable(in)
}

// chain joins each table onto the one before it.
func (p planner) chain(tables ...string) (tableRef, []Join, error) {
	base := ref(tables[0])
	joins := make([]Join, 0, len(tables)-1)
	prev := base
	for _, t := range tables[1:] {
		next := ref(t)
		on, err := p.schema.JoinCondition(prev.alias, prev.table, next.alias, next.table)
		if err != nil {
			return tableRef{}, nil, fmt.Errorf("failed to plan join: %w", err)
		}
		joins = append(joins, Join{Table: next.table, Alias: next.alias, On: on})
		prev = next
	}
	return base, joins, nil
}

// bestSelling is the fixed top-sellers statement; it ignores every other
// resolved field.
func (p planner) bestSelling() (statement, error) {
	from, joins, err := p.chain(schema.Products, schema.OrderItems)
	if err != nil {
		return statement{}, err
	}
	return statement{
		columns: "p.name, p.category, SUM(oi.quantity) as total_sold",
		from:    from,
		joins:   joins,
		groupBy: []string{"p.id", "p.name", "p.category"},
		orderBy: []OrderTerm{{Column: "total_sold", Direction: Desc}},
		limit:   bestSellingLimit,
	}, nil
}

func (p planner) singleTable(in Intent) (statement, error) {
	primary := schema.Products
	if len(in.Tables) > 0 {
		primary = in.Tables[0]
	}

	st := statement{
		from:    tableRef{table: primary},
		groupBy: in.GroupBy,
		orderBy: in.OrderBy,
		limit:   in.Limit,
	}

	switch in.Action {
	case ActionCount:
		st.columns = "COUNT(*) as count"
		if len(in.GroupBy) > 0 {
			st.columns = in.GroupBy[0] + ", " + st.columns
		}
	case ActionSum:
		st.columns = "SUM(price) as total_price"
		if in.hasTable(schema.Orders) {
			st.columns = "SUM(total_amount) as total_revenue"
		}
	case ActionAvg:
		st.columns = "AVG(price) as average_price"
	case ActionMax, ActionMin:
		st.columns = "*"
	default:
		st.columns = "*"
		if primary == schema.Orders {
			// Order listings always carry the customer's name.
			from, joins, err := p.chain(schema.Orders, schema.Users)
			if err != nil {
				return statement{}, err
			}
			st.columns = "o.*, u.name as user_name"
			st.from, st.joins = from, joins
		}
	}

	for _, c := range in.Conditions {
		st.where = append(st.where, c.sql(c.Column))
	}
	return st, nil
}

func (p planner) crossTable(in Intent) (statement, error) {
	var (
		tables []string
		st     statement
	)

	usersChain := []string{schema.Users, schema.Orders, schema.OrderItems, schema.Products}
	ordersChain := []string{schema.Orders, schema.OrderItems, schema.Products}

	switch in.Action {
	case ActionSum:
		tables = ordersChain
		st.columns = "SUM(oi.quantity * oi.price) as total_sales"
	case ActionCount:
		tables = ordersChain
		st.columns = "COUNT(*) as count"
		if len(in.GroupBy) > 0 {
			group := in.GroupBy[0]
			if strings.Contains(group, "city") {
				tables = usersChain
				st.columns = group + ", COUNT(DISTINCT u.id) as count"
			} else {
				st.columns = group + ", COUNT(*) as count"
			}
		}
	default:
		tables = usersChain
		st.columns = "DISTINCT u.*, p.name as product_name, p.price as product_price, p.category as product_category"
		st.limit = in.Limit
	}

	from, joins, err := p.chain(tables...)
	if err != nil {
		return statement{}, err
	}
	st.from, st.joins = from, joins
	st.groupBy = in.GroupBy
	st.orderBy = in.OrderBy

	for _, c := range in.Conditions {
		st.where = append(st.where, c.sql(qualify(c, in.Conditions, st.joinsAlias("u"))))
	}
	return st, nil
}

// qualify maps a bare condition column onto the cross-table aliases.
func qualify(c Condition, all []Condition, joinsUsers bool) string {
	switch c.Column {
	case "price":
		return "p.price"
	case "category":
		return "p.category"
	case "status":
		return "o.status"
	case "city":
		return "u.city"
	case "name":
		for _, other := range all {
			if other.mentions("product") {
				return "p.name"
			}
		}
		if joinsUsers {
			return "u.name"
		}
		return "p.name"
	}
	return c.Column
}
