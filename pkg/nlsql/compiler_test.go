package nlsql

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

const (
	usersChain  = "FROM users u JOIN orders o ON u.id = o.user_id JOIN order_items oi ON o.id = oi.order_id JOIN products p ON oi.product_id = p.id"
	ordersChain = "FROM orders o JOIN order_items oi ON o.id = oi.order_id JOIN products p ON oi.product_id = p.id"
	userColumns = "SELECT DISTINCT u.*, p.name as product_name, p.price as product_price, p.category as product_category"
)

func TestCompile_SQL(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{
			question: "How many users do we have?",
			want:     "SELECT COUNT(*) as count FROM users;",
		},
		{
			question: "Show me all products in the Electronics category",
			want:     "SELECT * FROM products WHERE category = 'Electronics';",
		},
		{
			question: "What's the total revenue from completed orders?",
			want:     "SELECT SUM(total_amount) as total_revenue FROM orders WHERE status = 'completed';",
		},
		{
			question: "Which are the most expensive products?",
			want:     "SELECT * FROM products ORDER BY price DESC LIMIT 10;",
		},
		{
			question: "Show me recent orders",
			want:     "SELECT o.*, u.name as user_name FROM orders o JOIN users u ON o.user_id = u.id ORDER BY o.order_date DESC LIMIT 10;",
		},
		{
			question: "How many pending orders are there?",
			want:     "SELECT COUNT(*) as count FROM orders WHERE status = 'pending';",
		},
		{
			question: "What are the best selling products?",
			want:     "SELECT p.name, p.category, SUM(oi.quantity) as total_sold FROM products p JOIN order_items oi ON p.id = oi.product_id GROUP BY p.id, p.name, p.category ORDER BY total_sold DESC LIMIT 5;",
		},
		{
			question: "Show me users by city",
			want:     "SELECT * FROM users GROUP BY city LIMIT 10;",
		},
		{
			question: "How many products are in each category?",
			want:     "SELECT category, COUNT(*) as count FROM products GROUP BY category LIMIT 10;",
		},
		{
			question: "Show me users who bought products over $500",
			want:     userColumns + " " + usersChain + " WHERE p.price > 500.0 LIMIT 10;",
		},
		{
			question: "What is the total sales for electronics?",
			want:     "SELECT SUM(oi.quantity * oi.price) as total_sales " + ordersChain + " WHERE p.category = 'Electronics';",
		},
		{
			question: "How many users bought products under $100?",
			want:     "SELECT COUNT(*) as count " + ordersChain + " WHERE p.price < 100.0;",
		},
		{
			question: "how many users bought products by city",
			want:     "SELECT u.city, COUNT(DISTINCT u.id) as count " + usersChain + " GROUP BY u.city;",
		},
		{
			question: "orders over $100",
			want:     userColumns + " " + usersChain + " WHERE p.price > 100.0 LIMIT 10;",
		},
		{
			question: "average price of kitchen products",
			want:     "SELECT AVG(price) as average_price FROM products WHERE category = 'Kitchen';",
		},
		{
			question: "total price of all books",
			want:     "SELECT SUM(price) as total_price FROM products WHERE category = 'Books';",
		},
		{
			question: "products under $50 and between $20 and $50",
			want:     "SELECT * FROM products WHERE price < 50.0 AND price >= 20.0 AND price <= 50.0 LIMIT 10;",
		},
		{
			question: `Find products called "Desk Chair"`,
			// "called" contains "all", which lifts the default limit.
			want: "SELECT * FROM products WHERE category = 'Furniture' AND name LIKE '%desk chair%';",
		},
		{
			question: "cancelled orders",
			want:     "SELECT o.*, u.name as user_name FROM orders o JOIN users u ON o.user_id = u.id WHERE status = 'cancelled' LIMIT 10;",
		},
		{
			question: "newest products",
			want:     "SELECT * FROM products ORDER BY created_at DESC LIMIT 10;",
		},
		{
			question: "count recent orders",
			want:     "SELECT COUNT(*) as count FROM orders ORDER BY order_date DESC;",
		},
		{
			question: "top 5 cheapest products",
			want:     "SELECT * FROM products ORDER BY price ASC LIMIT 5;",
		},
		{
			question: "",
			want:     "SELECT * FROM products LIMIT 10;",
		},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			cq, err := c.Compile(tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cq.SQL)
			assert.Equal(t, SourceRules, cq.Source)
		})
	}
}

func TestCompile_Joins(t *testing.T) {
	c := New()

	cq, err := c.Compile("Show me recent orders")
	require.NoError(t, err)
	assert.Equal(t, []Join{{Table: "users", Alias: "u", On: "o.user_id = u.id"}}, cq.Intent.Joins)

	cq, err = c.Compile("Show me users who bought products over $500")
	require.NoError(t, err)
	assert.Empty(t, cq.Intent.Joins, "the base cross-table chain is not recorded as extra joins")
}

func TestCompile_MissingRelationship(t *testing.T) {
	d, err := schema.New([]schema.Table{
		{Name: "users", Columns: []string{"id", "name"}},
		{Name: "orders", Columns: []string{"id", "user_id"}},
	}, nil)
	require.NoError(t, err)

	c := New(WithSchema(d))

	_, err = c.Compile("Show me recent orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relationship between orders and users")

	cq := c.Translate(context.Background(), "Show me recent orders")
	assert.Empty(t, cq.SQL)
	assert.Contains(t, cq.Explanation, "Error processing query:")
}

func TestQualify(t *testing.T) {
	name := Condition{Column: "name", Operator: OpLike, Value: Text("%alice%")}
	productName := Condition{Column: "name", Operator: OpLike, Value: Text("%product x%")}

	tests := []struct {
		name       string
		cond       Condition
		all        []Condition
		joinsUsers bool
		want       string
	}{
		{"price", Condition{Column: "price"}, nil, true, "p.price"},
		{"category", Condition{Column: "category"}, nil, true, "p.category"},
		{"status", Condition{Column: "status"}, nil, true, "o.status"},
		{"city", Condition{Column: "city"}, nil, true, "u.city"},
		{"name with users", name, []Condition{name}, true, "u.name"},
		{"name without users", name, []Condition{name}, false, "p.name"},
		{"name mentioning product", name, []Condition{name, productName}, true, "p.name"},
		{"other", Condition{Column: "email"}, nil, true, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualify(tt.cond, tt.all, tt.joinsUsers))
		})
	}
}

func TestCompile_CrossTableNameAlias(t *testing.T) {
	c := New()

	cq, err := c.Compile("how many users bought products named laptop")
	require.NoError(t, err)
	assert.Contains(t, cq.SQL, ordersChain)
	assert.Contains(t, cq.SQL, "WHERE p.name LIKE '%laptop%'")

	cq, err = c.Compile("show users who bought products named laptop")
	require.NoError(t, err)
	assert.Contains(t, cq.SQL, usersChain)
	assert.Contains(t, cq.SQL, "WHERE u.name LIKE '%laptop%'")
}

func TestTranslate_Properties(t *testing.T) {
	questions := []string{
		"",
		"   ",
		"?",
		"'",
		`"`,
		"''",
		`find "o'brien"`,
		"users users users",
		"DROP TABLE users;",
		"between $1 and $2 under $3 over $4 exactly $5",
		"best selling popular recent cheapest expensive",
		"how many users bought electronics by city by category by status",
		strings.Repeat("order ", 200),
	}

	c := New()
	for _, q := range questions {
		t.Run(q, func(t *testing.T) {
			cq := c.Translate(context.Background(), q)
			assert.NotEmpty(t, cq.SQL)
			assert.True(t, strings.HasSuffix(cq.SQL, ";"), cq.SQL)
			assert.True(t, strings.HasPrefix(cq.SQL, "SELECT "), cq.SQL)
			assert.NotEmpty(t, cq.Explanation)
			assert.NotEmpty(t, cq.Intent.Tables)
		})
	}
}

func TestTranslate_QuotesAreEscaped(t *testing.T) {
	cq := New().Translate(context.Background(), `products called "o'brien"`)
	assert.Contains(t, cq.SQL, "name LIKE '%o''brien%'")
}

func TestTranslate_Idempotent(t *testing.T) {
	c := New()
	q := "Show me users who bought products over $500"

	first := c.Translate(context.Background(), q)
	second := c.Translate(context.Background(), q)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Intent, second.Intent)
}

func TestTranslate_Concurrent(t *testing.T) {
	c := New()
	q := "How many users bought products under $100?"
	want := c.Translate(context.Background(), q).SQL

	var wg sync.WaitGroup
	got := make([]string, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = c.Translate(context.Background(), q).SQL
		}(i)
	}
	wg.Wait()

	for _, sql := range got {
		assert.Equal(t, want, sql)
	}
}

func TestTranslate_DescribesPlan(t *testing.T) {
	cq := New().Translate(context.Background(), "How many pending orders are there?")
	assert.Equal(t, "Planned a count query over orders filtered by status = 'pending'.", cq.Explanation)

	cq = New().Translate(context.Background(), "top 5 cheapest products")
	assert.Equal(t, "Planned a min query over products, ordered by price ASC, limited to 5 rows.", cq.Explanation)

	cq = New().Translate(context.Background(), "What are the best selling products?")
	assert.True(t, strings.HasSuffix(cq.SQL, "LIMIT 5;"), cq.SQL)
	assert.Equal(t, "Planned a bestselling query over products, limited to 5 rows.", cq.Explanation)

	cq = New().Translate(context.Background(), "show the cheapest product")
	assert.Equal(t, "SELECT * FROM products ORDER BY price ASC LIMIT 10;", cq.SQL)
}

type fakeGenerator struct {
	output string
	err    error
	prompt string
	panics bool
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.panics {
		panic("boom")
	}
	g.prompt = prompt
	return g.output, g.err
}

func TestTranslate_Generator(t *testing.T) {
	rulesSQL := "SELECT COUNT(*) as count FROM users;"

	tests := []struct {
		name       string
		gen        *fakeGenerator
		wantSQL    string
		wantSource Source
	}{
		{
			name:       "model answer preferred",
			gen:        &fakeGenerator{output: "Sure!\nselect count(*) from users\nwhere 1 = 1; -- done"},
			wantSQL:    "select count(*) from users\nwhere 1 = 1;",
			wantSource: SourceModel,
		},
		{
			name:       "model error falls back",
			gen:        &fakeGenerator{err: errors.New("timeout")},
			wantSQL:    rulesSQL,
			wantSource: SourceRules,
		},
		{
			name:       "empty output falls back",
			gen:        &fakeGenerator{output: ""},
			wantSQL:    rulesSQL,
			wantSource: SourceRules,
		},
		{
			name:       "no statement falls back",
			gen:        &fakeGenerator{output: "I cannot help with that"},
			wantSQL:    rulesSQL,
			wantSource: SourceRules,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithGenerator(tt.gen))
			cq := c.Translate(context.Background(), "How many users do we have?")
			assert.Equal(t, tt.wantSQL, cq.SQL)
			assert.Equal(t, tt.wantSource, cq.Source)
			assert.Equal(t, ActionCount, cq.Intent.Action)
			assert.NotEmpty(t, cq.Explanation)
		})
	}
}

func TestTranslate_GeneratorPrompt(t *testing.T) {
	gen := &fakeGenerator{output: "SELECT 1;"}
	New(WithGenerator(gen)).Translate(context.Background(), "How many users do we have?")

	assert.True(t, strings.HasPrefix(gen.prompt, "Convert the following natural language query to SQL:\n\nDatabase Schema:\n{"))
	assert.Contains(t, gen.prompt, `"users.id -> orders.user_id (one-to-many)"`)
	assert.Contains(t, gen.prompt, `"description": "Product catalog with pricing and inventory"`)
	assert.True(t, strings.HasSuffix(gen.prompt, "\n\nNatural Language Query: How many users do we have?\n\nSQL Query:"))
}

func TestTranslate_RecoversPanics(t *testing.T) {
	c := New(WithGenerator(&fakeGenerator{panics: true}))

	var cq CompiledQuery
	require.NotPanics(t, func() {
		cq = c.Translate(context.Background(), "How many users do we have?")
	})
	assert.Empty(t, cq.SQL)
	assert.Equal(t, "Error processing query: boom", cq.Explanation)
}

func TestExtractSQL(t *testing.T) {
	got, err := ExtractSQL("  SELECT * FROM t; SELECT 2;")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t;", got)

	_, err = ExtractSQL("SELECT without terminator")
	assert.ErrorIs(t, err, ErrNoSQL)
}

type fakeExecutor struct {
	result Result
	sql    string
}

func (e *fakeExecutor) Run(_ context.Context, sql string) Result {
	e.sql = sql
	return e.result
}

func TestAnswer(t *testing.T) {
	c := New()

	t.Run("success", func(t *testing.T) {
		exec := &fakeExecutor{result: Result{Columns: []string{"count"}, Rows: []Row{{"count": int64(5)}}}}
		ans := c.Answer(context.Background(), "How many users do we have?", exec)

		assert.True(t, ans.Success)
		assert.Equal(t, "SELECT COUNT(*) as count FROM users;", exec.sql)
		assert.Equal(t, exec.sql, ans.SQL)
		assert.Equal(t, "There are 5 users in the system.", ans.Explanation)
		assert.Equal(t, SourceRules, ans.Source)
	})

	t.Run("execution error is data", func(t *testing.T) {
		exec := &fakeExecutor{result: ErrorResult(errors.New("no such table: users"))}
		ans := c.Answer(context.Background(), "How many users do we have?", exec)

		assert.True(t, ans.Success)
		assert.Equal(t, "There was an error executing the query: no such table: users", ans.Explanation)
		msg, failed := ans.Result.Failure()
		assert.True(t, failed)
		assert.Equal(t, "no such table: users", msg)
	})

	t.Run("matches explain", func(t *testing.T) {
		q := "Show me users who bought products over $500"
		rows := []Row{{"id": 1}, {"id": 2}}
		exec := &fakeExecutor{result: Result{Rows: rows}}
		ans := c.Answer(context.Background(), q, exec)

		assert.Equal(t, c.Explain(q, ans.SQL, rows), ans.Explanation)
		assert.Equal(t, "Here are 2 users who bought products over $500.0.", ans.Explanation)
	})

	t.Run("nil executor is recovered", func(t *testing.T) {
		ans := c.Answer(context.Background(), "How many users do we have?", nil)
		assert.False(t, ans.Success)
		assert.True(t, strings.HasPrefix(ans.Explanation, "Error processing query:"))
	})
}
