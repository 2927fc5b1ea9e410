package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/askdb/pkg/adapter"
)

// Store errors.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

const (
	userColumns    = "id, name, email, age, city, created_at"
	productColumns = "id, name, description, price, category, stock_quantity, created_at"
	orderColumns   = "id, user_id, total_amount, status, order_date"
)

// Store runs parameterized queries against the shop tables.
type Store struct {
	db *sql.DB
	ph adapter.Placeholder
}

// NewStore creates a store over a connected adapter.
func NewStore(db adapter.Adapter) *Store {
	ph := adapter.QuestionMark
	if db.DialectName() == "postgres" {
		ph = adapter.Dollar
	}
	return &Store{db: db.SQLDB(), ph: ph}
}

// bind replaces each ? in query with the dialect placeholder.
func (s *Store) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.ph(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) page(query string, p Page) (string, []any) {
	p = p.normalized()
	return s.bind(query + " LIMIT ? OFFSET ?"), []any{p.Limit, p.Skip}
}

// ListUsers returns users ordered by id.
func (s *Store) ListUsers(ctx context.Context, p Page) ([]User, error) {
	q, args := s.page("SELECT "+userColumns+" FROM users ORDER BY id", p)
	return queryAll(ctx, s.db, q, args, scanUser)
}

// GetUser returns one user.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	q := s.bind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return queryOne(ctx, s.db, q, []any{id}, scanUser, "user")
}

// CreateUser inserts a user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, in UserCreate) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := s.insert(ctx,
		"INSERT INTO users (id, name, email, age, city) VALUES ("+nextID("users")+", ?, ?, ?, ?) RETURNING id",
		in.Name, in.Email, in.Age, in.City)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// ListProducts returns products ordered by id.
func (s *Store) ListProducts(ctx context.Context, p Page) ([]Product, error) {
	q, args := s.page("SELECT "+productColumns+" FROM products ORDER BY id", p)
	return queryAll(ctx, s.db, q, args, scanProduct)
}

// GetProduct returns one product.
func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	q := s.bind("SELECT " + productColumns + " FROM products WHERE id = ?")
	return queryOne(ctx, s.db, q, []any{id}, scanProduct, "product")
}

// ProductsByCategory returns the products of one category.
func (s *Store) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	q := s.bind("SELECT " + productColumns + " FROM products WHERE category = ? ORDER BY id")
	return queryAll(ctx, s.db, q, []any{category}, scanProduct)
}

// CreateProduct inserts a product and returns the stored row.
func (s *Store) CreateProduct(ctx context.Context, in ProductCreate) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := s.insert(ctx,
		"INSERT INTO products (id, name, description, price, category, stock_quantity) VALUES ("+nextID("products")+", ?, ?, ?, ?, ?) RETURNING id",
		in.Name, in.Description, in.Price, in.Category, in.StockQuantity)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

// ListOrders returns orders ordered by id.
func (s *Store) ListOrders(ctx context.Context, p Page) ([]Order, error) {
	q, args := s.page("SELECT "+orderColumns+" FROM orders ORDER BY id", p)
	return queryAll(ctx, s.db, q, args, scanOrder)
}

// OrdersByUser returns the orders placed by one user.
func (s *Store) OrdersByUser(ctx context.Context, userID int64) ([]Order, error) {
	q := s.bind("SELECT " + orderColumns + " FROM orders WHERE user_id = ? ORDER BY id")
	return queryAll(ctx, s.db, q, []any{userID}, scanOrder)
}

// OrdersByStatus returns the orders in one status.
func (s *Store) OrdersByStatus(ctx context.Context, status string) ([]Order, error) {
	q := s.bind("SELECT " + orderColumns + " FROM orders WHERE status = ? ORDER BY id")
	return queryAll(ctx, s.db, q, []any{strings.ToLower(status)}, scanOrder)
}

// CreateOrder inserts an empty order for an existing user.
func (s *Store) CreateOrder(ctx context.Context, in OrderCreate) (*Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	id, err := s.insert(ctx,
		"INSERT INTO orders (id, user_id, total_amount, status) VALUES ("+nextID("orders")+", ?, 0, ?) RETURNING id",
		in.UserID, statusValue(in.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	q := s.bind("SELECT " + orderColumns + " FROM orders WHERE id = ?")
	return queryOne(ctx, s.db, q, []any{id}, scanOrder, "order")
}

// nextID allocates ids in SQL since the shop tables declare plain INTEGER
// keys, which only SQLite fills in by itself.
func nextID(table string) string {
	return "(SELECT COALESCE(MAX(id), 0) + 1 FROM " + table + ")"
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.bind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (User, error) {
	var u User
	var city sql.NullString
	var age sql.NullInt64
	err := sc.Scan(&u.ID, &u.Name, &u.Email, &age, &city, timestamp{&u.CreatedAt})
	u.Age = int(age.Int64)
	u.City = city.String
	return u, err
}

func scanProduct(sc scanner) (Product, error) {
	var p Product
	var desc, category sql.NullString
	var stock sql.NullInt64
	err := sc.Scan(&p.ID, &p.Name, &desc, &p.Price, &category, &stock, timestamp{&p.CreatedAt})
	p.Description = desc.String
	p.Category = category.String
	p.StockQuantity = int(stock.Int64)
	return p, err
}

func scanOrder(sc scanner) (Order, error) {
	var o Order
	var total sql.NullFloat64
	var status sql.NullString
	err := sc.Scan(&o.ID, &o.UserID, &total, &status, timestamp{&o.OrderDate})
	o.TotalAmount = total.Float64
	o.Status = status.String
	return o, err
}

func queryAll[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func queryOne[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(scanner) (T, error), kind string) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %v %w", kind, args[0], ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return &v, nil
}
