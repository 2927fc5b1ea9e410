// Package shop reads and writes the shop tables directly, without going
// through the question compiler.
package shop

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// User is a row of the users table.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCreate holds the fields of a new user.
type UserCreate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
	City  string `json:"city"`
}

// Validate checks required fields.
func (u UserCreate) Validate() error {
	var missing []string
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(u.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalid, strings.Join(missing, ", "))
	}
	if u.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalid)
	}
	return nil
}

// Product is a row of the products table.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProductCreate holds the fields of a new product.
type ProductCreate struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stock_quantity"`
}

// Validate checks required fields.
func (p ProductCreate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	if p.Price < 0 || p.StockQuantity < 0 {
		return fmt.Errorf("%w: price and stock_quantity must not be negative", ErrInvalid)
	}
	return nil
}

// Order is a row of the orders table.
type Order struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	OrderDate   time.Time `json:"order_date"`
}

// OrderCreate holds the fields of a new order.
type OrderCreate struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

// Validate checks required fields.
func (o OrderCreate) Validate() error {
	if o.UserID <= 0 {
		return fmt.Errorf("%w: user_id required", ErrInvalid)
	}
	return nil
}

// Page bounds a listing. Limit defaults to DefaultLimit.
type Page struct {
	Skip  int
	Limit int
}

// DefaultLimit is the listing size when none is given.
const DefaultLimit = 100

func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// timestamp scans the TIMESTAMP columns, which SQLite may hand back as text.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = v
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (ts timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

var _ sql.Scanner = timestamp{}

// statusValue lowercases order statuses on the way in.
type statusValue string

var _ driver.Valuer = statusValue("")

func (s statusValue) Value() (driver.Value, error) {
	if s == "" {
		return "pending", nil
	}
	return strings.ToLower(string(s)), nil
}
