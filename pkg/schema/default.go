package schema

import "sync"

// Table names of the shop schema.
const (
	Users      = "users"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "order_items"
)

var defaultDescriptor = sync.OnceValue(func() *Descriptor {
	d, err := New(
		[]Table{
			{
				Name:        Users,
				Columns:     []string{"id", "name", "email", "age", "city", "created_at"},
				Description: "User information including demographics",
			},
			{
				Name:        Products,
				Columns:     []string{"id", "name", "description", "price", "category", "stock_quantity", "created_at"},
				Description: "Product catalog with pricing and inventory",
			},
			{
				Name:        Orders,
				Columns:     []string{"id", "user_id", "total_amount", "status", "order_date"},
				Description: "Customer orders with status and totals",
			},
			{
				Name:        OrderItems,
				Columns:     []string{"id", "order_id", "product_id", "quantity", "price"},
				Description: "Individual items within orders",
			},
		},
		[]Relationship{
			{FromTable: Users, FromColumn: "id", ToTable: Orders, ToColumn: "user_id", Cardinality: OneToMany},
			{FromTable: Orders, FromColumn: "id", ToTable: OrderItems, ToColumn: "order_id", Cardinality: OneToMany},
			{FromTable: Products, FromColumn: "id", ToTable: OrderItems, ToColumn: "product_id", Cardinality: OneToMany},
		},
	)
	if err != nil {
		panic(err)
	}
	return d
})

// Default returns the process-wide shop schema: users, products, orders and
// order_items. It is built on first use.
func Default() *Descriptor {
	return defaultDescriptor()
}
