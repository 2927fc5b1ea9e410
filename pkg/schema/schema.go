// Package schema describes the relational schema the question compiler
// targets: tables, their ordered columns, and the foreign-key relationships
// used to plan joins.
//
// A Descriptor is immutable once built. Every accessor returns copies, so a
// single Descriptor can be shared by any number of goroutines.
package schema

import (
	"fmt"
	"slices"
)

// Cardinality describes how many rows on the far side of a relationship
// reference one row on the near side.
type Cardinality string

// OneToMany is the only cardinality the compiler plans joins for.
const OneToMany Cardinality = "one-to-many"

// Table is a named table with its ordered column list.
type Table struct {
	Name        string
	Columns     []string
	Description string
}

// Relationship is a directed foreign-key link: FromTable.FromColumn is
// referenced by ToTable.ToColumn.
type Relationship struct {
	FromTable   string
	FromColumn  string
	ToTable     string
	ToColumn    string
	Cardinality Cardinality
}

// String renders the relationship as "users.id -> orders.user_id (one-to-many)".
func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s (%s)", r.FromTable, r.FromColumn, r.ToTable, r.ToColumn, r.Cardinality)
}

// links reports whether the relationship connects tables a and b in either direction.
func (r Relationship) links(a, b string) bool {
	return (r.FromTable == a && r.ToTable == b) || (r.FromTable == b && r.ToTable == a)
}

// Descriptor is the immutable table/column/relationship metadata.
type Descriptor struct {
	tables        []Table
	relationships []Relationship
}

// New builds a Descriptor after checking that every relationship refers to
// declared tables and columns.
func New(tables []Table, relationships []Relationship) (*Descriptor, error) {
	d := &Descriptor{
		tables:        make([]Table, 0, len(tables)),
		relationships: slices.Clone(relationships),
	}

	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if t.Name == "" {
			return nil, fmt.Errorf("table name is required")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		seen[t.Name] = true
		d.tables = append(d.tables, Table{
			Name:        t.Name,
			Columns:     slices.Clone(t.Columns),
			Description: t.Description,
		})
	}

	for _, r := range d.relationships {
		if !d.HasColumn(r.FromTable, r.FromColumn) {
			return nil, fmt.Errorf("relationship %s: unknown column %s.%s", r, r.FromTable, r.FromColumn)
		}
		if !d.HasColumn(r.ToTable, r.ToColumn) {
			return nil, fmt.Errorf("relationship %s: unknown column %s.%s", r, r.ToTable, r.ToColumn)
		}
	}

	return d, nil
}

// Tables returns the tables in declaration order.
func (d *Descriptor) Tables() []Table {
	out := make([]Table, len(d.tables))
	for i, t := range d.tables {
		out[i] = Table{Name: t.Name, Columns: slices.Clone(t.Columns), Description: t.Description}
	}
	return out
}

// TableNames returns the table names in declaration order.
func (d *Descriptor) TableNames() []string {
	names := make([]string, len(d.tables))
	for i, t := range d.tables {
		names[i] = t.Name
	}
	return names
}

// Table looks up a table by name.
func (d *Descriptor) Table(name string) (Table, bool) {
	for _, t := range d.tables {
		if t.Name == name {
			return Table{Name: t.Name, Columns: slices.Clone(t.Columns), Description: t.Description}, true
		}
	}
	return Table{}, false
}

// HasColumn reports whether table declares column.
func (d *Descriptor) HasColumn(table, column string) bool {
	for _, t := range d.tables {
		if t.Name == table {
			return slices.Contains(t.Columns, column)
		}
	}
	return false
}

// Relationships returns the relationships in declaration order.
func (d *Descriptor) Relationships() []Relationship {
	return slices.Clone(d.relationships)
}

// Relation finds the first relationship linking tables a and b, in either direction.
func (d *Descriptor) Relation(a, b string) (Relationship, bool) {
	for _, r := range d.relationships {
		if r.links(a, b) {
			return r, true
		}
	}
	return Relationship{}, false
}

// JoinCondition renders the ON clause joining rightTable (aliased rightAlias)
// onto the already-joined leftTable (aliased leftAlias). The left side is
// always written first, e.g. "o.id = oi.order_id".
func (d *Descriptor) JoinCondition(leftAlias, leftTable, rightAlias, rightTable string) (string, error) {
	r, ok := d.Relation(leftTable, rightTable)
	if !ok {
		return "", fmt.Errorf("no relationship between %s and %s", leftTable, rightTable)
	}
	if r.FromTable == leftTable {
		return fmt.Sprintf("%s.%s = %s.%s", leftAlias, r.FromColumn, rightAlias, r.ToColumn), nil
	}
	return fmt.Sprintf("%s.%s = %s.%s", leftAlias, r.ToColumn, rightAlias, r.FromColumn), nil
}

// TableView is the boundary representation of one table.
type TableView struct {
	Columns     []string `json:"columns" yaml:"columns"`
	Description string   `json:"description" yaml:"description"`
}

// View is the boundary representation of a Descriptor, as served over HTTP
// and embedded in model prompts.
type View struct {
	Tables        map[string]TableView `json:"tables" yaml:"tables"`
	Relationships []string             `json:"relationships" yaml:"relationships"`
}

// Get returns the boundary view of the descriptor.
func (d *Descriptor) Get() View {
	v := View{
		Tables:        make(map[string]TableView, len(d.tables)),
		Relationships: make([]string, len(d.relationships)),
	}
	for _, t := range d.tables {
		v.Tables[t.Name] = TableView{Columns: slices.Clone(t.Columns), Description: t.Description}
	}
	for i, r := range d.relationships {
		v.Relationships[i] = r.String()
	}
	return v
}
