// Package domain defines core types, interfaces, and errors for the table
// command layer.
package domain

import "time"

// TableKind classifies catalog entries.
type TableKind string

// Table kinds stored in the catalog.
const (
	KindManaged   TableKind = "MANAGED"
	KindExternal  TableKind = "EXTERNAL"
	KindView      TableKind = "VIEW"
	KindTemporary TableKind = "TEMPORARY"
)

// HiveProvider marks tables stored in the legacy row/file format. Tables with
// any other non-empty provider are generic datasource tables and cannot be
// bulk-loaded.
const HiveProvider = "hive"

// TableIdent identifies a table, optionally qualified by a database name.
// It is the identity key for all catalog lookups.
type TableIdent struct {
	Database string // empty for unqualified / session-local names
	Name     string
}

// Ident builds a qualified TableIdent.
func Ident(database, name string) TableIdent {
	return TableIdent{Database: database, Name: name}
}

// String renders the identifier as db.name, or just name when unqualified.
func (t TableIdent) String() string {
	if t.Database == "" {
		return t.Name
	}
	return t.Database + "." + t.Name
}

// Column describes one column of a table schema.
type Column struct {
	Name    string
	Type    string
	Comment string
}

// StorageDescriptor holds the physical-format portion of a table descriptor.
// All fields are optional; empty strings mean "unset".
type StorageDescriptor struct {
	Location     string // canonical URI of the table data
	InputFormat  string
	OutputFormat string
	SerDe        string
}

// TableDescriptor is the persistent catalog metadata for one table.
type TableDescriptor struct {
	Ident            TableIdent
	Kind             TableKind
	Provider         string // "" or "hive" for legacy format, anything else is a datasource table
	Schema           []Column
	PartitionColumns []string // ordered declared partition column names
	Storage          StorageDescriptor
	Properties       map[string]string
	Comment          string
	CreatedAt        time.Time
	LastAccessAt     time.Time
}

// IsPartitioned reports whether the table declares partition columns.
func (t *TableDescriptor) IsPartitioned() bool {
	return len(t.PartitionColumns) > 0
}

// IsDatasourceTable reports whether the table is backed by a generic
// datasource format rather than the legacy row/file format.
func (t *TableDescriptor) IsDatasourceTable() bool {
	return t.Provider != "" && t.Provider != HiveProvider
}

// Clone returns a deep copy of the descriptor.
func (t *TableDescriptor) Clone() *TableDescriptor {
	c := *t
	c.Schema = append([]Column(nil), t.Schema...)
	c.PartitionColumns = append([]string(nil), t.PartitionColumns...)
	if t.Properties != nil {
		c.Properties = make(map[string]string, len(t.Properties))
		for k, v := range t.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

// PartitionSpec maps partition column names to literal values. A spec used
// for LOAD DATA must cover the target table's declared partition columns
// exactly.
type PartitionSpec map[string]string
