// Package command implements table-level administrative commands: each
// command validates its preconditions against the current catalog state,
// computes derived values, and issues at most one logical mutation through
// the catalog gateway.
package command

import "github.com/robert-radu/tablecmd/internal/domain"

// Command is the closed set of table commands. The executor dispatches on
// the concrete type; there is no open-ended subclassing.
type Command interface {
	commandNode()
	// Name is the command's display name, used in logs.
	Name() string
}

// CreateTable registers a new table in the catalog.
type CreateTable struct {
	Table       *domain.TableDescriptor
	IfNotExists bool
}

func (*CreateTable) commandNode() {}

// Name implements Command.
func (*CreateTable) Name() string { return "CREATE TABLE" }

// CreateTableLike creates a new managed table with the schema of an existing
// source table. The clone gets a fresh creation time and no location; the
// catalog assigns one.
type CreateTableLike struct {
	Target      domain.TableIdent
	Source      domain.TableIdent
	IfNotExists bool
}

func (*CreateTableLike) commandNode() {}

// Name implements Command.
func (*CreateTableLike) Name() string { return "CREATE TABLE LIKE" }

// RenameTable renames a table or a view. IsView must match the catalog's
// actual kind for the old name.
type RenameTable struct {
	Old    domain.TableIdent
	New    domain.TableIdent
	IsView bool
}

func (*RenameTable) commandNode() {}

// Name implements Command.
func (c *RenameTable) Name() string {
	if c.IsView {
		return "ALTER VIEW RENAME"
	}
	return "ALTER TABLE RENAME"
}

// LoadData bulk-loads a file or directory into a table, optionally into a
// single partition. Partition is nil when no PARTITION clause was given.
type LoadData struct {
	Table     domain.TableIdent
	Path      string
	IsLocal   bool
	Overwrite bool
	Partition domain.PartitionSpec
}

func (*LoadData) commandNode() {}

// Name implements Command.
func (*LoadData) Name() string { return "LOAD DATA" }

// DescribeTable returns the column layout of a table or view as rows of
// (col_name, data_type, comment).
type DescribeTable struct {
	Table    domain.TableIdent
	Extended bool
}

func (*DescribeTable) commandNode() {}

// Name implements Command.
func (*DescribeTable) Name() string { return "DESCRIBE TABLE" }

// ShowTables lists the tables in a database as rows of
// (tableName, isTemporary).
type ShowTables struct {
	Database string // empty means the session's current database
	Pattern  string // empty means no filtering
}

func (*ShowTables) commandNode() {}

// Name implements Command.
func (*ShowTables) Name() string { return "SHOW TABLES" }

// ShowTableProperties returns a table's properties, either all of them as
// (key, value) rows or, when Key is set, a single (value) row.
type ShowTableProperties struct {
	Table domain.TableIdent
	Key   *string // nil means all properties
}

func (*ShowTableProperties) commandNode() {}

// Name implements Command.
func (*ShowTableProperties) Name() string { return "SHOW TBLPROPERTIES" }

// describeSchema frames DESCRIBE output.
func describeSchema() *domain.ResultSchema {
	return &domain.ResultSchema{Columns: []domain.ResultColumn{
		{Name: "col_name", Type: "string", Nullable: false},
		{Name: "data_type", Type: "string", Nullable: false},
		{Name: "comment", Type: "string", Nullable: true},
	}}
}

// showTablesSchema frames SHOW TABLES output.
func showTablesSchema() *domain.ResultSchema {
	return &domain.ResultSchema{Columns: []domain.ResultColumn{
		{Name: "tableName", Type: "string", Nullable: false},
		{Name: "isTemporary", Type: "boolean", Nullable: false},
	}}
}

// showPropertiesSchema frames SHOW TBLPROPERTIES output. The key column is
// omitted when a specific key was requested.
func showPropertiesSchema(keyRequested bool) *domain.ResultSchema {
	if keyRequested {
		return &domain.ResultSchema{Columns: []domain.ResultColumn{
			{Name: "value", Type: "string", Nullable: false},
		}}
	}
	return &domain.ResultSchema{Columns: []domain.ResultColumn{
		{Name: "key", Type: "string", Nullable: false},
		{Name: "value", Type: "string", Nullable: false},
	}}
}
