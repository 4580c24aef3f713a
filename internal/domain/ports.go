package domain

import "context"

// Catalog is the gateway the command layer consumes to query and mutate
// persistent table metadata. Implemented by metastore.Store; tests inject
// testutil.MockCatalog.
//
// The command layer performs no locking of its own: between a validation read
// and the following mutation the catalog is free to change, and the mutation
// call must surface its own authoritative failure, which is forwarded
// unmodified.
type Catalog interface {
	// TableExists reports whether id resolves to a persistent catalog entry.
	TableExists(ctx context.Context, id TableIdent) (bool, error)
	// IsTemporaryTable reports whether id names a session-local temporary
	// table, which is never resolvable through the persistent catalog path.
	IsTemporaryTable(ctx context.Context, id TableIdent) (bool, error)
	// GetTableMetadata returns the descriptor for id, failing with a
	// NotFoundError when absent.
	GetTableMetadata(ctx context.Context, id TableIdent) (*TableDescriptor, error)
	// GetTableMetadataOption returns the descriptor for id, or nil when
	// absent.
	GetTableMetadataOption(ctx context.Context, id TableIdent) (*TableDescriptor, error)

	// CreateTable registers a new table. When ifNotExists is set, an existing
	// entry is left untouched instead of raising a ConflictError.
	CreateTable(ctx context.Context, desc *TableDescriptor, ifNotExists bool) error
	// RenameTable renames old to new.
	RenameTable(ctx context.Context, old, new TableIdent) error
	// InvalidateTable drops any cached plan or relation for id.
	InvalidateTable(ctx context.Context, id TableIdent) error
	// LoadTable loads the data at path into an unpartitioned table.
	LoadTable(ctx context.Context, id TableIdent, path string, overwrite bool) error
	// LoadPartition loads the data at path into the partition named by spec.
	LoadPartition(ctx context.Context, id TableIdent, path string, spec PartitionSpec, overwrite, inheritTableSpecs bool) error

	// ListTables lists the tables visible in db, including session-local
	// temporary tables (which carry no owning database).
	ListTables(ctx context.Context, db string) ([]TableIdent, error)
	// ListTablesPattern is ListTables filtered by a wildcard pattern
	// ('*' matches any sequence, '|' separates alternatives).
	ListTablesPattern(ctx context.Context, db, pattern string) ([]TableIdent, error)
	// LookupRelation resolves id to a relation, temporary tables included.
	LookupRelation(ctx context.Context, id TableIdent) (Relation, error)
	// CurrentDatabase returns the session's current database name.
	CurrentDatabase(ctx context.Context) (string, error)
}
