// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"github.com/robert-radu/tablecmd/internal/domain"
)

// MutationCall records one catalog mutation issued through the mock, for
// asserting that failed validations issue zero mutations.
type MutationCall struct {
	Method string // "CreateTable", "RenameTable", "InvalidateTable", "LoadTable", "LoadPartition"
	Ident  domain.TableIdent
	Path   string               // LoadTable / LoadPartition only
	Spec   domain.PartitionSpec // LoadPartition only
}

// MockCatalog implements domain.Catalog for testing. Unset funcs panic on
// use, so tests only stub the calls they expect.
type MockCatalog struct {
	TableExistsFn            func(ctx context.Context, id domain.TableIdent) (bool, error)
	IsTemporaryTableFn       func(ctx context.Context, id domain.TableIdent) (bool, error)
	GetTableMetadataFn       func(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error)
	GetTableMetadataOptionFn func(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error)
	CreateTableFn            func(ctx context.Context, desc *domain.TableDescriptor, ifNotExists bool) error
	RenameTableFn            func(ctx context.Context, old, new domain.TableIdent) error
	InvalidateTableFn        func(ctx context.Context, id domain.TableIdent) error
	LoadTableFn              func(ctx context.Context, id domain.TableIdent, path string, overwrite bool) error
	LoadPartitionFn          func(ctx context.Context, id domain.TableIdent, path string, spec domain.PartitionSpec, overwrite, inheritTableSpecs bool) error
	ListTablesFn             func(ctx context.Context, db string) ([]domain.TableIdent, error)
	ListTablesPatternFn      func(ctx context.Context, db, pattern string) ([]domain.TableIdent, error)
	LookupRelationFn         func(ctx context.Context, id domain.TableIdent) (domain.Relation, error)
	CurrentDatabaseFn        func(ctx context.Context) (string, error)

	// Mutations collects every mutation call in order, for assertions.
	Mutations []MutationCall
}

// TableExists implements the interface method for testing.
func (m *MockCatalog) TableExists(ctx context.Context, id domain.TableIdent) (bool, error) {
	if m.TableExistsFn != nil {
		return m.TableExistsFn(ctx, id)
	}
	panic("unexpected call to MockCatalog.TableExists")
}

// IsTemporaryTable implements the interface method for testing.
func (m *MockCatalog) IsTemporaryTable(ctx context.Context, id domain.TableIdent) (bool, error) {
	if m.IsTemporaryTableFn != nil {
		return m.IsTemporaryTableFn(ctx, id)
	}
	panic("unexpected call to MockCatalog.IsTemporaryTable")
}

// GetTableMetadata implements the interface method for testing.
func (m *MockCatalog) GetTableMetadata(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error) {
	if m.GetTableMetadataFn != nil {
		return m.GetTableMetadataFn(ctx, id)
	}
	panic("unexpected call to MockCatalog.GetTableMetadata")
}

// GetTableMetadataOption implements the interface method for testing.
func (m *MockCatalog) GetTableMetadataOption(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error) {
	if m.GetTableMetadataOptionFn != nil {
		return m.GetTableMetadataOptionFn(ctx, id)
	}
	panic("unexpected call to MockCatalog.GetTableMetadataOption")
}

// CreateTable implements the interface method for testing.
func (m *MockCatalog) CreateTable(ctx context.Context, desc *domain.TableDescriptor, ifNotExists bool) error {
	m.Mutations = append(m.Mutations, MutationCall{Method: "CreateTable", Ident: desc.Ident})
	if m.CreateTableFn != nil {
		return m.CreateTableFn(ctx, desc, ifNotExists)
	}
	return nil
}

// RenameTable implements the interface method for testing.
func (m *MockCatalog) RenameTable(ctx context.Context, old, new domain.TableIdent) error {
	m.Mutations = append(m.Mutations, MutationCall{Method: "RenameTable", Ident: old})
	if m.RenameTableFn != nil {
		return m.RenameTableFn(ctx, old, new)
	}
	return nil
}

// InvalidateTable implements the interface method for testing.
func (m *MockCatalog) InvalidateTable(ctx context.Context, id domain.TableIdent) error {
	m.Mutations = append(m.Mutations, MutationCall{Method: "InvalidateTable", Ident: id})
	if m.InvalidateTableFn != nil {
		return m.InvalidateTableFn(ctx, id)
	}
	return nil
}

// LoadTable implements the interface method for testing.
func (m *MockCatalog) LoadTable(ctx context.Context, id domain.TableIdent, path string, overwrite bool) error {
	m.Mutations = append(m.Mutations, MutationCall{Method: "LoadTable", Ident: id, Path: path})
	if m.LoadTableFn != nil {
		return m.LoadTableFn(ctx, id, path, overwrite)
	}
	return nil
}

// LoadPartition implements the interface method for testing.
func (m *MockCatalog) LoadPartition(ctx context.Context, id domain.TableIdent, path string, spec domain.PartitionSpec, overwrite, inheritTableSpecs bool) error {
	m.Mutations = append(m.Mutations, MutationCall{Method: "LoadPartition", Ident: id, Path: path, Spec: spec})
	if m.LoadPartitionFn != nil {
		return m.LoadPartitionFn(ctx, id, path, spec, overwrite, inheritTableSpecs)
	}
	return nil
}

// ListTables implements the interface method for testing.
func (m *MockCatalog) ListTables(ctx context.Context, db string) ([]domain.TableIdent, error) {
	if m.ListTablesFn != nil {
		return m.ListTablesFn(ctx, db)
	}
	panic("unexpected call to MockCatalog.ListTables")
}

// ListTablesPattern implements the interface method for testing.
func (m *MockCatalog) ListTablesPattern(ctx context.Context, db, pattern string) ([]domain.TableIdent, error) {
	if m.ListTablesPatternFn != nil {
		return m.ListTablesPatternFn(ctx, db, pattern)
	}
	panic("unexpected call to MockCatalog.ListTablesPattern")
}

// LookupRelation implements the interface method for testing.
func (m *MockCatalog) LookupRelation(ctx context.Context, id domain.TableIdent) (domain.Relation, error) {
	if m.LookupRelationFn != nil {
		return m.LookupRelationFn(ctx, id)
	}
	panic("unexpected call to MockCatalog.LookupRelation")
}

// CurrentDatabase implements the interface method for testing.
func (m *MockCatalog) CurrentDatabase(ctx context.Context) (string, error) {
	if m.CurrentDatabaseFn != nil {
		return m.CurrentDatabaseFn(ctx)
	}
	panic("unexpected call to MockCatalog.CurrentDatabase")
}

// MutationCount returns the number of recorded mutation calls.
func (m *MockCatalog) MutationCount() int { return len(m.Mutations) }

// LastMutation returns the most recent mutation call, or nil if none.
func (m *MockCatalog) LastMutation() *MutationCall {
	if len(m.Mutations) == 0 {
		return nil
	}
	return &m.Mutations[len(m.Mutations)-1]
}

var _ domain.Catalog = (*MockCatalog)(nil)
