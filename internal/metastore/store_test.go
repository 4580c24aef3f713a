package metastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-radu/tablecmd/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "meta.db"), Options{
		WarehouseDir: "hdfs://namenode:8020/warehouse",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDescriptor(db, name string) *domain.TableDescriptor {
	return &domain.TableDescriptor{
		Ident:    domain.Ident(db, name),
		Kind:     domain.KindManaged,
		Provider: domain.HiveProvider,
		Schema: []domain.Column{
			{Name: "id", Type: "bigint", Comment: "row id"},
			{Name: "year", Type: "int"},
		},
		PartitionColumns: []string{"year"},
		Properties:       map[string]string{"owner": "etl"},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), false))

	exists, err := store.TableExists(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	assert.True(t, exists)

	md, err := store.GetTableMetadata(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindManaged, md.Kind)
	assert.Equal(t, []domain.Column{
		{Name: "id", Type: "bigint", Comment: "row id"},
		{Name: "year", Type: "int"},
	}, md.Schema)
	assert.Equal(t, []string{"year"}, md.PartitionColumns)
	assert.Equal(t, map[string]string{"owner": "etl"}, md.Properties)
	assert.False(t, md.CreatedAt.IsZero())
	// Managed table without explicit location gets a warehouse path.
	assert.Equal(t, "hdfs://namenode:8020/warehouse/sales.db/orders", md.Storage.Location)
}

func TestStore_CreateConflict(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), false))

	err := store.CreateTable(ctx, testDescriptor("sales", "orders"), false)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// ifNotExists leaves the existing entry untouched.
	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), true))
}

func TestStore_LookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("Sales", "Orders"), false))

	exists, err := store.TableExists(ctx, domain.Ident("SALES", "orders"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	md, err := store.GetTableMetadataOption(ctx, domain.Ident("sales", "absent"))
	require.NoError(t, err)
	assert.Nil(t, md)

	_, err = store.GetTableMetadata(ctx, domain.Ident("sales", "absent"))
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_Rename(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), false))
	require.NoError(t, store.RenameTable(ctx, domain.Ident("sales", "orders"), domain.Ident("sales", "orders_v2")))

	exists, err := store.TableExists(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = store.TableExists(ctx, domain.Ident("sales", "orders_v2"))
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.RenameTable(ctx, domain.Ident("sales", "ghost"), domain.Ident("sales", "x"))
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_LoadPartition(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), false))

	spec := domain.PartitionSpec{"year": "2020"}
	require.NoError(t, store.LoadPartition(ctx, domain.Ident("sales", "orders"),
		"hdfs://namenode:8020/staging/in", spec, false, true))

	// Loading the same partition again replaces its location.
	require.NoError(t, store.LoadPartition(ctx, domain.Ident("sales", "orders"),
		"hdfs://namenode:8020/staging/in2", spec, true, true))

	var location string
	err := store.db.QueryRow(
		`SELECT location FROM table_partitions WHERE spec = ?`, "year=2020").Scan(&location)
	require.NoError(t, err)
	assert.Equal(t, "hdfs://namenode:8020/staging/in2", location)
}

func TestStore_TemporaryTables(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	store.RegisterTemporaryTable("scratch", []domain.Column{
		{Name: "v", Type: "string", Comment: "raw value"},
	})

	temp, err := store.IsTemporaryTable(ctx, domain.TableIdent{Name: "scratch"})
	require.NoError(t, err)
	assert.True(t, temp)

	// Qualified names never resolve to temporaries.
	temp, err = store.IsTemporaryTable(ctx, domain.Ident("default", "scratch"))
	require.NoError(t, err)
	assert.False(t, temp)

	rel, err := store.LookupRelation(ctx, domain.TableIdent{Name: "scratch"})
	require.NoError(t, err)
	generic, ok := rel.(*domain.GenericRelation)
	require.True(t, ok)
	require.Len(t, generic.Fields, 1)
	assert.Equal(t, "raw value", generic.Fields[0].Comment())

	store.DropTemporaryTable("scratch")
	temp, err = store.IsTemporaryTable(ctx, domain.TableIdent{Name: "scratch"})
	require.NoError(t, err)
	assert.False(t, temp)
}

func TestStore_ListTables(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("default", "t2"), false))
	store.RegisterTemporaryTable("t1", nil)

	idents, err := store.ListTables(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []domain.TableIdent{
		{Name: "t1"},
		{Database: "default", Name: "t2"},
	}, idents)

	filtered, err := store.ListTablesPattern(ctx, "default", "t2")
	require.NoError(t, err)
	assert.Equal(t, []domain.TableIdent{{Database: "default", Name: "t2"}}, filtered)
}

func TestStore_LookupRelationCaching(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTable(ctx, testDescriptor("sales", "orders"), false))

	first, err := store.LookupRelation(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	second, err := store.LookupRelation(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, store.InvalidateTable(ctx, domain.Ident("sales", "orders")))
	third, err := store.LookupRelation(ctx, domain.Ident("sales", "orders"))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{name: "prod_events", pattern: "prod_*", want: true},
		{name: "stage_events", pattern: "prod_*", want: false},
		{name: "stage_events", pattern: "prod_*|stage_*", want: true},
		{name: "Orders", pattern: "orders", want: true},
		{name: "orders", pattern: "ord", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name+" vs "+tt.pattern, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, matchPattern(tt.name, tt.pattern))
		})
	}
}
