package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/robert-radu/tablecmd/internal/domain"
)

// Options configures a Store.
type Options struct {
	// DefaultDatabase is the session's current database. Defaults to "default".
	DefaultDatabase string
	// WarehouseDir is the root URI under which managed tables without an
	// explicit location are placed, e.g. "hdfs://namenode:8020/warehouse".
	WarehouseDir string
}

// Store is a SQLite-backed implementation of domain.Catalog. Persistent
// tables live in the database; temporary tables are session-local and kept
// in memory only.
type Store struct {
	db   *sql.DB
	opts Options

	mu   sync.RWMutex
	temp map[string]*domain.TableDescriptor // lower-cased name → descriptor
	rels map[string]domain.Relation         // relation cache, keyed by qualified name
}

// Open opens (creating if necessary) the metastore at path and runs pending
// migrations.
func Open(path string, opts Options) (*Store, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.DefaultDatabase == "" {
		opts.DefaultDatabase = "default"
	}
	return &Store{
		db:   db,
		opts: opts,
		temp: map[string]*domain.TableDescriptor{},
		rels: map[string]domain.Relation{},
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// resolve fills in the current database for unqualified identifiers and
// lower-cases both parts, which makes lookups case-insensitive.
func (s *Store) resolve(id domain.TableIdent) domain.TableIdent {
	db := id.Database
	if db == "" {
		db = s.opts.DefaultDatabase
	}
	return domain.TableIdent{
		Database: strings.ToLower(db),
		Name:     strings.ToLower(id.Name),
	}
}

// RegisterTemporaryTable registers a session-local temporary table visible
// only through its unqualified name. It shadows nothing in the persistent
// catalog.
func (s *Store) RegisterTemporaryTable(name string, schema []domain.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp[strings.ToLower(name)] = &domain.TableDescriptor{
		Ident:     domain.TableIdent{Name: name},
		Kind:      domain.KindTemporary,
		Schema:    schema,
		CreatedAt: time.Now(),
	}
}

// DropTemporaryTable removes a session-local temporary table if present.
func (s *Store) DropTemporaryTable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.temp, strings.ToLower(name))
}

func (s *Store) lookupTemp(id domain.TableIdent) *domain.TableDescriptor {
	if id.Database != "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.temp[strings.ToLower(id.Name)]
}

// TableExists implements domain.Catalog.
func (s *Store) TableExists(ctx context.Context, id domain.TableIdent) (bool, error) {
	rid := s.resolve(id)
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM tables WHERE database_name = ? AND table_name = ?`,
		rid.Database, rid.Name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("table exists %s: %w", id, err)
	}
	return n > 0, nil
}

// IsTemporaryTable implements domain.Catalog. Only unqualified names can
// refer to temporary tables.
func (s *Store) IsTemporaryTable(_ context.Context, id domain.TableIdent) (bool, error) {
	return s.lookupTemp(id) != nil, nil
}

// GetTableMetadata implements domain.Catalog.
func (s *Store) GetTableMetadata(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error) {
	md, err := s.GetTableMetadataOption(ctx, id)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, domain.ErrNotFound("table %s not found in metastore", id)
	}
	return md, nil
}

// GetTableMetadataOption implements domain.Catalog.
func (s *Store) GetTableMetadataOption(ctx context.Context, id domain.TableIdent) (*domain.TableDescriptor, error) {
	rid := s.resolve(id)

	md := &domain.TableDescriptor{Ident: rid}
	var (
		tableID    string
		kind       string
		lastAccess sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, provider, comment, location, input_format, output_format, serde,
		        created_at, last_access_at
		 FROM tables WHERE database_name = ? AND table_name = ?`,
		rid.Database, rid.Name).
		Scan(&tableID, &kind, &md.Provider, &md.Comment, &md.Storage.Location,
			&md.Storage.InputFormat, &md.Storage.OutputFormat, &md.Storage.SerDe,
			&md.CreatedAt, &lastAccess)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", id, err)
	}
	md.Kind = domain.TableKind(kind)
	if lastAccess.Valid {
		md.LastAccessAt = lastAccess.Time
	}

	if md.Schema, err = s.loadColumns(ctx, tableID); err != nil {
		return nil, fmt.Errorf("load columns for %s: %w", id, err)
	}
	if md.PartitionColumns, err = s.loadPartitionColumns(ctx, tableID); err != nil {
		return nil, fmt.Errorf("load partition columns for %s: %w", id, err)
	}
	if md.Properties, err = s.loadProperties(ctx, tableID); err != nil {
		return nil, fmt.Errorf("load properties for %s: %w", id, err)
	}
	return md, nil
}

func (s *Store) loadColumns(ctx context.Context, tableID string) ([]domain.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, column_type, comment FROM table_columns
		 WHERE table_id = ? ORDER BY position`, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Comment); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *Store) loadPartitionColumns(ctx context.Context, tableID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name FROM table_partition_columns
		 WHERE table_id = ? ORDER BY position`, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) loadProperties(ctx context.Context, tableID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM table_properties WHERE table_id = ?`, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		props[k] = v
	}
	if len(props) == 0 {
		return nil, rows.Err()
	}
	return props, rows.Err()
}

// CreateTable implements domain.Catalog. Managed tables without a location
// get one assigned under the warehouse directory.
func (s *Store) CreateTable(ctx context.Context, desc *domain.TableDescriptor, ifNotExists bool) error {
	rid := s.resolve(desc.Ident)

	location := desc.Storage.Location
	if location == "" && desc.Kind == domain.KindManaged && s.opts.WarehouseDir != "" {
		location = strings.TrimSuffix(s.opts.WarehouseDir, "/") + "/" + rid.Database + ".db/" + rid.Name
	}
	createdAt := desc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create table: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	tableID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tables (id, database_name, table_name, kind, provider, comment,
		                     location, input_format, output_format, serde, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tableID, rid.Database, rid.Name, string(desc.Kind), desc.Provider, desc.Comment,
		location, desc.Storage.InputFormat, desc.Storage.OutputFormat, desc.Storage.SerDe,
		createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			if ifNotExists {
				return nil
			}
			return domain.ErrConflict("table %s already exists", desc.Ident)
		}
		return fmt.Errorf("insert table %s: %w", desc.Ident, err)
	}

	for i, col := range desc.Schema {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO table_columns (table_id, position, column_name, column_type, comment)
			 VALUES (?, ?, ?, ?, ?)`,
			tableID, i, col.Name, col.Type, col.Comment); err != nil {
			return fmt.Errorf("insert column %q: %w", col.Name, err)
		}
	}
	for i, name := range desc.PartitionColumns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO table_partition_columns (table_id, position, column_name)
			 VALUES (?, ?, ?)`, tableID, i, name); err != nil {
			return fmt.Errorf("insert partition column %q: %w", name, err)
		}
	}
	for k, v := range desc.Properties {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO table_properties (table_id, key, value) VALUES (?, ?, ?)`,
			tableID, k, v); err != nil {
			return fmt.Errorf("insert property %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create table: %w", err)
	}
	return nil
}

// RenameTable implements domain.Catalog.
func (s *Store) RenameTable(ctx context.Context, old, new domain.TableIdent) error {
	rOld, rNew := s.resolve(old), s.resolve(new)

	res, err := s.db.ExecContext(ctx,
		`UPDATE tables SET database_name = ?, table_name = ?
		 WHERE database_name = ? AND table_name = ?`,
		rNew.Database, rNew.Name, rOld.Database, rOld.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("table %s already exists", new)
		}
		return fmt.Errorf("rename %s to %s: %w", old, new, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename %s to %s: %w", old, new, err)
	}
	if n == 0 {
		return domain.ErrNotFound("table %s not found in metastore", old)
	}

	s.mu.Lock()
	delete(s.rels, s.relKey(old))
	delete(s.rels, s.relKey(new))
	s.mu.Unlock()
	return nil
}

// InvalidateTable implements domain.Catalog by dropping any cached relation
// for the identifier.
func (s *Store) InvalidateTable(_ context.Context, id domain.TableIdent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rels, s.relKey(id))
	return nil
}

// LoadTable implements domain.Catalog for unpartitioned tables. The byte
// movement itself belongs to the storage layer; the metastore records the
// access time.
func (s *Store) LoadTable(ctx context.Context, id domain.TableIdent, path string, _ bool) error {
	rid := s.resolve(id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE tables SET last_access_at = ? WHERE database_name = ? AND table_name = ?`,
		time.Now(), rid.Database, rid.Name)
	if err != nil {
		return fmt.Errorf("load table %s from %s: %w", id, path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("table %s not found in metastore", id)
	}
	return nil
}

// LoadPartition implements domain.Catalog by upserting the partition entry
// with the resolved source path as its location.
func (s *Store) LoadPartition(ctx context.Context, id domain.TableIdent, path string, spec domain.PartitionSpec, _ bool, _ bool) error {
	rid := s.resolve(id)

	var tableID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tables WHERE database_name = ? AND table_name = ?`,
		rid.Database, rid.Name).Scan(&tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("table %s not found in metastore", id)
	}
	if err != nil {
		return fmt.Errorf("load partition of %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO table_partitions (table_id, spec, location, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (table_id, spec) DO UPDATE SET location = excluded.location`,
		tableID, canonicalSpec(spec), path, time.Now())
	if err != nil {
		return fmt.Errorf("upsert partition of %s: %w", id, err)
	}
	return nil
}

// canonicalSpec renders a partition spec as key=value pairs joined by '/',
// sorted by key for a stable primary key.
func canonicalSpec(spec domain.PartitionSpec) string {
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+spec[k])
	}
	return strings.Join(parts, "/")
}

// ListTables implements domain.Catalog. Session-local temporary tables are
// included with no owning database.
func (s *Store) ListTables(ctx context.Context, db string) ([]domain.TableIdent, error) {
	return s.listTables(ctx, db, "")
}

// ListTablesPattern implements domain.Catalog.
func (s *Store) ListTablesPattern(ctx context.Context, db, pattern string) ([]domain.TableIdent, error) {
	return s.listTables(ctx, db, pattern)
}

func (s *Store) listTables(ctx context.Context, db, pattern string) ([]domain.TableIdent, error) {
	dbName := strings.ToLower(db)
	if dbName == "" {
		dbName = s.opts.DefaultDatabase
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT database_name, table_name FROM tables
		 WHERE database_name = ? ORDER BY table_name`, dbName)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", db, err)
	}
	defer rows.Close()

	var out []domain.TableIdent
	for rows.Next() {
		var id domain.TableIdent
		if err := rows.Scan(&id.Database, &id.Name); err != nil {
			return nil, err
		}
		if pattern == "" || matchPattern(id.Name, pattern) {
			out = append(out, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	for _, md := range s.temp {
		if pattern == "" || matchPattern(md.Ident.Name, pattern) {
			out = append(out, domain.TableIdent{Name: md.Ident.Name})
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LookupRelation implements domain.Catalog. Temporary tables resolve to a
// generic relation and are never cached; catalog relations are cached until
// invalidated.
func (s *Store) LookupRelation(ctx context.Context, id domain.TableIdent) (domain.Relation, error) {
	if md := s.lookupTemp(id); md != nil {
		fields := make([]domain.RelationField, 0, len(md.Schema))
		for _, col := range md.Schema {
			f := domain.RelationField{Name: col.Name, Type: col.Type}
			if col.Comment != "" {
				f.Metadata = map[string]string{"comment": col.Comment}
			}
			fields = append(fields, f)
		}
		return &domain.GenericRelation{Fields: fields}, nil
	}

	key := s.relKey(id)
	s.mu.RLock()
	if rel, ok := s.rels[key]; ok {
		s.mu.RUnlock()
		return rel, nil
	}
	s.mu.RUnlock()

	md, err := s.GetTableMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	rel := &domain.CatalogRelation{Table: md}

	s.mu.Lock()
	s.rels[key] = rel
	s.mu.Unlock()
	return rel, nil
}

// CurrentDatabase implements domain.Catalog.
func (s *Store) CurrentDatabase(_ context.Context) (string, error) {
	return s.opts.DefaultDatabase, nil
}

func (s *Store) relKey(id domain.TableIdent) string {
	rid := s.resolve(id)
	return rid.Database + "." + rid.Name
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
