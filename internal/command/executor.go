package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robert-radu/tablecmd/internal/domain"
	"github.com/robert-radu/tablecmd/internal/fspath"
)

// Executor runs commands against an injected catalog gateway. Each command
// executes synchronously and exactly once: validators run first (fail fast),
// then the LOAD path resolver where relevant, then the catalog calls.
type Executor struct {
	catalog  domain.Catalog
	resolver *fspath.Resolver
	logger   *slog.Logger
}

// NewExecutor creates an Executor. logger may be nil.
func NewExecutor(catalog domain.Catalog, resolver *fspath.Resolver, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{catalog: catalog, resolver: resolver, logger: logger}
}

// Execute dispatches cmd to its implementation and returns the framed result.
// Validation failures surface as *domain.CommandError; catalog failures
// propagate unmodified.
func (e *Executor) Execute(ctx context.Context, cmd Command) (*domain.Result, error) {
	e.logger.Debug("executing command", "command", cmd.Name())
	switch c := cmd.(type) {
	case *CreateTable:
		return e.executeCreateTable(ctx, c)
	case *CreateTableLike:
		return e.executeCreateTableLike(ctx, c)
	case *RenameTable:
		return e.executeRenameTable(ctx, c)
	case *LoadData:
		return e.executeLoadData(ctx, c)
	case *DescribeTable:
		return e.executeDescribeTable(ctx, c)
	case *ShowTables:
		return e.executeShowTables(ctx, c)
	case *ShowTableProperties:
		return e.executeShowTableProperties(ctx, c)
	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
}

func (e *Executor) executeCreateTable(ctx context.Context, c *CreateTable) (*domain.Result, error) {
	if err := e.catalog.CreateTable(ctx, c.Table, c.IfNotExists); err != nil {
		return nil, err
	}
	return domain.EmptyResult(), nil
}

func (e *Executor) executeCreateTableLike(ctx context.Context, c *CreateTableLike) (*domain.Result, error) {
	exists, err := e.catalog.TableExists(ctx, c.Source)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrCommand(domain.CauseSourceNotFound,
			"source table in CREATE TABLE LIKE does not exist: %s", c.Source)
	}
	temp, err := e.catalog.IsTemporaryTable(ctx, c.Source)
	if err != nil {
		return nil, err
	}
	if temp {
		return nil, domain.ErrCommand(domain.CauseSourceIsTemporary,
			"source table in CREATE TABLE LIKE cannot be a temporary table: %s", c.Source)
	}

	src, err := e.catalog.GetTableMetadata(ctx, c.Source)
	if err != nil {
		return nil, err
	}

	clone := src.Clone()
	clone.Ident = c.Target
	clone.Kind = domain.KindManaged
	clone.CreatedAt = time.Now()
	clone.LastAccessAt = time.Time{}
	clone.Storage.Location = "" // the catalog assigns a fresh location

	if err := e.catalog.CreateTable(ctx, clone, c.IfNotExists); err != nil {
		return nil, err
	}
	return domain.EmptyResult(), nil
}

func (e *Executor) executeRenameTable(ctx context.Context, c *RenameTable) (*domain.Result, error) {
	md, err := e.catalog.GetTableMetadataOption(ctx, c.Old)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, domain.ErrCommand(domain.CauseTargetNotFound,
			"table or view not found: %s", c.Old)
	}
	isView := md.Kind == domain.KindView
	if c.IsView && !isView {
		return nil, domain.ErrCommand(domain.CauseKindMismatch,
			"cannot rename a table with ALTER VIEW: %s", c.Old)
	}
	if !c.IsView && isView {
		return nil, domain.ErrCommand(domain.CauseKindMismatch,
			"cannot rename a view with ALTER TABLE: %s", c.Old)
	}

	// Any cached plan for the old name is stale after the rename.
	if err := e.catalog.InvalidateTable(ctx, c.Old); err != nil {
		return nil, err
	}
	if err := e.catalog.RenameTable(ctx, c.Old, c.New); err != nil {
		return nil, err
	}
	return domain.EmptyResult(), nil
}

func (e *Executor) executeLoadData(ctx context.Context, c *LoadData) (*domain.Result, error) {
	exists, err := e.catalog.TableExists(ctx, c.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrCommand(domain.CauseTargetNotFound,
			"LOAD DATA target table does not exist: %s", c.Table)
	}
	temp, err := e.catalog.IsTemporaryTable(ctx, c.Table)
	if err != nil {
		return nil, err
	}
	if temp {
		return nil, domain.ErrCommand(domain.CauseTargetIsTemporary,
			"LOAD DATA target cannot be a temporary table: %s", c.Table)
	}

	md, err := e.catalog.GetTableMetadata(ctx, c.Table)
	if err != nil {
		return nil, err
	}
	if md.IsDatasourceTable() {
		return nil, domain.ErrCommand(domain.CauseUnsupportedLoadKind,
			"LOAD DATA is not supported for datasource tables: %s", c.Table)
	}
	if err := validatePartitionSpec(md, c.Partition); err != nil {
		return nil, err
	}

	path, err := e.resolver.Resolve(c.Path, c.IsLocal)
	if err != nil {
		return nil, err
	}
	e.logger.Info("loading data", "table", c.Table.String(), "path", path, "overwrite", c.Overwrite)

	if len(c.Partition) > 0 {
		err = e.catalog.LoadPartition(ctx, c.Table, path, c.Partition, c.Overwrite, true)
	} else {
		err = e.catalog.LoadTable(ctx, c.Table, path, c.Overwrite)
	}
	if err != nil {
		return nil, err
	}
	return domain.EmptyResult(), nil
}

// validatePartitionSpec enforces exact key-set equality between the spec and
// the table's declared partition columns. Unknown keys are reported before
// the size check so a superset names the offending column.
func validatePartitionSpec(md *domain.TableDescriptor, spec domain.PartitionSpec) error {
	if !md.IsPartitioned() {
		if len(spec) > 0 {
			return domain.ErrCommand(domain.CauseSpecUnexpected,
				"LOAD DATA target table %s is not partitioned, but a partition spec was provided", md.Ident)
		}
		return nil
	}

	if len(spec) == 0 {
		return domain.ErrCommand(domain.CauseSpecIncomplete,
			"LOAD DATA target table %s is partitioned, but no partition spec was provided", md.Ident)
	}

	declared := make(map[string]bool, len(md.PartitionColumns))
	for _, col := range md.PartitionColumns {
		declared[col] = true
	}
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !declared[k] {
			return domain.ErrCommand(domain.CauseUnknownPartitionCol,
				"%s is not a partition column of table %s", k, md.Ident)
		}
	}
	if len(spec) != len(md.PartitionColumns) {
		return domain.ErrCommand(domain.CauseSpecIncomplete,
			"LOAD DATA partition spec for table %s must cover all partition columns (%d given, %d declared)",
			md.Ident, len(spec), len(md.PartitionColumns))
	}
	return nil
}

func (e *Executor) executeDescribeTable(ctx context.Context, c *DescribeTable) (*domain.Result, error) {
	rel, err := e.catalog.LookupRelation(ctx, c.Table)
	if err != nil {
		return nil, err
	}

	res := &domain.Result{Schema: describeSchema()}
	switch r := rel.(type) {
	case *domain.CatalogRelation:
		res.Rows = describeCatalogTable(r.Table)
		if c.Extended {
			res.Rows = append(res.Rows, describeDetail(r.Table)...)
		}
	case *domain.GenericRelation:
		for _, f := range r.Fields {
			res.Rows = append(res.Rows, domain.Row{f.Name, f.Type, f.Comment()})
		}
	default:
		return nil, fmt.Errorf("unsupported relation type %T for %s", rel, c.Table)
	}
	return res, nil
}

// describeCatalogTable emits the column rows and, for partitioned tables, the
// partition information block.
func describeCatalogTable(md *domain.TableDescriptor) []domain.Row {
	byName := make(map[string]domain.Column, len(md.Schema))
	rows := make([]domain.Row, 0, len(md.Schema))
	for _, col := range md.Schema {
		byName[col.Name] = col
		rows = append(rows, domain.Row{col.Name, col.Type, col.Comment})
	}
	if md.IsPartitioned() {
		rows = append(rows,
			domain.Row{"# Partition Information", "", ""},
			domain.Row{"# col_name", "data_type", "comment"},
		)
		for _, name := range md.PartitionColumns {
			col, ok := byName[name]
			if !ok {
				col = domain.Column{Name: name, Type: "string"}
			}
			rows = append(rows, domain.Row{col.Name, col.Type, col.Comment})
		}
	}
	return rows
}

// describeDetail emits the detailed-information block of DESCRIBE EXTENDED.
func describeDetail(md *domain.TableDescriptor) []domain.Row {
	rows := []domain.Row{
		{"", "", ""},
		{"# Detailed Table Information", "", ""},
		{"Database", md.Ident.Database, ""},
		{"Table", md.Ident.Name, ""},
		{"Type", string(md.Kind), ""},
	}
	if md.Provider != "" {
		rows = append(rows, domain.Row{"Provider", md.Provider, ""})
	}
	if !md.CreatedAt.IsZero() {
		rows = append(rows, domain.Row{"Created Time", md.CreatedAt.Format(time.RFC1123), ""})
	}
	if md.Storage.Location != "" {
		rows = append(rows, domain.Row{"Location", md.Storage.Location, ""})
	}
	if md.Comment != "" {
		rows = append(rows, domain.Row{"Comment", md.Comment, ""})
	}
	return rows
}

func (e *Executor) executeShowTables(ctx context.Context, c *ShowTables) (*domain.Result, error) {
	db := c.Database
	if db == "" {
		current, err := e.catalog.CurrentDatabase(ctx)
		if err != nil {
			return nil, err
		}
		db = current
	}

	var (
		idents []domain.TableIdent
		err    error
	)
	if c.Pattern != "" {
		idents, err = e.catalog.ListTablesPattern(ctx, db, c.Pattern)
	} else {
		idents, err = e.catalog.ListTables(ctx, db)
	}
	if err != nil {
		return nil, err
	}

	res := &domain.Result{Schema: showTablesSchema()}
	for _, id := range idents {
		// Entries with no owning database are session-local temporaries.
		res.Rows = append(res.Rows, domain.Row{id.Name, id.Database == ""})
	}
	return res, nil
}

func (e *Executor) executeShowTableProperties(ctx context.Context, c *ShowTableProperties) (*domain.Result, error) {
	res := &domain.Result{Schema: showPropertiesSchema(c.Key != nil)}

	// Temporary tables carry no persistent properties; this is the one place
	// absence short-circuits to an empty result instead of an error.
	temp, err := e.catalog.IsTemporaryTable(ctx, c.Table)
	if err != nil {
		return nil, err
	}
	if temp {
		return res, nil
	}

	md, err := e.catalog.GetTableMetadata(ctx, c.Table)
	if err != nil {
		return nil, err
	}

	if c.Key != nil {
		value, ok := md.Properties[*c.Key]
		if !ok {
			value = fmt.Sprintf("Table %s does not have property: %s", c.Table, *c.Key)
		}
		res.Rows = append(res.Rows, domain.Row{value})
		return res, nil
	}

	keys := make([]string, 0, len(md.Properties))
	for k := range md.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		res.Rows = append(res.Rows, domain.Row{k, md.Properties[k]})
	}
	return res, nil
}
