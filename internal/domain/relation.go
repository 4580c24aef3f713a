package domain

// Relation is what LookupRelation returns: either a native catalog-backed
// relation or a generic one carrying only a field list. The command layer
// type-switches on the concrete kind when assembling DESCRIBE output.
type Relation interface {
	relationNode()
}

// CatalogRelation is a relation backed by a persistent catalog table.
type CatalogRelation struct {
	Table *TableDescriptor
}

func (*CatalogRelation) relationNode() {}

// RelationField describes one field of a generic relation. Metadata carries
// free-form tags; the "comment" tag, when present, is surfaced by DESCRIBE.
type RelationField struct {
	Name     string
	Type     string
	Metadata map[string]string
}

// Comment returns the field's "comment" metadata tag, or the empty string.
func (f RelationField) Comment() string {
	return f.Metadata["comment"]
}

// GenericRelation is a relation not backed by the persistent catalog, such as
// a session-local temporary view.
type GenericRelation struct {
	Fields []RelationField
}

func (*GenericRelation) relationNode() {}
