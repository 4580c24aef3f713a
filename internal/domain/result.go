package domain

// ResultColumn is one column definition in a command's fixed output schema.
type ResultColumn struct {
	Name     string
	Type     string // display type: "string" or "boolean"
	Nullable bool
}

// ResultSchema frames the tabular output of a command. Commands that produce
// no output have no schema at all, which is distinct from a schema with zero
// rows.
type ResultSchema struct {
	Columns []ResultColumn
}

// Row is one fixed-arity tuple of display-typed values (string or bool),
// matching the command's ResultSchema positionally.
type Row []any

// Result is the outcome of one executed command: an optional schema and the
// ordered rows it frames.
type Result struct {
	Schema *ResultSchema
	Rows   []Row
}

// EmptyResult is returned by commands that produce no tabular output.
func EmptyResult() *Result { return &Result{} }
