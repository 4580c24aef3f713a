// Package sqlparse provides a lexer and recursive-descent parser for the
// table command statements: CREATE TABLE (plain and LIKE), ALTER TABLE/VIEW
// RENAME, LOAD DATA, DESCRIBE, SHOW TABLES, and SHOW TBLPROPERTIES.
package sqlparse

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // identifier
	TOKEN_NUMBER // 123, 45.67
	TOKEN_STRING // 'hello'

	TOKEN_EQ        // =
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )

	// TOKEN_ALTER and below are SQL keywords (alphabetical).
	TOKEN_ALTER
	TOKEN_BY
	TOKEN_COMMENT
	TOKEN_CREATE
	TOKEN_DATA
	TOKEN_DESC
	TOKEN_DESCRIBE
	TOKEN_EXISTS
	TOKEN_EXTENDED
	TOKEN_FROM
	TOKEN_IF
	TOKEN_IN
	TOKEN_INPATH
	TOKEN_INTO
	TOKEN_LIKE
	TOKEN_LOAD
	TOKEN_LOCAL
	TOKEN_LOCATION
	TOKEN_NOT
	TOKEN_OVERWRITE
	TOKEN_PARTITION
	TOKEN_PARTITIONED
	TOKEN_RENAME
	TOKEN_SHOW
	TOKEN_TABLE
	TOKEN_TABLES
	TOKEN_TBLPROPERTIES
	TOKEN_TO
	TOKEN_VIEW
)

// Token is one lexical token with its literal text.
type Token struct {
	Type    TokenType
	Literal string
}

// keywords maps upper-cased identifiers to keyword token types.
var keywords = map[string]TokenType{
	"ALTER":         TOKEN_ALTER,
	"BY":            TOKEN_BY,
	"COMMENT":       TOKEN_COMMENT,
	"CREATE":        TOKEN_CREATE,
	"DATA":          TOKEN_DATA,
	"DESC":          TOKEN_DESC,
	"DESCRIBE":      TOKEN_DESCRIBE,
	"EXISTS":        TOKEN_EXISTS,
	"EXTENDED":      TOKEN_EXTENDED,
	"FROM":          TOKEN_FROM,
	"IF":            TOKEN_IF,
	"IN":            TOKEN_IN,
	"INPATH":        TOKEN_INPATH,
	"INTO":          TOKEN_INTO,
	"LIKE":          TOKEN_LIKE,
	"LOAD":          TOKEN_LOAD,
	"LOCAL":         TOKEN_LOCAL,
	"LOCATION":      TOKEN_LOCATION,
	"NOT":           TOKEN_NOT,
	"OVERWRITE":     TOKEN_OVERWRITE,
	"PARTITION":     TOKEN_PARTITION,
	"PARTITIONED":   TOKEN_PARTITIONED,
	"RENAME":        TOKEN_RENAME,
	"SHOW":          TOKEN_SHOW,
	"TABLE":         TOKEN_TABLE,
	"TABLES":        TOKEN_TABLES,
	"TBLPROPERTIES": TOKEN_TBLPROPERTIES,
	"TO":            TOKEN_TO,
	"VIEW":          TOKEN_VIEW,
}

// lookupIdent returns the keyword token type for ident, or TOKEN_IDENT.
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return TOKEN_IDENT
}
