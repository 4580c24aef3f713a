package sqlparse

import (
	"fmt"
	"strings"

	"github.com/robert-radu/tablecmd/internal/command"
	"github.com/robert-radu/tablecmd/internal/domain"
)

// Parser parses table command statements into command values.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Initialize two-token lookahead
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement and returns the command it denotes.
// Returns an error on trailing input after the statement.
func Parse(input string) (command.Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty statement")
	}

	p := NewParser(input)
	cmd := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	for p.token.Type == TOKEN_SEMICOLON {
		p.nextToken()
	}
	if p.token.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected input after statement: %s", p.token.Literal)
	}
	return cmd, nil
}

// ParseScript parses a semicolon-separated sequence of statements.
func ParseScript(input string) ([]command.Command, error) {
	p := NewParser(input)
	var cmds []command.Command
	for p.token.Type != TOKEN_EOF {
		if p.token.Type == TOKEN_SEMICOLON {
			p.nextToken()
			continue
		}
		cmd := p.parseStatement()
		if len(p.errors) > 0 {
			return nil, p.errors[0]
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// expect consumes the current token if it has the given type, otherwise
// records an error.
func (p *Parser) expect(t TokenType, what string) bool {
	if p.token.Type != t {
		p.errorf("expected %s, got %q", what, p.token.Literal)
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

func (p *Parser) parseStatement() command.Command {
	switch p.token.Type {
	case TOKEN_CREATE:
		return p.parseCreateTable()
	case TOKEN_ALTER:
		return p.parseRename()
	case TOKEN_LOAD:
		return p.parseLoadData()
	case TOKEN_DESCRIBE, TOKEN_DESC:
		return p.parseDescribe()
	case TOKEN_SHOW:
		return p.parseShow()
	default:
		p.errorf("unsupported statement starting with %q", p.token.Literal)
		return nil
	}
}

// parseTableIdent parses ident or db.ident.
func (p *Parser) parseTableIdent() domain.TableIdent {
	if p.token.Type != TOKEN_IDENT {
		p.errorf("expected table name, got %q", p.token.Literal)
		return domain.TableIdent{}
	}
	first := p.token.Literal
	p.nextToken()
	if p.token.Type != TOKEN_DOT {
		return domain.TableIdent{Name: first}
	}
	p.nextToken()
	if p.token.Type != TOKEN_IDENT {
		p.errorf("expected table name after %q., got %q", first, p.token.Literal)
		return domain.TableIdent{}
	}
	id := domain.TableIdent{Database: first, Name: p.token.Literal}
	p.nextToken()
	return id
}

// parseCreateTable handles CREATE TABLE [IF NOT EXISTS] name, followed by
// either LIKE source or a column list with optional PARTITIONED BY, COMMENT,
// LOCATION, and TBLPROPERTIES clauses.
func (p *Parser) parseCreateTable() command.Command {
	p.nextToken() // consume CREATE
	if !p.expect(TOKEN_TABLE, "TABLE") {
		return nil
	}

	ifNotExists := false
	if p.token.Type == TOKEN_IF {
		p.nextToken()
		if !p.expect(TOKEN_NOT, "NOT") || !p.expect(TOKEN_EXISTS, "EXISTS") {
			return nil
		}
		ifNotExists = true
	}

	target := p.parseTableIdent()
	if len(p.errors) > 0 {
		return nil
	}

	if p.token.Type == TOKEN_LIKE {
		p.nextToken()
		source := p.parseTableIdent()
		if len(p.errors) > 0 {
			return nil
		}
		return &command.CreateTableLike{Target: target, Source: source, IfNotExists: ifNotExists}
	}

	desc := &domain.TableDescriptor{
		Ident:    target,
		Kind:     domain.KindManaged,
		Provider: domain.HiveProvider,
	}

	if p.token.Type == TOKEN_LPAREN {
		desc.Schema = p.parseColumnDefs()
		if len(p.errors) > 0 {
			return nil
		}
	}

	for len(p.errors) == 0 {
		switch p.token.Type {
		case TOKEN_PARTITIONED:
			p.nextToken()
			if !p.expect(TOKEN_BY, "BY") {
				return nil
			}
			cols := p.parseColumnDefs()
			for _, col := range cols {
				desc.Schema = append(desc.Schema, col)
				desc.PartitionColumns = append(desc.PartitionColumns, col.Name)
			}
		case TOKEN_COMMENT:
			p.nextToken()
			desc.Comment = p.parseStringLit("table comment")
		case TOKEN_LOCATION:
			p.nextToken()
			desc.Storage.Location = p.parseStringLit("table location")
			desc.Kind = domain.KindExternal
		case TOKEN_TBLPROPERTIES:
			p.nextToken()
			desc.Properties = p.parsePropertyList()
		default:
			return &command.CreateTable{Table: desc, IfNotExists: ifNotExists}
		}
	}
	return nil
}

// parseColumnDefs parses ( name type [COMMENT 'text'], ... ).
func (p *Parser) parseColumnDefs() []domain.Column {
	if !p.expect(TOKEN_LPAREN, "(") {
		return nil
	}
	var cols []domain.Column
	for {
		if p.token.Type != TOKEN_IDENT {
			p.errorf("expected column name, got %q", p.token.Literal)
			return nil
		}
		col := domain.Column{Name: p.token.Literal}
		p.nextToken()
		col.Type = p.parseColumnType()
		if len(p.errors) > 0 {
			return nil
		}
		if p.token.Type == TOKEN_COMMENT {
			p.nextToken()
			col.Comment = p.parseStringLit("column comment")
		}
		cols = append(cols, col)

		if p.token.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(TOKEN_RPAREN, ")") {
		return nil
	}
	return cols
}

// parseColumnType parses a type name, optionally with precision/scale
// parameters, e.g. string, int, decimal(10,2).
func (p *Parser) parseColumnType() string {
	if p.token.Type != TOKEN_IDENT {
		p.errorf("expected column type, got %q", p.token.Literal)
		return ""
	}
	typ := p.token.Literal
	p.nextToken()
	if p.token.Type == TOKEN_LPAREN {
		var params []string
		p.nextToken()
		for p.token.Type == TOKEN_NUMBER {
			params = append(params, p.token.Literal)
			p.nextToken()
			if p.token.Type == TOKEN_COMMA {
				p.nextToken()
			}
		}
		if !p.expect(TOKEN_RPAREN, ")") {
			return ""
		}
		typ += "(" + strings.Join(params, ",") + ")"
	}
	return typ
}

// parsePropertyList parses ( 'key' = 'value', ... ).
func (p *Parser) parsePropertyList() map[string]string {
	if !p.expect(TOKEN_LPAREN, "(") {
		return nil
	}
	props := map[string]string{}
	for {
		key := p.parseStringLit("property key")
		if len(p.errors) > 0 {
			return nil
		}
		if !p.expect(TOKEN_EQ, "=") {
			return nil
		}
		props[key] = p.parseStringLit("property value")
		if len(p.errors) > 0 {
			return nil
		}
		if p.token.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(TOKEN_RPAREN, ")") {
		return nil
	}
	return props
}

// parseRename handles ALTER TABLE|VIEW old RENAME TO new.
func (p *Parser) parseRename() command.Command {
	p.nextToken() // consume ALTER

	isView := false
	switch p.token.Type {
	case TOKEN_TABLE:
	case TOKEN_VIEW:
		isView = true
	default:
		p.errorf("expected TABLE or VIEW after ALTER, got %q", p.token.Literal)
		return nil
	}
	p.nextToken()

	old := p.parseTableIdent()
	if len(p.errors) > 0 {
		return nil
	}
	if !p.expect(TOKEN_RENAME, "RENAME") || !p.expect(TOKEN_TO, "TO") {
		return nil
	}
	newIdent := p.parseTableIdent()
	if len(p.errors) > 0 {
		return nil
	}
	return &command.RenameTable{Old: old, New: newIdent, IsView: isView}
}

// parseLoadData handles
// LOAD DATA [LOCAL] INPATH 'path' [OVERWRITE] INTO TABLE name [PARTITION (k=v, ...)].
func (p *Parser) parseLoadData() command.Command {
	p.nextToken() // consume LOAD
	if !p.expect(TOKEN_DATA, "DATA") {
		return nil
	}

	cmd := &command.LoadData{}
	if p.token.Type == TOKEN_LOCAL {
		cmd.IsLocal = true
		p.nextToken()
	}
	if !p.expect(TOKEN_INPATH, "INPATH") {
		return nil
	}
	cmd.Path = p.parseStringLit("input path")
	if len(p.errors) > 0 {
		return nil
	}
	if p.token.Type == TOKEN_OVERWRITE {
		cmd.Overwrite = true
		p.nextToken()
	}
	if !p.expect(TOKEN_INTO, "INTO") || !p.expect(TOKEN_TABLE, "TABLE") {
		return nil
	}
	cmd.Table = p.parseTableIdent()
	if len(p.errors) > 0 {
		return nil
	}

	if p.token.Type == TOKEN_PARTITION {
		p.nextToken()
		cmd.Partition = p.parsePartitionSpec()
		if len(p.errors) > 0 {
			return nil
		}
	}
	return cmd
}

// parsePartitionSpec parses ( key = value, ... ) where values are string,
// number, or bare identifier literals.
func (p *Parser) parsePartitionSpec() domain.PartitionSpec {
	if !p.expect(TOKEN_LPAREN, "(") {
		return nil
	}
	spec := domain.PartitionSpec{}
	for {
		if p.token.Type != TOKEN_IDENT {
			p.errorf("expected partition column name, got %q", p.token.Literal)
			return nil
		}
		key := p.token.Literal
		p.nextToken()
		if !p.expect(TOKEN_EQ, "=") {
			return nil
		}
		switch p.token.Type {
		case TOKEN_STRING, TOKEN_NUMBER, TOKEN_IDENT:
			if _, dup := spec[key]; dup {
				p.errorf("duplicate partition column %q", key)
				return nil
			}
			spec[key] = p.token.Literal
			p.nextToken()
		default:
			p.errorf("expected partition value, got %q", p.token.Literal)
			return nil
		}
		if p.token.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(TOKEN_RPAREN, ")") {
		return nil
	}
	return spec
}

// parseDescribe handles DESCRIBE|DESC [EXTENDED] name.
func (p *Parser) parseDescribe() command.Command {
	p.nextToken() // consume DESCRIBE / DESC

	cmd := &command.DescribeTable{}
	if p.token.Type == TOKEN_EXTENDED {
		cmd.Extended = true
		p.nextToken()
	}
	cmd.Table = p.parseTableIdent()
	if len(p.errors) > 0 {
		return nil
	}
	return cmd
}

// parseShow handles SHOW TABLES [IN|FROM db] [LIKE 'pattern'] and
// SHOW TBLPROPERTIES name [('key')].
func (p *Parser) parseShow() command.Command {
	p.nextToken() // consume SHOW

	switch p.token.Type {
	case TOKEN_TABLES:
		p.nextToken()
		cmd := &command.ShowTables{}
		if p.token.Type == TOKEN_IN || p.token.Type == TOKEN_FROM {
			p.nextToken()
			if p.token.Type != TOKEN_IDENT {
				p.errorf("expected database name, got %q", p.token.Literal)
				return nil
			}
			cmd.Database = p.token.Literal
			p.nextToken()
		}
		if p.token.Type == TOKEN_LIKE {
			p.nextToken()
			cmd.Pattern = p.parseStringLit("table pattern")
			if len(p.errors) > 0 {
				return nil
			}
		}
		return cmd

	case TOKEN_TBLPROPERTIES:
		p.nextToken()
		cmd := &command.ShowTableProperties{}
		cmd.Table = p.parseTableIdent()
		if len(p.errors) > 0 {
			return nil
		}
		if p.token.Type == TOKEN_LPAREN {
			p.nextToken()
			key := p.parseStringLit("property key")
			if len(p.errors) > 0 {
				return nil
			}
			if !p.expect(TOKEN_RPAREN, ")") {
				return nil
			}
			cmd.Key = &key
		}
		return cmd

	default:
		p.errorf("expected TABLES or TBLPROPERTIES after SHOW, got %q", p.token.Literal)
		return nil
	}
}

// parseStringLit consumes a single-quoted string literal.
func (p *Parser) parseStringLit(what string) string {
	if p.token.Type != TOKEN_STRING {
		p.errorf("expected %s string, got %q", what, p.token.Literal)
		return ""
	}
	s := p.token.Literal
	p.nextToken()
	return s
}
