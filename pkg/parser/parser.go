package parser

import (
	"ebscript/pkg/ast"
	"ebscript/pkg/lexer"
	"ebscript/pkg/object"
	"ebscript/pkg/registry"
	"ebscript/pkg/token"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /=
	OR          // or ||
	AND         // and &&
	EQUALS      // ==
	LESSGREATER // > or <
	SUM         // +
	PRODUCT     // *
	PREFIX      // -X or !X
	POWER       // X ^ Y
	CALL        // myFunction(X), x[i], x.length, x++
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:      ASSIGN,
	token.PLUS_EQ:     ASSIGN,
	token.MINUS_EQ:    ASSIGN,
	token.STAR_EQ:     ASSIGN,
	token.SLASH_EQ:    ASSIGN,
	token.OR:          OR,
	token.AND:         AND,
	token.EQ:          EQUALS,
	token.NOT_EQ:      EQUALS,
	token.LT:          LESSGREATER,
	token.GT:          LESSGREATER,
	token.LTE:         LESSGREATER,
	token.GTE:         LESSGREATER,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.SLASH:       PRODUCT,
	token.ASTERISK:    PRODUCT,
	token.PERCENT:     PRODUCT,
	token.CARET:       POWER,
	token.LPAREN:      CALL,
	token.LBRACKET:    CALL,
	token.DOT:         CALL,
	token.PLUS_PLUS:   CALL,
	token.MINUS_MINUS: CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Option configures a Parser.
type Option func(*Parser)

// WithRegistry sets the builtin catalog used to validate dotted calls.
func WithRegistry(r *registry.Registry) Option {
	return func(p *Parser) { p.registry = r }
}

// WithPlugins sets the plugin table consulted for `custom.*` calls.
func WithPlugins(pl *registry.Plugins) Option {
	return func(p *Parser) { p.plugins = pl }
}

type Parser struct {
	l           *lexer.Lexer
	errors      []string
	diagnostics []*object.Error

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	registry *registry.Registry
	plugins  *registry.Plugins

	// scopes tracks declared variable kinds for static argument checks.
	scopes    []map[string]object.Kind
	loopDepth int

	typedefs map[string]*ast.TypeSpec
}

func New(l *lexer.Lexer, opts ...Option) *Parser {
	p := &Parser{
		l:        l,
		errors:   []string{},
		scopes:   []map[string]object.Kind{{}},
		typedefs: map[string]*ast.TypeSpec{},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.LONG, p.parseLongLiteral)
	p.registerPrefix(token.DOUBLE, p.parseDoubleLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.DATE, p.parseDateLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.TYPEOF, p.parseTypeofExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseJSONLiteral)
	p.registerPrefix(token.HASH, p.parseHashCall)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.SLASH, token.ASTERISK, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.GT, token.LTE, token.GTE,
		token.AND, token.OR,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.CARET, p.parsePowerExpression)
	for _, t := range []token.TokenType{token.ASSIGN, token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ} {
		p.registerInfix(t, p.parseAssignExpression)
	}
	p.registerInfix(token.PLUS_PLUS, p.parsePostfixExpression)
	p.registerInfix(token.MINUS_MINUS, p.parsePostfixExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.DOT, p.parsePropertyExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse lexes and parses src in one step.
func Parse(src string, opts ...Option) (*ast.Program, []*object.Error) {
	p := New(lexer.New(src), opts...)
	program := p.ParseProgram()
	return program, p.Diagnostics()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for p.curToken.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	// Lexical errors are reported ahead of the parse errors they cause.
	if lexErrs := p.l.Errors(); len(lexErrs) > 0 {
		var diags []*object.Error
		var msgs []string
		for _, le := range lexErrs {
			d := object.NewError(object.LexError, "%s", le.Message)
			d.Detail = le.Code
			d.Line = le.Line
			diags = append(diags, d)
			msgs = append(msgs, d.Error())
		}
		p.diagnostics = append(diags, p.diagnostics...)
		p.errors = append(msgs, p.errors...)
	}

	return program
}

// parseStatement parses one statement. A statement that produced an error
// is dropped whole so no partial node reaches the tree.
func (p *Parser) parseStatement() ast.Statement {
	before := len(p.errors)
	stmt := p.parseStatementInner()
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	if len(p.errors) > before {
		return nil
	}
	return stmt
}

func (p *Parser) parseStatementInner() ast.Statement {
	switch p.curToken.Type {
	case token.SEMICOLON:
		return nil
	case token.VAR, token.CONST:
		return p.nilIfEmpty(p.parseVarStatement())
	case token.FUNCTION:
		return p.nilIfEmpty(p.parseFunctionStatement())
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.nilIfEmpty(p.parseIfStatement())
	case token.WHILE:
		return p.nilIfEmpty(p.parseWhileStatement())
	case token.DO:
		return p.nilIfEmpty(p.parseDoWhileStatement())
	case token.FOR:
		return p.nilIfEmpty(p.parseForStatement())
	case token.FOREACH:
		return p.nilIfEmpty(p.parseForEachStatement())
	case token.BREAK, token.CONTINUE:
		return p.parseLoopControl()
	case token.PRINT:
		return p.parsePrintStatement()
	case token.CALL:
		return p.nilIfEmpty(p.parseCallStatement())
	case token.TRY:
		return p.nilIfEmpty(p.parseTryStatement())
	case token.RAISE:
		return p.nilIfEmpty(p.parseRaiseStatement())
	case token.IMPORT:
		return p.nilIfEmpty(p.parseImportStatement())
	case token.LBRACE:
		return p.nilIfEmpty(p.parseBlockStatement())
	case token.ILLEGAL:
		// already reported by the lexer
		return nil
	case token.IDENT:
		if p.peekTokenIs(token.TYPEOF) {
			return p.nilIfEmpty(p.parseTypedefStatement())
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// nilIfEmpty turns a typed nil statement pointer into an untyped nil.
func (p *Parser) nilIfEmpty(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.VarStatement:
		if s == nil {
			return nil
		}
	case *ast.TypedefStatement:
		if s == nil {
			return nil
		}
	case *ast.FunctionStatement:
		if s == nil {
			return nil
		}
	case *ast.IfStatement:
		if s == nil {
			return nil
		}
	case *ast.WhileStatement:
		if s == nil {
			return nil
		}
	case *ast.DoWhileStatement:
		if s == nil {
			return nil
		}
	case *ast.ForStatement:
		if s == nil {
			return nil
		}
	case *ast.ForEachStatement:
		if s == nil {
			return nil
		}
	case *ast.CallStatement:
		if s == nil {
			return nil
		}
	case *ast.TryStatement:
		if s == nil {
			return nil
		}
	case *ast.RaiseStatement:
		if s == nil {
			return nil
		}
	case *ast.ImportStatement:
		if s == nil {
			return nil
		}
	case *ast.BlockStatement:
		if s == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseVarStatement() *ast.VarStatement {
	stmt := &ast.VarStatement{Token: p.curToken, Const: p.curTokenIs(token.CONST)}

	if !p.expectName() {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		stmt.Type = p.parseTypeSpec()
		if stmt.Type == nil {
			return nil
		}
	}

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
		if stmt.Value == nil {
			return nil
		}
		if stmt.Type != nil && !stmt.Type.Array {
			declared := object.DeclaredKind(stmt.Type.Name, false)
			if got := p.staticKind(stmt.Value); got != object.KindInvalid && !object.Assignable(got, declared) {
				p.fail(object.TypeMismatch, stmt.Token.Line, "cannot assign %s to %s variable '%s'",
					got.Name(), declared.Name(), stmt.Name.Value)
				return nil
			}
		}
	} else if stmt.Const {
		p.fail(object.SyntaxError, stmt.Token.Line, "constant '%s' requires a value", stmt.Name.Value)
		return nil
	}

	if stmt.Type != nil {
		p.declare(stmt.Name.Value, object.DeclaredKind(stmt.Type.Name, stmt.Type.Array))
	}
	return stmt
}

// parseTypeSpec parses a type at the current token: `int`, `string[5]`,
// `array[*]`, `array.int[3, 4]`, `map`, `sorted map`, `record {...}`,
// `array.record {...}` or a typedef name.
func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	ts := &ast.TypeSpec{Token: p.curToken}
	switch {
	case p.curTokenIs(token.TYPE):
		name, _ := token.CanonicalType(p.curToken.Literal)
		ts.Name = name
		if name == "array" {
			ts.Array = true
			ts.Name = "any"
		}
	case p.curTokenIs(token.IDENT) && p.curToken.Literal == "sorted":
		if !p.expectPeek(token.TYPE) || p.curToken.Literal != "map" {
			p.fail(object.SyntaxError, p.curToken.Line, "expected map after sorted, got %q", p.curToken.Literal)
			return nil
		}
		ts.Name = "map"
		ts.Sorted = true
	case p.curTokenIs(token.IDENT) && strings.HasPrefix(p.curToken.Literal, "array."):
		name, ok := token.CanonicalType(strings.TrimPrefix(p.curToken.Literal, "array."))
		if !ok {
			p.fail(object.SyntaxError, p.curToken.Line, "unknown array element type %q", p.curToken.Literal)
			return nil
		}
		ts.Name = name
		ts.Array = true
	case p.curTokenIs(token.IDENT) && p.typedefs[p.curToken.Literal] != nil:
		alias := *p.typedefs[p.curToken.Literal]
		alias.Token = p.curToken
		if alias.Array {
			return &alias
		}
		ts = &alias
	default:
		p.fail(object.SyntaxError, p.curToken.Line, "expected a type name, got %q", p.curToken.Literal)
		return nil
	}

	if ts.Name == "record" && ts.Fields == nil {
		if !p.parseRecordFields(ts) {
			return nil
		}
	}

	if !p.peekTokenIs(token.LBRACKET) {
		return ts
	}
	p.nextToken()
	ts.Array = true
	for {
		p.nextToken()
		if p.curTokenIs(token.ASTERISK) {
			ts.Dims = append(ts.Dims, nil)
		} else if p.curTokenIs(token.RBRACKET) && len(ts.Dims) == 0 {
			ts.Dims = append(ts.Dims, nil)
			return ts
		} else {
			dim := p.parseExpression(LOWEST)
			if dim == nil {
				return nil
			}
			ts.Dims = append(ts.Dims, dim)
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return ts
}

// parseRecordFields parses `{name: type [mandatory] [maxlength n] [default v], ...}`.
func (p *Parser) parseRecordFields(ts *ast.TypeSpec) bool {
	if !p.expectPeek(token.LBRACE) {
		return false
	}
	ts.Fields = []*ast.FieldSpec{}
	seen := map[string]bool{}
	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectName() {
			return false
		}
		field := &ast.FieldSpec{Name: p.curToken.Literal}
		if seen[field.Name] {
			p.fail(object.SyntaxError, p.curToken.Line, "duplicate record field %q", field.Name)
			return false
		}
		seen[field.Name] = true
		if !p.expectPeek(token.COLON) {
			return false
		}
		p.nextToken()
		field.Type = p.parseTypeSpec()
		if field.Type == nil {
			return false
		}
		if !p.parseFieldConstraints(field) {
			return false
		}
		ts.Fields = append(ts.Fields, field)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return p.expectPeek(token.RBRACE)
}

func (p *Parser) parseFieldConstraints(field *ast.FieldSpec) bool {
	for p.peekTokenIs(token.IDENT) {
		p.nextToken()
		switch p.curToken.Literal {
		case "mandatory":
			field.Mandatory = true
		case "maxlength":
			if !p.expectPeek(token.INT) {
				return false
			}
			n, err := strconv.Atoi(p.curToken.Literal)
			if err != nil || n <= 0 {
				p.fail(object.SyntaxError, p.curToken.Line, "maxlength must be a positive integer, got %q", p.curToken.Literal)
				return false
			}
			field.MaxLength = n
		case "default":
			p.nextToken()
			field.Default = p.parseExpression(LOWEST)
			if field.Default == nil {
				return false
			}
		default:
			p.fail(object.SyntaxError, p.curToken.Line, "unknown field constraint %q", p.curToken.Literal)
			return false
		}
	}
	return true
}

// parseTypedefStatement parses `name typeof type;`. The alias is resolved
// while parsing, so it is visible to every later declaration in the unit.
func (p *Parser) parseTypedefStatement() *ast.TypedefStatement {
	stmt := &ast.TypedefStatement{Token: p.curToken}
	if strings.Contains(p.curToken.Literal, ".") {
		p.fail(object.SyntaxError, p.curToken.Line, "invalid type name %q", p.curToken.Literal)
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	p.nextToken()
	stmt.Type = p.parseTypeSpec()
	if stmt.Type == nil {
		return nil
	}
	p.typedefs[stmt.Name.Value] = stmt.Type
	return stmt
}

func (p *Parser) parseFunctionStatement() *ast.FunctionStatement {
	stmt := &ast.FunctionStatement{Token: p.curToken}

	if !p.expectName() {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	p.pushScope()
	defer p.popScope()

	stmt.Parameters = p.parseFunctionParameters()
	if stmt.Parameters == nil {
		return nil
	}

	if p.peekTokenIs(token.RETURN) {
		p.nextToken()
		p.nextToken()
		stmt.ReturnType = p.parseTypeSpec()
		if stmt.ReturnType == nil {
			return nil
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	// break/continue do not cross a function boundary
	saved := p.loopDepth
	p.loopDepth = 0
	stmt.Body = p.parseBlockStatement()
	p.loopDepth = saved
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionParameters() []*ast.Parameter {
	params := []*ast.Parameter{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	for {
		if !p.expectName() {
			return nil
		}
		param := &ast.Parameter{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			param.Type = p.parseTypeSpec()
			if param.Type == nil {
				return nil
			}
			p.declare(param.Name.Value, object.DeclaredKind(param.Type.Name, param.Type.Array))
		}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
			if param.Default == nil {
				return nil
			}
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.pushScope()
	defer p.popScope()

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.fail(object.SyntaxError, block.Token.Line, "unterminated block, expected }")
			return nil
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	stmt.Consequence = p.parseBranch()
	if stmt.Consequence == nil {
		return nil
	}

	if p.peekTokenIs(token.SEMICOLON) && p.peekAfterSemicolonIsElse() {
		p.nextToken()
	}
	if !p.peekTokenIs(token.ELSE) {
		return stmt
	}
	p.nextToken()

	if p.peekTokenIs(token.IF) {
		p.nextToken()
		alt := p.parseIfStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
		return stmt
	}
	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		alt := p.parseBlockStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
		return stmt
	}
	p.nextToken()
	alt := p.parseStatementInner()
	if alt == nil {
		return nil
	}
	stmt.Alternative = alt
	return stmt
}

// parseBranch parses `{ ... }` or `then statement`.
func (p *Parser) parseBranch() ast.Statement {
	if p.peekTokenIs(token.THEN) {
		p.nextToken()
		if p.peekTokenIs(token.LBRACE) {
			p.nextToken()
			return p.nilIfEmpty(p.parseBlockStatement())
		}
		p.nextToken()
		return p.parseStatementInner()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	return p.nilIfEmpty(p.parseBlockStatement())
}

// peekAfterSemicolonIsElse is only consulted when the peek token is a
// semicolon; the lexer cannot look two tokens ahead, so `then x; else y;`
// is handled by tolerating the semicolon before else.
func (p *Parser) peekAfterSemicolonIsElse() bool {
	saved := *p.l
	next := p.l.NextToken()
	*p.l = saved
	return next.Type == token.ELSE
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseLoopBody()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseDoWhileStatement() *ast.DoWhileStatement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseLoopBody()
	if stmt.Body == nil {
		return nil
	}
	if !p.expectPeek(token.WHILE) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() *ast.ForStatement {
	stmt := &ast.ForStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	// the init clause is scoped to the loop
	p.pushScope()
	defer p.popScope()

	if !p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		stmt.Init = p.parseStatementInner()
		if stmt.Init == nil {
			return nil
		}
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	if !p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		stmt.Condition = p.parseExpression(LOWEST)
		if stmt.Condition == nil {
			return nil
		}
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		stmt.Update = p.parseExpression(LOWEST)
		if stmt.Update == nil {
			return nil
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseLoopBody()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForEachStatement() *ast.ForEachStatement {
	stmt := &ast.ForEachStatement{Token: p.curToken}

	paren := false
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		paren = true
	}
	if !p.expectName() {
		return nil
	}
	stmt.Variable = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		return nil
	}
	if paren && !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseLoopBody()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseLoopBody() *ast.BlockStatement {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseBlockStatement()
}

func (p *Parser) parseLoopControl() ast.Statement {
	if p.loopDepth == 0 {
		p.fail(object.SyntaxError, p.curToken.Line, "'%s' outside of a loop", p.curToken.Literal)
		return nil
	}
	if p.curTokenIs(token.BREAK) {
		return &ast.BreakStatement{Token: p.curToken}
	}
	return &ast.ContinueStatement{Token: p.curToken}
}

func (p *Parser) parsePrintStatement() ast.Statement {
	stmt := &ast.PrintStatement{Token: p.curToken}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseCallStatement() *ast.CallStatement {
	stmt := &ast.CallStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fn := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	call, ok := p.parseCallExpression(fn).(*ast.CallExpression)
	if !ok || call == nil {
		return nil
	}
	stmt.Call = call
	return stmt
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	stmt := &ast.TryStatement{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}
	if !p.expectPeek(token.EXCEPTIONS) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for p.peekTokenIs(token.WHEN) {
		p.nextToken()
		h := &ast.ExceptionHandler{Token: p.curToken}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		h.ErrorType = strings.ToUpper(p.curToken.Literal)
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			if !p.expectName() {
				return nil
			}
			h.Variable = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		h.Body = p.parseBlockStatement()
		if h.Body == nil {
			return nil
		}
		stmt.Handlers = append(stmt.Handlers, h)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	if len(stmt.Handlers) == 0 {
		p.fail(object.SyntaxError, stmt.Token.Line, "try requires at least one 'when' handler")
		return nil
	}
	return stmt
}

func (p *Parser) parseRaiseStatement() *ast.RaiseStatement {
	stmt := &ast.RaiseStatement{Token: p.curToken}
	if !p.expectPeek(token.EXCEPTION) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.ErrorType = strings.ToUpper(p.curToken.Literal)
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		stmt.Arguments = p.parseExpressionList(token.RPAREN)
		if stmt.Arguments == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseImportStatement() *ast.ImportStatement {
	stmt := &ast.ImportStatement{Token: p.curToken}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

// parseIdentifier turns a dotted name that is not called into a field
// access on its first segment.
func (p *Parser) parseIdentifier() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !strings.Contains(ident.Value, ".") || p.peekTokenIs(token.LPAREN) {
		return ident
	}
	segments := strings.Split(ident.Value, ".")
	base := &ast.Identifier{Token: p.curToken, Value: segments[0]}
	return &ast.MemberExpression{Token: p.curToken, Object: base, Path: segments[1:]}
}

// expectName advances to an identifier that may be bound as a variable.
func (p *Parser) expectName() bool {
	if !p.expectPeek(token.IDENT) {
		return false
	}
	if strings.Contains(p.curToken.Literal, ".") {
		p.fail(object.SyntaxError, p.curToken.Line, "invalid name %q: names cannot contain '.'", p.curToken.Literal)
		return false
	}
	return true
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 32)
	if err != nil {
		p.fail(object.SyntaxError, p.curToken.Line, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: int32(value)}
}

func (p *Parser) parseLongLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.fail(object.SyntaxError, p.curToken.Line, "could not parse %q as long", p.curToken.Literal)
		return nil
	}
	return &ast.LongLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseDoubleLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(object.SyntaxError, p.curToken.Line, "could not parse %q as double", p.curToken.Literal)
		return nil
	}
	return &ast.DoubleLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseDateLiteral() ast.Expression {
	t, err := object.ParseDate(p.curToken.Literal)
	if err != nil {
		// date-shaped but invalid, e.g. month 13: keep it as text
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	}
	return &ast.DateLiteral{Token: p.curToken, Value: t}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNull() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseTypeofExpression() ast.Expression {
	expression := &ast.TypeofExpression{Token: p.curToken}
	p.nextToken()
	expression.Value = p.parseExpression(PREFIX)
	if expression.Value == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	switch p.curToken.Type {
	case token.AND:
		expression.Operator = "and"
	case token.OR:
		expression.Operator = "or"
	case token.LTE:
		expression.Operator = "<="
	case token.GTE:
		expression.Operator = ">="
	case token.NOT_EQ:
		expression.Operator = "!="
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parsePowerExpression is right-associative: 2^3^2 is 2^(3^2).
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{Token: p.curToken, Operator: "^", Left: left}
	p.nextToken()
	expression.Right = p.parseExpression(POWER - 1)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	if !isAssignable(left) {
		p.fail(object.SyntaxError, p.curToken.Line, "invalid assignment target %s", left.String())
		return nil
	}
	expression := &ast.AssignExpression{Token: p.curToken, Target: left, Operator: p.curToken.Literal}
	p.nextToken()
	// right-associative: a = b = c
	expression.Value = p.parseExpression(ASSIGN - 1)
	if expression.Value == nil {
		return nil
	}
	if id, ok := left.(*ast.Identifier); ok && expression.Operator == "=" {
		if declared, ok := p.lookupKind(id.Value); ok && declared != object.KindAny {
			if got := p.staticKind(expression.Value); got != object.KindInvalid && !object.Assignable(got, declared) {
				p.fail(object.TypeMismatch, expression.Token.Line, "cannot assign %s to %s variable '%s'",
					got.Name(), declared.Name(), id.Value)
				return nil
			}
		}
	}
	return expression
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	if !isAssignable(left) {
		p.fail(object.SyntaxError, p.curToken.Line, "invalid %s target %s", p.curToken.Literal, left.String())
		return nil
	}
	return &ast.PostfixExpression{Token: p.curToken, Target: left, Operator: p.curToken.Literal}
}

func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.MemberExpression:
		return true
	}
	return false
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}
	array.Elements = p.parseExpressionList(token.RBRACKET)
	if array.Elements == nil {
		return nil
	}
	return array
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	list = append(list, first)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		next := p.parseExpression(LOWEST)
		if next == nil {
			return nil
		}
		list = append(list, next)
	}

	if !p.expectPeek(end) {
		return nil
	}

	return list
}

func (p *Parser) parseJSONLiteral() ast.Expression {
	lit := &ast.JSONLiteral{Token: p.curToken, Pairs: []ast.JSONPair{}}

	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return lit
	}

	for {
		p.nextToken()
		var key string
		switch p.curToken.Type {
		case token.STRING, token.DATE, token.IDENT, token.TYPE:
			key = p.curToken.Literal
		default:
			p.fail(object.SyntaxError, p.curToken.Line, "invalid json key %q", p.curToken.Literal)
			return nil
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}

		lit.Pairs = append(lit.Pairs, ast.JSONPair{Key: key, Value: value})

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return lit
}

func (p *Parser) parsePropertyExpression(left ast.Expression) ast.Expression {
	expression := &ast.PropertyExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(token.LENGTH) {
		return nil
	}
	expression.Property = "length"
	return expression
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expression := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	expression.Index = p.parseExpression(LOWEST)
	if expression.Index == nil {
		return nil
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	return expression
}

// parseHashCall parses `#name(args)`, the expression form of a call.
func (p *Parser) parseHashCall() ast.Expression {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fn := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	return p.parseCallExpression(fn)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// Errors returns the formatted diagnostics, lexical errors first.
func (p *Parser) Errors() []string {
	return p.errors
}

// Diagnostics returns the structured diagnostics, lexical errors first.
func (p *Parser) Diagnostics() []*object.Error {
	return p.diagnostics
}

func (p *Parser) fail(detail string, line int, format string, a ...interface{}) {
	e := object.ParseFailure(detail, line, format, a...)
	p.diagnostics = append(p.diagnostics, e)
	p.errors = append(p.errors, e.Error())
}

func (p *Parser) peekError(t token.TokenType) {
	if p.peekTokenIs(token.ILLEGAL) {
		p.fail(object.SyntaxError, p.peekToken.Line, "unexpected %q", p.peekToken.Literal)
		return
	}
	p.fail(object.SyntaxError, p.peekToken.Line, "expected next token to be %s, got %s instead",
		t, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	if t.Type == token.ILLEGAL {
		p.fail(object.SyntaxError, t.Line, "unexpected %q", t.Literal)
		return
	}
	p.fail(object.SyntaxError, t.Line, "no prefix parse function for %s found", t.Type)
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) pushScope() {
	p.scopes = append(p.scopes, map[string]object.Kind{})
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *Parser) declare(name string, k object.Kind) {
	p.scopes[len(p.scopes)-1][name] = k
}

func (p *Parser) lookupKind(name string) (object.Kind, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if k, ok := p.scopes[i][name]; ok {
			return k, true
		}
	}
	return object.KindInvalid, false
}

func suggest(name string, names []string) string {
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		// fall back to names sharing the category prefix
		if i := strings.IndexByte(name, '.'); i > 0 {
			prefix := name[:i+1]
			var out []string
			for _, n := range names {
				if strings.HasPrefix(n, prefix) {
					out = append(out, n)
				}
				if len(out) == 3 {
					break
				}
			}
			if len(out) > 0 {
				return fmt.Sprintf(" (did you mean %s?)", strings.Join(out, ", "))
			}
		}
		return ""
	}
	var out []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return fmt.Sprintf(" (did you mean %s?)", strings.Join(out, ", "))
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	ident, ok := function.(*ast.Identifier)
	if !ok {
		p.fail(object.SyntaxError, p.curToken.Line, "%s is not callable", function.String())
		return nil
	}
	exp := &ast.CallExpression{Token: p.curToken, Function: ident}

	args, names, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	exp.Arguments = args
	exp.Names = names

	if !strings.Contains(ident.Value, ".") {
		// a script function, resolved at run time
		return exp
	}
	if !p.resolveBuiltin(exp) {
		return nil
	}
	return exp
}

// parseCallArguments parses `(a, b)` or `(name = a, other = b)`. Names is
// nil for a positional call.
func (p *Parser) parseCallArguments() ([]ast.Expression, []string, bool) {
	args := []ast.Expression{}
	var names []string

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, nil, true
	}

	positional := 0
	for {
		p.nextToken()
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			if positional > 0 {
				p.fail(object.SyntaxError, p.curToken.Line, "Cannot mix named and sequence parameters.")
				return nil, nil, false
			}
			names = append(names, strings.ToLower(p.curToken.Literal))
			p.nextToken()
			p.nextToken()
		} else {
			if names != nil {
				p.fail(object.SyntaxError, p.curToken.Line, "Cannot mix named and sequence parameters.")
				return nil, nil, false
			}
			positional++
		}
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil, nil, false
		}
		args = append(args, arg)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, nil, false
	}
	return args, names, true
}

// resolveBuiltin validates a dotted call against the registry or the plugin
// table and annotates the node with the result.
func (p *Parser) resolveBuiltin(exp *ast.CallExpression) bool {
	name := strings.ToLower(exp.Function.Value)
	line := exp.Token.Line

	info, found := p.registry.Lookup(name)
	if !found && registry.IsPluginName(name) {
		pinfo, _, registered := p.plugins.Lookup(name)
		if !registered {
			// loaded later; checked at dispatch time
			exp.Builtin = true
			return true
		}
		info, found = pinfo, true
	}
	if !found {
		p.fail(object.UnknownBuiltin, line, "Unknown builtin '%s'%s", name, suggest(name, p.registry.Names()))
		return false
	}

	if exp.Names != nil {
		ordered := make([]ast.Expression, len(info.Params))
		for i, n := range exp.Names {
			idx := info.ParamIndex(n)
			if idx < 0 {
				p.fail(object.ArityMismatch, line, "%s has no parameter %q", name, n)
				return false
			}
			if ordered[idx] != nil {
				p.fail(object.ArityMismatch, line, "%s parameter %q given twice", name, n)
				return false
			}
			ordered[idx] = exp.Arguments[i]
		}
		last := -1
		for i, param := range info.Params {
			if ordered[i] == nil && param.Mandatory {
				p.fail(object.ArityMismatch, line, "%s missing mandatory parameter %q", name, param.Name)
				return false
			}
			if ordered[i] != nil {
				last = i
			}
		}
		ordered = ordered[:last+1]
		for i := range ordered {
			if ordered[i] == nil {
				ordered[i] = &ast.NullLiteral{Token: token.Token{Type: token.NULL, Literal: "null", Line: line}}
			}
		}
		exp.Arguments = ordered
		exp.Names = nil
	}

	if aerr := registry.CheckArity(info, len(exp.Arguments)); aerr != nil {
		p.fail(aerr.Detail, line, "%s", aerr.Message)
		return false
	}
	kinds := make([]object.Kind, len(exp.Arguments))
	for i, a := range exp.Arguments {
		kinds[i] = p.staticKind(a)
	}
	if aerr := registry.CheckKinds(info, kinds); aerr != nil {
		p.fail(aerr.Detail, line, "%s", aerr.Message)
		return false
	}

	exp.Function.Value = name
	exp.Builtin = true
	if info.Return != object.KindNull {
		exp.ReturnType = info.Return.Name()
	}
	return true
}

// staticKind is the kind of e when it can be known without running it, or
// KindInvalid otherwise.
func (p *Parser) staticKind(e ast.Expression) object.Kind {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		return object.KindInt
	case *ast.LongLiteral:
		return object.KindLong
	case *ast.DoubleLiteral:
		return object.KindDouble
	case *ast.StringLiteral:
		return object.KindString
	case *ast.DateLiteral:
		return object.KindDate
	case *ast.BooleanLiteral:
		return object.KindBool
	case *ast.NullLiteral:
		return object.KindNull
	case *ast.ArrayLiteral:
		return object.KindArray
	case *ast.JSONLiteral:
		return object.KindJSON
	case *ast.TypeofExpression:
		return object.KindString
	case *ast.PropertyExpression:
		return object.KindInt
	case *ast.Identifier:
		if k, ok := p.lookupKind(e.Value); ok && k != object.KindAny {
			return k
		}
	case *ast.PrefixExpression:
		right := p.staticKind(e.Right)
		switch e.Operator {
		case "!":
			return object.KindBool
		case "-", "+":
			if right.IsNumeric() {
				return right
			}
		}
	case *ast.InfixExpression:
		switch e.Operator {
		case "==", "!=", "<", ">", "<=", ">=", "and", "or":
			return object.KindBool
		}
		left, right := p.staticKind(e.Left), p.staticKind(e.Right)
		if e.Operator == "+" && (left == object.KindString || right == object.KindString) {
			return object.KindString
		}
		if e.Operator == "^" && left.IsNumeric() && right.IsNumeric() {
			return object.KindDouble
		}
		if left.IsNumeric() && right.IsNumeric() {
			if w := object.Widest(left, right); w != object.KindByte {
				return w
			}
			return object.KindInt
		}
	case *ast.CallExpression:
		if e.Builtin && e.ReturnType != "" {
			if k, ok := object.KindOf(e.ReturnType); ok && k != object.KindAny {
				return k
			}
		}
	}
	return object.KindInvalid
}
