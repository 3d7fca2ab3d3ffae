package jack

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	pc "github.com/prataprc/goparsec"

	"its-hmny.dev/nand2tetris/pkg/utils"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & construct of the Jack language.
//
// Unlike the Asm and Vm grammars, Jack is recursively nested: an expression's term can itself
// contain a parenthesized expression, an array index expression, or a subroutine call argument
// list, each of which may in turn contain further expressions. Since Go evaluates package-level
// var initializers eagerly (and would reject a genuine initialization cycle), the handful of
// forward-references below go through a thin indirection func that defers the lookup of the
// package var until the parser actually runs, by which point every var in this file has settled.

var ast = pc.NewAST("jack_program", 0)

// pExprFwd/pStmtFwd/pTermFwd break the pExpr<->pTerm, pTerm<->pTerm and pStatement<->pStatements
// cycles. Go counts the vars named in a func's body as dependencies of every var initializer that
// names the func, so the funcs reach the package vars through pointers that are only set in 'init',
// once every var in this file has been initialized.
var exprRef, stmtRef, termRef *pc.Parser

func init() { exprRef, stmtRef, termRef = &pExpr, &pStatement, &pTerm }

func pExprFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return (*exprRef)(s) }
func pStmtFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return (*stmtRef)(s) }
func pTermFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return (*termRef)(s) }

var (
	pClass = ast.And("class_decl", nil,
		ast.Kleene("header", nil, pComment),
		pc.Atom("class", "CLASS"), pIdent, pLBrace,
		ast.Kleene("class_vars", nil, ast.OrdChoice("item", nil, pClassVarDec, pComment)),
		ast.Kleene("subroutines", nil, ast.OrdChoice("item", nil, pSubroutineDec, pComment)),
		pRBrace,
	)

	pClassVarDec = ast.And("class_var_dec", nil,
		pVarScope, pDataType, pIdent, ast.Kleene("more", nil, ast.And("extra", nil, pComma, pIdent)), pSemi,
	)

	pSubroutineDec = ast.And("subroutine_dec", nil,
		pSubroutineKind, pReturnType, pIdent,
		pLParen, pParamList, pRParen,
		pLBrace, ast.Kleene("var_decs", nil, ast.OrdChoice("item", nil, pVarDec, pComment)),
		ast.Kleene("statements", nil, ast.OrdChoice("item", nil, pStmtFwd, pComment)),
		pRBrace,
	)

	pParamList = ast.Kleene("params", nil, ast.And("param", nil, pDataType, pIdent), pComma)

	pVarDec = ast.And("var_dec", nil,
		pc.Atom("var", "VAR"), pDataType, pIdent, ast.Kleene("more", nil, ast.And("extra", nil, pComma, pIdent)), pSemi,
	)

	pComment = ast.OrdChoice("comment", nil,
		ast.And("sl_comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
		ast.And("ml_comment", nil, pc.Token(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`, "COMMENT")),
	)
)

var (
	pVarScope = ast.OrdChoice("var_scope", nil, pc.Atom("static", "STATIC"), pc.Atom("field", "FIELD"))

	pSubroutineKind = ast.OrdChoice("subroutine_kind", nil,
		pc.Atom("constructor", "CTOR"), pc.Atom("function", "FUNC"), pc.Atom("method", "METHOD"),
	)

	pReturnType = ast.OrdChoice("return_type", nil, pc.Atom("void", "VOID"), pDataType)

	pDataType = ast.OrdChoice("data_type", nil,
		pc.Atom("int", "INT"), pc.Atom("char", "CHAR"), pc.Atom("boolean", "BOOLEAN"), pIdent,
	)
)

// ----------------------------------------------------------------------------
// Statements

var (
	pStatement = ast.OrdChoice("statement", nil, pLetStmt, pIfStmt, pWhileStmt, pDoStmt, pReturnStmt)

	pLetStmt = ast.And("let_stmt", nil,
		pc.Atom("let", "LET"), pIdent,
		pc.Maybe(nil, ast.And("index", nil, pLBracket, pExprFwd, pRBracket)),
		pc.Atom("=", "EQ"), pExprFwd, pSemi,
	)

	pIfStmt = ast.And("if_stmt", nil,
		pc.Atom("if", "IF"), pLParen, pExprFwd, pRParen,
		pLBrace, ast.Kleene("then", nil, ast.OrdChoice("item", nil, pStmtFwd, pComment)), pRBrace,
		pc.Maybe(nil, ast.And("else_branch", nil, pc.Atom("else", "ELSE"), pLBrace, ast.Kleene("else", nil, ast.OrdChoice("item", nil, pStmtFwd, pComment)), pRBrace)),
	)

	pWhileStmt = ast.And("while_stmt", nil,
		pc.Atom("while", "WHILE"), pLParen, pExprFwd, pRParen, pLBrace, ast.Kleene("body", nil, ast.OrdChoice("item", nil, pStmtFwd, pComment)), pRBrace,
	)

	pDoStmt = ast.And("do_stmt", nil, pc.Atom("do", "DO"), pSubroutineCall, pSemi)

	pReturnStmt = ast.And("return_stmt", nil, pc.Atom("return", "RETURN"), pc.Maybe(nil, pExprFwd), pSemi)
)

// ----------------------------------------------------------------------------
// Expressions

// Jack has no operator precedence: an expression is strictly left-associative, every operator
// at equal footing (see §4.5). So a flat "term (op term)*" list is enough, no precedence climbing.
var (
	pExpr = ast.And("expression", nil, pTerm, ast.Kleene("rest", nil, ast.And("op_term", nil, pBinOp, pTerm)))

	pTerm = ast.OrdChoice("term", nil,
		ast.And("paren_expr", nil, pLParen, pExprFwd, pRParen),
		ast.And("unary_expr", nil, pUnaryOp, pTermFwd),
		pSubroutineCall,
		ast.And("array_expr", nil, pIdent, pLBracket, pExprFwd, pRBracket),
		pLiteral,
		ast.And("var_expr", nil, pIdent),
	)

	// subroutineCall := id '(' exprList ')' | id '.' id '(' exprList ')'
	pSubroutineCall = ast.And("subroutine_call", nil,
		pIdent, pc.Maybe(nil, ast.And("qualifier", nil, pDot, pIdent)),
		pLParen, ast.Kleene("args", nil, pExprFwd, pComma), pRParen,
	)

	pLiteral = ast.OrdChoice("literal", nil,
		pc.Int(), pc.Token(`"(?:\\.|[^"\\])*"`, "STRING"),
		pc.Atom("true", "TRUE"), pc.Atom("false", "FALSE"), pc.Atom("null", "NULL"), pc.Atom("this", "THIS"),
	)

	pBinOp = ast.OrdChoice("bin_op", nil,
		pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"), pc.Atom("*", "STAR"), pc.Atom("/", "SLASH"),
		pc.Atom("&", "AMP"), pc.Atom("|", "PIPE"), pc.Atom("<", "LT"), pc.Atom(">", "GT"), pc.Atom("=", "EQ"),
	)

	pUnaryOp = ast.OrdChoice("unary_op", nil, pc.Atom("-", "MINUS"), pc.Atom("~", "TILDE"))
)

var (
	// An identifier can't start with a digit; '_' is the only symbol Jack allows in one.
	pIdent = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")

	pDot      = pc.Atom(".", "DOT")
	pSemi     = pc.Atom(";", "SEMI")
	pComma    = pc.Atom(",", "COMMA")
	pLBrace   = pc.Atom("{", "LBRACE")
	pRBrace   = pc.Atom("}", "RBRACE")
	pLParen   = pc.Atom("(", "LPAREN")
	pRParen   = pc.Atom(")", "RPAREN")
	pLBracket = pc.Atom("[", "LBRACKET")
	pRBracket = pc.Atom("]", "RBRACKET")
)

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// It uses parser combinator(s) to obtain the AST from the source code (the latter can be provided)
// in multiple ways using a generic io.Reader, the library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the 2 phases of the parsing pipeline
// Text --> AST: This step is done using PCs and returns a generic traversable AST
// AST --> IR: This step is done by traversing the AST and extracting the 'jack.Class'
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, errors.Wrap(err, "cannot read from 'io.Reader'")
	}

	root, success := p.FromSource(content)
	if !success {
		return Class{}, errors.New("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {

	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	// We generate the traversable Abstract Syntax Tree from the source content
	root, scanner := ast.Parsewith(pClass, pc.NewScanner(source))

	// Feature flag: Enables export of the AST as Dot file (debug.ast.dot)
	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()

		file.Write([]byte(ast.Dotstring("\"Jack AST\"")))
	}

	// Feature flag: Enables pretty printing of the AST on the console
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	_, _, eof := scanner.Endof()
	return root, root != nil && eof
}

// This function takes the root node of the raw parsed AST and does a DFS on it parsing
// one by one each subtree and returning a 'jack.Class' that can be used as in-memory and
// type-safe AST not dependent on the parsing library used.
//
// 'pClass' lists 7 sub-parsers (leading comments, 'class', name, '{', fields, subroutines,
// '}') so 'ast.And' hands back exactly 7 children, one per slot, regardless of how many of
// the Kleene/comment slots actually matched anything.
func (p *Parser) FromAST(root pc.Queryable) (Class, error) {
	if root == nil || root.GetName() != "class_decl" {
		return Class{}, errors.Errorf("expected node 'class_decl', found %v", root)
	}

	children := root.GetChildren()
	if len(children) != 7 {
		return Class{}, errors.Errorf("malformed 'class_decl' node, got %d children", len(children))
	}

	class := Class{
		Name:        children[2].GetValue(),
		Fields:      utils.OrderedMap[string, Variable]{},
		Subroutines: utils.OrderedMap[string, Subroutine]{},
	}

	for _, item := range skipComments(children[4].GetChildren()) {
		vars, err := p.HandleClassVarDec(item)
		if err != nil {
			return Class{}, errors.Wrap(err, "error handling class field declaration")
		}
		for _, v := range vars {
			class.Fields.Set(v.Name, v)
		}
	}

	for _, item := range skipComments(children[5].GetChildren()) {
		subroutine, err := p.HandleSubroutineDec(item)
		if err != nil {
			return Class{}, errors.Wrapf(err, "error handling subroutine declaration in class '%s'", class.Name)
		}
		class.Subroutines.Set(subroutine.Name, subroutine)
	}

	return class, nil
}

// Specialized function to convert a "class_var_dec" node to one or more 'jack.Variable'.
func (p *Parser) HandleClassVarDec(node pc.Queryable) ([]Variable, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return nil, errors.Errorf("malformed 'class_var_dec' node, got %d children", len(children))
	}

	scope := VarType(Field)
	if children[0].GetValue() == "static" {
		scope = Static
	}

	dataType := toDataType(children[1])
	names := []string{children[2].GetValue()}
	for _, extra := range children[3].GetChildren() {
		names = append(names, extra.GetChildren()[1].GetValue())
	}

	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, Variable{Name: name, VarType: scope, DataType: dataType})
	}
	return vars, nil
}

// Specialized function to convert a "var_dec" node to a 'jack.VarStmt'.
func (p *Parser) HandleVarDec(node pc.Queryable) (VarStmt, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return VarStmt{}, errors.Errorf("malformed 'var_dec' node, got %d children", len(children))
	}

	dataType := toDataType(children[1])
	names := []string{children[2].GetValue()}
	for _, extra := range children[3].GetChildren() {
		names = append(names, extra.GetChildren()[1].GetValue())
	}

	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, Variable{Name: name, VarType: Local, DataType: dataType})
	}
	return VarStmt{Vars: vars}, nil
}

// Specialized function to convert a "subroutine_dec" node to a 'jack.Subroutine'.
//
// 'pSubroutineDec' lists 10 sub-parsers (kind, returnType, name, '(', paramList, ')', '{',
// var_decs, statements, '}'), so 'ast.And' hands back exactly 10 fixed children.
func (p *Parser) HandleSubroutineDec(node pc.Queryable) (Subroutine, error) {
	children := node.GetChildren()
	if len(children) != 10 {
		return Subroutine{}, errors.Errorf("malformed 'subroutine_dec' node, got %d children", len(children))
	}

	kind := SubroutineType(children[0].GetValue())
	ret := toReturnType(children[1])
	name := children[2].GetValue()
	params := children[4] // "params" Kleene node

	subroutine := Subroutine{
		Name:      name,
		Type:      kind,
		Return:    ret,
		Arguments: utils.OrderedMap[string, Variable]{},
	}

	for _, param := range params.GetChildren() {
		pChildren := param.GetChildren()
		if len(pChildren) != 2 {
			return Subroutine{}, errors.Errorf("malformed 'param' node, got %d children", len(pChildren))
		}
		variable := Variable{Name: pChildren[1].GetValue(), VarType: Parameter, DataType: toDataType(pChildren[0])}
		subroutine.Arguments.Set(variable.Name, variable)
	}

	for _, item := range skipComments(children[7].GetChildren()) {
		varStmt, err := p.HandleVarDec(item)
		if err != nil {
			return Subroutine{}, errors.Wrap(err, "error handling local variable declaration")
		}
		subroutine.Statements = append(subroutine.Statements, varStmt)
	}

	for _, item := range skipComments(children[8].GetChildren()) {
		stmt, err := p.HandleStatement(item)
		if err != nil {
			return Subroutine{}, errors.Wrapf(err, "error handling statement in subroutine '%s'", name)
		}
		subroutine.Statements = append(subroutine.Statements, stmt)
	}

	return subroutine, nil
}

// Generalized function to convert a statement subtree into its 'jack.Statement' counterpart.
func (p *Parser) HandleStatement(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "let_stmt":
		return p.HandleLetStmt(node)
	case "if_stmt":
		return p.HandleIfStmt(node)
	case "while_stmt":
		return p.HandleWhileStmt(node)
	case "do_stmt":
		return p.HandleDoStmt(node)
	case "return_stmt":
		return p.HandleReturnStmt(node)
	default:
		return nil, errors.Errorf("unrecognized statement node '%s'", node.GetName())
	}
}

// Specialized function to convert a "let_stmt" node to a 'jack.LetStmt'.
//
// 'pLetStmt' always hands back 6 children: 'let', name, the optional '[ expr ]' index (a
// 'pc.Maybe' slot, present or not), '=', the RHS expression, ';'.
func (p *Parser) HandleLetStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, errors.Errorf("malformed 'let_stmt' node, got %d children", len(children))
	}

	name := children[1].GetValue()

	rhs, err := p.HandleExpression(children[4])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'let' RHS expression")
	}

	if index := children[2]; index.GetName() == "index" {
		idxExpr, err := p.HandleExpression(index.GetChildren()[1])
		if err != nil {
			return nil, errors.Wrap(err, "error handling array index expression")
		}
		return LetStmt{Lhs: ArrayExpr{Var: name, Index: idxExpr}, Rhs: rhs}, nil
	}

	return LetStmt{Lhs: VarExpr{Var: name}, Rhs: rhs}, nil
}

// Specialized function to convert an "if_stmt" node to a 'jack.IfStmt'.
//
// 'pIfStmt' always hands back 8 children: 'if', '(', cond, ')', '{', then-block, '}', the
// optional 'else { ... }' branch (a 'pc.Maybe' slot, present or not).
func (p *Parser) HandleIfStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 8 {
		return nil, errors.Errorf("malformed 'if_stmt' node, got %d children", len(children))
	}

	cond, err := p.HandleExpression(children[2])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'if' condition expression")
	}

	thenBlock, err := p.HandleStatementList(children[5])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'then' block")
	}

	ifStmt := IfStmt{Condition: cond, ThenBlock: thenBlock}

	if elseBranch := children[7]; elseBranch.GetName() == "else_branch" {
		elseChildren := elseBranch.GetChildren() // 'else', '{', else-block, '}'
		elseBlock, err := p.HandleStatementList(elseChildren[2])
		if err != nil {
			return nil, errors.Wrap(err, "error handling 'else' block")
		}
		ifStmt.ElseBlock = elseBlock
	}

	return ifStmt, nil
}

// Specialized function to convert a "while_stmt" node to a 'jack.WhileStmt'.
func (p *Parser) HandleWhileStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, errors.Errorf("malformed 'while_stmt' node, got %d children", len(children))
	}

	cond, err := p.HandleExpression(children[2])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'while' condition expression")
	}

	block, err := p.HandleStatementList(children[5])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'while' body")
	}

	return WhileStmt{Condition: cond, Block: block}, nil
}

// Specialized function to convert a "do_stmt" node to a 'jack.DoStmt'.
func (p *Parser) HandleDoStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, errors.Errorf("malformed 'do_stmt' node, got %d children", len(children))
	}

	call, err := p.HandleFuncCallExpr(children[1])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'do' subroutine call")
	}

	return DoStmt{FuncCall: call}, nil
}

// Specialized function to convert a "return_stmt" node to a 'jack.ReturnStmt'.
func (p *Parser) HandleReturnStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, errors.Errorf("malformed 'return_stmt' node, got %d children", len(children))
	}

	if children[1].GetName() != "expression" {
		return ReturnStmt{}, nil
	}

	expr, err := p.HandleExpression(children[1])
	if err != nil {
		return nil, errors.Wrap(err, "error handling 'return' expression")
	}
	return ReturnStmt{Expr: expr}, nil
}

// Converts a Kleene list of statement-or-comment nodes into a '[]jack.Statement'.
func (p *Parser) HandleStatementList(node pc.Queryable) ([]Statement, error) {
	statements := []Statement{}
	for _, child := range skipComments(node.GetChildren()) {
		stmt, err := p.HandleStatement(child)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// Generalized function to convert an "expression" node to a 'jack.Expression'.
//
// Jack is strictly left-associative with no operator precedence (see §4.5): we fold the
// "term (op term)*" list left-to-right into nested 'jack.BinaryExpr' without any reordering.
func (p *Parser) HandleExpression(node pc.Queryable) (Expression, error) {
	if node.GetName() != "expression" {
		return nil, errors.Errorf("expected node 'expression', got %s", node.GetName())
	}

	children := node.GetChildren()
	lhs, err := p.HandleTerm(children[0])
	if err != nil {
		return nil, errors.Wrap(err, "error handling first term in expression")
	}

	if len(children) < 2 {
		return lhs, nil
	}

	for _, opTerm := range children[1].GetChildren() {
		opTermChildren := opTerm.GetChildren()
		op, err := toExprType(opTermChildren[0].GetValue())
		if err != nil {
			return nil, err
		}

		rhs, err := p.HandleTerm(opTermChildren[1])
		if err != nil {
			return nil, errors.Wrap(err, "error handling subsequent term in expression")
		}

		lhs = BinaryExpr{Type: op, Lhs: lhs, Rhs: rhs}
	}

	return lhs, nil
}

// Specialized function to convert a "term" node to a 'jack.Expression'.
func (p *Parser) HandleTerm(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "paren_expr":
		return p.HandleExpression(node.GetChildren()[1])

	case "unary_expr":
		children := node.GetChildren()
		rhs, err := p.HandleTerm(children[1])
		if err != nil {
			return nil, errors.Wrap(err, "error handling unary expression operand")
		}
		exprType := Negation
		if children[0].GetValue() == "~" {
			exprType = BoolNot
		}
		return UnaryExpr{Type: exprType, Rhs: rhs}, nil

	case "subroutine_call":
		return p.HandleFuncCallExpr(node)

	case "array_expr":
		children := node.GetChildren()
		index, err := p.HandleExpression(children[2])
		if err != nil {
			return nil, errors.Wrap(err, "error handling array index expression")
		}
		return ArrayExpr{Var: children[0].GetValue(), Index: index}, nil

	case "var_expr":
		return VarExpr{Var: node.GetChildren()[0].GetValue()}, nil

	// 'pLiteral' is an 'ast.OrdChoice': it flattens directly to whichever alternative
	// matched, so the literal token shows up here as 'node' itself, never wrapped in a
	// "literal"-named parent.
	case "INT":
		return LiteralExpr{Type: DataType{Main: Int}, Value: node.GetValue()}, nil
	case "STRING":
		return LiteralExpr{Type: DataType{Main: String}, Value: strings.Trim(node.GetValue(), `"`)}, nil
	case "TRUE":
		return LiteralExpr{Type: DataType{Main: Bool}, Value: "true"}, nil
	case "FALSE":
		return LiteralExpr{Type: DataType{Main: Bool}, Value: "false"}, nil
	case "NULL":
		return LiteralExpr{Type: DataType{Main: Object}, Value: "null"}, nil
	case "THIS":
		return VarExpr{Var: "this"}, nil

	default:
		return nil, errors.Errorf("unrecognized term node '%s'", node.GetName())
	}
}

// Specialized function to convert a "subroutine_call" node to a 'jack.FuncCallExpr'.
//
// The 3 calling conventions of §4.5 (bare call, call on a known variable, call on a class
// name) cannot be told apart here: that needs the symbol table, which this parsing phase
// doesn't have access to. We record everything the grammar can tell us (whether a qualifier
// was present, and its name) and let 'jack.Lowerer.HandleFuncCallExpr' make the final call.
//
// 'pSubroutineCall' lists 5 sub-parsers (name, optional qualifier, '(', args, ')'), so the
// fixed children are [0]=name, [1]=qualifier-or-absent, [2]='(', [3]=args, [4]=')'.
func (p *Parser) HandleFuncCallExpr(node pc.Queryable) (FuncCallExpr, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return FuncCallExpr{}, errors.Errorf("malformed 'subroutine_call' node, got %d children", len(children))
	}

	first := children[0].GetValue()

	call := FuncCallExpr{FuncName: first}
	if qualifier := children[1]; qualifier.GetName() == "qualifier" {
		call.IsExtCall = true
		call.Var = first
		call.FuncName = qualifier.GetChildren()[1].GetValue()
	}

	for _, argExpr := range children[3].GetChildren() {
		arg, err := p.HandleExpression(argExpr)
		if err != nil {
			return FuncCallExpr{}, errors.Wrap(err, "error handling call argument expression")
		}
		call.Arguments = append(call.Arguments, arg)
	}

	return call, nil
}

// ----------------------------------------------------------------------------
// Shared AST helpers

// skipComments filters out comment nodes interleaved by the grammar's OrdChoice(item, comment).
// 'pComment' is itself an 'ast.OrdChoice', so it never surfaces as a node named "comment" —
// it flattens to whichever alternative matched ("sl_comment" or "ml_comment").
func skipComments(nodes []pc.Queryable) []pc.Queryable {
	filtered := make([]pc.Queryable, 0, len(nodes))
	for _, node := range nodes {
		if strings.HasSuffix(node.GetName(), "comment") {
			continue
		}
		filtered = append(filtered, node)
	}
	return filtered
}

func toDataType(node pc.Queryable) DataType {
	switch node.GetValue() {
	case "int":
		return DataType{Main: Int}
	case "char":
		return DataType{Main: Char}
	case "boolean":
		return DataType{Main: Bool}
	default:
		return DataType{Main: Object, Subtype: node.GetValue()}
	}
}

func toReturnType(node pc.Queryable) DataType {
	if node.GetValue() == "void" {
		return DataType{Main: Void}
	}
	return toDataType(node)
}

func toExprType(symbol string) (ExprType, error) {
	switch symbol {
	case "+":
		return Plus, nil
	case "-":
		return Minus, nil
	case "*":
		return Multiply, nil
	case "/":
		return Divide, nil
	case "&":
		return BoolAnd, nil
	case "|":
		return BoolOr, nil
	case "<":
		return LessThan, nil
	case ">":
		return GreatThan, nil
	case "=":
		return Equal, nil
	default:
		return "", errors.Errorf("unrecognized binary operator '%s'", symbol)
	}
}
