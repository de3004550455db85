package parser

import (
	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/lexer"
)

// ParseStatements consumes a flat statement-level token stream (as produced
// by lexer.StatementTokens, or by a Block composite's Children()) into an
// ordered statement list.
func ParseStatements(toks []lexer.Token, file string) ([]ast.Stmt, error) {
	w := NewWalker(toks, file)
	var stmts []ast.Stmt
	for !w.Eof() {
		s, err := parseStatement(w, file)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// ParseBlockToken parses a Block composite token into an *ast.Block.
func ParseBlockToken(tok lexer.Token, file string) (*ast.Block, error) {
	stmts, err := ParseStatements(tok.Children(), file)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Pos: tok.Pos, Stmts: stmts}, nil
}

func parseStatement(w *Walker, file string) (ast.Stmt, error) {
	tok := w.Peek()

	if tok.Kind == lexer.Punct && tok.Text == ";" {
		w.Next()
		return &ast.Empty{Pos: tok.Pos}, nil
	}
	if tok.Kind == lexer.Block {
		w.Next()
		return ParseBlockToken(tok, file)
	}
	if tok.Kind != lexer.Word {
		return nil, w.posErrorf(tok.Pos, "unexpected token %q at statement position", tok.Text)
	}

	switch tok.Text {
	case "if":
		return parseIf(w, file)
	case "while":
		return parseWhile(w, file)
	case "do":
		return parseDoWhile(w, file)
	case "for":
		return parseFor(w, file)
	case "switch":
		return parseSwitch(w, file)
	case "case":
		return parseCase(w, file)
	case "default":
		return parseDefault(w, file)
	case "break":
		w.Next()
		w.SkipOptionalSemicolon()
		return &ast.Break{Pos: tok.Pos}, nil
	case "continue":
		w.Next()
		w.SkipOptionalSemicolon()
		return &ast.Continue{Pos: tok.Pos}, nil
	case "goto":
		return parseGoto(w, file)
	case "return":
		return parseReturn(w, file)
	case "var":
		return parseVarDecl(w, file)
	case "label", "LABEL":
		return parseLabel(w, file)
	case "CALL":
		return parseCallStmt(w, file)
	case "FUNCTION":
		return parseFunctionDecl(w, file)
	case "SET":
		return parseAssign(w, file)
	default:
		return nil, w.posErrorf(tok.Pos, "unexpected keyword %q", tok.Text)
	}
}

func parseIf(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	cond, err := parseParenExpr(w, file)
	if err != nil {
		return nil, err
	}
	then, err := parseStatement(w, file)
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt = &ast.Empty{Pos: pos}
	if w.LookAheadIs("else") {
		w.Next()
		elseStmt, err = parseStatement(w, file)
		if err != nil {
			return nil, err
		}
	}
	n := &ast.If{Pos: pos, Cond: cond, Then: then, Else: elseStmt}
	ast.SetParent(n)
	return n, nil
}

func parseWhile(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	cond, err := parseParenExpr(w, file)
	if err != nil {
		return nil, err
	}
	body, err := parseStatement(w, file)
	if err != nil {
		return nil, err
	}
	n := &ast.While{Pos: pos, Cond: cond, Body: body}
	ast.SetParent(n)
	return n, nil
}

func parseDoWhile(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	body, err := parseStatement(w, file)
	if err != nil {
		return nil, err
	}
	if err := w.Consume("while"); err != nil {
		return nil, err
	}
	cond, err := parseParenExpr(w, file)
	if err != nil {
		return nil, err
	}
	w.SkipOptionalSemicolon()
	n := &ast.DoWhile{Pos: pos, Body: body, Cond: cond}
	ast.SetParent(n)
	return n, nil
}

func parseFor(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	forTok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	forTok.SetRole(lexer.RoleFor)
	init, cond, iter, err := parseForHeader(forTok.Children(), file)
	if err != nil {
		return nil, err
	}
	body, err := parseStatement(w, file)
	if err != nil {
		return nil, err
	}
	n := &ast.For{Pos: pos, Init: init, Cond: cond, Iter: iter, Body: body}
	ast.SetParent(n)
	return n, nil
}

// parseForHeader splits a RoleFor paren's children (Word("init") <stmt
// tokens> Word("cond") <expr tokens> Word("iter") <stmt tokens>, per
// lexer.tokenizeForHeader) back into the three sections the grammar needs.
func parseForHeader(children []lexer.Token, file string) (init []ast.Stmt, cond ast.Expr, iter []ast.Stmt, err error) {
	sections := map[string][]lexer.Token{}
	cur := ""
	for _, t := range children {
		if t.Kind == lexer.Word && (t.Text == "init" || t.Text == "cond" || t.Text == "iter") {
			cur = t.Text
			continue
		}
		sections[cur] = append(sections[cur], t)
	}
	init, err = ParseStatements(sections["init"], file)
	if err != nil {
		return nil, nil, nil, err
	}
	cond, err = ParseExprTokens(sections["cond"], file)
	if err != nil {
		return nil, nil, nil, err
	}
	iter, err = ParseStatements(sections["iter"], file)
	if err != nil {
		return nil, nil, nil, err
	}
	return init, cond, iter, nil
}

func parseSwitch(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	value, err := parseParenExpr(w, file)
	if err != nil {
		return nil, err
	}
	body, err := parseStatement(w, file)
	if err != nil {
		return nil, err
	}
	n := &ast.Switch{Pos: pos, Value: value, Body: body}
	ast.SetParent(n)
	return n, nil
}

func parseCase(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	valueTok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	valueTok.SetRole(lexer.RoleExpr)
	value, err := ParseExprTokens(valueTok.Children(), file)
	if err != nil {
		return nil, err
	}
	if err := w.ConsumePunct(":"); err != nil {
		return nil, err
	}
	return &ast.Case{Pos: pos, Value: value}, nil
}

func parseDefault(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	if err := w.ConsumePunct(":"); err != nil {
		return nil, err
	}
	return &ast.Default{Pos: pos}, nil
}

func parseGoto(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	w.SkipOptionalSemicolon()
	return &ast.Goto{Pos: pos, Label: nameTok.Text}, nil
}

func parseLabel(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	w.SkipOptionalSemicolon()
	return &ast.Label{Pos: pos, Name: nameTok.Text}, nil
}

func parseReturn(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	if t := w.Peek(); t.Kind == lexer.Punct && t.Text == ";" {
		w.Next()
		return &ast.Return{Pos: pos}, nil
	}
	valueTok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	valueTok.SetRole(lexer.RoleExpr)
	value, err := ParseExprTokens(valueTok.Children(), file)
	if err != nil {
		return nil, err
	}
	w.SkipOptionalSemicolon()
	return &ast.Return{Pos: pos, Value: value}, nil
}

func parseVarDecl(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	var value ast.Expr
	if t := w.Peek(); t.Kind == lexer.Paren {
		w.Next()
		t.SetRole(lexer.RoleExpr)
		value, err = ParseExprTokens(t.Children(), file)
		if err != nil {
			return nil, err
		}
	}
	w.SkipOptionalSemicolon()
	return &ast.VarDecl{Pos: pos, Name: nameTok.Text, Value: value}, nil
}

func parseCallStmt(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	argsTok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	argsTok.SetRole(lexer.RoleArgVals)
	args, err := parseExprList(argsTok.Children(), file)
	if err != nil {
		return nil, err
	}
	w.SkipOptionalSemicolon()
	return &ast.Call{Pos: pos, Name: nameTok.Text, Args: args}, nil
}

func parseFunctionDecl(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	paramsTok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	paramsTok.SetRole(lexer.RoleArgNames)
	var params []string
	for _, t := range paramsTok.Children() {
		if t.Kind == lexer.Word {
			params = append(params, t.Text)
		}
	}
	bodyTok, err := w.ConsumeKind(lexer.Block)
	if err != nil {
		return nil, err
	}
	body, err := ParseBlockToken(bodyTok, file)
	if err != nil {
		return nil, err
	}
	n := &ast.FunctionDecl{Pos: pos, Name: nameTok.Text, Params: params, Body: body}
	ast.SetParent(n)
	return n, nil
}

func parseAssign(w *Walker, file string) (ast.Stmt, error) {
	pos := w.Next().Pos
	nameTok, err := w.ConsumeKind(lexer.Word)
	if err != nil {
		return nil, err
	}
	var index ast.Expr
	if t := w.Peek(); t.Kind == lexer.Bracket {
		w.Next()
		index, err = ParseExprTokens(t.Children(), file)
		if err != nil {
			return nil, err
		}
	}
	opTok, err := w.ConsumeKind(lexer.Operator)
	if err != nil {
		return nil, err
	}
	var value ast.Expr
	if opTok.Text != "++" && opTok.Text != "--" {
		valueTok, err := w.ConsumeKind(lexer.Paren)
		if err != nil {
			return nil, err
		}
		valueTok.SetRole(lexer.RoleExpr)
		value, err = ParseExprTokens(valueTok.Children(), file)
		if err != nil {
			return nil, err
		}
	}
	w.SkipOptionalSemicolon()
	return &ast.Assign{Pos: pos, Name: nameTok.Text, Index: index, Op: opTok.Text, Value: value}, nil
}

func parseParenExpr(w *Walker, file string) (ast.Expr, error) {
	tok, err := w.ConsumeKind(lexer.Paren)
	if err != nil {
		return nil, err
	}
	tok.SetRole(lexer.RoleExpr)
	return ParseExprTokens(tok.Children(), file)
}
