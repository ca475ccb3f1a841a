package xpath

import "strings"

// tokenize scans the whole expression up front, resolving the '*'/name
// operator-vs-operand ambiguity as it goes (XPath 1.0's own lexical
// disambiguation rule: a '*' or a name like "div" is an operator only
// when the previous significant token was not '@', '::', '(', '[', ',' or
// itself an operator).
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	operatorExpected := false
	for {
		tok, err := l.next(operatorExpected)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
		switch tok.kind {
		case tokAt, tokColonColon, tokLParen, tokLBracket, tokComma,
			tokSlash, tokSlashSlash, tokPipe, tokPlus, tokMinus, tokStar,
			tokEq, tokNe, tokLt, tokLe, tokGt, tokGe,
			tokAnd, tokOr, tokDiv, tokMod:
			operatorExpected = false
		default:
			operatorExpected = true
		}
	}
}

type parser struct {
	toks       []token
	pos        int
	namespaces map[string]string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(offset int) token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, syntaxError("expected %s, found %q", what, t.text)
	}
	return p.advance(), nil
}

// Compile parses expression into a reusable compiled Expr. namespaces
// resolves the prefixes a QName node test or
// wildcard may use ("prefix:local", "prefix:*"); pass nil if the
// expression uses no prefixed names.
func Compile(expression string, namespaces map[string]string) (*Expr, error) {
	toks, err := tokenize(expression)
	if err != nil {
		return nil, err
	}
	if namespaces == nil {
		namespaces = map[string]string{}
	}
	p := &parser{toks: toks, namespaces: namespaces}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, syntaxError("unexpected trailing input at %q", p.peek().text)
	}
	return &Expr{ast: e}, nil
}

func (p *parser) parseExpr() (expr, error) { return p.parseOr() }

func (p *parser) parseOr() (expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: opOr, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (expr, error) {
	l, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		r, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: opAnd, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseEquality() (expr, error) {
	l, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().kind {
		case tokEq:
			op = opEq
		case tokNe:
			op = opNe
		default:
			return l, nil
		}
		p.advance()
		r, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
}

func (p *parser) parseRelational() (expr, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().kind {
		case tokLt:
			op = opLt
		case tokLe:
			op = opLe
		case tokGt:
			op = opGt
		case tokGe:
			op = opGe
		default:
			return l, nil
		}
		p.advance()
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
}

func (p *parser) parseAdditive() (expr, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().kind {
		case tokPlus:
			op = opAdd
		case tokMinus:
			op = opSub
		default:
			return l, nil
		}
		p.advance()
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
}

func (p *parser) parseMultiplicative() (expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op binOp
		switch p.peek().kind {
		case tokStar:
			op = opMul
		case tokDiv:
			op = opDiv
		case tokMod:
			op = opMod
		default:
			return l, nil
		}
		p.advance()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
}

func (p *parser) parseUnary() (expr, error) {
	if p.peek().kind == tokMinus {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryMinus{x: x}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (expr, error) {
	l, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPipe {
		p.advance()
		r, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: opUnion, l: l, r: r}
	}
	return l, nil
}

// parsePathExpr implements PathExpr: either a LocationPath, or a
// FilterExpr optionally continued by '/'/'//'  RelativeLocationPath.
func (p *parser) parsePathExpr() (expr, error) {
	t := p.peek()
	if t.kind == tokSlash || t.kind == tokSlashSlash || p.isStepStart() {
		lp, err := p.parseLocationPath()
		if err != nil {
			return nil, err
		}
		return lp, nil
	}

	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	preds, err := p.parsePredicates()
	if err != nil {
		return nil, err
	}
	fe := filterExpr{primary: primary, preds: preds}
	if p.peek().kind == tokSlash || p.peek().kind == tokSlashSlash {
		deep := p.peek().kind == tokSlashSlash
		p.advance()
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		if deep {
			rel.steps = append([]step{descendantOrSelfStep()}, rel.steps...)
		}
		fe.tail = rel
	}
	return fe, nil
}

func isNodeTypeName(s string) bool {
	switch s {
	case "comment", "text", "node", "processing-instruction":
		return true
	}
	return false
}

// isStepStart reports whether the token at the parser's current position
// can only begin a location step, disambiguating a bare NCName step (e.g.
// "title") from a FunctionCall PrimaryExpr (e.g. "count(...)") by
// lookahead on '(' / '::'.
func (p *parser) isStepStart() bool {
	t := p.peek()
	switch t.kind {
	case tokDot, tokDotDot, tokAt:
		return true
	case tokName:
		next := p.peekAt(1)
		if next.kind == tokColonColon {
			return true
		}
		if next.kind == tokLParen {
			return isNodeTypeName(t.text)
		}
		return true
	}
	return false
}

func descendantOrSelfStep() step {
	return step{axis: AxisDescendantOrSelf, test: kindTest{kind: kindAny}}
}

func (p *parser) parseLocationPath() (*locationPath, error) {
	lp := &locationPath{}
	switch p.peek().kind {
	case tokSlash:
		p.advance()
		lp.absolute = true
		if !p.isStepStart() {
			return lp, nil // bare "/"
		}
	case tokSlashSlash:
		p.advance()
		lp.absolute = true
		lp.steps = append(lp.steps, descendantOrSelfStep())
	}
	rel, err := p.parseRelativeLocationPath()
	if err != nil {
		return nil, err
	}
	lp.steps = append(lp.steps, rel.steps...)
	return lp, nil
}

func (p *parser) parseRelativeLocationPath() (*locationPath, error) {
	lp := &locationPath{}
	st, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	lp.steps = append(lp.steps, st)
	for p.peek().kind == tokSlash || p.peek().kind == tokSlashSlash {
		deep := p.peek().kind == tokSlashSlash
		p.advance()
		if deep {
			lp.steps = append(lp.steps, descendantOrSelfStep())
		}
		st, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		lp.steps = append(lp.steps, st)
	}
	return lp, nil
}

func (p *parser) parseStep() (step, error) {
	switch p.peek().kind {
	case tokDot:
		p.advance()
		return step{axis: AxisSelf, test: kindTest{kind: kindAny}}, nil
	case tokDotDot:
		p.advance()
		return step{axis: AxisParent, test: kindTest{kind: kindAny}}, nil
	}

	axis := AxisChild
	if p.peek().kind == tokAt {
		p.advance()
		axis = AxisAttribute
	} else if p.peek().kind == tokName && p.peekAt(1).kind == tokColonColon {
		name := p.advance().text
		p.advance() // '::'
		a, ok := axisNames[name]
		if !ok {
			return step{}, syntaxError("unknown axis %q", name)
		}
		axis = a
	}

	test, err := p.parseNodeTest(axis)
	if err != nil {
		return step{}, err
	}
	preds, err := p.parsePredicates()
	if err != nil {
		return step{}, err
	}
	return step{axis: axis, test: test, preds: preds}, nil
}

func (p *parser) parseNodeTest(axis Axis) (nodeTest, error) {
	t := p.peek()
	if t.kind != tokName {
		return nil, syntaxError("expected a node test, found %q", t.text)
	}

	if p.peekAt(1).kind == tokLParen && isNodeTypeName(t.text) {
		p.advance()
		p.advance() // '('
		kt := kindTest{}
		switch t.text {
		case "node":
			kt.kind = kindAny
		case "text":
			kt.kind = kindText
		case "comment":
			kt.kind = kindComment
		case "processing-instruction":
			kt.kind = kindPI
		}
		if kt.kind == kindPI && p.peek().kind == tokLiteral {
			kt.piLit = p.advance().text
			kt.piLitOK = true
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return kt, nil
	}

	p.advance()
	if t.text == "*" {
		return wildcardTest{}, nil
	}
	prefix, local := splitQName(t.text)
	if local == "*" {
		if prefix == "" {
			return wildcardTest{}, nil
		}
		uri, ok := p.namespaces[prefix]
		if !ok {
			return nil, syntaxError("undefined namespace prefix %q", prefix)
		}
		return wildcardTest{prefix: prefix, hasURI: true, uri: uri}, nil
	}
	if prefix == "" {
		return qnameTest{local: local}, nil
	}
	uri, ok := p.namespaces[prefix]
	if !ok {
		return nil, syntaxError("undefined namespace prefix %q", prefix)
	}
	return qnameTest{hasURI: true, uri: uri, local: local}, nil
}

func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

func (p *parser) parsePredicates() ([]expr, error) {
	var preds []expr
	for p.peek().kind == tokLBracket {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	return preds, nil
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.peek()
	switch t.kind {
	case tokVariable:
		p.advance()
		return variableRef{name: t.text}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tokLiteral:
		p.advance()
		return literalString(t.text), nil
	case tokNumber:
		p.advance()
		return literalNumber(t.num), nil
	case tokName:
		name := t.text
		if _, ok := coreFunctions[name]; !ok {
			return nil, syntaxError("unknown function %s()", name)
		}
		p.advance()
		if _, err := p.expect(tokLParen, "'(' after a function name"); err != nil {
			return nil, err
		}
		var args []expr
		if p.peek().kind != tokRParen {
			for {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.peek().kind == tokComma {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return functionCall{name: name, args: args}, nil
	}
	return nil, syntaxError("unexpected token %q", t.text)
}
