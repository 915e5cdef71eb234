package python

var augAssignOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true, "@=": true,
	"&=": true, "|=": true, "^=": true, ">>=": true, "<<=": true, "**=": true,
}

// statement 解析一条完整语句：复合语句或一行以 ; 分隔的简单语句。
func (p *pyParser) statement() error {
	t := p.peek()
	if t.kind == tokIndent {
		return p.errorf(t, "unexpected indent")
	}
	if p.isOp("@") {
		_, err := p.decorated()
		return err
	}
	if t.kind == tokName {
		switch t.text {
		case "def":
			_, err := p.funcDef(false)
			return err
		case "class":
			return p.classDef()
		case "if":
			return p.ifStmt()
		case "while":
			return p.whileStmt()
		case "for":
			return p.forStmt()
		case "try":
			return p.tryStmt()
		case "with":
			return p.withStmt()
		case "async":
			switch next := p.peekAt(1); {
			case next.kind != tokName:
			case next.text == "def":
				p.next()
				_, err := p.funcDef(true)
				return err
			case next.text == "for":
				p.next()
				return p.forStmt()
			case next.text == "with":
				p.next()
				return p.withStmt()
			}
		case "match":
			if p.matchHeader() {
				return p.matchStmt()
			}
		}
	}
	return p.simpleStatements()
}

func (p *pyParser) simpleStatements() error {
	for {
		if err := p.simpleStatement(); err != nil {
			return err
		}
		if !p.isOp(";") {
			break
		}
		p.next()
		if k := p.peek().kind; k == tokNewline || k == tokEOF {
			break
		}
	}
	switch t := p.peek(); t.kind {
	case tokNewline:
		p.next()
		return nil
	case tokEOF:
		return nil
	default:
		return p.invalid(t)
	}
}

func (p *pyParser) atStatementEnd() bool {
	t := p.peek()
	return t.kind == tokNewline || t.kind == tokEOF || t.kind == tokOp && t.text == ";"
}

// startsExpression 判断当前 token 能否开始一个表达式，用于识别尾随逗号。
func (p *pyParser) startsExpression() bool {
	t := p.peek()
	switch t.kind {
	case tokNumber, tokString:
		return true
	case tokName:
		if !keywords[t.text] {
			return true
		}
		switch t.text {
		case "True", "False", "None", "not", "lambda", "await":
			return true
		}
	case tokOp:
		switch t.text {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

func (p *pyParser) simpleStatement() error {
	t := p.peek()
	if t.kind == tokName {
		switch t.text {
		case "pass", "break", "continue":
			p.next()
			return nil
		case "return":
			p.next()
			if p.atStatementEnd() {
				return nil
			}
			_, err := p.starExpressions()
			return err
		case "raise":
			return p.raiseStmt()
		case "global", "nonlocal":
			p.next()
			return p.nameList()
		case "del":
			p.next()
			at := p.peek()
			targets, err := p.starExpressions()
			if err != nil {
				return err
			}
			return p.checkTarget(targets, at, "delete")
		case "assert":
			p.next()
			if _, err := p.expression(); err != nil {
				return err
			}
			if p.isOp(",") {
				p.next()
				_, err := p.expression()
				return err
			}
			return nil
		case "import":
			p.next()
			return p.importNames()
		case "from":
			return p.importFrom()
		case "type":
			if next := p.peekAt(1); next.kind == tokName && !keywords[next.text] {
				if after := p.peekAt(2); after.kind == tokOp && (after.text == "=" || after.text == "[") {
					return p.typeAlias()
				}
			}
		}
	}
	return p.exprStatement()
}

// exprStatement 处理表达式语句以及普通、增强与带注解的赋值。
func (p *pyParser) exprStatement() error {
	if p.isKw("yield") {
		return p.yieldExpr()
	}
	at := p.peek()
	value, err := p.starExpressions()
	if err != nil {
		return err
	}

	switch t := p.peek(); {
	case p.isOp("="):
		for p.isOp("=") {
			p.next()
			if err := p.checkTarget(value, at, "assign to"); err != nil {
				return err
			}
			at = p.peek()
			if value, err = p.assignValue(); err != nil {
				return err
			}
		}
	case t.kind == tokOp && augAssignOps[t.text]:
		if err := p.checkSingleTarget(value, at, "augmented assignment"); err != nil {
			return err
		}
		p.next()
		at = p.peek()
		if value, err = p.assignValue(); err != nil {
			return err
		}
	case p.isOp(":"):
		if err := p.checkSingleTarget(value, at, "annotated assignment"); err != nil {
			return err
		}
		p.next()
		if _, err := p.expression(); err != nil {
			return err
		}
		if !p.isOp("=") {
			return nil
		}
		p.next()
		at = p.peek()
		if value, err = p.assignValue(); err != nil {
			return err
		}
	}

	if _, starred := value.(*starredExpr); starred {
		return p.errorf(at, "can't use starred expression here")
	}
	return nil
}

func (p *pyParser) assignValue() (expr, error) {
	if p.isKw("yield") {
		return &otherExpr{kind: "yield"}, p.yieldExpr()
	}
	return p.starExpressions()
}

// starExpressions 解析逗号分隔的表达式列表，多于一项或带尾随逗号时得到 tuple。
func (p *pyParser) starExpressions() (expr, error) {
	first, err := p.starExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []expr{first}
	for p.isOp(",") {
		p.next()
		if !p.startsExpression() {
			break
		}
		e, err := p.starExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &containerExpr{kind: "tuple", elts: elts}, nil
}

func (p *pyParser) checkTarget(e expr, at token, verb string) error {
	switch v := e.(type) {
	case *nameExpr, *attributeExpr:
		return nil
	case *starredExpr:
		if verb == "delete" {
			return p.errorf(at, "cannot delete starred")
		}
		return p.checkTarget(v.value, at, verb)
	case *containerExpr:
		if v.kind != "tuple" && v.kind != "list" {
			return p.errorf(at, "cannot %s %s display", verb, v.kind)
		}
		for _, elt := range v.elts {
			if err := p.checkTarget(elt, at, verb); err != nil {
				return err
			}
		}
		return nil
	case *otherExpr:
		if v.kind == "subscript" {
			return nil
		}
	case *constantExpr:
		return p.errorf(at, "cannot %s literal", verb)
	case *callExpr:
		return p.errorf(at, "cannot %s function call", verb)
	}
	return p.errorf(at, "cannot %s expression", verb)
}

func (p *pyParser) checkSingleTarget(e expr, at token, what string) error {
	switch v := e.(type) {
	case *nameExpr, *attributeExpr:
		return nil
	case *otherExpr:
		if v.kind == "subscript" {
			return nil
		}
	}
	return p.errorf(at, "illegal target for %s", what)
}

func (p *pyParser) name() (token, error) {
	t := p.next()
	if t.kind != tokName || keywords[t.text] {
		return t, p.invalid(t)
	}
	return t, nil
}

func (p *pyParser) nameList() error {
	for {
		if _, err := p.name(); err != nil {
			return err
		}
		if !p.isOp(",") {
			return nil
		}
		p.next()
	}
}

func (p *pyParser) dottedName() error {
	for {
		if _, err := p.name(); err != nil {
			return err
		}
		if !p.isOp(".") {
			return nil
		}
		p.next()
	}
}

func (p *pyParser) raiseStmt() error {
	p.next()
	if p.atStatementEnd() {
		return nil
	}
	if _, err := p.expression(); err != nil {
		return err
	}
	if p.isKw("from") {
		p.next()
		_, err := p.expression()
		return err
	}
	return nil
}

// importNames 解析 import a.b as c, d。
func (p *pyParser) importNames() error {
	for {
		if err := p.dottedName(); err != nil {
			return err
		}
		if p.isKw("as") {
			p.next()
			if _, err := p.name(); err != nil {
				return err
			}
		}
		if !p.isOp(",") {
			return nil
		}
		p.next()
	}
}

func (p *pyParser) importFrom() error {
	p.next()
	dots := 0
	for p.isOp(".") || p.isOp("...") {
		p.next()
		dots++
	}
	if dots == 0 || !p.isKw("import") {
		if err := p.dottedName(); err != nil {
			return err
		}
	}
	if !p.isKw("import") {
		return p.invalid(p.peek())
	}
	p.next()

	if p.isOp("*") {
		p.next()
		return nil
	}
	parens := p.isOp("(")
	if parens {
		p.next()
	}
	for {
		if _, err := p.name(); err != nil {
			return err
		}
		if p.isKw("as") {
			p.next()
			if _, err := p.name(); err != nil {
				return err
			}
		}
		if !p.isOp(",") {
			break
		}
		p.next()
		if parens && p.isOp(")") {
			break
		}
		if !parens && p.atStatementEnd() {
			return p.errorf(p.peek(), "trailing comma not allowed without surrounding parentheses")
		}
	}
	if parens {
		return p.expectOp(")")
	}
	return nil
}

func (p *pyParser) typeAlias() error {
	p.next()
	p.next()
	if p.isOp("[") {
		if err := p.skipTypeParams(); err != nil {
			return err
		}
	}
	if err := p.expectOp("="); err != nil {
		return err
	}
	_, err := p.expression()
	return err
}

// --- compound statements ---

// suite 消费冒号并解析其后的语句块。
func (p *pyParser) suite() error {
	colon := p.peek()
	if err := p.expectOp(":"); err != nil {
		return err
	}
	return p.block(colon)
}

func (p *pyParser) block(colon token) error {
	if p.peek().kind != tokNewline {
		return p.simpleStatements()
	}
	p.next()
	if t := p.next(); t.kind != tokIndent {
		return p.errorf(t, "expected an indented block after statement on line %d", colon.pos.Line)
	}
	return p.blockBody()
}

// blockBody 解析 INDENT 之后的语句直到对应的 DEDENT。
func (p *pyParser) blockBody() error {
	for {
		switch t := p.peek(); t.kind {
		case tokDedent:
			p.next()
			return nil
		case tokEOF:
			return nil
		case tokNewline:
			p.next()
		default:
			if err := p.statement(); err != nil {
				return err
			}
		}
	}
}

func (p *pyParser) optionalElse() error {
	if !p.isKw("else") {
		return nil
	}
	p.next()
	return p.suite()
}

func (p *pyParser) ifStmt() error {
	p.next()
	if _, err := p.namedExpr(); err != nil {
		return err
	}
	if err := p.suite(); err != nil {
		return err
	}
	for p.isKw("elif") {
		p.next()
		if _, err := p.namedExpr(); err != nil {
			return err
		}
		if err := p.suite(); err != nil {
			return err
		}
	}
	return p.optionalElse()
}

func (p *pyParser) whileStmt() error {
	p.next()
	if _, err := p.namedExpr(); err != nil {
		return err
	}
	if err := p.suite(); err != nil {
		return err
	}
	return p.optionalElse()
}

func (p *pyParser) forStmt() error {
	p.next()
	at := p.peek()
	p.noIn = true
	target, err := p.starExpressions()
	p.noIn = false
	if err != nil {
		return err
	}
	if err := p.checkTarget(target, at, "assign to"); err != nil {
		return err
	}
	if !p.isKw("in") {
		return p.invalid(p.peek())
	}
	p.next()
	if _, err := p.starExpressions(); err != nil {
		return err
	}
	if err := p.suite(); err != nil {
		return err
	}
	return p.optionalElse()
}

func (p *pyParser) tryStmt() error {
	p.next()
	if err := p.suite(); err != nil {
		return err
	}
	handlers := 0
	for p.isKw("except") {
		p.next()
		if p.isOp("*") {
			p.next()
		}
		if !p.isOp(":") {
			if _, err := p.expression(); err != nil {
				return err
			}
			if p.isKw("as") {
				p.next()
				if _, err := p.name(); err != nil {
					return err
				}
			}
		}
		if err := p.suite(); err != nil {
			return err
		}
		handlers++
	}
	if handlers > 0 {
		if err := p.optionalElse(); err != nil {
			return err
		}
	}
	if p.isKw("finally") {
		p.next()
		return p.suite()
	}
	if handlers == 0 {
		return p.errorf(p.peek(), "expected 'except' or 'finally' block")
	}
	return nil
}

func (p *pyParser) withStmt() error {
	p.next()
	if p.isOp("(") {
		start := p.pos
		if err := p.parenthesizedWithItems(); err == nil && p.isOp(":") {
			return p.suite()
		}
		p.pos = start
		p.noIn = false
	}
	for {
		if err := p.withItem(); err != nil {
			return err
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	return p.suite()
}

// parenthesizedWithItems 尝试 with (a as b, c as d) 形式，失败时由调用方回退。
func (p *pyParser) parenthesizedWithItems() error {
	p.next()
	restore := p.allowIn()
	defer restore()
	for !p.isOp(")") {
		if err := p.withItem(); err != nil {
			return err
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	return p.expectOp(")")
}

func (p *pyParser) withItem() error {
	if _, err := p.expression(); err != nil {
		return err
	}
	if !p.isKw("as") {
		return nil
	}
	p.next()
	at := p.peek()
	target, err := p.primary()
	if err != nil {
		return err
	}
	return p.checkTarget(target, at, "assign to")
}

func (p *pyParser) classDef() error {
	p.next()
	nameTok, err := p.name()
	if err != nil {
		return err
	}
	if p.isOp("[") {
		if err := p.skipTypeParams(); err != nil {
			return err
		}
	}
	if p.isOp("(") {
		p.next()
		if _, err := p.callArgs(&nameExpr{id: nameTok.text}); err != nil {
			return err
		}
	}
	return p.suite()
}

// matchHeader 判断 match 是否作为软关键字开启 match 语句，不消费 token。
func (p *pyParser) matchHeader() bool {
	start := p.pos
	defer func() {
		p.pos = start
		p.noIn = false
	}()
	p.next()
	if !p.startsExpression() {
		return false
	}
	_, err := p.starExpressions()
	return err == nil && p.isOp(":") && p.peekAt(1).kind == tokNewline
}

func (p *pyParser) matchStmt() error {
	p.next()
	if _, err := p.starExpressions(); err != nil {
		return err
	}
	colon := p.next()
	p.next()
	if t := p.next(); t.kind != tokIndent {
		return p.errorf(t, "expected an indented block after 'match' statement on line %d", colon.pos.Line)
	}
	for {
		switch t := p.peek(); {
		case t.kind == tokDedent:
			p.next()
			return nil
		case t.kind == tokEOF:
			return nil
		case !p.isKw("case"):
			return p.invalid(t)
		}
		p.next()
		if err := p.casePattern(); err != nil {
			return err
		}
		if p.isKw("if") {
			p.next()
			if _, err := p.namedExpr(); err != nil {
				return err
			}
		}
		if err := p.suite(); err != nil {
			return err
		}
	}
}

// casePattern 只校验模式非空且括号配对，读到顶层的 ':' 或 'if' 为止。
func (p *pyParser) casePattern() error {
	depth, n := 0, 0
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF, t.kind == tokNewline && depth == 0:
			return p.invalid(t)
		case depth == 0 && n > 0 && (t.kind == tokOp && t.text == ":" || t.kind == tokName && t.text == "if"):
			return nil
		case t.kind == tokOp && (t.text == "(" || t.text == "[" || t.text == "{"):
			depth++
		case t.kind == tokOp && (t.text == ")" || t.text == "]" || t.text == "}"):
			depth--
			if depth < 0 {
				return p.invalid(t)
			}
		}
		p.next()
		n++
	}
}
