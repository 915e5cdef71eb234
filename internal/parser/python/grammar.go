package python

import "fmt"

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// binaryLevels 从低到高排列二元运算符优先级，| 最低。
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

type pyParser struct {
	toks []token
	pos  int
	noIn bool
}

// parseModule 解析整个模块，返回顶层的同步 def。
func parseModule(src string) ([]*funcDef, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &pyParser{toks: toks}
	var defs []*funcDef
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return defs, nil
		case t.kind == tokNewline, t.kind == tokDedent:
			p.next()
		case t.kind == tokIndent:
			return nil, p.errorf(t, "unexpected indent")
		case p.isOp("@"):
			fd, err := p.decorated()
			if err != nil {
				return nil, err
			}
			if fd != nil && !fd.async {
				defs = append(defs, fd)
			}
		case p.isKw("def"):
			fd, err := p.funcDef(false)
			if err != nil {
				return nil, err
			}
			defs = append(defs, fd)
		case p.isKw("async") && p.peekAt(1).kind == tokName && p.peekAt(1).text == "def":
			p.next()
			if _, err := p.funcDef(true); err != nil {
				return nil, err
			}
		default:
			if err := p.statement(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *pyParser) peek() token { return p.toks[p.pos] }

func (p *pyParser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *pyParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *pyParser) isOp(s string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == s
}

func (p *pyParser) isKw(s string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == s
}

func (p *pyParser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.pos.Line, Col: t.pos.Col + 1, Msg: fmt.Sprintf(format, args...)}
}

func (p *pyParser) invalid(t token) error {
	if t.kind == tokEOF {
		return p.errorf(t, "unexpected EOF while parsing")
	}
	return p.errorf(t, "invalid syntax")
}

func (p *pyParser) expectOp(s string) error {
	if !p.isOp(s) {
		t := p.peek()
		if t.kind == tokEOF || t.kind == tokNewline {
			return p.errorf(t, "expected '%s'", s)
		}
		return p.invalid(t)
	}
	p.next()
	return nil
}

// allowIn 在括号内部重新允许 in 运算符，返回恢复函数。
func (p *pyParser) allowIn() func() {
	saved := p.noIn
	p.noIn = false
	return func() { p.noIn = saved }
}

// --- definitions ---

func (p *pyParser) decorated() (*funcDef, error) {
	for p.isOp("@") {
		p.next()
		if _, err := p.namedExpr(); err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokNewline {
			return nil, p.invalid(t)
		}
	}
	switch {
	case p.isKw("def"):
		return p.funcDef(false)
	case p.isKw("async") && p.peekAt(1).text == "def":
		p.next()
		return p.funcDef(true)
	case p.isKw("class"):
		return nil, p.classDef()
	}
	return nil, p.invalid(p.peek())
}

func (p *pyParser) funcDef(async bool) (*funcDef, error) {
	kw := p.next()
	nameTok := p.next()
	if nameTok.kind != tokName || keywords[nameTok.text] {
		return nil, p.invalid(nameTok)
	}
	fd := &funcDef{name: nameTok.text, async: async, line: kw.pos.Line}

	if p.isOp("[") {
		if err := p.skipTypeParams(); err != nil {
			return nil, err
		}
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.parameters(")", true)
	if err != nil {
		return nil, err
	}
	fd.params = params
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.isOp("->") {
		p.next()
		if fd.returns, err = p.expression(); err != nil {
			return nil, err
		}
	}
	colon := p.peek()
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}

	if p.peek().kind == tokNewline {
		p.next()
		if t := p.next(); t.kind != tokIndent {
			return nil, p.errorf(t, "expected an indented block after function definition on line %d", colon.pos.Line)
		}
		fd.doc = p.docstring()
		return fd, p.blockBody()
	}
	fd.doc = p.docstring()
	return fd, p.simpleStatements()
}

func (p *pyParser) skipTypeParams() error {
	depth := 0
	for {
		t := p.next()
		if t.kind == tokEOF {
			return p.invalid(t)
		}
		if t.kind != tokOp {
			continue
		}
		switch t.text {
		case "[":
			depth++
		case "]":
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

// docstring 判断函数体第一条语句是否为纯字符串表达式，不消费 token。
func (p *pyParser) docstring() *string {
	i := p.pos
	var doc string
	n := 0
	for p.toks[i].kind == tokString {
		s := p.toks[i].str
		if s.bytes || s.format {
			return nil
		}
		doc += s.value
		n++
		i++
	}
	if n == 0 {
		return nil
	}
	switch t := p.toks[i]; {
	case t.kind == tokNewline, t.kind == tokEOF, t.kind == tokOp && t.text == ";":
		return &doc
	}
	return nil
}

// parameters 解析形参列表直到 closing（不消费 closing）。
// lambda 形参不允许注解。
func (p *pyParser) parameters(closing string, annotations bool) ([]param, error) {
	var (
		params      []param
		seenSlash   bool
		seenStar    bool
		bareStar    bool
		seenKwargs  bool
		seenDefault bool
	)
	seen := map[string]bool{}
	restore := p.allowIn()
	defer restore()

	for !p.isOp(closing) {
		t := p.peek()
		before := len(params)
		if seenKwargs {
			return nil, p.errorf(t, "arguments cannot follow var-keyword argument")
		}
		switch {
		case p.isOp("/"):
			if seenSlash {
				return nil, p.errorf(t, "/ may appear only once")
			}
			if seenStar {
				return nil, p.errorf(t, "/ must be ahead of *")
			}
			if len(params) == 0 {
				return nil, p.errorf(t, "at least one argument must precede /")
			}
			p.next()
			seenSlash = true
			for i := range params {
				params[i].kind = paramPositionalOnly
			}
		case p.isOp("**"):
			p.next()
			prm, err := p.paramName(annotations, false)
			if err != nil {
				return nil, err
			}
			prm.kind = paramVarKeywords
			if p.isOp("=") {
				return nil, p.errorf(p.peek(), "var-keyword argument cannot have default value")
			}
			params = append(params, prm)
			seenKwargs = true
		case p.isOp("*"):
			if seenStar {
				return nil, p.errorf(t, "* argument may appear only once")
			}
			p.next()
			seenStar = true
			if p.isOp(",") || p.isOp(closing) {
				bareStar = true
				break
			}
			prm, err := p.paramName(annotations, true)
			if err != nil {
				return nil, err
			}
			prm.kind = paramVarArgs
			if p.isOp("=") {
				return nil, p.errorf(p.peek(), "var-positional argument cannot have default value")
			}
			params = append(params, prm)
		default:
			prm, err := p.paramName(annotations, false)
			if err != nil {
				return nil, err
			}
			if p.isOp("=") {
				p.next()
				if prm.def, err = p.expression(); err != nil {
					return nil, err
				}
			}
			if seenStar {
				prm.kind = paramKeywordOnly
				bareStar = false
			} else {
				prm.kind = paramPositional
				if prm.def != nil {
					seenDefault = true
				} else if seenDefault {
					return nil, p.errorf(t, "parameter without a default follows parameter with a default")
				}
			}
			params = append(params, prm)
		}

		if len(params) > before {
			name := params[len(params)-1].name
			if seen[name] {
				return nil, p.errorf(t, "duplicate argument '%s' in function definition", name)
			}
			seen[name] = true
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if bareStar {
		return nil, p.errorf(p.peek(), "named arguments must follow bare *")
	}
	if !p.isOp(closing) {
		return nil, p.invalid(p.peek())
	}
	return params, nil
}

func (p *pyParser) paramName(annotations, starAnnotation bool) (param, error) {
	t := p.next()
	if t.kind != tokName || keywords[t.text] {
		return param{}, p.invalid(t)
	}
	prm := param{name: t.text}
	if annotations && p.isOp(":") {
		p.next()
		var err error
		if starAnnotation && p.isOp("*") {
			p.next()
			_, err = p.expression()
			prm.annotation = &otherExpr{kind: "starred"}
		} else {
			prm.annotation, err = p.expression()
		}
		if err != nil {
			return param{}, err
		}
	}
	return prm, nil
}

// --- expressions ---

func (p *pyParser) namedExpr() (expr, error) {
	if t := p.peek(); t.kind == tokName && !keywords[t.text] && p.peekAt(1).kind == tokOp && p.peekAt(1).text == ":=" {
		p.next()
		p.next()
		if _, err := p.expression(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "namedexpr"}, nil
	}
	return p.expression()
}

func (p *pyParser) starExpr() (expr, error) {
	if p.isOp("*") {
		p.next()
		v, err := p.binary(0)
		if err != nil {
			return nil, err
		}
		return &starredExpr{value: v}, nil
	}
	return p.namedExpr()
}

func (p *pyParser) expression() (expr, error) {
	if p.isKw("lambda") {
		return p.lambda()
	}
	e, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if !p.isKw("if") {
		return e, nil
	}
	p.next()
	if _, err := p.disjunction(); err != nil {
		return nil, err
	}
	if !p.isKw("else") {
		return nil, p.errorf(p.peek(), "expected 'else' after 'if' expression")
	}
	p.next()
	if _, err := p.expression(); err != nil {
		return nil, err
	}
	return &otherExpr{kind: "ifexp"}, nil
}

func (p *pyParser) lambda() (expr, error) {
	p.next()
	if _, err := p.parameters(":", false); err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if _, err := p.expression(); err != nil {
		return nil, err
	}
	return &otherExpr{kind: "lambda"}, nil
}

func (p *pyParser) disjunction() (expr, error) {
	left, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.isKw("or") {
		p.next()
		right, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *pyParser) conjunction() (expr, error) {
	left, err := p.inversion()
	if err != nil {
		return nil, err
	}
	for p.isKw("and") {
		p.next()
		right, err := p.inversion()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *pyParser) inversion() (expr, error) {
	if p.isKw("not") {
		p.next()
		operand, err := p.inversion()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: "not", operand: operand}, nil
	}
	return p.comparison()
}

func (p *pyParser) comparison() (expr, error) {
	left, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op string
		switch {
		case t.kind == tokOp && comparisonOps[t.text]:
			op = p.next().text
		case p.isKw("in") && !p.noIn:
			op = p.next().text
		case p.isKw("not") && p.peekAt(1).kind == tokName && p.peekAt(1).text == "in" && !p.noIn:
			p.next()
			p.next()
			op = "not in"
		case p.isKw("is"):
			p.next()
			op = "is"
			if p.isKw("not") {
				p.next()
				op = "is not"
			}
		default:
			return left, nil
		}
		right, err := p.binary(0)
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
}

func (p *pyParser) binary(level int) (expr, error) {
	if level == len(binaryLevels) {
		return p.factor()
	}
	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || !contains(binaryLevels[level], t.text) {
			return left, nil
		}
		p.next()
		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: t.text, left: left, right: right}
	}
}

func (p *pyParser) factor() (expr, error) {
	if t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-" || t.text == "~") {
		p.next()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: t.text, operand: operand}, nil
	}
	return p.power()
}

func (p *pyParser) power() (expr, error) {
	base, err := p.awaitPrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.next()
		exp, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{op: "**", left: base, right: exp}, nil
	}
	return base, nil
}

func (p *pyParser) awaitPrimary() (expr, error) {
	if p.isKw("await") {
		p.next()
		if _, err := p.primary(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "await"}, nil
	}
	return p.primary()
}

func (p *pyParser) primary() (expr, error) {
	e, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			p.next()
			t := p.next()
			if t.kind != tokName || keywords[t.text] {
				return nil, p.invalid(t)
			}
			e = &attributeExpr{value: e, attr: t.text}
		case p.isOp("("):
			p.next()
			call, err := p.callArgs(e)
			if err != nil {
				return nil, err
			}
			e = call
		case p.isOp("["):
			p.next()
			if err := p.subscript(); err != nil {
				return nil, err
			}
			e = &otherExpr{kind: "subscript"}
		default:
			return e, nil
		}
	}
}

func (p *pyParser) callArgs(fn expr) (expr, error) {
	restore := p.allowIn()
	defer restore()

	call := &callExpr{fn: fn}
	seenKeyword, seenDoubleStar := false, false
	for !p.isOp(")") {
		t := p.peek()
		switch {
		case p.isOp("*"):
			if seenDoubleStar {
				return nil, p.errorf(t, "iterable argument unpacking follows keyword argument unpacking")
			}
			p.next()
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, &starredExpr{value: v})
		case p.isOp("**"):
			p.next()
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.keywords = append(call.keywords, keyword{value: v})
			seenDoubleStar = true
		case t.kind == tokName && p.peekAt(1).kind == tokOp && p.peekAt(1).text == "=":
			if keywords[t.text] {
				return nil, p.errorf(t, "cannot assign to %s", t.text)
			}
			p.next()
			p.next()
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.keywords = append(call.keywords, keyword{name: t.text, value: v})
			seenKeyword = true
		default:
			v, err := p.namedExpr()
			if err != nil {
				return nil, err
			}
			if p.isCompFor() {
				if err := p.compFor(); err != nil {
					return nil, err
				}
				v = &otherExpr{kind: "genexp"}
			}
			if seenDoubleStar {
				return nil, p.errorf(t, "positional argument follows keyword argument unpacking")
			}
			if seenKeyword {
				return nil, p.errorf(t, "positional argument follows keyword argument")
			}
			call.args = append(call.args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *pyParser) subscript() error {
	restore := p.allowIn()
	defer restore()
	for {
		if err := p.slice(); err != nil {
			return err
		}
		if !p.isOp(",") {
			break
		}
		p.next()
		if p.isOp("]") {
			break
		}
	}
	return p.expectOp("]")
}

func (p *pyParser) slice() error {
	if !p.isOp(":") {
		if _, err := p.starExpr(); err != nil {
			return err
		}
		if !p.isOp(":") {
			return nil
		}
	}
	p.next()
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		if _, err := p.expression(); err != nil {
			return err
		}
	}
	if p.isOp(":") {
		p.next()
		if !p.isOp("]") && !p.isOp(",") {
			if _, err := p.expression(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pyParser) atom() (expr, error) {
	t := p.peek()
	switch t.kind {
	case tokName:
		switch t.text {
		case "True", "False":
			p.next()
			return &constantExpr{value: constant{kind: constBool, b: t.text == "True"}}, nil
		case "None":
			p.next()
			return &constantExpr{value: constant{kind: constNone}}, nil
		}
		if keywords[t.text] {
			return nil, p.invalid(t)
		}
		p.next()
		return &nameExpr{id: t.text}, nil
	case tokNumber:
		p.next()
		return &constantExpr{value: *t.num}, nil
	case tokString:
		return p.strings()
	case tokOp:
		switch t.text {
		case "(":
			return p.parenthesized()
		case "[":
			return p.list()
		case "{":
			return p.braced()
		case "...":
			p.next()
			return &constantExpr{value: constant{kind: constEllipsis}}, nil
		}
	}
	return nil, p.invalid(t)
}

// strings 处理相邻字符串字面量的隐式拼接。
func (p *pyParser) strings() (expr, error) {
	first := p.peek()
	var (
		value     string
		anyBytes  bool
		anyStr    bool
		formatted bool
	)
	for p.peek().kind == tokString {
		s := p.next().str
		if s.bytes {
			anyBytes = true
		} else {
			anyStr = true
		}
		formatted = formatted || s.format
		value += s.value
	}
	if anyBytes && anyStr {
		return nil, p.errorf(first, "cannot mix bytes and nonbytes literals")
	}
	if formatted {
		return &otherExpr{kind: "joinedstr"}, nil
	}
	if anyBytes {
		return &constantExpr{value: constant{kind: constBytes, s: value}}, nil
	}
	return &constantExpr{value: constant{kind: constStr, s: value}}, nil
}

func (p *pyParser) parenthesized() (expr, error) {
	p.next()
	restore := p.allowIn()
	defer restore()

	if p.isOp(")") {
		p.next()
		return &containerExpr{kind: "tuple"}, nil
	}
	if p.isKw("yield") {
		if err := p.yieldExpr(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "yield"}, p.expectOp(")")
	}
	first, err := p.starExpr()
	if err != nil {
		return nil, err
	}
	if p.isCompFor() {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "genexp"}, p.expectOp(")")
	}
	if p.isOp(")") {
		p.next()
		if _, starred := first.(*starredExpr); starred {
			return nil, p.errorf(p.peekAt(-1), "cannot use starred expression here")
		}
		return first, nil
	}
	elts, err := p.sequenceTail(first, ")")
	if err != nil {
		return nil, err
	}
	return &containerExpr{kind: "tuple", elts: elts}, nil
}

func (p *pyParser) list() (expr, error) {
	p.next()
	restore := p.allowIn()
	defer restore()

	if p.isOp("]") {
		p.next()
		return &containerExpr{kind: "list"}, nil
	}
	first, err := p.starExpr()
	if err != nil {
		return nil, err
	}
	if p.isCompFor() {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "listcomp"}, p.expectOp("]")
	}
	elts, err := p.sequenceTail(first, "]")
	if err != nil {
		return nil, err
	}
	return &containerExpr{kind: "list", elts: elts}, nil
}

// sequenceTail 读取首元素之后的 ", elt" 序列并消费 closing。
func (p *pyParser) sequenceTail(first expr, closing string) ([]expr, error) {
	elts := []expr{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(closing) {
			break
		}
		e, err := p.starExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return elts, p.expectOp(closing)
}

func (p *pyParser) braced() (expr, error) {
	p.next()
	restore := p.allowIn()
	defer restore()

	if p.isOp("}") {
		p.next()
		return &containerExpr{kind: "dict"}, nil
	}

	isDict := p.isOp("**")
	var first expr
	if !isDict {
		e, err := p.starExpr()
		if err != nil {
			return nil, err
		}
		first = e
		isDict = p.isOp(":")
	}

	if !isDict {
		if p.isCompFor() {
			if err := p.compFor(); err != nil {
				return nil, err
			}
			return &otherExpr{kind: "setcomp"}, p.expectOp("}")
		}
		elts, err := p.sequenceTail(first, "}")
		if err != nil {
			return nil, err
		}
		return &containerExpr{kind: "set", elts: elts}, nil
	}

	var elts []expr
	item := func(key expr) error {
		if key == nil {
			if p.isOp("**") {
				p.next()
				v, err := p.binary(0)
				elts = append(elts, v)
				return err
			}
			k, err := p.expression()
			if err != nil {
				return err
			}
			key = k
		}
		if err := p.expectOp(":"); err != nil {
			return err
		}
		v, err := p.expression()
		elts = append(elts, key, v)
		return err
	}
	if err := item(first); err != nil {
		return nil, err
	}
	if first != nil && p.isCompFor() {
		if err := p.compFor(); err != nil {
			return nil, err
		}
		return &otherExpr{kind: "dictcomp"}, p.expectOp("}")
	}
	for p.isOp(",") {
		p.next()
		if p.isOp("}") {
			break
		}
		if err := item(nil); err != nil {
			return nil, err
		}
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &containerExpr{kind: "dict", elts: elts}, nil
}

func (p *pyParser) isCompFor() bool {
	if p.isKw("for") {
		return true
	}
	return p.isKw("async") && p.peekAt(1).kind == tokName && p.peekAt(1).text == "for"
}

func (p *pyParser) compFor() error {
	for p.isCompFor() {
		if p.isKw("async") {
			p.next()
		}
		p.next()

		p.noIn = true
		for {
			var err error
			if p.isOp("*") {
				p.next()
				_, err = p.binary(0)
			} else {
				_, err = p.disjunction()
			}
			if err != nil {
				p.noIn = false
				return err
			}
			if !p.isOp(",") {
				break
			}
			p.next()
			if p.isKw("in") {
				break
			}
		}
		p.noIn = false

		if !p.isKw("in") {
			return p.invalid(p.peek())
		}
		p.next()
		if _, err := p.disjunction(); err != nil {
			return err
		}
		for p.isKw("if") {
			p.next()
			if _, err := p.disjunction(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pyParser) yieldExpr() error {
	p.next()
	if p.isKw("from") {
		p.next()
		_, err := p.expression()
		return err
	}
	if !p.startsExpression() {
		return nil
	}
	for {
		if _, err := p.starExpr(); err != nil {
			return err
		}
		if !p.isOp(",") {
			return nil
		}
		p.next()
		if !p.startsExpression() {
			return nil
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
