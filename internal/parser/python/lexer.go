package python

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/catattack05/functionary/internal/domain"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokOp
	tokNewline
	tokIndent
	tokDedent
)

type position struct {
	Line int
	Col  int
}

type token struct {
	kind tokenKind
	text string
	pos  position
	str  *stringLit
	num  *constant
}

type stringLit struct {
	value  string
	bytes  bool
	format bool
}

// SyntaxError 是源码语法错误，errors.Is(err, domain.ErrParse) 成立。
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d, column %d: %s", domain.ErrParse, e.Line, e.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return domain.ErrParse }

// operators 按长度降序，匹配时取最长前缀。
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ";", ".", "=",
}

var closingBracket = map[rune]rune{')': '(', ']': '[', '}': '{'}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

type lexer struct {
	src         []rune
	i           int
	line        int
	col         int
	tokens      []token
	indents     []int
	parens      []rune
	parenPos    []position
	atLineStart bool
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: []rune(src), line: 1, indents: []int{0}, atLineStart: true}
	if len(lx.src) > 0 && lx.src[0] == '\ufeff' {
		lx.i++
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

func (lx *lexer) errorf(pos position, format string, args ...any) error {
	return &SyntaxError{Line: pos.Line, Col: pos.Col + 1, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) here() position { return position{Line: lx.line, Col: lx.col} }

func (lx *lexer) peek(n int) rune {
	if lx.i+n < len(lx.src) {
		return lx.src[lx.i+n]
	}
	return 0
}

func (lx *lexer) advance() {
	c := lx.src[lx.i]
	lx.i++
	if c == '\n' || (c == '\r' && (lx.i >= len(lx.src) || lx.src[lx.i] != '\n')) {
		lx.line++
		lx.col = 0
		return
	}
	lx.col++
}

func (lx *lexer) emit(kind tokenKind, text string, pos position) *token {
	lx.tokens = append(lx.tokens, token{kind: kind, text: text, pos: pos})
	return &lx.tokens[len(lx.tokens)-1]
}

func (lx *lexer) run() error {
	for {
		if lx.atLineStart && len(lx.parens) == 0 {
			blank, err := lx.indentation()
			if err != nil {
				return err
			}
			if blank {
				continue
			}
		}
		if lx.i >= len(lx.src) {
			break
		}
		c := lx.src[lx.i]
		var err error
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			lx.advance()
		case c == '#':
			lx.skipComment()
		case c == '\n' || c == '\r':
			lx.newline()
		case c == '\\':
			err = lx.continuation()
		case isIdentStart(c):
			err = lx.nameOrString()
		case isDigit(c) || (c == '.' && isDigit(lx.peek(1))):
			err = lx.number()
		case c == '"' || c == '\'':
			err = lx.scanString("", lx.here(), lx.i)
		default:
			err = lx.operator()
		}
		if err != nil {
			return err
		}
	}

	if n := len(lx.parens); n > 0 {
		return lx.errorf(lx.parenPos[n-1], "'%c' was never closed", lx.parens[n-1])
	}
	if n := len(lx.tokens); n > 0 && lx.tokens[n-1].kind != tokNewline && lx.tokens[n-1].kind != tokDedent {
		lx.emit(tokNewline, "", lx.here())
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, "", lx.here())
	}
	lx.emit(tokEOF, "", lx.here())
	return nil
}

// indentation 处理逻辑行首的缩进，空行与纯注释行返回 blank=true。
func (lx *lexer) indentation() (bool, error) {
	col := 0
	for lx.i < len(lx.src) {
		switch lx.src[lx.i] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			goto measured
		}
		lx.advance()
	}
measured:
	if lx.i >= len(lx.src) {
		return false, nil
	}
	switch lx.src[lx.i] {
	case '#':
		lx.skipComment()
		if lx.i < len(lx.src) {
			lx.consumeNewline()
		}
		return true, nil
	case '\n', '\r':
		lx.consumeNewline()
		return true, nil
	}

	lx.atLineStart = false
	top := lx.indents[len(lx.indents)-1]
	switch {
	case col > top:
		lx.indents = append(lx.indents, col)
		lx.emit(tokIndent, "", lx.here())
	case col < top:
		for col < lx.indents[len(lx.indents)-1] {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(tokDedent, "", lx.here())
		}
		if col != lx.indents[len(lx.indents)-1] {
			return false, lx.errorf(lx.here(), "unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (lx *lexer) skipComment() {
	for lx.i < len(lx.src) && lx.src[lx.i] != '\n' && lx.src[lx.i] != '\r' {
		lx.advance()
	}
}

func (lx *lexer) consumeNewline() {
	if lx.src[lx.i] == '\r' && lx.peek(1) == '\n' {
		lx.advance()
	}
	lx.advance()
}

func (lx *lexer) newline() {
	pos := lx.here()
	lx.consumeNewline()
	if len(lx.parens) > 0 {
		return
	}
	if n := len(lx.tokens); n > 0 && lx.tokens[n-1].kind != tokNewline {
		lx.emit(tokNewline, "", pos)
	}
	lx.atLineStart = true
}

func (lx *lexer) continuation() error {
	pos := lx.here()
	lx.advance()
	if lx.i >= len(lx.src) {
		return lx.errorf(pos, "unexpected EOF while parsing")
	}
	if c := lx.src[lx.i]; c != '\n' && c != '\r' {
		return lx.errorf(pos, "unexpected character after line continuation character")
	}
	lx.consumeNewline()
	return nil
}

func (lx *lexer) nameOrString() error {
	pos := lx.here()
	start := lx.i
	for lx.i < len(lx.src) && isIdentChar(lx.src[lx.i]) {
		lx.advance()
	}
	word := string(lx.src[start:lx.i])
	if lx.i < len(lx.src) && (lx.src[lx.i] == '"' || lx.src[lx.i] == '\'') && stringPrefixes[strings.ToLower(word)] {
		return lx.scanString(word, pos, start)
	}
	lx.emit(tokName, word, pos)
	return nil
}

func (lx *lexer) operator() error {
	pos := lx.here()
	c := lx.src[lx.i]
	for _, op := range operators {
		if !lx.hasPrefix(op) {
			continue
		}
		for range op {
			lx.advance()
		}
		switch c {
		case '(', '[', '{':
			lx.parens = append(lx.parens, c)
			lx.parenPos = append(lx.parenPos, pos)
		case ')', ']', '}':
			n := len(lx.parens)
			if n == 0 {
				return lx.errorf(pos, "unmatched '%c'", c)
			}
			if open := lx.parens[n-1]; open != closingBracket[c] {
				return lx.errorf(pos, "closing parenthesis '%c' does not match opening parenthesis '%c'", c, open)
			}
			lx.parens = lx.parens[:n-1]
			lx.parenPos = lx.parenPos[:n-1]
		}
		lx.emit(tokOp, op, pos)
		return nil
	}
	return lx.errorf(pos, "invalid character '%c' (U+%04X)", c, c)
}

func (lx *lexer) hasPrefix(s string) bool {
	j := lx.i
	for _, r := range s {
		if j >= len(lx.src) || lx.src[j] != r {
			return false
		}
		j++
	}
	return true
}

func (lx *lexer) scanString(prefix string, pos position, start int) error {
	p := strings.ToLower(prefix)
	raw := strings.Contains(p, "r")
	lit := &stringLit{bytes: strings.Contains(p, "b"), format: strings.Contains(p, "f")}

	q := lx.src[lx.i]
	triple := lx.peek(1) == q && lx.peek(2) == q
	n := 1
	if triple {
		n = 3
	}
	for k := 0; k < n; k++ {
		lx.advance()
	}

	var body []rune
	depth := 0
	for {
		if lx.i >= len(lx.src) {
			if triple {
				return lx.errorf(pos, "unterminated triple-quoted string literal (detected at line %d)", lx.line)
			}
			return lx.errorf(pos, "unterminated string literal (detected at line %d)", lx.line)
		}
		c := lx.src[lx.i]
		if c == q && depth == 0 && (!triple || (lx.peek(1) == q && lx.peek(2) == q)) {
			for k := 0; k < n; k++ {
				lx.advance()
			}
			break
		}
		switch {
		case c == '\\':
			body = append(body, c)
			lx.advance()
			if lx.i < len(lx.src) {
				if lx.src[lx.i] == '\r' && lx.peek(1) == '\n' {
					lx.advance()
				}
				body = append(body, normalizeNewline(lx.src[lx.i]))
				lx.advance()
			}
			continue
		case c == '\n' || c == '\r':
			if !triple && depth == 0 {
				return lx.errorf(pos, "unterminated string literal (detected at line %d)", lx.line)
			}
			if c == '\r' && lx.peek(1) == '\n' {
				lx.advance()
			}
			body = append(body, '\n')
			lx.advance()
			continue
		case lit.format && c == '{':
			if depth == 0 && lx.peek(1) == '{' {
				body = append(body, c, c)
				lx.advance()
				lx.advance()
				continue
			}
			depth++
		case lit.format && c == '}' && depth > 0:
			depth--
		case lit.format && depth > 0 && (c == '"' || c == '\''):
			// 3.12 起替换字段内可以嵌套任意引号的字符串
			nested, err := lx.nestedString(c)
			if err != nil {
				return err
			}
			body = append(body, nested...)
			continue
		}
		body = append(body, c)
		lx.advance()
	}

	if raw || lit.format {
		lit.value = string(body)
	} else {
		v, err := decodeEscapes(body, lit.bytes)
		if err != nil {
			return lx.errorf(pos, "%s", err)
		}
		lit.value = v
	}
	if lit.bytes {
		for _, r := range body {
			if r > unicode.MaxASCII {
				return lx.errorf(pos, "bytes can only contain ASCII literal characters")
			}
		}
	}
	t := lx.emit(tokString, string(lx.src[start:lx.i]), pos)
	t.str = lit
	return nil
}

func (lx *lexer) nestedString(q rune) ([]rune, error) {
	pos := lx.here()
	start := lx.i
	lx.advance()
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		lx.advance()
		if c == '\\' && lx.i < len(lx.src) {
			lx.advance()
			continue
		}
		if c == q {
			return lx.src[start:lx.i], nil
		}
		if c == '\n' || c == '\r' {
			break
		}
	}
	return nil, lx.errorf(pos, "unterminated string literal (detected at line %d)", lx.line)
}

func normalizeNewline(r rune) rune {
	if r == '\r' {
		return '\n'
	}
	return r
}

func decodeEscapes(body []rune, isBytes bool) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteRune(c)
			continue
		}
		i++
		e := body[i]
		switch e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteRune(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(e - '0')
			for k := 0; k < 2 && i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '7'; k++ {
				i++
				v = v*8 + int(body[i]-'0')
			}
			sb.WriteRune(rune(v))
		case 'x':
			v, ok := hexValue(body, i+1, 2)
			if !ok {
				return "", fmt.Errorf("(unicode error) truncated \\xXX escape")
			}
			i += 2
			sb.WriteRune(rune(v))
		case 'u', 'U':
			if isBytes {
				sb.WriteRune('\\')
				sb.WriteRune(e)
				continue
			}
			width := 4
			if e == 'U' {
				width = 8
			}
			v, ok := hexValue(body, i+1, width)
			if !ok || v > unicode.MaxRune {
				return "", fmt.Errorf("(unicode error) truncated \\%cXXXX escape", e)
			}
			i += width
			sb.WriteRune(rune(v))
		default:
			sb.WriteRune('\\')
			sb.WriteRune(e)
		}
	}
	return sb.String(), nil
}

func hexValue(body []rune, start, width int) (int64, bool) {
	if start+width > len(body) {
		return 0, false
	}
	v, err := strconv.ParseInt(string(body[start:start+width]), 16, 64)
	return v, err == nil
}

func (lx *lexer) number() error {
	pos := lx.here()
	start := lx.i
	c := lx.src[lx.i]

	if c == '0' && strings.ContainsRune("xXoObB", lx.peek(1)) {
		lx.advance()
		lx.advance()
		base := map[rune]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[lx.src[lx.i-1]]
		digits, err := lx.digits(func(r rune) bool { return digitValue(r) < base }, true)
		if err != nil {
			return err
		}
		if digits == "" {
			return lx.errorf(pos, "invalid %s literal", baseName(base))
		}
		if lx.i < len(lx.src) && isIdentChar(lx.src[lx.i]) {
			return lx.errorf(pos, "invalid digit '%c' in %s literal", lx.src[lx.i], baseName(base))
		}
		return lx.emitInt(pos, start, digits, base)
	}

	intPart, err := lx.digits(isDigit, false)
	if err != nil {
		return err
	}
	isFloat := false
	if lx.i < len(lx.src) && lx.src[lx.i] == '.' {
		isFloat = true
		lx.advance()
		if lx.i < len(lx.src) && isDigit(lx.src[lx.i]) {
			if _, err := lx.digits(isDigit, false); err != nil {
				return err
			}
		}
	}
	if lx.i < len(lx.src) && (lx.src[lx.i] == 'e' || lx.src[lx.i] == 'E') {
		next := lx.peek(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(lx.peek(2))) {
			isFloat = true
			lx.advance()
			if next == '+' || next == '-' {
				lx.advance()
			}
			if _, err := lx.digits(isDigit, false); err != nil {
				return err
			}
		}
	}
	text := string(lx.src[start:lx.i])
	clean := strings.ReplaceAll(text, "_", "")

	if lx.i < len(lx.src) && (lx.src[lx.i] == 'j' || lx.src[lx.i] == 'J') {
		lx.advance()
		t := lx.emit(tokNumber, string(lx.src[start:lx.i]), pos)
		t.num = &constant{kind: constComplex}
		return nil
	}
	if isFloat {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil && !isRangeErr(err) {
			return lx.errorf(pos, "invalid decimal literal")
		}
		t := lx.emit(tokNumber, text, pos)
		t.num = &constant{kind: constFloat, f: f}
		return nil
	}
	if len(intPart) > 1 && intPart[0] == '0' && strings.Trim(intPart, "0") != "" {
		return lx.errorf(pos, "leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers")
	}
	return lx.emitInt(pos, start, clean, 10)
}

// digits 读取一串数字，允许单个下划线分隔。
func (lx *lexer) digits(ok func(rune) bool, leadingUnderscore bool) (string, error) {
	var sb strings.Builder
	prevUnderscore := false
	first := true
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		if c == '_' {
			if prevUnderscore || (first && !leadingUnderscore) {
				return "", lx.errorf(lx.here(), "invalid decimal literal")
			}
			prevUnderscore = true
			lx.advance()
			continue
		}
		if !ok(c) {
			break
		}
		sb.WriteRune(c)
		prevUnderscore = false
		first = false
		lx.advance()
	}
	if prevUnderscore {
		return "", lx.errorf(lx.here(), "invalid decimal literal")
	}
	return sb.String(), nil
}

func (lx *lexer) emitInt(pos position, start int, digits string, base int) error {
	t := lx.emit(tokNumber, string(lx.src[start:lx.i]), pos)
	if v, err := strconv.ParseInt(digits, base, 64); err == nil {
		t.num = &constant{kind: constInt, i: v}
		return nil
	}
	b, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return lx.errorf(pos, "invalid %s literal", baseName(base))
	}
	t.num = &constant{kind: constBigInt, big: b}
	return nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func baseName(base int) string {
	switch base {
	case 16:
		return "hexadecimal"
	case 8:
		return "octal"
	case 2:
		return "binary"
	}
	return "decimal"
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return 99
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc)
}
