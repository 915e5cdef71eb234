package python

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

type expr interface {
	exprNode()
}

type constKind int

const (
	constStr constKind = iota
	constBytes
	constInt
	constBigInt
	constFloat
	constComplex
	constBool
	constNone
	constEllipsis
)

type constant struct {
	kind constKind
	s    string
	i    int64
	big  *big.Int
	f    float64
	b    bool
}

type nameExpr struct {
	id string
}

type attributeExpr struct {
	value expr
	attr  string
}

type constantExpr struct {
	value constant
}

type unaryExpr struct {
	op      string
	operand expr
}

type binaryExpr struct {
	op          string
	left, right expr
}

type keyword struct {
	name  string
	value expr
}

type callExpr struct {
	fn       expr
	args     []expr
	keywords []keyword
}

type starredExpr struct {
	value expr
}

// containerExpr 覆盖 tuple/list/set/dict 字面量。
type containerExpr struct {
	kind string
	elts []expr
}

// otherExpr 是其余不参与默认值求值的表达式。
type otherExpr struct {
	kind string
}

func (*nameExpr) exprNode()      {}
func (*attributeExpr) exprNode() {}
func (*constantExpr) exprNode()  {}
func (*unaryExpr) exprNode()     {}
func (*binaryExpr) exprNode()    {}
func (*callExpr) exprNode()      {}
func (*starredExpr) exprNode()   {}
func (*containerExpr) exprNode() {}
func (*otherExpr) exprNode()     {}

type paramKind int

const (
	paramPositionalOnly paramKind = iota
	paramPositional
	paramVarArgs
	paramKeywordOnly
	paramVarKeywords
)

type param struct {
	name       string
	kind       paramKind
	annotation expr
	def        expr
}

type funcDef struct {
	name    string
	params  []param
	returns expr
	doc     *string
	async   bool
	line    int
}

// positional 返回 positional-only 与普通参数，顺序与声明一致。
func (f *funcDef) positional() []param {
	var out []param
	for _, p := range f.params {
		if p.kind == paramPositionalOnly || p.kind == paramPositional {
			out = append(out, p)
		}
	}
	return out
}

// pyStr 按 Python str() 的规则输出常量文本。
func (c constant) pyStr() string {
	switch c.kind {
	case constStr, constBytes:
		return c.s
	case constInt:
		return strconv.FormatInt(c.i, 10)
	case constBigInt:
		return c.big.String()
	case constFloat:
		return pyFloatRepr(c.f)
	case constBool:
		if c.b {
			return "True"
		}
		return "False"
	case constNone:
		return "None"
	case constEllipsis:
		return "Ellipsis"
	}
	return ""
}

func pyFloatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mant, exp, hasExp := strings.Cut(s, "e")
	if !hasExp {
		if !strings.ContainsAny(s, ".") {
			s += ".0"
		}
		return s
	}
	e, _ := strconv.Atoi(exp)
	if e >= -4 && e < 16 {
		return strconv.FormatFloat(f, 'f', -1, 64) + fracSuffix(f)
	}
	sign := "+"
	if e < 0 {
		sign = "-"
		e = -e
	}
	return mant + "e" + sign + leftPad2(strconv.Itoa(e))
}

func fracSuffix(f float64) string {
	if f == math.Trunc(f) {
		return ".0"
	}
	return ""
}

func leftPad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
