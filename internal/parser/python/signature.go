// Package python 实现 Python 函数文件的签名解析。
package python

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/parser"
)

const (
	Language   = "python"
	sourceFile = "functions.py"
)

// typeTable 把注解名映射为参数类型。
var typeTable = map[string]domain.ParamType{
	"str":      domain.ParamTypeString,
	"int":      domain.ParamTypeInteger,
	"float":    domain.ParamTypeFloat,
	"bool":     domain.ParamTypeBoolean,
	"date":     domain.ParamTypeDate,
	"datetime": domain.ParamTypeDateTime,
	"json":     domain.ParamTypeJSON,
	"dict":     domain.ParamTypeJSON,
}

func init() {
	parser.Register(Language, New())
}

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

var _ parser.Parser = (*Parser)(nil)

func (*Parser) SourceFile() string { return sourceFile }

func (*Parser) Parse(source []byte) ([]domain.FunctionDefinition, []parser.Warning, error) {
	defs, err := parseModule(string(source))
	if err != nil {
		return nil, nil, err
	}
	functions := make([]domain.FunctionDefinition, 0, len(defs))
	var warnings []parser.Warning
	for _, fd := range defs {
		fn, ws := toFunctionDefinition(fd)
		functions = append(functions, fn)
		warnings = append(warnings, ws...)
	}
	return functions, warnings, nil
}

func toFunctionDefinition(fd *funcDef) (domain.FunctionDefinition, []parser.Warning) {
	fn := domain.FunctionDefinition{
		Name:       fd.name,
		Parameters: []domain.ParameterDefinition{},
	}
	if fd.doc != nil {
		fn.Description = cleanDoc(*fd.doc)
	}

	var warnings []parser.Warning
	warn := func(param, format string, args ...any) {
		warnings = append(warnings, parser.Warning{Function: fd.name, Parameter: param, Message: fmt.Sprintf(format, args...)})
	}

	for _, p := range fd.positional() {
		pd := domain.ParameterDefinition{Name: p.name, Required: true}
		if name, ok := annotationName(p.annotation); ok {
			pd.Type = typeTable[name]
		}
		if pd.Type == domain.ParamTypeUnset {
			warn(p.name, "Type of argument %s in function %s not detected or is unsupported. "+
				"Please specify type in package.yaml manually before publishing package, as argument type is required.",
				p.name, fd.name)
		}

		if p.def != nil {
			pd.Required = false
			v, err := defaultValue(pd.Type, p.def)
			switch {
			case errors.Is(err, errDictDefault):
				warn(p.name, "Automatic function generation for default dictionary not currently implemented. "+
					"Please add dictionary default for argument %s in function %s manually.", p.name, fd.name)
			case err != nil:
				warn(p.name, "Default of argument %s in function %s could not be evaluated (%v). "+
					"Please add the default in package.yaml manually.", p.name, fd.name, err)
			default:
				pd.Default = domain.NewDefault(v)
			}
		}
		fn.Parameters = append(fn.Parameters, pd)
	}
	return fn, warnings
}

// annotationName 只解析裸名称与属性访问的最后一段，其余注解形式视为无法识别。
func annotationName(e expr) (string, bool) {
	switch a := e.(type) {
	case *nameExpr:
		return a.id, true
	case *attributeExpr:
		return a.attr, true
	}
	return "", false
}

var errDictDefault = errors.New("dictionary defaults are not evaluated")

func defaultValue(t domain.ParamType, e expr) (any, error) {
	switch t {
	case domain.ParamTypeJSON:
		return nil, errDictDefault
	case domain.ParamTypeBoolean:
		c, ok := literal(e)
		if !ok {
			return nil, fmt.Errorf("not a literal")
		}
		return c.pyStr(), nil
	case domain.ParamTypeDate:
		args, err := intArgs(e, 3, 3)
		if err != nil {
			return nil, err
		}
		d, err := newDateTime(args)
		if err != nil {
			return nil, err
		}
		return formatDate(d), nil
	case domain.ParamTypeDateTime:
		args, err := intArgs(e, 3, 7)
		if err != nil {
			return nil, err
		}
		d, err := newDateTime(args)
		if err != nil {
			return nil, err
		}
		return formatDateTime(d), nil
	}

	c, ok := literal(e)
	if !ok {
		return nil, fmt.Errorf("not a literal")
	}
	switch c.kind {
	case constStr:
		return c.s, nil
	case constInt:
		return c.i, nil
	case constFloat:
		if math.IsInf(c.f, 0) || math.IsNaN(c.f) {
			return nil, fmt.Errorf("float %s is not representable", c.pyStr())
		}
		return c.f, nil
	case constBool:
		return c.b, nil
	case constNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported literal %s", c.pyStr())
}

// literal 求值常量以及带一元正负号的数值常量。
func literal(e expr) (constant, bool) {
	switch v := e.(type) {
	case *constantExpr:
		return v.value, true
	case *unaryExpr:
		if v.op != "-" && v.op != "+" {
			return constant{}, false
		}
		c, ok := literal(v.operand)
		if !ok {
			return constant{}, false
		}
		switch c.kind {
		case constInt:
			if v.op == "-" {
				if c.i == math.MinInt64 {
					return constant{}, false
				}
				c.i = -c.i
			}
			return c, true
		case constFloat:
			if v.op == "-" {
				c.f = -c.f
			}
			return c, true
		case constBool:
			n := int64(0)
			if c.b {
				n = 1
			}
			if v.op == "-" {
				n = -n
			}
			return constant{kind: constInt, i: n}, true
		}
	}
	return constant{}, false
}

// intArgs 取构造调用的位置参数，要求全部是整数常量。
func intArgs(e expr, lo, hi int) ([]int64, error) {
	call, ok := e.(*callExpr)
	if !ok {
		return nil, fmt.Errorf("not a constructor call")
	}
	if len(call.keywords) > 0 {
		return nil, fmt.Errorf("keyword arguments are not supported")
	}
	if len(call.args) < lo || len(call.args) > hi {
		return nil, fmt.Errorf("expected %d to %d positional arguments, got %d", lo, hi, len(call.args))
	}
	out := make([]int64, 0, len(call.args))
	for _, a := range call.args {
		c, ok := literal(a)
		if !ok || c.kind != constInt {
			return nil, fmt.Errorf("positional arguments must be integer literals")
		}
		out = append(out, c.i)
	}
	return out, nil
}

type dateTime struct {
	year, month, day           int
	hour, minute, second, usec int
}

func newDateTime(args []int64) (dateTime, error) {
	vals := make([]int64, 7)
	copy(vals, args)
	limits := []struct {
		name     string
		min, max int64
	}{
		{"year", 1, 9999},
		{"month", 1, 12},
		{"day", 1, 31},
		{"hour", 0, 23},
		{"minute", 0, 59},
		{"second", 0, 59},
		{"microsecond", 0, 999999},
	}
	for i, l := range limits {
		if vals[i] < l.min || vals[i] > l.max {
			return dateTime{}, fmt.Errorf("%s must be in %d..%d", l.name, l.min, l.max)
		}
	}
	d := dateTime{
		year: int(vals[0]), month: int(vals[1]), day: int(vals[2]),
		hour: int(vals[3]), minute: int(vals[4]), second: int(vals[5]), usec: int(vals[6]),
	}
	if d.day > daysIn(d.year, d.month) {
		return dateTime{}, fmt.Errorf("day is out of range for month")
	}
	return d, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func formatDate(d dateTime) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

func formatDateTime(d dateTime) string {
	s := fmt.Sprintf("%s %02d:%02d:%02d", formatDate(d), d.hour, d.minute, d.second)
	if d.usec != 0 {
		s += fmt.Sprintf(".%06d", d.usec)
	}
	return s
}

// cleanDoc 清理 docstring 缩进，行为与 inspect.cleandoc 一致。
func cleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc), "\n")
	indent := -1
	for _, l := range lines[1:] {
		stripped := strings.TrimLeft(l, " ")
		if stripped == "" {
			continue
		}
		if n := len(l) - len(stripped); indent < 0 || n < indent {
			indent = n
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if indent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= indent {
				lines[i] = lines[i][indent:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 8 - col%8
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
