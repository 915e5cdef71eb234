package python

import (
	"testing"
)

func TestTokenize_Numbers(t *testing.T) {
	tests := []struct {
		src  string
		kind constKind
		i    int64
		f    float64
	}{
		{"0", constInt, 0, 0},
		{"00", constInt, 0, 0},
		{"42", constInt, 42, 0},
		{"0o17", constInt, 15, 0},
		{"0b1010", constInt, 10, 0},
		{"0XFF", constInt, 255, 0},
		{"1_000_000", constInt, 1000000, 0},
		{"3.", constFloat, 0, 3},
		{".25", constFloat, 0, 0.25},
		{"1e-2", constFloat, 0, 0.01},
		{"2E+3", constFloat, 0, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := tokenize(tt.src)
			if err != nil {
				t.Fatalf("tokenize(%q) error = %v", tt.src, err)
			}
			if toks[0].kind != tokNumber {
				t.Fatalf("kind = %v, want number", toks[0].kind)
			}
			c := toks[0].num
			if c.kind != tt.kind || c.i != tt.i || c.f != tt.f {
				t.Errorf("constant = %+v, want kind %v i %d f %v", *c, tt.kind, tt.i, tt.f)
			}
		})
	}
}

func TestTokenize_BigIntAndComplex(t *testing.T) {
	toks, err := tokenize("123456789012345678901234567890 3j")
	if err != nil {
		t.Fatalf("tokenize error = %v", err)
	}
	if toks[0].num.kind != constBigInt || toks[0].num.big.String() != "123456789012345678901234567890" {
		t.Errorf("big int = %+v", toks[0].num)
	}
	if toks[1].num.kind != constComplex {
		t.Errorf("complex kind = %v", toks[1].num.kind)
	}
}

func TestTokenize_Indentation(t *testing.T) {
	src := "if a:\n    b\n\n    # comment\n\tc\nd\n"
	toks, err := tokenize(src)
	if err != nil {
		t.Fatalf("tokenize error = %v", err)
	}
	var kinds []tokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.kind)
	}
	// tab 展开到第 8 列，比 4 更深，产生第二个 INDENT
	want := []tokenKind{
		tokName, tokName, tokOp, tokNewline,
		tokIndent, tokName, tokNewline,
		tokIndent, tokName, tokNewline,
		tokDedent, tokDedent, tokName, tokNewline,
		tokEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTokenize_ImplicitJoinInsideBrackets(t *testing.T) {
	toks, err := tokenize("x = (1,\n     2)\ny = 3\n")
	if err != nil {
		t.Fatalf("tokenize error = %v", err)
	}
	newlines := 0
	for _, tk := range toks {
		if tk.kind == tokNewline {
			newlines++
		}
		if tk.kind == tokIndent {
			t.Error("unexpected INDENT inside brackets")
		}
	}
	if newlines != 2 {
		t.Errorf("newlines = %d, want 2", newlines)
	}
}

func TestTokenize_StringPrefixes(t *testing.T) {
	tests := []struct {
		src    string
		value  string
		bytes  bool
		format bool
	}{
		{`'a\nb'`, "a\nb", false, false},
		{`R'a\nb'`, `a\nb`, false, false},
		{`b'\x00z'`, "\x00z", true, false},
		{`Rb'\d'`, `\d`, true, false},
		{`u'\u00e9'`, "é", false, false},
		{`f'{x!r:>{width}}'`, "{x!r:>{width}}", false, true},
		{`f"{d["k"]}"`, `{d["k"]}`, false, true},
		{"'''a\n'b'\n'''", "a\n'b'\n", false, false},
		{`'it\'s'`, "it's", false, false},
		{"'line\\\ncontinued'", "linecontinued", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := tokenize(tt.src)
			if err != nil {
				t.Fatalf("tokenize(%q) error = %v", tt.src, err)
			}
			s := toks[0].str
			if toks[0].kind != tokString || s == nil {
				t.Fatalf("token = %+v, want string", toks[0])
			}
			if s.value != tt.value || s.bytes != tt.bytes || s.format != tt.format {
				t.Errorf("literal = %+v, want value %q bytes %v format %v", *s, tt.value, tt.bytes, tt.format)
			}
		})
	}
}

func TestPyFloatRepr(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{2, "2.0"},
		{0.5, "0.5"},
		{1e6, "1000000.0"},
		{1e16, "1e+16"},
		{1.5e-7, "1.5e-07"},
		{0.0001, "0.0001"},
		{-3.25, "-3.25"},
	}
	for _, tt := range tests {
		if got := pyFloatRepr(tt.f); got != tt.want {
			t.Errorf("pyFloatRepr(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}
