package macro

import "testing"

func TestParseDefineObjectLike(t *testing.T) {
	m := ParseDefine("MAX_SIZE", []byte("1024"))
	if m.Name != "MAX_SIZE" || m.IsFunctionLike() {
		t.Fatalf("got %+v", m)
	}
}

func TestParseDefineFunctionLike(t *testing.T) {
	m := ParseDefine("MIN(a,b)", []byte("((a)<(b)?(a):(b))"))
	if m.Name != "MIN" || !m.IsFunctionLike() {
		t.Fatalf("got %+v", m)
	}
	if len(m.Params) != 2 || m.Params[0] != "a" || m.Params[1] != "b" {
		t.Fatalf("params = %v", m.Params)
	}
}

func TestParseDefineZeroParamFunctionLike(t *testing.T) {
	m := ParseDefine("NOOP()", []byte("(void)0"))
	if !m.IsFunctionLike() || len(m.Params) != 0 {
		t.Fatalf("got %+v", m)
	}
}

func TestParseDefineVariadic(t *testing.T) {
	m := ParseDefine("LOG(fmt,...)", []byte("fprintf(stderr, fmt, __VA_ARGS__)"))
	if !m.Variadic {
		t.Fatalf("expected variadic, got %+v", m)
	}
	if len(m.Params) != 1 || m.Params[0] != "fmt" {
		t.Fatalf("params = %v", m.Params)
	}
}
