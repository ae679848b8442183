package model

import (
	"errors"
	"testing"

	"github.com/whiffhq/whiff/pkg/parser"
)

func buildFrom(t *testing.T, source string, lang parser.Language) *Model {
	t.Helper()
	p := parser.New()
	defer p.Close()

	res, err := p.Parse([]byte(source), lang, "test."+string(lang))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	m, err := Build(res)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func findElement(m *Model, qualified string) *Element {
	for i := range m.Elements {
		if m.Elements[i].QualifiedName == qualified {
			return &m.Elements[i]
		}
	}
	return nil
}

func TestBuildPythonClassWithMethods(t *testing.T) {
	source := `class Account:
    def __init__(self, owner, balance):
        self.owner = owner
        self.balance = balance

    def deposit(self, amount):
        self.balance += amount

def standalone(a, b, c):
    return a + b + c
`
	m := buildFrom(t, source, parser.LangPython)

	class := findElement(m, "Account")
	if class == nil {
		t.Fatal("expected class Account")
	}
	if class.Kind != KindClass {
		t.Errorf("Account kind = %v, want class", class.Kind)
	}
	if class.StartLine != 1 {
		t.Errorf("Account start line = %d, want 1", class.StartLine)
	}

	deposit := findElement(m, "Account.deposit")
	if deposit == nil {
		t.Fatal("expected method Account.deposit")
	}
	if deposit.Kind != KindMethod {
		t.Errorf("deposit kind = %v, want method", deposit.Kind)
	}
	// self must not count as a parameter.
	if len(deposit.Params) != 1 || deposit.Params[0] != "amount" {
		t.Errorf("deposit params = %v, want [amount]", deposit.Params)
	}

	fn := findElement(m, "standalone")
	if fn == nil {
		t.Fatal("expected function standalone")
	}
	if fn.Kind != KindFunction {
		t.Errorf("standalone kind = %v, want function", fn.Kind)
	}
	if len(fn.Params) != 3 {
		t.Errorf("standalone params = %v, want 3 names", fn.Params)
	}
}

func TestBuildGoMethodReceiver(t *testing.T) {
	source := `package demo

type Store struct {
	items map[string]int
}

func (s *Store) Get(key string) (int, bool) {
	v, ok := s.items[key]
	return v, ok
}

func Plain(a, b int, names ...string) int {
	return a + b + len(names)
}
`
	m := buildFrom(t, source, parser.LangGo)

	store := findElement(m, "Store")
	if store == nil {
		t.Fatal("expected struct Store as a class element")
	}

	get := findElement(m, "Store.Get")
	if get == nil {
		t.Fatal("expected method Store.Get")
	}
	if get.Kind != KindMethod {
		t.Errorf("Get kind = %v, want method", get.Kind)
	}
	if get.Receiver != "Store" {
		t.Errorf("Get receiver = %q, want Store", get.Receiver)
	}
	// Receiver is not a parameter.
	if len(get.Params) != 1 {
		t.Errorf("Get params = %v, want [key]", get.Params)
	}

	plain := findElement(m, "Plain")
	if plain == nil {
		t.Fatal("expected function Plain")
	}
	// a, b declared together plus the variadic.
	if len(plain.Params) != 3 {
		t.Errorf("Plain params = %v, want 3 names", plain.Params)
	}

	methods := m.MethodsOf(storeIndex(m))
	if len(methods) != 1 {
		t.Errorf("MethodsOf(Store) = %d methods, want 1", len(methods))
	}
}

func storeIndex(m *Model) int {
	for i := range m.Elements {
		if m.Elements[i].QualifiedName == "Store" {
			return i
		}
	}
	return -1
}

func TestBuildNestedFunctions(t *testing.T) {
	source := `def outer():
    def inner():
        return 1
    return inner
`
	m := buildFrom(t, source, parser.LangPython)

	inner := findElement(m, "outer.inner")
	if inner == nil {
		t.Fatal("expected nested function outer.inner")
	}
	outer := findElement(m, "outer")
	if inner.Parent < 0 || m.Elements[inner.Parent].QualifiedName != "outer" {
		t.Errorf("inner parent = %d, want index of outer", inner.Parent)
	}
	if inner.StartLine < outer.StartLine || inner.EndLine > outer.EndLine {
		t.Errorf("inner lines %d-%d not within outer %d-%d",
			inner.StartLine, inner.EndLine, outer.StartLine, outer.EndLine)
	}
	if inner.Depth != outer.Depth+1 {
		t.Errorf("inner depth = %d, want %d", inner.Depth, outer.Depth+1)
	}
}

func TestBuildSyntaxError(t *testing.T) {
	p := parser.New()
	defer p.Close()

	res, err := p.Parse([]byte("def broken(:\n    pass\n"), parser.LangPython, "broken.py")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Build(res)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != "broken.py" {
		t.Errorf("ParseError path = %q, want broken.py", parseErr.Path)
	}
}

func TestBuildJavaScriptClass(t *testing.T) {
	source := `class Cart {
  add(item, qty) {
    this.items.push({ item, qty });
  }
}

function total(items) {
  return items.length;
}
`
	m := buildFrom(t, source, parser.LangJavaScript)

	add := findElement(m, "Cart.add")
	if add == nil {
		t.Fatal("expected method Cart.add")
	}
	if len(add.Params) != 2 {
		t.Errorf("add params = %v, want 2 names", add.Params)
	}
	if fn := findElement(m, "total"); fn == nil || fn.Kind != KindFunction {
		t.Error("expected top-level function total")
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	source := `def a():
    pass

def b():
    pass

class C:
    def m(self):
        pass
`
	first := buildFrom(t, source, parser.LangPython)
	second := buildFrom(t, source, parser.LangPython)

	if len(first.Elements) != len(second.Elements) {
		t.Fatalf("element count differs: %d vs %d", len(first.Elements), len(second.Elements))
	}
	for i := range first.Elements {
		if first.Elements[i].QualifiedName != second.Elements[i].QualifiedName {
			t.Errorf("element %d differs: %q vs %q", i,
				first.Elements[i].QualifiedName, second.Elements[i].QualifiedName)
		}
	}
}
