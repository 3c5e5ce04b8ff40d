package parser

import (
	"context"
	"testing"
)

func TestParseFile(t *testing.T) {
	p := NewParser()
	defer p.Close()

	source := []byte(`function greet(name) { return "hi " + name; }`)
	tree, err := p.ParseFile(context.Background(), "greet.js", source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root == nil {
		t.Fatal("expected a root node")
	}
	if tree.Root.Kind != "program" {
		t.Errorf("expected program root, got %q", tree.Root.Kind)
	}
}

func TestParseFileSyntaxError(t *testing.T) {
	p := NewParser()
	defer p.Close()

	if _, err := p.ParseFile(context.Background(), "broken.js", []byte("function {{{")); err == nil {
		t.Error("expected error for malformed source")
	}
}

func TestParseForLanguageSelectsGrammar(t *testing.T) {
	tsSource := []byte("const x: number = 1;\n")
	if _, err := ParseForLanguage(context.Background(), "x.ts", tsSource); err != nil {
		t.Errorf("typescript source should parse with the ts grammar: %v", err)
	}
	if _, err := ParseForLanguage(context.Background(), "y.js", []byte("const y = 2;\n")); err != nil {
		t.Errorf("javascript source should parse: %v", err)
	}
}

func TestFunctionDiscovery(t *testing.T) {
	source := `
function named() {}
const arrow = (a, b) => a + b;
class Widget {
  render() { return null; }
}
`
	p := NewParser()
	defer p.Close()
	tree, err := p.ParseFile(context.Background(), "fns.js", []byte(source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := map[string]bool{}
	functions := 0
	tree.Root.Walk(func(n *Node) bool {
		if n.IsFunction() {
			functions++
			names[n.FunctionName()] = true
		}
		return true
	})

	if functions != 3 {
		t.Errorf("expected 3 function scopes, found %d", functions)
	}
	for _, want := range []string{"named", "render"} {
		if !names[want] {
			t.Errorf("expected to discover function %q, found %v", want, names)
		}
	}
	// inline arrows carry no name of their own
	if !names["<anonymous>"] {
		t.Errorf("expected the arrow function to be anonymous, found %v", names)
	}
}

func TestParamCount(t *testing.T) {
	p := NewParser()
	defer p.Close()
	tree, err := p.ParseFile(context.Background(), "p.js", []byte(`function f(a, b, c) {}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fn *Node
	tree.Root.Walk(func(n *Node) bool {
		if fn == nil && n.IsFunction() {
			fn = n
		}
		return fn == nil
	})
	if fn == nil {
		t.Fatal("function not found")
	}
	if got := fn.ParamCount(); got != 3 {
		t.Errorf("expected 3 parameters, got %d", got)
	}
}
