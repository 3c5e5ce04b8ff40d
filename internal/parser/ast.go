package parser

import "fmt"

// Tree is a parsed source file: the root syntax node plus the raw source it
// was built from
type Tree struct {
	Path   string
	Source []byte
	Root   *Node
}

// Node is one syntax node. Kind mirrors the tree-sitter grammar's node type
// names ("if_statement", "function_declaration", ...).
type Node struct {
	Kind  string
	Named bool

	// Field is the tree-sitter field name of this node relative to its
	// parent ("condition", "body", "operator", ...), empty when unnamed
	Field string

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	StartByte uint32
	EndByte   uint32

	Children []*Node

	tree *Tree
}

// Text returns the source text this node spans
func (n *Node) Text() string {
	if n.tree == nil || int(n.EndByte) > len(n.tree.Source) {
		return ""
	}
	return string(n.tree.Source[n.StartByte:n.EndByte])
}

// LineCount returns the number of source lines the node spans
func (n *Node) LineCount() int {
	return n.EndLine - n.StartLine + 1
}

// ChildByField returns the first child carrying the given field name
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// NamedChildren returns only the named (non-token) children
func (n *Node) NamedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// Walk traverses the subtree depth-first. Returning false from the visitor
// stops descent into that branch.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}
	if !visitor(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visitor)
	}
}

// String returns a short description for debugging
func (n *Node) String() string {
	return fmt.Sprintf("%s@%d:%d", n.Kind, n.StartLine, n.StartCol)
}

// IsFunction reports whether the node declares a function-like scope
func (n *Node) IsFunction() bool {
	switch n.Kind {
	case "function_declaration", "function_expression", "function",
		"arrow_function", "method_definition",
		"generator_function", "generator_function_declaration":
		return true
	}
	return false
}

// FunctionName extracts the declared name of a function-like node, or
// "<anonymous>" when it has none (e.g. inline arrow functions)
func (n *Node) FunctionName() string {
	if name := n.ChildByField("name"); name != nil {
		return name.Text()
	}
	return "<anonymous>"
}

// ParamCount counts the formal parameters of a function-like node
func (n *Node) ParamCount() int {
	params := n.ChildByField("parameters")
	if params == nil {
		// arrow functions may take a single bare parameter
		if p := n.ChildByField("parameter"); p != nil {
			return 1
		}
		return 0
	}
	count := 0
	for _, c := range params.NamedChildren() {
		if c.Kind != "comment" {
			count++
		}
	}
	return count
}
