package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Parser wraps a tree-sitter parser for JavaScript/TypeScript
type Parser struct {
	parser *sitter.Parser
	isTS   bool
}

// NewParser creates a new JavaScript parser
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &Parser{parser: p}
}

// NewTypeScriptParser creates a new TypeScript parser
func NewTypeScriptParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(tsx.GetLanguage())
	return &Parser{parser: p, isTS: true}
}

// ParseFile parses one source file into a Tree
func (p *Parser) ParseFile(ctx context.Context, filename string, source []byte) (*Tree, error) {
	tsTree, err := p.parser.ParseCtx(ctx, nil, source)
	if tsTree == nil {
		return nil, fmt.Errorf("failed to parse %s: %v", filename, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}
	if root.HasError() {
		return nil, fmt.Errorf("syntax errors in %s", filename)
	}

	tree := &Tree{Path: filename, Source: source}
	tree.Root = convert(root, "", tree)
	return tree, nil
}

// Close frees the underlying parser resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// IsTypeScript returns true if this parser handles TypeScript
func (p *Parser) IsTypeScript() bool {
	return p.isTS
}

// ParseForLanguage selects the JavaScript or TypeScript grammar from the
// file extension and parses the source
func ParseForLanguage(ctx context.Context, filename string, source []byte) (*Tree, error) {
	var p *Parser
	if isTypeScriptFile(filename) {
		p = NewTypeScriptParser()
	} else {
		p = NewParser()
	}
	defer p.Close()

	return p.ParseFile(ctx, filename, source)
}

func isTypeScriptFile(filename string) bool {
	for _, ext := range []string{".ts", ".tsx", ".mts", ".cts"} {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// convert maps a tree-sitter CST node into the internal representation.
// All children are kept, including unnamed tokens, so that field lookups
// like "operator" resolve.
func convert(tsNode *sitter.Node, field string, tree *Tree) *Node {
	node := &Node{
		Kind:      tsNode.Type(),
		Named:     tsNode.IsNamed(),
		Field:     field,
		StartLine: int(tsNode.StartPoint().Row) + 1,
		StartCol:  int(tsNode.StartPoint().Column),
		EndLine:   int(tsNode.EndPoint().Row) + 1,
		EndCol:    int(tsNode.EndPoint().Column),
		StartByte: tsNode.StartByte(),
		EndByte:   tsNode.EndByte(),
		tree:      tree,
	}

	count := int(tsNode.ChildCount())
	if count > 0 {
		node.Children = make([]*Node, 0, count)
	}
	for i := 0; i < count; i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		node.Children = append(node.Children, convert(child, tsNode.FieldNameForChild(i), tree))
	}
	return node
}
