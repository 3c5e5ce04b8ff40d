// Package testutil provides helper functions for testing warden components
package testutil

import (
	"context"
	"testing"

	"github.com/wardenlabs/warden/internal/parser"
)

// ParseSource parses JavaScript source for a test, failing the test on error
func ParseSource(t *testing.T, source string) *parser.Tree {
	t.Helper()
	p := parser.NewParser()
	defer p.Close()

	tree, err := p.ParseFile(context.Background(), "test.js", []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return tree
}

// ParseTypeScriptSource parses TypeScript source for a test
func ParseTypeScriptSource(t *testing.T, source string) *parser.Tree {
	t.Helper()
	tree, err := parser.ParseForLanguage(context.Background(), "test.ts", []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return tree
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}
