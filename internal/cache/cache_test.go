package cache

import (
	"strings"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("src/app.js", []byte("const a = 1;"))
	b := Key("src/app.js", []byte("const a = 1;"))
	if a != b {
		t.Errorf("same inputs must produce the same key: %s != %s", a, b)
	}
	if !strings.HasPrefix(a, "warden:findings:") {
		t.Errorf("keys carry the tool namespace, got %s", a)
	}
}

func TestKeyVariesWithInputs(t *testing.T) {
	base := Key("src/app.js", []byte("const a = 1;"))

	if Key("src/other.js", []byte("const a = 1;")) == base {
		t.Error("different paths must produce different keys")
	}
	if Key("src/app.js", []byte("const a = 2;")) == base {
		t.Error("different contents must produce different keys")
	}
}
