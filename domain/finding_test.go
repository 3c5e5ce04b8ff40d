package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Errorf("expected %s < %s", ordered[i-1], ordered[i])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		want    Severity
		wantErr bool
	}{
		{"info", SeverityInfo, false},
		{"low", SeverityLow, false},
		{"medium", SeverityMedium, false},
		{"high", SeverityHigh, false},
		{"critical", SeverityCritical, false},
		{"CRITICAL", 0, true},
		{"", 0, true},
		{"warn", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSeverity(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q): unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSeverityIsValid(t *testing.T) {
	if SeverityInfo.IsValid() {
		t.Error("info is not an analyzer-emittable severity")
	}
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Severity(99).IsValid() {
		t.Error("out-of-range severity should be invalid")
	}
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(SeverityHigh)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"high"` {
		t.Errorf("expected \"high\", got %s", data)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"critical"`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s != SeverityCritical {
		t.Errorf("expected critical, got %v", s)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Error("expected error for unknown severity name")
	}
}

func TestFindingIDDeterministic(t *testing.T) {
	a := FindingID("src/app.js", 42, "high-complexity")
	b := FindingID("src/app.js", 42, "high-complexity")
	if a != b {
		t.Errorf("same inputs must yield the same id: %s != %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}

	variants := []string{
		FindingID("src/app.js", 43, "high-complexity"),
		FindingID("src/other.js", 42, "high-complexity"),
		FindingID("src/app.js", 42, "magic-number"),
	}
	for _, v := range variants {
		if v == a {
			t.Errorf("different inputs must yield different ids")
		}
	}
}

func TestToStored(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	f := &Finding{
		ID:          FindingID("src/db.js", 10, "sql-string-concat"),
		FilePath:    "src/db.js",
		Line:        10,
		Category:    CategorySecurity,
		Severity:    SeverityHigh,
		Description: "SQL built by string concatenation",
		RuleID:      "sql-string-concat",
		CreatedAt:   created,
	}

	stored := f.ToStored(now)
	if stored.ID != f.ID {
		t.Errorf("stored id mismatch")
	}
	if stored.SeverityRank != int(SeverityHigh) {
		t.Errorf("expected severity_rank %d, got %d", int(SeverityHigh), stored.SeverityRank)
	}
	if stored.Status != StatusOpen {
		t.Errorf("empty status should default to open, got %s", stored.Status)
	}
	if !stored.RecordedAt.Equal(now) || !stored.UpdatedAt.Equal(now) {
		t.Error("recorded_at and updated_at should be the persistence time")
	}
	if !stored.CreatedAt.Equal(created) {
		t.Error("created_at must survive persistence unchanged")
	}
}

func TestIsDuplicate(t *testing.T) {
	f := &Finding{ID: "abc"}
	if f.IsDuplicate() {
		t.Error("finding without DuplicateOf is not a duplicate")
	}
	f.DuplicateOf = "def"
	if !f.IsDuplicate() {
		t.Error("finding with DuplicateOf set is a duplicate")
	}
}
