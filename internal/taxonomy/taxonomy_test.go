package taxonomy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/drivestudy/annotator/internal/models"
)

const sampleDefinition = `{
  "category": [
    {"id": 1, "description": "overtaking"},
    {"id": 2, "description": "braking"}
  ],
  "option": [
    {"code": "A", "event_id": 1, "group_id": 1, "group_type": "radio", "description": "left"},
    {"code": "x", "event_id": 1, "group_id": 2, "group_type": "check", "description": "rain"},
    {"code": "B", "event_id": 1, "group_id": 1, "group_type": "radio", "description": "right"},
    {"code": "y", "event_id": 1, "group_id": 2, "group_type": "check", "description": "night"},
    {"code": "H", "event_id": 2, "group_id": 3, "group_type": "radio", "description": "hard"}
  ]
}`

func TestParseGroupsInterleavedOptions(t *testing.T) {
	defs, err := Parse([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("definitions = %d, want 2", len(defs))
	}

	overtaking := defs[0]
	if overtaking.ID != 1 || len(overtaking.Options) != 2 {
		t.Fatalf("unexpected first definition: %+v", overtaking)
	}
	// Group order is first-seen; interleaved options must still land in the
	// right group in input order.
	g1, g2 := overtaking.Options[0], overtaking.Options[1]
	if g1.GroupID != 1 || g1.GroupType != models.GroupRadio {
		t.Fatalf("group 1 = %+v", g1)
	}
	if len(g1.Choices) != 2 || g1.Choices[0].Code != "A" || g1.Choices[1].Code != "B" {
		t.Fatalf("group 1 choices = %+v", g1.Choices)
	}
	if g2.GroupID != 2 || g2.GroupType != models.GroupCheck {
		t.Fatalf("group 2 = %+v", g2)
	}
	if len(g2.Choices) != 2 || g2.Choices[0].Code != "x" || g2.Choices[1].Code != "y" {
		t.Fatalf("group 2 choices = %+v", g2.Choices)
	}

	braking := defs[1]
	if braking.ID != 2 || len(braking.Options) != 1 || braking.Options[0].GroupID != 3 {
		t.Fatalf("unexpected second definition: %+v", braking)
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	if _, err := Parse([]byte(`{"category": "nope"}`)); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definition.json")
	if err := os.WriteFile(path, []byte(sampleDefinition), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	defs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("definitions = %d, want 2", len(defs))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleDefinition))
	}))
	defer srv.Close()

	defs, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("definitions = %d, want 2", len(defs))
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	if _, err := Fetch(context.Background(), bad.URL); err == nil {
		t.Fatal("expected error for non-200 source")
	}
}
