package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/hotpot/internal/domain"
)

func TestDecodeJSONC(t *testing.T) {
	data := []byte(`// exported from the phone
[
  {"id": 1, "name": "肥牛", "emoji": "🥩", "seconds": 15, "type": "肉类", "usageCount": 4},
  {"id": "5", "name": "虾滑", "seconds": 180, "type": "海鲜", "isPinned": true,},
]`)

	items, err := Decode(data, FormatAuto)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != "1" || items[0].Category != domain.CategoryMeat || items[0].UsageCount != 4 {
		t.Fatalf("first = %+v", items[0])
	}
	if items[1].Category != domain.CategorySeafood || !items[1].Pinned || items[1].Emoji != domain.DefaultEmoji {
		t.Fatalf("second = %+v", items[1])
	}
}

func TestDecodeYAMLDocument(t *testing.T) {
	data := []byte(`ingredients:
  - id: enoki
    name: Enoki
    seconds: 60
    category: vegetable
  - id: 7
    name: Spinach
    seconds: 45
`)
	items, err := Decode(data, FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 2 || items[1].ID != "7" || items[1].Category != domain.CategoryOther {
		t.Fatalf("items = %+v", items)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", `[{"id":"a","seconds":5}]`},
		{"zero seconds", `[{"id":"a","name":"A","seconds":0}]`},
		{"missing id", `[{"name":"A","seconds":5}]`},
		{"duplicate id", `[{"id":"a","name":"A","seconds":5},{"id":"a","name":"B","seconds":5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data), FormatJSON); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := Decode([]byte(`[{"id": }`), FormatJSON); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEncodeThenDecode(t *testing.T) {
	c := newTestCatalog()
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, c.All(), f); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			items, err := Decode(buf.Bytes(), f)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(items) != c.Len() {
				t.Fatalf("len = %d, want %d", len(items), c.Len())
			}
		})
	}
}

func TestImportFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	if err := os.WriteFile(path, []byte("- {id: tripe, name: Tripe, seconds: 10}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestCatalog()
	n, err := Import(context.Background(), c, NewFetcher(), path, FormatAuto)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 1 || c.Len() != 1 {
		t.Fatalf("imported %d, catalog has %d", n, c.Len())
	}
}

func TestImportFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ingredients":[{"id":"x","name":"X","seconds":30}]}`))
	}))
	defer srv.Close()

	c := newTestCatalog()
	f := &Fetcher{Client: srv.Client()}

	n, err := Import(context.Background(), c, f, srv.URL+"/menu", FormatAuto)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d, want 1", n)
	}
	if _, ok := c.Lookup("x"); !ok {
		t.Fatal("x should be in the catalog")
	}

	if _, err := Import(context.Background(), c, f, srv.URL+"/missing", FormatAuto); err == nil {
		t.Fatal("expected error for 404")
	}
	if c.Len() != 1 {
		t.Fatal("failed import must not change the catalog")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "JSON": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}
