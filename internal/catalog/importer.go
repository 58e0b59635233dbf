package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/hotpot/internal/domain"
)

// Format is an import/export encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// ParseFormat maps a flag value to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format %q (want json or yaml)", name)
	}
}

// maxImportSize caps how much an import reads from a file or URL.
const maxImportSize = 4 << 20

// record is the loose on-disk shape. It accepts the older "type" and
// "isPinned" keys and numeric ids.
type record struct {
	ID         flexString `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Emoji      string     `json:"emoji" yaml:"emoji"`
	Seconds    int        `json:"seconds" yaml:"seconds"`
	Category   string     `json:"category" yaml:"category"`
	Type       string     `json:"type" yaml:"type"`
	UsageCount int        `json:"usageCount" yaml:"usageCount"`
	Pinned     bool       `json:"pinned" yaml:"pinned"`
	IsPinned   bool       `json:"isPinned" yaml:"isPinned"`
}

type document struct {
	Ingredients []record `json:"ingredients" yaml:"ingredients"`
}

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

func (r record) ingredient() domain.Ingredient {
	it := domain.Ingredient{
		ID:         strings.TrimSpace(string(r.ID)),
		Name:       strings.TrimSpace(r.Name),
		Emoji:      r.Emoji,
		Seconds:    r.Seconds,
		UsageCount: r.UsageCount,
		Pinned:     r.Pinned || r.IsPinned,
	}
	raw := r.Category
	if raw == "" {
		raw = r.Type
	}
	cat, err := domain.ParseCategory(raw)
	if err != nil {
		cat = domain.CategoryOther
	}
	it.Category = cat
	if it.UsageCount < 0 {
		it.UsageCount = 0
	}
	return it.Normalize()
}

// Decode parses an ingredient list. The input is either a bare list or
// an object with an "ingredients" list. JSON may carry comments and
// trailing commas. Every record is validated; the first bad one fails
// the whole decode.
func Decode(data []byte, f Format) ([]domain.Ingredient, error) {
	if f == FormatAuto {
		f = sniff(data)
	}

	var recs []record
	switch f {
	case FormatYAML:
		if err := decodeYAML(data, &recs); err != nil {
			return nil, err
		}
	default:
		if err := decodeJSON(data, &recs); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Ingredient, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for i, r := range recs {
		it := r.ingredient()
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("record %d: %w", i, &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", it.ID)})
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out, nil
}

func decodeJSON(data []byte, recs *[]record) error {
	clean := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(clean) > 0 && clean[0] == '{' {
		var doc document
		if err := json.Unmarshal(clean, &doc); err != nil {
			return fmt.Errorf("parsing json: %w", err)
		}
		*recs = doc.Ingredients
		return nil
	}
	if err := json.Unmarshal(clean, recs); err != nil {
		return fmt.Errorf("parsing json: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, recs *[]record) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil
	}
	root := node.Content[0]
	if root.Kind == yaml.MappingNode {
		var doc document
		if err := root.Decode(&doc); err != nil {
			return fmt.Errorf("parsing yaml: %w", err)
		}
		*recs = doc.Ingredients
		return nil
	}
	if err := root.Decode(recs); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	return nil
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatJSON
	}
	switch trimmed[0] {
	case '[', '{', '/':
		return FormatJSON
	default:
		return FormatYAML
	}
}

// FormatFromPath guesses a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// Encode writes items in the given format. Auto means JSON.
func Encode(w io.Writer, items []domain.Ingredient, f Format) error {
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Fetcher reads import sources. Sources starting with http:// or
// https:// are downloaded; anything else is a local path.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a fetcher with a bounded HTTP timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch returns the raw bytes and the format implied by the source.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, Format, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return f.fetchURL(ctx, src)
	}

	file, err := os.Open(src)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("opening %s: %w", src, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("reading %s: %w", src, err)
	}
	return data, FormatFromPath(src), nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, FormatAuto, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
	if err != nil {
		return nil, FormatAuto, fmt.Errorf("reading %s: %w", url, err)
	}

	format := FormatFromPath(req.URL.Path)
	if format == FormatAuto {
		ct := resp.Header.Get("Content-Type")
		switch {
		case strings.Contains(ct, "yaml"):
			format = FormatYAML
		case strings.Contains(ct, "json"):
			format = FormatJSON
		}
	}
	return data, format, nil
}

// Import fetches src, decodes it and replaces the catalog. It returns
// the number of ingredients imported.
func Import(ctx context.Context, c *Catalog, f *Fetcher, src string, format Format) (int, error) {
	data, guessed, err := f.Fetch(ctx, src)
	if err != nil {
		return 0, err
	}
	if format == FormatAuto {
		format = guessed
	}
	items, err := Decode(data, format)
	if err != nil {
		return 0, err
	}
	if err := c.Replace(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
