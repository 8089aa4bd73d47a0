package nuget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/integrations"
)

const inlineRoot = `{
  "@id": "%[1]s/serilog/index.json",
  "count": 1,
  "items": [{
    "@id": "%[1]s/serilog/index.json#page/1.0.0/2.0.0",
    "count": 2,
    "lower": "1.0.0",
    "upper": "2.0.0",
    "items": [
      {"catalogEntry": {"id": "Serilog", "version": "1.0.0", "listed": true, "projectUrl": "https://github.com/serilog/serilog"}},
      {"catalogEntry": {"id": "Serilog", "version": "2.0.0", "projectUrl": "https://github.com/serilog/serilog",
        "deprecation": {"message": "Use v3", "reasons": ["Legacy"], "alternatePackage": {"id": "Serilog", "range": "[3.0.0, )"}}}}
    ]
  }]
}`

const splitRoot = `{
  "@id": "%[1]s/serilog/index.json",
  "count": 1,
  "items": [{
    "@id": "%[1]s/serilog/page/1.0.0/2.0.0.json",
    "count": 2,
    "lower": "1.0.0",
    "upper": "2.0.0"
  }]
}`

const splitPage = `{
  "@id": "%[1]s/serilog/page/1.0.0/2.0.0.json",
  "count": 2,
  "lower": "1.0.0",
  "upper": "2.0.0",
  "items": [
    {"catalogEntry": {"id": "Serilog", "version": "1.0.0", "listed": true, "projectUrl": "https://github.com/serilog/serilog"}},
    {"catalogEntry": {"id": "Serilog", "version": "2.0.0", "projectUrl": "https://github.com/serilog/serilog",
      "deprecation": {"message": "Use v3", "reasons": ["Legacy"], "alternatePackage": {"id": "Serilog", "range": "[3.0.0, )"}}}}
  ]
}`

func gzipBody(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(s))
	zw.Close()
	return buf.Bytes()
}

// registry serves documents keyed by path, substituting the server's base URL.
type registry struct {
	t     *testing.T
	docs  map[string]string
	gzip  bool
	calls atomic.Int32
}

func (r *registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.calls.Add(1)
	doc, ok := r.docs[req.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	body := fmt.Sprintf(doc, "http://"+req.Host)
	if r.gzip {
		w.Write(gzipBody(r.t, body))
		return
	}
	w.Write([]byte(body))
}

func testClient(t *testing.T, serverURL string, c cache.Cache) *Client {
	t.Helper()
	return NewClient(c).WithBaseURL(serverURL)
}

func TestNewClient(t *testing.T) {
	c := NewClient(cache.NewNullCache())
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
}

func TestClient_FetchEntries_Inline(t *testing.T) {
	reg := &registry{t: t, gzip: true, docs: map[string]string{"/serilog/index.json": inlineRoot}}
	server := httptest.NewServer(reg)
	defer server.Close()

	c := testClient(t, server.URL, cache.NewNullCache())
	entries, err := c.FetchEntries(context.Background(), "Serilog")
	if err != nil {
		t.Fatalf("FetchEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != "1.0.0" || entries[1].Version != "2.0.0" {
		t.Errorf("entries out of document order: %+v", entries)
	}
	if !entries[1].Listed {
		t.Error("missing listed field should decode as true")
	}
	dep := entries[1].Deprecation
	if dep == nil || dep.Message != "Use v3" || len(dep.Reasons) != 1 || dep.Reasons[0] != "Legacy" {
		t.Errorf("deprecation = %+v", dep)
	}
	if dep != nil && (dep.AlternatePackage == nil || dep.AlternatePackage.ID != "Serilog") {
		t.Errorf("alternate package = %+v", dep.AlternatePackage)
	}
	if entries[0].ProjectURL != "https://github.com/serilog/serilog" {
		t.Errorf("projectUrl = %q", entries[0].ProjectURL)
	}
}

func TestClient_FetchEntries_SplitPageMatchesInline(t *testing.T) {
	inline := &registry{t: t, docs: map[string]string{"/serilog/index.json": inlineRoot}}
	split := &registry{t: t, gzip: true, docs: map[string]string{
		"/serilog/index.json":             splitRoot,
		"/serilog/page/1.0.0/2.0.0.json": splitPage,
	}}
	inlineServer := httptest.NewServer(inline)
	defer inlineServer.Close()
	splitServer := httptest.NewServer(split)
	defer splitServer.Close()

	ctx := context.Background()
	want, err := testClient(t, inlineServer.URL, nil).FetchEntries(ctx, "serilog")
	if err != nil {
		t.Fatalf("inline FetchEntries: %v", err)
	}
	got, err := testClient(t, splitServer.URL, nil).FetchEntries(ctx, "serilog")
	if err != nil {
		t.Fatalf("split FetchEntries: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("split produced %d entries, inline %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Version != want[i].Version || got[i].Listed != want[i].Listed ||
			(got[i].Deprecation == nil) != (want[i].Deprecation == nil) {
			t.Errorf("entry %d: split %+v, inline %+v", i, got[i], want[i])
		}
	}
	if n := split.calls.Load(); n != 2 {
		t.Errorf("split registry called %d times, want 2 (root + page)", n)
	}
}

func TestClient_FetchCatalogRoot_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL, nil)
	_, err := c.FetchCatalogRoot(context.Background(), "does-not-exist")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchCatalogRoot_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := testClient(t, server.URL, nil)
	_, err := c.FetchCatalogRoot(context.Background(), "serilog")
	if !errors.Is(err, integrations.ErrNetwork) || errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNetwork only, got %v", err)
	}
}

func TestClient_FetchCatalogRoot_LowercasesAndCaches(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write(gzipBody(t, `{"items":[]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	mem := &cache.MemoryCache{}
	c := testClient(t, server.URL, mem)

	for _, id := range []string{"Newtonsoft.Json", "newtonsoft.json"} {
		data, err := c.FetchCatalogRoot(ctx, id)
		if err != nil {
			t.Fatalf("FetchCatalogRoot(%q): %v", id, err)
		}
		if string(data) != `{"items":[]}` {
			t.Errorf("FetchCatalogRoot(%q) = %q, want decompressed body", id, data)
		}
	}
	if len(paths) != 1 || paths[0] != "/newtonsoft.json/index.json" {
		t.Errorf("requested paths = %v, want one request for the lower-cased id", paths)
	}
	cached, hit, _ := mem.Get(ctx, "newtonsoft.json.json")
	if !hit || string(cached) != `{"items":[]}` {
		t.Errorf("cache entry = %q, %v; want decompressed root under id key", cached, hit)
	}
}

func TestClient_FetchCatalogPage_UsesDerivedKey(t *testing.T) {
	reg := &registry{t: t, gzip: true, docs: map[string]string{"/serilog/page/1.0.0/2.0.0.json": splitPage}}
	server := httptest.NewServer(reg)
	defer server.Close()

	ctx := context.Background()
	mem := &cache.MemoryCache{}
	c := testClient(t, server.URL, mem)

	pageID := server.URL + "/serilog/page/1.0.0/2.0.0.json"
	for i := 0; i < 2; i++ {
		if _, err := c.FetchCatalogPage(ctx, pageID); err != nil {
			t.Fatalf("FetchCatalogPage: %v", err)
		}
	}
	if n := reg.calls.Load(); n != 1 {
		t.Errorf("registry called %d times, want 1", n)
	}
	if _, hit, _ := mem.Get(ctx, "serilog.page.1.0.0-2.0.0.json"); !hit {
		t.Error("page not cached under derived key")
	}
}

func TestPageKey(t *testing.T) {
	tests := []struct {
		name   string
		pageID string
		want   string
	}{
		{"split page", DefaultBaseURL + "/serilog/page/1.0.0/2.0.0.json", "serilog.page.1.0.0-2.0.0.json"},
		{"upper-case package part", DefaultBaseURL + "/Serilog/page/1.0.0/2.0.0.json", "serilog.page.1.0.0-2.0.0.json"},
		{"foreign host", "https://example.org/serilog/page/1.0.0/2.0.0.json", "https://example.org/serilog/page/1.0.0/2.0.0.json"},
		{"no marker", DefaultBaseURL + "/serilog/index.json", DefaultBaseURL + "/serilog/index.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageKey(DefaultBaseURL, tt.pageID); got != tt.want {
				t.Errorf("PageKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootKey(t *testing.T) {
	if got := RootKey(" Newtonsoft.Json "); got != "newtonsoft.json.json" {
		t.Errorf("RootKey() = %q", got)
	}
}
