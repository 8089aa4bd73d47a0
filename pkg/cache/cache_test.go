package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value")); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

// exerciseContract runs the behaviour every storing strategy must share.
func exerciseContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "newtonsoft.json.json"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "newtonsoft.json.json", []byte("v1")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "newtonsoft.json.json")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v; want v1, true, nil", data, hit, err)
	}

	// Overwrite
	if err := c.Set(ctx, "newtonsoft.json.json", []byte("v2")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, _, _ = c.Get(ctx, "newtonsoft.json.json")
	if string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	// Keys with URL characters
	urlKey := "https://github.com/serilog/serilog.json"
	if err := c.Set(ctx, urlKey, []byte("repo")); err != nil {
		t.Fatalf("Set(%q) error: %v", urlKey, err)
	}
	if data, hit, _ := c.Get(ctx, urlKey); !hit || string(data) != "repo" {
		t.Errorf("Get(%q) = %q, %v", urlKey, data, hit)
	}

	if err := c.Delete(ctx, "newtonsoft.json.json"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "newtonsoft.json.json"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "never-stored"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, urlKey); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseContract(t, &MemoryCache{})
}

func TestMemoryCacheIsProcessWide(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryCache()
	b := NewMemoryCache()
	t.Cleanup(func() { _ = a.Delete(ctx, "shared-key") })

	if err := a.Set(ctx, "shared-key", []byte("x")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, hit, _ := b.Get(ctx, "shared-key"); !hit || string(data) != "x" {
		t.Errorf("second instance Get = %q, %v; want shared entry", data, hit)
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := &MemoryCache{}

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf)
	buf[0] = 'z'

	data, _, _ := c.Get(ctx, "k")
	if string(data) != "abc" {
		t.Errorf("stored value changed with caller slice: %q", data)
	}
	data[1] = 'z'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	exerciseContract(t, c)
}

func TestFileCacheRequiresExistingFolder(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := NewFileCache(missing)
	if !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("NewFileCache(missing) error = %v, want ErrFolderNotFound", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Error("NewFileCache should not create the folder")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileCache(file); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("NewFileCache(file) error = %v, want ErrFolderNotFound", err)
	}

	if _, err := NewFileCache("  "); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("NewFileCache(blank) error = %v, want ErrFolderNotFound", err)
	}
}

func TestFileCacheOneFilePerKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	_ = c.Set(ctx, "https://github.com/a/b.json", []byte("1"))
	_ = c.Set(ctx, "serilog.json", []byte("2"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files, got %d", len(entries))
	}
	want := FileName("https://github.com/a/b.json")
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("expected file %q: %v", want, err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"serilog.json", "serilog.json.cache"},
		{"https://github.com/a/b.json", "https%3A%2F%2Fgithub.com%2Fa%2Fb.json.cache"},
		{"..", "...cache"},
		{"", ".cache"},
	}
	for _, tt := range tests {
		if got := FileName(tt.key); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFileNameLongKey(t *testing.T) {
	key := "https://api.nuget.org/v3/registration5-gz-semver2/" + strings.Repeat("very.long.package.id.", 20) + "json"
	name := FileName(key)
	if len(name) > maxNameBytes+len(fileSuffix) {
		t.Errorf("FileName(long) has %d bytes", len(name))
	}
	if want := "sha256-" + Hash([]byte(key)) + fileSuffix; name != want {
		t.Errorf("FileName(long) = %q, want %q", name, want)
	}

	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, key, []byte("page")); err != nil {
		t.Fatalf("Set(long key) error: %v", err)
	}
	if data, hit, _ := c.Get(ctx, key); !hit || string(data) != "page" {
		t.Errorf("Get(long key) = %q, %v", data, hit)
	}
}

func TestFileCacheClearKeepsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	_ = c.Set(ctx, "serilog.json", []byte("1"))
	for _, name := range []string{"notes.txt", "serilog.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mine"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, tmpPrefix+"orphan"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "serilog.json"); hit {
		t.Error("Get after Clear should miss")
	}
	entries, _ := os.ReadDir(dir)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	if len(left) != 2 || left[0] != "notes.txt" || left[1] != "serilog.json" {
		t.Errorf("files after Clear = %v, want [notes.txt serilog.json]", left)
	}
}

func TestScopedKeyer(t *testing.T) {
	tests := []struct {
		name      string
		keys      Keyer
		namespace string
		want      string
	}{
		{"default", NewDefaultKeyer(), "", "serilog.json"},
		{"namespaced", NewDefaultKeyer(), "nuget.example.com", "nuget.example.com:serilog.json"},
		{"scoped", NewScopedKeyer(nil, "nugetaudit:"), "", "nugetaudit:serilog.json"},
		{"scoped namespaced", NewScopedKeyer(NewDefaultKeyer(), "team-a:"), "ghe.corp", "team-a:ghe.corp:serilog.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.keys.HTTPKey(tt.namespace, "serilog.json"); got != tt.want {
				t.Errorf("HTTPKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	caches := map[string]Cache{
		"memory": &MemoryCache{},
		"file":   fc,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := make([]byte, 64*1024)
			for i := range payload {
				payload[i] = 'a'
			}

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := fmt.Sprintf("pkg-%d.json", i%4)
					for j := 0; j < 20; j++ {
						_ = c.Set(ctx, key, payload)
						if data, hit, err := c.Get(ctx, key); err == nil && hit && len(data) != len(payload) {
							t.Errorf("observed partial value of %d bytes", len(data))
						}
						if j%7 == 0 {
							_ = c.Delete(ctx, key)
						}
					}
				}(i)
			}
			wg.Wait()
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyNone, false},
		{"none", StrategyNone, false},
		{"Memory", StrategyMemory, false},
		{" file ", StrategyFile, false},
		{"redis", StrategyRedis, false},
		{"mongo", StrategyMongo, false},
		{"disk", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Options{Strategy: StrategyNone})
	if err != nil {
		t.Fatalf("New(none) error: %v", err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("New(none) = %T, want *NullCache", c)
	}

	c, err = New(ctx, Options{Strategy: StrategyMemory})
	if err != nil || c != NewMemoryCache() {
		t.Errorf("New(memory) = %v, %v; want process memory cache", c, err)
	}

	dir := t.TempDir()
	c, err = New(ctx, Options{Strategy: StrategyFile, Dir: dir})
	if err != nil {
		t.Fatalf("New(file) error: %v", err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("New(file) = %#v", c)
	}

	if _, err := New(ctx, Options{Strategy: StrategyRedis}); !errors.Is(err, ErrMissingConfig) {
		t.Errorf("New(redis) without addr error = %v, want ErrMissingConfig", err)
	}
	if _, err := New(ctx, Options{Strategy: StrategyMongo}); !errors.Is(err, ErrMissingConfig) {
		t.Errorf("New(mongo) without uri error = %v, want ErrMissingConfig", err)
	}
	if _, err := New(ctx, Options{Strategy: "tape"}); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(tape) error = %v, want ErrUnknownStrategy", err)
	}
}
