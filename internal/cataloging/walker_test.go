package cataloging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/folderctx"
)

func newTestWalker(provider *fakeProvider, batchSize int, out *bytes.Buffer) *Walker {
	w := &Walker{
		Analyzer:  &Analyzer{Provider: provider},
		Deriver:   folderctx.DefaultDeriver(),
		BatchSize: batchSize,
	}
	if out != nil {
		w.Out = out
	}
	return w
}

func TestPartition(t *testing.T) {
	for n := 0; n <= 9; n++ {
		for _, size := range []int{1, 3, 4} {
			t.Run(fmt.Sprintf("n=%d/size=%d", n, size), func(t *testing.T) {
				files := make([]string, n)
				for i := range files {
					files[i] = fmt.Sprintf("%02d.png", i)
				}

				batches := Partition(files, size)

				wantBatches := (n + size - 1) / size
				if len(batches) != wantBatches {
					t.Fatalf("Expected %d batches, got %d", wantBatches, len(batches))
				}

				var flattened []string
				for _, b := range batches {
					if len(b) == 0 || len(b) > size {
						t.Errorf("Batch size out of range: %d", len(b))
					}
					flattened = append(flattened, b...)
				}
				if n > 0 && !reflect.DeepEqual(flattened, files) {
					t.Errorf("Expected every file exactly once in order, got %v", flattened)
				}
			})
		}
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.PNG", "a.jpg", "notes.txt", "manifest.json", "c.webp", "sub/d.png")

	files, err := ListImages(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	expected := []string{"a.jpg", "b.PNG", "c.webp"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}

func TestListFolders(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a/b/x.png", "a-c/y.png", "z/.cache/q.png", "z/keep/r.png")

	t.Run("non-recursive", func(t *testing.T) {
		folders, err := ListFolders(root, false, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !reflect.DeepEqual(folders, []string{root}) {
			t.Errorf("Expected only root, got %v", folders)
		}
	})

	t.Run("recursive order", func(t *testing.T) {
		folders, err := ListFolders(root, true, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		expected := []string{
			root,
			filepath.Join(root, "a"),
			filepath.Join(root, "a", "b"),
			filepath.Join(root, "a-c"),
			filepath.Join(root, "z"),
			filepath.Join(root, "z", ".cache"),
			filepath.Join(root, "z", "keep"),
		}
		if !reflect.DeepEqual(folders, expected) {
			t.Errorf("Expected %v, got %v", expected, folders)
		}
	})

	t.Run("exclude globs", func(t *testing.T) {
		folders, err := ListFolders(root, true, []string{"**/.cache", "a"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		expected := []string{
			root,
			filepath.Join(root, "a-c"),
			filepath.Join(root, "z"),
			filepath.Join(root, "z", "keep"),
		}
		if !reflect.DeepEqual(folders, expected) {
			t.Errorf("Expected %v, got %v", expected, folders)
		}
	})
}

func TestCatalogBatching(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "f.png", "e.png", "d.png", "c.png", "b.png", "a.png", "readme.md")

	provider := &fakeProvider{}
	var out bytes.Buffer
	result, err := newTestWalker(provider, 4, &out).Catalog(context.Background(), root, Options{BasePath: root})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedBatches := [][]string{
		{"a.png", "b.png", "c.png", "d.png"},
		{"e.png", "f.png"},
	}
	if got := provider.requestedNames(); !reflect.DeepEqual(got, expectedBatches) {
		t.Errorf("Expected batches %v, got %v", expectedBatches, got)
	}
	if len(result) != 6 {
		t.Errorf("Expected 6 entries, got %d", len(result))
	}
	if result["a.png"] != "description of a.png" {
		t.Errorf("Unexpected entry for a.png: %q", result["a.png"])
	}

	for _, want := range []string{"6 images", "Context: ", "Analyzing batch 1/2...", "Analyzing batch 2/2...", "a.png: description of a.png"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected progress output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestCatalogSkipsEmptyFolders(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "empty/notes.txt", "full/a.png")

	provider := &fakeProvider{}
	var out bytes.Buffer
	result, err := newTestWalker(provider, 4, &out).Catalog(context.Background(), root, Options{Recursive: true, BasePath: root})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(provider.requests) != 1 {
		t.Errorf("Expected 1 request, got %d", len(provider.requests))
	}
	if len(result) != 1 {
		t.Errorf("Expected 1 entry, got %v", result)
	}
	if strings.Contains(out.String(), "[empty]") {
		t.Errorf("Expected no output for empty folder, got:\n%s", out.String())
	}
}

func TestCatalogKeysAreUniqueAcrossFolders(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "Characters/a.png", "Environments/a.png")

	provider := &fakeProvider{replies: []*fakeReply{
		{text: `{"a.png": "character a"}`},
		{text: `{"a.png": "environment a"}`},
	}}
	result, err := newTestWalker(provider, 4, nil).Catalog(context.Background(), root, Options{Recursive: true, BasePath: root})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := Catalog{
		"Characters/a.png":   "character a",
		"Environments/a.png": "environment a",
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}

	if !strings.Contains(provider.requests[0].Prompt, "character artwork") {
		t.Error("Expected first folder context to carry the character hint")
	}
	if !strings.Contains(provider.requests[1].Prompt, "3D environment renders") {
		t.Error("Expected second folder context to carry the environment hint")
	}
}

func TestCatalogWithoutBasePathUsesFilenames(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "x/a.png")

	result, err := newTestWalker(&fakeProvider{}, 4, nil).Catalog(context.Background(), filepath.Join(root, "x"), Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := result["a.png"]; !ok {
		t.Errorf("Expected bare filename key, got %v", result)
	}
}

func TestCatalogContinuesAfterFailedBatch(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.png", "b.png", "c.png")

	provider := &fakeProvider{replies: []*fakeReply{
		{text: "not json at all"},
		{err: errors.New("connection reset")},
		nil,
	}}
	result, err := newTestWalker(provider, 1, nil).Catalog(context.Background(), root, Options{BasePath: root})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(provider.requests) != 3 {
		t.Errorf("Expected all 3 batches to run, got %d", len(provider.requests))
	}
	expected := Catalog{"c.png": "description of c.png"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestCatalogExcludesFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.png", "a_thumb.png")

	w := newTestWalker(&fakeProvider{}, 4, nil)
	w.Exclude = []string{"**/*_thumb.png"}

	result, err := w.Catalog(context.Background(), root, Options{BasePath: root})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := result["a_thumb.png"]; ok || len(result) != 1 {
		t.Errorf("Expected thumbnail to be excluded, got %v", result)
	}
}

func TestCatalogSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	writeFiles(t, target, "a.png", "sub/b.png")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	tests := []struct {
		name      string
		recursive bool
		expected  Catalog
	}{
		{
			name:     "non-recursive",
			expected: Catalog{"a.png": "description of a.png"},
		},
		{
			name:      "recursive",
			recursive: true,
			expected: Catalog{
				"a.png":     "description of a.png",
				"sub/b.png": "description of b.png",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			result, err := newTestWalker(provider, 4, nil).Catalog(context.Background(), link, Options{Recursive: tt.recursive, BasePath: link})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
			if len(provider.requests) != len(tt.expected) {
				t.Errorf("Expected %d requests, got %d", len(tt.expected), len(provider.requests))
			}
		})
	}
}

func TestListFoldersSymlinkedRootKeepsPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, filepath.Join(dir, "real"), "sub/b.png")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(filepath.Join(dir, "real"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	folders, err := ListFolders(link, true, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []string{link, filepath.Join(link, "sub")}
	if !reflect.DeepEqual(folders, expected) {
		t.Errorf("Expected %v, got %v", expected, folders)
	}
}

func TestCatalogStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeProvider{}
	_, err := newTestWalker(provider, 4, nil).Catalog(ctx, root, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(provider.requests) != 0 {
		t.Errorf("Expected no requests after cancellation, got %d", len(provider.requests))
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 60); got != "short" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
	if got := Preview("ééééé", 3); got != "ééé..." {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}
