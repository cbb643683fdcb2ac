package vfs_test

import (
	"sort"
	"testing"

	"github.com/chadparker/just-bash/vfs"
	"github.com/google/go-cmp/cmp"
)

func TestReadDirListsSeededEntries(t *testing.T) {
	fs, err := vfs.NewMemFSFromSeed(map[string]vfs.Seed{
		"/a.txt":   {Content: []byte("a")},
		"/b/c.txt": {Content: []byte("c")},
	})
	if err != nil {
		t.Fatalf("NewMemFSFromSeed: %v", err)
	}
	entries, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	want := []vfs.DirEntry{
		{Name: "a.txt", Type: vfs.TypeFile},
		{Name: "b", Type: vfs.TypeDir},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("ReadDir(/) mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyPreservesFileType(t *testing.T) {
	fs, err := vfs.NewMemFSFromSeed(map[string]vfs.Seed{
		"/src.txt": {Content: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("NewMemFSFromSeed: %v", err)
	}
	if err := fs.Copy("/src.txt", "/dst.txt", false); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	info, err := fs.Stat("/dst.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	want := vfs.Info{Name: "dst.txt", Type: vfs.TypeFile, Size: 5}
	got := vfs.Info{Name: info.Name, Type: info.Type, Size: info.Size}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Stat(/dst.txt) mismatch (-want +got):\n%s", diff)
	}
}
