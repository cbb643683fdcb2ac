package vfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Overlay backs a VFS root with a real host directory, confining every
// resolved path to stay within it. It exists as the extension point named
// in the design for binding the sandbox to host-native storage; scripts
// still only ever see the virtual root, never the host path.
type Overlay struct {
	root string // absolute host directory this overlay is confined to
}

// NewOverlay confines filesystem operations to hostRoot, rejecting any
// resolved path that escapes it via ".." or a symlink.
func NewOverlay(hostRoot string) (*Overlay, error) {
	abs, err := filepath.Abs(hostRoot)
	if err != nil {
		return nil, err
	}
	return &Overlay{root: filepath.Clean(abs)}, nil
}

// hostPath maps a virtual absolute path to a host path, erroring if the
// resolved, symlink-evaluated path would escape the confined root.
func (o *Overlay) hostPath(p string) (string, error) {
	clean, err := cleanAbs(p)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(o.root, filepath.FromSlash(clean))
	if !IsPathWithinRoot(joined, o.root) {
		return "", newErr("path", p, ErrPermissionDenied)
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err == nil && !IsPathWithinRoot(resolved, o.root) {
		return "", newErr("path", p, ErrPermissionDenied)
	}
	return joined, nil
}

func (o *Overlay) ReadFile(p string) ([]byte, error) {
	hp, err := o.hostPath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(hp)
	if err != nil {
		return nil, translateOSErr("read", p, err)
	}
	return data, nil
}

func (o *Overlay) WriteFile(p string, data []byte) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(hp, data, 0o644); err != nil {
		return translateOSErr("write", p, err)
	}
	return nil
}

func (o *Overlay) AppendFile(p string, data []byte) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(hp, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return translateOSErr("write", p, err)
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

func (o *Overlay) Exists(p string) bool {
	hp, err := o.hostPath(p)
	if err != nil {
		return false
	}
	_, err = os.Lstat(hp)
	return err == nil
}

func toInfo(name string, fi fs.FileInfo) Info {
	typ := TypeFile
	if fi.IsDir() {
		typ = TypeDir
	} else if fi.Mode()&fs.ModeSymlink != 0 {
		typ = TypeSymlink
	}
	return Info{Name: name, Type: typ, Size: fi.Size(), Mtime: fi.ModTime(), Mode: fi.Mode()}
}

func (o *Overlay) Stat(p string) (Info, error) {
	hp, err := o.hostPath(p)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(hp)
	if err != nil {
		return Info{}, translateOSErr("stat", p, err)
	}
	return toInfo(fi.Name(), fi), nil
}

func (o *Overlay) Lstat(p string) (Info, error) {
	hp, err := o.hostPath(p)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Lstat(hp)
	if err != nil {
		return Info{}, translateOSErr("stat", p, err)
	}
	return toInfo(fi.Name(), fi), nil
}

func (o *Overlay) ReadDir(p string) ([]DirEntry, error) {
	hp, err := o.hostPath(p)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(hp)
	if err != nil {
		return nil, translateOSErr("readdir", p, err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		typ := TypeFile
		if e.IsDir() {
			typ = TypeDir
		} else if e.Type()&fs.ModeSymlink != 0 {
			typ = TypeSymlink
		}
		out = append(out, DirEntry{Name: e.Name(), Type: typ})
	}
	return out, nil
}

func (o *Overlay) Mkdir(p string, parents bool) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	if parents {
		return translateOSErr("mkdir", p, os.MkdirAll(hp, 0o755))
	}
	return translateOSErr("mkdir", p, os.Mkdir(hp, 0o755))
}

func (o *Overlay) Remove(p string, recursive, force bool) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	var rmErr error
	if recursive {
		rmErr = os.RemoveAll(hp)
	} else {
		rmErr = os.Remove(hp)
	}
	if rmErr != nil && force {
		return nil
	}
	return translateOSErr("remove", p, rmErr)
}

func (o *Overlay) Rename(from, to string) error {
	hf, err := o.hostPath(from)
	if err != nil {
		return err
	}
	ht, err := o.hostPath(to)
	if err != nil {
		return err
	}
	return translateOSErr("rename", from, os.Rename(hf, ht))
}

func (o *Overlay) Copy(from, to string, recursive bool) error {
	hf, err := o.hostPath(from)
	if err != nil {
		return err
	}
	ht, err := o.hostPath(to)
	if err != nil {
		return err
	}
	fi, err := os.Stat(hf)
	if err != nil {
		return translateOSErr("copy", from, err)
	}
	if fi.IsDir() {
		if !recursive {
			return newErr("copy", from, ErrIsADirectory)
		}
		return translateOSErr("copy", from, filepath.WalkDir(hf, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(hf, path)
			dest := filepath.Join(ht, rel)
			if d.IsDir() {
				return os.MkdirAll(dest, 0o755)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return os.WriteFile(dest, data, 0o644)
		}))
	}
	data, err := os.ReadFile(hf)
	if err != nil {
		return translateOSErr("copy", from, err)
	}
	return translateOSErr("copy", to, os.WriteFile(ht, data, 0o644))
}

func (o *Overlay) Symlink(target, link string) error {
	hl, err := o.hostPath(link)
	if err != nil {
		return err
	}
	return translateOSErr("symlink", link, os.Symlink(target, hl))
}

func (o *Overlay) Readlink(link string) (string, error) {
	hl, err := o.hostPath(link)
	if err != nil {
		return "", err
	}
	target, err := os.Readlink(hl)
	if err != nil {
		return "", translateOSErr("readlink", link, err)
	}
	return target, nil
}

func (o *Overlay) Realpath(p string) (string, error) {
	hp, err := o.hostPath(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(hp)
	if err != nil {
		return "", translateOSErr("realpath", p, err)
	}
	if !IsPathWithinRoot(resolved, o.root) {
		return "", newErr("realpath", p, ErrPermissionDenied)
	}
	rel, err := filepath.Rel(o.root, resolved)
	if err != nil {
		return "", translateOSErr("realpath", p, err)
	}
	return "/" + filepath.ToSlash(rel), nil
}

func (o *Overlay) Chmod(p string, mode fs.FileMode) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	return translateOSErr("chmod", p, os.Chmod(hp, mode))
}

func (o *Overlay) Utimes(p string, atime, mtime time.Time) error {
	hp, err := o.hostPath(p)
	if err != nil {
		return err
	}
	return translateOSErr("utimes", p, os.Chtimes(hp, atime, mtime))
}

func translateOSErr(op, p string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return newErr(op, p, ErrNotFound)
	case os.IsExist(err):
		return newErr(op, p, ErrExists)
	case os.IsPermission(err):
		return newErr(op, p, ErrPermissionDenied)
	}
	return newErr(op, p, ErrInvalidPath)
}

var _ FS = (*Overlay)(nil)
var _ FS = (*MemFS)(nil)
