package interp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/expand"
)

// applyRedirs evaluates and applies a list of redirections against st,
// returning a restore function the caller must defer. Only file
// descriptors 0 (stdin), 1 (stdout), and 2 (stderr) are modeled, matching
// the external-interfaces contract: commands see stdin/stdout/stderr, not
// an arbitrary fd table.
func (st *State) applyRedirs(redirs []*ast.Redirect, cfg *expand.Config) (func(), error) {
	origIn, origOut, origErr := st.Stdin, st.Stdout, st.Stderr
	restore := func() {
		st.Stdin, st.Stdout, st.Stderr = origIn, origOut, origErr
	}
	for _, r := range redirs {
		if err := st.applyOneRedir(r, cfg); err != nil {
			restore()
			return nil, err
		}
	}
	return restore, nil
}

func fdOf(r *ast.Redirect, defaultFd int) int {
	if r.Fd != nil {
		return *r.Fd
	}
	return defaultFd
}

func (st *State) applyOneRedir(r *ast.Redirect, cfg *expand.Config) error {
	switch r.Op {
	case ast.RedirLess, ast.RedirReadWrite:
		path, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		abs := st.ResolvePath(path)
		data, err := st.FS.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		st.Stdin = bytes.NewReader(data)
		return nil

	case ast.RedirGreat, ast.RedirClobber:
		path, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		w := &fileWriter{st: st, path: st.ResolvePath(path), append: false}
		st.setFd(fdOf(r, 1), w)
		return nil

	case ast.RedirAppend:
		path, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		w := &fileWriter{st: st, path: st.ResolvePath(path), append: true}
		st.setFd(fdOf(r, 1), w)
		return nil

	case ast.RedirBoth, ast.RedirBothAppend:
		path, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		w := &fileWriter{st: st, path: st.ResolvePath(path), append: r.Op == ast.RedirBothAppend}
		st.Stdout = w
		st.Stderr = w
		return nil

	case ast.RedirDupOut:
		target, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		src := fdOf(r, 1)
		if target == "-" {
			st.setFd(src, io.Discard)
			return nil
		}
		dst := st.fdWriter(target)
		st.setFd(src, dst)
		return nil

	case ast.RedirDupIn:
		target, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		if target == "0" {
			return nil
		}
		return nil

	case ast.RedirHeredoc, ast.RedirHeredocTabs:
		body, err := expand.Literal(cfg, r.Hdoc)
		if err != nil {
			return err
		}
		if !r.Quoted {
			body, err = expandHeredocBody(cfg, r.Hdoc)
			if err != nil {
				return err
			}
		}
		st.Stdin = strings.NewReader(body)
		return nil

	case ast.RedirHeredocStr:
		body, err := expand.Literal(cfg, r.Target)
		if err != nil {
			return err
		}
		st.Stdin = strings.NewReader(body + "\n")
		return nil
	}
	return fmt.Errorf("unsupported redirection")
}

func expandHeredocBody(cfg *expand.Config, w ast.Word) (string, error) {
	return expand.Literal(cfg, w)
}

func (st *State) setFd(fd int, w io.Writer) {
	switch fd {
	case 1:
		st.Stdout = w
	case 2:
		st.Stderr = w
	}
}

func (st *State) fdWriter(s string) io.Writer {
	switch s {
	case "1":
		return st.Stdout
	case "2":
		return st.Stderr
	}
	return io.Discard
}

// fileWriter passes each Write straight through to the VFS (the first one
// replaces the file unless appending, later ones append), since vfs.FS
// exposes whole-buffer file operations rather than a streaming handle.
type fileWriter struct {
	st     *State
	path   string
	append bool
	buf    bytes.Buffer
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if err != nil {
		return n, err
	}
	if w.append {
		err = w.st.FS.AppendFile(w.path, w.buf.Bytes())
	} else {
		err = w.st.FS.WriteFile(w.path, w.buf.Bytes())
		w.append = true // subsequent writes in the same redirect append to what's there
	}
	w.buf.Reset()
	return n, err
}

func (st *State) ResolvePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	if st.Cwd == "/" {
		return "/" + p
	}
	return st.Cwd + "/" + p
}
