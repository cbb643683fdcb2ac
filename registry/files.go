package registry

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/chadparker/just-bash/interp"
	"github.com/chadparker/just-bash/pattern"
	"github.com/chadparker/just-bash/vfs"
)

func registerFiles(r *Registry) {
	r.Register("ls", cmdLs)
	r.Register("mkdir", cmdMkdir)
	r.Register("rm", cmdRm)
	r.Register("cp", cmdCp)
	r.Register("mv", cmdMv)
	r.Register("touch", cmdTouch)
	r.Register("ln", cmdLn)
	r.Register("find", cmdFind)
}

func cmdLs(_ context.Context, args []string, st *interp.State) (int, error) {
	long, all := false, false
	var paths []string
	for _, a := range args {
		switch {
		case a == "-l":
			long = true
		case a == "-a":
			all = true
		case a == "-la" || a == "-al":
			long, all = true, true
		case strings.HasPrefix(a, "-"):
			// unrecognized flag, ignored
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	status := 0
	for i, p := range paths {
		if len(paths) > 1 {
			if i > 0 {
				fmt.Fprintln(st.Stdout)
			}
			fmt.Fprintf(st.Stdout, "%s:\n", p)
		}
		abs := st.ResolvePath(p)
		entries, err := st.FS.ReadDir(abs)
		if err != nil {
			fmt.Fprintf(st.Stderr, "ls: cannot access %q: No such file or directory\n", p)
			status = 1
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			if !all && strings.HasPrefix(e.Name, ".") {
				continue
			}
			if long {
				info, _ := st.FS.Stat(joinPath(abs, e.Name))
				kind := "-"
				switch e.Type {
				case vfs.TypeDir:
					kind = "d"
				case vfs.TypeSymlink:
					kind = "l"
				}
				fmt.Fprintf(st.Stdout, "%s %10d %s\n", kind, info.Size, e.Name)
			} else {
				fmt.Fprintln(st.Stdout, e.Name)
			}
		}
	}
	return status, nil
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func cmdMkdir(_ context.Context, args []string, st *interp.State) (int, error) {
	parents := false
	var dirs []string
	for _, a := range args {
		if a == "-p" {
			parents = true
			continue
		}
		dirs = append(dirs, a)
	}
	status := 0
	for _, d := range dirs {
		if err := st.FS.Mkdir(st.ResolvePath(d), parents); err != nil {
			fmt.Fprintf(st.Stderr, "mkdir: cannot create directory %q: %v\n", d, err)
			status = 1
		}
	}
	return status, nil
}

func cmdRm(_ context.Context, args []string, st *interp.State) (int, error) {
	recursive, force := false, false
	var paths []string
	for _, a := range args {
		switch a {
		case "-r", "-rf", "-fr", "-R":
			recursive = true
			if strings.Contains(a, "f") {
				force = true
			}
		case "-f":
			force = true
		default:
			paths = append(paths, a)
		}
	}
	status := 0
	for _, p := range paths {
		if err := st.FS.Remove(st.ResolvePath(p), recursive, force); err != nil && !force {
			fmt.Fprintf(st.Stderr, "rm: cannot remove %q: %v\n", p, err)
			status = 1
		}
	}
	return status, nil
}

func cmdCp(_ context.Context, args []string, st *interp.State) (int, error) {
	recursive := false
	var paths []string
	for _, a := range args {
		switch a {
		case "-r", "-R":
			recursive = true
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) < 2 {
		fmt.Fprintln(st.Stderr, "cp: missing destination file operand")
		return 1, nil
	}
	dstAbs := st.ResolvePath(paths[len(paths)-1])
	srcs := paths[:len(paths)-1]
	status := 0
	for _, s := range srcs {
		target := dstAbs
		if info, err := st.FS.Stat(dstAbs); err == nil && info.Type == vfs.TypeDir {
			target = joinPath(dstAbs, path.Base(s))
		}
		if err := st.FS.Copy(st.ResolvePath(s), target, recursive); err != nil {
			fmt.Fprintf(st.Stderr, "cp: cannot copy %q: %v\n", s, err)
			status = 1
		}
	}
	return status, nil
}

func cmdMv(_ context.Context, args []string, st *interp.State) (int, error) {
	if len(args) < 2 {
		fmt.Fprintln(st.Stderr, "mv: missing destination file operand")
		return 1, nil
	}
	dstAbs := st.ResolvePath(args[len(args)-1])
	srcs := args[:len(args)-1]
	status := 0
	for _, s := range srcs {
		target := dstAbs
		if info, err := st.FS.Stat(dstAbs); err == nil && info.Type == vfs.TypeDir {
			target = joinPath(dstAbs, path.Base(s))
		}
		if err := st.FS.Rename(st.ResolvePath(s), target); err != nil {
			fmt.Fprintf(st.Stderr, "mv: cannot move %q: %v\n", s, err)
			status = 1
		}
	}
	return status, nil
}

func cmdTouch(_ context.Context, args []string, st *interp.State) (int, error) {
	status := 0
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		abs := st.ResolvePath(a)
		if st.FS.Exists(abs) {
			now := time.Now()
			if err := st.FS.Utimes(abs, now, now); err != nil {
				fmt.Fprintf(st.Stderr, "touch: %q: %v\n", a, err)
				status = 1
			}
			continue
		}
		if err := st.FS.WriteFile(abs, []byte{}); err != nil {
			fmt.Fprintf(st.Stderr, "touch: cannot touch %q: %v\n", a, err)
			status = 1
		}
	}
	return status, nil
}

func cmdLn(_ context.Context, args []string, st *interp.State) (int, error) {
	symbolic := false
	var paths []string
	for _, a := range args {
		if a == "-s" {
			symbolic = true
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) < 2 {
		fmt.Fprintln(st.Stderr, "ln: missing file operand")
		return 1, nil
	}
	if !symbolic {
		fmt.Fprintln(st.Stderr, "ln: hard links are not supported; use -s")
		return 1, nil
	}
	target, link := paths[0], paths[1]
	if err := st.FS.Symlink(target, st.ResolvePath(link)); err != nil {
		fmt.Fprintf(st.Stderr, "ln: %v\n", err)
		return 1, nil
	}
	return 0, nil
}

// cmdFind walks the tree under the given root, bounding traversal with a
// visited-path set so a symlink cycle cannot loop it forever.
func cmdFind(_ context.Context, args []string, st *interp.State) (int, error) {
	root := "."
	i := 0
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		root = args[0]
		i = 1
	}
	var namePat, typeFilter string
	for ; i < len(args); i++ {
		switch args[i] {
		case "-name":
			if i+1 < len(args) {
				namePat = args[i+1]
				i++
			}
		case "-type":
			if i+1 < len(args) {
				typeFilter = args[i+1]
				i++
			}
		}
	}

	var out []string
	visited := map[string]bool{}
	var walk func(p string)
	walk = func(p string) {
		if visited[p] {
			return
		}
		visited[p] = true
		info, err := st.FS.Lstat(p)
		if err != nil {
			return
		}
		nameOK := namePat == "" || pattern.Match(path.Base(p), namePat)
		typeOK := typeFilter == "" ||
			(typeFilter == "f" && info.Type == vfs.TypeFile) ||
			(typeFilter == "d" && info.Type == vfs.TypeDir) ||
			(typeFilter == "l" && info.Type == vfs.TypeSymlink)
		if nameOK && typeOK {
			out = append(out, p)
		}
		if info.Type != vfs.TypeDir {
			return
		}
		entries, err := st.FS.ReadDir(p)
		if err != nil {
			return
		}
		for _, e := range entries {
			walk(joinPath(p, e.Name))
		}
	}
	walk(st.ResolvePath(root))
	sort.Strings(out)
	for _, p := range out {
		fmt.Fprintln(st.Stdout, p)
	}
	return 0, nil
}
