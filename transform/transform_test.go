package transform_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/transform"
)

func TestRunWithNoPlugins(t *testing.T) {
	p := transform.NewPipeline()
	res, err := p.Run("echo hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Script) != "echo hi" {
		t.Fatalf("Script = %q, want %q", res.Script, "echo hi")
	}
}

func TestRunMergesMetadataAcrossPlugins(t *testing.T) {
	p := transform.NewPipeline()
	p.Register("count-stmts", func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error) {
		return nil, map[string]any{"stmts": len(f.Stmts)}, nil
	})
	p.Register("mark-seen", func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error) {
		if _, ok := acc["stmts"]; !ok {
			return nil, nil, fmt.Errorf("expected stmts from earlier plugin")
		}
		return nil, map[string]any{"seen": true}, nil
	})
	res, err := p.Run("echo a; echo b")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Metadata["stmts"] != 2 {
		t.Fatalf("Metadata[stmts] = %v, want 2", res.Metadata["stmts"])
	}
	if res.Metadata["seen"] != true {
		t.Fatalf("Metadata[seen] = %v, want true", res.Metadata["seen"])
	}
}

func TestRunReplacesTreeWhenPluginReturnsOne(t *testing.T) {
	p := transform.NewPipeline()
	p.Add(func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error) {
		rewritten := &ast.File{Name: f.Name, Stmts: f.Stmts[:1]}
		return rewritten, nil, nil
	})
	res, err := p.Run("echo a; echo b; echo c")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.AST.Stmts) != 1 {
		t.Fatalf("len(AST.Stmts) = %d, want 1", len(res.AST.Stmts))
	}
}

func TestRunPropagatesNamedPluginError(t *testing.T) {
	p := transform.NewPipeline()
	p.Register("always-fails", func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error) {
		return nil, nil, fmt.Errorf("boom")
	})
	_, err := p.Run("echo hi")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "always-fails") {
		t.Fatalf("error = %q, want it to name the failing plugin", err.Error())
	}
}

func TestRunPropagatesParseError(t *testing.T) {
	p := transform.NewPipeline()
	_, err := p.Run("if then")
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
}
