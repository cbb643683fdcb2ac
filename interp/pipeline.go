package interp

import (
	"context"
	"io"

	"github.com/chadparker/just-bash/ast"
	"golang.org/x/sync/errgroup"
)

// execPipeline runs every stage of p, wiring each stage's stdout to the
// next stage's stdin with an io.Pipe so stages run concurrently rather
// than buffering one stage fully before starting the next. PipeStatus
// records every stage's exit code in order, and set -o pipefail makes the
// pipeline's own status the rightmost nonzero code instead of always the
// last stage's.
func (st *State) execPipeline(ctx context.Context, p *ast.Pipeline) error {
	n := len(p.Stmts)
	if n == 1 {
		if err := st.ExecStmt(ctx, p.Stmts[0]); err != nil {
			return err
		}
		st.PipeStatus = []int{st.LastStatus}
		if p.Negated {
			st.LastStatus = boolStatus(st.LastStatus != 0)
		}
		return nil
	}

	stages := make([]*State, n)
	for i := range stages {
		stages[i] = st.Clone()
	}

	readers := make([]*io.PipeReader, n-1)
	writers := make([]*io.PipeWriter, n-1)
	for i := range readers {
		readers[i], writers[i] = io.Pipe()
	}
	for i, s := range stages {
		if i > 0 {
			s.Stdin = readers[i-1]
		}
		if i < n-1 {
			s.Stdout = writers[i]
			if p.Ops[i] == ast.PipeBoth {
				s.Stderr = writers[i]
			}
		} else {
			s.Stdout = st.Stdout
			s.Stderr = st.Stderr
		}
	}

	statuses := make([]int, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range stages {
		i := i
		g.Go(func() error {
			if i > 0 {
				defer readers[i-1].Close()
			}
			if i < n-1 {
				defer writers[i].Close()
			}
			err := stages[i].ExecStmt(gctx, p.Stmts[i])
			statuses[i] = stages[i].LastStatus
			return err
		})
	}
	err := g.Wait()

	st.PipeStatus = statuses
	last := statuses[n-1]
	if st.Opts.PipeFail {
		for i := n - 1; i >= 0; i-- {
			if statuses[i] != 0 {
				last = statuses[i]
				break
			}
		}
	}
	st.LastStatus = last
	if p.Negated {
		st.LastStatus = boolStatus(st.LastStatus != 0)
	}
	return err
}
