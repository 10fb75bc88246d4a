// Package engine implements the split engine: the DAG walk that projects a
// mainline subdirectory into an independent subtree commit history, and the
// bookkeeping (cache, attributes, variables, annotation trailers) that makes
// repeated splits stable and incremental.
//
// The engine never touches a concrete version-control library directly; it
// talks to the host repository exclusively through the Service interface,
// so it can be exercised against a fake in tests as easily as against a
// real repository (see package gitservice for the go-git-backed
// implementation).
package engine

import "context"

// Options configures a single split run (section 6.2's split-group flags).
type Options struct {
	Dir         string
	IgnoreJoins bool
	Onto        []CommitId
	NoTree      []CommitId
	Remember    []RememberPair
	Annotate    string
	Progress    func(phase string, n int)
}

// Engine is the split-group state for one run: the cache, attributes, and
// variables described in section 3, plus the options that shaped this run.
// Every mutable field the original shell implementation kept as a global
// (indent, split_started, split_max, split_redoing) lives here instead.
type Engine struct {
	Service Service
	Opts    Options

	Cache *Cache
	Attrs *Attributes
	Vars  *Variables

	started bool
}

// New creates a fresh Engine bound to svc and opts.
func New(svc Service, opts Options) *Engine {
	return &Engine{
		Service: svc,
		Opts:    opts,
		Cache:   NewCache(),
		Attrs:   NewAttributes(),
		Vars:    &Variables{},
	}
}

// Split runs the full split algorithm against tip and returns the final
// synthesized (or reused) subtree commit, per sections 4 and 5: pre-load,
// seed --remember/--onto/--notree, de-normalize, count, process.
func (e *Engine) Split(ctx context.Context, tip CommitId) (CommitId, error) {
	if err := PreLoad(ctx, e.Service, e.Cache, e.Attrs, e.Opts.Dir, tip); err != nil {
		return "", err
	}

	for _, pair := range e.Opts.Remember {
		if err := Remember(ctx, e.Service, e.Cache, e.Attrs, e.Opts.Dir, pair); err != nil {
			return "", err
		}
	}
	for _, c := range e.Opts.Onto {
		if err := e.Cache.Set(c, CommitValue(c), e.Attrs); err != nil {
			return "", err
		}
	}
	for _, c := range e.Opts.NoTree {
		if err := e.Cache.Set(c, Notree, e.Attrs); err != nil {
			return "", err
		}
	}

	if err := DenormalizeAncestors(ctx, e.Service, e.Cache, e.Attrs); err != nil {
		return "", err
	}

	e.started = true

	counter := &Counter{
		Service:     e.Service,
		Cache:       e.Cache,
		Attrs:       e.Attrs,
		Dir:         e.Opts.Dir,
		IgnoreJoins: e.Opts.IgnoreJoins,
		Report: func(n int) {
			if e.Opts.Progress != nil {
				e.Opts.Progress("counting", n)
			}
		},
	}
	if err := counter.Count(ctx, tip); err != nil {
		return "", err
	}
	if e.Opts.Progress != nil {
		e.Opts.Progress("counted", counter.Total())
	}

	processed := 0
	processor := &Processor{
		Service:     e.Service,
		Cache:       e.Cache,
		Attrs:       e.Attrs,
		Vars:        e.Vars,
		Dir:         e.Opts.Dir,
		Annotate:    e.Opts.Annotate,
		IgnoreJoins: e.Opts.IgnoreJoins,
		Report: func(CommitId) {
			processed++
			if e.Opts.Progress != nil {
				e.Opts.Progress("processing", processed)
			}
		},
	}
	return processor.Process(ctx, tip)
}

// Started reports whether the traversal passes (count/process) have begun.
// Before this point the cache's ancestor-closure invariant (section 3) is
// deferred; DenormalizeAncestors applies it in one batch right before
// Started becomes true.
func (e *Engine) Started() bool { return e.started }
