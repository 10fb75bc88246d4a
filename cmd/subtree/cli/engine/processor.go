package engine

import "context"

// Processor implements the section 4.6 post-order walk: for every Counted
// commit, recurse through the parent selector's output, classify, and
// branch into the four shapes described there. It never uses Go recursion
// (section 5/9): the traversal is an explicit work-stack with a
// childrenQueued flag standing in for the white/gray/black coloring.
type Processor struct {
	Service     Service
	Cache       *Cache
	Attrs       *Attributes
	Vars        *Variables
	Dir         string
	Annotate    string
	IgnoreJoins bool
	Report      func(processed CommitId)
}

type processorFrame struct {
	id             CommitId
	childrenQueued bool
}

// Process walks every commit reachable from tip and returns tip's own
// mapping once the whole traversal completes. tip may already be
// cache-mapped on entry (via PreLoad, --remember, or --onto/--notree
// seeding) without ever passing through processOne, so the result is read
// back from the cache rather than from Vars.LatestSplit, which only tracks
// the most recently freshly-processed commit.
func (p *Processor) Process(ctx context.Context, tip CommitId) (CommitId, error) {
	stack := []processorFrame{{id: tip}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if v, ok := p.Cache.Get(top.id); ok && !IsCounted(v) {
			stack = stack[:len(stack)-1]
			continue
		}

		parents, rejoin, err := SelectParents(ctx, p.Service, p.Cache, p.Attrs, p.Dir, top.id, p.IgnoreJoins)
		if err != nil {
			return "", err
		}
		if rejoin != nil {
			if err := p.Cache.Set(top.id, CommitValue(rejoin.Value), p.Attrs); err != nil {
				return "", err
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if !top.childrenQueued {
			top.childrenQueued = true
			needsWork := false
			for _, parent := range parents {
				if v, ok := p.Cache.Get(parent); !ok || IsCounted(v) {
					stack = append(stack, processorFrame{id: parent})
					needsWork = true
				}
			}
			if needsWork {
				continue
			}
		}

		if err := p.processOne(ctx, top.id, parents); err != nil {
			return "", err
		}
		if p.Report != nil {
			p.Report(top.id)
		}
		stack = stack[:len(stack)-1]
	}
	v, ok := p.Cache.Get(tip)
	if !ok {
		return "", &InternalError{Msg: "tip " + string(tip) + " left unresolved after processing"}
	}
	if cm, isCommit := AsCommit(v); isCommit {
		return cm, nil
	}
	return "", nil
}

// processOne implements the classify-and-branch step (section 4.6, steps
// 2-4) for a single commit whose selected parents have already been fully
// processed.
func (p *Processor) processOne(ctx context.Context, c CommitId, parents []CommitId) error {
	class, err := Classify(ctx, p.Service, p.Cache, p.Dir, c, p.IgnoreJoins)
	if err != nil {
		return err
	}

	switch class {
	case ClassMainlineTree:
		tree, err := subdirTree(ctx, p.Service, c, p.Dir)
		if err != nil {
			return err
		}
		var newParents []CommitId
		for _, parent := range parents {
			v, ok := p.Cache.Get(parent)
			if !ok {
				return &InternalError{Msg: "parent " + string(parent) + " of " + string(c) + " was not resolved before processing"}
			}
			if cm, isCommit := AsCommit(v); isCommit {
				newParents = append(newParents, cm)
			}
			// Notree parents are dropped: they contribute nothing to the subtree.
		}
		newrev, err := CopyOrSkip(ctx, p.Service, c, tree, newParents, p.Annotate)
		if err != nil {
			return err
		}
		if err := p.checkRedo(ctx, c, CommitValue(newrev)); err != nil {
			return err
		}
		if err := p.Cache.Set(c, CommitValue(newrev), p.Attrs); err != nil {
			return err
		}
		p.Vars.LatestSplit = newrev
		p.Vars.LatestMainline = c

	case ClassMainlineNoTree:
		if err := p.checkRedo(ctx, c, Notree); err != nil {
			return err
		}
		if err := p.Cache.Set(c, Notree, p.Attrs); err != nil {
			return err
		}
		p.Vars.LatestMainline = c

	case ClassSplit:
		if err := p.checkRedo(ctx, c, CommitValue(c)); err != nil {
			return err
		}
		if err := p.Cache.Set(c, CommitValue(c), p.Attrs); err != nil {
			return err
		}
		p.Vars.LatestSplit = c

	case ClassSquash:
		msg, err := p.Service.Message(ctx, c)
		if err != nil {
			return err
		}
		rec, ok := ParseAnnotation(msg)
		if !ok || !rec.HasSplit() {
			return &InternalError{Msg: "commit " + string(c) + " classified squash but carries no split trailer"}
		}
		if err := p.checkRedo(ctx, c, CommitValue(rec.Split)); err != nil {
			return err
		}
		if err := p.Cache.Set(c, CommitValue(rec.Split), p.Attrs); err != nil {
			return err
		}
		p.Vars.LatestSplit = rec.Split
	}
	return nil
}

// checkRedo implements section 4.6 step 4: if c was tagged redo, compare
// the newly computed mapping against the prior one before Cache.Set
// overwrites it, so the ConsistencyError can report both sides along with
// a message diff.
func (p *Processor) checkRedo(ctx context.Context, c CommitId, newVal CacheValue) error {
	if !p.Attrs.Has(c, TagRedo) {
		return nil
	}
	prior, ok := p.Cache.Get(c)
	if !ok || cacheValueEqual(prior, newVal) {
		return nil
	}
	err := &ConsistencyError{
		Commit:    c,
		Prior:     prior,
		New:       newVal,
		RedoStack: p.Attrs.RedoStack(),
	}
	if priorID, ok := AsCommit(prior); ok {
		if msg, merr := p.Service.Message(ctx, priorID); merr == nil {
			err.PriorMsg = msg
		}
	}
	if newID, ok := AsCommit(newVal); ok {
		if msg, merr := p.Service.Message(ctx, newID); merr == nil {
			err.NewMsg = msg
		}
	}
	return err
}
