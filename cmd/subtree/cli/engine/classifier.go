package engine

import "context"

// Classify implements section 4.2: decide what kind of commit c is, given
// the active subdirectory dir. Callers normally only classify commits that
// are not yet cache-mapped (pre-load, --remember, and --notree/--onto seed
// their own mappings directly), but an already-mapped commit classifies
// consistently with its mapping so the function stays total.
func Classify(ctx context.Context, svc Service, cache *Cache, dir string, c CommitId, ignoreJoins bool) (Classification, error) {
	if v, ok := cache.Get(c); ok && !IsCounted(v) {
		if cm, isCommit := AsCommit(v); isCommit {
			if cm == c {
				return ClassSplit, nil
			}
			return ClassMainlineTree, nil
		}
		if IsNotree(v) {
			return ClassMainlineNoTree, nil
		}
	}

	msg, err := svc.Message(ctx, c)
	if err != nil {
		return 0, err
	}
	if rec, ok := ParseAnnotation(msg); ok && rec.Dir == dir && wellFormedSplit(ctx, svc, rec) {
		if !rec.HasMainline() {
			return ClassSquash, nil
		}
		if !ignoreJoins {
			return ClassMainlineTree, nil
		}
	}

	entry, err := svc.Entry(ctx, c, dir)
	if err != nil {
		return 0, err
	}
	if entry.Kind == EntryTree {
		return ClassMainlineTree, nil
	}

	hasAncestor, err := hasSubtreeAncestor(ctx, svc, cache, c)
	if err != nil {
		return 0, err
	}
	if hasAncestor {
		return ClassSplit, nil
	}
	return ClassMainlineNoTree, nil
}
