package engine

import "context"

// RejoinResult describes a detected rejoin (section 4.3): the traversal must
// stop recursing through the merge commit under consideration, and that
// commit maps directly to Value instead of being synthesized fresh.
type RejoinResult struct {
	Value CommitId
}

// SelectParents implements section 4.3: decide which of c's parents the
// traversal should follow. For a two-parent commit it attempts to
// bipartition the parents into a mainline-like side (subdirectory present)
// and a subtree-like side (subdirectory absent); when that succeeds it
// checks for a rejoin or a cross-subtree merge before falling through to
// the unfiltered parent list. Any other shape falls through unchanged.
func SelectParents(ctx context.Context, svc Service, cache *Cache, attrs *Attributes, dir string, c CommitId, ignoreJoins bool) ([]CommitId, *RejoinResult, error) {
	parents, err := svc.Parents(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if len(parents) != 2 {
		return parents, nil, nil
	}

	p0, p1 := parents[0], parents[1]
	e0, err := svc.Entry(ctx, p0, dir)
	if err != nil {
		return nil, nil, err
	}
	e1, err := svc.Entry(ctx, p1, dir)
	if err != nil {
		return nil, nil, err
	}

	var mainlineParent, subtreeParent CommitId
	switch {
	case e0.Kind == EntryTree && e1.Kind != EntryTree:
		mainlineParent, subtreeParent = p0, p1
	case e1.Kind == EntryTree && e0.Kind != EntryTree:
		mainlineParent, subtreeParent = p1, p0
	default:
		// Bipartition failed: this is not a subtree merge shape.
		return parents, nil, nil
	}

	mergeTree, err := subdirTree(ctx, svc, c, dir)
	if err != nil {
		return nil, nil, err
	}
	mainlineTree, err := subdirTree(ctx, svc, mainlineParent, dir)
	if err != nil {
		return nil, nil, err
	}
	subtreeRootTree, err := svc.RootTree(ctx, subtreeParent)
	if err != nil {
		return nil, nil, err
	}

	if mergeTree == mainlineTree && mergeTree == subtreeRootTree {
		value, err := resolveRejoinTarget(ctx, svc, cache, attrs, dir, subtreeParent, ignoreJoins)
		if err != nil {
			return nil, nil, err
		}
		return nil, &RejoinResult{Value: value}, nil
	}

	if mergeTree == mainlineTree && mergeTree != subtreeRootTree {
		mergeRootTree, err := svc.RootTree(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		mainlineParentRootTree, err := svc.RootTree(ctx, mainlineParent)
		if err != nil {
			return nil, nil, err
		}
		class, err := Classify(ctx, svc, cache, dir, subtreeParent, ignoreJoins)
		if err != nil {
			return nil, nil, err
		}
		if mergeRootTree != mainlineParentRootTree || (class != ClassSplit && class != ClassSquash) {
			// Cross-subtree merge for some other subdirectory.
			return []CommitId{mainlineParent}, nil, nil
		}
	}

	return parents, nil, nil
}

// resolveRejoinTarget finds the value a rejoin merge commit should map to:
// the subtree parent itself if it is (or classifies as) a split commit, or
// the split commit it was squashed from if it is a squash marker.
func resolveRejoinTarget(ctx context.Context, svc Service, cache *Cache, attrs *Attributes, dir string, subtreeParent CommitId, ignoreJoins bool) (CommitId, error) {
	if v, ok := cache.Get(subtreeParent); ok && !IsCounted(v) {
		if cm, isCommit := AsCommit(v); isCommit {
			return cm, nil
		}
	}

	class, err := Classify(ctx, svc, cache, dir, subtreeParent, ignoreJoins)
	if err != nil {
		return "", err
	}
	switch class {
	case ClassSplit:
		if err := cache.Set(subtreeParent, CommitValue(subtreeParent), attrs); err != nil {
			return "", err
		}
		return subtreeParent, nil
	case ClassSquash:
		msg, err := svc.Message(ctx, subtreeParent)
		if err != nil {
			return "", err
		}
		rec, ok := ParseAnnotation(msg)
		if !ok || !rec.HasSplit() {
			return "", &InternalError{Msg: "rejoin subtree parent " + string(subtreeParent) + " classified squash but carries no split trailer"}
		}
		if err := cache.Set(subtreeParent, CommitValue(rec.Split), attrs); err != nil {
			return "", err
		}
		return rec.Split, nil
	default:
		return subtreeParent, nil
	}
}
