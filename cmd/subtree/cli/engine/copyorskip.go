package engine

import "context"

// CopyOrSkip implements section 4.7: decide whether a source commit c can
// be represented by an existing rewritten parent (skip) or needs a freshly
// synthesized commit (copy). annotate, if non-empty, is prefixed onto c's
// message the way --annotate does.
func CopyOrSkip(ctx context.Context, svc Service, c CommitId, tree TreeId, newParents []CommitId, annotate string) (CommitId, error) {
	deduped := dedupe(newParents)

	var identical, nonIdentical []CommitId
	for _, p := range deduped {
		rootTree, err := svc.RootTree(ctx, p)
		if err != nil {
			return "", err
		}
		if rootTree == tree {
			identical = append(identical, p)
		} else {
			nonIdentical = append(nonIdentical, p)
		}
	}

	representative, forcedCopy, err := reduceIdentical(ctx, svc, identical)
	if err != nil {
		return "", err
	}

	if representative != "" && len(nonIdentical) == 0 && !forcedCopy {
		return representative, nil
	}

	if representative != "" && len(nonIdentical) > 0 {
		for _, p := range nonIdentical {
			extra, err := hasUnreachableHistory(ctx, svc, p, representative)
			if err != nil {
				return "", err
			}
			if extra {
				forcedCopy = true
				break
			}
		}
	}
	_ = forcedCopy // copy is always correct here; forcedCopy only matters to the skip fast path above.

	meta, err := svc.Metadata(ctx, c)
	if err != nil {
		return "", err
	}
	message, err := svc.Message(ctx, c)
	if err != nil {
		return "", err
	}
	if annotate != "" {
		message = annotate + message
	}

	return svc.CreateCommit(ctx, tree, deduped, meta, message)
}

// reduceIdentical collapses a set of tree-identical parents to a single
// representative by ancestor comparison. Two unrelated identical parents
// represent independently-preserved histories and force a copy (signalled
// by returning forcedCopy=true alongside one of them as representative).
func reduceIdentical(ctx context.Context, svc Service, identical []CommitId) (representative CommitId, forcedCopy bool, err error) {
	if len(identical) == 0 {
		return "", false, nil
	}
	representative = identical[0]
	for _, candidate := range identical[1:] {
		repIsAncestor, err := svc.IsAncestor(ctx, representative, candidate)
		if err != nil {
			return "", false, err
		}
		if repIsAncestor {
			representative = candidate
			continue
		}
		candIsAncestor, err := svc.IsAncestor(ctx, candidate, representative)
		if err != nil {
			return "", false, err
		}
		if candIsAncestor {
			continue
		}
		forcedCopy = true
	}
	return representative, forcedCopy, nil
}

// hasUnreachableHistory reports whether p has any commit not reachable
// from base — i.e. base is not a descendant of p (or equal to it).
func hasUnreachableHistory(ctx context.Context, svc Service, p, base CommitId) (bool, error) {
	if p == base {
		return false, nil
	}
	pIsAncestorOfBase, err := svc.IsAncestor(ctx, p, base)
	if err != nil {
		return false, err
	}
	return !pIsAncestorOfBase, nil
}

func dedupe(ids []CommitId) []CommitId {
	seen := make(map[CommitId]bool, len(ids))
	out := make([]CommitId, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
