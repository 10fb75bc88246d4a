package engine

import "context"

// hasSubtreeAncestor implements section 4.5's efficient ancestor test: does
// c descend from any commit the cache already knows is a subtree commit?
// The candidate set is reduced to its independent tips first so the
// repository service is never asked to reason about an argument list sized
// to the whole cache.
func hasSubtreeAncestor(ctx context.Context, svc Service, cache *Cache, c CommitId) (bool, error) {
	candidates := cache.SubtreeCommits()
	if len(candidates) == 0 {
		return false, nil
	}

	reduced, err := reduceIndependentTips(ctx, svc, candidates)
	if err != nil {
		return false, err
	}

	for _, candidate := range reduced {
		related, err := svc.IsAncestor(ctx, candidate, c)
		if err != nil {
			return false, err
		}
		if related {
			return true, nil
		}
	}
	return false, nil
}

// reduceIndependentTips repeatedly drops ancestors-of-other-members from
// ids until the set stops shrinking. The reduction is a fixpoint of a
// monotone operation, so it always terminates; ordering of the result is
// not significant.
func reduceIndependentTips(ctx context.Context, svc Service, ids []CommitId) ([]CommitId, error) {
	current := ids
	for {
		reduced, err := svc.SelectIndependentTips(ctx, current)
		if err != nil {
			return nil, err
		}
		if len(reduced) == len(current) {
			return reduced, nil
		}
		current = reduced
	}
}
