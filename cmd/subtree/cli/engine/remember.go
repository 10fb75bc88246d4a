package engine

import (
	"context"
	"strings"
)

// RememberPair is a user-supplied --remember BEFORE:AFTER assertion.
type RememberPair struct {
	Before CommitId
	After  CommitId
}

// ParseRememberPair parses a "BEFORE:AFTER" string as used by the --remember
// flag (section 6.2). Returns an error naming the offending token if the
// syntax is wrong.
func ParseRememberPair(s string) (RememberPair, error) {
	before, after, ok := strings.Cut(s, ":")
	if !ok || before == "" || after == "" {
		return RememberPair{}, &RememberError{Reason: "expected BEFORE:AFTER, got " + s}
	}
	return RememberPair{Before: CommitId(before), After: CommitId(after)}, nil
}

// Remember implements section 4.8: validate a --remember pair and, if it
// passes every check, seed the cache with it (and tag Before with TagRedo
// so the processor re-derives and cross-checks it) before any traversal
// begins.
func Remember(ctx context.Context, svc Service, cache *Cache, attrs *Attributes, dir string, pair RememberPair) error {
	beforeTree, err := subdirTree(ctx, svc, pair.Before, dir)
	if err != nil {
		return err
	}
	afterTree, err := svc.RootTree(ctx, pair.After)
	if err != nil {
		return err
	}
	if beforeTree != afterTree {
		return &RememberError{Before: pair.Before, After: pair.After,
			Reason: "subdirectory tree of BEFORE does not equal root tree of AFTER"}
	}

	beforeMsg, err := svc.Message(ctx, pair.Before)
	if err != nil {
		return err
	}
	afterMsg, err := svc.Message(ctx, pair.After)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(strings.TrimRight(afterMsg, "\n"), strings.TrimRight(beforeMsg, "\n")) {
		return &RememberError{Before: pair.Before, After: pair.After,
			Reason: "AFTER's message does not have BEFORE's message as a suffix"}
	}

	beforeMeta, err := svc.Metadata(ctx, pair.Before)
	if err != nil {
		return err
	}
	afterMeta, err := svc.Metadata(ctx, pair.After)
	if err != nil {
		return err
	}
	if beforeMeta != afterMeta {
		return &RememberError{Before: pair.Before, After: pair.After,
			Reason: "author/committer identity of BEFORE and AFTER do not match exactly"}
	}

	attrs.Add(pair.Before, TagRedo)
	return cache.Set(pair.Before, CommitValue(pair.After), attrs)
}
