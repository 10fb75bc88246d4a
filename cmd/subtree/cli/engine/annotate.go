package engine

import (
	"context"
	"strings"

	"github.com/subtreecli/subtree/cmd/subtree/cli/trailers"
)

// ParseAnnotation extracts a Record from a commit message, per section 4.1.
// The second return value is false when no git-subtree-dir trailer is
// present at all; a record with a dir but no split trailer is well-formed
// but carries no actionable mapping.
func ParseAnnotation(message string) (Record, bool) {
	dir, hasDir := trailers.Parse(message, trailers.DirKey)
	if !hasDir {
		return Record{}, false
	}
	rec := Record{Dir: normalizeDir(dir)}
	if mainline, ok := trailers.Parse(message, trailers.MainlineKey); ok {
		rec.Mainline = CommitId(mainline)
	}
	if split, ok := trailers.Parse(message, trailers.SplitKey); ok {
		rec.Split = CommitId(split)
	}
	return rec, true
}

// normalizeDir strips trailing slashes from a subdirectory trailer value.
func normalizeDir(dir string) string {
	return strings.TrimRight(dir, "/")
}

// wellFormedSplit reports whether rec.Split resolves to a real commit. A
// record whose split trailer does not resolve is malformed and must be
// ignored by the pre-load pass and the classifier alike.
func wellFormedSplit(ctx context.Context, svc Service, rec Record) bool {
	if !rec.HasSplit() {
		return false
	}
	exists, err := svc.Exists(ctx, string(rec.Split))
	return err == nil && exists
}

// PreLoad implements the section 4.1 pre-load pass: scan every commit
// reachable from tip, and for each well-formed git-subtree-dir trailer
// matching dir, seed the cache with the squash/add/rejoin mapping it
// implies. Cross-subtree merge markers (dir trailer for some other
// subdirectory, or a {dir,mainline,split} record whose trees disagree in
// every direction) are informational only and record nothing.
func PreLoad(ctx context.Context, svc Service, cache *Cache, attrs *Attributes, dir string, tip CommitId) error {
	commits, err := reachable(ctx, svc, tip)
	if err != nil {
		return err
	}

	for _, c := range commits {
		msg, err := svc.Message(ctx, c)
		if err != nil {
			return err
		}
		rec, ok := ParseAnnotation(msg)
		if !ok || rec.Dir != dir || !wellFormedSplit(ctx, svc, rec) {
			continue
		}

		if !rec.HasMainline() {
			// {dir, split} alone: a squash commit collapsing subtree history.
			if err := cache.Set(c, CommitValue(rec.Split), attrs); err != nil {
				return err
			}
			if err := cache.Set(rec.Split, CommitValue(rec.Split), attrs); err != nil {
				return err
			}
			continue
		}

		// {dir, mainline, split}: add, rejoin, or cross-subtree merge.
		mainlineTree, err := subdirTree(ctx, svc, rec.Mainline, dir)
		if err != nil {
			return err
		}
		splitTree, err := svc.RootTree(ctx, rec.Split)
		if err != nil {
			return err
		}
		switch {
		case mainlineTree == "":
			if err := cache.Set(rec.Mainline, Notree, attrs); err != nil {
				return err
			}
		case mainlineTree == splitTree:
			if err := cache.Set(rec.Mainline, CommitValue(rec.Split), attrs); err != nil {
				return err
			}
		default:
			// Cross-subtree merge: informational only.
		}
		if err := cache.Set(rec.Split, CommitValue(rec.Split), attrs); err != nil {
			return err
		}
	}
	return nil
}

// reachable returns every commit reachable from tip via raw parent edges
// (not the parent selector's filtered edges — annotation markers can live
// on any branch of history, including ones the selector would prune).
func reachable(ctx context.Context, svc Service, tip CommitId) ([]CommitId, error) {
	visited := make(map[CommitId]bool)
	var order []CommitId
	stack := []CommitId{tip}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		parents, err := svc.Parents(ctx, id)
		if err != nil {
			return nil, err
		}
		stack = append(stack, parents...)
	}
	return order, nil
}

// subdirTree returns the subdirectory tree of c at dir, or "" if absent.
// A non-tree entry (submodule, etc.) is treated as absent.
func subdirTree(ctx context.Context, svc Service, c CommitId, dir string) (TreeId, error) {
	entry, err := svc.Entry(ctx, c, dir)
	if err != nil {
		return "", err
	}
	if entry.Kind != EntryTree {
		return "", nil
	}
	return entry.Tree, nil
}
