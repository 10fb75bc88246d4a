package engine

import (
	"context"
	"testing"
)

func TestSelectParentsPassesThroughNonMergeCommits(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("p1", nil, "tree-p1", map[string]TreeId{"lib": "tree-lib1"}, "first", Metadata{})
	svc.addCommit("c1", []CommitId{"p1"}, "tree-c1", map[string]TreeId{"lib": "tree-lib1"}, "second", Metadata{})

	cache := NewCache()
	attrs := NewAttributes()
	parents, rejoin, err := SelectParents(ctx, svc, cache, attrs, "lib", "c1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejoin != nil {
		t.Fatalf("unexpected rejoin: %+v", rejoin)
	}
	if len(parents) != 1 || parents[0] != "p1" {
		t.Fatalf("got %v, want [p1]", parents)
	}
}

func TestSelectParentsDetectsRejoin(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()

	// Mainline parent: has the subtree present, tree "tree-lib-old".
	svc.addCommit("mainline", nil, "tree-main", map[string]TreeId{"lib": "tree-lib-old"}, "mainline tip", Metadata{})
	// Subtree parent: split commit whose root tree is the new subtree content.
	svc.addCommit("split1", nil, "tree-lib-new", nil, "split commit", Metadata{})
	// Merge commit: subdirectory now matches the subtree parent's root tree (a rejoin).
	svc.addCommit("merge", []CommitId{"mainline", "split1"}, "tree-merge",
		map[string]TreeId{"lib": "tree-lib-new"}, "Merge subtree update", Metadata{})

	cache := NewCache()
	attrs := NewAttributes()
	// Pre-identity-map split1 so it classifies as ClassSplit.
	if err := cache.Set("split1", CommitValue("split1"), attrs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parents, rejoin, err := SelectParents(ctx, svc, cache, attrs, "lib", "merge", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejoin == nil {
		t.Fatal("expected a rejoin to be detected")
	}
	if rejoin.Value != "split1" {
		t.Fatalf("got rejoin value %v, want split1", rejoin.Value)
	}
	if parents != nil {
		t.Fatalf("expected nil parents alongside a rejoin, got %v", parents)
	}
}

func TestSelectParentsDetectsCrossSubtreeMerge(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()

	svc.addCommit("mainline", nil, "tree-main", map[string]TreeId{"lib": "tree-lib-a"}, "mainline tip", Metadata{})
	// otherSubtree has no "lib" entry at all — unrelated history.
	svc.addCommit("otherSubtree", nil, "tree-other", nil, "unrelated history", Metadata{})
	// Merge commit's "lib" subdir matches mainline's, root tree differs from mainline parent's root tree.
	svc.addCommit("merge", []CommitId{"mainline", "otherSubtree"}, "tree-merge-different",
		map[string]TreeId{"lib": "tree-lib-a"}, "Merge unrelated work", Metadata{})

	cache := NewCache()
	attrs := NewAttributes()
	parents, rejoin, err := SelectParents(ctx, svc, cache, attrs, "lib", "merge", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejoin != nil {
		t.Fatalf("unexpected rejoin: %+v", rejoin)
	}
	if len(parents) != 1 || parents[0] != "mainline" {
		t.Fatalf("got %v, want [mainline] (cross-subtree merge collapses to the mainline parent)", parents)
	}
}
