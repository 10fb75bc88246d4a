package engine

import (
	"context"
	"testing"
)

func TestCopyOrSkipSkipsWhenSingleIdenticalParent(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("p1", nil, "same-tree", nil, "parent", Metadata{})
	svc.addCommit("c1", []CommitId{"p1"}, "same-tree", nil, "child, no-op touch", Metadata{})

	got, err := CopyOrSkip(ctx, svc, "c1", "same-tree", []CommitId{"p1"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "p1" {
		t.Fatalf("got %v, want to skip straight to p1", got)
	}
}

func TestCopyOrSkipCopiesWhenTreeChanges(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("p1", nil, "old-tree", nil, "parent", Metadata{})
	svc.addCommit("c1", []CommitId{"p1"}, "new-tree", nil, "child changes the subtree", Metadata{})

	got, err := CopyOrSkip(ctx, svc, "c1", "new-tree", []CommitId{"p1"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "p1" {
		t.Fatal("expected a freshly synthesized commit, not a skip")
	}
	if got != "synth1" {
		t.Fatalf("got %v, want synth1", got)
	}
}

func TestCopyOrSkipReducesIdenticalAncestorChain(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("grandparent", nil, "same-tree", nil, "gp", Metadata{})
	svc.addCommit("parent", []CommitId{"grandparent"}, "same-tree", nil, "p", Metadata{})
	svc.addCommit("c1", []CommitId{"grandparent", "parent"}, "same-tree", nil, "merge, no-op", Metadata{})

	got, err := CopyOrSkip(ctx, svc, "c1", "same-tree", []CommitId{"grandparent", "parent"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "parent" {
		t.Fatalf("got %v, want parent (the descendant of grandparent)", got)
	}
}

func TestCopyOrSkipForcesCopyForUnrelatedIdenticalParents(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("branchA", nil, "same-tree", nil, "a", Metadata{})
	svc.addCommit("branchB", nil, "same-tree", nil, "b", Metadata{})
	svc.addCommit("c1", []CommitId{"branchA", "branchB"}, "same-tree", nil, "merge of unrelated branches", Metadata{})

	got, err := CopyOrSkip(ctx, svc, "c1", "same-tree", []CommitId{"branchA", "branchB"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "synth1" {
		t.Fatalf("got %v, want a freshly synthesized commit (histories are independent)", got)
	}
}

func TestCopyOrSkipAnnotatesMessageWhenRequested(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.addCommit("p1", nil, "old-tree", nil, "parent", Metadata{})
	svc.addCommit("c1", []CommitId{"p1"}, "new-tree", nil, "child changes the subtree", Metadata{})

	got, err := CopyOrSkip(ctx, svc, "c1", "new-tree", []CommitId{"p1"}, "[split] ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc := svc.commits[got]
	if fc.message != "[split] child changes the subtree" {
		t.Fatalf("got message %q, want annotated prefix", fc.message)
	}
}
