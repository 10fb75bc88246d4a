package engine

import (
	"context"
	"errors"
	"fmt"
)

// fakeCommit is one node in a fakeService's in-memory commit graph.
type fakeCommit struct {
	parents []CommitId
	tree    TreeId
	message string
	meta    Metadata
	dirs    map[string]TreeId // subpath -> tree id, only for paths that exist as a tree
}

// fakeService is a minimal in-memory Service used to exercise the engine
// without a real git repository, per the teacher's testutil pattern of
// small hand-built fixtures rather than a heavyweight mock framework.
type fakeService struct {
	commits map[CommitId]*fakeCommit
	seq     int
}

func newFakeService() *fakeService {
	return &fakeService{commits: make(map[CommitId]*fakeCommit)}
}

// addCommit registers a commit under id with the given parents, root tree,
// per-path subtree entries, message, and metadata.
func (f *fakeService) addCommit(id CommitId, parents []CommitId, tree TreeId, dirs map[string]TreeId, message string, meta Metadata) {
	f.commits[id] = &fakeCommit{parents: parents, tree: tree, dirs: dirs, message: message, meta: meta}
}

func (f *fakeService) Parents(_ context.Context, c CommitId) ([]CommitId, error) {
	fc, ok := f.commits[c]
	if !ok {
		return nil, fmt.Errorf("fake: unknown commit %s", c)
	}
	return fc.parents, nil
}

func (f *fakeService) RootTree(_ context.Context, c CommitId) (TreeId, error) {
	fc, ok := f.commits[c]
	if !ok {
		return "", fmt.Errorf("fake: unknown commit %s", c)
	}
	return fc.tree, nil
}

func (f *fakeService) Entry(_ context.Context, c CommitId, path string) (Entry, error) {
	fc, ok := f.commits[c]
	if !ok {
		return Entry{}, fmt.Errorf("fake: unknown commit %s", c)
	}
	tree, ok := fc.dirs[path]
	if !ok {
		return Entry{Kind: EntryNone}, nil
	}
	return Entry{Kind: EntryTree, Tree: tree}, nil
}

func (f *fakeService) Resolve(_ context.Context, ref string) (CommitId, error) {
	id := CommitId(ref)
	if _, ok := f.commits[id]; !ok {
		return "", fmt.Errorf("fake: unresolvable ref %s", ref)
	}
	return id, nil
}

func (f *fakeService) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := f.commits[CommitId(ref)]
	return ok, nil
}

func (f *fakeService) Message(_ context.Context, c CommitId) (string, error) {
	fc, ok := f.commits[c]
	if !ok {
		return "", fmt.Errorf("fake: unknown commit %s", c)
	}
	return fc.message, nil
}

func (f *fakeService) Metadata(_ context.Context, c CommitId) (Metadata, error) {
	fc, ok := f.commits[c]
	if !ok {
		return Metadata{}, fmt.Errorf("fake: unknown commit %s", c)
	}
	return fc.meta, nil
}

func (f *fakeService) ShortHash(_ context.Context, c CommitId) (string, error) {
	if len(c) > 7 {
		return string(c[:7]), nil
	}
	return string(c), nil
}

func (f *fakeService) ancestors(c CommitId) map[CommitId]bool {
	visited := map[CommitId]bool{}
	stack := []CommitId{c}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		fc, ok := f.commits[id]
		if !ok {
			continue
		}
		stack = append(stack, fc.parents...)
	}
	return visited
}

func (f *fakeService) IsAncestor(_ context.Context, ancestor, descendant CommitId) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	return f.ancestors(descendant)[ancestor], nil
}

func (f *fakeService) SelectIndependentTips(_ context.Context, ids []CommitId) ([]CommitId, error) {
	var out []CommitId
	for i, id := range ids {
		isAncestorOfAnother := false
		for j, other := range ids {
			if i == j {
				continue
			}
			if f.ancestors(other)[id] && id != other {
				isAncestorOfAnother = true
				break
			}
		}
		if !isAncestorOfAnother {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeService) CountBetween(_ context.Context, exclude, include CommitId) (int, error) {
	inc := f.ancestors(include)
	exc := f.ancestors(exclude)
	count := 0
	for id := range inc {
		if !exc[id] {
			count++
		}
	}
	return count, nil
}

func (f *fakeService) CreateCommit(_ context.Context, tree TreeId, parents []CommitId, meta Metadata, message string) (CommitId, error) {
	f.seq++
	id := CommitId(fmt.Sprintf("synth%d", f.seq))
	f.commits[id] = &fakeCommit{parents: parents, tree: tree, message: message, meta: meta}
	return id, nil
}

func (f *fakeService) UpdateRef(_ context.Context, _ string, _ CommitId) error { return nil }

func (f *fakeService) Merge(_ context.Context, _ CommitId, _ string) error { return nil }

func (f *fakeService) Fetch(_ context.Context, _, _ string) error { return nil }

func (f *fakeService) Push(_ context.Context, _, _ string) error { return nil }

func (f *fakeService) ReadTreeIntoPrefix(_ context.Context, _ CommitId, _ string) error { return nil }

func (f *fakeService) WriteTree(_ context.Context) (TreeId, error) {
	return "", errors.New("fake: WriteTree not used by engine-level tests")
}
