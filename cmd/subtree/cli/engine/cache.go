package engine

import "context"

// CacheValue is a mapping target for a mainline CommitId: either the
// rewritten subtree commit it corresponds to, or one of the two sentinels.
// It is a sealed interface (not a string) so a real commit id that happens
// to collide with a sentinel's string form is impossible by construction.
type CacheValue interface {
	isCacheValue()
}

type commitValue CommitId

func (commitValue) isCacheValue() {}

type notreeValue struct{}

func (notreeValue) isCacheValue() {}

type countedValue struct{}

func (countedValue) isCacheValue() {}

// Notree marks a mainline commit that does not (yet) contain the
// subdirectory.
var Notree CacheValue = notreeValue{}

// Counted marks a commit visited by the counter but not yet processed.
var Counted CacheValue = countedValue{}

// CommitValue wraps a CommitId as a cache mapping target.
func CommitValue(id CommitId) CacheValue { return commitValue(id) }

// AsCommit reports whether v is a real commit mapping and, if so, returns it.
func AsCommit(v CacheValue) (CommitId, bool) {
	c, ok := v.(commitValue)
	return CommitId(c), ok
}

// IsNotree reports whether v is the notree sentinel.
func IsNotree(v CacheValue) bool { _, ok := v.(notreeValue); return ok }

// IsCounted reports whether v is the counted sentinel.
func IsCounted(v CacheValue) bool { _, ok := v.(countedValue); return ok }

func cacheValueEqual(a, b CacheValue) bool {
	ca, aIsCommit := AsCommit(a)
	cb, bIsCommit := AsCommit(b)
	if aIsCommit != bIsCommit {
		return false
	}
	if aIsCommit {
		return ca == cb
	}
	return IsNotree(a) == IsNotree(b) && IsCounted(a) == IsCounted(b)
}

// Cache is the run-scoped mapping from mainline CommitId to CacheValue
// described in section 3. It is single-threaded: the engine never calls it
// concurrently, so no internal locking is needed.
type Cache struct {
	entries map[CommitId]CacheValue
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[CommitId]CacheValue)}
}

// Get returns the mapping for id, if any.
func (c *Cache) Get(id CommitId) (CacheValue, bool) {
	v, ok := c.entries[id]
	return v, ok
}

// Set records v as id's mapping, enforcing the invariants in section 3:
// a real mapping never silently changes, except that Counted may always be
// overwritten, and a redo-tagged commit may be overwritten exactly once if
// the new mapping's commit is itself already identity-mapped in the cache.
func (c *Cache) Set(id CommitId, v CacheValue, attrs *Attributes) error {
	existing, ok := c.entries[id]
	if !ok || IsCounted(existing) {
		c.entries[id] = v
		return nil
	}
	if cacheValueEqual(existing, v) {
		return nil
	}
	if attrs != nil && attrs.Has(id, TagRedo) {
		if newCommit, isCommit := AsCommit(v); isCommit {
			if selfMapped, ok := c.entries[newCommit]; ok {
				if cm, isCommit2 := AsCommit(selfMapped); isCommit2 && cm == newCommit {
					c.entries[id] = v
					return nil
				}
			}
		}
		return &ConsistencyError{
			Commit:    id,
			Prior:     existing,
			New:       v,
			RedoStack: attrs.RedoStack(),
		}
	}
	return &InternalError{Msg: "cache conflict for " + string(id)}
}

// SubtreeCommits returns every cache key mapped to a real commit (i.e.
// neither notree nor counted) — the candidate set for the ancestor test in
// section 4.5.
func (c *Cache) SubtreeCommits() []CommitId {
	var out []CommitId
	for id, v := range c.entries {
		if _, ok := AsCommit(v); ok {
			out = append(out, id)
		}
	}
	return out
}

// DenormalizeAncestors applies the ancestor-closure batch described in
// section 3: for every identity-mapped commit already in the cache (a
// known subtree commit), mark every one of its ancestors as identity-mapped
// too, unless they already carry a mapping. Run once, before the counter
// and processor start, over a cache seeded by PreLoad or --remember.
func DenormalizeAncestors(ctx context.Context, svc Service, cache *Cache, attrs *Attributes) error {
	var seeds []CommitId
	for id, v := range cache.entries {
		if cm, ok := AsCommit(v); ok && cm == id {
			seeds = append(seeds, id)
		}
	}

	visited := make(map[CommitId]bool)
	stack := append([]CommitId{}, seeds...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		parents, err := svc.Parents(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if _, ok := cache.Get(p); ok {
				continue
			}
			if err := cache.Set(p, CommitValue(p), attrs); err != nil {
				return err
			}
			stack = append(stack, p)
		}
	}
	return nil
}
