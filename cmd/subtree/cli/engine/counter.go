package engine

import "context"

// Counter implements the section 4.4 pre-pass: a depth-first traversal
// from the tip that sizes the work and marks every reachable,
// not-yet-cached commit Counted. It never visits a commit more than once
// because the Counted sentinel (or any real mapping left by PreLoad,
// --remember, --onto, or --notree) short-circuits re-entry. Progress.Report,
// if set, is called once per newly counted commit.
type Counter struct {
	Service     Service
	Cache       *Cache
	Attrs       *Attributes
	Dir         string
	IgnoreJoins bool
	Report      func(total int)

	total int
}

// Total returns the number of commits counted so far.
func (ct *Counter) Total() int { return ct.total }

// Count walks every commit reachable from tip via the parent selector's
// edges, using an explicit stack rather than Go recursion so real-world
// histories with deep DAGs cannot overflow the call stack.
func (ct *Counter) Count(ctx context.Context, tip CommitId) error {
	stack := []CommitId{tip}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := ct.Cache.Get(id); ok {
			continue
		}
		if err := ct.Cache.Set(id, Counted, ct.Attrs); err != nil {
			return err
		}
		ct.total++
		if ct.Report != nil {
			ct.Report(ct.total)
		}

		parents, rejoin, err := SelectParents(ctx, ct.Service, ct.Cache, ct.Attrs, ct.Dir, id, ct.IgnoreJoins)
		if err != nil {
			return err
		}
		if rejoin != nil {
			continue
		}
		stack = append(stack, parents...)
	}
	return nil
}
