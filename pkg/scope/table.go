package scope

import (
	"sort"
	"strconv"
)

// Table is one node in a tree of lexical scopes. It holds an ordered sequence
// of variables with unique names, resolves names against itself and then its
// ancestors, and memoizes resolution results per table.
//
// Tables are not safe for concurrent use: cache invalidation fans out across
// descendant tables, so sharing a tree across goroutines requires external
// synchronization around every table in it.
type Table[T any] struct {
	depth     int
	variables []*Variable[T]
	parent    *Table[T]
	root      *Table[T]
	children  map[*Table[T]]struct{}

	// cache maps a name to its resolution result. A missing key means the
	// name has not been resolved yet; a nil entry records confirmed absence.
	cache map[string]*Variable[T]
}

// New creates a root table, optionally seeded from initial. Seeding happens in
// sorted key order so construction is deterministic.
func New[T any](initial map[string]T) *Table[T] {
	t := newTable[T](nil, 0)
	t.seed(initial)
	return t
}

func newTable[T any](parent *Table[T], depth int) *Table[T] {
	return &Table[T]{
		depth:    depth,
		parent:   parent,
		children: make(map[*Table[T]]struct{}),
		cache:    make(map[string]*Variable[T]),
	}
}

func (t *Table[T]) seed(initial map[string]T) {
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.add(name, initial[name], false)
	}
}

// Depth returns the nesting depth: 0 at the root, parent depth plus one below.
func (t *Table[T]) Depth() int {
	return t.depth
}

// Parent returns the enclosing table, or nil at the root.
func (t *Table[T]) Parent() *Table[T] {
	return t.parent
}

// Root returns the ancestor with no parent. The result is computed lazily by
// walking parent links and cached on first access.
func (t *Table[T]) Root() *Table[T] {
	if t.root != nil {
		return t.root
	}
	r := t
	for r.parent != nil {
		r = r.parent
	}
	t.root = r
	return r
}

// Locals returns a copy of this table's own variables in insertion order,
// without consulting ancestors.
func (t *Table[T]) Locals() []*Variable[T] {
	return append([]*Variable[T](nil), t.variables...)
}

func (t *Table[T]) lookupLocal(name string) *Variable[T] {
	for _, v := range t.variables {
		if v.name == name {
			return v
		}
	}
	return nil
}

// invalidate drops any cached resolution of name in this table and in every
// table below it. An ancestor mutation can change what a descendant resolves
// to, so invalidation always propagates down rather than being recomputed
// lazily at resolve time.
func (t *Table[T]) invalidate(name string) {
	delete(t.cache, name)
	for child := range t.children {
		child.invalidate(name)
	}
}

// Add binds name to value in this table. Only the local sequence is checked
// for duplicates; shadowing an ancestor binding is allowed.
func (t *Table[T]) Add(name string, value T) (*Variable[T], error) {
	return t.add(name, value, false)
}

// AddConstant binds name to value and locks the variable immediately.
func (t *Table[T]) AddConstant(name string, value T) (*Variable[T], error) {
	return t.add(name, value, true)
}

func (t *Table[T]) add(name string, value T, constant bool) (*Variable[T], error) {
	if t.lookupLocal(name) != nil {
		return nil, &DuplicateSymbolError{Name: name}
	}
	t.invalidate(name)
	v := &Variable[T]{
		name:   name,
		value:  value,
		locked: constant,
		owner:  t,
	}
	t.variables = append(t.variables, v)
	return v, nil
}

// Put assigns value to the variable name resolves to, searching ancestors as
// usual. If the name is unbound anywhere in the chain a new local variable is
// created instead; Put never creates a constant.
func (t *Table[T]) Put(name string, value T) (*Variable[T], error) {
	if v, ok := t.Resolve(name); ok {
		if err := v.SetValue(value); err != nil {
			return nil, err
		}
		return v, nil
	}
	return t.Add(name, value)
}

// Remove unbinds name from the first table in the ancestor chain that holds
// it, returning the removed variable. The second result is false when no
// table in the chain binds the name.
func (t *Table[T]) Remove(name string) (*Variable[T], bool) {
	for owner := t; owner != nil; owner = owner.parent {
		for i, v := range owner.variables {
			if v.name == name {
				owner.variables = append(owner.variables[:i], owner.variables[i+1:]...)
				owner.invalidate(name)
				return v, true
			}
		}
	}
	return nil, false
}

// Resolve looks name up in this table and then in each ancestor, returning
// the first binding found. Results, including confirmed absence, are memoized
// per table so repeated resolutions are O(1) after the first.
func (t *Table[T]) Resolve(name string) (*Variable[T], bool) {
	if v, cached := t.cache[name]; cached {
		return v, v != nil
	}
	var resolved *Variable[T]
	if local := t.lookupLocal(name); local != nil {
		resolved = local
	} else if t.parent != nil {
		if v, ok := t.parent.Resolve(name); ok {
			resolved = v
		}
	}
	t.cache[name] = resolved
	return resolved, resolved != nil
}

// ResolveOrCreate returns the existing binding for name, or binds name to
// value in this table when resolution misses.
func (t *Table[T]) ResolveOrCreate(name string, value T) *Variable[T] {
	return t.resolveOrCreate(name, value, false)
}

// ResolveOrCreateConstant is ResolveOrCreate with the created binding locked.
// An existing binding is returned as is, whether locked or not.
func (t *Table[T]) ResolveOrCreateConstant(name string, value T) *Variable[T] {
	return t.resolveOrCreate(name, value, true)
}

func (t *Table[T]) resolveOrCreate(name string, value T, constant bool) *Variable[T] {
	if v, ok := t.Resolve(name); ok {
		return v
	}
	// A resolution miss implies the name is not bound locally, so add cannot
	// report a duplicate.
	v, _ := t.add(name, value, constant)
	return v
}

// Get returns the value name resolves to. It is the read half of indexed
// access over the table.
func (t *Table[T]) Get(name string) (T, bool) {
	if v, ok := t.Resolve(name); ok {
		return v.value, true
	}
	var zero T
	return zero, false
}

// Set assigns through Put; it is the write half of indexed access.
func (t *Table[T]) Set(name string, value T) error {
	_, err := t.Put(name, value)
	return err
}

// NewChild creates a nested table one level below this one, optionally seeded
// from initial, and registers it for cache invalidation.
func (t *Table[T]) NewChild(initial map[string]T) *Table[T] {
	c := newTable[T](t, t.depth+1)
	t.children[c] = struct{}{}
	c.seed(initial)
	return c
}

// Clone creates a sibling table at the same depth holding the same variable
// instances in a new sequence. Mutating a shared variable is visible through
// both tables. The clone is registered with the parent so ancestor mutations
// still invalidate its cache.
func (t *Table[T]) Clone() *Table[T] {
	c := newTable[T](t.parent, t.depth)
	c.root = t.Root()
	c.variables = append([]*Variable[T](nil), t.variables...)
	if t.parent != nil {
		t.parent.children[c] = struct{}{}
	}
	return c
}

// Fork creates an orphaned snapshot at the same depth. Every variable is
// copied, preserving value, visibility, and lock state, so later mutation of
// this table is invisible through the fork. The fork keeps its parent and
// root references for reporting but is not registered in the parent's
// children set.
func (t *Table[T]) Fork() *Table[T] {
	f := newTable[T](t.parent, t.depth)
	f.root = t.Root()
	f.variables = make([]*Variable[T], len(t.variables))
	for i, src := range t.variables {
		f.variables[i] = &Variable[T]{
			name:       src.name,
			value:      src.value,
			visibility: src.visibility,
			locked:     src.locked,
			owner:      f,
		}
	}
	return f
}

// AllVariables collects every binding visible from this table, walking up the
// ancestor chain. The first occurrence of a name wins, so shadowed ancestor
// bindings are omitted. The returned slice is a fresh snapshot.
func (t *Table[T]) AllVariables() []*Variable[T] {
	var out []*Variable[T]
	seen := make(map[string]struct{})
	for cur := t; cur != nil; cur = cur.parent {
		for _, v := range cur.variables {
			if _, ok := seen[v.name]; ok {
				continue
			}
			seen[v.name] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// AllVariablesOfVisibility is AllVariables filtered to one visibility class.
// Shadowing applies before filtering: a binding hidden by a descendant never
// appears, whatever its visibility.
func (t *Table[T]) AllVariablesOfVisibility(vis Visibility) []*Variable[T] {
	var out []*Variable[T]
	for _, v := range t.AllVariables() {
		if v.visibility == vis {
			out = append(out, v)
		}
	}
	return out
}

// AllPublicVariables returns the visible public bindings.
func (t *Table[T]) AllPublicVariables() []*Variable[T] {
	return t.AllVariablesOfVisibility(VisibilityPublic)
}

// UniqueName returns base suffixed with the smallest non-negative integer
// that is not bound as a local name. Only this table is consulted, matching
// Add's duplicate check; ancestors may bind the result, in which case the new
// name shadows them.
func (t *Table[T]) UniqueName(base string) string {
	for i := 0; ; i++ {
		candidate := base + strconv.Itoa(i)
		if t.lookupLocal(candidate) == nil {
			return candidate
		}
	}
}
