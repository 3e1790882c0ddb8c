package treegen

import "github.com/nodeforge/treegen/errs"

// normalizeIndex resolves i against a sequence of length n, where negative
// indices count from the end (-1 == last element), per §4.3.
func normalizeIndex(i, n int) (int, error) {
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return 0, errs.NewSchemaError("", 0, "index %d out of range for length %d", i, n)
	}
	return i, nil
}

// normalizeInsertIndex is like normalizeIndex but also accepts i == n,
// meaning "insert at the end". A negative i counts from the end: -1 maps
// to n (the end) and -(n+1) maps to 0 (the front).
func normalizeInsertIndex(i, n int) (int, error) {
	if i < 0 {
		i = n + 1 + i
	}
	if i < 0 || i > n {
		return 0, errs.NewSchemaError("", 0, "insert index %d out of range for length %d", i, n)
	}
	return i, nil
}

// Exactly holds exactly one owned child of type T. It is empty before
// construction; a zero Exactly is not well-formed until Set is called.
type Exactly[T Node] struct {
	value T
	has   bool
}

// NewExactly constructs a populated Exactly.
func NewExactly[T Node](v T) Exactly[T] { return Exactly[T]{value: v, has: true} }

// Get returns the held value and whether it is present.
func (e Exactly[T]) Get() (T, bool) { return e.value, e.has }

// MustGet returns the held value, or T's zero value if absent.
func (e Exactly[T]) MustGet() T { return e.value }

// Set replaces the held value.
func (e *Exactly[T]) Set(v T) { e.value, e.has = v, true }

// FindReachable adds the held child (if any) to pm and recurses into it.
func (e Exactly[T]) FindReachable(pm *PointerMap) error {
	if !e.has {
		return nil
	}
	if _, err := pm.Add(e.value); err != nil {
		return err
	}
	return e.value.FindReachable(pm)
}

// CheckComplete fails if the edge is empty; otherwise recurses.
func (e Exactly[T]) CheckComplete(pm *PointerMap) error {
	if !e.has {
		return errs.NewNotWellFormed("missing required edge", "Exactly edge has no value")
	}
	return e.value.CheckComplete(pm)
}

// Clone deep-copies the held child, if any.
func (e Exactly[T]) Clone() Exactly[T] {
	if !e.has {
		return Exactly[T]{}
	}
	return Exactly[T]{value: e.value.CloneNode().(T), has: true}
}

// Equals compares structurally (delegates to the child's EqualsNode).
func (e Exactly[T]) Equals(o Exactly[T]) bool {
	if e.has != o.has {
		return false
	}
	if !e.has {
		return true
	}
	return e.value.EqualsNode(o.value)
}

// Maybe holds zero or one owned child of type T. It is always well-formed
// at this edge (§4.3).
type Maybe[T Node] struct {
	value T
	has   bool
}

// NewMaybe constructs a populated Maybe.
func NewMaybe[T Node](v T) Maybe[T] { return Maybe[T]{value: v, has: true} }

// Get returns the held value and whether it is present.
func (m Maybe[T]) Get() (T, bool) { return m.value, m.has }

// Set populates the edge.
func (m *Maybe[T]) Set(v T) { m.value, m.has = v, true }

// Clear empties the edge.
func (m *Maybe[T]) Clear() { var zero T; m.value, m.has = zero, false }

// FindReachable adds the held child (if any) to pm and recurses into it.
func (m Maybe[T]) FindReachable(pm *PointerMap) error {
	if !m.has {
		return nil
	}
	if _, err := pm.Add(m.value); err != nil {
		return err
	}
	return m.value.FindReachable(pm)
}

// CheckComplete always succeeds at this edge, but still recurses into the
// held child when present.
func (m Maybe[T]) CheckComplete(pm *PointerMap) error {
	if !m.has {
		return nil
	}
	return m.value.CheckComplete(pm)
}

// Clone deep-copies the held child, if any.
func (m Maybe[T]) Clone() Maybe[T] {
	if !m.has {
		return Maybe[T]{}
	}
	return Maybe[T]{value: m.value.CloneNode().(T), has: true}
}

// Equals compares structurally.
func (m Maybe[T]) Equals(o Maybe[T]) bool {
	if m.has != o.has {
		return false
	}
	if !m.has {
		return true
	}
	return m.value.EqualsNode(o.value)
}

// List holds an ordered sequence of owned children of type T. It is always
// well-formed at this edge (§4.3); NonEmptyList additionally requires
// non-emptiness.
type List[T Node] struct {
	items []T
}

// NewList constructs a List from the given items, in order.
func NewList[T Node](items ...T) List[T] {
	return List[T]{items: append([]T(nil), items...)}
}

// Len returns the number of items.
func (l List[T]) Len() int { return len(l.items) }

// At returns the item at index i (negative counts from the end).
func (l List[T]) At(i int) (T, error) {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		var zero T
		return zero, err
	}
	return l.items[idx], nil
}

// SetAt replaces the item at index i.
func (l *List[T]) SetAt(i int, v T) error {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items[idx] = v
	return nil
}

// Insert inserts v before index i (i == Len() appends; negative indices
// count from the end).
func (l *List[T]) Insert(i int, v T) error {
	idx, err := normalizeInsertIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items = append(l.items, v)
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = v
	return nil
}

// Remove deletes the item at index i.
func (l *List[T]) Remove(i int) error {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

// Push appends v and returns l, so calls can be chained
// (l.Push(a).Push(b).Push(c)), matching §4.3's "emplace-chained" operation.
func (l *List[T]) Push(v T) *List[T] {
	l.items = append(l.items, v)
	return l
}

// Items returns the underlying slice for iteration. Callers must not
// retain it across a mutating call.
func (l List[T]) Items() []T { return l.items }

// FindReachable adds every item to pm and recurses into it, in order.
func (l List[T]) FindReachable(pm *PointerMap) error {
	for _, item := range l.items {
		if _, err := pm.Add(item); err != nil {
			return err
		}
		if err := item.FindReachable(pm); err != nil {
			return err
		}
	}
	return nil
}

// CheckComplete always succeeds at this edge, but recurses into every item.
func (l List[T]) CheckComplete(pm *PointerMap) error {
	for _, item := range l.items {
		if err := item.CheckComplete(pm); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies every item.
func (l List[T]) Clone() List[T] {
	out := make([]T, len(l.items))
	for i, item := range l.items {
		out[i] = item.CloneNode().(T)
	}
	return List[T]{items: out}
}

// Equals compares length and every item structurally, in order.
func (l List[T]) Equals(o List[T]) bool {
	if len(l.items) != len(o.items) {
		return false
	}
	for i := range l.items {
		if !l.items[i].EqualsNode(o.items[i]) {
			return false
		}
	}
	return true
}

// NonEmptyList is a List that additionally requires at least one item to
// be well-formed (§4.3).
type NonEmptyList[T Node] struct {
	List[T]
}

// NewNonEmptyList constructs a NonEmptyList from the given items.
func NewNonEmptyList[T Node](items ...T) NonEmptyList[T] {
	return NonEmptyList[T]{List: NewList(items...)}
}

// CheckComplete fails if the list is empty; otherwise delegates to List.
func (l NonEmptyList[T]) CheckComplete(pm *PointerMap) error {
	if l.Len() == 0 {
		return errs.NewNotWellFormed("empty list", "NonEmptyList edge has no items")
	}
	return l.List.CheckComplete(pm)
}

// Clone deep-copies every item.
func (l NonEmptyList[T]) Clone() NonEmptyList[T] {
	return NonEmptyList[T]{List: l.List.Clone()}
}

// Equals compares both lists' items structurally.
func (l NonEmptyList[T]) Equals(o NonEmptyList[T]) bool {
	return l.List.Equals(o.List)
}

// Link holds a required, non-owning reference to a node that must be
// reachable via owning edges from the tree root (§4.3).
type Link[T Node] struct {
	target T
	has    bool
}

// NewLink constructs a populated Link.
func NewLink[T Node](target T) Link[T] { return Link[T]{target: target, has: true} }

// Get returns the link target and whether it is set.
func (l Link[T]) Get() (T, bool) { return l.target, l.has }

// Set points the link at target.
func (l *Link[T]) Set(target T) { l.target, l.has = target, true }

// FindReachable does nothing: links are non-owning and never contribute
// nodes to the reachability set.
func (l Link[T]) FindReachable(pm *PointerMap) error { return nil }

// CheckComplete fails if the link is unset, or if its target is not in pm
// (i.e. not reachable from the root via owning edges).
func (l Link[T]) CheckComplete(pm *PointerMap) error {
	if !l.has {
		return errs.NewNotWellFormed("missing required edge", "Link edge has no target")
	}
	if _, ok := pm.Get(l.target); !ok {
		return errs.NewNotWellFormed("dangling link", "Link target is not reachable from the tree root")
	}
	return nil
}

// Clone shallow-copies the link: the clone still points at the original
// tree's node (§9 DESIGN NOTES, a documented deficiency callers must fix
// up if they need the clone's links to stay within the clone).
func (l Link[T]) Clone() Link[T] { return l }

// Equals compares by identity (pointer equality on T), not structurally.
func (l Link[T]) Equals(o Link[T]) bool {
	if l.has != o.has {
		return false
	}
	if !l.has {
		return true
	}
	var a, b Node = l.target, o.target
	return a == b
}

// OptLink is an optional Link: the same reachability requirement applies
// only when populated (§4.3).
type OptLink[T Node] struct {
	target T
	has    bool
}

// NewOptLink constructs a populated OptLink.
func NewOptLink[T Node](target T) OptLink[T] { return OptLink[T]{target: target, has: true} }

// Get returns the link target and whether it is set.
func (l OptLink[T]) Get() (T, bool) { return l.target, l.has }

// Set points the link at target.
func (l *OptLink[T]) Set(target T) { l.target, l.has = target, true }

// Clear empties the link.
func (l *OptLink[T]) Clear() { var zero T; l.target, l.has = zero, false }

// FindReachable does nothing: links are non-owning.
func (l OptLink[T]) FindReachable(pm *PointerMap) error { return nil }

// CheckComplete always succeeds when unset; when set, the target must be
// reachable.
func (l OptLink[T]) CheckComplete(pm *PointerMap) error {
	if !l.has {
		return nil
	}
	if _, ok := pm.Get(l.target); !ok {
		return errs.NewNotWellFormed("dangling link", "OptLink target is not reachable from the tree root")
	}
	return nil
}

// Clone shallow-copies the link, like Link.Clone.
func (l OptLink[T]) Clone() OptLink[T] { return l }

// Equals compares by identity.
func (l OptLink[T]) Equals(o OptLink[T]) bool {
	if l.has != o.has {
		return false
	}
	if !l.has {
		return true
	}
	var a, b Node = l.target, o.target
	return a == b
}
