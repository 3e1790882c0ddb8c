package treegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExactlyRequiresAValue(t *testing.T) {
	var e Exactly[*fileNode]
	pm := NewPointerMap()
	require.NoError(t, e.FindReachable(pm))
	require.Error(t, e.CheckComplete(pm))

	e.Set(newFile("a", "1"))
	require.NoError(t, e.CheckComplete(pm))
}

func TestMaybeIsWellFormedEmptyOrPopulated(t *testing.T) {
	var m Maybe[*fileNode]
	pm := NewPointerMap()
	require.NoError(t, m.CheckComplete(pm))

	m.Set(newFile("a", "1"))
	require.NoError(t, m.FindReachable(pm))
	require.NoError(t, m.CheckComplete(pm))

	m.Clear()
	_, ok := m.Get()
	require.False(t, ok)
}

func TestListSupportsInsertRemoveAndNegativeIndices(t *testing.T) {
	var l List[*fileNode]
	l.Push(newFile("a", "")).Push(newFile("b", "")).Push(newFile("c", ""))
	require.Equal(t, 3, l.Len())

	last, err := l.At(-1)
	require.NoError(t, err)
	require.Equal(t, "c", last.Name)

	require.NoError(t, l.Insert(1, newFile("x", "")))
	require.Equal(t, []string{"a", "x", "b", "c"}, namesOf(l))

	require.NoError(t, l.Remove(0))
	require.Equal(t, []string{"x", "b", "c"}, namesOf(l))

	require.Error(t, l.Remove(10))
	_, err = l.At(-10)
	require.Error(t, err)
}

func namesOf(l List[*fileNode]) []string {
	out := make([]string, l.Len())
	for i, f := range l.Items() {
		out[i] = f.Name
	}
	return out
}

func TestNonEmptyListRequiresAtLeastOneItem(t *testing.T) {
	var l NonEmptyList[*fileNode]
	pm := NewPointerMap()
	require.Error(t, l.CheckComplete(pm))

	l.Push(newFile("a", ""))
	require.NoError(t, l.CheckComplete(pm))
}

func TestLinkRequiresReachableTarget(t *testing.T) {
	target := newFile("watched", "")
	var link Link[*fileNode]
	pm := NewPointerMap()
	require.Error(t, link.CheckComplete(pm), "unset link is incomplete")

	link.Set(target)
	require.Error(t, link.CheckComplete(pm), "link to a node never added via FindReachable is dangling")

	_, err := pm.Add(target)
	require.NoError(t, err)
	require.NoError(t, link.CheckComplete(pm))
}

func TestLinkFindReachableNeverAddsItsTarget(t *testing.T) {
	target := newFile("watched", "")
	var link Link[*fileNode]
	link.Set(target)
	pm := NewPointerMap()
	require.NoError(t, link.FindReachable(pm))
	require.Equal(t, 0, pm.Len(), "links are non-owning: FindReachable must not add the target")
}

func TestOptLinkIsWellFormedWhenUnset(t *testing.T) {
	var link OptLink[*fileNode]
	pm := NewPointerMap()
	require.NoError(t, link.CheckComplete(pm))

	target := newFile("watched", "")
	link.Set(target)
	require.Error(t, link.CheckComplete(pm), "set but unreachable")

	link.Clear()
	require.NoError(t, link.CheckComplete(pm))
}

func TestLinkEqualsByIdentityNotStructure(t *testing.T) {
	a, b := newFile("same", "same"), newFile("same", "same")
	var la, lb Link[*fileNode]
	la.Set(a)
	lb.Set(b)
	require.False(t, la.Equals(lb), "structurally identical targets are still distinct identities")

	lb.Set(a)
	require.True(t, la.Equals(lb))
}

func TestListCloneIsDeepAndIndependent(t *testing.T) {
	var l List[*fileNode]
	l.Push(newFile("a", "orig"))
	cloned := l.Clone()
	cloned.Items()[0].Contents = "changed"
	require.Equal(t, "orig", l.Items()[0].Contents)
	require.True(t, l.Equals(l.Clone()))
}
