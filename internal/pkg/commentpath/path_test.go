package commentpath

import (
	"slices"
	"testing"
)

func TestRootAndChild(t *testing.T) {
	root := Root(12)
	if root != "12" {
		t.Fatalf("root path = %q", root)
	}
	child := Child(root, 40)
	if child != "12/40" {
		t.Fatalf("child path = %q", child)
	}
	if Depth(root) != 0 || Depth(child) != 1 || Depth(Child(child, 41)) != 2 {
		t.Fatalf("unexpected depth")
	}
	if !IsAncestor(root, child) || IsAncestor(child, root) || IsAncestor("1", "12/40") {
		t.Fatalf("unexpected ancestor relation")
	}
}

func TestSegments(t *testing.T) {
	segs, ok := Segments("3/17/250")
	if !ok || !slices.Equal(segs, []uint64{3, 17, 250}) {
		t.Fatalf("segments = %v ok=%v", segs, ok)
	}
	if _, ok := Segments(""); ok {
		t.Fatalf("empty path should not parse")
	}
	if _, ok := Segments("3//4"); ok {
		t.Fatalf("empty segment should not parse")
	}
	if _, ok := Segments("a/1"); ok {
		t.Fatalf("non numeric segment should not parse")
	}
}

// 数值比较而不是字典序："9" 在 "10" 之前
func TestCompareNumeric(t *testing.T) {
	if Compare("9", "10") >= 0 {
		t.Fatalf("9 should sort before 10")
	}
	if Compare("10", "10/11") >= 0 {
		t.Fatalf("parent should sort before child")
	}
	if Compare("10/99", "11") >= 0 {
		t.Fatalf("subtree should sort before next root")
	}
	if Compare("2/5", "2/5") != 0 {
		t.Fatalf("equal paths should compare equal")
	}
}

func TestSortByPathPreOrder(t *testing.T) {
	type node struct {
		id   int
		path string
	}
	items := []node{
		{1, "1"}, {2, "2"}, {3, "1/3"}, {9, "9"}, {10, "10"}, {11, "2/11"}, {12, "1/12"}, {13, "9/13"},
	}
	SortByPath(items, func(n node) string { return n.path })

	got := make([]int, 0, len(items))
	for _, n := range items {
		got = append(got, n.id)
	}
	want := []int{1, 3, 12, 2, 11, 9, 13, 10}
	if !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestSortByPathStable(t *testing.T) {
	type node struct {
		id   int
		path string
	}
	items := []node{{1, "5"}, {2, "5"}, {3, "4"}}
	SortByPath(items, func(n node) string { return n.path })
	if items[0].id != 3 || items[1].id != 1 || items[2].id != 2 {
		t.Fatalf("unstable order: %v", items)
	}
}
