package lodrecon

import (
	"math"
	"sort"
)

// RTree is a static-after-build rectangle index over (box, handle) pairs
// (spec.md §4.2). It is bulk-loaded with the sort-tile-recursive (STR)
// algorithm: handles are sorted into roughly sqrt(n)-sized vertical slices,
// each slice sorted and split into leaf-sized runs, giving expected
// O(log n + k) box queries with no per-query allocation beyond the result
// slice. No ordering guarantee is made on Query's returned handles, matching
// spec.md §4.2.
//
// No pack example ships a rectangle index with this query contract, so this
// is a from-scratch bulk-loaded STR tree rather than an adapted teacher
// file; see DESIGN.md for why no example repo's spatial code fit.
type RTree struct {
	root     *rtreeNode
	leafSize int
}

type rtreeEntry struct {
	box    AABB
	handle int
}

type rtreeNode struct {
	box      AABB
	entries  []rtreeEntry // leaf node: direct (box, handle) pairs
	children []*rtreeNode // internal node
}

// NewRTree bulk-loads an index from the given (box, handle) pairs. handle is
// an opaque caller-supplied integer (typically an index into a parallel
// slice of sources or footprints).
func NewRTree(boxes []AABB, handles []int) *RTree {
	entries := make([]rtreeEntry, len(boxes))
	for i := range boxes {
		entries[i] = rtreeEntry{box: boxes[i], handle: handles[i]}
	}
	const leafSize = 16
	t := &RTree{leafSize: leafSize}
	if len(entries) == 0 {
		t.root = &rtreeNode{box: EmptyAABB()}
		return t
	}
	t.root = strBuild(entries, leafSize)
	return t
}

// strBuild implements the sort-tile-recursive bulk-load: sort by X centroid,
// slice into ceil(sqrt(leafCount)) vertical strips, then sort each strip by Y
// centroid and cut into leaves.
func strBuild(entries []rtreeEntry, leafSize int) *rtreeNode {
	leafCount := int(math.Ceil(float64(len(entries)) / float64(leafSize)))
	if leafCount < 1 {
		leafCount = 1
	}
	sliceCount := int(math.Ceil(math.Sqrt(float64(leafCount))))
	if sliceCount < 1 {
		sliceCount = 1
	}

	sort.Slice(entries, func(i, j int) bool {
		return centroidX(entries[i].box) < centroidX(entries[j].box)
	})

	perSlice := int(math.Ceil(float64(len(entries)) / float64(sliceCount)))
	if perSlice < 1 {
		perSlice = 1
	}

	var leaves []*rtreeNode
	for s := 0; s < len(entries); s += perSlice {
		end := s + perSlice
		if end > len(entries) {
			end = len(entries)
		}
		strip := entries[s:end]
		sort.Slice(strip, func(i, j int) bool {
			return centroidY(strip[i].box) < centroidY(strip[j].box)
		})
		for l := 0; l < len(strip); l += leafSize {
			le := l + leafSize
			if le > len(strip) {
				le = len(strip)
			}
			leaf := &rtreeNode{entries: append([]rtreeEntry(nil), strip[l:le]...)}
			leaf.box = boxOfEntries(leaf.entries)
			leaves = append(leaves, leaf)
		}
	}

	return collapse(leaves)
}

// collapse repeatedly groups sibling nodes into parents of fan-out leafSize
// until a single root remains, giving the tree its O(log n) height.
func collapse(nodes []*rtreeNode) *rtreeNode {
	const fanout = 16
	for len(nodes) > 1 {
		var next []*rtreeNode
		for i := 0; i < len(nodes); i += fanout {
			end := i + fanout
			if end > len(nodes) {
				end = len(nodes)
			}
			group := nodes[i:end]
			parent := &rtreeNode{children: append([]*rtreeNode(nil), group...)}
			box := EmptyAABB()
			for _, c := range group {
				box = box.Union(c.box)
			}
			parent.box = box
			next = append(next, parent)
		}
		nodes = next
	}
	return nodes[0]
}

func centroidX(b AABB) float64 { return (b.MinX + b.MaxX) / 2 }
func centroidY(b AABB) float64 { return (b.MinY + b.MaxY) / 2 }

func boxOfEntries(entries []rtreeEntry) AABB {
	box := EmptyAABB()
	for _, e := range entries {
		box = box.Union(e.box)
	}
	return box
}

// Query returns every handle whose stored box intersects the query box. No
// ordering guarantee is made on the result.
func (t *RTree) Query(box AABB) []int {
	var out []int
	t.query(t.root, box, &out)
	return out
}

func (t *RTree) query(n *rtreeNode, box AABB, out *[]int) {
	if n == nil || !n.box.Intersects(box) {
		return
	}
	if n.entries != nil {
		for _, e := range n.entries {
			if e.box.Intersects(box) {
				*out = append(*out, e.handle)
			}
		}
		return
	}
	for _, c := range n.children {
		t.query(c, box, out)
	}
}
