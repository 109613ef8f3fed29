package reconstruct

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/flow"
)

// costScale converts the RMS/penalty float costs into the int64 edge
// weights lvlath's graph requires; large enough that sub-millimetre RMS
// differences still separate after truncation.
const costScale = 1_000_000.0

// AssignLabels implements spec.md §4.6 Path B step 3: assign each
// inside-footprint face a plane label by minimising a Potts-model energy
// (unary RMS-fit cost per face, pairwise boundaryPenalty across any shared
// edge not marked Blocks), via alpha-expansion: each round tries flipping
// every face to one candidate label by one min-s-t-cut and applies the
// cut's relabelling whenever it changes any face; the total energy is not
// recomputed or compared. Passes repeat until none changes a label, at most
// 8 times. Ties for the initial label favour the lower plane index.
func AssignLabels(arr *Arrangement, numPlanes int, boundaryPenalty float64) {
	if numPlanes == 0 {
		return
	}
	faces := arr.Faces

	// initial labelling: each face takes its lowest-RMS plane.
	for i := range faces {
		best := 0
		for l := 1; l < numPlanes; l++ {
			if faces[i].FitRMS[l] < faces[i].FitRMS[best] {
				best = l
			}
		}
		faces[i].Label = best
	}

	if numPlanes == 1 {
		return
	}

	improved := true
	for pass := 0; pass < 8 && improved; pass++ {
		improved = false
		for alpha := 0; alpha < numPlanes; alpha++ {
			if expandAlpha(arr, alpha, boundaryPenalty) {
				improved = true
			}
		}
	}
}

// expandAlpha runs one alpha-expansion move: build a flow network whose
// min-cut assigns each face either to its current label or to alpha,
// minimising the resulting Potts energy, and applies the cut if it changes
// any face's label.
func expandAlpha(arr *Arrangement, alpha int, boundaryPenalty float64) bool {
	faces := arr.Faces
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithLoops())

	const source = "s"
	const sink = "t"
	_ = g.AddVertex(source)
	_ = g.AddVertex(sink)
	for i := range faces {
		_ = g.AddVertex(faceVertex(i))
	}

	addEdge := func(from, to string, weight float64) {
		w := toWeight(weight)
		if w <= 0 {
			return
		}
		if _, err := g.AddEdge(from, to, w); err != nil {
			// parallel edge on a non-multi graph: aggregate by adding a
			// second edge is disallowed, so route through an intermediate
			// node instead of failing the expansion round.
			mid := fmt.Sprintf("%s~%s~%d", from, to, w)
			_ = g.AddVertex(mid)
			_, _ = g.AddEdge(from, mid, w)
			_, _ = g.AddEdge(mid, to, w)
		}
	}

	for i, f := range faces {
		v := faceVertex(i)
		// source edge: cost of staying at the current label (cut here sends
		// the face to alpha).
		addEdge(source, v, f.FitRMS[f.Label])
		// sink edge: cost of taking alpha (cut here keeps the current label).
		addEdge(v, sink, f.FitRMS[alpha])
	}

	for _, e := range arr.Edges {
		if e.Blocks {
			continue
		}
		a, b := faces[e.A], faces[e.B]
		if a.Label == b.Label {
			continue
		}
		// smoothness edge between differently-labelled neighbours: paying
		// boundaryPenalty to keep them split is approximated as a
		// bidirectional edge of that weight between the two face nodes.
		addEdge(faceVertex(e.A), faceVertex(e.B), boundaryPenalty)
		addEdge(faceVertex(e.B), faceVertex(e.A), boundaryPenalty)
	}

	_, residual, err := flow.Dinic(g, source, sink, flow.FlowOptions{Epsilon: 1e-6})
	if err != nil || residual == nil {
		return false
	}

	reachable := reachableFromSource(residual, source)

	changed := false
	for i := range faces {
		onSourceSide := reachable[faceVertex(i)]
		newLabel := faces[i].Label
		if !onSourceSide {
			newLabel = alpha
		}
		if newLabel != faces[i].Label {
			faces[i].Label = newLabel
			changed = true
		}
	}
	return changed
}

func faceVertex(i int) string {
	return fmt.Sprintf("f%d", i)
}

func toWeight(cost float64) int64 {
	if cost <= 0 || math.IsInf(cost, 1) || math.IsNaN(cost) {
		return 0
	}
	w := int64(cost * costScale)
	if w <= 0 {
		w = 1
	}
	return w
}

// reachableFromSource does a BFS over the residual graph's positive-capacity
// edges from source, identifying the min-cut's source-side partition.
func reachableFromSource(residual *core.Graph, source string) map[string]bool {
	visited := map[string]bool{source: true}
	queue := []string{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		nbrs, err := residual.Neighbors(u)
		if err != nil {
			continue
		}
		for _, e := range nbrs {
			if e.Weight > 0 && !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return visited
}
