// Package ml implements the ensemble regressor behind the basket forecast:
// bagged regression trees with variance-reduction splits and a random
// feature subset per split. A fixed seed makes training reproducible for
// identical input.
package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Options control forest training.
type Options struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// DefaultOptions mirror the reference model: 100 trees, seed 42.
func DefaultOptions() Options {
	return Options{Trees: 100, MaxDepth: 10, MinLeaf: 1, Seed: 42}
}

// Node is one regression-tree node. Exported fields so the fitted forest
// can be gob-serialized.
type Node struct {
	Leaf      bool
	Value     float64 // leaf prediction
	Feature   int     // split feature index into the schema
	Threshold float64 // go left when x[Feature] <= Threshold
	Left      *Node
	Right     *Node
}

// Forest is a fitted ensemble. Schema records the ordered feature names the
// forest was trained on; prediction inputs must match it exactly.
type Forest struct {
	Schema []string
	Trees  []*Node
}

// Train fits a forest on rows x (one vector per sample, ordered per schema)
// and targets y.
func Train(x [][]float64, y []float64, schema []string, opts Options) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("ml: need matching non-empty samples, got %d rows / %d targets", len(x), len(y))
	}
	for i, row := range x {
		if len(row) != len(schema) {
			return nil, fmt.Errorf("ml: row %d has %d features, schema has %d", i, len(row), len(schema))
		}
	}
	if opts.Trees < 1 {
		return nil, fmt.Errorf("ml: need at least one tree, got %d", opts.Trees)
	}

	// One master RNG seeds each tree so the whole ensemble is a pure
	// function of (input, options).
	rng := rand.New(rand.NewSource(opts.Seed))

	// Random-subspace size per split, the usual n/3 heuristic for
	// regression forests.
	mtry := len(schema) / 3
	if mtry < 1 {
		mtry = 1
	}

	forest := &Forest{Schema: append([]string(nil), schema...)}
	for t := 0; t < opts.Trees; t++ {
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		// Bootstrap sample with replacement.
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = treeRng.Intn(len(x))
		}

		forest.Trees = append(forest.Trees, buildNode(x, y, idx, 0, mtry, treeRng, opts))
	}
	return forest, nil
}

// Predict returns the mean prediction over all trees for one feature vector.
func (f *Forest) Predict(row []float64) (float64, error) {
	if len(row) != len(f.Schema) {
		return 0, fmt.Errorf("ml: got %d features, model expects %d", len(row), len(f.Schema))
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += predictNode(tree, row)
	}
	return sum / float64(len(f.Trees)), nil
}

// Score returns the in-sample R² of the forest on (x, y).
func (f *Forest) Score(x [][]float64, y []float64) float64 {
	estimates := make([]float64, len(x))
	for i, row := range x {
		estimates[i], _ = f.Predict(row)
	}
	return stat.RSquaredFrom(estimates, y, nil)
}

func predictNode(n *Node, row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func buildNode(x [][]float64, y []float64, idx []int, depth, mtry int, rng *rand.Rand, opts Options) *Node {
	targets := make([]float64, len(idx))
	for i, j := range idx {
		targets[i] = y[j]
	}
	leaf := &Node{Leaf: true, Value: stat.Mean(targets, nil)}

	if depth >= opts.MaxDepth || len(idx) <= 2*opts.MinLeaf || constant(targets) {
		return leaf
	}

	feature, threshold, ok := bestSplit(x, y, idx, mtry, rng, opts.MinLeaf)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, j := range idx {
		if x[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildNode(x, y, left, depth+1, mtry, rng, opts),
		Right:     buildNode(x, y, right, depth+1, mtry, rng, opts),
	}
}

// bestSplit scans a random subset of mtry features for the threshold that
// minimizes the summed squared error of the two halves.
func bestSplit(x [][]float64, y []float64, idx []int, mtry int, rng *rand.Rand, minLeaf int) (int, float64, bool) {
	nFeatures := len(x[idx[0]])
	perm := rng.Perm(nFeatures)
	if mtry < nFeatures {
		perm = perm[:mtry]
	}

	bestErr := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	type sample struct{ v, y float64 }
	samples := make([]sample, len(idx))

	for _, feature := range perm {
		for i, j := range idx {
			samples[i] = sample{v: x[j][feature], y: y[j]}
		}
		sort.Slice(samples, func(a, b int) bool { return samples[a].v < samples[b].v })

		var totalSum, totalSq float64
		for _, s := range samples {
			totalSum += s.y
			totalSq += s.y * s.y
		}

		var leftSum, leftSq float64
		n := len(samples)
		for i := 0; i < n-1; i++ {
			leftSum += samples[i].y
			leftSq += samples[i].y * samples[i].y

			// No threshold between equal feature values.
			if samples[i].v == samples[i+1].v {
				continue
			}
			k := i + 1
			if k < minLeaf || n-k < minLeaf {
				continue
			}

			leftErr := leftSq - leftSum*leftSum/float64(k)
			rightSum := totalSum - leftSum
			rightErr := (totalSq - leftSq) - rightSum*rightSum/float64(n-k)

			if err := leftErr + rightErr; err < bestErr {
				bestErr = err
				bestFeature = feature
				bestThreshold = (samples[i].v + samples[i+1].v) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func constant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
