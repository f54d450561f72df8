package model

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a fitted regression tree. Leaves have nil children
// and carry the mean target of their training samples.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil
}

// regressionTree is a CART-style regressor splitting on variance reduction.
// Each split considers a random subset of features, which is what makes the
// bagged ensemble trees decorrelated.
type regressionTree struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand

	root       *treeNode
	importance []float64 // summed variance reduction per feature
}

func newRegressionTree(maxDepth, minLeaf, maxFeatures int, rng *rand.Rand) *regressionTree {
	return &regressionTree{
		maxDepth:    maxDepth,
		minLeaf:     minLeaf,
		maxFeatures: maxFeatures,
		rng:         rng,
	}
}

func (t *regressionTree) fit(X [][]float64, y []float64, indices []int) {
	t.importance = make([]float64, len(X[0]))
	t.root = t.build(X, y, indices, 0)
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func (t *regressionTree) build(X [][]float64, y []float64, indices []int, depth int) *treeNode {
	mean, sse := meanSSE(y, indices)

	if depth >= t.maxDepth || len(indices) < 2*t.minLeaf || sse == 0 {
		return &treeNode{value: mean}
	}

	feature, threshold, reduction, ok := t.bestSplit(X, y, indices, sse)
	if !ok {
		return &treeNode{value: mean}
	}

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.importance[feature] += reduction

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.build(X, y, left, depth+1),
		right:     t.build(X, y, right, depth+1),
		value:     mean,
	}
}

// bestSplit searches a random feature subset for the split with the largest
// SSE reduction that leaves at least minLeaf samples on each side.
func (t *regressionTree) bestSplit(X [][]float64, y []float64, indices []int, parentSSE float64) (int, float64, float64, bool) {
	var (
		bestFeature   int
		bestThreshold float64
		bestReduction float64
		found         bool
	)

	for _, feature := range t.sampleFeatures(len(X[0])) {
		threshold, reduction, ok := bestSplitForFeature(X, y, indices, feature, parentSSE, t.minLeaf)
		if ok && (!found || reduction > bestReduction) {
			bestFeature = feature
			bestThreshold = threshold
			bestReduction = reduction
			found = true
		}
	}

	if !found || bestReduction <= 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestReduction, true
}

// sampleFeatures draws maxFeatures distinct column indices.
func (t *regressionTree) sampleFeatures(total int) []int {
	if t.maxFeatures >= total {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := t.rng.Perm(total)
	return perm[:t.maxFeatures]
}

// bestSplitForFeature scans candidate thresholds for a single feature using
// prefix sums over the value-sorted samples.
func bestSplitForFeature(X [][]float64, y []float64, indices []int, feature int, parentSSE float64, minLeaf int) (float64, float64, bool) {
	n := len(indices)
	sorted := make([]int, n)
	copy(sorted, indices)
	sort.Slice(sorted, func(a, b int) bool {
		return X[sorted[a]][feature] < X[sorted[b]][feature]
	})

	var totalSum, totalSq float64
	for _, i := range sorted {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}

	var (
		leftSum, leftSq float64
		bestThreshold   float64
		bestReduction   float64
		found           bool
	)

	for pos := 0; pos < n-1; pos++ {
		i := sorted[pos]
		leftSum += y[i]
		leftSq += y[i] * y[i]

		// No valid threshold between equal feature values
		cur := X[i][feature]
		next := X[sorted[pos+1]][feature]
		if cur == next {
			continue
		}

		leftN := pos + 1
		rightN := n - leftN
		if leftN < minLeaf || rightN < minLeaf {
			continue
		}

		leftSSE := leftSq - leftSum*leftSum/float64(leftN)
		rightSum := totalSum - leftSum
		rightSSE := (totalSq - leftSq) - rightSum*rightSum/float64(rightN)

		reduction := parentSSE - leftSSE - rightSSE
		if !found || reduction > bestReduction {
			bestThreshold = (cur + next) / 2
			bestReduction = reduction
			found = true
		}
	}

	return bestThreshold, bestReduction, found
}

func meanSSE(y []float64, indices []int) (float64, float64) {
	if len(indices) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	mean := sum / float64(len(indices))

	var sse float64
	for _, i := range indices {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}
