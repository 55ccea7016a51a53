package forecast

import "fmt"

// Gradient-boosted regression trees on least squares. Training is fully
// deterministic: no row or column subsampling, histogram split candidates
// derived from the data itself. That keeps persisted models reproducible
// and lets a restored model predict identically to the one that was saved.

// BoostParams are the regressor hyperparameters.
type BoostParams struct {
	NumTrees     int     `json:"num_trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
	Bins         int     `json:"bins"`
}

// DefaultBoostParams returns the hyperparameters used for price-return
// regression. Tuned for tables of a few thousand rows.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		NumTrees:     80,
		MaxDepth:     3,
		LearningRate: 0.08,
		MinLeaf:      5,
		Bins:         32,
	}
}

type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Gain      float64 `json:"g"`
	Leaf      bool    `json:"leaf"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) predict(row []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// Ensemble is a fitted boosted-tree regressor.
type Ensemble struct {
	Params      BoostParams      `json:"params"`
	Base        float64          `json:"base"`
	NumFeatures int              `json:"num_features"`
	Trees       []regressionTree `json:"trees"`
}

// TrainEnsemble fits boosted trees to (x, y) with least-squares loss.
func TrainEnsemble(x [][]float64, y []float64, params BoostParams) (*Ensemble, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("invalid training table: %d rows, %d targets", len(x), len(y))
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	ens := &Ensemble{
		Params:      params,
		Base:        base,
		NumFeatures: len(x[0]),
		Trees:       make([]regressionTree, 0, params.NumTrees),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}
	residual := make([]float64, len(y))
	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}

	for t := 0; t < params.NumTrees; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}

		tree := regressionTree{}
		buildNode(&tree, x, residual, rows, 0, params)
		ens.Trees = append(ens.Trees, tree)

		for i := range pred {
			pred[i] += params.LearningRate * tree.predict(x[i])
		}
	}

	return ens, nil
}

// Predict returns the ensemble output for one feature row.
func (e *Ensemble) Predict(row []float64) float64 {
	out := e.Base
	for i := range e.Trees {
		out += e.Params.LearningRate * e.Trees[i].predict(row)
	}
	return out
}

// PredictBatch predicts a full matrix.
func (e *Ensemble) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = e.Predict(row)
	}
	return out
}

// FeatureImportances returns per-column split gains normalized to sum to 1.
// The vector is indexed by flattened-window column position.
func (e *Ensemble) FeatureImportances() []float64 {
	imp := make([]float64, e.NumFeatures)
	total := 0.0
	for _, tree := range e.Trees {
		for _, n := range tree.Nodes {
			if n.Leaf {
				continue
			}
			imp[n.Feature] += n.Gain
			total += n.Gain
		}
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}

// buildNode grows the tree depth-first and returns the node's index.
func buildNode(tree *regressionTree, x [][]float64, residual []float64, rows []int, depth int, params BoostParams) int {
	sum, sumSq := 0.0, 0.0
	for _, r := range rows {
		sum += residual[r]
		sumSq += residual[r] * residual[r]
	}
	n := float64(len(rows))
	mean := sum / n
	sse := sumSq - sum*sum/n

	idx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, treeNode{Leaf: true, Value: mean})

	if depth >= params.MaxDepth || len(rows) < 2*params.MinLeaf {
		return idx
	}

	feature, threshold, gain := bestSplit(x, residual, rows, sse, params)
	if feature < 0 {
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < params.MinLeaf || len(right) < params.MinLeaf {
		return idx
	}

	leftIdx := buildNode(tree, x, residual, left, depth+1, params)
	rightIdx := buildNode(tree, x, residual, right, depth+1, params)

	tree.Nodes[idx] = treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftIdx,
		Right:     rightIdx,
		Gain:      gain,
	}
	return idx
}

// bestSplit scans histogram-binned thresholds per feature and returns the
// split maximizing SSE reduction, or feature -1 when nothing improves.
func bestSplit(x [][]float64, residual []float64, rows []int, parentSSE float64, params BoostParams) (int, float64, float64) {
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 1e-12

	numFeatures := len(x[rows[0]])
	binCount := make([]float64, params.Bins)
	binSum := make([]float64, params.Bins)
	binSumSq := make([]float64, params.Bins)

	for f := 0; f < numFeatures; f++ {
		lo, hi := x[rows[0]][f], x[rows[0]][f]
		for _, r := range rows {
			v := x[r][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi <= lo {
			continue
		}

		for b := 0; b < params.Bins; b++ {
			binCount[b], binSum[b], binSumSq[b] = 0, 0, 0
		}
		scale := float64(params.Bins) / (hi - lo)
		for _, r := range rows {
			b := int((x[r][f] - lo) * scale)
			if b >= params.Bins {
				b = params.Bins - 1
			}
			binCount[b]++
			binSum[b] += residual[r]
			binSumSq[b] += residual[r] * residual[r]
		}

		leftN, leftSum, leftSumSq := 0.0, 0.0, 0.0
		totalN := float64(len(rows))
		totalSum, totalSumSq := 0.0, 0.0
		for b := 0; b < params.Bins; b++ {
			totalSum += binSum[b]
			totalSumSq += binSumSq[b]
		}

		for b := 0; b < params.Bins-1; b++ {
			leftN += binCount[b]
			leftSum += binSum[b]
			leftSumSq += binSumSq[b]

			rightN := totalN - leftN
			if leftN < float64(params.MinLeaf) || rightN < float64(params.MinLeaf) {
				continue
			}

			leftSSE := leftSumSq - leftSum*leftSum/leftN
			rightSum := totalSum - leftSum
			rightSSE := (totalSumSq - leftSumSq) - rightSum*rightSum/rightN

			gain := parentSSE - leftSSE - rightSSE
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + float64(b+1)/scale
			}
		}
	}

	if bestFeature < 0 {
		return -1, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}
