package ml

import (
    "errors"
    "fmt"
)

type DecisionTree struct {
    nodes []TreeNode
}

// TreeNode is one entry of a flattened tree. Leaves carry per-class weights
// (sample counts or probabilities) in Values.
type TreeNode struct {
    FeatureIdx int       `json:"feature_idx"`
    Threshold  float64   `json:"threshold"`
    LeftChild  int       `json:"left_child"`
    RightChild int       `json:"right_child"`
    Values     []float64 `json:"values,omitempty"`
    IsLeaf     bool      `json:"is_leaf"`
}

func NewDecisionTree(nodes []TreeNode, width, classCount int) (*DecisionTree, error) {
    if len(nodes) == 0 {
        return nil, errors.New("tree has no nodes")
    }
    for i, node := range nodes {
        if node.IsLeaf {
            if len(node.Values) != classCount {
                return nil, fmt.Errorf("leaf %d has %d values, want %d", i, len(node.Values), classCount)
            }
            total := 0.0
            for _, v := range node.Values {
                if v < 0 {
                    return nil, fmt.Errorf("leaf %d has a negative value", i)
                }
                total += v
            }
            if total == 0 {
                return nil, fmt.Errorf("leaf %d has no weight", i)
            }
            continue
        }
        if node.FeatureIdx < 0 || node.FeatureIdx >= width {
            return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
        }
        if !validChild(node.LeftChild, i, len(nodes)) || !validChild(node.RightChild, i, len(nodes)) {
            return nil, fmt.Errorf("node %d: invalid children", i)
        }
    }
    return &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}, nil
}

// children always sit after their parent in the flattened layout
func validChild(child, parent, size int) bool {
    return child > parent && child < size
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
    if len(dt.nodes) == 0 {
        return nil, errors.New("model not loaded")
    }
    idx := 0
    for {
        node := dt.nodes[idx]
        if node.IsLeaf {
            return normalize(node.Values), nil
        }
        if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
            return nil, errors.New("feature index out of range")
        }
        if features[node.FeatureIdx] <= node.Threshold {
            idx = node.LeftChild
        } else {
            idx = node.RightChild
        }
        if idx < 0 || idx >= len(dt.nodes) {
            return nil, errors.New("invalid tree state")
        }
    }
}

// RandomForest averages the probabilities of its trees.
type RandomForest struct {
    trees []*DecisionTree
}

func NewRandomForest(trees []*DecisionTree) (*RandomForest, error) {
    if len(trees) == 0 {
        return nil, errors.New("forest has no trees")
    }
    return &RandomForest{trees: trees}, nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
    var sum []float64
    for i, tree := range rf.trees {
        proba, err := tree.PredictProba(features)
        if err != nil {
            return nil, fmt.Errorf("tree %d: %w", i, err)
        }
        if sum == nil {
            sum = make([]float64, len(proba))
        }
        for j, p := range proba {
            sum[j] += p
        }
    }
    for j := range sum {
        sum[j] /= float64(len(rf.trees))
    }
    return sum, nil
}

func normalize(values []float64) []float64 {
    total := 0.0
    for _, v := range values {
        total += v
    }
    out := make([]float64, len(values))
    for i, v := range values {
        out[i] = v / total
    }
    return out
}
