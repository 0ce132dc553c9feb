package detector

import (
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649015329

// treeNode 隔离树节点；叶子只记录落入的样本数，用于路径长度修正。
type treeNode struct {
	split       float64
	left, right *treeNode
	size        int
}

func (n *treeNode) leaf() bool { return n.left == nil }

func buildTree(vals []float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if len(vals) <= 1 || depth >= maxDepth {
		return &treeNode{size: len(vals)}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return &treeNode{size: len(vals)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range vals {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &treeNode{
		split: split,
		left:  buildTree(left, depth+1, maxDepth, rng),
		right: buildTree(right, depth+1, maxDepth, rng),
		size:  len(vals),
	}
}

func (n *treeNode) pathLength(v float64, depth float64) float64 {
	if n.leaf() {
		return depth + avgPathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// avgPathLength 大小为 n 的 BST 中不成功查找的平均路径长度 c(n)。
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*(math.Log(f-1)+eulerGamma) - 2*(f-1)/f
}

// forest 一次拟合得到的隔离森林。判决函数低于零表示异常，
// 平移量取训练分数的 contamination 分位。
type forest struct {
	trees  []*treeNode
	cNorm  float64
	offset float64
}

func fitForest(vals []float64, estimators, subsample int, contamination float64, rng *rand.Rand) *forest {
	if subsample > len(vals) {
		subsample = len(vals)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample))))
	if maxDepth < 1 {
		maxDepth = 1
	}
	f := &forest{
		trees: make([]*treeNode, 0, estimators),
		cNorm: avgPathLength(subsample),
	}
	if f.cNorm <= 0 {
		f.cNorm = 1
	}
	buf := make([]float64, subsample)
	for i := 0; i < estimators; i++ {
		sampleInto(buf, vals, rng)
		f.trees = append(f.trees, buildTree(buf, 0, maxDepth, rng))
	}

	scores := make([]float64, len(vals))
	for i, v := range vals {
		scores[i] = f.scoreSample(v)
	}
	sort.Float64s(scores)
	idx := int(contamination * float64(len(scores)))
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	f.offset = scores[idx]
	return f
}

// sampleInto 无放回抽样填充 dst。
func sampleInto(dst, src []float64, rng *rand.Rand) {
	if len(dst) >= len(src) {
		copy(dst, src)
		return
	}
	for i, j := range rng.Perm(len(src))[:len(dst)] {
		dst[i] = src[j]
	}
}

// scoreSample 对应 sklearn 的 score_samples：取值 (-1, 0)，越低越异常。
func (f *forest) scoreSample(v float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.pathLength(v, 0)
	}
	mean := sum / float64(len(f.trees))
	return -math.Pow(2, -mean/f.cNorm)
}

// decision 判决函数：scoreSample 减去平移量，负值表示异常。
func (f *forest) decision(v float64) float64 {
	return f.scoreSample(v) - f.offset
}
