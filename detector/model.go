package detector

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"anomaly-engine-go/config"
)

// Model 在线离群点模型：样本持续累积（可按配置封顶），按固定观测节奏
// 整体重建隔离森林，重建之间沿用既有结构但每次打分都用最新的均值/
// 标准差归一化。均值与方差随追加和淘汰增量维护，与每次从全量样本重算
// 等价。样本不足或尚未完成首次拟合时一律判定为非异常。
//
// 所有方法并发安全；共享（global scope）模型由同一把锁覆盖
// 追加、打分与重建。
type Model struct {
	mu  sync.Mutex
	cfg config.ModelConfig
	rng *rand.Rand

	samples []float64
	sum     float64
	sumSq   float64

	count  int // 累计观测数，驱动重建节奏
	fitted bool
	forest *forest
	refits int
}

func NewModel(cfg config.ModelConfig) *Model {
	// 直接构造 ModelConfig 时零值字段回填缺省，避免零间隔取模
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = config.DefaultMinSamples
	}
	if cfg.RefitInterval <= 0 {
		cfg.RefitInterval = config.DefaultRefitInterval
	}
	if cfg.Estimators <= 0 {
		cfg.Estimators = config.DefaultEstimators
	}
	if cfg.SubsampleSize <= 0 {
		cfg.SubsampleSize = config.DefaultSubsample
	}
	if cfg.Contamination <= 0 {
		cfg.Contamination = config.DefaultContamination
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Model{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		samples: make([]float64, 0, cfg.MinSamples),
	}
}

// Observe 追加一个观测并打分。
// score 仅在模型就绪时有意义；refitted 表示本次触发了重建。
func (m *Model) Observe(price float64) (score float64, anomalous, refitted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.append(price)
	m.count++

	if len(m.samples) < m.cfg.MinSamples {
		return 0, false, false
	}
	if m.count%m.cfg.RefitInterval == 0 {
		m.refit()
		refitted = true
	}
	if !m.fitted {
		return 0, false, refitted
	}

	mean, std := m.meanStd()
	if std == 0 {
		return 0, false, refitted
	}
	score = m.forest.decision((price - mean) / std)
	return score, score < m.cfg.ScoreCutoff, refitted
}

func (m *Model) append(price float64) {
	m.samples = append(m.samples, price)
	m.sum += price
	m.sumSq += price * price
	if m.cfg.MaxSamples > 0 && len(m.samples) > m.cfg.MaxSamples {
		old := m.samples[0]
		m.samples = m.samples[1:]
		m.sum -= old
		m.sumSq -= old * old
	}
}

func (m *Model) meanStd() (mean, std float64) {
	n := float64(len(m.samples))
	mean = m.sum / n
	variance := m.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0 // 浮点抵消
	}
	return mean, math.Sqrt(variance)
}

// refit 用当前均值/标准差归一化全量样本并重建森林。
func (m *Model) refit() {
	mean, std := m.meanStd()
	if std == 0 {
		return
	}
	normalized := make([]float64, len(m.samples))
	for i, v := range m.samples {
		normalized[i] = (v - mean) / std
	}
	m.forest = fitForest(normalized, m.cfg.Estimators, m.cfg.SubsampleSize, m.cfg.Contamination, m.rng)
	m.fitted = true
	m.refits++
}

// Fitted 是否已完成首次重建。
func (m *Model) Fitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fitted
}

// Refits 已完成的重建次数。
func (m *Model) Refits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refits
}

// SampleLen 当前保留的样本数。
func (m *Model) SampleLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}
