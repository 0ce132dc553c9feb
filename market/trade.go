package market

import "time"

// TradeEvent 一条归一化的逐笔成交，由上游数据源产生，核心只读。
// Sequence 全局唯一且单调，作为去重键。
type TradeEvent struct {
	Sequence uint64
	Symbol   string
	Price    float64
	Size     float64
	Ts       time.Time
}

// 检测器标签，顺序固定：量、价、模型。
const (
	TagHighVolume      = "High Volume"
	TagRapidChange     = "Rapid Price Change"
	TagIsolationForest = "Isolation Forest"
)

// AnomalyResult 原始事件加上命中的检测器标签。
// 只有至少一个检测器命中时才会构造；构造后不可变。
type AnomalyResult struct {
	Event TradeEvent
	Tags  []string
}
