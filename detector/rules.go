package detector

import (
	"fmt"
	"math"

	"anomaly-engine-go/config"
	"anomaly-engine-go/market"
)

// Rule 规则检测器。实现必须是纯函数：给定事件、状态和阈值得出结论，
// 不得持有自身状态。所有规则总是全部执行，互不依赖。
type Rule interface {
	Tag() string
	Evaluate(ev market.TradeEvent, st *SymbolState, th config.Thresholds) (bool, error)
}

// Rules 按固定顺序返回内置规则：先量后价。
func Rules() []Rule {
	return []Rule{HighVolumeRule{}, RapidChangeRule{}}
}

// HighVolumeRule 单笔成交量超过阈值。
type HighVolumeRule struct{}

func (HighVolumeRule) Tag() string { return market.TagHighVolume }

func (HighVolumeRule) Evaluate(ev market.TradeEvent, _ *SymbolState, th config.Thresholds) (bool, error) {
	if th.HighVolume <= 0 {
		return false, fmt.Errorf("%w: highVolume for %s", ErrThresholdMissing, ev.Symbol)
	}
	return ev.Size > th.HighVolume, nil
}

// RapidChangeRule 相邻两笔价格变动比例超过阈值。
// 标的首笔事件没有前价，必然不命中。
type RapidChangeRule struct{}

func (RapidChangeRule) Tag() string { return market.TagRapidChange }

func (RapidChangeRule) Evaluate(ev market.TradeEvent, st *SymbolState, th config.Thresholds) (bool, error) {
	if th.RapidChange <= 0 {
		return false, fmt.Errorf("%w: rapidChange for %s", ErrThresholdMissing, ev.Symbol)
	}
	prev, ok := st.LastPrice()
	if !ok {
		return false, nil
	}
	if prev == 0 {
		return false, fmt.Errorf("%w: %s", ErrDegenerateBase, ev.Symbol)
	}
	change := math.Abs(ev.Price-prev) / prev
	return change > th.RapidChange, nil
}
