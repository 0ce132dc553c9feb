package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"anomaly-engine-go/market"
)

// TradeMessage 入站消息的结构化载荷。数值字段用 json.Number 承接，
// 兼容字符串和数字两种编码。
type TradeMessage struct {
	Sequence  json.Number `json:"sequence"`
	Symbol    string      `json:"symbol"`
	Price     json.Number `json:"price"`
	Size      json.Number `json:"size"`
	Timestamp int64       `json:"timestamp,omitempty"` // 毫秒，源端可选
}

// ParseTrade 解析入站载荷。任何解析失败都视为畸形消息，
// 由调用方记录后丢弃，不中断流。
func ParseTrade(raw []byte) (market.TradeEvent, error) {
	var msg TradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return market.TradeEvent{}, fmt.Errorf("parse trade: %w", err)
	}
	if msg.Symbol == "" {
		return market.TradeEvent{}, fmt.Errorf("parse trade: missing symbol")
	}
	seq, err := strconv.ParseUint(msg.Sequence.String(), 10, 64)
	if err != nil {
		return market.TradeEvent{}, fmt.Errorf("parse trade sequence %q: %w", msg.Sequence, err)
	}
	price, err := msg.Price.Float64()
	if err != nil {
		return market.TradeEvent{}, fmt.Errorf("parse trade price %q: %w", msg.Price, err)
	}
	if price <= 0 {
		return market.TradeEvent{}, fmt.Errorf("parse trade: price must be > 0, got %v", price)
	}
	size, err := msg.Size.Float64()
	if err != nil {
		return market.TradeEvent{}, fmt.Errorf("parse trade size %q: %w", msg.Size, err)
	}
	if size < 0 {
		return market.TradeEvent{}, fmt.Errorf("parse trade: size must be >= 0, got %v", size)
	}
	ev := market.TradeEvent{
		Sequence: seq,
		Symbol:   msg.Symbol,
		Price:    price,
		Size:     size,
	}
	if msg.Timestamp > 0 {
		ev.Ts = time.UnixMilli(msg.Timestamp)
	}
	return ev, nil
}

// anomalyMessage 出站载荷：原始字段加标签列表，与入站同构。
type anomalyMessage struct {
	Sequence  uint64   `json:"sequence"`
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Size      float64  `json:"size"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Anomalies []string `json:"anomalies"`
}

// EncodeAnomaly 序列化检测结果；key 为字符串化的 sequence，
// 供下游按事件身份分区。
func EncodeAnomaly(r market.AnomalyResult) (key string, value []byte, err error) {
	msg := anomalyMessage{
		Sequence:  r.Event.Sequence,
		Symbol:    r.Event.Symbol,
		Price:     r.Event.Price,
		Size:      r.Event.Size,
		Anomalies: r.Tags,
	}
	if !r.Event.Ts.IsZero() {
		msg.Timestamp = r.Event.Ts.UnixMilli()
	}
	value, err = json.Marshal(msg)
	if err != nil {
		return "", nil, fmt.Errorf("encode anomaly: %w", err)
	}
	return strconv.FormatUint(r.Event.Sequence, 10), value, nil
}
