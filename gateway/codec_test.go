package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"anomaly-engine-go/market"
)

func TestParseTrade(t *testing.T) {
	raw := []byte(`{"sequence":42,"symbol":"AAPL","price":150.25,"size":500,"timestamp":1700000000000}`)
	ev, err := ParseTrade(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Sequence != 42 || ev.Symbol != "AAPL" || ev.Price != 150.25 || ev.Size != 500 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Ts != time.UnixMilli(1700000000000) {
		t.Fatalf("unexpected timestamp: %v", ev.Ts)
	}
}

func TestParseTradeStringNumbers(t *testing.T) {
	// 部分源端把数值编码成字符串。
	raw := []byte(`{"sequence":"42","symbol":"AAPL","price":"150.25","size":"500"}`)
	ev, err := ParseTrade(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Sequence != 42 || ev.Price != 150.25 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.Ts.IsZero() {
		t.Fatalf("timestamp should stay zero, got %v", ev.Ts)
	}
}

func TestParseTradeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `volume spike!!`},
		{"missing symbol", `{"sequence":1,"price":150,"size":10}`},
		{"bad sequence", `{"sequence":"abc","symbol":"AAPL","price":150,"size":10}`},
		{"negative sequence", `{"sequence":-1,"symbol":"AAPL","price":150,"size":10}`},
		{"zero price", `{"sequence":1,"symbol":"AAPL","price":0,"size":10}`},
		{"negative price", `{"sequence":1,"symbol":"AAPL","price":-5,"size":10}`},
		{"negative size", `{"sequence":1,"symbol":"AAPL","price":150,"size":-10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTrade([]byte(tc.raw)); err == nil {
				t.Fatalf("expected error for %s", tc.raw)
			}
		})
	}
}

func TestEncodeAnomaly(t *testing.T) {
	r := market.AnomalyResult{
		Event: market.TradeEvent{
			Sequence: 7,
			Symbol:   "AAPL",
			Price:    180,
			Size:     20000,
			Ts:       time.UnixMilli(1700000000000),
		},
		Tags: []string{market.TagHighVolume, market.TagRapidChange},
	}
	key, value, err := EncodeAnomaly(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "7" {
		t.Fatalf("key = %q, want \"7\"", key)
	}

	var out struct {
		Sequence  uint64   `json:"sequence"`
		Symbol    string   `json:"symbol"`
		Price     float64  `json:"price"`
		Size      float64  `json:"size"`
		Timestamp int64    `json:"timestamp"`
		Anomalies []string `json:"anomalies"`
	}
	if err := json.Unmarshal(value, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out.Sequence != 7 || out.Symbol != "AAPL" || out.Timestamp != 1700000000000 {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if len(out.Anomalies) != 2 || out.Anomalies[0] != market.TagHighVolume {
		t.Fatalf("unexpected anomalies: %v", out.Anomalies)
	}
}
