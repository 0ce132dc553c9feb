package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordEvent()
	m.RecordEvent()
	m.RecordDuplicate()
	m.RecordMalformed()
	m.RecordModelRefit()

	if got := testutil.ToFloat64(m.eventsTotal); got != 2 {
		t.Errorf("Expected eventsTotal to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(m.duplicatesTotal); got != 1 {
		t.Errorf("Expected duplicatesTotal to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.malformedTotal); got != 1 {
		t.Errorf("Expected malformedTotal to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.modelRefits); got != 1 {
		t.Errorf("Expected modelRefits to be 1, got %f", got)
	}
}

func TestLabelledCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordAnomaly("High Volume")
	m.RecordAnomaly("High Volume")
	m.RecordAnomaly("Rapid Price Change")
	m.RecordRuleSkipped("missing_threshold")

	if got := testutil.ToFloat64(m.anomaliesTotal.WithLabelValues("High Volume")); got != 2 {
		t.Errorf("Expected anomaliesTotal[High Volume] to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(m.anomaliesTotal.WithLabelValues("Rapid Price Change")); got != 1 {
		t.Errorf("Expected anomaliesTotal[Rapid Price Change] to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.rulesSkipped.WithLabelValues("missing_threshold")); got != 1 {
		t.Errorf("Expected rulesSkipped[missing_threshold] to be 1, got %f", got)
	}
}

func TestGauges(t *testing.T) {
	m := New(DefaultConfig())

	m.UpdateSampleSize(100)
	m.UpdateSeenSetSize(42)
	m.UpdateSymbolsKnown(3)

	if got := testutil.ToFloat64(m.sampleSize); got != 100 {
		t.Errorf("Expected sampleSize to be 100, got %f", got)
	}
	if got := testutil.ToFloat64(m.seenSetSize); got != 42 {
		t.Errorf("Expected seenSetSize to be 42, got %f", got)
	}
	if got := testutil.ToFloat64(m.symbolsKnown); got != 3 {
		t.Errorf("Expected symbolsKnown to be 3, got %f", got)
	}
}

func TestIsolatedRegistries(t *testing.T) {
	// 各实例使用独立 registry，重复创建不触发重复注册 panic。
	a := New(DefaultConfig())
	b := New(DefaultConfig())
	if a.Registry() == b.Registry() {
		t.Fatal("monitors must not share a registry")
	}
	if a.Handler() == nil || b.Handler() == nil {
		t.Fatal("handler must not be nil")
	}
}
