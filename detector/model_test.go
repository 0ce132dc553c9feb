package detector

import (
	"testing"

	"anomaly-engine-go/config"
)

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Scope:         "global",
		MinSamples:    10,
		RefitInterval: 50,
		Estimators:    50,
		SubsampleSize: 64,
		Contamination: 0.01,
		Seed:          1,
	}
}

func TestModelSilentBeforeMinSamples(t *testing.T) {
	m := NewModel(testModelConfig())
	for i := 0; i < 9; i++ {
		_, anomalous, refitted := m.Observe(100 + float64(i))
		if anomalous || refitted {
			t.Fatalf("obs %d: anomalous=%v refitted=%v before min samples", i, anomalous, refitted)
		}
	}
	if m.Fitted() {
		t.Fatal("model must not be fitted before min samples")
	}
}

func TestModelFittedGuard(t *testing.T) {
	// 样本数够但还没到重建点之前，不产生任何异常判定。
	m := NewModel(testModelConfig())
	for i := 0; i < 49; i++ {
		_, anomalous, _ := m.Observe(100 + float64(i%7))
		if anomalous {
			t.Fatalf("obs %d: anomalous before first refit", i)
		}
	}
	if m.Fitted() {
		t.Fatal("fitted before reaching refit interval")
	}
}

func TestModelRefitCadence(t *testing.T) {
	m := NewModel(testModelConfig())
	for i := 0; i < 200; i++ {
		m.Observe(100 + float64(i%13))
	}
	if got := m.Refits(); got != 4 {
		t.Fatalf("refits after 200 observations = %d, want 4", got)
	}
	m.Observe(100)
	if got := m.Refits(); got != 4 {
		t.Fatalf("refits after 201 observations = %d, want 4", got)
	}
	if !m.Fitted() {
		t.Fatal("model should be fitted")
	}
}

func TestModelFlagsPlantedOutlier(t *testing.T) {
	m := NewModel(testModelConfig())

	// 198 个紧凑分布的常规价 + 2 个埋入的离群价，恰好在第 200 笔触发重建。
	m.Observe(90)
	m.Observe(110)
	for i := 0; i < 198; i++ {
		m.Observe(99 + 2*float64(i)/197)
	}
	if !m.Fitted() {
		t.Fatal("model should be fitted after 200 observations")
	}

	score, anomalous, _ := m.Observe(120)
	if !anomalous {
		t.Fatalf("extreme price not flagged, score=%v", score)
	}
	score, anomalous, _ = m.Observe(100)
	if anomalous {
		t.Fatalf("central price flagged, score=%v", score)
	}
}

func TestModelBoundedSamples(t *testing.T) {
	cfg := testModelConfig()
	cfg.MaxSamples = 100
	m := NewModel(cfg)
	for i := 0; i < 500; i++ {
		m.Observe(100 + float64(i%17))
	}
	if got := m.SampleLen(); got > 100 {
		t.Fatalf("sample buffer grew to %d, cap is 100", got)
	}
}

func TestModelConstantPricesNeverFlag(t *testing.T) {
	// 标准差为零时模型保持沉默，不重建也不判异常。
	m := NewModel(testModelConfig())
	for i := 0; i < 200; i++ {
		_, anomalous, _ := m.Observe(100)
		if anomalous {
			t.Fatalf("obs %d: constant series flagged", i)
		}
	}
	if m.Fitted() {
		t.Fatal("degenerate series must not fit a forest")
	}
}
