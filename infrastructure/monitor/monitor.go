package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 流水指标
	eventsTotal     prometheus.Counter
	malformedTotal  prometheus.Counter
	duplicatesTotal prometheus.Counter
	processLatency  prometheus.Histogram

	// 检测指标
	anomaliesTotal *prometheus.CounterVec
	rulesSkipped   *prometheus.CounterVec

	// 模型指标
	modelRefits prometheus.Counter
	sampleSize  prometheus.Gauge

	// 资源指标
	seenSetSize  prometheus.Gauge
	symbolsKnown prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "ae",
		Subsystem: "detector",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		eventsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_total",
			Help:      "处理的事件总数（含重复）",
		}),
		malformedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "malformed_total",
			Help:      "无法解析而丢弃的消息总数",
		}),
		duplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "duplicates_total",
			Help:      "按 sequence 去重丢弃的事件总数",
		}),
		processLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "process_latency_seconds",
			Help:      "单条事件处理耗时（秒）",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		anomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "anomalies_total",
				Help:      "检测到的异常总数",
			},
			[]string{"tag"},
		),
		rulesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_skipped_total",
				Help:      "因配置缺失或退化输入被跳过的规则评估次数",
			},
			[]string{"reason"},
		),

		modelRefits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "model_refits_total",
			Help:      "离群点模型重建次数",
		}),
		sampleSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "model_sample_size",
			Help:      "模型当前保留的样本数",
		}),

		seenSetSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "seen_set_size",
			Help:      "去重集合当前持有的序号数量",
		}),
		symbolsKnown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "symbols_known",
			Help:      "已建立状态的标的数量",
		}),
	}

	return m
}

func (m *Monitor) RecordEvent() {
	m.eventsTotal.Inc()
}

func (m *Monitor) RecordMalformed() {
	m.malformedTotal.Inc()
}

func (m *Monitor) RecordDuplicate() {
	m.duplicatesTotal.Inc()
}

func (m *Monitor) RecordProcessLatency(seconds float64) {
	m.processLatency.Observe(seconds)
}

func (m *Monitor) RecordAnomaly(tag string) {
	m.anomaliesTotal.WithLabelValues(tag).Inc()
}

func (m *Monitor) RecordRuleSkipped(reason string) {
	m.rulesSkipped.WithLabelValues(reason).Inc()
}

func (m *Monitor) RecordModelRefit() {
	m.modelRefits.Inc()
}

func (m *Monitor) UpdateSampleSize(n int) {
	m.sampleSize.Set(float64(n))
}

func (m *Monitor) UpdateSeenSetSize(n int) {
	m.seenSetSize.Set(float64(n))
}

func (m *Monitor) UpdateSymbolsKnown(n int) {
	m.symbolsKnown.Set(float64(n))
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
