package detector

import (
	"errors"
	"time"

	"anomaly-engine-go/config"
	"anomaly-engine-go/infrastructure/logger"
	"anomaly-engine-go/infrastructure/monitor"
	"anomaly-engine-go/market"
)

// Engine 把去重、状态维护、规则评估和离群点模型串成一条处理链。
// Process 对单条事件同步执行到完成；同一标的的事件必须按到达顺序
// 进入（由 Dispatcher 保证），不同标的之间可以并行。
type Engine struct {
	cfg    config.AppConfig
	seen   *SeenSet
	states *Store
	rules  []Rule
	shared *Model // scope=global 时所有标的共用
	pub    *market.Publisher
	log    *logger.Logger
	mon    *monitor.Monitor
}

func New(cfg config.AppConfig, pub *market.Publisher, log *logger.Logger, mon *monitor.Monitor) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{
		cfg:   cfg,
		seen:  NewSeenSet(cfg.Dedup.MaxEntries),
		rules: Rules(),
		pub:   pub,
		log:   log,
		mon:   mon,
	}
	if cfg.Model.Scope == "symbol" {
		e.states = NewStore(func() *Model { return NewModel(cfg.Model) })
	} else {
		e.shared = NewModel(cfg.Model)
		e.states = NewStore(nil)
	}
	return e
}

// Process 处理一条事件。重复事件在任何状态变更之前被丢弃；
// 没有检测器命中时返回 nil，不产生任何输出。
func (e *Engine) Process(ev market.TradeEvent) *market.AnomalyResult {
	start := time.Now()
	if e.mon != nil {
		e.mon.RecordEvent()
	}

	if e.seen.CheckAndMark(ev.Sequence) {
		if e.mon != nil {
			e.mon.RecordDuplicate()
		}
		return nil
	}

	st := e.states.GetOrCreate(ev.Symbol)
	th := e.cfg.ThresholdsFor(ev.Symbol)

	tags := make([]string, 0, 3)
	for _, r := range e.rules {
		fired, err := r.Evaluate(ev, st, th)
		if err != nil {
			e.recordRuleSkip(ev, err)
			continue
		}
		if fired {
			tags = append(tags, r.Tag())
		}
	}

	model := e.shared
	if model == nil {
		model = st.Model()
	}
	score, anomalous, refitted := model.Observe(ev.Price)
	if refitted {
		if e.mon != nil {
			e.mon.RecordModelRefit()
		}
		e.log.LogModel("model_refit", map[string]interface{}{
			"symbol":  ev.Symbol,
			"scope":   e.cfg.Model.Scope,
			"samples": model.SampleLen(),
			"refits":  model.Refits(),
		})
	}
	if anomalous {
		tags = append(tags, market.TagIsolationForest)
	}

	// 规则评估完成后才用当前价替换"前价"。
	st.RecordPrice(ev.Price)

	if e.mon != nil {
		e.mon.RecordProcessLatency(time.Since(start).Seconds())
		e.mon.UpdateSeenSetSize(e.seen.Len())
		e.mon.UpdateSymbolsKnown(e.states.Count())
		e.mon.UpdateSampleSize(model.SampleLen())
	}

	if len(tags) == 0 {
		return nil
	}
	res := &market.AnomalyResult{Event: ev, Tags: tags}
	if e.mon != nil {
		for _, tag := range tags {
			e.mon.RecordAnomaly(tag)
		}
	}
	e.log.LogAnomaly(ev.Sequence, ev.Symbol, tags, map[string]interface{}{
		"price": ev.Price,
		"size":  ev.Size,
		"score": score,
	})
	if e.pub != nil {
		e.pub.Publish(*res)
	}
	return res
}

func (e *Engine) recordRuleSkip(ev market.TradeEvent, err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrThresholdMissing):
		reason = "missing_threshold"
	case errors.Is(err, ErrDegenerateBase):
		reason = "degenerate_base"
	}
	if e.mon != nil {
		e.mon.RecordRuleSkipped(reason)
	}
	e.log.LogError(err, map[string]interface{}{
		"sequence": ev.Sequence,
		"symbol":   ev.Symbol,
		"reason":   reason,
	})
}
