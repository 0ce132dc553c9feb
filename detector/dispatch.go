package detector

import (
	"hash/fnv"
	"sync"

	"anomaly-engine-go/market"
)

// Dispatcher 分区亲和调度：同一标的的事件按符号哈希固定落到同一条
// 处理通道，保证按到达顺序串行处理；不同标的可并行。
type Dispatcher struct {
	engine  *Engine
	lanes   []chan market.TradeEvent
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewDispatcher 创建 workers 条处理通道，每条缓冲 buffer 个事件。
func NewDispatcher(engine *Engine, workers, buffer int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	lanes := make([]chan market.TradeEvent, workers)
	for i := range lanes {
		lanes[i] = make(chan market.TradeEvent, buffer)
	}
	return &Dispatcher{engine: engine, lanes: lanes}
}

// Start 启动 worker；重复调用无效果。
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for _, lane := range d.lanes {
		d.wg.Add(1)
		go func(ch chan market.TradeEvent) {
			defer d.wg.Done()
			for ev := range ch {
				d.engine.Process(ev)
			}
		}(lane)
	}
}

// Enqueue 把事件投入对应通道。通道满时阻塞，背压传导给上游。
func (d *Dispatcher) Enqueue(ev market.TradeEvent) {
	d.lanes[d.laneFor(ev.Symbol)] <- ev
}

// Stop 关闭所有通道并等待在途事件处理完毕。
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	for _, lane := range d.lanes {
		close(lane)
	}
	d.wg.Wait()
	d.started = false
}

func (d *Dispatcher) laneFor(symbol string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return int(h.Sum32() % uint32(len(d.lanes)))
}
