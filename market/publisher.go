package market

import "sync"

// Publisher 一个轻量事件分发器，向下游订阅者广播检测结果。
// Publish 永不阻塞：订阅者缓冲满时丢弃，投递保证由下游自行负责。
type Publisher struct {
	mu   sync.RWMutex
	subs []chan AnomalyResult
}

func NewPublisher() *Publisher {
	return &Publisher{
		subs: make([]chan AnomalyResult, 0),
	}
}

// Subscribe 返回一个带缓冲的结果通道。
func (p *Publisher) Subscribe(buffer int) <-chan AnomalyResult {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan AnomalyResult, buffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Publish 非阻塞投递到所有订阅者。
func (p *Publisher) Publish(r AnomalyResult) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- r:
		default:
		}
	}
}
