package market

import "testing"

func TestPublisher(t *testing.T) {
	p := NewPublisher()
	ch := p.Subscribe(1)
	p.Publish(AnomalyResult{
		Event: TradeEvent{Sequence: 7, Symbol: "AAPL", Price: 150, Size: 500},
		Tags:  []string{TagHighVolume},
	})
	got := <-ch
	if got.Event.Sequence != 7 || len(got.Tags) != 1 || got.Tags[0] != TagHighVolume {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestPublisherNonBlocking(t *testing.T) {
	p := NewPublisher()
	_ = p.Subscribe(1)
	// 订阅者不消费时 Publish 不应阻塞。
	for i := 0; i < 10; i++ {
		p.Publish(AnomalyResult{Event: TradeEvent{Sequence: uint64(i)}, Tags: []string{TagRapidChange}})
	}
}
