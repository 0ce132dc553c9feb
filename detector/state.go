package detector

import "sync"

// historyCap 价格历史保留条数；快速变动规则只需要最后一个值，
// 保留短序列便于扩展。
const historyCap = 100

// SymbolState 单个标的的滚动状态，由 Store 独占持有。
// 同一标的同一时刻只有一个写者（由 Dispatcher 的分区亲和保证）。
type SymbolState struct {
	prices []float64
	model  *Model // scope=symbol 时按标的独立；global 时为空
}

// LastPrice 最近一次记录的价格；该标的没有历史时 ok 为 false。
func (st *SymbolState) LastPrice() (price float64, ok bool) {
	if len(st.prices) == 0 {
		return 0, false
	}
	return st.prices[len(st.prices)-1], true
}

// RecordPrice 追加价格并修剪历史。
func (st *SymbolState) RecordPrice(p float64) {
	st.prices = append(st.prices, p)
	if len(st.prices) > historyCap {
		st.prices = st.prices[len(st.prices)-historyCap:]
	}
}

// Model 该标的的离群点模型，未启用按标的建模时为 nil。
func (st *SymbolState) Model() *Model {
	return st.model
}

// Store 按标的惰性创建并持有 SymbolState。
type Store struct {
	mu       sync.RWMutex
	states   map[string]*SymbolState
	newModel func() *Model
}

// NewStore 创建状态仓库；newModel 非空时每个标的持有独立模型。
func NewStore(newModel func() *Model) *Store {
	return &Store{
		states:   make(map[string]*SymbolState),
		newModel: newModel,
	}
}

// GetOrCreate 首次访问时创建默认状态，之后返回同一实例。
func (s *Store) GetOrCreate(symbol string) *SymbolState {
	s.mu.RLock()
	st, ok := s.states[symbol]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.states[symbol]; ok {
		return st
	}
	st = &SymbolState{prices: make([]float64, 0, historyCap)}
	if s.newModel != nil {
		st.model = s.newModel()
	}
	s.states[symbol] = st
	return st
}

// Count 已知标的数量。
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
