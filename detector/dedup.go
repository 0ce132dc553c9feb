package detector

import "sync"

// SeenSet 已处理的 sequence 集合，提供并发安全的"查并记"原语。
// maxEntries > 0 时采用两代轮换限制内存：写满一代后整体翻转，
// 最近一半窗口内的序号保证可查。0 表示不限制。
type SeenSet struct {
	mu    sync.Mutex
	limit int
	cur   map[uint64]struct{}
	prev  map[uint64]struct{}
}

func NewSeenSet(maxEntries int) *SeenSet {
	return &SeenSet{
		limit: maxEntries,
		cur:   make(map[uint64]struct{}),
	}
}

// CheckAndMark 原子地检查并登记：已见过返回 true，否则登记后返回 false。
func (s *SeenSet) CheckAndMark(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cur[seq]; ok {
		return true
	}
	if _, ok := s.prev[seq]; ok {
		return true
	}
	if s.limit > 0 && len(s.cur) >= s.limit/2 {
		s.prev = s.cur
		s.cur = make(map[uint64]struct{}, s.limit/2)
	}
	s.cur[seq] = struct{}{}
	return false
}

// Seen 只读查询，不登记。
func (s *SeenSet) Seen(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cur[seq]; ok {
		return true
	}
	_, ok := s.prev[seq]
	return ok
}

// Len 当前持有的序号数量，用于资源监控。
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cur) + len(s.prev)
}
