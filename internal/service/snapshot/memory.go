package snapshot

import (
	"errors"
	"sync"
	"time"

	"github.com/GoldenArt-IT/fabric-analysis/internal/calculator"
	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// ErrNoSnapshot 尚未加载任何数据
var ErrNoSnapshot = errors.New("no data snapshot loaded")

// Snapshot 一次加载得到的只读数据快照
// 发布后不再修改，请求之间共享同一指针即可互不影响
type Snapshot struct {
	ID          string
	Source      string
	LoadedAt    time.Time
	Fingerprint string // 源数据与列对声明的内容摘要
	Dashboard   *calculator.Dashboard
}

// Info 快照摘要
func (s *Snapshot) Info() model.SnapshotInfo {
	ds := s.Dashboard.Dataset()
	return model.SnapshotInfo{
		ID:       s.ID,
		Source:   s.Source,
		LoadedAt: s.LoadedAt,
		Rows:     ds.Len(),
		Pairs:    len(ds.Pairing.Pairs),
		Warnings: ds.Warnings(),
	}
}

// MemoryStore 内存快照存储
type MemoryStore struct {
	current   *Snapshot
	checkedAt time.Time // 最近一次确认数据源与当前快照一致的时间
	swaps     int
	mu        sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get 获取当前快照
func (s *MemoryStore) Get() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// Set 发布新快照，返回被替换的旧快照（可能为 nil）
func (s *MemoryStore) Set(snap *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.current = snap
	s.checkedAt = snap.LoadedAt
	s.swaps++
	return prev
}

// Touch 数据源内容未变化时刷新确认时间，快照本身不变
func (s *MemoryStore) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && now.After(s.checkedAt) {
		s.checkedAt = now
	}
}

// Age 距最近一次确认数据的时长；没有快照时返回 false
func (s *MemoryStore) Age(now time.Time) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return 0, false
	}
	return now.Sub(s.checkedAt), true
}

// Stale 快照是否超过 ttl 未刷新；没有快照视为过期
func (s *MemoryStore) Stale(now time.Time, ttl time.Duration) bool {
	age, ok := s.Age(now)
	if !ok {
		return true
	}
	return ttl > 0 && age > ttl
}

// Swaps 已发布的快照次数
func (s *MemoryStore) Swaps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.swaps
}
