package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore はTTLと最大エントリ数で保持を打ち切るインメモリストアです。
// 容量超過時は最も古くアクセスされたエントリから破棄します。
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]*list.Element
	order   *list.List // 先頭が最新アクセス
	now     func() time.Time
}

type memoryEntry struct {
	token     string
	artifact  *Artifact
	expiresAt time.Time
}

// NewMemoryStore は MemoryStore を作成します。
// ttl<=0 は期限なし、maxEntries<=0 は容量無制限を意味します。
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Put は成果物を保存します。同一トークンへの上書きは置き換えになります。
func (s *MemoryStore) Put(ctx context.Context, token string, artifact *Artifact) error {
	if token == "" {
		return fmt.Errorf("cache: token is required")
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return fmt.Errorf("cache: artifact is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &memoryEntry{token: token, artifact: artifact}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	if elem, ok := s.entries[token]; ok {
		elem.Value = entry
		s.order.MoveToFront(elem)
	} else {
		s.entries[token] = s.order.PushFront(entry)
	}

	s.sweepLocked()
	return nil
}

// Get は成果物を取得し、アクセス順を更新します。
func (s *MemoryStore) Get(ctx context.Context, token string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[token]
	if !ok {
		return nil, ErrNotFound
	}

	entry := elem.Value.(*memoryEntry)
	if s.expiredLocked(entry) {
		s.removeLocked(elem)
		return nil, ErrNotFound
	}

	s.order.MoveToFront(elem)
	return entry.artifact, nil
}

// Evict はトークンに対応するエントリを破棄します。存在しない場合も成功します。
func (s *MemoryStore) Evict(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[token]; ok {
		s.removeLocked(elem)
	}
	return nil
}

// Len は現在のエントリ数を返します（テスト用途）。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expiredLocked(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}

// sweepLocked は期限切れと容量超過のエントリを末尾から破棄します。
func (s *MemoryStore) sweepLocked() {
	for elem := s.order.Back(); elem != nil; {
		prev := elem.Prev()
		if s.expiredLocked(elem.Value.(*memoryEntry)) {
			s.removeLocked(elem)
		}
		elem = prev
	}
	if s.max <= 0 {
		return
	}
	for len(s.entries) > s.max {
		s.removeLocked(s.order.Back())
	}
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	delete(s.entries, entry.token)
	s.order.Remove(elem)
}
