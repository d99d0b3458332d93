package repository

import (
	"context"
	"sort"
	"sync"

	"shortlink-proxy/internal/model"
)

// MemoryStore 进程内存储，重启即丢失，用于开发和测试
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]model.ShortLink
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]model.ShortLink)}
}

func (s *MemoryStore) Get(_ context.Context, code string) (*model.ShortLink, error) {
	s.mu.RLock()
	link, ok := s.links[code]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &link, nil
}

func (s *MemoryStore) Exists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	_, ok := s.links[code]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStore) Set(_ context.Context, link *model.ShortLink) error {
	s.mu.Lock()
	s.links[link.Code] = *link
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.ShortLink, error) {
	s.mu.RLock()
	links := make([]model.ShortLink, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	s.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool { return links[i].Code < links[j].Code })
	return links, nil
}

// Len 当前记录数
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

func (s *MemoryStore) Close() error { return nil }
