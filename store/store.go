package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/chaos-io/logokit/logo"
)

var ErrNotFound = errors.New("result not found")

// Entry 一次处理结果，ID 由 ksuid 生成，按时间有序
type Entry struct {
	ID      string
	Created time.Time
	Output  *logo.Output
}

// Store 在内存里保存处理结果，过期的由定时任务清理
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl  time.Duration
	cron *cron.Cron
	now  func() time.Time
	log  zerolog.Logger
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "store").Logger() }
}

func New(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Put(out *logo.Output) *Entry {
	now := s.now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		id = ksuid.New()
	}
	e := &Entry{ID: id.String(), Created: now, Output: out}

	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
	return e
}

func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// List 按创建顺序返回
func (s *Store) List() []*Entry {
	s.mu.RLock()
	list := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].Created.Equal(list[j].Created) {
			return list[i].Created.Before(list[j].Created)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

// Clear 删除全部结果，返回删除的数量
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]*Entry)
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep 删除创建时间早于 maxAge 的结果
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.Created.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Start 按 spec 定时清理过期结果，spec 支持 "@every 1m" 这类写法
func (s *Store) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Sweep(s.ttl); n > 0 {
			s.log.Info().Int("evicted", n).Msg("expired results removed")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	return nil
}

func (s *Store) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
