package activity

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"signer-core/internal/model"
)

// MemoryStore 未启用数据库时使用的内存存储
type MemoryStore struct {
	mu           sync.RWMutex
	activities   map[string]model.Activity
	fingerprints map[string]string
	subs         []model.NotificationSubscription
	nextSubID    uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		activities:   make(map[string]model.Activity),
		fingerprints: make(map[string]string),
	}
}

func (s *MemoryStore) Save(ctx context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fingerprints[a.Fingerprint]; ok {
		return ErrDuplicate
	}
	s.activities[a.ID] = *a
	s.fingerprints[a.Fingerprint] = a.ID
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) List(ctx context.Context, account string, limit int) ([]model.Activity, error) {
	s.mu.RLock()
	out := make([]model.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		if account == "" || strings.EqualFold(a.Account, account) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Activity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status string) error {
	return s.update(id, func(a *model.Activity) { a.Status = status })
}

func (s *MemoryStore) MarkNotified(ctx context.Context, id string) error {
	return s.update(id, func(a *model.Activity) { a.Notified = true })
}

func (s *MemoryStore) update(id string, fn func(a *model.Activity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now()
	s.activities[id] = a
	return nil
}

func (s *MemoryStore) PruneSettled(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.activities {
		if a.Status != model.ActivityStatusPending && a.CreatedAt.Before(cutoff) {
			delete(s.activities, id)
			delete(s.fingerprints, a.Fingerprint)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AddSubscription(ctx context.Context, sub *model.NotificationSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.subs {
		if strings.EqualFold(existing.Account, sub.Account) && existing.Channel == sub.Channel {
			sub.ID = existing.ID
			s.subs[i] = *sub
			return nil
		}
	}
	s.nextSubID++
	sub.ID = s.nextSubID
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	s.subs = append(s.subs, *sub)
	return nil
}

func (s *MemoryStore) Subscriptions(ctx context.Context, account string) ([]model.NotificationSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.NotificationSubscription
	for _, sub := range s.subs {
		if strings.EqualFold(sub.Account, account) {
			out = append(out, sub)
		}
	}
	return out, nil
}
