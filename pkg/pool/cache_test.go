package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakePool struct {
	id     int
	closed bool
}

// TestCache_GetOrCreate проверяет ленивую вставку и повторное использование
func TestCache_GetOrCreate(t *testing.T) {
	cache := NewCache[*fakePool]()

	created := 0
	create := func() (*fakePool, error) {
		created++
		return &fakePool{id: created}, nil
	}

	a, err := cache.GetOrCreate(Identity(1), create)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	b, err := cache.GetOrCreate(Identity(1), create)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if a != b {
		t.Error("Same identity returned different pools")
	}
	if created != 1 {
		t.Errorf("create called %d times, want 1", created)
	}

	if _, err := cache.GetOrCreate(Identity(2), create); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}

// TestCache_CreateError проверяет что ошибка создания не кэшируется
func TestCache_CreateError(t *testing.T) {
	cache := NewCache[*fakePool]()
	boom := errors.New("connect refused")

	if _, err := cache.GetOrCreate(Identity(1), func() (*fakePool, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Expected create error, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Failed create was cached, Len = %d", cache.Len())
	}

	// Следующая попытка создает заново
	p, err := cache.GetOrCreate(Identity(1), func() (*fakePool, error) {
		return &fakePool{id: 7}, nil
	})
	if err != nil || p.id != 7 {
		t.Errorf("Retry after failure: pool=%v err=%v", p, err)
	}
}

// TestCache_ConcurrentFirstUse проверяет что гонка на первом обращении
// оставляет в кэше ровно один пул
func TestCache_ConcurrentFirstUse(t *testing.T) {
	cache := NewCache[*fakePool]()

	var created atomic.Int32
	var wg sync.WaitGroup
	pools := make([]*fakePool, 32)

	for i := range pools {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := cache.GetOrCreate(Identity(99), func() (*fakePool, error) {
				created.Add(1)
				return &fakePool{}, nil
			})
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
			}
			pools[i] = p
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("create called %d times under race, want 1", created.Load())
	}
	for i, p := range pools {
		if p != pools[0] {
			t.Fatalf("Goroutine %d got a different pool", i)
		}
	}
}

// TestCache_Shutdown проверяет закрытие и очистку всех пулов
func TestCache_Shutdown(t *testing.T) {
	cache := NewCache[*fakePool]()

	var all []*fakePool
	for id := 1; id <= 3; id++ {
		p, _ := cache.GetOrCreate(Identity(id), func() (*fakePool, error) {
			return &fakePool{id: id}, nil
		})
		all = append(all, p)
	}

	cache.Shutdown(func(p *fakePool) { p.closed = true })

	if cache.Len() != 0 {
		t.Errorf("Len after shutdown = %d, want 0", cache.Len())
	}
	for _, p := range all {
		if !p.closed {
			t.Errorf("Pool %d not closed", p.id)
		}
	}
}
