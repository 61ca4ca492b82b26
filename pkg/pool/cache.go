package pool

import "sync"

// Cache — кэш пулов подключений: Identity → хэндл пула.
// T — тип хэндла конкретного драйвера (*pgxpool.Pool, *sql.DB).
//
// Вставка ленивая и гонко-безопасная: при одновременном первом обращении
// к новой идентичности создается и сохраняется ровно один пул.
type Cache[T any] struct {
	mu    sync.Mutex
	pools map[Identity]T
}

// NewCache создает пустой кэш
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{pools: make(map[Identity]T)}
}

// GetOrCreate возвращает пул для идентичности, создавая его через create
// при первом обращении. Создание выполняется под блокировкой: конкурирующие
// вызовы по одной идентичности получают один и тот же хэндл.
func (c *Cache[T]) GetOrCreate(id Identity, create func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pools[id]; ok {
		return p, nil
	}

	p, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	c.pools[id] = p
	return p, nil
}

// Len возвращает количество закэшированных пулов
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pools)
}

// Shutdown закрывает каждый пул через close и очищает кэш
func (c *Cache[T]) Shutdown(close func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, p := range c.pools {
		close(p)
		delete(c.pools, id)
	}
}
