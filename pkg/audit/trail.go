package audit

import (
	"context"
	"sync"
)

// TrailConfig - конфигурация журнала
type TrailConfig struct {
	// AsyncMode - асинхронная запись в appenders
	AsyncMode bool

	// BufferSize - размер буфера для асинхронного режима
	BufferSize int

	// OnError - callback при ошибке записи
	OnError func(error)
}

// Trail - журнал выполненных запросов.
// Nil-значение безопасно: Record на nil Trail ничего не делает,
// поэтому журнал у коннектора опционален.
type Trail struct {
	appender Appender
	config   TrailConfig

	ch     chan *Entry
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewTrail - создать журнал поверх appender-ов
func NewTrail(config TrailConfig, appenders ...Appender) *Trail {
	t := &Trail{
		appender: NewMultiAppender(appenders...),
		config:   config,
	}

	if config.AsyncMode {
		size := config.BufferSize
		if size <= 0 {
			size = 1000
		}
		t.ch = make(chan *Entry, size)
		t.wg.Add(1)
		go t.drain()
	}

	return t
}

// Record - записать entry в журнал.
// В асинхронном режиме при переполненном буфере запись отбрасывается:
// журнал не должен блокировать выполнение запросов.
func (t *Trail) Record(ctx context.Context, entry *Entry) {
	if t == nil || entry == nil {
		return
	}

	if t.ch != nil {
		// Отправка под мьютексом: Close конкурентно закрывает канал,
		// проверка closed и отправка обязаны быть атомарны.
		// Отправка неблокирующая, мьютекс задерживается лишь на вставку в буфер.
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return
		}
		select {
		case t.ch <- entry:
			t.mu.Unlock()
		default:
			t.mu.Unlock()
			t.reportError(errBufferFull)
		}
		return
	}

	if err := t.appender.Append(ctx, entry); err != nil {
		t.reportError(err)
	}
}

func (t *Trail) drain() {
	defer t.wg.Done()
	for entry := range t.ch {
		if err := t.appender.Append(context.Background(), entry); err != nil {
			t.reportError(err)
		}
	}
}

func (t *Trail) reportError(err error) {
	if t.config.OnError != nil {
		t.config.OnError(err)
	}
}

// Close - дописать буфер и закрыть appenders
func (t *Trail) Close() error {
	if t == nil {
		return nil
	}

	if t.ch != nil {
		t.mu.Lock()
		if !t.closed {
			t.closed = true
			close(t.ch)
		}
		t.mu.Unlock()
		t.wg.Wait()
	}

	return t.appender.Close()
}

type trailError string

func (e trailError) Error() string { return string(e) }

const errBufferFull = trailError("audit: entry buffer full, entry dropped")
