package audit

import (
	"context"
	"errors"
)

// Appender - приемник записей журнала. Реализации: файл (JSON lines),
// Redis, SQL таблица.
type Appender interface {
	// Append - принять одну запись о выполненном запросе
	Append(ctx context.Context, entry *Entry) error

	// Close - освободить ресурсы приемника
	Close() error
}

// MultiAppender - веерная доставка записи во все настроенные приемники.
// Отказ одного приемника не останавливает доставку в остальные:
// журнал обязан дойти до каждого работающего назначения.
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender - объединить приемники в один
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{appenders: appenders}
}

// Append - доставить запись во все приемники, ошибки собираются вместе
func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var errs []error
	for _, appender := range ma.appenders {
		if err := appender.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close - закрыть все приемники, ошибки собираются вместе
func (ma *MultiAppender) Close() error {
	var errs []error
	for _, appender := range ma.appenders {
		if err := appender.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
