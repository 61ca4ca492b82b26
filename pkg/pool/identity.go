// Package pool реализует кэш пулов подключений, ключуемый детерминированной
// идентичностью учетных данных. Кэш принадлежит экземпляру коннектора
// и живет до явного Shutdown; глобального состояния пакет не держит.
package pool

import (
	"fmt"
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
	"github.com/zeebo/xxh3"
)

// Identity — детерминированный ключ пула подключений.
// Два набора учетных данных, нормализующиеся в один и тот же кортеж
// (host, port, user, password, database, certificate), обязаны разделять
// один пул.
type Identity uint64

// String возвращает hex-представление для логов
func (id Identity) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// IdentityFor вычисляет идентичность из нормализованного упорядоченного
// кортежа полей. Хеш xxh3 (64-bit): порядок полей фиксирован, поэтому
// представление на стороне вызывающего (порядок полей в его структурах)
// на результат не влияет.
func IdentityFor(creds connector.Credentials) Identity {
	tuple := strings.Join([]string{
		strings.TrimSpace(creds.Host),
		strings.TrimSpace(creds.Port),
		creds.User,
		creds.Password,
		creds.Database,
		creds.Certificate,
	}, "\x1f")
	return Identity(xxh3.HashString(tuple))
}
