// Package sqlgen строит параметризованные DDL/DML запросы из абстрактных
// определений таблиц. Каждый builder — чистая функция структурированного
// входа в (текст, позиционные аргументы), тестируемая без подключения к БД.
//
// Жесткий инвариант безопасности: идентификаторы всегда квотируются,
// значения всегда передаются связанными параметрами и никогда не
// интерполируются в текст запроса.
package sqlgen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRetypeNotSupported — диалект не умеет менять тип существующей колонки
var ErrRetypeNotSupported = errors.New("sqlgen: dialect does not support column type change")

// ConflictPolicy — поведение INSERT при конфликте первичного ключа
type ConflictPolicy string

const (
	// ConflictFail — обычный INSERT, ошибка при дубликате
	ConflictFail ConflictPolicy = "fail"

	// ConflictIgnore — пропустить дубликаты
	ConflictIgnore ConflictPolicy = "ignore"

	// ConflictReplace — UPSERT: вставить или обновить по ключу
	ConflictReplace ConflictPolicy = "replace"
)

// Dialect инкапсулирует различия SQL-диалектов хранилищ
type Dialect interface {
	// Name возвращает имя диалекта
	Name() string

	// QuoteIdentifier квотирует идентификатор таблицы или колонки.
	// Квотирование безусловное, встроенные кавычки экранируются.
	QuoteIdentifier(name string) string

	// Placeholder возвращает позиционный плейсхолдер для n-го параметра (с 1)
	Placeholder(n int) string

	// RetypeColumnClause возвращает клаузу ALTER для смены типа колонки.
	// Возвращает ErrRetypeNotSupported если диалект не умеет менять тип
	// существующей колонки.
	RetypeColumnClause(name, nativeType string) (string, error)

	// CombinesAlterations сообщает допускает ли диалект несколько клауз
	// в одном ALTER TABLE через запятую. Для диалектов с одной клаузой
	// на запрос builder выпускает отдельный запрос на каждую альтерацию.
	CombinesAlterations() bool

	// InsertVerb возвращает начальное ключевое слово INSERT для политики
	InsertVerb(policy ConflictPolicy) string

	// ConflictClause возвращает суффикс INSERT для политики конфликтов
	// (пустая строка если конфликт выражается через InsertVerb либо policy=fail)
	ConflictClause(policy ConflictPolicy, keyCols, updateCols []string) string
}

// ========== PostgreSQL ==========

// Postgres — диалект PostgreSQL: двойные кавычки, плейсхолдеры $n
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d Postgres) RetypeColumnClause(name, nativeType string) (string, error) {
	return fmt.Sprintf("ALTER COLUMN %s TYPE %s", d.QuoteIdentifier(name), nativeType), nil
}

func (Postgres) CombinesAlterations() bool { return true }

func (Postgres) InsertVerb(ConflictPolicy) string { return "INSERT" }

func (d Postgres) ConflictClause(policy ConflictPolicy, keyCols, updateCols []string) string {
	return onConflictClause(d, policy, keyCols, updateCols)
}

// ========== SQLite ==========

// SQLite — диалект SQLite: двойные кавычки, нумерованные плейсхолдеры ?n.
// Синтаксис ON CONFLICT совпадает с PostgreSQL, но ALTER TABLE принимает
// ровно одну клаузу на запрос и не имеет формы смены типа колонки.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(n int) string {
	return fmt.Sprintf("?%d", n)
}

// RetypeColumnClause: смена декларируемого типа в SQLite требует пересборки
// таблицы (create-copy-drop-rename) и здесь не синтезируется
func (d SQLite) RetypeColumnClause(name, nativeType string) (string, error) {
	return "", fmt.Errorf("sqlite: column %s: %w", d.QuoteIdentifier(name), ErrRetypeNotSupported)
}

func (SQLite) CombinesAlterations() bool { return false }

func (SQLite) InsertVerb(ConflictPolicy) string { return "INSERT" }

func (d SQLite) ConflictClause(policy ConflictPolicy, keyCols, updateCols []string) string {
	return onConflictClause(d, policy, keyCols, updateCols)
}

// onConflictClause строит ON CONFLICT для PostgreSQL/SQLite
func onConflictClause(d Dialect, policy ConflictPolicy, keyCols, updateCols []string) string {
	if policy == ConflictFail || len(keyCols) == 0 {
		return ""
	}

	quoted := make([]string, len(keyCols))
	for i, col := range keyCols {
		quoted[i] = d.QuoteIdentifier(col)
	}
	clause := fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(quoted, ", "))

	if policy == ConflictIgnore || len(updateCols) == 0 {
		return clause + " DO NOTHING"
	}

	updates := make([]string, len(updateCols))
	for i, col := range updateCols {
		q := d.QuoteIdentifier(col)
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
	}
	return clause + " DO UPDATE SET " + strings.Join(updates, ", ")
}

// ========== MySQL ==========

// MySQL — диалект MySQL: обратные кавычки, плейсхолдеры ?.
// Конфликты выражаются через INSERT IGNORE и ON DUPLICATE KEY UPDATE.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder игнорирует номер: MySQL связывает параметры строго по позиции,
// что совпадает с row-major порядком аргументов builder-ов
func (MySQL) Placeholder(int) string { return "?" }

func (d MySQL) RetypeColumnClause(name, nativeType string) (string, error) {
	return fmt.Sprintf("MODIFY COLUMN %s %s", d.QuoteIdentifier(name), nativeType), nil
}

func (MySQL) CombinesAlterations() bool { return true }

func (MySQL) InsertVerb(policy ConflictPolicy) string {
	if policy == ConflictIgnore {
		return "INSERT IGNORE"
	}
	return "INSERT"
}

func (d MySQL) ConflictClause(policy ConflictPolicy, keyCols, updateCols []string) string {
	if policy != ConflictReplace || len(updateCols) == 0 {
		return ""
	}

	updates := make([]string, len(updateCols))
	for i, col := range updateCols {
		q := d.QuoteIdentifier(col)
		updates[i] = fmt.Sprintf("%s = VALUES(%s)", q, q)
	}
	return " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
}
