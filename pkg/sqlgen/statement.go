package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/diff"
)

// ErrNoRows — builder вызван с пустым набором строк.
// Фасад обязан коротко замыкать пустые наборы до синтеза запроса.
var ErrNoRows = errors.New("sqlgen: empty row set")

// Statement — текст запроса и его позиционные аргументы
type Statement struct {
	SQL  string
	Args []any
}

// TypeMapper — двунаправленное отображение между абстрактными типами
// колонок и нативными типами хранилища. Реализуется каждым коннектором.
type TypeMapper interface {
	// ToNative возвращает нативное имя типа.
	// Возвращает *connector.UnsupportedTypeError для типа вне
	// поддерживаемого множества.
	ToNative(t connector.ColumnType) (string, error)

	// FromNative классифицирует нативный тип. Классификация best-effort:
	// неизвестные нативные типы отображаются в string, пути ошибки нет.
	FromNative(native string) connector.ColumnType
}

// Builder синтезирует запросы для конкретного диалекта и type mapper-а
type Builder struct {
	dialect Dialect
	types   TypeMapper
}

// NewBuilder создает builder для диалекта
func NewBuilder(dialect Dialect, types TypeMapper) *Builder {
	return &Builder{dialect: dialect, types: types}
}

// CreateTable строит CREATE TABLE из определения.
// Параметров нет: запрос состоит только из квотированных идентификаторов
// и нативных имен типов.
func (b *Builder) CreateTable(def connector.TableDefinition) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}

	cols := make([]string, 0, len(def.Columns))
	for _, col := range def.Columns {
		native, err := b.types.ToNative(col.Type)
		if err != nil {
			return Statement{}, err
		}

		colDef := fmt.Sprintf("%s %s", b.dialect.QuoteIdentifier(col.Name), native)
		if col.Key {
			colDef += " PRIMARY KEY"
		}
		cols = append(cols, colDef)
	}

	return Statement{
		SQL: fmt.Sprintf("CREATE TABLE %s (%s)",
			b.dialect.QuoteIdentifier(name), strings.Join(cols, ", ")),
	}, nil
}

// AlterTable строит запросы применяющие результат сравнения схем.
// Колоночные альтерации объединяются запятыми в один ALTER TABLE если
// диалект это допускает, иначе выпускаются по одной на запрос;
// переименование таблицы выполняется отдельным запросом после
// фиксации колоночных изменений и всегда идет последним.
func (b *Builder) AlterTable(res diff.Result) ([]Statement, error) {
	var stmts []Statement

	if len(res.Alterations) > 0 {
		clauses := make([]string, 0, len(res.Alterations))
		for _, alt := range res.Alterations {
			clause, err := b.alterationClause(alt)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}

		table := b.dialect.QuoteIdentifier(res.OldName)
		if b.dialect.CombinesAlterations() {
			stmts = append(stmts, Statement{
				SQL: fmt.Sprintf("ALTER TABLE %s %s", table, strings.Join(clauses, ", ")),
			})
		} else {
			for _, clause := range clauses {
				stmts = append(stmts, Statement{
					SQL: fmt.Sprintf("ALTER TABLE %s %s", table, clause),
				})
			}
		}
	}

	if res.RenameTable {
		stmts = append(stmts, Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
				b.dialect.QuoteIdentifier(res.OldName),
				b.dialect.QuoteIdentifier(res.NewName)),
		})
	}

	return stmts, nil
}

func (b *Builder) alterationClause(alt diff.Alteration) (string, error) {
	switch alt.Op {
	case diff.OpDropColumn:
		return "DROP COLUMN " + b.dialect.QuoteIdentifier(alt.Name), nil

	case diff.OpAddColumn:
		native, err := b.types.ToNative(alt.Type)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ADD COLUMN %s %s", b.dialect.QuoteIdentifier(alt.Name), native), nil

	case diff.OpRetypeColumn:
		native, err := b.types.ToNative(alt.Type)
		if err != nil {
			return "", err
		}
		return b.dialect.RetypeColumnClause(alt.Name, native)

	case diff.OpRenameColumn:
		return fmt.Sprintf("RENAME COLUMN %s TO %s",
			b.dialect.QuoteIdentifier(alt.Name),
			b.dialect.QuoteIdentifier(alt.NewName)), nil

	default:
		return "", fmt.Errorf("unknown alteration op: %q", alt.Op)
	}
}

// DropTable строит DROP TABLE
func (b *Builder) DropTable(def connector.TableDefinition) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "DROP TABLE " + b.dialect.QuoteIdentifier(name)}, nil
}

// SelectAll строит выборку всех строк таблицы без фильтрации.
// Predicate pushdown ядром не поддерживается.
func (b *Builder) SelectAll(def connector.TableDefinition) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "SELECT * FROM " + b.dialect.QuoteIdentifier(name)}, nil
}

// InsertRows строит многострочный INSERT. Для N строк и C колонок
// генерируется N кортежей по C плейсхолдеров, нумерованных 1..N*C
// в row-major порядке; аргументы выстраиваются в том же порядке
// по списку колонок определения таблицы.
func (b *Builder) InsertRows(def connector.TableDefinition, rows []connector.Row, policy ConflictPolicy) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}
	if len(rows) == 0 {
		return Statement{}, ErrNoRows
	}

	colNames := make([]string, len(def.Columns))
	var keyCols, updateCols []string
	for i, col := range def.Columns {
		colNames[i] = b.dialect.QuoteIdentifier(col.Name)
		if col.Key {
			keyCols = append(keyCols, col.Name)
		} else {
			updateCols = append(updateCols, col.Name)
		}
	}

	tuples := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(def.Columns))
	n := 1

	for _, row := range rows {
		phs := make([]string, len(def.Columns))
		for i, col := range def.Columns {
			phs[i] = b.dialect.Placeholder(n)
			n++
			args = append(args, row[col.Name])
		}
		tuples = append(tuples, "("+strings.Join(phs, ", ")+")")
	}

	sql := fmt.Sprintf("%s INTO %s (%s) VALUES %s",
		b.dialect.InsertVerb(policy),
		b.dialect.QuoteIdentifier(name),
		strings.Join(colNames, ", "),
		strings.Join(tuples, ", "))
	sql += b.dialect.ConflictClause(policy, keyCols, updateCols)

	return Statement{SQL: sql, Args: args}, nil
}

// UpdateRowsByKey строит многострочный UPDATE по колонке первичного ключа
// через соединение с синтезированной таблицей значений:
//
//	UPDATE "t" AS t SET "b" = v."b" FROM (VALUES (...), (...))
//	AS v ("a", "b") WHERE t."a" = v."a"
//
// Плейсхолдеры покрывают все колонки (включая ключ) в row-major порядке:
// строки таблицы значений обязаны нести ключ для предиката соединения.
// Требует ровно одну колонку с Key=true; при ее отсутствии возвращает
// *connector.MissingKeyColumnError до какого-либо I/O.
func (b *Builder) UpdateRowsByKey(def connector.TableDefinition, rows []connector.Row) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}
	key, ok := def.KeyColumn()
	if !ok {
		return Statement{}, &connector.MissingKeyColumnError{Table: name}
	}
	if len(rows) == 0 {
		return Statement{}, ErrNoRows
	}

	var sets []string
	colNames := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		q := b.dialect.QuoteIdentifier(col.Name)
		colNames[i] = q
		if col.Name != key.Name {
			sets = append(sets, fmt.Sprintf("%s = v.%s", q, q))
		}
	}

	tuples := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(def.Columns))
	n := 1

	for _, row := range rows {
		phs := make([]string, len(def.Columns))
		for i, col := range def.Columns {
			phs[i] = b.dialect.Placeholder(n)
			n++
			args = append(args, row[col.Name])
		}
		tuples = append(tuples, "("+strings.Join(phs, ", ")+")")
	}

	quotedKey := b.dialect.QuoteIdentifier(key.Name)
	sql := fmt.Sprintf("UPDATE %s AS t SET %s FROM (VALUES %s) AS v (%s) WHERE t.%s = v.%s",
		b.dialect.QuoteIdentifier(name),
		strings.Join(sets, ", "),
		strings.Join(tuples, ", "),
		strings.Join(colNames, ", "),
		quotedKey, quotedKey)

	return Statement{SQL: sql, Args: args}, nil
}

// DeleteRowsByKey строит DELETE c предикатом IN по значениям ключа:
// один плейсхолдер на строку, аргументы — значения ключа в порядке строк.
// Требует колонку с Key=true.
func (b *Builder) DeleteRowsByKey(def connector.TableDefinition, rows []connector.Row) (Statement, error) {
	name, err := def.PhysicalName()
	if err != nil {
		return Statement{}, err
	}
	key, ok := def.KeyColumn()
	if !ok {
		return Statement{}, &connector.MissingKeyColumnError{Table: name}
	}
	if len(rows) == 0 {
		return Statement{}, ErrNoRows
	}

	phs := make([]string, len(rows))
	args := make([]any, len(rows))
	for i, row := range rows {
		phs[i] = b.dialect.Placeholder(i + 1)
		args[i] = row[key.Name]
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		b.dialect.QuoteIdentifier(name),
		b.dialect.QuoteIdentifier(key.Name),
		strings.Join(phs, ", "))

	return Statement{SQL: sql, Args: args}, nil
}
