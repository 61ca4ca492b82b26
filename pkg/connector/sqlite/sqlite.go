// Package sqlite реализует коннектор SQLite поверх database/sql
// (драйвер modernc.org/sqlite, без cgo).
package sqlite

import (
	"fmt"
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/connector/base"
	"github.com/schemafx/connectors/pkg/sqlgen"

	_ "modernc.org/sqlite"
)

// Name — имя коннектора в реестре
const Name = "sqlite"

func init() {
	connector.Register(Name, func() connector.Connector {
		return New()
	})
}

// New создает коннектор SQLite
func New(opts ...base.Option) *base.SQLConnector {
	return base.NewSQLConnector(driver{}, opts...)
}

// driver — специфика SQLite для base.SQLConnector
type driver struct{}

func (driver) Name() string       { return Name }
func (driver) DriverName() string { return "sqlite" }

// DSN использует поле Database как путь к файлу базы
// (":memory:" для базы в памяти)
func (driver) DSN(creds connector.Credentials) (string, error) {
	return creds.Database, nil
}

// ValidateCredentials: SQLite локальна, требуется только путь к файлу
func (driver) ValidateCredentials(creds connector.Credentials) error {
	if strings.TrimSpace(creds.Database) == "" {
		return fmt.Errorf("credentials: database is required")
	}
	return nil
}

func (driver) Dialect() sqlgen.Dialect      { return sqlgen.SQLite{} }
func (driver) TypeMapper() sqlgen.TypeMapper { return Mapper{} }

func (driver) AuthFields() []connector.AuthField {
	return []connector.AuthField{
		{Name: "database", Kind: connector.FieldText, Required: true},
	}
}

func (driver) ListTablesStatement() sqlgen.Statement {
	return sqlgen.Statement{SQL: `
		SELECT name AS table_name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`}
}

// ColumnsStatement использует PRAGMA table_info: имя таблицы — часть
// синтаксиса pragma и не может быть связанным параметром, поэтому
// квотируется как идентификатор
func (d driver) ColumnsStatement(table string) sqlgen.Statement {
	return sqlgen.Statement{
		SQL: fmt.Sprintf("PRAGMA table_info(%s)", sqlgen.SQLite{}.QuoteIdentifier(table)),
	}
}

// ParseColumns классифицирует результат PRAGMA table_info:
// колонки name, type, pk (позиция в первичном ключе, 0 = не ключ)
func (d driver) ParseColumns(rows []connector.Row) []connector.Column {
	mapper := Mapper{}
	cols := make([]connector.Column, 0, len(rows))

	for _, row := range rows {
		name, _ := row["name"].(string)
		declType, _ := row["type"].(string)

		pk := false
		if v, ok := row["pk"].(int64); ok {
			pk = v > 0
		}

		cols = append(cols, connector.Column{
			Name: name,
			Type: mapper.FromNative(declType),
			Key:  pk,
		})
	}
	return cols
}
