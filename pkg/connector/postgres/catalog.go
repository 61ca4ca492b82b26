package postgres

import (
	"context"
	"fmt"

	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

const listTablesSQL = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public'
	  AND table_type = 'BASE TABLE'
	ORDER BY table_name
`

const listColumnsSQL = `
	SELECT column_name, data_type
	FROM information_schema.columns
	WHERE table_schema = 'public'
	  AND table_name = $1
	ORDER BY ordinal_position
`

const listKeyColumnsSQL = `
	SELECT kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON tc.constraint_name = kcu.constraint_name
	 AND tc.table_schema = kcu.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
	  AND tc.table_schema = 'public'
	  AND tc.table_name = $1
`

// ListTables возвращает по одной терминальной записи на каждую таблицу
// схемы public. Пространство имен плоское, вложенности нет.
func (c *Connector) ListTables(ctx context.Context, creds connector.Credentials) ([]connector.TableDefinition, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	rows, err := c.exec.execute(ctx, creds, "listTables", sqlgen.Statement{SQL: listTablesSQL})
	if err != nil {
		return nil, err
	}

	defs := make([]connector.TableDefinition, 0, len(rows))
	for _, row := range rows {
		name := rowString(row, "table_name")
		defs = append(defs, connector.TableDefinition{
			Name:           name,
			ConnectionPath: []string{name},
			Connector:      Name,
		})
	}
	return defs, nil
}

// ReadTable читает колонки таблицы из каталога, классифицирует каждый
// нативный тип через mapper и собирает определение таблицы
func (c *Connector) ReadTable(ctx context.Context, creds connector.Credentials, path []string) (connector.TableDefinition, error) {
	if err := creds.Validate(); err != nil {
		return connector.TableDefinition{}, err
	}
	if len(path) == 0 {
		return connector.TableDefinition{}, fmt.Errorf("empty connection path")
	}
	table := path[0]

	colRows, err := c.exec.execute(ctx, creds, "readTable",
		sqlgen.Statement{SQL: listColumnsSQL, Args: []any{table}})
	if err != nil {
		return connector.TableDefinition{}, err
	}
	if len(colRows) == 0 {
		return connector.TableDefinition{}, fmt.Errorf("table %q not found or has no columns", table)
	}

	keyRows, err := c.exec.execute(ctx, creds, "readTable",
		sqlgen.Statement{SQL: listKeyColumnsSQL, Args: []any{table}})
	if err != nil {
		return connector.TableDefinition{}, err
	}

	keys := make(map[string]bool, len(keyRows))
	for _, row := range keyRows {
		keys[rowString(row, "column_name")] = true
	}

	cols := make([]connector.Column, 0, len(colRows))
	for _, row := range colRows {
		name := rowString(row, "column_name")
		cols = append(cols, connector.Column{
			Name: name,
			Type: c.mapper.FromNative(rowString(row, "data_type")),
			Key:  keys[name],
		})
	}

	return connector.TableDefinition{
		Name:           table,
		ConnectionPath: append([]string(nil), path...),
		Columns:        cols,
		Connector:      Name,
	}, nil
}

// rowString извлекает строковое значение колонки результата
func rowString(row connector.Row, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	return fmt.Sprintf("%v", row[col])
}
