package postgres

import (
	"context"
	"sync"

	"github.com/schemafx/connectors/pkg/connector"
)

// ReadData читает все строки каждой таблицы. Запросы выполняются
// параллельно (fan-out) и все завершения ожидаются перед возвратом;
// порядок результата повторяет порядок defs независимо от порядка
// завершения. Гарантий упорядоченности между запросами нет.
func (c *Connector) ReadData(ctx context.Context, creds connector.Credentials, defs []connector.TableDefinition) ([][]connector.Row, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	results := make([][]connector.Row, len(defs))
	errs := make([]error, len(defs))

	var wg sync.WaitGroup
	for i, def := range defs {
		wg.Add(1)
		go func(i int, def connector.TableDefinition) {
			defer wg.Done()

			stmt, err := c.builder.SelectAll(def)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = c.query(ctx, creds, "readData", def, stmt)
		}(i, def)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// CreateData вставляет строки одним многострочным INSERT.
// Пустой набор строк — no-op: запрос не выполняется, вход возвращается
// без изменений.
func (c *Connector) CreateData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	stmt, err := c.builder.InsertRows(def, rows, c.policy)
	if err != nil {
		return nil, err
	}
	if err := c.run(ctx, creds, "createData", def, stmt); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateData обновляет строки по колонке первичного ключа одним запросом
// через соединение с таблицей значений. Таблица без ключевой колонки
// отклоняется до какого-либо I/O.
func (c *Connector) UpdateData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	stmt, err := c.builder.UpdateRowsByKey(def, rows)
	if err != nil {
		return nil, err
	}
	if err := c.run(ctx, creds, "updateData", def, stmt); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteData удаляет строки по значениям ключа предикатом IN
func (c *Connector) DeleteData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	stmt, err := c.builder.DeleteRowsByKey(def, rows)
	if err != nil {
		return nil, err
	}
	if err := c.run(ctx, creds, "deleteData", def, stmt); err != nil {
		return nil, err
	}
	return rows, nil
}
