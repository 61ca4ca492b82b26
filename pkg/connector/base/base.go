// Package base содержит общую реализацию коннектора поверх database/sql.
// Коннекторы конкретных СУБД (sqlite, mysql) поставляют Driver с диалектом,
// type mapper-ом и запросами каталога; остальная оркестрация общая.
package base

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/schemafx/connectors/pkg/audit"
	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/diff"
	"github.com/schemafx/connectors/pkg/pool"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

// Driver — специфика конкретной СУБД для SQLConnector
type Driver interface {
	// Name — имя коннектора в реестре
	Name() string

	// DriverName — имя драйвера database/sql
	DriverName() string

	// DSN строит строку подключения из учетных данных
	DSN(creds connector.Credentials) (string, error)

	// ValidateCredentials проверяет учетные данные
	// (набор обязательных полей различается между СУБД)
	ValidateCredentials(creds connector.Credentials) error

	// Dialect — SQL-диалект СУБД
	Dialect() sqlgen.Dialect

	// TypeMapper — отображение типов СУБД
	TypeMapper() sqlgen.TypeMapper

	// AuthFields — декларация формы учетных данных
	AuthFields() []connector.AuthField

	// ListTablesStatement — запрос списка таблиц; результат должен
	// содержать колонку "table_name"
	ListTablesStatement() sqlgen.Statement

	// ColumnsStatement — запрос колонок таблицы в порядке определения
	ColumnsStatement(table string) sqlgen.Statement

	// ParseColumns классифицирует результат ColumnsStatement
	// в абстрактные колонки (имя, тип, признак ключа)
	ParseColumns(rows []connector.Row) []connector.Column
}

// SQLConnector — общий коннектор поверх database/sql.
//
// UpdateData синтезируется как UPSERT (вставить-или-обновить по ключу):
// для СУБД без соединения с таблицей значений это эквивалентная
// однозапросная форма обновления по ключу.
type SQLConnector struct {
	driver  Driver
	builder *sqlgen.Builder
	cache   *pool.Cache[*sql.DB]
	log     *slog.Logger
	trail   *audit.Trail
	policy  sqlgen.ConflictPolicy
}

// Option настраивает SQLConnector
type Option func(*SQLConnector)

// WithLogger задает логгер
func WithLogger(log *slog.Logger) Option {
	return func(c *SQLConnector) { c.log = log }
}

// WithAuditTrail подключает журнал выполненных запросов
func WithAuditTrail(trail *audit.Trail) Option {
	return func(c *SQLConnector) { c.trail = trail }
}

// WithInsertPolicy задает поведение CreateData при конфликте ключа
func WithInsertPolicy(policy sqlgen.ConflictPolicy) Option {
	return func(c *SQLConnector) { c.policy = policy }
}

// NewSQLConnector создает коннектор для драйвера
func NewSQLConnector(driver Driver, opts ...Option) *SQLConnector {
	c := &SQLConnector{
		driver:  driver,
		builder: sqlgen.NewBuilder(driver.Dialect(), driver.TypeMapper()),
		cache:   pool.NewCache[*sql.DB](),
		log:     slog.Default(),
		policy:  sqlgen.ConflictFail,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name реализует интерфейс connector.Connector
func (c *SQLConnector) Name() string { return c.driver.Name() }

// AuthFields реализует интерфейс connector.Connector
func (c *SQLConnector) AuthFields() []connector.AuthField { return c.driver.AuthFields() }

// Ping реализует интерфейс connector.Connector
func (c *SQLConnector) Ping(ctx context.Context, creds connector.Credentials) error {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return err
	}
	db, id, err := c.acquireDB(creds)
	if err != nil {
		c.log.Error("failed to open database",
			"connector", c.Name(), "pool", id.String(), "error", err)
		return &connector.ExecutionFailedError{Connector: c.Name(), Operation: "ping"}
	}
	if err := db.PingContext(ctx); err != nil {
		c.log.Error("ping failed",
			"connector", c.Name(), "pool", id.String(), "error", err)
		return &connector.ExecutionFailedError{Connector: c.Name(), Operation: "ping"}
	}
	return nil
}

// Shutdown закрывает все закэшированные подключения и журнал
func (c *SQLConnector) Shutdown(ctx context.Context) error {
	c.cache.Shutdown(func(db *sql.DB) { db.Close() })
	return c.trail.Close()
}

func (c *SQLConnector) acquireDB(creds connector.Credentials) (*sql.DB, pool.Identity, error) {
	id := pool.IdentityFor(creds)
	db, err := c.cache.GetOrCreate(id, func() (*sql.DB, error) {
		dsn, err := c.driver.DSN(creds)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open(c.driver.DriverName(), dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		return db, nil
	})
	return db, id, err
}

// execute выполняет один запрос; детали ошибок остаются в локальном логе
func (c *SQLConnector) execute(ctx context.Context, creds connector.Credentials, op string, stmt sqlgen.Statement) ([]connector.Row, error) {
	db, id, err := c.acquireDB(creds)
	if err != nil {
		c.log.Error("failed to open database",
			"connector", c.Name(), "operation", op, "pool", id.String(), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: c.Name(), Operation: op}
	}

	rows, err := db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		c.log.Error("statement execution failed",
			"connector", c.Name(), "operation", op, "pool", id.String(),
			"sql", stmt.SQL, "args", len(stmt.Args), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: c.Name(), Operation: op}
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		c.log.Error("failed to read result rows",
			"connector", c.Name(), "operation", op, "pool", id.String(), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: c.Name(), Operation: op}
	}
	return result, nil
}

// collectRows сканирует database/sql строки в карты имя→значение.
// []byte приводится к string: текстовые драйверы (mysql) возвращают
// текстовые значения байтовыми срезами.
func collectRows(rows *sql.Rows) ([]connector.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []connector.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(connector.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *SQLConnector) run(ctx context.Context, creds connector.Credentials, op string, def connector.TableDefinition, stmt sqlgen.Statement) error {
	_, err := c.query(ctx, creds, op, def, stmt)
	return err
}

func (c *SQLConnector) query(ctx context.Context, creds connector.Credentials, op string, def connector.TableDefinition, stmt sqlgen.Statement) ([]connector.Row, error) {
	started := time.Now()
	rows, err := c.execute(ctx, creds, op, stmt)

	table := def.Name
	if name, perr := def.PhysicalName(); perr == nil {
		table = name
	}
	c.trail.Record(ctx, audit.NewEntry(c.Name(), op).
		WithTable(table).
		WithStatement(stmt.SQL, len(stmt.Args)).
		WithDuration(time.Since(started)).
		WithError(err))

	return rows, err
}

// ========== Таблицы ==========

// ListTables реализует интерфейс connector.Connector
func (c *SQLConnector) ListTables(ctx context.Context, creds connector.Credentials) ([]connector.TableDefinition, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	rows, err := c.execute(ctx, creds, "listTables", c.driver.ListTablesStatement())
	if err != nil {
		return nil, err
	}

	defs := make([]connector.TableDefinition, 0, len(rows))
	for _, row := range rows {
		name, _ := row["table_name"].(string)
		defs = append(defs, connector.TableDefinition{
			Name:           name,
			ConnectionPath: []string{name},
			Connector:      c.Name(),
		})
	}
	return defs, nil
}

// ReadTable реализует интерфейс connector.Connector
func (c *SQLConnector) ReadTable(ctx context.Context, creds connector.Credentials, path []string) (connector.TableDefinition, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return connector.TableDefinition{}, err
	}
	if len(path) == 0 {
		return connector.TableDefinition{}, errEmptyPath
	}
	table := path[0]

	rows, err := c.execute(ctx, creds, "readTable", c.driver.ColumnsStatement(table))
	if err != nil {
		return connector.TableDefinition{}, err
	}
	if len(rows) == 0 {
		return connector.TableDefinition{}, errTableNotFound(table)
	}

	return connector.TableDefinition{
		Name:           table,
		ConnectionPath: append([]string(nil), path...),
		Columns:        c.driver.ParseColumns(rows),
		Connector:      c.Name(),
	}, nil
}

// CreateTable реализует интерфейс connector.Connector
func (c *SQLConnector) CreateTable(ctx context.Context, creds connector.Credentials, def connector.TableDefinition) (connector.TableDefinition, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return connector.TableDefinition{}, err
	}

	stmt, err := c.builder.CreateTable(def)
	if err != nil {
		return connector.TableDefinition{}, err
	}
	if err := c.run(ctx, creds, "createTable", def, stmt); err != nil {
		return connector.TableDefinition{}, err
	}
	return def, nil
}

// UpdateTable реализует интерфейс connector.Connector
func (c *SQLConnector) UpdateTable(ctx context.Context, creds connector.Credentials, old, new connector.TableDefinition) (connector.TableDefinition, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return connector.TableDefinition{}, err
	}

	res, err := diff.Tables(old, new)
	if err != nil {
		return connector.TableDefinition{}, err
	}
	if res.Empty() {
		return new, nil
	}

	stmts, err := c.builder.AlterTable(res)
	if err != nil {
		return connector.TableDefinition{}, err
	}
	for _, stmt := range stmts {
		if err := c.run(ctx, creds, "updateTable", old, stmt); err != nil {
			return connector.TableDefinition{}, err
		}
	}
	return new, nil
}

// DeleteTable реализует интерфейс connector.Connector
func (c *SQLConnector) DeleteTable(ctx context.Context, creds connector.Credentials, def connector.TableDefinition) error {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return err
	}

	stmt, err := c.builder.DropTable(def)
	if err != nil {
		return err
	}
	return c.run(ctx, creds, "deleteTable", def, stmt)
}

// ========== Данные ==========

// ReadData реализует интерфейс connector.Connector: параллельный fan-out
// по таблицам, результат в порядке defs
func (c *SQLConnector) ReadData(ctx context.Context, creds connector.Credentials, defs []connector.TableDefinition) ([][]connector.Row, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
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

// CreateData реализует интерфейс connector.Connector
func (c *SQLConnector) CreateData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
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

// UpdateData реализует интерфейс connector.Connector.
// Обновление синтезируется как UPSERT по ключевой колонке; таблица
// без ключа отклоняется до какого-либо I/O.
func (c *SQLConnector) UpdateData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	if _, ok := def.KeyColumn(); !ok {
		name := def.Name
		if n, err := def.PhysicalName(); err == nil {
			name = n
		}
		return nil, &connector.MissingKeyColumnError{Table: name}
	}

	stmt, err := c.builder.InsertRows(def, rows, sqlgen.ConflictReplace)
	if err != nil {
		return nil, err
	}
	if err := c.run(ctx, creds, "updateData", def, stmt); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteData реализует интерфейс connector.Connector
func (c *SQLConnector) DeleteData(ctx context.Context, creds connector.Credentials, def connector.TableDefinition, rows []connector.Row) ([]connector.Row, error) {
	if err := c.driver.ValidateCredentials(creds); err != nil {
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
