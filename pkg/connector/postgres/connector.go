// Package postgres реализует коннектор PostgreSQL поверх pgx/v5.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/schemafx/connectors/pkg/audit"
	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/diff"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

// Name — имя коннектора в реестре
const Name = "postgres"

// Compile-time check: Connector должен реализовывать интерфейс connector.Connector
var _ connector.Connector = (*Connector)(nil)

// Регистрация коннектора в глобальном реестре
func init() {
	connector.Register(Name, func() connector.Connector {
		return New()
	})
}

// Connector — коннектор PostgreSQL.
// Владеет кэшем пулов подключений; жизненный цикл завершается Shutdown.
type Connector struct {
	exec    executor
	builder *sqlgen.Builder
	mapper  Mapper
	log     *slog.Logger
	trail   *audit.Trail
	policy  sqlgen.ConflictPolicy
}

// Option настраивает коннектор
type Option func(*Connector)

// WithLogger задает логгер (по умолчанию slog.Default)
func WithLogger(log *slog.Logger) Option {
	return func(c *Connector) { c.log = log }
}

// WithAuditTrail подключает журнал выполненных запросов
func WithAuditTrail(trail *audit.Trail) Option {
	return func(c *Connector) { c.trail = trail }
}

// WithInsertPolicy задает поведение CreateData при конфликте ключа.
// По умолчанию ConflictFail: обычный INSERT, ошибка при дубликате.
func WithInsertPolicy(policy sqlgen.ConflictPolicy) Option {
	return func(c *Connector) { c.policy = policy }
}

// New создает коннектор PostgreSQL
func New(opts ...Option) *Connector {
	c := &Connector{
		builder: sqlgen.NewBuilder(sqlgen.Postgres{}, Mapper{}),
		log:     slog.Default(),
		policy:  sqlgen.ConflictFail,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.exec = newGateway(c.log)
	return c
}

// Name реализует интерфейс connector.Connector
func (c *Connector) Name() string { return Name }

// AuthFields возвращает декларацию формы учетных данных.
// Статические метаданные для host framework-а.
func (c *Connector) AuthFields() []connector.AuthField {
	return []connector.AuthField{
		{Name: "host", Kind: connector.FieldText, Required: true},
		{Name: "port", Kind: connector.FieldNumber, Required: true},
		{Name: "user", Kind: connector.FieldText, Required: true},
		{Name: "password", Kind: connector.FieldSecret, Required: true},
		{Name: "database", Kind: connector.FieldText, Required: true},
		{Name: "certificate", Kind: connector.FieldSecret, Required: false},
	}
}

// Ping реализует интерфейс connector.Connector
func (c *Connector) Ping(ctx context.Context, creds connector.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	return c.exec.ping(ctx, creds)
}

// Shutdown закрывает все закэшированные пулы и журнал
func (c *Connector) Shutdown(ctx context.Context) error {
	c.exec.shutdown()
	return c.trail.Close()
}

// CreateTable создает таблицу. Возвращает определение без изменений:
// фасад не перечитывает хранилище после мутации.
func (c *Connector) CreateTable(ctx context.Context, creds connector.Credentials, def connector.TableDefinition) (connector.TableDefinition, error) {
	if err := creds.Validate(); err != nil {
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

// UpdateTable вычисляет разницу old→new и применяет ее одной
// ALTER-транзакцией; переименование таблицы выполняется вторым
// запросом после колоночных альтераций.
func (c *Connector) UpdateTable(ctx context.Context, creds connector.Credentials, old, new connector.TableDefinition) (connector.TableDefinition, error) {
	if err := creds.Validate(); err != nil {
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

// DeleteTable удаляет таблицу
func (c *Connector) DeleteTable(ctx context.Context, creds connector.Credentials, def connector.TableDefinition) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	stmt, err := c.builder.DropTable(def)
	if err != nil {
		return err
	}
	return c.run(ctx, creds, "deleteTable", def, stmt)
}

// run выполняет один запрос через gateway и фиксирует его в журнале
func (c *Connector) run(ctx context.Context, creds connector.Credentials, op string, def connector.TableDefinition, stmt sqlgen.Statement) error {
	_, err := c.query(ctx, creds, op, def, stmt)
	return err
}

func (c *Connector) query(ctx context.Context, creds connector.Credentials, op string, def connector.TableDefinition, stmt sqlgen.Statement) ([]connector.Row, error) {
	started := time.Now()
	rows, err := c.exec.execute(ctx, creds, op, stmt)

	table := def.Name
	if name, perr := def.PhysicalName(); perr == nil {
		table = name
	}
	c.trail.Record(ctx, audit.NewEntry(Name, op).
		WithTable(table).
		WithStatement(stmt.SQL, len(stmt.Args)).
		WithDuration(time.Since(started)).
		WithError(err))

	return rows, err
}
