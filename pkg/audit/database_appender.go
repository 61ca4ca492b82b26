package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// DatabaseAppender - запись журнала в SQL таблицу.
// Держит отдельное подключение: журнал не должен делить пул
// с наблюдаемыми запросами.
type DatabaseAppender struct {
	db        *sql.DB
	tableName string
}

// DatabaseAppenderConfig - конфигурация database appender
type DatabaseAppenderConfig struct {
	// Driver - имя драйвера database/sql
	Driver string `yaml:"driver"`

	// DSN - строка подключения
	DSN string `yaml:"dsn"`

	// TableName - имя таблицы журнала (по умолчанию "audit_log")
	TableName string `yaml:"table"`
}

const createAuditTableSQL = `
	CREATE TABLE IF NOT EXISTS %s (
		recorded_at   TIMESTAMP NOT NULL,
		connector     VARCHAR(64) NOT NULL,
		operation     VARCHAR(64) NOT NULL,
		table_name    VARCHAR(255),
		statement     TEXT,
		arg_count     INTEGER,
		duration_ns   BIGINT,
		status        VARCHAR(16) NOT NULL,
		error_message TEXT
	)
`

const insertAuditEntrySQL = `
	INSERT INTO %s (recorded_at, connector, operation, table_name,
		statement, arg_count, duration_ns, status, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// NewDatabaseAppender - создать database appender.
// Таблица журнала создается при подключении если не существует.
func NewDatabaseAppender(config DatabaseAppenderConfig) (*DatabaseAppender, error) {
	if config.TableName == "" {
		config.TableName = "audit_log"
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf(createAuditTableSQL, config.TableName)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	return &DatabaseAppender{
		db:        db,
		tableName: config.TableName,
	}, nil
}

// Append - записать entry в таблицу журнала
func (da *DatabaseAppender) Append(ctx context.Context, entry *Entry) error {
	_, err := da.db.ExecContext(ctx,
		fmt.Sprintf(insertAuditEntrySQL, da.tableName),
		entry.Timestamp,
		entry.Connector,
		entry.Operation,
		entry.Table,
		entry.Statement,
		entry.ArgCount,
		entry.Duration.Nanoseconds(),
		string(entry.Status),
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Close - закрыть подключение
func (da *DatabaseAppender) Close() error {
	return da.db.Close()
}
