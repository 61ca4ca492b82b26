// Package mysql реализует коннектор MySQL поверх database/sql
// (драйвер go-sql-driver/mysql).
package mysql

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/connector/base"
	"github.com/schemafx/connectors/pkg/pool"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

// Name — имя коннектора в реестре
const Name = "mysql"

func init() {
	connector.Register(Name, func() connector.Connector {
		return New()
	})
}

// New создает коннектор MySQL
func New(opts ...base.Option) *base.SQLConnector {
	return base.NewSQLConnector(driver{}, opts...)
}

// driver — специфика MySQL для base.SQLConnector
type driver struct{}

func (driver) Name() string       { return Name }
func (driver) DriverName() string { return "mysql" }

// DSN строит строку подключения через конфигурацию драйвера.
// Certificate, если задан, регистрирует TLS-конфигурацию под ключом
// идентичности пула: одна регистрация на идентичность.
func (driver) DSN(creds connector.Credentials) (string, error) {
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(creds.Host, fmt.Sprintf("%d", creds.PortOrDefault(3306)))
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.DBName = creds.Database

	if creds.Certificate != "" {
		certs := x509.NewCertPool()
		if !certs.AppendCertsFromPEM([]byte(creds.Certificate)) {
			return "", fmt.Errorf("failed to parse CA certificate")
		}

		key := "schemafx-" + pool.IdentityFor(creds).String()
		if err := gomysql.RegisterTLSConfig(key, &tls.Config{
			RootCAs:    certs,
			ServerName: creds.Host,
		}); err != nil {
			return "", fmt.Errorf("failed to register TLS config: %w", err)
		}
		cfg.TLSConfig = key
	}

	return cfg.FormatDSN(), nil
}

func (driver) ValidateCredentials(creds connector.Credentials) error {
	return creds.Validate()
}

func (driver) Dialect() sqlgen.Dialect       { return sqlgen.MySQL{} }
func (driver) TypeMapper() sqlgen.TypeMapper { return Mapper{} }

func (driver) AuthFields() []connector.AuthField {
	return []connector.AuthField{
		{Name: "host", Kind: connector.FieldText, Required: true},
		{Name: "port", Kind: connector.FieldNumber, Required: true},
		{Name: "user", Kind: connector.FieldText, Required: true},
		{Name: "password", Kind: connector.FieldSecret, Required: true},
		{Name: "database", Kind: connector.FieldText, Required: true},
		{Name: "certificate", Kind: connector.FieldSecret, Required: false},
	}
}

func (driver) ListTablesStatement() sqlgen.Statement {
	return sqlgen.Statement{SQL: `
		SELECT table_name AS table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`}
}

func (driver) ColumnsStatement(table string) sqlgen.Statement {
	return sqlgen.Statement{
		SQL: `
			SELECT column_name AS column_name,
			       data_type   AS data_type,
			       column_key  AS column_key
			FROM information_schema.columns
			WHERE table_schema = DATABASE()
			  AND table_name = ?
			ORDER BY ordinal_position
		`,
		Args: []any{table},
	}
}

// ParseColumns классифицирует результат information_schema.columns;
// COLUMN_KEY = 'PRI' помечает колонку первичного ключа
func (driver) ParseColumns(rows []connector.Row) []connector.Column {
	mapper := Mapper{}
	cols := make([]connector.Column, 0, len(rows))

	for _, row := range rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		columnKey, _ := row["column_key"].(string)

		cols = append(cols, connector.Column{
			Name: name,
			Type: mapper.FromNative(dataType),
			Key:  columnKey == "PRI",
		})
	}
	return cols
}
