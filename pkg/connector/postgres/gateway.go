package postgres

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/pool"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

// executor — внутренняя граница выполнения запросов.
// Выделен в интерфейс чтобы тесты фасада могли подменять I/O.
type executor interface {
	execute(ctx context.Context, creds connector.Credentials, op string, stmt sqlgen.Statement) ([]connector.Row, error)
	ping(ctx context.Context, creds connector.Credentials) error
	shutdown()
}

// gateway владеет кэшем пулов pgx и выполняет запросы.
// Пул создается лениво при первом обращении с новой идентичностью
// учетных данных; подключение берется на один вызов и освобождается
// на любом пути выхода.
type gateway struct {
	cache *pool.Cache[*pgxpool.Pool]
	log   *slog.Logger
}

func newGateway(log *slog.Logger) *gateway {
	return &gateway{
		cache: pool.NewCache[*pgxpool.Pool](),
		log:   log,
	}
}

func (g *gateway) acquirePool(ctx context.Context, creds connector.Credentials) (*pgxpool.Pool, pool.Identity, error) {
	id := pool.IdentityFor(creds)
	p, err := g.cache.GetOrCreate(id, func() (*pgxpool.Pool, error) {
		return newPool(ctx, creds)
	})
	return p, id, err
}

// execute выполняет один запрос и возвращает строки результата.
// Ошибка хранилища непрозрачна для вызывающего: полные детали
// (текст запроса, ошибка драйвера, идентичность пула) остаются
// в локальном логе, наружу уходит generic ExecutionFailedError.
func (g *gateway) execute(ctx context.Context, creds connector.Credentials, op string, stmt sqlgen.Statement) ([]connector.Row, error) {
	p, id, err := g.acquirePool(ctx, creds)
	if err != nil {
		g.log.Error("failed to create connection pool",
			"connector", Name, "operation", op, "pool", id.String(), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: Name, Operation: op}
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		g.log.Error("failed to acquire connection",
			"connector", Name, "operation", op, "pool", id.String(), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: Name, Operation: op}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		g.log.Error("statement execution failed",
			"connector", Name, "operation", op, "pool", id.String(),
			"sql", stmt.SQL, "args", len(stmt.Args), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: Name, Operation: op}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []connector.Row

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			g.log.Error("failed to read result row",
				"connector", Name, "operation", op, "pool", id.String(), "error", err)
			return nil, &connector.ExecutionFailedError{Connector: Name, Operation: op}
		}

		row := make(connector.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		g.log.Error("statement execution failed",
			"connector", Name, "operation", op, "pool", id.String(),
			"sql", stmt.SQL, "args", len(stmt.Args), "error", err)
		return nil, &connector.ExecutionFailedError{Connector: Name, Operation: op}
	}

	return result, nil
}

func (g *gateway) ping(ctx context.Context, creds connector.Credentials) error {
	p, id, err := g.acquirePool(ctx, creds)
	if err != nil {
		g.log.Error("failed to create connection pool",
			"connector", Name, "operation", "ping", "pool", id.String(), "error", err)
		return &connector.ExecutionFailedError{Connector: Name, Operation: "ping"}
	}
	if err := p.Ping(ctx); err != nil {
		g.log.Error("ping failed",
			"connector", Name, "pool", id.String(), "error", err)
		return &connector.ExecutionFailedError{Connector: Name, Operation: "ping"}
	}
	return nil
}

func (g *gateway) shutdown() {
	g.cache.Shutdown(func(p *pgxpool.Pool) { p.Close() })
}

// newPool создает pgx pool из учетных данных.
// Certificate, если задан, включает проверяемый TLS: содержимое
// трактуется как PEM CA-сертификат.
func newPool(ctx context.Context, creds connector.Credentials) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(creds.User, creds.Password),
		Host:   net.JoinHostPort(creds.Host, fmt.Sprintf("%d", creds.PortOrDefault(5432))),
		Path:   "/" + creds.Database,
	}

	config, err := pgxpool.ParseConfig(dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if creds.Certificate != "" {
		certs := x509.NewCertPool()
		if !certs.AppendCertsFromPEM([]byte(creds.Certificate)) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		config.ConnConfig.TLSConfig = &tls.Config{
			RootCAs:    certs,
			ServerName: creds.Host,
		}
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return p, nil
}
