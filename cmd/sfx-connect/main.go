// sfx-connect — утилита проверки коннекторов: список таблиц, описание
// схемы и выгрузка строк по YAML-профилю подключения.
//
// Использование:
//
//	sfx-connect --config profile.yaml ping
//	sfx-connect --config profile.yaml tables
//	sfx-connect --config profile.yaml describe <table>
//	sfx-connect --config profile.yaml rows <table>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/schemafx/connectors/pkg/audit"
	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/connector/base"
	"github.com/schemafx/connectors/pkg/connector/mysql"
	"github.com/schemafx/connectors/pkg/connector/postgres"
	"github.com/schemafx/connectors/pkg/connector/sqlite"
)

func main() {
	// Код выхода решается после завершения realMain: deferred Shutdown
	// (закрытие пулов, сброс журнала) обязан выполниться и на пути ошибки
	os.Exit(realMain())
}

func realMain() int {
	configFile := flag.String("config", "", "path to connection profile YAML (required)")
	flag.Parse()

	if *configFile == "" || flag.NArg() == 0 {
		usage()
		return 1
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	trail, err := buildTrail(cfg.Audit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring audit: %v\n", err)
		return 1
	}

	conn, err := openConnector(cfg.Connector, trail)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	defer conn.Shutdown(ctx)

	if err := run(ctx, conn, cfg.Credentials, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: sfx-connect --config <profile>.yaml <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ping              check store availability")
	fmt.Fprintln(os.Stderr, "  tables            list tables")
	fmt.Fprintln(os.Stderr, "  describe <table>  print table columns")
	fmt.Fprintln(os.Stderr, "  rows <table>      dump table rows")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "Connectors: %v\n", connector.Names())
}

// openConnector создает коннектор с журналом запросов если тот настроен
func openConnector(name string, trail *audit.Trail) (connector.Connector, error) {
	if trail == nil {
		return connector.Open(name)
	}

	switch name {
	case postgres.Name:
		return postgres.New(postgres.WithAuditTrail(trail)), nil
	case sqlite.Name:
		return sqlite.New(base.WithAuditTrail(trail)), nil
	case mysql.Name:
		return mysql.New(base.WithAuditTrail(trail)), nil
	default:
		return connector.Open(name)
	}
}

func run(ctx context.Context, conn connector.Connector, creds connector.Credentials, args []string) error {
	switch args[0] {
	case "ping":
		if err := conn.Ping(ctx, creds); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil

	case "tables":
		defs, err := conn.ListTables(ctx, creds)
		if err != nil {
			return err
		}
		for _, def := range defs {
			fmt.Println(def.Name)
		}
		return nil

	case "describe":
		if len(args) < 2 {
			return fmt.Errorf("describe: table name required")
		}
		def, err := conn.ReadTable(ctx, creds, []string{args[1]})
		if err != nil {
			return err
		}
		for _, col := range def.Columns {
			marker := ""
			if col.Key {
				marker = "  [key]"
			}
			fmt.Printf("%-32s %s%s\n", col.Name, col.Type, marker)
		}
		return nil

	case "rows":
		if len(args) < 2 {
			return fmt.Errorf("rows: table name required")
		}
		def, err := conn.ReadTable(ctx, creds, []string{args[1]})
		if err != nil {
			return err
		}
		data, err := conn.ReadData(ctx, creds, []connector.TableDefinition{def})
		if err != nil {
			return err
		}
		for _, row := range data[0] {
			for i, col := range def.Columns {
				if i > 0 {
					fmt.Print("\t")
				}
				fmt.Printf("%v", row[col.Name])
			}
			fmt.Println()
		}
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}
