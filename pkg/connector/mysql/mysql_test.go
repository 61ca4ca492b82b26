package mysql

import (
	"strings"
	"testing"

	"github.com/schemafx/connectors/pkg/connector"
)

// TestDriver_DSN проверяет сборку строки подключения
func TestDriver_DSN(t *testing.T) {
	dsn, err := driver{}.DSN(connector.Credentials{
		Host:     "db.local",
		Port:     "3307",
		User:     "app",
		Password: "secret",
		Database: "appdb",
	})
	if err != nil {
		t.Fatalf("DSN failed: %v", err)
	}

	if !strings.Contains(dsn, "tcp(db.local:3307)") {
		t.Errorf("Address missing from DSN: %s", dsn)
	}
	if !strings.HasPrefix(dsn, "app:secret@") {
		t.Errorf("Credentials missing from DSN: %s", dsn)
	}
	if !strings.Contains(dsn, "/appdb") {
		t.Errorf("Database missing from DSN: %s", dsn)
	}
}

// TestDriver_DSN_DefaultPort проверяет порт по умолчанию
func TestDriver_DSN_DefaultPort(t *testing.T) {
	dsn, err := driver{}.DSN(connector.Credentials{Host: "db.local", Database: "appdb"})
	if err != nil {
		t.Fatalf("DSN failed: %v", err)
	}
	if !strings.Contains(dsn, "db.local:3306") {
		t.Errorf("Expected default port 3306 in DSN: %s", dsn)
	}
}

// TestDriver_DSN_BadCertificate проверяет отказ на невалидном PEM
func TestDriver_DSN_BadCertificate(t *testing.T) {
	_, err := driver{}.DSN(connector.Credentials{
		Host:        "db.local",
		Database:    "appdb",
		Certificate: "not a pem",
	})
	if err == nil {
		t.Fatal("Expected error for invalid CA certificate")
	}
}

// TestDriver_ParseColumns проверяет классификацию information_schema
func TestDriver_ParseColumns(t *testing.T) {
	rows := []connector.Row{
		{"column_name": "id", "data_type": "bigint", "column_key": "PRI"},
		{"column_name": "email", "data_type": "varchar", "column_key": "UNI"},
		{"column_name": "created_at", "data_type": "datetime", "column_key": ""},
	}

	cols := driver{}.ParseColumns(rows)
	want := []connector.Column{
		{Name: "id", Type: connector.TypeNumber, Key: true},
		{Name: "email", Type: connector.TypeString},
		{Name: "created_at", Type: connector.TypeDatetime},
	}

	if len(cols) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(cols))
	}
	for i, col := range cols {
		if col != want[i] {
			t.Errorf("Column %d: got %+v, want %+v", i, col, want[i])
		}
	}
}
