package base

import (
	"context"
	"errors"
	"testing"

	"github.com/schemafx/connectors/pkg/connector"
	"github.com/schemafx/connectors/pkg/sqlgen"
)

// fakeDriver — драйвер для проверки путей не доходящих до database/sql
type fakeDriver struct {
	validateErr error
}

func (fakeDriver) Name() string       { return "fake" }
func (fakeDriver) DriverName() string { return "fake" }

func (fakeDriver) DSN(connector.Credentials) (string, error) { return "fake://", nil }

func (d fakeDriver) ValidateCredentials(connector.Credentials) error { return d.validateErr }

func (fakeDriver) Dialect() sqlgen.Dialect       { return sqlgen.SQLite{} }
func (fakeDriver) TypeMapper() sqlgen.TypeMapper { return passMapper{} }

func (fakeDriver) AuthFields() []connector.AuthField {
	return []connector.AuthField{{Name: "database", Kind: connector.FieldText, Required: true}}
}

func (fakeDriver) ListTablesStatement() sqlgen.Statement {
	return sqlgen.Statement{SQL: "SELECT 1"}
}

func (fakeDriver) ColumnsStatement(string) sqlgen.Statement {
	return sqlgen.Statement{SQL: "SELECT 1"}
}

func (fakeDriver) ParseColumns([]connector.Row) []connector.Column { return nil }

type passMapper struct{}

func (passMapper) ToNative(t connector.ColumnType) (string, error) { return string(t), nil }
func (passMapper) FromNative(string) connector.ColumnType          { return connector.TypeString }

func keylessTable() connector.TableDefinition {
	return connector.TableDefinition{
		Name:           "notes",
		ConnectionPath: []string{"notes"},
		Columns: []connector.Column{
			{Name: "body", Type: connector.TypeString},
		},
	}
}

// TestSQLConnector_Passthrough проверяет делегирование метаданных драйверу
func TestSQLConnector_Passthrough(t *testing.T) {
	c := NewSQLConnector(fakeDriver{})

	if c.Name() != "fake" {
		t.Errorf("Expected name fake, got %s", c.Name())
	}
	fields := c.AuthFields()
	if len(fields) != 1 || fields[0].Name != "database" {
		t.Errorf("Unexpected auth fields: %+v", fields)
	}
}

// TestSQLConnector_EmptyRows проверяет short-circuit для пустых наборов:
// операции возвращаются до обращения к database/sql
func TestSQLConnector_EmptyRows(t *testing.T) {
	c := NewSQLConnector(fakeDriver{})
	ctx := context.Background()
	creds := connector.Credentials{Database: ":memory:"}

	for name, op := range map[string]func() ([]connector.Row, error){
		"create": func() ([]connector.Row, error) { return c.CreateData(ctx, creds, keylessTable(), nil) },
		"update": func() ([]connector.Row, error) { return c.UpdateData(ctx, creds, keylessTable(), nil) },
		"delete": func() ([]connector.Row, error) { return c.DeleteData(ctx, creds, keylessTable(), nil) },
	} {
		out, err := op()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if len(out) != 0 {
			t.Errorf("%s: expected empty echo, got %d rows", name, len(out))
		}
	}
}

// TestSQLConnector_MissingKey проверяет отклонение до какого-либо I/O
func TestSQLConnector_MissingKey(t *testing.T) {
	c := NewSQLConnector(fakeDriver{})
	rows := []connector.Row{{"body": "hello"}}

	var missing *connector.MissingKeyColumnError

	_, err := c.UpdateData(context.Background(), connector.Credentials{}, keylessTable(), rows)
	if !errors.As(err, &missing) {
		t.Fatalf("UpdateData: expected MissingKeyColumnError, got %v", err)
	}

	_, err = c.DeleteData(context.Background(), connector.Credentials{}, keylessTable(), rows)
	if !errors.As(err, &missing) {
		t.Fatalf("DeleteData: expected MissingKeyColumnError, got %v", err)
	}
}

// TestSQLConnector_CredentialValidation проверяет что ошибка валидации
// возвращается как есть, без маскировки
func TestSQLConnector_CredentialValidation(t *testing.T) {
	wantErr := errors.New("bad credentials")
	c := NewSQLConnector(fakeDriver{validateErr: wantErr})

	if err := c.Ping(context.Background(), connector.Credentials{}); !errors.Is(err, wantErr) {
		t.Errorf("Ping: expected validation error, got %v", err)
	}
	if _, err := c.ListTables(context.Background(), connector.Credentials{}); !errors.Is(err, wantErr) {
		t.Errorf("ListTables: expected validation error, got %v", err)
	}
}

// TestSQLConnector_UpdateTableRetypeRejected проверяет что смена типа
// колонки для диалекта без ALTER COLUMN отклоняется на этапе синтеза
func TestSQLConnector_UpdateTableRetypeRejected(t *testing.T) {
	c := NewSQLConnector(fakeDriver{})

	old := keylessTable()
	changed := keylessTable()
	changed.Columns[0].Type = connector.TypeNumber

	_, err := c.UpdateTable(context.Background(), connector.Credentials{}, old, changed)
	if !errors.Is(err, sqlgen.ErrRetypeNotSupported) {
		t.Fatalf("Expected ErrRetypeNotSupported, got %v", err)
	}
}

// TestSQLConnector_UpdateTableNoChanges проверяет no-op без обращения к базе
func TestSQLConnector_UpdateTableNoChanges(t *testing.T) {
	c := NewSQLConnector(fakeDriver{})

	def := keylessTable()
	out, err := c.UpdateTable(context.Background(), connector.Credentials{}, def, def)
	if err != nil {
		t.Fatalf("UpdateTable failed: %v", err)
	}
	if out.Name != def.Name {
		t.Errorf("Expected definition echo, got %q", out.Name)
	}
}
