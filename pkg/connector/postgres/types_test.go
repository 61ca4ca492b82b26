package postgres

import (
	"errors"
	"testing"

	"github.com/schemafx/connectors/pkg/connector"
)

// TestMapper_RoundTrip проверяет что каждый абстрактный тип переживает
// путь через нативный тип
func TestMapper_RoundTrip(t *testing.T) {
	m := Mapper{}

	for _, typ := range []connector.ColumnType{
		connector.TypeString,
		connector.TypeNumber,
		connector.TypeDate,
		connector.TypeDatetime,
	} {
		native, err := m.ToNative(typ)
		if err != nil {
			t.Fatalf("ToNative(%s) failed: %v", typ, err)
		}
		if got := m.FromNative(native); got != typ {
			t.Errorf("Round trip %s → %s → %s", typ, native, got)
		}
	}
}

// TestMapper_ToNative_Unsupported проверяет защитную ветку
func TestMapper_ToNative_Unsupported(t *testing.T) {
	_, err := Mapper{}.ToNative("blob")

	var unsupported *connector.UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Expected UnsupportedTypeError, got %v", err)
	}
}

// TestMapper_FromNative_NumericFamily проверяет что все числовые подтипы
// сворачиваются в number
func TestMapper_FromNative_NumericFamily(t *testing.T) {
	m := Mapper{}

	for _, native := range []string{
		"smallint", "int2", "integer", "int", "int4", "bigint", "int8",
		"serial", "bigserial", "numeric", "decimal", "numeric(10,2)",
		"real", "float4", "double precision", "float8",
	} {
		if got := m.FromNative(native); got != connector.TypeNumber {
			t.Errorf("FromNative(%q) = %s, want number", native, got)
		}
	}
}

// TestMapper_FromNative_Temporal проверяет классификацию дат и меток времени
func TestMapper_FromNative_Temporal(t *testing.T) {
	m := Mapper{}

	if got := m.FromNative("date"); got != connector.TypeDate {
		t.Errorf("FromNative(date) = %s", got)
	}
	for _, native := range []string{
		"timestamp", "timestamp without time zone",
		"timestamp with time zone", "timestamptz", "TIMESTAMP(6)",
	} {
		if got := m.FromNative(native); got != connector.TypeDatetime {
			t.Errorf("FromNative(%q) = %s, want datetime", native, got)
		}
	}
}

// TestMapper_FromNative_DefaultToString фиксирует lossy-классификацию:
// неизвестные нативные типы отображаются в string и round trip не проходят
func TestMapper_FromNative_DefaultToString(t *testing.T) {
	m := Mapper{}

	for _, native := range []string{
		"uuid", "jsonb", "bytea", "inet", "character varying(64)",
		"text", "boolean", "some_custom_domain",
	} {
		if got := m.FromNative(native); got != connector.TypeString {
			t.Errorf("FromNative(%q) = %s, want string", native, got)
		}
	}

	// Асимметрия намеренная: string → text, но text-семейство шире
	native, err := m.ToNative(connector.TypeString)
	if err != nil {
		t.Fatalf("ToNative failed: %v", err)
	}
	if native != "text" {
		t.Errorf("ToNative(string) = %q, want text", native)
	}
}
