package postgres

import (
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
)

// Mapper — отображение абстрактных типов на типы PostgreSQL и обратно.
// Реализует sqlgen.TypeMapper.
type Mapper struct{}

// ToNative возвращает тип PostgreSQL для абстрактного типа.
// Любое значение вне четырех поддерживаемых типов — нарушение контракта
// framework-а; ветка защитная, но обязана существовать.
func (Mapper) ToNative(t connector.ColumnType) (string, error) {
	switch t {
	case connector.TypeString:
		return "text", nil
	case connector.TypeNumber:
		return "numeric", nil
	case connector.TypeDate:
		return "date", nil
	case connector.TypeDatetime:
		return "timestamp", nil
	default:
		return "", &connector.UnsupportedTypeError{Type: t}
	}
}

// FromNative классифицирует нативный тип PostgreSQL.
// Классификация намеренно lossy: фиксированное множество числовых типов
// сворачивается в number, временные метки с/без зоны — в datetime,
// все остальные (включая нераспознанные) — в string. Ветки ошибки
// в этом направлении нет.
func (Mapper) FromNative(native string) connector.ColumnType {
	switch normalizeType(native) {
	case "smallint", "int2",
		"integer", "int", "int4",
		"bigint", "int8",
		"smallserial", "serial2",
		"serial", "serial4",
		"bigserial", "serial8",
		"numeric", "decimal",
		"real", "float4",
		"double precision", "float8":
		return connector.TypeNumber

	case "date":
		return connector.TypeDate

	case "timestamp", "timestamp without time zone",
		"timestamp with time zone", "timestamptz":
		return connector.TypeDatetime

	default:
		return connector.TypeString
	}
}

// normalizeType приводит нативный тип к базовой форме:
// нижний регистр, без размеров и модификаторов в скобках
func normalizeType(native string) string {
	native = strings.ToLower(strings.TrimSpace(native))
	if idx := strings.Index(native, "("); idx != -1 {
		native = native[:idx]
	}
	return strings.TrimSpace(native)
}
