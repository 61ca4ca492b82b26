package sqlite

import (
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
)

// Mapper — отображение абстрактных типов на декларируемые типы SQLite
// и обратно. Реализует sqlgen.TypeMapper.
type Mapper struct{}

// ToNative возвращает декларируемый тип SQLite
func (Mapper) ToNative(t connector.ColumnType) (string, error) {
	switch t {
	case connector.TypeString:
		return "TEXT", nil
	case connector.TypeNumber:
		return "NUMERIC", nil
	case connector.TypeDate:
		return "DATE", nil
	case connector.TypeDatetime:
		return "DATETIME", nil
	default:
		return "", &connector.UnsupportedTypeError{Type: t}
	}
}

// FromNative классифицирует декларируемый тип SQLite.
// Неизвестные типы сворачиваются в string, без ветки ошибки.
func (Mapper) FromNative(native string) connector.ColumnType {
	native = strings.ToLower(strings.TrimSpace(native))
	if idx := strings.Index(native, "("); idx != -1 {
		native = strings.TrimSpace(native[:idx])
	}

	switch native {
	case "integer", "int", "tinyint", "smallint", "mediumint", "bigint",
		"real", "float", "double", "double precision",
		"numeric", "decimal":
		return connector.TypeNumber
	case "date":
		return connector.TypeDate
	case "datetime", "timestamp":
		return connector.TypeDatetime
	default:
		return connector.TypeString
	}
}
