package mysql

import (
	"strings"

	"github.com/schemafx/connectors/pkg/connector"
)

// Mapper — отображение абстрактных типов на типы MySQL и обратно.
// Реализует sqlgen.TypeMapper.
type Mapper struct{}

// ToNative возвращает тип MySQL.
// string отображается в VARCHAR(255): TEXT в MySQL не может быть
// первичным ключом без префиксной длины.
func (Mapper) ToNative(t connector.ColumnType) (string, error) {
	switch t {
	case connector.TypeString:
		return "VARCHAR(255)", nil
	case connector.TypeNumber:
		return "DECIMAL(38,9)", nil
	case connector.TypeDate:
		return "DATE", nil
	case connector.TypeDatetime:
		return "DATETIME", nil
	default:
		return "", &connector.UnsupportedTypeError{Type: t}
	}
}

// FromNative классифицирует тип MySQL.
// Неизвестные типы сворачиваются в string, без ветки ошибки.
func (Mapper) FromNative(native string) connector.ColumnType {
	native = strings.ToLower(strings.TrimSpace(native))
	if idx := strings.Index(native, "("); idx != -1 {
		native = strings.TrimSpace(native[:idx])
	}

	switch native {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint",
		"decimal", "numeric", "float", "double", "real", "bit":
		return connector.TypeNumber
	case "date":
		return connector.TypeDate
	case "datetime", "timestamp":
		return connector.TypeDatetime
	default:
		return connector.TypeString
	}
}
