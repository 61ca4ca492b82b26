package connector

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType — абстрактный тип колонки, не зависящий от конкретной СУБД.
// Framework оперирует только этими четырьмя типами; преобразование
// в нативные типы хранилища выполняет каждый коннектор самостоятельно.
type ColumnType string

// Поддерживаемые абстрактные типы
const (
	TypeString   ColumnType = "string"
	TypeNumber   ColumnType = "number"
	TypeDate     ColumnType = "date"
	TypeDatetime ColumnType = "datetime"
)

// Valid проверяет что тип входит в множество поддерживаемых
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeDate, TypeDatetime:
		return true
	default:
		return false
	}
}

// Column — определение колонки таблицы.
// Key=true помечает колонку первичного ключа.
type Column struct {
	Name string
	Type ColumnType
	Key  bool
}

// TableDefinition — абстрактное определение таблицы.
//
// ConnectionPath — непустая последовательность сегментов пути;
// ConnectionPath[0] всегда является физическим именем таблицы в хранилище.
// Name — отображаемая метка, может отличаться от физического имени.
//
// Connector и Credential — идентичность коннектора и контекст учетных
// данных, прозрачно переносятся framework-ом; ядро их не интерпретирует.
type TableDefinition struct {
	Name           string
	ConnectionPath []string
	Columns        []Column

	Connector  string
	Credential string
}

// PhysicalName возвращает физическое имя таблицы (ConnectionPath[0])
func (d TableDefinition) PhysicalName() (string, error) {
	if len(d.ConnectionPath) == 0 {
		return "", fmt.Errorf("table %q: empty connection path", d.Name)
	}
	return d.ConnectionPath[0], nil
}

// KeyColumn возвращает первую колонку помеченную как первичный ключ
func (d TableDefinition) KeyColumn() (Column, bool) {
	for _, col := range d.Columns {
		if col.Key {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnByName ищет колонку по имени
func (d TableDefinition) ColumnByName(name string) (Column, bool) {
	for _, col := range d.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Row — строка данных: имя колонки → значение.
// Значения не валидируются ядром против типов колонок,
// приведение типов делегировано хранилищу.
type Row map[string]any

// Credentials — учетные данные подключения к хранилищу.
// Все поля текстовые; Port должен парситься как неотрицательное число.
// Certificate (опционально) включает шифрованный транспорт и участвует
// в идентичности пула подключений.
type Credentials struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	Certificate string `yaml:"certificate,omitempty"`
}

// Validate проверяет учетные данные перед использованием
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("credentials: host is required")
	}
	if c.Port != "" {
		port, err := strconv.Atoi(strings.TrimSpace(c.Port))
		if err != nil {
			return fmt.Errorf("credentials: invalid port %q: %w", c.Port, err)
		}
		if port < 0 {
			return fmt.Errorf("credentials: negative port %d", port)
		}
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("credentials: database is required")
	}
	return nil
}

// PortOrDefault возвращает порт или значение по умолчанию если порт не задан
func (c Credentials) PortOrDefault(def int) int {
	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || port <= 0 {
		return def
	}
	return port
}
