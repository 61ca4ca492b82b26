package connector

import "fmt"

// UnsupportedTypeError — в mapper передан абстрактный тип вне поддерживаемого
// множества. Нарушение контракта со стороны framework, фатально для вызова.
type UnsupportedTypeError struct {
	Type ColumnType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported column type: %q", string(e.Type))
}

// MissingKeyColumnError — запрошен update/delete по таблице без колонки
// первичного ключа. Возвращается до выполнения каких-либо запросов.
type MissingKeyColumnError struct {
	Table string
}

func (e *MissingKeyColumnError) Error() string {
	return fmt.Sprintf("table %q has no key column", e.Table)
}

// ExecutionFailedError — ошибка выполнения запроса в хранилище.
// Намеренно непрозрачна: детали (текст запроса, ошибка драйвера, адрес)
// остаются в локальном логе и не утекают вызывающей стороне.
type ExecutionFailedError struct {
	Connector string
	Operation string
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("%s: %s: statement execution failed", e.Connector, e.Operation)
}
