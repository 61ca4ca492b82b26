// Package audit ведет журнал выполненных коннекторами запросов.
// Записи отправляются в appenders: файл (JSON lines) и/или Redis.
// Значения параметров в журнал не попадают — только их количество.
package audit

import (
	"encoding/json"
	"time"
)

// Status - статус выполнения операции
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry - запись журнала об одном выполненном запросе
type Entry struct {
	// Timestamp - время завершения операции
	Timestamp time.Time `json:"timestamp"`

	// Connector - имя коннектора ("postgres", "sqlite", "mysql")
	Connector string `json:"connector"`

	// Operation - операция фасада ("createData", "updateTable", ...)
	Operation string `json:"operation"`

	// Table - физическое имя таблицы
	Table string `json:"table,omitempty"`

	// Statement - текст выполненного запроса (без значений параметров)
	Statement string `json:"statement,omitempty"`

	// ArgCount - количество связанных параметров
	ArgCount int `json:"arg_count,omitempty"`

	// Duration - длительность выполнения
	Duration time.Duration `json:"duration,omitempty"`

	// Status - статус выполнения
	Status Status `json:"status"`

	// ErrorMessage - сообщение об ошибке
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewEntry - создать новую запись журнала
func NewEntry(connector, operation string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Connector: connector,
		Operation: operation,
		Status:    StatusSuccess,
	}
}

// WithTable - установить таблицу
func (e *Entry) WithTable(table string) *Entry {
	e.Table = table
	return e
}

// WithStatement - установить запрос и количество параметров
func (e *Entry) WithStatement(sql string, argCount int) *Entry {
	e.Statement = sql
	e.ArgCount = argCount
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(d time.Duration) *Entry {
	e.Duration = d
	return e
}

// WithError - пометить запись как неуспешную
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.Status = StatusFailure
		e.ErrorMessage = err.Error()
	}
	return e
}

// ToJSON - сериализовать запись
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
