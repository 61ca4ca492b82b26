package connector

import (
	"context"
	"fmt"
	"sync"
)

// AuthFieldKind — тип поля формы ввода учетных данных
type AuthFieldKind string

const (
	FieldText   AuthFieldKind = "text"
	FieldNumber AuthFieldKind = "number"
	FieldSecret AuthFieldKind = "secret"
)

// AuthField — декларация одного поля учетных данных.
// Host framework использует эти декларации для отрисовки формы
// подключения; это статические метаданные, не исполняемая логика.
type AuthField struct {
	Name     string
	Kind     AuthFieldKind
	Required bool
}

// Connector — универсальный интерфейс коннектора хранилища.
// Host framework держит коллекцию коннекторов за этим интерфейсом
// и никогда не работает с конкретным типом напрямую.
//
// Каждая операция принимает учетные данные и самостоятельно получает
// пул подключений через кэш, ключуемый идентичностью учетных данных.
type Connector interface {
	// Name возвращает имя коннектора ("postgres", "sqlite", "mysql")
	Name() string

	// AuthFields возвращает декларацию формы учетных данных
	AuthFields() []AuthField

	// Ping проверяет доступность хранилища
	Ping(ctx context.Context, creds Credentials) error

	// ========== Таблицы ==========

	// ListTables возвращает по одной записи на каждую физическую таблицу.
	// Пространство имен плоское: записи терминальны, без вложенности.
	ListTables(ctx context.Context, creds Credentials) ([]TableDefinition, error)

	// ReadTable читает определение таблицы из каталога хранилища
	ReadTable(ctx context.Context, creds Credentials, path []string) (TableDefinition, error)

	// CreateTable создает таблицу и возвращает определение без изменений
	CreateTable(ctx context.Context, creds Credentials, def TableDefinition) (TableDefinition, error)

	// UpdateTable вычисляет разницу old→new и применяет альтерации.
	// Возвращает новое определение без перечитывания хранилища.
	UpdateTable(ctx context.Context, creds Credentials, old, new TableDefinition) (TableDefinition, error)

	// DeleteTable удаляет таблицу
	DeleteTable(ctx context.Context, creds Credentials, def TableDefinition) error

	// ========== Данные ==========

	// ReadData читает все строки каждой таблицы. Запросы по таблицам
	// выполняются параллельно; порядок результата соответствует порядку
	// defs независимо от порядка завершения.
	ReadData(ctx context.Context, creds Credentials, defs []TableDefinition) ([][]Row, error)

	// CreateData вставляет строки одним запросом
	CreateData(ctx context.Context, creds Credentials, def TableDefinition, rows []Row) ([]Row, error)

	// UpdateData обновляет строки по колонке первичного ключа
	UpdateData(ctx context.Context, creds Credentials, def TableDefinition, rows []Row) ([]Row, error)

	// DeleteData удаляет строки по колонке первичного ключа
	DeleteData(ctx context.Context, creds Credentials, def TableDefinition, rows []Row) ([]Row, error)

	// Shutdown закрывает все закэшированные пулы подключений
	Shutdown(ctx context.Context) error
}

// Constructor — функция-конструктор коннектора
type Constructor func() Connector

// Registry — реестр коннекторов.
// Управляет регистрацией и созданием коннекторов по имени.
type Registry struct {
	registry map[string]Constructor
	mu       sync.RWMutex
}

// NewRegistry создает новый реестр коннекторов
func NewRegistry() *Registry {
	return &Registry{
		registry: make(map[string]Constructor),
	}
}

// Register регистрирует конструктор коннектора под именем.
// Обычно вызывается из init() пакета коннектора.
func (r *Registry) Register(name string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = constructor
}

// IsRegistered проверяет, зарегистрирован ли коннектор с данным именем
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registry[name]
	return ok
}

// Names возвращает имена всех зарегистрированных коннекторов
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	return names
}

// Open создает новый экземпляр коннектора по имени.
// Каждый экземпляр владеет собственным кэшем пулов подключений;
// жизненный цикл завершается явным вызовом Shutdown.
func (r *Registry) Open(name string) (Connector, error) {
	r.mu.RLock()
	constructor, ok := r.registry[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown connector: %s (available: %v)", name, r.Names())
	}
	return constructor(), nil
}

// ========== Глобальный реестр ==========

var globalRegistry = NewRegistry()

// Register регистрирует коннектор в глобальном реестре
func Register(name string, constructor Constructor) {
	globalRegistry.Register(name, constructor)
}

// Open создает коннектор из глобального реестра
func Open(name string) (Connector, error) {
	return globalRegistry.Open(name)
}

// Names возвращает имена коннекторов глобального реестра
func Names() []string {
	return globalRegistry.Names()
}
