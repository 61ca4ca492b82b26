package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schemafx/connectors/pkg/audit"
	"github.com/schemafx/connectors/pkg/connector"
)

// Config — профиль подключения для CLI
type Config struct {
	// Connector — имя коннектора: postgres, sqlite, mysql
	Connector string `yaml:"connector"`

	// Credentials — учетные данные хранилища
	Credentials connector.Credentials `yaml:"credentials"`

	// Audit — необязательный журнал выполненных запросов
	Audit AuditConfig `yaml:"audit"`
}

// AuditConfig — настройки журнала запросов
type AuditConfig struct {
	// File — путь к файлу журнала (пустое = отключено)
	File string `yaml:"file"`

	// Redis — публикация записей журнала в Redis (пустой адрес = отключено)
	Redis audit.RedisAppenderConfig `yaml:"redis"`

	// Database — запись журнала в SQL таблицу (пустой driver = отключено)
	Database audit.DatabaseAppenderConfig `yaml:"database"`
}

// Enabled сообщает настроен ли хотя бы один appender
func (a AuditConfig) Enabled() bool {
	return a.File != "" || a.Redis.Address != "" || a.Database.Driver != ""
}

// loadConfig читает и валидирует YAML профиль
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Connector == "" {
		return nil, fmt.Errorf("config: connector is required")
	}
	return &cfg, nil
}

// buildTrail собирает журнал из конфигурации (nil если отключен)
func buildTrail(cfg AuditConfig) (*audit.Trail, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var appenders []audit.Appender

	if cfg.File != "" {
		fa, err := audit.NewFileAppender(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit file appender: %w", err)
		}
		appenders = append(appenders, fa)
	}

	if cfg.Redis.Address != "" {
		appenders = append(appenders, audit.NewRedisAppender(cfg.Redis))
	}

	if cfg.Database.Driver != "" {
		da, err := audit.NewDatabaseAppender(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit database appender: %w", err)
		}
		appenders = append(appenders, da)
	}

	return audit.NewTrail(audit.TrailConfig{}, appenders...), nil
}
