package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors lists every setting that blocks startup.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Validate reports missing or inconsistent settings. It returns nil when the
// configuration can be used to start the server.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.App.Port <= 0 || c.App.Port > 65535 {
		add("app.port", "must be between 1 and 65535")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "openai_compatible", "openai", "gemini":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			add("llm.api_key", "is required")
		}
	case "ollama":
	default:
		add("llm.provider", "must be one of openai_compatible, openai, gemini, ollama")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		add("llm.model", "is required")
	}
	if c.LLM.MaxAttempts < 1 {
		add("llm.max_attempts", "must be at least 1")
	}

	if strings.TrimSpace(c.Speech.APIKey) == "" {
		add("speech.api_key", "is required")
	}

	switch strings.ToLower(c.Store.Driver) {
	case "mysql":
		if c.MySQL.Host == "" || c.MySQL.DB == "" || c.MySQL.User == "" {
			add("mysql", "host, user and db are required")
		}
	case "postgres":
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			add("postgres.dsn", "is required")
		}
	case "memory":
	default:
		add("store.driver", "must be one of mysql, postgres, memory")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		add("redis.addr", "is required when redis is enabled")
	}
	if c.RabbitMQ.Enabled && (c.RabbitMQ.URL == "" || c.RabbitMQ.QAPersistQueue == "") {
		add("rabbitmq", "url and qa_persist_queue are required when rabbitmq is enabled")
	}

	if c.Upload.MaxBytes <= 0 {
		add("upload.max_bytes", "must be positive")
	}
	switch strings.ToLower(c.FileStore.Type) {
	case "local":
		if strings.TrimSpace(c.FileStore.Local.Dir) == "" {
			add("file_store.local.dir", "is required")
		}
	case "s3":
		if c.FileStore.S3.Bucket == "" || c.FileStore.S3.Region == "" {
			add("file_store.s3", "bucket and region are required")
		}
	default:
		add("file_store.type", "must be local or s3")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
