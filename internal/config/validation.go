package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateRoute checks that a route is an absolute URL path.
func ValidateRoute(field, value string) error {
	if !strings.HasPrefix(value, "/") {
		return ValidationError{Field: field, Value: value, Message: "must start with /"}
	}
	if strings.ContainsAny(value, "{}") {
		return ValidationError{Field: field, Value: value, Message: "must not contain path wildcards"}
	}
	return nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if err := ValidateRoute("mcp.route", cfg.MCP.Route); err != nil {
		errs = append(errs, err.(ValidationError))
	} else if strings.TrimSuffix(cfg.MCP.Route, "/") == "" {
		errs.Add("mcp.route", "must not be the root path")
	}
	if cfg.MCP.Dir == "" {
		errs.Add("mcp.dir", "is required")
	}
	if len(cfg.MCP.Overlays) == 0 {
		errs.Add("mcp.overlays", "must have at least one overlay")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs.Add("server.port", "must be between 0 and 65535", cfg.Server.Port)
	}
	if err := ValidateOneOf("server.transport", cfg.Server.Transport,
		[]string{TransportStreamableHTTP, TransportStdio}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if cfg.Server.MetricsPath != "" {
		if err := ValidateRoute("server.metricsPath", cfg.Server.MetricsPath); err != nil {
			errs = append(errs, err.(ValidationError))
		} else if strings.HasPrefix(cfg.Server.MetricsPath+"/", strings.TrimSuffix(cfg.MCP.Route, "/")+"/") {
			errs.Add("server.metricsPath", "must not be inside mcp.route", cfg.Server.MetricsPath)
		}
	}

	if err := ValidateOneOf("cache.backend", cfg.Cache.Backend,
		[]string{CacheBackendMemory, CacheBackendRedis, CacheBackendSQLite, CacheBackendNone}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	switch cfg.Cache.Backend {
	case CacheBackendRedis:
		if cfg.Cache.Redis.Addr == "" {
			errs.Add("cache.redis.addr", "is required for the redis backend")
		}
	case CacheBackendSQLite:
		if cfg.Cache.SQLite.DSN == "" {
			errs.Add("cache.sqlite.dsn", "is required for the sqlite backend")
		}
	}
	if cfg.Cache.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Cache.SweepSchedule); err != nil {
			errs.Add("cache.sweepSchedule", fmt.Sprintf("invalid schedule: %v", err), cfg.Cache.SweepSchedule)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
