package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	NoColorFunc      func() bool
	SettingsFunc     func() Settings
	TasksFunc        func(offline bool) (TaskSource, error)
	PagesFunc        func(offline bool) (reconcile.PageSource, error)
	CacheFunc        func() (CacheStore, error)
	SuppressionsFunc func() (*suppression.Set, error)
	VersionFunc      func() string
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// NoColor returns the mock value or true.
func (m *Mock) NoColor() bool {
	if m.NoColorFunc != nil {
		return m.NoColorFunc()
	}
	return true
}

// Settings returns settings using the mock function or zero settings.
func (m *Mock) Settings() Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return Settings{}
}

// Tasks returns a task source using the mock function or nil.
func (m *Mock) Tasks(offline bool) (TaskSource, error) {
	if m.TasksFunc != nil {
		return m.TasksFunc(offline)
	}
	return nil, nil
}

// Pages returns a page source using the mock function or nil.
func (m *Mock) Pages(offline bool) (reconcile.PageSource, error) {
	if m.PagesFunc != nil {
		return m.PagesFunc(offline)
	}
	return nil, nil
}

// Cache returns a cache using the mock function or nil.
func (m *Mock) Cache() (CacheStore, error) {
	if m.CacheFunc != nil {
		return m.CacheFunc()
	}
	return nil, nil
}

// Suppressions returns a set using the mock function or an empty set.
func (m *Mock) Suppressions() (*suppression.Set, error) {
	if m.SuppressionsFunc != nil {
		return m.SuppressionsFunc()
	}
	return suppression.NewSet(), nil
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
