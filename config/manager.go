package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Manager is a flat key/value configuration overlay: JSON files and
// environment variables both land in the same map, then Unmarshal copies
// matching keys onto an already flag-populated Options so the overlay only
// needs to set what it wants to override.
type Manager struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{values: make(map[string]any)}
}

// Set records a configuration value under key.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Get looks up a configuration value by key.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// LoadFromEnv loads every environment variable with the given prefix (e.g.
// "NETCORE_") into the overlay, stripping the prefix, lowercasing, and
// turning "_" into "." so NETCORE_WORKER_THREADS becomes "worker.threads".
func (m *Manager) LoadFromEnv(prefix string) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		key = strings.TrimPrefix(key, prefix)
		key = strings.TrimPrefix(key, "_")
		key = strings.ToLower(strings.ReplaceAll(key, "_", "."))
		m.Set(key, value)
	}
}

// LoadFromJSON loads a (possibly nested) JSON object from filename into the
// overlay, flattening nested objects into dotted keys.
func (m *Manager) LoadFromJSON(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing JSON config: %w", err)
	}

	m.loadFromMap("", values)
	return nil
}

func (m *Manager) loadFromMap(prefix string, values map[string]any) {
	for key, value := range values {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			m.loadFromMap(fullKey, nested)
			continue
		}
		m.Set(fullKey, value)
	}
}

// Unmarshal copies every overlay value whose key (after prefix stripping)
// matches an Options field's lowercased name, or its "config" struct tag,
// onto target. Only fields present in the overlay are touched -- fields the
// overlay doesn't mention keep whatever New already gave them from flags.
func (m *Manager) Unmarshal(prefix string, target any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: Unmarshal target must be a pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}

		key := field.Tag.Get("config")
		if key == "" {
			key = strings.ToLower(field.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		value, ok := m.values[key]
		if !ok {
			continue
		}
		if err := setFieldValue(fv, value); err != nil {
			return fmt.Errorf("setting field %s: %w", field.Name, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(fmt.Sprintf("%v", value))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := value.(type) {
		case int:
			field.SetInt(int64(v))
		case int64:
			field.SetInt(v)
		case float64:
			field.SetInt(int64(v))
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(n)
		default:
			return fmt.Errorf("cannot convert %T to int", value)
		}

	case reflect.Bool:
		switch v := value.(type) {
		case bool:
			field.SetBool(v)
		case string:
			field.SetBool(v == "true" || v == "yes" || v == "1")
		default:
			return fmt.Errorf("cannot convert %T to bool", value)
		}

	default:
		rv := reflect.ValueOf(value)
		if !rv.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("cannot convert %v to %v", rv.Type(), field.Type())
		}
		field.Set(rv.Convert(field.Type()))
	}
	return nil
}
