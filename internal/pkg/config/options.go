package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// KeyHTTPAPIEndpoint holds the Sber HTTP API address announced on the global
// config topic.
const KeyHTTPAPIEndpoint = "sber-http_api_endpoint"

// Options is a flat JSON document of runtime options that survive restarts.
type Options struct {
	logger *zap.Logger
	path   string

	mu     sync.Mutex
	values map[string]any
}

// LoadOptions reads path. A missing file yields empty options.
func LoadOptions(path string) (*Options, error) {
	o := &Options{
		logger: zap.L(),
		path:   path,
		values: map[string]any{},
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return o, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &o.values); err != nil {
		return nil, fmt.Errorf("options %s: %w", path, err)
	}
	return o, nil
}

func (o *Options) String(key string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, _ := o.values[key].(string)
	return s
}

// Set stores value and rewrites the file when it differs from the current one.
func (o *Options) Set(key, value string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	old, ok := o.values[key]
	if s, isString := old.(string); isString && s == value {
		return false, nil
	}
	if !ok {
		o.logger.Info("option added", zap.String("key", key))
	}
	o.values[key] = value
	o.logger.Info("option changed", zap.String("key", key), zap.Any("from", old), zap.String("to", value))

	data, err := json.MarshalIndent(o.values, "", "    ")
	if err != nil {
		return true, err
	}
	return true, os.WriteFile(o.path, data, 0o644)
}
